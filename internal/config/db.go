package config

import "os"

// DBConfig locates the bookkeeping database used to persist tracker
// and download records across runs.
type DBConfig struct {
	Path string
}

func NewDBConfig() *DBConfig {
	path := os.Getenv("DB_PATH")
	if path == "" {
		path = "storage/state.db"
	}
	return &DBConfig{Path: path}
}
