// Package config loads application configuration from the environment
// (and an optional .env file), the way the teacher's config package
// does, generalized to the new download core's needs: download
// destination, peer port, and the bookkeeping database path.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	DownloadDir string
	CacheDir    string
	ListenPort  uint16
	DB          *DBConfig
}

func NewAppConfig() *AppConfig {
	downloadDir := os.Getenv("DOWNLOAD_DIR")
	if downloadDir == "" {
		downloadDir = "storage/downloads"
	}

	cacheDir := os.Getenv("CACHE_DIR")
	if cacheDir == "" {
		cacheDir = "storage/cache"
	}

	port := uint16(6881)
	if v := os.Getenv("LISTEN_PORT"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 16); err == nil {
			port = uint16(n)
		}
	}

	return &AppConfig{
		DownloadDir: downloadDir,
		CacheDir:    cacheDir,
		ListenPort:  port,
		DB:          NewDBConfig(),
	}
}

// Main is the process-wide configuration, populated from the
// environment (and .env, if present) at package init.
var Main *AppConfig

func init() {
	_ = godotenv.Load()
	Main = NewAppConfig()
}
