// Package applog wires up process-wide structured logging with
// zerolog, writing to both the console and a log file the way the
// teacher's top-level logging.go does.
package applog

import (
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var logFile *os.File

// Init configures the global zerolog logger to write to stderr (in
// console format) and to the log file at path, simultaneously.
func Init(path string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	consoleWriter := zerolog.ConsoleWriter{Out: os.Stderr}

	if path == "" {
		path = "gtorrent.log"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			println("applog: error creating log directory: " + err.Error())
		}
	}

	var err error
	logFile, err = os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		println("applog: error opening log file: " + err.Error())
	}

	var logger zerolog.Logger
	if logFile != nil {
		multi := zerolog.MultiLevelWriter(consoleWriter, logFile)
		logger = zerolog.New(multi).With().Timestamp().Logger()
	} else {
		logger = zerolog.New(consoleWriter).With().Timestamp().Logger()
	}
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = logger
}

// Shutdown closes the log file, if one was opened by Init.
func Shutdown() {
	if logFile != nil {
		if err := logFile.Close(); err != nil {
			println("applog: error closing log file: " + err.Error())
		}
	}
}
