package main

import (
	"os"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog/log"

	"gtorrent/internal/applog"
	"gtorrent/internal/config"
	"gtorrent/internal/store/db"
)

const version = "0.1.0"

var cli struct {
	Verify struct {
		Torrent     string `arg:"" help:"Torrent file to verify." type:"existingfile"`
		ContentPath string `arg:"" optional:"" help:"Path to the downloaded content." type:"existingdir"`
	} `cmd:"" help:"Verify downloaded content against a torrent file."`
	Download struct {
		Torrent string `arg:"" help:"Torrent file to download." type:"existingfile"`
	} `cmd:"" help:"Download a torrent file."`
}

func main() {
	println("gtorrent v" + version)
	initDirs()
	applog.Init(os.Getenv("LOG_FILE"))
	defer applog.Shutdown()

	ctx := kong.Parse(&cli)
	switch ctx.Command() {
	case "verify <torrent>", "verify <torrent> <content-path>":
		contentPath := cli.Verify.ContentPath
		if contentPath == "" {
			contentPath = config.Main.DownloadDir
		}
		if err := verifyTorrent(cli.Verify.Torrent, contentPath); err != nil {
			log.Error().Err(err).Msg("verification failed")
			os.Exit(1)
		}
		println("torrent verified successfully.")
	case "download <torrent>":
		mainDB, err := db.Open(config.Main.DB.Path)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open database")
		}
		defer mainDB.Close()

		if err := downloadTorrent(mainDB, cli.Download.Torrent); err != nil {
			log.Error().Err(err).Msg("download failed")
			os.Exit(1)
		}
	default:
		ctx.PrintUsage(false)
	}
}

func initDirs() {
	if err := os.MkdirAll(config.Main.CacheDir, os.ModePerm); err != nil {
		log.Fatal().Err(err).Str("path", config.Main.CacheDir).Msg("failed to create cache directory")
	}
	if err := os.MkdirAll(config.Main.DownloadDir, os.ModePerm); err != nil {
		log.Fatal().Err(err).Str("path", config.Main.DownloadDir).Msg("failed to create download directory")
	}
}
