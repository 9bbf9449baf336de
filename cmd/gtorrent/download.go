package main

import (
	"crypto/rand"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"

	"gtorrent/internal/config"
	"gtorrent/internal/humanize"
	"gtorrent/internal/metainfo"
	"gtorrent/internal/store/db"
	"gtorrent/internal/torrent"
	"gtorrent/internal/torrent/download"
	"gtorrent/internal/torrent/sink"
	"gtorrent/internal/tracker"
)

// selfPeerID generates a 20-byte peer ID with the conventional
// Azureus-style "-GT0001-" prefix followed by random bytes.
func selfPeerID() [20]byte {
	var id [20]byte
	copy(id[:], "-GT0001-")
	rand.Read(id[8:])
	return id
}

// downloadTorrent reads torrentFile, announces to every tracker it
// lists, and runs the download core against the discovered peers,
// reporting progress on a terminal progress bar as pieces land.
func downloadTorrent(mainDB *db.Database, torrentFile string) error {
	log.Info().Str("file", torrentFile).Msg("downloading torrent")

	spec, announces, err := metainfo.Load(torrentFile)
	if err != nil {
		return err
	}

	dlRecord, err := mainDB.CreateDownload(spec, announces, filepath.Base(torrentFile), config.Main.DownloadDir)
	if err != nil {
		return err
	}

	self := selfPeerID()
	peersByAddr := make(map[string]torrent.Peer)
	var peerMu sync.Mutex

	var wg sync.WaitGroup
	for i, announce := range announces {
		tr, err := tracker.New(announce)
		if err != nil {
			log.Warn().Err(err).Str("tracker", announce).Msg("unsupported tracker, skipping")
			continue
		}
		trackerRecord := &dlRecord.Trackers[i]

		wg.Add(1)
		go func(tr tracker.Tracker, trackerRecord *db.Tracker) {
			defer wg.Done()
			log.Info().Str("tracker", tr.Announce()).Msg("announcing")
			peers, err := tr.GetPeers(spec, self, config.Main.ListenPort)
			if err != nil {
				trackerRecord.Status = db.TrackerError
				trackerRecord.LastError = err.Error()
				trackerRecord.LastCheck = tr.LastCheck()
				trackerRecord.NextCheck = tr.NextCheck()
				mainDB.UpdateTracker(trackerRecord)
				log.Warn().Err(err).Str("tracker", tr.Announce()).Msg("announce failed")
				return
			}
			trackerRecord.Status = db.TrackerComplete
			trackerRecord.Seeders = tr.Seeders()
			trackerRecord.Leechers = tr.Leechers()
			trackerRecord.LastCheck = tr.LastCheck()
			trackerRecord.NextCheck = tr.NextCheck()
			mainDB.UpdateTracker(trackerRecord)
			mainDB.RecordTrackerPeers(trackerRecord, peers)

			peerMu.Lock()
			for _, p := range peers {
				if p.IP == "0.0.0.0" {
					continue
				}
				peersByAddr[p.String()] = p
			}
			peerMu.Unlock()
		}(tr, trackerRecord)
	}
	wg.Wait()

	if len(peersByAddr) == 0 {
		return fmt.Errorf("no peers found for %s", spec.Name)
	}
	log.Info().Int("count", len(peersByAddr)).Msg("peers discovered")

	peers := make([]torrent.Peer, 0, len(peersByAddr))
	for _, p := range peersByAddr {
		peers = append(peers, p)
	}

	writer, err := sink.New(config.Main.DownloadDir, spec)
	if err != nil {
		dlRecord.Status = db.StatusError
		mainDB.UpdateDownload(dlRecord)
		return err
	}
	defer writer.Close()

	bar := progressbar.DefaultBytes(spec.TotalLength, spec.Name)
	progressCh := make(chan download.Progress, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		var last int64
		for p := range progressCh {
			bar.Add64(p.BytesDone - last)
			last = p.BytesDone
			mainDB.MarkPieceDownloaded(dlRecord.ID, p.Index)
		}
	}()

	err = download.Run(spec, peers, writer, self, progressCh)
	close(progressCh)
	<-done

	if err != nil {
		dlRecord.Status = db.StatusError
		mainDB.UpdateDownload(dlRecord)
		return err
	}

	dlRecord.Status = db.StatusComplete
	dlRecord.DownloadedSize = spec.TotalLength
	mainDB.UpdateDownload(dlRecord)
	log.Info().Str("size", humanize.Bytes(spec.TotalLength)).Msg("download complete")
	return nil
}
