package db

import (
	"encoding/hex"
	"fmt"
	"net/url"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"gtorrent/internal/torrent"
)

type Database struct {
	db *gorm.DB
}

func Open(path string) (*Database, error) {
	gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := gdb.AutoMigrate(&Download{}, &Peer{}, &Piece{}, &Tracker{}); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return &Database{db: gdb}, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// CreateDownload records a download's existence idempotently: a second
// call with the same info-hash returns the existing record instead of
// creating a duplicate one, so re-running against the same torrent
// file doesn't fork bookkeeping state.
func (d *Database) CreateDownload(spec *torrent.Spec, announces []string, torrentFilename, downloadDir string) (*Download, error) {
	infoHashHex := hex.EncodeToString(spec.InfoHash[:])

	existing := &Download{}
	if tx := d.db.Where("info_hash = ?", infoHashHex).First(existing); tx.Error == nil {
		return d.loadDownload(existing.ID)
	}

	download := &Download{
		InfoHash:        infoHashHex,
		Name:            spec.Name,
		TorrentFilename: torrentFilename,
		Status:          StatusDownloading,
		DownloadDir:     downloadDir,
		TotalSize:       spec.TotalLength,
	}
	if err := d.db.Create(download).Error; err != nil {
		return nil, err
	}

	for i, hash := range spec.PieceHashes {
		piece := &Piece{
			DownloadID: download.ID,
			Index:      i,
			Hash:       hex.EncodeToString(hash[:]),
		}
		if err := d.db.Create(piece).Error; err != nil {
			return nil, err
		}
	}
	for _, announce := range announces {
		protocol := ""
		if u, err := url.Parse(announce); err == nil {
			protocol = u.Scheme
		}
		tr := &Tracker{
			DownloadID: download.ID,
			Announce:   announce,
			Protocol:   protocol,
			Status:     TrackerAnnouncing,
		}
		if err := d.db.Create(tr).Error; err != nil {
			return nil, err
		}
	}

	return d.loadDownload(download.ID)
}

func (d *Database) loadDownload(id uint) (*Download, error) {
	download := &Download{}
	if err := d.db.Preload("Trackers").Preload("Pieces").Preload("Peers").First(download, id).Error; err != nil {
		return nil, err
	}
	return download, nil
}

func (d *Database) UpdateTracker(tr *Tracker) error {
	return d.db.Save(tr).Error
}

// RecordTrackerPeers stores, or refreshes, the peer list a tracker
// announce returned.
func (d *Database) RecordTrackerPeers(tr *Tracker, peers []torrent.Peer) error {
	for _, p := range peers {
		if err := d.recordPeer(tr, p); err != nil {
			return err
		}
	}
	return nil
}

func (d *Database) recordPeer(tr *Tracker, p torrent.Peer) error {
	existing := &Peer{}
	result := d.db.Where("download_id = ? AND ip = ? AND port = ?", tr.DownloadID, p.IP, p.Port).First(existing)
	newPeer := &Peer{
		DownloadID: tr.DownloadID,
		TrackerID:  tr.ID,
		IP:         p.IP,
		Port:       p.Port,
	}
	if result.Error == nil {
		newPeer.ID = existing.ID
		return d.db.Save(newPeer).Error
	}
	return d.db.Create(newPeer).Error
}
