// Package db persists download bookkeeping (not piece data, which is
// written straight to disk by internal/torrent/sink) across runs, as a
// record of per-piece progress and tracker history. The download path
// does not read it back to skip or resume work. Modeled on the teacher's db/models package,
// rewired onto the new torrent.Spec/torrent.Peer types.
package db

import "gorm.io/gorm"

type Download struct {
	gorm.Model
	InfoHash        string `gorm:"uniqueIndex"`
	Name            string
	TorrentFilename string
	Status          DownloadStatus
	DownloadDir     string
	TotalSize       int64
	DownloadedSize  int64

	Peers    []Peer
	Pieces   []Piece
	Trackers []Tracker
}

type DownloadStatus = string

const (
	StatusInvalid     DownloadStatus = "invalid"
	StatusDownloading DownloadStatus = "downloading"
	StatusComplete    DownloadStatus = "complete"
	StatusError       DownloadStatus = "error"
)

type Peer struct {
	ID         uint `gorm:"primaryKey"`
	DownloadID uint
	TrackerID  uint
	IP         string
	Port       uint16
	IsSeeder   bool
}

type Piece struct {
	ID           uint `gorm:"primaryKey"`
	DownloadID   uint
	Index        int
	Hash         string
	IsDownloaded bool
}

type Tracker struct {
	ID         uint `gorm:"primaryKey"`
	DownloadID uint
	Announce   string
	Protocol   string // "http", "https", or "udp", from the announce URL's scheme
	Status     TrackerStatus
	LastError  string
	Seeders    int
	Leechers   int
	LastCheck  int64
	NextCheck  int64
}

type TrackerStatus = string

const (
	TrackerAnnouncing TrackerStatus = "announcing"
	TrackerError      TrackerStatus = "error"
	TrackerComplete   TrackerStatus = "complete"
)
