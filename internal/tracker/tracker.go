// Package tracker announces to BEP-3 HTTP and BEP-15 UDP trackers to
// discover peers for a torrent. It is, like internal/metainfo, an
// external collaborator of the download core: it produces a
// []torrent.Peer and never touches the peer wire protocol.
package tracker

import (
	"fmt"
	"net/url"

	"gtorrent/internal/torrent"
)

// Tracker announces our presence to one tracker and reports the peers
// and swarm stats it returns.
type Tracker interface {
	GetPeers(spec *torrent.Spec, selfID [20]byte, port uint16) ([]torrent.Peer, error)
	Announce() string
	Seeders() int
	Leechers() int
	LastError() error
	// LastCheck and NextCheck report the unix timestamp of the most
	// recent successful announce and the tracker's requested reannounce
	// interval added to it, respectively. Zero before the first
	// successful GetPeers call.
	LastCheck() int64
	NextCheck() int64
}

// New selects an HTTP or UDP tracker implementation by the announce
// URL's scheme.
func New(announce string) (Tracker, error) {
	u, err := url.Parse(announce)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "http", "https":
		return newHTTPTracker(announce), nil
	case "udp":
		return newUDPTracker(announce), nil
	default:
		return nil, fmt.Errorf("unsupported tracker protocol: %q", u.Scheme)
	}
}
