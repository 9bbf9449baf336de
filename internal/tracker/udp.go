package tracker

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math/rand"
	"net"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"

	"gtorrent/internal/torrent"
)

// BEP-15 actions.
const (
	actionConnect  int32 = 0
	actionAnnounce int32 = 1
	actionScrape   int32 = 2
)

const (
	eventStarted     int32 = 2
	protocolMagic          = 0x41727101980
	udpTimeout             = 10 * time.Second
)

// udpTracker implements BEP-15 announce over UDP.
type udpTracker struct {
	announceURL string
	lastError   error
	seeders     int32
	leechers    int32
	lastCheck   int64
	nextCheck   int64
}

func newUDPTracker(announce string) Tracker {
	return &udpTracker{announceURL: announce}
}

func (t *udpTracker) Announce() string { return t.announceURL }
func (t *udpTracker) Seeders() int     { return int(t.seeders) }
func (t *udpTracker) Leechers() int    { return int(t.leechers) }
func (t *udpTracker) LastError() error { return t.lastError }
func (t *udpTracker) LastCheck() int64 { return t.lastCheck }
func (t *udpTracker) NextCheck() int64 { return t.nextCheck }

func (t *udpTracker) GetPeers(spec *torrent.Spec, selfID [20]byte, port uint16) ([]torrent.Peer, error) {
	u, err := url.Parse(t.announceURL)
	if err != nil {
		t.lastError = err
		return nil, err
	}
	addr, err := net.ResolveUDPAddr("udp", u.Host)
	if err != nil {
		t.lastError = err
		return nil, err
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		t.lastError = err
		return nil, err
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(udpTimeout))

	connID, err := udpConnect(conn)
	if err != nil {
		t.lastError = err
		return nil, err
	}

	// Scraping is a courtesy best-effort call: some trackers don't
	// support it, and a failure here must not abort peer discovery.
	if seeders, leechers, err := udpScrape(conn, connID, spec); err != nil {
		log.Debug().Err(err).Str("tracker", t.announceURL).Msg("udp scrape failed, continuing to announce")
	} else {
		t.seeders = seeders
		t.leechers = leechers
	}

	peers, seeders, leechers, interval, err := udpAnnounce(conn, connID, spec, selfID, port)
	if err != nil {
		t.lastError = err
		return nil, err
	}
	t.seeders = seeders
	t.leechers = leechers
	t.lastCheck = time.Now().Unix()
	t.nextCheck = t.lastCheck + int64(interval)
	return peers, nil
}

func udpConnect(conn *net.UDPConn) (int64, error) {
	transactionID := rand.Int31()
	req := struct {
		ProtocolID    int64
		Action        int32
		TransactionID int32
	}{protocolMagic, actionConnect, transactionID}

	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.BigEndian, req); err != nil {
		return 0, err
	}
	if _, err := conn.Write(buf.Bytes()); err != nil {
		return 0, err
	}

	var resp struct {
		Action        int32
		TransactionID int32
		ConnectionID  int64
	}
	if err := binary.Read(conn, binary.BigEndian, &resp); err != nil {
		return 0, err
	}
	if resp.TransactionID != transactionID {
		return 0, fmt.Errorf("udp tracker: transaction id mismatch")
	}
	if resp.Action != actionConnect {
		return 0, fmt.Errorf("udp tracker: unexpected action %d", resp.Action)
	}
	return resp.ConnectionID, nil
}

func udpAnnounce(conn *net.UDPConn, connID int64, spec *torrent.Spec, selfID [20]byte, port uint16) ([]torrent.Peer, int32, int32, int32, error) {
	transactionID := rand.Int31()
	req := struct {
		ConnectionID int64
		Action       int32
		Transaction  int32
		InfoHash     [20]byte
		PeerID       [20]byte
		Downloaded   int64
		Left         int64
		Uploaded     int64
		Event        int32
		IP           int32
		Key          int32
		NumWant      int32
		Port         uint16
	}{
		ConnectionID: connID,
		Action:       actionAnnounce,
		Transaction:  transactionID,
		InfoHash:     spec.InfoHash,
		PeerID:       selfID,
		Left:         spec.TotalLength,
		Event:        eventStarted,
		NumWant:      -1,
		Port:         port,
	}

	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.BigEndian, req); err != nil {
		return nil, 0, 0, 0, err
	}
	if _, err := conn.Write(buf.Bytes()); err != nil {
		return nil, 0, 0, 0, err
	}

	respBuf := make([]byte, 4096)
	n, err := conn.Read(respBuf)
	if err != nil {
		return nil, 0, 0, 0, err
	}
	respBuf = respBuf[:n]

	var head struct {
		Action      int32
		Transaction int32
		Interval    int32
		Leechers    int32
		Seeders     int32
	}
	if err := binary.Read(bytes.NewReader(respBuf), binary.BigEndian, &head); err != nil {
		return nil, 0, 0, 0, err
	}
	if head.Transaction != transactionID {
		return nil, 0, 0, 0, fmt.Errorf("udp tracker: transaction id mismatch")
	}
	if head.Action != actionAnnounce {
		return nil, 0, 0, 0, fmt.Errorf("udp tracker: unexpected action %d", head.Action)
	}

	peerBytes := respBuf[20:]
	peers := make([]torrent.Peer, 0, len(peerBytes)/6)
	for i := 0; i+6 <= len(peerBytes); i += 6 {
		ip := net.IPv4(peerBytes[i], peerBytes[i+1], peerBytes[i+2], peerBytes[i+3])
		p := uint16(peerBytes[i+4])<<8 | uint16(peerBytes[i+5])
		peers = append(peers, torrent.Peer{IP: ip.String(), Port: p})
	}
	return peers, head.Seeders, head.Leechers, head.Interval, nil
}

// udpScrape asks the tracker for swarm stats (seeders/leechers) without
// requesting a peer list. Grounded on the teacher's tracker_udp.go
// scrape(), called as a best-effort step before announce.
func udpScrape(conn *net.UDPConn, connID int64, spec *torrent.Spec) (int32, int32, error) {
	transactionID := rand.Int31()
	req := struct {
		ConnectionID int64
		Action       int32
		Transaction  int32
		InfoHash     [20]byte
	}{
		ConnectionID: connID,
		Action:       actionScrape,
		Transaction:  transactionID,
		InfoHash:     spec.InfoHash,
	}

	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.BigEndian, req); err != nil {
		return 0, 0, err
	}
	if _, err := conn.Write(buf.Bytes()); err != nil {
		return 0, 0, err
	}

	respBuf := make([]byte, 1024)
	n, err := conn.Read(respBuf)
	if err != nil {
		return 0, 0, err
	}
	respBuf = respBuf[:n]

	var resp struct {
		Action      int32
		Transaction int32
		Seeders     int32
		Completed   int32
		Leechers    int32
	}
	if err := binary.Read(bytes.NewReader(respBuf), binary.BigEndian, &resp); err != nil {
		return 0, 0, err
	}
	if resp.Transaction != transactionID {
		return 0, 0, fmt.Errorf("udp tracker: transaction id mismatch")
	}
	if resp.Action != actionScrape {
		return 0, 0, fmt.Errorf("udp tracker: unexpected action %d", resp.Action)
	}
	return resp.Seeders, resp.Leechers, nil
}
