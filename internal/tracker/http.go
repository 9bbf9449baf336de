package tracker

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	bencode "github.com/jackpal/bencode-go"

	"gtorrent/internal/torrent"
)

// httpTracker implements BEP-3 announce over HTTP(S).
type httpTracker struct {
	announceURL string
	lastError   error
	seeders     int
	leechers    int
	lastCheck   int64
	nextCheck   int64
}

func newHTTPTracker(announce string) Tracker {
	return &httpTracker{announceURL: announce}
}

func (t *httpTracker) Announce() string { return t.announceURL }
func (t *httpTracker) Seeders() int     { return t.seeders }
func (t *httpTracker) Leechers() int    { return t.leechers }
func (t *httpTracker) LastError() error { return t.lastError }
func (t *httpTracker) LastCheck() int64 { return t.lastCheck }
func (t *httpTracker) NextCheck() int64 { return t.nextCheck }

func (t *httpTracker) GetPeers(spec *torrent.Spec, selfID [20]byte, port uint16) ([]torrent.Peer, error) {
	cli := resty.New()
	resp, err := cli.R().
		SetQueryParam("info_hash", string(spec.InfoHash[:])).
		SetQueryParam("peer_id", string(selfID[:])).
		SetQueryParam("port", fmt.Sprintf("%d", port)).
		SetQueryParam("uploaded", "0").
		SetQueryParam("downloaded", "0").
		SetQueryParam("left", fmt.Sprintf("%d", spec.TotalLength)).
		SetQueryParam("compact", "1").
		SetQueryParam("event", "started").
		Get(t.announceURL)
	if err != nil {
		t.lastError = err
		return nil, err
	}
	if resp.StatusCode() != 200 {
		err = fmt.Errorf("tracker returned status %d", resp.StatusCode())
		t.lastError = err
		return nil, err
	}

	var parsed interface{}
	if err := bencode.Unmarshal(bytes.NewReader(resp.Body()), &parsed); err != nil {
		t.lastError = err
		return nil, err
	}
	dict, ok := parsed.(map[string]interface{})
	if !ok {
		err := fmt.Errorf("tracker response is not a dictionary")
		t.lastError = err
		return nil, err
	}

	if reason, ok := dict["failure reason"].(string); ok {
		err := fmt.Errorf("tracker failure: %s", reason)
		t.lastError = err
		return nil, err
	}
	if n, ok := asInt(dict["complete"]); ok {
		t.seeders = n
	}
	if n, ok := asInt(dict["incomplete"]); ok {
		t.leechers = n
	}
	peers, err := decodePeers(dict["peers"])
	if err != nil {
		t.lastError = err
		return nil, err
	}

	t.lastCheck = time.Now().Unix()
	if n, ok := asInt(dict["interval"]); ok {
		t.nextCheck = t.lastCheck + int64(n)
	}
	return peers, nil
}

// decodePeers handles both the compact binary peer list (a single
// 6-bytes-per-peer string) and the legacy dictionary-per-peer list.
func decodePeers(v interface{}) ([]torrent.Peer, error) {
	switch peers := v.(type) {
	case string:
		data := []byte(peers)
		if len(data)%6 != 0 {
			return nil, fmt.Errorf("compact peer list length %d not a multiple of 6", len(data))
		}
		out := make([]torrent.Peer, 0, len(data)/6)
		for i := 0; i+6 <= len(data); i += 6 {
			ip := fmt.Sprintf("%d.%d.%d.%d", data[i], data[i+1], data[i+2], data[i+3])
			port := uint16(data[i+4])<<8 | uint16(data[i+5])
			out = append(out, torrent.Peer{IP: ip, Port: port})
		}
		return out, nil
	case []interface{}:
		out := make([]torrent.Peer, 0, len(peers))
		for _, pv := range peers {
			pd, ok := pv.(map[string]interface{})
			if !ok {
				continue
			}
			ip, _ := pd["ip"].(string)
			port, _ := asInt(pd["port"])
			out = append(out, torrent.Peer{IP: ip, Port: uint16(port)})
		}
		return out, nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("unrecognized peers value type %T", v)
	}
}

func asInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int64:
		return int(n), true
	case int:
		return n, true
	default:
		return 0, false
	}
}
