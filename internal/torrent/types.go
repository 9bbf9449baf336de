// Package torrent holds the data model shared by the leech core:
// the torrent metainfo the coordinator is handed, the peers it dials,
// and the piece jobs/results that flow through the queue and sink.
package torrent

import "fmt"

// File describes one physical output file within a torrent, in the
// order it appears in the metainfo's file list.
type File struct {
	Length int64
	Path   string
}

// Spec is the prepared torrent metainfo the core consumes. It is built
// by an external collaborator (internal/metainfo) from a bencoded
// .torrent file; the core never parses bencode itself.
type Spec struct {
	Name        string
	InfoHash    [20]byte
	PieceLength int64
	PieceHashes [][20]byte
	TotalLength int64
	Files       []File
}

// Validate checks the invariants spec.md §3 requires of a TorrentSpec.
// A core consumer must call this once at construction time; a violation
// is a ConfigError and is fatal before any network I/O begins.
func (s *Spec) Validate() error {
	if s.PieceLength <= 0 {
		return &ConfigError{Reason: "piece_length must be positive"}
	}
	if len(s.PieceHashes) == 0 {
		return &ConfigError{Reason: "piece_hashes must not be empty"}
	}
	if len(s.Files) == 0 {
		return &ConfigError{Reason: "files must not be empty"}
	}
	wantPieces := (s.TotalLength + s.PieceLength - 1) / s.PieceLength
	if wantPieces != int64(len(s.PieceHashes)) {
		return &ConfigError{Reason: fmt.Sprintf(
			"piece count mismatch: ceil(%d/%d)=%d but have %d piece hashes",
			s.TotalLength, s.PieceLength, wantPieces, len(s.PieceHashes))}
	}
	var sum int64
	for _, f := range s.Files {
		sum += f.Length
	}
	if sum != s.TotalLength {
		return &ConfigError{Reason: fmt.Sprintf(
			"file lengths sum to %d, want total_length %d", sum, s.TotalLength)}
	}
	return nil
}

// PieceLen returns the length of the piece at index, accounting for the
// final piece being shorter than PieceLength.
func (s *Spec) PieceLen(index int) int64 {
	if index == len(s.PieceHashes)-1 {
		if rem := s.TotalLength % s.PieceLength; rem != 0 {
			return rem
		}
	}
	return s.PieceLength
}

// Peer is a remote BitTorrent endpoint. Immutable after parsing.
type Peer struct {
	IP   string
	Port uint16
}

func (p Peer) String() string {
	return fmt.Sprintf("%s:%d", p.IP, p.Port)
}

// PieceJob is a unit of work dispatched through the piece queue (C5).
// It is transferred by value; no two workers ever share one.
type PieceJob struct {
	Index        int
	ExpectedHash [20]byte
	Length       int64
}

// PieceResult is a verified piece, ready for the sink/writer (C6).
type PieceResult struct {
	Index int
	Bytes []byte
}

// ConnectError reports a failed or timed-out TCP connect to a peer.
type ConnectError struct {
	Peer Peer
	Err  error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connect to %s: %v", e.Peer, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// ProtocolError reports a malformed handshake, an unknown or malformed
// message, an info-hash mismatch, or an out-of-range block reference.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string { return "protocol error: " + e.Reason }

// ChokeTimeoutError reports a peer that stopped sending within the
// per-message receive deadline during a piece download.
type ChokeTimeoutError struct {
	Peer Peer
}

func (e *ChokeTimeoutError) Error() string {
	return fmt.Sprintf("timed out waiting for %s", e.Peer)
}

// IntegrityError reports a piece whose SHA-1 did not match its expected
// hash. The peer that sent it is no longer trusted.
type IntegrityError struct {
	Index int
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("piece %d failed hash verification", e.Index)
}

// IoError wraps a disk write failure. Fatal: propagated out of the core.
type IoError struct {
	Err error
}

func (e *IoError) Error() string { return "disk write failed: " + e.Err.Error() }

func (e *IoError) Unwrap() error { return e.Err }

// ConfigError reports an invalid TorrentSpec at construction time.
// Fatal: the download never starts.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string { return "invalid torrent spec: " + e.Reason }
