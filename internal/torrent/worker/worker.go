// Package worker implements the per-peer download worker state machine:
// it maintains choke state, pipelines block requests, assembles and
// verifies pieces, and recovers from peer failure without losing work.
package worker

import (
	"crypto/sha1"
	"time"

	"gtorrent/internal/torrent"
	"gtorrent/internal/torrent/peer"
	"gtorrent/internal/torrent/queue"
	"gtorrent/internal/torrent/sink"
	"gtorrent/internal/torrent/wire"
)

const (
	// MaxBlockSize is the largest block a request ever asks for; larger
	// is not universally accepted by peers.
	MaxBlockSize = 16 * 1024
	// MaxBacklog is how many requests this worker keeps pipelined to one
	// peer: the de-facto sweet spot between link saturation and
	// per-connection quotas some peers enforce.
	MaxBacklog = 5

	messageTimeout = 30 * time.Second
)

// progress tracks the assembly of one piece within one worker. Owned
// exclusively by the worker assembling it.
type progress struct {
	buf        []byte
	downloaded int64
	requested  int64
	backlog    int
}

// Run is one worker's lifecycle: connect to peer, announce interest,
// then repeatedly pull a PieceJob from q until it closes. Any hard
// error requeues the in-flight job (if any) and returns the error; the
// caller (the coordinator) logs it and moves on — a dead worker never
// loses a piece.
func Run(p torrent.Peer, infoHash, selfPeerID [20]byte, q *queue.Queue, out *sink.Sink) error {
	sess, err := peer.Connect(p, infoHash, selfPeerID)
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := sess.Send(&wire.Message{ID: wire.MsgUnchoke}); err != nil {
		return err
	}
	if err := sess.Send(&wire.Message{ID: wire.MsgInterested}); err != nil {
		return err
	}

	choked := true
	for {
		job, ok := q.Recv()
		if !ok {
			return nil
		}
		if !sess.Bitfield.Has(job.Index) {
			q.Send(job)
			continue
		}

		bytes, choked2, err := downloadPiece(sess, &job, choked)
		choked = choked2
		if err != nil {
			q.Send(job)
			return err
		}

		sum := sha1.Sum(bytes)
		if sum != job.ExpectedHash {
			q.Send(job)
			return &torrent.IntegrityError{Index: job.Index}
		}

		// Courtesy have; no upload obligation follows.
		_ = sess.Send(&wire.Message{ID: wire.MsgHave, Payload: wire.FormatHave(uint32(job.Index))})
		out.Emit(torrent.PieceResult{Index: job.Index, Bytes: bytes})
	}
}

// downloadPiece runs the download loop for one piece: pipeline fills,
// awaits messages, and dispatches them, returning the assembled bytes
// once downloaded reaches job.Length, along with the (possibly updated)
// choked state for the next piece on this same connection.
func downloadPiece(sess *peer.Session, job *torrent.PieceJob, choked bool) ([]byte, bool, error) {
	p := &progress{buf: make([]byte, job.Length)}

	for p.downloaded < job.Length {
		for !choked && p.backlog < MaxBacklog && p.requested < job.Length {
			blockSize := int64(MaxBlockSize)
			if remaining := job.Length - p.requested; remaining < blockSize {
				blockSize = remaining
			}
			req := wire.FormatRequest(uint32(job.Index), uint32(p.requested), uint32(blockSize))
			if err := sess.Send(&wire.Message{ID: wire.MsgRequest, Payload: req}); err != nil {
				return nil, choked, err
			}
			p.requested += blockSize
			p.backlog++
		}

		msg, err := sess.Recv(messageTimeout)
		if err != nil {
			return nil, choked, err
		}

		switch msg.ID {
		case wire.MsgChoke:
			choked = true
		case wire.MsgUnchoke:
			choked = false
		case wire.MsgHave:
			index, err := wire.ParseHave(msg.Payload)
			if err != nil {
				return nil, choked, err
			}
			sess.Bitfield.Set(int(index))
		case wire.MsgPiece:
			index, begin, data, err := wire.ParsePiece(msg.Payload)
			if err != nil {
				return nil, choked, err
			}
			if int(index) != job.Index {
				continue // belongs to a different piece; ignore
			}
			if int64(begin) >= int64(len(p.buf)) || int64(begin)+int64(len(data)) > int64(len(p.buf)) {
				return nil, choked, &torrent.ProtocolError{Reason: "block out of piece bounds"}
			}
			copy(p.buf[begin:], data)
			p.downloaded += int64(len(data))
			p.backlog--
		default:
			// keep_alive, interested, not_interested, request, cancel,
			// bitfield, port: ignored during the download loop.
		}
	}

	return p.buf, choked, nil
}
