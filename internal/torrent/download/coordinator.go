// Package download is the coordinator (C7): it seeds the piece queue,
// spawns one worker per peer, drains verified results into the writer,
// and decides when the download is complete.
package download

import (
	"sync"

	"github.com/rs/zerolog/log"

	"gtorrent/internal/torrent"
	"gtorrent/internal/torrent/queue"
	"gtorrent/internal/torrent/sink"
	"gtorrent/internal/torrent/worker"
)

// Progress is pushed on a best-effort basis after every piece the
// coordinator writes to disk; a slow or absent consumer never blocks
// the coordinator (see SPEC_FULL.md §5).
type Progress struct {
	Index       int
	BytesDone   int64
	TotalLength int64
}

// Run drives one full download: it builds the queue and result sink, spawns
// a worker per peer, and returns once every byte has been written, or a
// disk error occurs. Worker errors are logged, never propagated: the
// download succeeds iff enough peers collectively complete every piece.
//
// progressCh, if non-nil, receives a Progress event per completed
// piece; sends are non-blocking.
func Run(spec *torrent.Spec, peers []torrent.Peer, w Writer, selfPeerID [20]byte, progressCh chan<- Progress) error {
	if err := spec.Validate(); err != nil {
		return err
	}

	numPieces := len(spec.PieceHashes)
	q := queue.New(numPieces)
	out := sink.NewSink(numPieces)

	for i := 0; i < numPieces; i++ {
		q.Send(torrent.PieceJob{
			Index:        i,
			ExpectedHash: spec.PieceHashes[i],
			Length:       spec.PieceLen(i),
		})
	}

	var wg sync.WaitGroup
	for _, p := range peers {
		wg.Add(1)
		go func(p torrent.Peer) {
			defer wg.Done()
			if err := worker.Run(p, spec.InfoHash, selfPeerID, q, out); err != nil {
				log.Warn().Err(err).Str("peer", p.String()).Msg("worker exited")
			}
		}(p)
	}
	// Closing the queue unblocks every worker's next Recv, so every
	// return path below must close it before this fires.
	defer wg.Wait()

	var bytesWritten int64
	done := make([]bool, numPieces)
	for bytesWritten < spec.TotalLength {
		result := out.Recv()
		if done[result.Index] {
			// A slower peer's duplicate of an already-committed piece;
			// harmless, but must not be double-counted toward completion.
			continue
		}

		offset := int64(result.Index) * spec.PieceLength
		if err := w.Write(offset, result.Bytes); err != nil {
			q.Close()
			return err
		}
		done[result.Index] = true
		bytesWritten += int64(len(result.Bytes))
		log.Info().Int("index", result.Index).Msg("piece verified and written")

		if progressCh != nil {
			select {
			case progressCh <- Progress{Index: result.Index, BytesDone: bytesWritten, TotalLength: spec.TotalLength}:
			default:
			}
		}
	}

	q.Close()
	log.Info().Msg("download finished")
	return nil
}

// Writer is the subset of sink.Writer the coordinator needs; factored
// out so tests can supply an in-memory fake.
type Writer interface {
	Write(offset int64, data []byte) error
}
