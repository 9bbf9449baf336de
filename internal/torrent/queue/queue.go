// Package queue is the shared work channel any idle, capable worker may
// pull from. Every worker is both a producer (requeue on failure or
// missing availability) and a consumer.
package queue

import (
	"sync"

	"gtorrent/internal/torrent"
)

// Queue wraps a buffered channel of PieceJob sized to numPieces, so
// Send never blocks once the coordinator has seeded it. Close is driven
// solely by the coordinator, once every piece has a verified result or
// a disk write has failed; a
// worker racing to requeue a (by then redundant) duplicate job after
// Close is a silent no-op rather than a panic on a closed channel.
type Queue struct {
	mu     sync.Mutex
	closed bool
	jobs   chan torrent.PieceJob
}

// New allocates a queue with capacity for numPieces in flight.
func New(numPieces int) *Queue {
	return &Queue{jobs: make(chan torrent.PieceJob, numPieces)}
}

// Send enqueues a job, or silently drops it if the queue has already
// been closed. Safe to call concurrently with Recv and with other Sends.
func (q *Queue) Send(job torrent.PieceJob) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.jobs <- job
}

// Recv returns the next job and true, or a zero job and false once the
// queue has been closed and drained.
func (q *Queue) Recv() (torrent.PieceJob, bool) {
	job, ok := <-q.jobs
	return job, ok
}

// Close signals that no further jobs will be accepted or delivered once
// drained. Only the coordinator calls this, after bytes_written reaches
// total_length or when a disk write fails.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.jobs)
}
