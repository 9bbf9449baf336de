package sink

import "gtorrent/internal/torrent"

// Sink is the single-consumer channel of PieceResult the coordinator
// reads from and forwards to a Writer at the global byte offset
// index * piece_length.
type Sink struct {
	results chan torrent.PieceResult
}

// NewSink allocates a result channel buffered to numPieces, so a worker
// emitting a result never blocks waiting for the (single) consumer.
func NewSink(numPieces int) *Sink {
	return &Sink{results: make(chan torrent.PieceResult, numPieces)}
}

// Emit is called by a worker after hash verification succeeds.
func (s *Sink) Emit(result torrent.PieceResult) {
	s.results <- result
}

// Recv is called by the coordinator's single consumer loop.
func (s *Sink) Recv() torrent.PieceResult {
	return <-s.results
}
