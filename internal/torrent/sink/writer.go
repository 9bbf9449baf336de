// Package sink consumes verified pieces and maps their global byte
// offsets onto one or more physical output files.
package sink

import (
	"io"
	"os"
	"path/filepath"

	"gtorrent/internal/torrent"
)

type fileHandle struct {
	f      *os.File
	start  int64 // cumulative bytes before this file
	length int64
}

// Writer owns every output file handle exclusively; no other goroutine
// ever touches them. Construct one per download with New.
type Writer struct {
	files []fileHandle
}

// New creates the output files for spec at root (single-file: a bare
// file at files[0].Path; multi-file: a directory named spec.Name
// containing each file at its relative path, with intermediate
// directories created as needed).
func New(root string, spec *torrent.Spec) (*Writer, error) {
	w := &Writer{files: make([]fileHandle, 0, len(spec.Files))}

	var baseDir string
	if len(spec.Files) > 1 {
		baseDir = filepath.Join(root, spec.Name)
		if err := os.MkdirAll(baseDir, 0o755); err != nil {
			return nil, &torrent.IoError{Err: err}
		}
	} else {
		baseDir = root
	}

	var offset int64
	for _, file := range spec.Files {
		path := filepath.Join(baseDir, file.Path)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, &torrent.IoError{Err: err}
		}
		f, err := os.Create(path)
		if err != nil {
			return nil, &torrent.IoError{Err: err}
		}
		if err := f.Truncate(file.Length); err != nil {
			f.Close()
			return nil, &torrent.IoError{Err: err}
		}
		w.files = append(w.files, fileHandle{f: f, start: offset, length: file.Length})
		offset += file.Length
	}
	return w, nil
}

// Write places bytes starting at the global offset, splitting across
// file boundaries as needed. A piece may lie entirely within one file,
// cross exactly one boundary, or cross several; all are handled the
// same way. Idempotent at the byte level: writing the same offset twice
// overwrites rather than appending.
func (w *Writer) Write(offset int64, data []byte) error {
	end := offset + int64(len(data))
	for _, fh := range w.files {
		fileEnd := fh.start + fh.length
		if offset >= fileEnd || end <= fh.start {
			continue
		}

		writeStartInFile := int64(0)
		if offset > fh.start {
			writeStartInFile = offset - fh.start
		}
		dataStart := int64(0)
		if fh.start > offset {
			dataStart = fh.start - offset
		}
		dataEnd := int64(len(data))
		if fileEnd < end {
			dataEnd = dataEnd - (end - fileEnd)
		}

		if _, err := fh.f.Seek(writeStartInFile, io.SeekStart); err != nil {
			return &torrent.IoError{Err: err}
		}
		if _, err := fh.f.Write(data[dataStart:dataEnd]); err != nil {
			return &torrent.IoError{Err: err}
		}
	}
	return nil
}

// Close closes every output file handle.
func (w *Writer) Close() error {
	var firstErr error
	for _, fh := range w.files {
		if err := fh.f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
