package sink

import (
	"os"
	"path/filepath"
	"testing"

	"gtorrent/internal/torrent"
)

func TestWriterSingleFile(t *testing.T) {
	dir := t.TempDir()
	spec := &torrent.Spec{
		Name:        "a.bin",
		TotalLength: 100,
		Files:       []torrent.File{{Length: 100, Path: "a.bin"}},
	}
	w, err := New(dir, spec)
	if err != nil {
		t.Fatal(err)
	}
	content := make([]byte, 100)
	for i := range content {
		content[i] = byte(i)
	}
	if err := w.Write(0, content); err != nil {
		t.Fatal(err)
	}
	w.Close()

	got, err := os.ReadFile(filepath.Join(dir, "a.bin"))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 100 {
		t.Fatalf("got %d bytes, want 100", len(got))
	}
	for i := range content {
		if got[i] != content[i] {
			t.Fatalf("byte %d mismatch: got %d want %d", i, got[i], content[i])
		}
	}
}

func TestWriterPieceSpansTwoFiles(t *testing.T) {
	dir := t.TempDir()
	spec := &torrent.Spec{
		Name:        "multi",
		TotalLength: 200,
		Files: []torrent.File{
			{Length: 70, Path: "x"},
			{Length: 130, Path: "y/z"},
		},
	}
	w, err := New(dir, spec)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	piece0 := make([]byte, 100)
	for i := range piece0 {
		piece0[i] = 1
	}
	piece1 := make([]byte, 100)
	for i := range piece1 {
		piece1[i] = 2
	}

	if err := w.Write(0, piece0); err != nil {
		t.Fatal(err)
	}
	if err := w.Write(100, piece1); err != nil {
		t.Fatal(err)
	}
	w.Close()

	x, err := os.ReadFile(filepath.Join(dir, "multi", "x"))
	if err != nil {
		t.Fatal(err)
	}
	if len(x) != 70 {
		t.Fatalf("x: got %d bytes, want 70", len(x))
	}
	for _, b := range x {
		if b != 1 {
			t.Fatalf("x should be all piece0 bytes (1), got %d", b)
		}
	}

	yz, err := os.ReadFile(filepath.Join(dir, "multi", "y", "z"))
	if err != nil {
		t.Fatal(err)
	}
	if len(yz) != 130 {
		t.Fatalf("y/z: got %d bytes, want 130", len(yz))
	}
	for i, b := range yz {
		want := byte(1)
		if i >= 30 {
			want = 2
		}
		if b != want {
			t.Fatalf("y/z byte %d: got %d, want %d", i, b, want)
		}
	}
}

func TestWriterPieceSpansThreeFiles(t *testing.T) {
	dir := t.TempDir()
	spec := &torrent.Spec{
		Name:        "multi3",
		TotalLength: 90,
		Files: []torrent.File{
			{Length: 20, Path: "a"},
			{Length: 20, Path: "b"},
			{Length: 50, Path: "c"},
		},
	}
	w, err := New(dir, spec)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	piece := make([]byte, 90)
	for i := range piece {
		piece[i] = byte(i % 251)
	}
	if err := w.Write(0, piece); err != nil {
		t.Fatal(err)
	}
	w.Close()

	var got []byte
	for _, name := range []string{"a", "b", "c"} {
		b, err := os.ReadFile(filepath.Join(dir, "multi3", name))
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, b...)
	}
	if len(got) != len(piece) {
		t.Fatalf("got %d bytes, want %d", len(got), len(piece))
	}
	for i := range piece {
		if got[i] != piece[i] {
			t.Fatalf("byte %d mismatch: got %d want %d", i, got[i], piece[i])
		}
	}
}

func TestWriterIdempotentOverwrite(t *testing.T) {
	dir := t.TempDir()
	spec := &torrent.Spec{
		Name:        "a.bin",
		TotalLength: 10,
		Files:       []torrent.File{{Length: 10, Path: "a.bin"}},
	}
	w, err := New(dir, spec)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	first := []byte("0123456789")
	second := []byte("abcdefghij")
	if err := w.Write(0, first); err != nil {
		t.Fatal(err)
	}
	if err := w.Write(0, second); err != nil {
		t.Fatal(err)
	}
	w.Close()

	got, err := os.ReadFile(filepath.Join(dir, "a.bin"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(second) {
		t.Fatalf("got %q, want %q (second write should overwrite first)", got, second)
	}
}
