package metainfo

import (
	"bytes"
	"crypto/sha1"
	"testing"

	"github.com/jackpal/bencode-go"
)

func buildTorrentBytes(t *testing.T, infoDict map[string]interface{}, extra map[string]interface{}) []byte {
	t.Helper()
	root := map[string]interface{}{"info": infoDict}
	for k, v := range extra {
		root[k] = v
	}
	var buf bytes.Buffer
	if err := bencode.Marshal(&buf, root); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestDecodeSingleFile(t *testing.T) {
	content := []byte("hello world, this is a single piece of data!!!")
	hash := sha1.Sum(content)

	info := map[string]interface{}{
		"name":         "a.bin",
		"length":       int64(len(content)),
		"piece length": int64(len(content)),
		"pieces":       string(hash[:]),
	}
	raw := buildTorrentBytes(t, info, map[string]interface{}{"announce": "http://tracker.example/announce"})

	spec, announces, err := Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatal(err)
	}
	if spec.Name != "a.bin" || spec.TotalLength != int64(len(content)) {
		t.Fatalf("unexpected spec: %+v", spec)
	}
	if len(spec.Files) != 1 || spec.Files[0].Path != "a.bin" {
		t.Fatalf("unexpected files: %+v", spec.Files)
	}
	if len(spec.PieceHashes) != 1 || spec.PieceHashes[0] != hash {
		t.Fatalf("unexpected piece hashes: %+v", spec.PieceHashes)
	}
	if len(announces) != 1 || announces[0] != "http://tracker.example/announce" {
		t.Fatalf("unexpected announces: %v", announces)
	}
}

func TestDecodeMultiFile(t *testing.T) {
	p0 := []byte("0123456789")
	hashes := sha1.Sum(p0)

	info := map[string]interface{}{
		"name": "multi",
		"files": []interface{}{
			map[string]interface{}{"length": int64(7), "path": []interface{}{"x"}},
			map[string]interface{}{"length": int64(3), "path": []interface{}{"y", "z"}},
		},
		"piece length": int64(10),
		"pieces":       string(hashes[:]),
	}
	raw := buildTorrentBytes(t, info, nil)

	spec, _, err := Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatal(err)
	}
	if spec.TotalLength != 10 {
		t.Fatalf("got total length %d, want 10", spec.TotalLength)
	}
	if len(spec.Files) != 2 || spec.Files[0].Path != "x" || spec.Files[1].Path != "y/z" {
		t.Fatalf("unexpected files: %+v", spec.Files)
	}
}

func TestDecodeRejectsMismatchedPieceCount(t *testing.T) {
	info := map[string]interface{}{
		"name":         "bad.bin",
		"length":       int64(100),
		"piece length": int64(10),
		"pieces":       string(make([]byte, 20)), // only 1 hash, but 10 pieces needed
	}
	raw := buildTorrentBytes(t, info, nil)

	if _, _, err := Decode(bytes.NewReader(raw)); err == nil {
		t.Fatal("expected ConfigError for mismatched piece count")
	}
}

func TestAnnounceListPrecedence(t *testing.T) {
	bt := &bencodeTorrent{
		Announce:     "http://primary/announce",
		AnnounceList: [][]string{{"http://tier1a/announce", "http://tier1b/announce"}},
	}
	got := bt.announces()
	want := []string{"http://tier1a/announce", "http://tier1b/announce", "http://primary/announce"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
