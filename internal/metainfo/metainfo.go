// Package metainfo is the bencode-decoding collaborator spec.md places
// out of scope for the download core: it turns a .torrent file into the
// torrent.Spec the core consumes, but never touches the network or the
// peer wire protocol itself.
package metainfo

import (
	"bytes"
	"crypto/sha1"
	"fmt"
	"io"
	"os"

	"github.com/jackpal/bencode-go"

	"gtorrent/internal/torrent"
)

type bencodeFile struct {
	Length int64    `bencode:"length"`
	Path   []string `bencode:"path"`
}

type bencodeInfo struct {
	Files       []bencodeFile `bencode:"files,omitempty"`
	Length      int64         `bencode:"length,omitempty"`
	Name        string        `bencode:"name"`
	PieceLength int64         `bencode:"piece length"`
	Pieces      string        `bencode:"pieces"`
	Private     int           `bencode:"private,omitempty"`
}

type bencodeTorrent struct {
	Announce     string        `bencode:"announce,omitempty"`
	AnnounceList [][]string    `bencode:"announce-list,omitempty"`
	Info         bencodeInfo   `bencode:"info"`
	Comment      string        `bencode:"comment,omitempty"`
	CreatedBy    string        `bencode:"created by,omitempty"`
}

// announces returns the deduplicated set of tracker announce URLs: every
// announce-list entry first, in tier order, then the single-value
// announce (also when a list is present), skipping duplicates.
func (bt *bencodeTorrent) announces() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(u string) {
		if u == "" || seen[u] {
			return
		}
		seen[u] = true
		out = append(out, u)
	}
	for _, tier := range bt.AnnounceList {
		for _, u := range tier {
			add(u)
		}
	}
	add(bt.Announce)
	return out
}

// Load reads and decodes a .torrent file at path.
func Load(path string) (*torrent.Spec, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	return Decode(f)
}

// Decode parses bencoded torrent metainfo from r into a torrent.Spec,
// plus the tracker announce URLs (out of the core's scope, consumed by
// internal/tracker). The info-hash is computed by re-encoding exactly
// the decoded "info" value, so it is insensitive to the declared field
// order of the bencodeInfo struct above.
func Decode(r io.Reader) (*torrent.Spec, []string, error) {
	var raw interface{}
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, err
	}
	if err := bencode.Unmarshal(bytes.NewReader(content), &raw); err != nil {
		return nil, nil, fmt.Errorf("decode torrent: %w", err)
	}
	rootDict, ok := raw.(map[string]interface{})
	if !ok {
		return nil, nil, &torrent.ConfigError{Reason: "torrent file is not a bencoded dictionary"}
	}
	infoValue, ok := rootDict["info"]
	if !ok {
		return nil, nil, &torrent.ConfigError{Reason: "missing info dictionary"}
	}

	var infoBuf bytes.Buffer
	if err := bencode.Marshal(&infoBuf, infoValue); err != nil {
		return nil, nil, fmt.Errorf("re-encode info dict: %w", err)
	}
	infoHash := sha1.Sum(infoBuf.Bytes())

	var bt bencodeTorrent
	if err := bencode.Unmarshal(bytes.NewReader(content), &bt); err != nil {
		return nil, nil, fmt.Errorf("decode torrent: %w", err)
	}

	spec, err := bt.toSpec(infoHash)
	if err != nil {
		return nil, nil, err
	}
	if err := spec.Validate(); err != nil {
		return nil, nil, err
	}
	return spec, bt.announces(), nil
}

func (bt *bencodeTorrent) toSpec(infoHash [20]byte) (*torrent.Spec, error) {
	info := bt.Info
	if len(info.Pieces)%20 != 0 {
		return nil, &torrent.ConfigError{Reason: "pieces length is not a multiple of 20"}
	}
	numPieces := len(info.Pieces) / 20
	hashes := make([][20]byte, numPieces)
	for i := 0; i < numPieces; i++ {
		copy(hashes[i][:], info.Pieces[i*20:(i+1)*20])
	}

	var files []torrent.File
	var total int64
	if len(info.Files) > 0 {
		for _, bf := range info.Files {
			path := ""
			for i, segment := range bf.Path {
				if i > 0 {
					path += "/"
				}
				path += segment
			}
			files = append(files, torrent.File{Length: bf.Length, Path: path})
			total += bf.Length
		}
	} else {
		files = []torrent.File{{Length: info.Length, Path: info.Name}}
		total = info.Length
	}

	return &torrent.Spec{
		Name:        info.Name,
		InfoHash:    infoHash,
		PieceLength: info.PieceLength,
		PieceHashes: hashes,
		TotalLength: total,
		Files:       files,
	}, nil
}
