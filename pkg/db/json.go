package db

import (
	"bufio"
	"encoding/json"
	"io"
	"path/filepath"

	"github.com/spf13/afero"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/cve-search/pkg/metadata"
	"github.com/aquasecurity/cve-search/pkg/types"
)

// JSONStore keeps the index as one JSON array of records.
type JSONStore struct {
	fs   afero.Fs
	path string
}

func NewJSONStore(fs afero.Fs, path string) JSONStore {
	return JSONStore{fs: fs, path: path}
}

func (s JSONStore) Path() string {
	return s.path
}

// Save writes the index to a temporary file and renames it over the previous
// one, so a failed save leaves the old index in place. The JSON array has no
// room for metadata, so it is dropped.
func (s JSONStore) Save(index types.Index, _ metadata.Metadata) error {
	if index == nil {
		index = types.Index{}
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return xerrors.Errorf("mkdir error: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	if err := s.write(tmp, index); err != nil {
		_ = s.fs.Remove(tmp)
		return err
	}
	if err := s.fs.Rename(tmp, s.path); err != nil {
		_ = s.fs.Remove(tmp)
		return xerrors.Errorf("failed to rename %s: %w", tmp, err)
	}
	return nil
}

func (s JSONStore) write(path string, index types.Index) error {
	f, err := s.fs.Create(path)
	if err != nil {
		return xerrors.Errorf("unable to open a file: %w", err)
	}

	w := bufio.NewWriter(f)
	if err = json.NewEncoder(w).Encode(index); err != nil {
		_ = f.Close()
		return xerrors.Errorf("failed to marshal JSON: %w", err)
	}
	if err = w.Flush(); err != nil {
		_ = f.Close()
		return xerrors.Errorf("failed to save a file: %w", err)
	}
	if err = f.Close(); err != nil {
		return xerrors.Errorf("failed to close a file: %w", err)
	}
	return nil
}

// Load streams the JSON array back. A file whose top-level value is not an
// array is reported as *types.MalformedIndexError.
func (s JSONStore) Load() (types.Index, error) {
	f, err := s.fs.Open(s.path)
	if err != nil {
		return nil, xerrors.Errorf("file open error: %w", err)
	}
	defer f.Close()

	dec := json.NewDecoder(bufio.NewReader(f))
	tok, err := dec.Token()
	if err != nil {
		return nil, s.malformed(err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return nil, s.malformed(xerrors.Errorf("expected an array, got %v", tok))
	}

	index := types.Index{}
	for dec.More() {
		var record types.Record
		if err = dec.Decode(&record); err != nil {
			return nil, s.malformed(err)
		}
		index = append(index, record)
	}
	if _, err = dec.Token(); err != nil {
		return nil, s.malformed(err)
	}
	if tok, err = dec.Token(); err != io.EOF {
		if err == nil {
			err = xerrors.Errorf("unexpected data after the array: %v", tok)
		}
		return nil, s.malformed(err)
	}
	return index, nil
}

// Metadata only knows the number of records, since nothing else is stored.
func (s JSONStore) Metadata() (metadata.Metadata, error) {
	index, err := s.Load()
	if err != nil {
		return metadata.Metadata{}, err
	}
	return metadata.Metadata{Records: len(index)}, nil
}

func (s JSONStore) malformed(err error) error {
	return &types.MalformedIndexError{Path: s.path, Err: err}
}
