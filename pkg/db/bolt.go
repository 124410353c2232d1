package db

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/cve-search/pkg/metadata"
	"github.com/aquasecurity/cve-search/pkg/types"
)

const (
	RecordsBucket  = "records"
	MetadataBucket = "metadata"
	MetadataKey    = "data"
)

// BoltStore keeps one record per key in the "records" bucket. Keys are
// zero-padded positions so that cursor order is index order.
type BoltStore struct {
	path string
}

func NewBoltStore(path string) BoltStore {
	return BoltStore{path: path}
}

func (s BoltStore) Path() string {
	return s.path
}

// RecordKey returns the bucket key of the i-th record.
func RecordKey(i int) []byte {
	return []byte(fmt.Sprintf("%010d", i))
}

// Save replaces any index already stored in the file.
func (s BoltStore) Save(index types.Index, meta metadata.Metadata) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return xerrors.Errorf("failed to mkdir: %w", err)
	}

	db, err := bolt.Open(s.path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return xerrors.Errorf("failed to open db: %w", err)
	}
	defer db.Close()

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{RecordsBucket, MetadataBucket} {
			if tx.Bucket([]byte(name)) == nil {
				continue
			}
			if err := tx.DeleteBucket([]byte(name)); err != nil {
				return xerrors.Errorf("failed to delete bucket: %w", err)
			}
		}

		records, err := tx.CreateBucket([]byte(RecordsBucket))
		if err != nil {
			return xerrors.Errorf("failed to create a bucket: %w", err)
		}
		for i, record := range index {
			if err = put(records, RecordKey(i), record); err != nil {
				return xerrors.Errorf("failed to put %s: %w", record.ID, err)
			}
		}

		md, err := tx.CreateBucket([]byte(MetadataBucket))
		if err != nil {
			return xerrors.Errorf("failed to create a bucket: %w", err)
		}
		return put(md, []byte(MetadataKey), meta)
	})
	if err != nil {
		return xerrors.Errorf("error in db update: %w", err)
	}
	return db.Close()
}

func put(bucket *bolt.Bucket, key []byte, value any) error {
	v, err := json.Marshal(value)
	if err != nil {
		return xerrors.Errorf("failed to marshal JSON: %w", err)
	}
	return bucket.Put(key, v)
}

func (s BoltStore) Load() (types.Index, error) {
	index := types.Index{}
	err := s.view(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(RecordsBucket))
		if bucket == nil {
			return s.malformed(xerrors.Errorf("no %s bucket", RecordsBucket))
		}
		return bucket.ForEach(func(k, v []byte) error {
			var record types.Record
			if err := json.Unmarshal(v, &record); err != nil {
				return s.malformed(xerrors.Errorf("record %s: %w", k, err))
			}
			index = append(index, record)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return index, nil
}

func (s BoltStore) Metadata() (metadata.Metadata, error) {
	var md metadata.Metadata
	err := s.view(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(MetadataBucket))
		if bucket == nil {
			return s.malformed(xerrors.Errorf("no %s bucket", MetadataBucket))
		}
		v := bucket.Get([]byte(MetadataKey))
		if v == nil {
			return s.malformed(xerrors.Errorf("no %s key", MetadataKey))
		}
		if err := json.Unmarshal(v, &md); err != nil {
			return s.malformed(err)
		}
		return nil
	})
	if err != nil {
		return metadata.Metadata{}, err
	}
	return md, nil
}

func (s BoltStore) view(fn func(tx *bolt.Tx) error) error {
	// bolt creates missing files even in read-only mode
	if _, err := os.Stat(s.path); err != nil {
		return xerrors.Errorf("file open error: %w", err)
	}

	db, err := bolt.Open(s.path, 0o600, &bolt.Options{ReadOnly: true, Timeout: time.Second})
	if err != nil {
		return s.malformed(err)
	}
	defer db.Close()

	return db.View(fn)
}

func (s BoltStore) malformed(err error) error {
	return &types.MalformedIndexError{Path: s.path, Err: err}
}
