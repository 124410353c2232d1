package db

import (
	"github.com/spf13/afero"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/cve-search/pkg/config"
	"github.com/aquasecurity/cve-search/pkg/metadata"
	"github.com/aquasecurity/cve-search/pkg/types"
)

// Store persists and reloads a flattened index.
type Store interface {
	Save(index types.Index, meta metadata.Metadata) error
	Load() (types.Index, error)
	Metadata() (metadata.Metadata, error)
	Path() string
}

// New returns the store of the given backend (config.BackendJSON or config.BackendBolt).
func New(backend, path string) (Store, error) {
	switch backend {
	case config.BackendJSON:
		return NewJSONStore(afero.NewOsFs(), path), nil
	case config.BackendBolt:
		return NewBoltStore(path), nil
	}
	return nil, xerrors.Errorf("unknown backend: %s", backend)
}
