package metadata

import (
	"time"

	"github.com/aquasecurity/cve-search/pkg/types"
)

// SchemaVersion is bumped when the record layout changes.
const SchemaVersion = 1

// Metadata describes one index build.
type Metadata struct {
	Version   int       `json:",omitempty" yaml:"version,omitempty"`
	UpdatedAt time.Time `json:",omitempty" yaml:"updated_at,omitempty"`
	FirstYear int       `json:",omitempty" yaml:"first_year,omitempty"`
	LastYear  int       `json:",omitempty" yaml:"last_year,omitempty"`
	Records   int       `yaml:"records"`
}

// New describes an index built from the given feed years at the given time.
func New(index types.Index, years []int, updatedAt time.Time) Metadata {
	md := Metadata{
		Version:   SchemaVersion,
		UpdatedAt: updatedAt.UTC(),
		Records:   len(index),
	}
	if len(years) > 0 {
		md.FirstYear = years[0]
		md.LastYear = years[len(years)-1]
	}
	return md
}
