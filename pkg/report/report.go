package report

import (
	"io"

	"golang.org/x/xerrors"

	"github.com/aquasecurity/cve-search/pkg/metadata"
)

const (
	FormatJSON  = "json"
	FormatYAML  = "yaml"
	FormatTable = "table"
)

var Formats = []string{FormatJSON, FormatYAML, FormatTable}

// Writer renders search results and index metadata.
type Writer interface {
	WriteMatches(w io.Writer, ids []string) error
	WriteMetadata(w io.Writer, md metadata.Metadata) error
}

func New(format string) (Writer, error) {
	switch format {
	case FormatJSON:
		return JSONWriter{}, nil
	case FormatYAML:
		return YAMLWriter{}, nil
	case FormatTable:
		return TableWriter{}, nil
	}
	return nil, xerrors.Errorf("unknown format %q (expected one of %v)", format, Formats)
}
