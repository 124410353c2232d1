package report

import (
	"encoding/json"
	"io"

	"golang.org/x/xerrors"

	"github.com/aquasecurity/cve-search/pkg/metadata"
)

// JSONWriter prints values indented by four spaces, one document per call.
type JSONWriter struct{}

func (JSONWriter) WriteMatches(w io.Writer, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	return writeJSON(w, ids)
}

func (JSONWriter) WriteMetadata(w io.Writer, md metadata.Metadata) error {
	return writeJSON(w, md)
}

func writeJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return xerrors.Errorf("failed to marshal JSON: %w", err)
	}
	if _, err = w.Write(append(b, '\n')); err != nil {
		return xerrors.Errorf("failed to write JSON: %w", err)
	}
	return nil
}
