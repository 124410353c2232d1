package report

import (
	"io"

	"golang.org/x/xerrors"
	"gopkg.in/yaml.v2"

	"github.com/aquasecurity/cve-search/pkg/metadata"
)

type YAMLWriter struct{}

func (YAMLWriter) WriteMatches(w io.Writer, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	return writeYAML(w, ids)
}

func (YAMLWriter) WriteMetadata(w io.Writer, md metadata.Metadata) error {
	return writeYAML(w, md)
}

func writeYAML(w io.Writer, v any) error {
	b, err := yaml.Marshal(v)
	if err != nil {
		return xerrors.Errorf("failed to marshal YAML: %w", err)
	}
	if _, err = w.Write(b); err != nil {
		return xerrors.Errorf("failed to write YAML: %w", err)
	}
	return nil
}
