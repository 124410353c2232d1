package pkg

import (
	"github.com/urfave/cli"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/cve-search/pkg/db"
	"github.com/aquasecurity/cve-search/pkg/report"
)

func (ac AppConfig) info(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	w, err := report.New(c.String("format"))
	if err != nil {
		return err
	}

	store, err := db.New(cfg.Backend, cfg.DBPath)
	if err != nil {
		return xerrors.Errorf("db error: %w", err)
	}

	md, err := store.Metadata()
	if err != nil {
		return xerrors.Errorf("failed to read metadata: %w", err)
	}
	return w.WriteMetadata(c.App.Writer, md)
}
