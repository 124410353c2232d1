package pkg

import (
	"github.com/urfave/cli"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/cve-search/pkg/db"
	"github.com/aquasecurity/cve-search/pkg/log"
	"github.com/aquasecurity/cve-search/pkg/report"
	"github.com/aquasecurity/cve-search/pkg/search"
	"github.com/aquasecurity/cve-search/pkg/types"
)

func (ac AppConfig) search(c *cli.Context) error {
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

	s := newSpinner("Loading the index")
	s.Start()
	index, err := store.Load()
	s.Stop()
	if err != nil {
		return xerrors.Errorf("failed to load the index: %w", err)
	}

	q := types.Query{
		Product:    c.String("product"),
		Version:    c.String("version"),
		AllMatches: c.Bool("all-matches"),
	}
	ids := search.Search(index, q)
	log.Debug("Search finished", log.String("product", q.Product), log.String("version", q.Version),
		log.Bool("all_matches", q.AllMatches), log.Int("matches", len(ids)))

	return w.WriteMatches(c.App.Writer, ids)
}
