package pkg

import (
	"context"

	"github.com/urfave/cli"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/cve-search/pkg/db"
	"github.com/aquasecurity/cve-search/pkg/feed"
	"github.com/aquasecurity/cve-search/pkg/log"
	"github.com/aquasecurity/cve-search/pkg/vulndb"
)

func (ac AppConfig) update(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	store, err := db.New(cfg.Backend, cfg.DBPath)
	if err != nil {
		return xerrors.Errorf("db error: %w", err)
	}

	client := feed.NewClient(
		feed.WithURL(cfg.FeedURL),
		feed.WithRetry(cfg.Retry),
		feed.WithTimeout(cfg.Timeout.Duration),
	)
	builder := vulndb.NewBuilder(client.Fetch,
		vulndb.WithClock(ac.Clock),
		vulndb.WithMinYear(cfg.MinYear),
		vulndb.WithConcurrency(cfg.Concurrency),
		vulndb.WithProgress(!c.Bool("no-progress")),
	)

	index, md, err := builder.Build(context.Background())
	if err != nil {
		return xerrors.Errorf("build error: %w", err)
	}

	s := newSpinner("Saving the index")
	s.Start()
	err = store.Save(index, md)
	s.Stop()
	if err != nil {
		return xerrors.Errorf("failed to save the index: %w", err)
	}

	log.Info("Index saved", log.FilePath(store.Path()), log.String("backend", cfg.Backend),
		log.Int("records", len(index)))
	return nil
}
