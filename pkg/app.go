package pkg

import (
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/urfave/cli"
	"golang.org/x/xerrors"
	"k8s.io/utils/clock"

	"github.com/aquasecurity/cve-search/pkg/config"
	"github.com/aquasecurity/cve-search/pkg/log"
	"github.com/aquasecurity/cve-search/pkg/report"
)

type AppConfig struct {
	Clock clock.Clock
}

func (ac AppConfig) NewApp(version string) *cli.App {
	if ac.Clock == nil {
		ac.Clock = clock.RealClock{}
	}

	app := cli.NewApp()
	app.Name = "cve-search"
	app.Version = version
	app.Usage = "Build a local index of the NVD CVE feeds and search it by product and version"

	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config, c",
			Usage: "TOML config file",
		},
		cli.BoolFlag{
			Name:  "debug",
			Usage: "debug mode",
		},
	}
	app.Before = func(c *cli.Context) error {
		log.SetDebug(c.Bool("debug"))
		return nil
	}

	app.Commands = []cli.Command{
		{
			Name:   "update",
			Usage:  "download every yearly feed and rebuild the index",
			Action: ac.update,
			Flags: append(storeFlags(),
				cli.StringFlag{
					Name:  "feed-url",
					Usage: "feed URL template, formatted with the year",
					Value: config.DefaultFeedURL,
				},
				cli.IntFlag{
					Name:  "min-year",
					Usage: "first feed year",
					Value: config.DefaultMinYear,
				},
				cli.IntFlag{
					Name:  "concurrency",
					Usage: "number of feed years downloaded at the same time",
					Value: 1,
				},
				cli.IntFlag{
					Name:  "retry",
					Usage: "number of retries per feed",
					Value: 3,
				},
				cli.DurationFlag{
					Name:  "timeout",
					Usage: "timeout per feed download",
					Value: 5 * time.Minute,
				},
				cli.BoolFlag{
					Name:  "no-progress",
					Usage: "suppress the progress bar",
				},
			),
		},
		{
			Name:   "search",
			Usage:  "print the CVE IDs affecting a product version",
			Action: ac.search,
			Flags: append(storeFlags(),
				cli.StringFlag{
					Name:     "product, p",
					Usage:    "product name (case-insensitive)",
					Required: true,
				},
				cli.StringFlag{
					Name:     "version, v",
					Usage:    "product version (exact match)",
					Required: true,
				},
				cli.BoolFlag{
					Name:  "all-matches, a",
					Usage: "also match entries affecting every version (\"*\")",
				},
				formatFlag(),
			),
		},
		{
			Name:   "info",
			Usage:  "print metadata of the index",
			Action: ac.info,
			Flags:  append(storeFlags(), formatFlag()),
		},
	}

	return app
}

func storeFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "db, d",
			Usage: "index file path",
			Value: config.DefaultDBPath,
		},
		cli.StringFlag{
			Name:  "backend",
			Usage: "index backend (json or bolt)",
			Value: config.BackendJSON,
		},
	}
}

func formatFlag() cli.Flag {
	return cli.StringFlag{
		Name:  "format, f",
		Usage: "output format (" + strings.Join(report.Formats, ", ") + ")",
		Value: report.FormatJSON,
	}
}

// loadConfig reads the config file and applies the flags set on the command line.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load(c.GlobalString("config"))
	if err != nil {
		return config.Config{}, xerrors.Errorf("config error: %w", err)
	}

	if c.IsSet("db") {
		cfg.DBPath = c.String("db")
	}
	if c.IsSet("backend") {
		cfg.Backend = c.String("backend")
	}
	if c.IsSet("feed-url") {
		cfg.FeedURL = c.String("feed-url")
	}
	if c.IsSet("min-year") {
		cfg.MinYear = c.Int("min-year")
	}
	if c.IsSet("concurrency") {
		cfg.Concurrency = c.Int("concurrency")
	}
	if c.IsSet("retry") {
		cfg.Retry = c.Int("retry")
	}
	if c.IsSet("timeout") {
		cfg.Timeout = config.Duration{Duration: c.Duration("timeout")}
	}

	if err = cfg.Validate(); err != nil {
		return config.Config{}, xerrors.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newSpinner(suffix string) *spinner.Spinner {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Writer = os.Stderr
	s.Suffix = " " + suffix
	return s
}
