package config

import (
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"golang.org/x/xerrors"
)

const (
	DefaultDBPath = "cve_db.json"
	// DefaultFeedURL is formatted with the feed year.
	DefaultFeedURL = "https://nvd.nist.gov/feeds/json/cve/1.0/nvdcve-1.0-%d.json.gz"
	// DefaultMinYear is the first year with records in the NVD feeds.
	DefaultMinYear = 2002

	BackendJSON = "json"
	BackendBolt = "bolt"
)

// Duration lets TOML values like "90s" decode into a time.Duration.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

type Config struct {
	DBPath      string   `toml:"db_path"`
	Backend     string   `toml:"backend"`
	FeedURL     string   `toml:"feed_url"`
	MinYear     int      `toml:"min_year"`
	Concurrency int      `toml:"concurrency"`
	Retry       int      `toml:"retry"`
	Timeout     Duration `toml:"timeout"`
}

func Default() Config {
	return Config{
		DBPath:      DefaultDBPath,
		Backend:     BackendJSON,
		FeedURL:     DefaultFeedURL,
		MinYear:     DefaultMinYear,
		Concurrency: 1,
		Retry:       3,
		Timeout:     Duration{Duration: 5 * time.Minute},
	}
}

// Load reads a TOML file on top of the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, xerrors.Errorf("failed to decode %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, xerrors.Errorf("unknown keys in %s: %v", path, undecoded)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch {
	case c.Backend != BackendJSON && c.Backend != BackendBolt:
		return xerrors.Errorf("unknown backend %q (%s or %s)", c.Backend, BackendJSON, BackendBolt)
	case c.DBPath == "":
		return xerrors.New("db path must not be empty")
	case !strings.Contains(c.FeedURL, "%d"):
		return xerrors.Errorf("feed URL %q must contain %%d for the year", c.FeedURL)
	case c.MinYear < 1999:
		return xerrors.Errorf("min year %d is before the first CVE year", c.MinYear)
	case c.Concurrency < 1:
		return xerrors.Errorf("concurrency must be positive: %d", c.Concurrency)
	case c.Retry < 0:
		return xerrors.Errorf("retry must not be negative: %d", c.Retry)
	}
	return nil
}
