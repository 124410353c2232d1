package vulndb

import (
	"context"
	"errors"
	"os"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"
	pb "gopkg.in/cheggaaa/pb.v1"
	"k8s.io/utils/clock"

	"github.com/aquasecurity/cve-search/pkg/config"
	"github.com/aquasecurity/cve-search/pkg/log"
	"github.com/aquasecurity/cve-search/pkg/metadata"
	"github.com/aquasecurity/cve-search/pkg/nvd"
	"github.com/aquasecurity/cve-search/pkg/types"
)

// FetchFunc returns the raw CVE_Items of one feed year.
type FetchFunc func(ctx context.Context, year int) ([]any, error)

type options struct {
	clock       clock.Clock
	minYear     int
	concurrency int
	progress    bool
}

type Option func(*options)

func WithClock(clock clock.Clock) Option {
	return func(o *options) { o.clock = clock }
}

func WithMinYear(year int) Option {
	return func(o *options) { o.minYear = year }
}

// WithConcurrency sets how many feed years are fetched at the same time.
func WithConcurrency(n int) Option {
	return func(o *options) { o.concurrency = n }
}

// WithProgress shows a progress bar on stderr.
func WithProgress(progress bool) Option {
	return func(o *options) { o.progress = progress }
}

func newOptions(opts []Option) *options {
	o := &options{
		clock:       clock.RealClock{},
		minYear:     config.DefaultMinYear,
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.concurrency < 1 {
		o.concurrency = 1
	}
	return o
}

// Years returns every feed year from minYear up to the current year of the clock.
func Years(clk clock.Clock, minYear int) []int {
	var years []int
	for y := minYear; y <= clk.Now().Year(); y++ {
		years = append(years, y)
	}
	return years
}

// BuildIndex fetches and flattens the feeds of the given years. The records
// keep the order of years, then the upstream order within each year, even
// when years are fetched concurrently. The first failed year aborts the
// build and no year is fetched after it.
func BuildIndex(ctx context.Context, years []int, fetch FetchFunc, opts ...Option) (types.Index, error) {
	o := newOptions(opts)

	var bar *pb.ProgressBar
	if o.progress {
		bar = pb.New(len(years))
		bar.Output = os.Stderr
		bar.Start()
		defer bar.Finish()
	}

	perYear := make([][]types.Record, len(years))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)
	for i, year := range years {
		i, year := i, year
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			items, err := fetch(gctx, year)
			if err != nil {
				return transportError(year, err)
			}

			records := make([]types.Record, 0, len(items))
			for _, item := range items {
				records = append(records, nvd.Flatten(item))
			}
			perYear[i] = records

			log.Debug("Feed flattened", log.Year(year), log.Int("records", len(records)))
			if bar != nil {
				bar.Increment()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, xerrors.Errorf("build error: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, xerrors.Errorf("build canceled: %w", err)
	}

	return lo.Flatten(perYear), nil
}

func transportError(year int, err error) error {
	var te *types.TransportError
	if errors.As(err, &te) {
		return err
	}
	return &types.TransportError{Year: year, Err: err}
}

// Builder builds the full index from the minimum year up to the current year.
type Builder struct {
	fetch FetchFunc
	opts  []Option
}

func NewBuilder(fetch FetchFunc, opts ...Option) Builder {
	return Builder{
		fetch: fetch,
		opts:  opts,
	}
}

// Build computes the year range when it is called, so a long-running
// process picks up a new year without restarting.
func (b Builder) Build(ctx context.Context) (types.Index, metadata.Metadata, error) {
	o := newOptions(b.opts)
	years := Years(o.clock, o.minYear)
	if len(years) == 0 {
		return nil, metadata.Metadata{}, xerrors.Errorf("no feed years from %d to %d", o.minYear, o.clock.Now().Year())
	}

	log.Info("Building the index", log.Int("first_year", years[0]), log.Int("last_year", years[len(years)-1]))
	index, err := BuildIndex(ctx, years, b.fetch, b.opts...)
	if err != nil {
		return nil, metadata.Metadata{}, err
	}
	log.Info("Index built", log.Int("records", len(index)))

	return index, metadata.New(index, years, o.clock.Now()), nil
}
