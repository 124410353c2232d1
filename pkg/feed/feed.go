package feed

import (
	"bytes"
	"context"
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"net/http"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/parnurzeal/gorequest"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/cve-search/pkg/config"
	"github.com/aquasecurity/cve-search/pkg/log"
	"github.com/aquasecurity/cve-search/pkg/nvd"
	"github.com/aquasecurity/cve-search/pkg/types"
)

const (
	retry   = 3
	timeout = 5 * time.Minute
)

type options struct {
	urlTemplate string
	retry       int
	timeout     time.Duration
	wait        func(attempt int) time.Duration
}

type option func(*options)

// WithURL sets the feed URL template. It is formatted with the year.
func WithURL(urlTemplate string) option {
	return func(opts *options) { opts.urlTemplate = urlTemplate }
}

func WithRetry(retry int) option {
	return func(opts *options) { opts.retry = retry }
}

func WithTimeout(timeout time.Duration) option {
	return func(opts *options) { opts.timeout = timeout }
}

// Client downloads the yearly NVD JSON feeds.
type Client struct {
	*options
}

func NewClient(opts ...option) Client {
	o := &options{
		urlTemplate: config.DefaultFeedURL,
		retry:       retry,
		timeout:     timeout,
		wait:        backoff,
	}
	for _, opt := range opts {
		opt(o)
	}
	return Client{options: o}
}

func (c Client) URL(year int) string {
	return fmt.Sprintf(c.urlTemplate, year)
}

// Fetch returns the CVE_Items of the given year. All errors are *types.TransportError.
func (c Client) Fetch(ctx context.Context, year int) ([]any, error) {
	url := c.URL(year)
	logger := log.WithPrefix("nvd")
	logger.Info("Downloading feed", log.Year(year), log.String("url", url))

	body, err := c.fetchWithRetry(ctx, url)
	if err != nil {
		return nil, &types.TransportError{Year: year, URL: url, Err: err}
	}

	gr, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, &types.TransportError{Year: year, URL: url, Err: xerrors.Errorf("gzip error: %w", err)}
	}
	defer gr.Close()

	items, err := nvd.ParseFeed(gr)
	if err != nil {
		return nil, &types.TransportError{Year: year, URL: url, Err: err}
	}
	logger.Debug("Feed decoded", log.Year(year), log.Int("items", len(items)))
	return items, nil
}

func (c Client) fetchWithRetry(ctx context.Context, url string) ([]byte, error) {
	var err error
	for i := 0; i <= c.retry; i++ {
		if i > 0 {
			wait := c.wait(i)
			log.Debug("Retrying", log.String("url", url), log.String("after", wait.String()))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}
		if err = ctx.Err(); err != nil {
			return nil, err
		}

		var body []byte
		body, err = c.fetch(url)
		if err == nil {
			return body, nil
		}
		log.Warn("Fetch failed", log.String("url", url), log.Int("attempt", i+1), log.Err(err))
	}
	return nil, xerrors.Errorf("failed to fetch URL: %w", err)
}

func (c Client) fetch(url string) ([]byte, error) {
	resp, body, errs := gorequest.New().Timeout(c.timeout).Get(url).EndBytes()
	if len(errs) > 0 {
		return nil, xerrors.Errorf("HTTP error. url: %s, err: %w", url, errs[0])
	}
	if resp.StatusCode != http.StatusOK {
		return nil, xerrors.Errorf("HTTP error. status code: %d, url: %s", resp.StatusCode, url)
	}
	return body, nil
}

func backoff(attempt int) time.Duration {
	n, _ := rand.Int(rand.Reader, big.NewInt(10))
	wait := math.Pow(float64(attempt), 2) + float64(n.Int64())
	return time.Duration(wait) * time.Second
}
