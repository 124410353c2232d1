package vulndb_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"
	fake "k8s.io/utils/clock/testing"

	"github.com/aquasecurity/cve-search/pkg/metadata"
	"github.com/aquasecurity/cve-search/pkg/types"
	"github.com/aquasecurity/cve-search/pkg/vulndb"
)

func item(id string) any {
	return map[string]any{
		"cve": map[string]any{
			"CVE_data_meta": map[string]any{"ID": id},
			"affects": map[string]any{"vendor": map[string]any{"vendor_data": []any{
				map[string]any{"vendor_name": "acme"},
			}}},
		},
	}
}

func record(id string) types.Record {
	return types.Record{ID: id, Vendors: []any{map[string]any{"vendor_name": "acme"}}}
}

// fakeFetcher serves fixed items per year and records the requested years.
type fakeFetcher struct {
	mu     sync.Mutex
	items  map[int][]any
	errs   map[int]error
	called []int
}

func (f *fakeFetcher) Fetch(_ context.Context, year int) ([]any, error) {
	f.mu.Lock()
	f.called = append(f.called, year)
	f.mu.Unlock()

	if err, ok := f.errs[year]; ok {
		return nil, err
	}
	return f.items[year], nil
}

func TestYears(t *testing.T) {
	tests := []struct {
		name    string
		now     time.Time
		minYear int
		want    []int
	}{
		{
			name:    "from 2002",
			now:     time.Date(2005, 6, 1, 0, 0, 0, 0, time.UTC),
			minYear: 2002,
			want:    []int{2002, 2003, 2004, 2005},
		},
		{
			name:    "same year",
			now:     time.Date(2002, 1, 1, 0, 0, 0, 0, time.UTC),
			minYear: 2002,
			want:    []int{2002},
		},
		{
			name:    "min year in the future",
			now:     time.Date(2001, 12, 31, 0, 0, 0, 0, time.UTC),
			minYear: 2002,
			want:    nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := vulndb.Years(fake.NewFakeClock(tt.now), tt.minYear)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildIndex(t *testing.T) {
	errFetch := xerrors.New("connection reset")

	tests := []struct {
		name        string
		years       []int
		items       map[int][]any
		errs        map[int]error
		concurrency int
		want        types.Index
		wantCalled  []int
		wantErr     string
	}{
		{
			name:  "happy path",
			years: []int{2002, 2003, 2004},
			items: map[int][]any{
				2002: {item("CVE-2002-0001"), item("CVE-1999-0001")},
				2003: {},
				2004: {item("CVE-2004-0001")},
			},
			want: types.Index{
				record("CVE-2002-0001"),
				record("CVE-1999-0001"),
				record("CVE-2004-0001"),
			},
			wantCalled: []int{2002, 2003, 2004},
		},
		{
			name:  "malformed items are flattened to empty records",
			years: []int{2002},
			items: map[int][]any{
				2002: {nil, "oops", map[string]any{"cve": nil}},
			},
			want: types.Index{
				{ID: "", Vendors: []any{}},
				{ID: "", Vendors: []any{}},
				{ID: "", Vendors: []any{}},
			},
			wantCalled: []int{2002},
		},
		{
			name:  "duplicate ids across years are kept",
			years: []int{2002, 2003},
			items: map[int][]any{
				2002: {item("CVE-2002-0001")},
				2003: {item("CVE-2002-0001")},
			},
			want:       types.Index{record("CVE-2002-0001"), record("CVE-2002-0001")},
			wantCalled: []int{2002, 2003},
		},
		{
			name:  "sad path: fetch fails and later years are not fetched",
			years: []int{2002, 2003, 2004},
			items: map[int][]any{
				2002: {item("CVE-2002-0001")},
			},
			errs:       map[int]error{2003: errFetch},
			wantCalled: []int{2002, 2003},
			wantErr:    "transport error (year 2003): connection reset",
		},
		{
			name:  "sad path: transport error from the fetcher is kept",
			years: []int{2002},
			errs: map[int]error{
				2002: &types.TransportError{Year: 2002, URL: "https://example.com/2002.json.gz", Err: errFetch},
			},
			wantCalled: []int{2002},
			wantErr:    "transport error (year 2002, https://example.com/2002.json.gz): connection reset",
		},
		{
			name:       "no years",
			years:      nil,
			want:       types.Index{},
			wantCalled: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeFetcher{items: tt.items, errs: tt.errs}
			got, err := vulndb.BuildIndex(context.Background(), tt.years, f.Fetch, vulndb.WithConcurrency(tt.concurrency))
			assert.Equal(t, tt.wantCalled, f.called)

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)

				var te *types.TransportError
				assert.True(t, errors.As(err, &te))
				assert.ErrorIs(t, err, errFetch)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildIndex_ConcurrentOrder(t *testing.T) {
	done2004 := make(chan struct{})
	done2003 := make(chan struct{})
	fetch := func(_ context.Context, year int) ([]any, error) {
		switch year {
		case 2002:
			// finishes last
			<-done2003
			return []any{item("CVE-2002-0001"), item("CVE-2002-0002")}, nil
		case 2003:
			<-done2004
			defer close(done2003)
			return []any{item("CVE-2003-0001")}, nil
		default:
			defer close(done2004)
			return []any{item("CVE-2004-0001")}, nil
		}
	}

	got, err := vulndb.BuildIndex(context.Background(), []int{2002, 2003, 2004}, fetch, vulndb.WithConcurrency(3))
	require.NoError(t, err)
	assert.Equal(t, types.Index{
		record("CVE-2002-0001"),
		record("CVE-2002-0002"),
		record("CVE-2003-0001"),
		record("CVE-2004-0001"),
	}, got)
}

func TestBuildIndex_Stable(t *testing.T) {
	f := &fakeFetcher{items: map[int][]any{
		2002: {item("CVE-2002-0001"), item("CVE-1999-0001")},
		2003: {item("CVE-2003-0001")},
		2004: {nil, item("CVE-2004-0001")},
	}}
	years := []int{2002, 2003, 2004}

	first, err := vulndb.BuildIndex(context.Background(), years, f.Fetch)
	require.NoError(t, err)
	second, err := vulndb.BuildIndex(context.Background(), years, f.Fetch, vulndb.WithConcurrency(2))
	require.NoError(t, err)

	b1, err := json.Marshal(first)
	require.NoError(t, err)
	b2, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(b1), string(b2))
}

func TestBuilder_Build(t *testing.T) {
	clk := fake.NewFakeClock(time.Date(2004, 12, 31, 23, 59, 59, 0, time.UTC))
	f := &fakeFetcher{items: map[int][]any{
		2002: {item("CVE-2002-0001")},
		2004: {item("CVE-2004-0001")},
		2005: {item("CVE-2005-0001")},
	}}
	b := vulndb.NewBuilder(f.Fetch, vulndb.WithClock(clk))

	index, md, err := b.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{2002, 2003, 2004}, f.called)
	assert.Equal(t, types.Index{record("CVE-2002-0001"), record("CVE-2004-0001")}, index)
	assert.Equal(t, metadata.Metadata{
		Version:   metadata.SchemaVersion,
		UpdatedAt: time.Date(2004, 12, 31, 23, 59, 59, 0, time.UTC),
		FirstYear: 2002,
		LastYear:  2004,
		Records:   2,
	}, md)

	// the year range follows the clock on every build
	clk.SetTime(time.Date(2005, 1, 1, 0, 0, 1, 0, time.UTC))
	f.called = nil
	index, md, err = b.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{2002, 2003, 2004, 2005}, f.called)
	assert.Len(t, index, 3)
	assert.Equal(t, 2005, md.LastYear)
}

func TestBuilder_BuildMinYear(t *testing.T) {
	clk := fake.NewFakeClock(time.Date(2004, 1, 1, 0, 0, 0, 0, time.UTC))
	f := &fakeFetcher{}

	_, _, err := vulndb.NewBuilder(f.Fetch, vulndb.WithClock(clk), vulndb.WithMinYear(2004)).Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{2004}, f.called)

	_, _, err = vulndb.NewBuilder(f.Fetch, vulndb.WithClock(clk), vulndb.WithMinYear(2010)).Build(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no feed years from 2010 to 2004")
}

func TestBuildIndex_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := &fakeFetcher{items: map[int][]any{2002: {item("CVE-2002-0001")}}}
	_, err := vulndb.BuildIndex(ctx, []int{2002, 2003}, f.Fetch)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.called)
}
