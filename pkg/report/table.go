package report

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/cve-search/pkg/metadata"
)

var (
	headerColor = color.New(color.Bold).SprintFunc()
	idColor     = color.New(color.FgRed).SprintFunc()
	totalColor  = color.New(color.FgCyan).SprintFunc()
)

// TableWriter prints a human-readable listing. Colors are dropped when the
// output is not a terminal.
type TableWriter struct{}

func (TableWriter) WriteMatches(w io.Writer, ids []string) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s\n", headerColor("#"), headerColor("CVE ID"))
	for i, id := range ids {
		fmt.Fprintf(tw, "%d\t%s\n", i+1, idColor(id))
	}
	fmt.Fprintf(tw, "\n%s\t%d\n", totalColor("Total"), len(ids))
	if err := tw.Flush(); err != nil {
		return xerrors.Errorf("failed to write table: %w", err)
	}
	return nil
}

func (TableWriter) WriteMetadata(w io.Writer, md metadata.Metadata) error {
	rows := [][2]string{
		{"Schema version", formatInt(md.Version)},
		{"Updated at", formatTime(md.UpdatedAt)},
		{"Years", formatYears(md)},
		{"Records", strconv.Itoa(md.Records)},
	}

	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t%s\n", headerColor(row[0]), row[1])
	}
	if err := tw.Flush(); err != nil {
		return xerrors.Errorf("failed to write table: %w", err)
	}
	return nil
}

func formatInt(n int) string {
	if n == 0 {
		return "-"
	}
	return strconv.Itoa(n)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}

func formatYears(md metadata.Metadata) string {
	if md.FirstYear == 0 {
		return "-"
	}
	return fmt.Sprintf("%d-%d", md.FirstYear, md.LastYear)
}
