package nvd

import (
	"encoding/json"
	"io"

	"golang.org/x/xerrors"

	"github.com/aquasecurity/cve-search/pkg/types"
	"github.com/aquasecurity/cve-search/pkg/utils"
)

const itemsKey = "CVE_Items"

// Flatten extracts the CVE ID and the vendor list of a raw CVE_Items entry.
// Missing or mistyped levels produce "" and an empty list.
func Flatten(item any) types.Record {
	cve := utils.Get[map[string]any](item, "cve")
	return types.Record{
		ID:      utils.GetString(cve, "CVE_data_meta", "ID"),
		Vendors: utils.GetSlice(cve, "affects", "vendor", "vendor_data"),
	}
}

// ParseFeed decodes a yearly feed document and returns its CVE_Items.
func ParseFeed(r io.Reader) ([]any, error) {
	var doc any
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, xerrors.Errorf("failed to decode NVD JSON: %w", err)
	}
	return utils.GetSlice(doc, itemsKey), nil
}
