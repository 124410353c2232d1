package types

import (
	"encoding/json"

	"github.com/aquasecurity/cve-search/pkg/utils"
)

// Record is a flattened NVD entry: the CVE ID and the verbatim
// "affects.vendor.vendor_data" list of the upstream item.
type Record struct {
	ID      string `json:"id"`
	Vendors []any  `json:"vendors"`
}

// UnmarshalJSON never fails on well-formed JSON. Anything other than an
// object with a string "id" and a list "vendors" falls back to empty values.
func (r *Record) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*r = Record{
		ID:      utils.GetString(v, "id"),
		Vendors: utils.GetSlice(v, "vendors"),
	}
	return nil
}

// Index is the ordered list of flattened records across all feed years.
type Index []Record

type Query struct {
	Product    string
	Version    string
	AllMatches bool
}
