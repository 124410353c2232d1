package search

import (
	"strings"

	"github.com/aquasecurity/cve-search/pkg/types"
	"github.com/aquasecurity/cve-search/pkg/utils"
)

const wildcard = "*"

// Search returns the ID of every record once per version entry that matches
// the query, in index, vendor, product and version order. A record with
// several matching entries appears several times.
func Search(index types.Index, q types.Query) []string {
	product := strings.ToLower(q.Product)

	results := []string{}
	for _, record := range index {
		for _, vendor := range record.Vendors {
			for _, p := range utils.GetSlice(vendor, "product", "product_data") {
				if strings.ToLower(utils.GetString(p, "product_name")) != product {
					continue
				}
				for _, v := range utils.GetSlice(p, "version", "version_data") {
					if matchVersion(v, q) {
						results = append(results, record.ID)
					}
				}
			}
		}
	}
	return results
}

// version_affected ("=", "<", "<=", ...) is not taken into account.
func matchVersion(v any, q types.Query) bool {
	value := utils.GetString(v, "version_value")
	return value == q.Version || (q.AllMatches && value == wildcard)
}
