package resources

import (
	"regexp"
	"strings"
)

const standardPrefix = "Standard_"

// letters, size digits, lowercase feature flags, optional _vN
var seriesPattern = regexp.MustCompile(`^([A-Z]+)\d+([a-z]*)(_v\d+)?`)

// ExtractSeriesFromSku maps a SKU name to its family, e.g.
// Standard_D4s_v3 -> Dsv3-series, Standard_E8_v5 -> Ev5-series, Standard_F4 -> F-series.
// Names that are not Standard_ SKUs or do not follow the pattern yield "".
func ExtractSeriesFromSku(sku string) string {
	if !strings.HasPrefix(sku, standardPrefix) {
		return ""
	}
	match := seriesPattern.FindStringSubmatch(strings.TrimPrefix(sku, standardPrefix))
	if match == nil {
		return ""
	}
	version := strings.Replace(match[3], "_v", "v", 1)
	return match[1] + match[2] + version + "-series"
}
