package preview

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goliatone/go-tasador/pkg/api"
)

// Filter keeps the rows where the string form of any cell contains query,
// ignoring case. A blank query returns rows unchanged. The null marker
// api.NullCell is matched as ordinary text.
func Filter(rows []api.Row, query string) []api.Row {
	if strings.TrimSpace(query) == "" {
		return rows
	}
	needle := strings.ToLower(query)

	out := make([]api.Row, 0, len(rows))
	for _, row := range rows {
		for _, value := range row {
			if strings.Contains(strings.ToLower(CellString(value)), needle) {
				out = append(out, row)
				break
			}
		}
	}
	return out
}

// CellString renders a decoded JSON cell the way it is displayed in the
// preview table: integral numbers without a fraction, null as "null".
func CellString(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return formatNumber(v)
	case float32:
		return formatNumber(float64(v))
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return fmt.Sprint(v)
	}
}

func formatNumber(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	}
	if abs := math.Abs(v); abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
