package datasets

import (
	"strconv"
	"strings"
)

// moneyCleaner strips currency symbols and digit separators from raw cells
var moneyCleaner = strings.NewReplacer("$", "", "€", "", ",", "", " ", "")

// ParseMoney converts a raw spreadsheet money cell to a float value.
// Currency symbols, thousands separators, and whitespace are stripped first.
// Empty cells parse to 0. The second return value is false when a non-empty
// cell cannot be parsed; callers coerce to 0 and record an import warning.
func ParseMoney(raw string) (float64, bool) {
	cleaned := moneyCleaner.Replace(strings.TrimSpace(raw))
	if cleaned == "" {
		return 0, true
	}

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}
