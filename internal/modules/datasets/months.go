package datasets

import (
	"sort"
	"strings"
	"time"
)

// monthLayout is the canonical month label format ("January 2024")
const monthLayout = "January 2006"

// monthAbbreviations maps spreadsheet-style short month names to full names
var monthAbbreviations = map[string]string{
	"Jan": "January", "Feb": "February", "Mar": "March", "Apr": "April",
	"May": "May", "Jun": "June", "Jul": "July", "Aug": "August",
	"Sep": "September", "Oct": "October", "Nov": "November", "Dec": "December",
}

// NormalizeMonthLabel converts short month labels to the canonical format
// ("Jan 24" becomes "January 2024"). Labels that are not in the short form
// pass through unchanged.
func NormalizeMonthLabel(label string) string {
	trimmed := strings.TrimSpace(label)
	if len(trimmed) <= 7 && strings.Contains(trimmed, " ") {
		parts := strings.SplitN(trimmed, " ", 2)
		if full, ok := monthAbbreviations[parts[0]]; ok {
			return full + " 20" + parts[1]
		}
	}
	return trimmed
}

// MonthSortKey parses a canonical month label into its chronological sort key.
// Unparseable labels sort to 1900-01-01, placing them before any real month.
func MonthSortKey(label string) time.Time {
	t, err := time.Parse(monthLayout, strings.TrimSpace(label))
	if err != nil {
		return time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	return t
}

// SortMonthLabels orders month labels chronologically in place. Labels that
// fail to parse sort first (their key is 1900-01-01).
func SortMonthLabels(labels []string) {
	sort.Slice(labels, func(i, j int) bool {
		return MonthSortKey(labels[i]).Before(MonthSortKey(labels[j]))
	})
}

// ForwardMonths generates the n month labels following the given label.
// Used to label forecast months after the last historical month.
func ForwardMonths(lastLabel string, n int) []string {
	current := MonthSortKey(lastLabel)
	months := make([]string, 0, n)
	for i := 0; i < n; i++ {
		current = current.AddDate(0, 1, 0)
		months = append(months, current.Format(monthLayout))
	}
	return months
}
