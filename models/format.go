package models

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
)

// FormatMoney renders whole currency units with thousands grouping, e.g.
// "230,000". Cents are truncated. Absent values render as "".
func FormatMoney(f Float) string {
	v, ok := f.Get()
	if !ok {
		return ""
	}
	return humanize.Comma(int64(v))
}

// FormatPct renders a percentage with one decimal, e.g. "15.0%".
func FormatPct(f Float) string {
	v, ok := f.Get()
	if !ok {
		return ""
	}
	return fmt.Sprintf("%.1f%%", v)
}

// FormatNumber renders a plain numeric value without grouping.
func FormatNumber(f Float) string {
	v, ok := f.Get()
	if !ok {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatCount renders an optional integer.
func FormatCount(i Int) string {
	v, ok := i.Get()
	if !ok {
		return ""
	}
	return strconv.Itoa(v)
}
