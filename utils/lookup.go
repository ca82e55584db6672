package utils

import (
	"strings"
)

const (
	lookupBase = "https://www.zillow.com/homes/"
	upperHex   = "0123456789ABCDEF"
)

// LookupURL builds a property-search link for an address. Spaces become
// hyphens before escaping. A blank address yields "".
func LookupURL(address string) string {
	address = strings.TrimSpace(address)
	if address == "" {
		return ""
	}
	return lookupBase + quotePath(strings.ReplaceAll(address, " ", "-")) + "_rb/"
}

// quotePath percent-encodes every byte except ASCII letters, digits,
// "-", ".", "_", "~" and "/".
func quotePath(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if keepInPath(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperHex[c>>4])
		b.WriteByte(upperHex[c&15])
	}
	return b.String()
}

func keepInPath(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("-._~/", c) >= 0
}
