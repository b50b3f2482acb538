package params

import (
	"net/url"
	"sort"
	"strings"
)

// BuildQuery builds a canonical query string, with keys sorted and only the first value of each key.
// It differs from the stdlib url.Values.Encode in that parameters with an empty value are encoded as "?key" instead of "?key=",
// which keeps flag style parameters like ?inverse readable and stable for signing.
func BuildQuery(v url.Values) string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf strings.Builder
	for _, key := range keys {
		if buf.Len() > 0 {
			buf.WriteByte('&')
		} else {
			buf.WriteByte('?')
		}

		buf.WriteString(url.QueryEscape(key))
		if value := v.Get(key); value != "" {
			buf.WriteByte('=')
			buf.WriteString(url.QueryEscape(value))
		}
	}

	return buf.String()
}
