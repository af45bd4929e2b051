package normalizer

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Record is one upstream listing of unknown shape, as decoded from JSON.
type Record = map[string]any

var numericToken = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?`)

// lookup walks a dotted path through nested maps and slices. Numeric
// segments index into slices.
func lookup(rec Record, path string) (any, bool) {
	var cur any = rec
	for _, seg := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			next, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = next
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			cur = node[idx]
		default:
			return nil, false
		}
	}
	return cur, cur != nil
}

// stringAt returns the first non-empty scalar found at any of the paths.
func stringAt(rec Record, paths ...string) (string, bool) {
	for _, path := range paths {
		v, ok := lookup(rec, path)
		if !ok {
			continue
		}
		switch val := v.(type) {
		case string:
			if s := strings.TrimSpace(val); s != "" {
				return s, true
			}
		case float64:
			return strconv.FormatFloat(val, 'f', -1, 64), true
		case json.Number:
			return val.String(), true
		case int:
			return strconv.Itoa(val), true
		case int64:
			return strconv.FormatInt(val, 10), true
		}
	}
	return "", false
}

// numberAt returns the first numeric value found at any of the paths.
// Strings are reduced to their first numeric token, so "2.5 baths" and
// "$1,250,000" both parse.
func numberAt(rec Record, paths ...string) (float64, bool) {
	for _, path := range paths {
		v, ok := lookup(rec, path)
		if !ok {
			continue
		}
		if n, ok := toNumber(v); ok {
			return n, true
		}
	}
	return 0, false
}

func toNumber(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	case string:
		return parseNumericToken(val)
	}
	return 0, false
}

// parseNumericToken extracts the first number embedded in s.
func parseNumericToken(s string) (float64, bool) {
	token := numericToken.FindString(s)
	if token == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(token, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// timeAt returns the first parseable timestamp at any of the paths. Numbers
// are read as epoch seconds, or milliseconds when large enough.
func timeAt(rec Record, paths ...string) (time.Time, bool) {
	for _, path := range paths {
		v, ok := lookup(rec, path)
		if !ok {
			continue
		}
		switch val := v.(type) {
		case string:
			s := strings.TrimSpace(val)
			for _, layout := range dateLayouts {
				if t, err := time.Parse(layout, s); err == nil {
					return t.UTC(), true
				}
			}
		case float64:
			if val <= 0 {
				continue
			}
			if val > 1e11 {
				return time.UnixMilli(int64(val)).UTC(), true
			}
			return time.Unix(int64(val), 0).UTC(), true
		}
	}
	return time.Time{}, false
}

// imagesAt collects image URLs from a list of strings or of {href|url}
// objects, or from a single string.
func imagesAt(rec Record, paths ...string) []string {
	for _, path := range paths {
		v, ok := lookup(rec, path)
		if !ok {
			continue
		}
		var urls []string
		switch val := v.(type) {
		case string:
			if s := strings.TrimSpace(val); s != "" {
				urls = append(urls, s)
			}
		case map[string]any:
			if s, ok := stringAt(val, "href", "url"); ok {
				urls = append(urls, s)
			}
		case []any:
			for _, item := range val {
				switch it := item.(type) {
				case string:
					if s := strings.TrimSpace(it); s != "" {
						urls = append(urls, s)
					}
				case map[string]any:
					if s, ok := stringAt(it, "href", "url"); ok {
						urls = append(urls, s)
					}
				}
			}
		}
		if len(urls) > 0 {
			return urls
		}
	}
	return nil
}
