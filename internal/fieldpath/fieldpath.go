// Package fieldpath evaluates ordered lists of candidate JSON paths against
// raw provider payloads. Provider quirks stay declarative: each canonical
// field names its candidate source paths, and the first present non-empty
// one wins within that provider.
package fieldpath

import (
	"strings"

	"github.com/tidwall/gjson"
)

// String returns the value of the first candidate path that is present and
// non-empty. Numbers and booleans are rendered in their JSON form; absent
// fields yield "", never a placeholder.
func String(raw []byte, paths ...string) string {
	for _, p := range paths {
		r := gjson.GetBytes(raw, p)
		if !r.Exists() || r.Type == gjson.Null {
			continue
		}
		s := strings.TrimSpace(r.String())
		if s != "" {
			return s
		}
	}
	return ""
}

// Array returns the elements of the first candidate path holding a
// non-empty array.
func Array(raw []byte, paths ...string) []gjson.Result {
	for _, p := range paths {
		r := gjson.GetBytes(raw, p)
		if r.IsArray() {
			if arr := r.Array(); len(arr) > 0 {
				return arr
			}
		}
	}
	return nil
}

// Strings collects non-empty string renderings of every element under the
// first candidate path holding a non-empty array. A scalar value at the path
// is treated as a one-element list.
func Strings(raw []byte, paths ...string) []string {
	for _, p := range paths {
		r := gjson.GetBytes(raw, p)
		if !r.Exists() || r.Type == gjson.Null {
			continue
		}
		var out []string
		if r.IsArray() {
			for _, el := range r.Array() {
				if s := strings.TrimSpace(el.String()); s != "" {
					out = append(out, s)
				}
			}
		} else if s := strings.TrimSpace(r.String()); s != "" {
			out = append(out, s)
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}
