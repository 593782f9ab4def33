package cache

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
)

// Dump is the on-disk fallback: a JSON document keyed by "METHOD /path"
// strings, each value wrapping the provider payload in a data field. Paths
// embed the identifier they were captured for, so entries are per-company.
// The dump is read only when both cache tiers miss and the live fetch
// itself failed.
type Dump struct {
	entries map[string]dumpEntry
}

type dumpEntry struct {
	Data json.RawMessage `json:"data"`
}

// LoadDump reads a fallback dump file. A missing file yields an empty dump
// rather than an error; lookups against it simply miss.
func LoadDump(path string) (*Dump, error) {
	d := &Dump{entries: make(map[string]dumpEntry)}
	if path == "" {
		return d, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return d, nil
		}
		return nil, eris.Wrapf(err, "cache: reading dump %s", path)
	}
	if err := json.Unmarshal(raw, &d.entries); err != nil {
		return nil, eris.Wrapf(err, "cache: parsing dump %s", path)
	}
	return d, nil
}

// Get returns the dumped payload for a GET against the endpoint path.
// Absence means no fallback exists for that endpoint, not an error.
func (d *Dump) Get(endpointPath string) (json.RawMessage, bool) {
	e, ok := d.entries["GET "+endpointPath]
	if !ok || len(e.Data) == 0 {
		return nil, false
	}
	return e.Data, true
}
