package model

import "time"

// Lookup is a persisted lookup-history row: the identifier that was
// resolved and the full result as it was produced.
type Lookup struct {
	ID         string       `json:"id"`
	Identifier string       `json:"identifier"`
	Result     LookupResult `json:"result"`
	CreatedAt  time.Time    `json:"created_at"`
}
