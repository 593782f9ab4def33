package model

import (
	"encoding/json"
	"time"
)

// Origin describes where a provider's data for a lookup came from.
type Origin string

const (
	OriginLive        Origin = "live"
	OriginSessionMemo Origin = "session_memo"
	OriginTTLCache    Origin = "ttl_cache"
	OriginDump        Origin = "dump"
	OriginUnavailable Origin = "unavailable"
)

// RawResult is the raw, provider-shaped outcome of a single fetch. It is
// immutable once produced and owned by the pipeline step that produced it.
type RawResult struct {
	Provider   string          `json:"provider"`
	Success    bool            `json:"success"`
	HTTPStatus int             `json:"http_status,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	// RawText carries the body when it is not parseable JSON.
	RawText string `json:"raw_text,omitempty"`
	Err      string `json:"error,omitempty"`
	Origin   Origin `json:"origin"`
}

// ProviderStatus summarizes one provider's contribution to a lookup, for
// the UI/CLI status table.
type ProviderStatus struct {
	Provider   string `json:"provider"`
	Success    bool   `json:"success"`
	HTTPStatus int    `json:"http_status,omitempty"`
	Origin     Origin `json:"origin"`
	Normalized bool   `json:"normalized"`
	Error      string `json:"error,omitempty"`
}

// LookupResult is the full outcome of resolving one identifier.
type LookupResult struct {
	Identifier string           `json:"identifier"`
	Unified    *UnifiedEntity   `json:"unified,omitempty"`
	Statuses   []ProviderStatus `json:"statuses"`
	// AllFailed is set when no provider produced a usable record; it is a
	// policy decision at the consolidation boundary, not a bubbled error.
	AllFailed bool          `json:"all_failed"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// PagedCollection is the page-accumulated result of one list endpoint.
type PagedCollection struct {
	Endpoint string            `json:"endpoint"`
	Items    []json.RawMessage `json:"items"`
	Pages    int               `json:"pages"`
	// Truncated marks that the page ceiling was hit; distinct from both an
	// empty result and a pagination failure.
	Truncated bool   `json:"truncated"`
	Origin    Origin `json:"origin"`
}
