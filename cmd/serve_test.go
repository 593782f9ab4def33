package main

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/cnpj-cli/internal/store"
)

func TestLookupFilterFromQuery(t *testing.T) {
	req := httptest.NewRequest("GET", "/lookups?cnpj=02558157000162&limit=5&offset=10", nil)
	assert.Equal(t, store.LookupFilter{Identifier: "02558157000162", Limit: 5, Offset: 10}, lookupFilterFromQuery(req))

	req = httptest.NewRequest("GET", "/lookups", nil)
	assert.Equal(t, store.LookupFilter{}, lookupFilterFromQuery(req))
}

func TestRootRegistersCommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"lookup", "lookups", "contracts", "sanctions", "invoices", "waivers", "expenses", "notices", "awards", "serve"} {
		assert.True(t, names[want], "missing command %s", want)
	}
}
