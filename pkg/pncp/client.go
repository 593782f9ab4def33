// Package pncp fetches procurement notices and contracts from the PNCP
// (Portal Nacional de Contratações Públicas) open consultation API. The
// API is keyless and wraps list results in a content envelope.
package pncp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tidwall/gjson"

	"github.com/sells-group/cnpj-cli/internal/model"
	"github.com/sells-group/cnpj-cli/internal/resilience"
	"github.com/sells-group/cnpj-cli/pkg/httpclient"
)

// Name identifies this provider in cache keys and statuses.
const Name = "pncp"

const (
	defaultBaseURL  = "https://pncp.gov.br/api/consulta"
	defaultPageSize = 50
	defaultMaxPages = 2000
	defaultPageGap  = 150 * time.Millisecond
)

// Config holds PNCP settings.
type Config struct {
	BaseURL            string        `mapstructure:"base_url"`
	Timeout            time.Duration `mapstructure:"timeout"`
	PageSize           int           `mapstructure:"page_size"`
	MaxPages           int           `mapstructure:"max_pages"`
	PageGap            time.Duration `mapstructure:"page_gap"`
	InsecureSkipVerify bool          `mapstructure:"insecure_skip_verify"`
}

// Client queries the consultation endpoints.
type Client struct {
	http *httpclient.Client
	cfg  Config
}

// NewClient creates a PNCP client over the shared HTTP layer.
func NewClient(hc *httpclient.Client, cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = defaultMaxPages
	}
	if cfg.PageGap <= 0 {
		cfg.PageGap = defaultPageGap
	}
	return &Client{http: hc, cfg: cfg}
}

// ProviderName returns the provider identifier.
func (c *Client) ProviderName() string { return Name }

// Notices returns the supplier's procurement notices.
func (c *Client) Notices(ctx context.Context, identifier string) (model.PagedCollection, error) {
	return c.fetchAll(ctx, "/v1/avisos", identifier)
}

// Contracts returns the supplier's awarded contracts.
func (c *Client) Contracts(ctx context.Context, identifier string) (model.PagedCollection, error) {
	return c.fetchAll(ctx, "/v1/contratos", identifier)
}

// fetchAll walks a consultation endpoint page by page. Items ride inside a
// content array; an empty content or a 204 ends the walk. Exceeding the
// page ceiling sets Truncated; a failed page aborts and discards partials.
func (c *Client) fetchAll(ctx context.Context, endpoint, identifier string) (model.PagedCollection, error) {
	coll := model.PagedCollection{Endpoint: endpoint, Origin: model.OriginLive}

	for page := 1; ; page++ {
		if page > c.cfg.MaxPages {
			coll.Truncated = true
			return coll, nil
		}

		params := url.Values{}
		params.Set("documentoFornecedor", identifier)
		params.Set("pagina", strconv.Itoa(page))
		params.Set("tamanhoPagina", strconv.Itoa(c.cfg.PageSize))

		resp, err := c.http.Get(ctx, httpclient.Request{
			URL:                c.cfg.BaseURL + endpoint,
			Params:             params,
			Timeout:            c.cfg.Timeout,
			InsecureSkipVerify: c.cfg.InsecureSkipVerify,
		})
		if err != nil {
			return model.PagedCollection{Endpoint: endpoint, Origin: model.OriginLive},
				&resilience.PaginationAbort{Endpoint: endpoint, Page: page, Err: err}
		}
		if resp.StatusCode == http.StatusNoContent {
			return coll, nil
		}
		if resp.StatusCode != http.StatusOK {
			err := eris.Errorf("pncp: status %d", resp.StatusCode)
			return model.PagedCollection{Endpoint: endpoint, Origin: model.OriginLive},
				&resilience.PaginationAbort{Endpoint: endpoint, Page: page, Err: err}
		}

		payload, ok := resp.JSONPayload()
		if !ok {
			err := eris.New("pncp: non-JSON page body")
			return model.PagedCollection{Endpoint: endpoint, Origin: model.OriginLive},
				&resilience.PaginationAbort{Endpoint: endpoint, Page: page, Err: err}
		}

		content := gjson.GetBytes(payload, "content")
		if !content.IsArray() {
			coll.Items = append(coll.Items, json.RawMessage(payload))
			coll.Pages = page
			return coll, nil
		}

		items := content.Array()
		if len(items) == 0 {
			return coll, nil
		}
		for _, it := range items {
			coll.Items = append(coll.Items, json.RawMessage(it.Raw))
		}
		coll.Pages = page

		if total := gjson.GetBytes(payload, "totalPaginas"); total.Exists() && page >= int(total.Int()) {
			return coll, nil
		}

		select {
		case <-ctx.Done():
			return model.PagedCollection{Endpoint: endpoint, Origin: model.OriginLive},
				&resilience.PaginationAbort{Endpoint: endpoint, Page: page, Err: ctx.Err()}
		case <-time.After(c.cfg.PageGap):
		}
	}
}
