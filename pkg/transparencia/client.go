// Package transparencia fetches supplier records from the Portal da
// Transparência open-data API: single pessoa-jurídica lookups plus the
// paged contract, sanction, invoice, waiver and expense endpoints.
package transparencia

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/cnpj-cli/internal/model"
	"github.com/sells-group/cnpj-cli/internal/resilience"
	"github.com/sells-group/cnpj-cli/pkg/httpclient"
)

// Name identifies this provider in cache keys and statuses.
const Name = "transparencia"

const (
	defaultBaseURL  = "https://api.portaldatransparencia.gov.br/api-de-dados"
	defaultPageSize = 100
	defaultMaxPages = 2000
	defaultPageGap  = 150 * time.Millisecond
)

// Config holds Portal da Transparência settings. All endpoints require the
// chave-api-dados key issued by the portal.
type Config struct {
	BaseURL            string        `mapstructure:"base_url"`
	APIKey             string        `mapstructure:"api_key"`
	Timeout            time.Duration `mapstructure:"timeout"`
	PageSize           int           `mapstructure:"page_size"`
	MaxPages           int           `mapstructure:"max_pages"`
	PageGap            time.Duration `mapstructure:"page_gap"`
	InsecureSkipVerify bool          `mapstructure:"insecure_skip_verify"`
}

// Client queries the portal endpoints.
type Client struct {
	http *httpclient.Client
	cfg  Config
}

// NewClient creates a portal client over the shared HTTP layer.
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

// Available reports whether the client holds the credential it needs.
func (c *Client) Available() bool { return c.cfg.APIKey != "" }

// get issues one keyed request against an endpoint path.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) (*httpclient.Response, error) {
	if !c.Available() {
		return nil, resilience.NewProviderFailure(Name, 0, eris.New("transparencia: api_key not configured"))
	}
	return c.http.Get(ctx, httpclient.Request{
		URL:                c.cfg.BaseURL + endpoint,
		Headers:            map[string]string{"chave-api-dados": c.cfg.APIKey},
		Params:             params,
		Timeout:            c.cfg.Timeout,
		InsecureSkipVerify: c.cfg.InsecureSkipVerify,
	})
}

// FetchEntity retrieves the pessoa-jurídica record for a normalized
// identifier. The endpoint is not paged.
func (c *Client) FetchEntity(ctx context.Context, identifier string) (model.RawResult, error) {
	res := model.RawResult{Provider: Name, Origin: model.OriginLive}

	if !c.Available() {
		res.Origin = model.OriginUnavailable
		err := eris.New("transparencia: api_key not configured")
		res.Err = err.Error()
		return res, resilience.NewProviderFailure(Name, 0, err)
	}

	params := url.Values{}
	params.Set("cnpj", identifier)
	resp, err := c.get(ctx, "/pessoa-juridica", params)
	if err != nil {
		res.Err = err.Error()
		return res, resilience.NewProviderFailure(Name, 0, err)
	}

	res.HTTPStatus = resp.StatusCode
	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("transparencia: status %d", resp.StatusCode)
		res.Err = err.Error()
		return res, resilience.NewProviderFailure(Name, resp.StatusCode, err)
	}

	if payload, ok := resp.JSONPayload(); ok {
		res.Payload = payload
	} else {
		res.RawText = string(resp.Body)
	}
	res.Success = true
	return res, nil
}
