// Package brasilapi fetches company registrations from the BrasilAPI
// public CNPJ endpoint.
package brasilapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/cnpj-cli/internal/model"
	"github.com/sells-group/cnpj-cli/internal/resilience"
	"github.com/sells-group/cnpj-cli/pkg/httpclient"
)

// Name identifies this provider in trust order and cache keys.
const Name = "brasilapi"

// Config holds BrasilAPI settings.
type Config struct {
	BaseURL            string        `mapstructure:"base_url"`
	Timeout            time.Duration `mapstructure:"timeout"`
	InsecureSkipVerify bool          `mapstructure:"insecure_skip_verify"`
}

// Client fetches registrations. The API is keyless.
type Client struct {
	http *httpclient.Client
	cfg  Config
}

// NewClient creates a BrasilAPI client over the shared HTTP layer.
func NewClient(hc *httpclient.Client, cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://brasilapi.com.br/api"
	}
	return &Client{http: hc, cfg: cfg}
}

// ProviderName returns the provider identifier.
func (c *Client) ProviderName() string { return Name }

// EndpointPath returns the request path for an identifier, the key shape
// the fallback dump uses.
func (c *Client) EndpointPath(identifier string) string { return "/cnpj/v1/" + identifier }

// Fetch retrieves the raw registration payload for a normalized identifier.
func (c *Client) Fetch(ctx context.Context, identifier string) (model.RawResult, error) {
	res := model.RawResult{Provider: Name, Origin: model.OriginLive}

	resp, err := c.http.Get(ctx, httpclient.Request{
		URL:                fmt.Sprintf("%s/cnpj/v1/%s", c.cfg.BaseURL, identifier),
		Timeout:            c.cfg.Timeout,
		InsecureSkipVerify: c.cfg.InsecureSkipVerify,
	})
	if err != nil {
		res.Err = err.Error()
		return res, resilience.NewProviderFailure(Name, 0, err)
	}

	res.HTTPStatus = resp.StatusCode
	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("brasilapi: status %d", resp.StatusCode)
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
