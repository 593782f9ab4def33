// Package receitaws fetches company registrations from the ReceitaWS public
// API. The free tier is aggressively rate limited and reports lookup errors
// in-band with a 200 status, so both paths are handled here.
package receitaws

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tidwall/gjson"

	"github.com/sells-group/cnpj-cli/internal/model"
	"github.com/sells-group/cnpj-cli/internal/resilience"
	"github.com/sells-group/cnpj-cli/pkg/httpclient"
)

// Name identifies this provider in trust order and cache keys.
const Name = "receitaws"

// Config holds ReceitaWS settings.
type Config struct {
	BaseURL            string        `mapstructure:"base_url"`
	Timeout            time.Duration `mapstructure:"timeout"`
	InsecureSkipVerify bool          `mapstructure:"insecure_skip_verify"`
}

// Client fetches registrations from the keyless free tier.
type Client struct {
	http *httpclient.Client
	cfg  Config
}

// NewClient creates a ReceitaWS client over the shared HTTP layer.
func NewClient(hc *httpclient.Client, cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://receitaws.com.br/v1"
	}
	return &Client{http: hc, cfg: cfg}
}

// ProviderName returns the provider identifier.
func (c *Client) ProviderName() string { return Name }

// EndpointPath returns the request path for an identifier, the key shape
// the fallback dump uses.
func (c *Client) EndpointPath(identifier string) string { return "/cnpj/" + identifier }

// Fetch retrieves the raw registration payload for a normalized identifier.
// A 200 body carrying {"status": "ERROR"} counts as a provider failure.
func (c *Client) Fetch(ctx context.Context, identifier string) (model.RawResult, error) {
	res := model.RawResult{Provider: Name, Origin: model.OriginLive}

	resp, err := c.http.Get(ctx, httpclient.Request{
		URL:                fmt.Sprintf("%s/cnpj/%s", c.cfg.BaseURL, identifier),
		Timeout:            c.cfg.Timeout,
		InsecureSkipVerify: c.cfg.InsecureSkipVerify,
	})
	if err != nil {
		res.Err = err.Error()
		return res, resilience.NewProviderFailure(Name, 0, err)
	}

	res.HTTPStatus = resp.StatusCode
	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("receitaws: status %d", resp.StatusCode)
		res.Err = err.Error()
		return res, resilience.NewProviderFailure(Name, resp.StatusCode, err)
	}

	payload, ok := resp.JSONPayload()
	if !ok {
		res.RawText = string(resp.Body)
		res.Success = true
		return res, nil
	}

	if gjson.GetBytes(payload, "status").String() == "ERROR" {
		msg := gjson.GetBytes(payload, "message").String()
		err := eris.Errorf("receitaws: lookup error: %s", msg)
		res.Err = err.Error()
		return res, resilience.NewProviderFailure(Name, resp.StatusCode, err)
	}

	res.Payload = payload
	res.Success = true
	return res, nil
}
