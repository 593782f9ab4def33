// Package serpro fetches company registrations from the SERPRO Consulta
// CNPJ gateway, the paid government-operated source. Requests carry an
// OAuth bearer token issued by the gateway console.
package serpro

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
const Name = "serpro"

// Config holds SERPRO gateway settings.
type Config struct {
	BaseURL            string        `mapstructure:"base_url"`
	Token              string        `mapstructure:"token"`
	Timeout            time.Duration `mapstructure:"timeout"`
	InsecureSkipVerify bool          `mapstructure:"insecure_skip_verify"`
}

// Client fetches registrations from the gateway.
type Client struct {
	http *httpclient.Client
	cfg  Config
}

// NewClient creates a SERPRO client over the shared HTTP layer.
func NewClient(hc *httpclient.Client, cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://gateway.apiserpro.serpro.gov.br/consulta-cnpj-df/v2"
	}
	return &Client{http: hc, cfg: cfg}
}

// ProviderName returns the provider identifier.
func (c *Client) ProviderName() string { return Name }

// EndpointPath returns the request path for an identifier, the key shape
// the fallback dump uses.
func (c *Client) EndpointPath(identifier string) string { return "/cnpj/" + identifier }

// Available reports whether the client holds the credential it needs.
func (c *Client) Available() bool { return c.cfg.Token != "" }

// Fetch retrieves the raw registration payload for a normalized identifier.
func (c *Client) Fetch(ctx context.Context, identifier string) (model.RawResult, error) {
	res := model.RawResult{Provider: Name, Origin: model.OriginLive}

	if !c.Available() {
		res.Origin = model.OriginUnavailable
		err := eris.New("serpro: token not configured")
		res.Err = err.Error()
		return res, resilience.NewProviderFailure(Name, 0, err)
	}

	resp, err := c.http.Get(ctx, httpclient.Request{
		URL:                fmt.Sprintf("%s/cnpj/%s", c.cfg.BaseURL, identifier),
		Headers:            map[string]string{"Authorization": "Bearer " + c.cfg.Token},
		Timeout:            c.cfg.Timeout,
		InsecureSkipVerify: c.cfg.InsecureSkipVerify,
	})
	if err != nil {
		res.Err = err.Error()
		return res, resilience.NewProviderFailure(Name, 0, err)
	}

	res.HTTPStatus = resp.StatusCode
	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("serpro: status %d", resp.StatusCode)
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
