package transparencia

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/sells-group/cnpj-cli/internal/model"
	"github.com/sells-group/cnpj-cli/internal/resilience"
)

// FetchAll walks a paged endpoint until the portal returns an empty page,
// accumulating every record. A short gap between pages keeps the portal's
// per-key quota happy. Outcomes:
//
//   - an empty page ends the walk normally
//   - a non-list body is the entire result, one page
//   - hitting the page ceiling returns everything gathered with Truncated set
//   - any page failing aborts the walk and discards partial data
func (c *Client) FetchAll(ctx context.Context, endpoint string, params url.Values) (model.PagedCollection, error) {
	coll := model.PagedCollection{Endpoint: endpoint, Origin: model.OriginLive}

	merged := url.Values{}
	for k, vs := range params {
		merged[k] = vs
	}
	merged.Set("tamanho", strconv.Itoa(c.cfg.PageSize))

	for page := 1; ; page++ {
		if page > c.cfg.MaxPages {
			coll.Truncated = true
			zap.L().Warn("pagination ceiling reached",
				zap.String("endpoint", endpoint),
				zap.Int("max_pages", c.cfg.MaxPages),
				zap.Int("items", len(coll.Items)))
			return coll, nil
		}

		merged.Set("pagina", strconv.Itoa(page))
		resp, err := c.get(ctx, endpoint, merged)
		if err != nil {
			return model.PagedCollection{Endpoint: endpoint, Origin: model.OriginLive},
				&resilience.PaginationAbort{Endpoint: endpoint, Page: page, Err: err}
		}
		if resp.StatusCode != http.StatusOK {
			err := eris.Errorf("transparencia: status %d", resp.StatusCode)
			return model.PagedCollection{Endpoint: endpoint, Origin: model.OriginLive},
				&resilience.PaginationAbort{Endpoint: endpoint, Page: page, Err: err}
		}

		payload, ok := resp.JSONPayload()
		if !ok {
			err := eris.New("transparencia: non-JSON page body")
			return model.PagedCollection{Endpoint: endpoint, Origin: model.OriginLive},
				&resilience.PaginationAbort{Endpoint: endpoint, Page: page, Err: err}
		}

		parsed := gjson.ParseBytes(payload)
		if !parsed.IsArray() {
			coll.Items = append(coll.Items, json.RawMessage(payload))
			coll.Pages = page
			return coll, nil
		}

		items := parsed.Array()
		if len(items) == 0 {
			return coll, nil
		}
		for _, it := range items {
			coll.Items = append(coll.Items, json.RawMessage(it.Raw))
		}
		coll.Pages = page

		select {
		case <-ctx.Done():
			return model.PagedCollection{Endpoint: endpoint, Origin: model.OriginLive},
				&resilience.PaginationAbort{Endpoint: endpoint, Page: page, Err: ctx.Err()}
		case <-time.After(c.cfg.PageGap):
		}
	}
}
