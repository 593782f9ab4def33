package transparencia

import (
	"context"
	"net/url"
	"time"

	"github.com/sells-group/cnpj-cli/internal/model"
)

// expenseWindowMonths bounds the default despesas query; the portal rejects
// open-ended date ranges.
const expenseWindowMonths = 24

// Contracts returns every federal contract held by the supplier.
func (c *Client) Contracts(ctx context.Context, identifier string) (model.PagedCollection, error) {
	params := url.Values{}
	params.Set("cpfCnpj", identifier)
	return c.FetchAll(ctx, "/contratos/cpf-cnpj", params)
}

// Sanctions returns the supplier's sanction records (CEIS/CNEP).
func (c *Client) Sanctions(ctx context.Context, identifier string) (model.PagedCollection, error) {
	params := url.Values{}
	params.Set("documento", identifier)
	return c.FetchAll(ctx, "/sancoes", params)
}

// Invoices returns electronic invoices issued by the supplier to the
// federal government.
func (c *Client) Invoices(ctx context.Context, identifier string) (model.PagedCollection, error) {
	params := url.Values{}
	params.Set("cnpjEmitente", identifier)
	return c.FetchAll(ctx, "/notas-fiscais", params)
}

// Waivers returns tax waivers granted to the supplier.
func (c *Client) Waivers(ctx context.Context, identifier string) (model.PagedCollection, error) {
	params := url.Values{}
	params.Set("cnpj", identifier)
	return c.FetchAll(ctx, "/renuncias-valor", params)
}

// Expenses returns federal spending paid to the supplier inside the given
// window. Zero times default to the trailing two years.
func (c *Client) Expenses(ctx context.Context, identifier string, from, to time.Time) (model.PagedCollection, error) {
	if to.IsZero() {
		to = time.Now()
	}
	if from.IsZero() {
		from = to.AddDate(0, -expenseWindowMonths, 0)
	}

	params := url.Values{}
	params.Set("cnpjFavorecido", identifier)
	params.Set("dataInicio", from.Format("02/01/2006"))
	params.Set("dataFim", to.Format("02/01/2006"))
	return c.FetchAll(ctx, "/despesas", params)
}
