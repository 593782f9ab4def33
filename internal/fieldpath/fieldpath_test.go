package fieldpath

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString_FirstPresentNonEmptyWins(t *testing.T) {
	t.Parallel()

	raw := []byte(`{"razao_social":"","nome":"ACME LTDA","nome_empresarial":"IGNORED"}`)
	assert.Equal(t, "ACME LTDA", String(raw, "razao_social", "nome", "nome_empresarial"))
}

func TestString_NestedAndMissing(t *testing.T) {
	t.Parallel()

	raw := []byte(`{"estabelecimento":{"logradouro":"RUA A"}}`)
	assert.Equal(t, "RUA A", String(raw, "logradouro", "estabelecimento.logradouro"))
	assert.Equal(t, "", String(raw, "numero", "estabelecimento.numero"))
}

func TestString_NumbersRendered(t *testing.T) {
	t.Parallel()

	raw := []byte(`{"situacao_cadastral":2,"capital_social":150000.5}`)
	assert.Equal(t, "2", String(raw, "situacao_cadastral"))
	assert.Equal(t, "150000.5", String(raw, "capital_social"))
}

func TestString_NullSkipped(t *testing.T) {
	t.Parallel()

	raw := []byte(`{"nome_fantasia":null,"fantasia":"LOJA X"}`)
	assert.Equal(t, "LOJA X", String(raw, "nome_fantasia", "fantasia"))
}

func TestArray_FirstNonEmpty(t *testing.T) {
	t.Parallel()

	raw := []byte(`{"cnaes_secundarias":[],"cnaes_secundarios":[{"codigo":1},{"codigo":2}]}`)
	arr := Array(raw, "cnaes_secundarias", "cnaes_secundarios")
	assert.Len(t, arr, 2)

	assert.Nil(t, Array(raw, "qsa", "socios"))
}

func TestStrings_ScalarAndList(t *testing.T) {
	t.Parallel()

	raw := []byte(`{"telefone":"11 5555-0000"}`)
	assert.Equal(t, []string{"11 5555-0000"}, Strings(raw, "telefones", "telefone"))

	raw = []byte(`{"telefones":["11 5555-0000","","21 4444-1111"]}`)
	assert.Equal(t, []string{"11 5555-0000", "21 4444-1111"}, Strings(raw, "telefones", "telefone"))
}
