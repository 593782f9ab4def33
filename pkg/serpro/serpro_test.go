package serpro

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sells-group/cnpj-cli/internal/model"
	"github.com/sells-group/cnpj-cli/pkg/httpclient"
)

func TestFetchSendsBearerToken(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		require.Equal(t, "/cnpj/02558157000162", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"razao_social": "ACME LTDA"}`))
	}))
	defer srv.Close()

	c := NewClient(httpclient.New(httpclient.Options{}), Config{BaseURL: srv.URL, Token: "tok-123"})
	res, err := c.Fetch(context.Background(), "02558157000162")
	require.NoError(t, err)
	require.True(t, res.Success)
}

func TestFetchWithoutToken(t *testing.T) {
	t.Parallel()

	c := NewClient(httpclient.New(httpclient.Options{}), Config{})
	require.False(t, c.Available())

	res, err := c.Fetch(context.Background(), "02558157000162")
	require.Error(t, err)
	require.Equal(t, model.OriginUnavailable, res.Origin)
}

func TestNormalizeEnvelopeShape(t *testing.T) {
	t.Parallel()

	raw := []byte(`{
		"razao_social": "ACME COMERCIO LTDA",
		"capital_social": "150000.00",
		"natureza_juridica": {"codigo": "2062", "descricao": "Sociedade Empresária Limitada"},
		"estabelecimento": {
			"nome_fantasia": "ACME",
			"data_inicio_atividade": "1998-03-12",
			"situacao_cadastral": "ATIVA",
			"cnae": {"codigo": "4744001", "descricao": "Comércio varejista de ferragens"},
			"cnaes_secundarias": [{"codigo": "4744099", "descricao": "Materiais de construção"}],
			"endereco": {
				"logradouro": "RUA DAS LARANJEIRAS",
				"numero": "120",
				"bairro": "CENTRO",
				"municipio": {"codigo": "7107", "descricao": "SAO PAULO"},
				"uf": "SP",
				"cep": "01310100"
			},
			"telefones": [{"ddd": "11", "numero": "33334444"}],
			"correio_eletronico": "contato@acme.com.br"
		},
		"socios": [{"nome": "JOAO DA SILVA", "qualificacao": {"codigo": "49", "descricao": "Sócio-Administrador"}}]
	}`)

	c := NewClient(httpclient.New(httpclient.Options{}), Config{Token: "x"})
	e, err := c.Normalize("02558157000162", raw)
	require.NoError(t, err)

	require.Equal(t, "ACME COMERCIO LTDA", e.RazaoSocial)
	require.Equal(t, "ACME", e.NomeFantasia)
	require.Equal(t, "ATIVA", e.Situacao)
	require.Equal(t, "4744001", e.CNAEPrincipal.Codigo)
	require.Len(t, e.CNAESecundarios, 1)
	require.Equal(t, "SAO PAULO", e.Endereco.Municipio)
	require.Equal(t, []string{"1133334444"}, e.Telefones)
	require.Equal(t, "contato@acme.com.br", e.Email)
	require.Equal(t, "Sócio-Administrador", e.QSA[0].Qualificacao)
}

func TestNormalizeRootShape(t *testing.T) {
	t.Parallel()

	raw := []byte(`{
		"nome_empresarial": "ROOT SHAPE SA",
		"nome_fantasia": "ROOT",
		"situacao_cadastral": "BAIXADA",
		"cnae_principal": {"codigo": "6110801", "descricao": "Telefonia fixa"},
		"logradouro": "AV BRASIL",
		"municipio": "RIO DE JANEIRO",
		"uf": "RJ",
		"qsa": [{"nome_socio": "MARIA", "qualificacao_socio": "Sócia"}]
	}`)

	c := NewClient(httpclient.New(httpclient.Options{}), Config{Token: "x"})
	e, err := c.Normalize("00000000000191", raw)
	require.NoError(t, err)

	require.Equal(t, "ROOT SHAPE SA", e.RazaoSocial)
	require.Equal(t, "ROOT", e.NomeFantasia)
	require.Equal(t, "BAIXADA", e.Situacao)
	require.Equal(t, "6110801", e.CNAEPrincipal.Codigo)
	require.Equal(t, "RIO DE JANEIRO", e.Endereco.Municipio)
	require.Equal(t, "MARIA", e.QSA[0].Nome)
}
