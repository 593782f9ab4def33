package serpro

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/cnpj-cli/internal/fieldpath"
	"github.com/sells-group/cnpj-cli/internal/model"
)

// Normalize maps a raw SERPRO payload into the canonical schema. The
// gateway nests establishment data under an estabelecimento envelope on
// newer versions; older responses keep everything at the root.
func (c *Client) Normalize(identifier string, raw []byte) (model.Entity, error) {
	if len(raw) == 0 {
		return model.Entity{}, eris.New("serpro: empty payload")
	}

	e := model.Entity{
		CNPJ:             identifier,
		RazaoSocial:      fieldpath.String(raw, "razao_social", "nome_empresarial", "nomeEmpresarial"),
		NomeFantasia:     fieldpath.String(raw, "estabelecimento.nome_fantasia", "nome_fantasia", "nomeFantasia"),
		Abertura:         fieldpath.String(raw, "estabelecimento.data_inicio_atividade", "data_inicio_atividade", "dataAbertura"),
		NaturezaJuridica: fieldpath.String(raw, "natureza_juridica.descricao", "natureza_juridica", "naturezaJuridica.descricao"),
		Situacao:         fieldpath.String(raw, "estabelecimento.situacao_cadastral", "situacao_cadastral", "situacaoCadastral"),
		SituacaoData:     fieldpath.String(raw, "estabelecimento.data_situacao_cadastral", "data_situacao_cadastral", "dataSituacaoCadastral"),
		CapitalSocial:    fieldpath.String(raw, "capital_social", "capitalSocial"),
		CNAEPrincipal: model.Activity{
			Codigo:    fieldpath.String(raw, "estabelecimento.cnae.codigo", "cnae_principal.codigo", "cnaePrincipal.codigo"),
			Descricao: fieldpath.String(raw, "estabelecimento.cnae.descricao", "cnae_principal.descricao", "cnaePrincipal.descricao"),
		},
		Endereco: model.Address{
			Logradouro:  fieldpath.String(raw, "estabelecimento.endereco.logradouro", "endereco.logradouro", "logradouro"),
			Numero:      fieldpath.String(raw, "estabelecimento.endereco.numero", "endereco.numero", "numero"),
			Complemento: fieldpath.String(raw, "estabelecimento.endereco.complemento", "endereco.complemento", "complemento"),
			Bairro:      fieldpath.String(raw, "estabelecimento.endereco.bairro", "endereco.bairro", "bairro"),
			Municipio:   fieldpath.String(raw, "estabelecimento.endereco.municipio.descricao", "endereco.municipio.descricao", "endereco.municipio", "municipio"),
			UF:          fieldpath.String(raw, "estabelecimento.endereco.uf", "endereco.uf", "uf"),
			CEP:         fieldpath.String(raw, "estabelecimento.endereco.cep", "endereco.cep", "cep"),
		},
		Email: fieldpath.String(raw, "estabelecimento.correio_eletronico", "correio_eletronico", "email"),
	}

	for _, item := range fieldpath.Array(raw, "estabelecimento.cnaes_secundarias", "cnaes_secundarias", "cnaes_secundarios") {
		itemRaw := []byte(item.Raw)
		e.CNAESecundarios = append(e.CNAESecundarios, model.Activity{
			Codigo:    fieldpath.String(itemRaw, "codigo"),
			Descricao: fieldpath.String(itemRaw, "descricao"),
		})
	}

	for _, item := range fieldpath.Array(raw, "estabelecimento.telefones", "telefones") {
		if item.IsObject() {
			itemRaw := []byte(item.Raw)
			if tel := fieldpath.String(itemRaw, "ddd") + fieldpath.String(itemRaw, "numero"); tel != "" {
				e.Telefones = append(e.Telefones, tel)
			}
			continue
		}
		if s := item.String(); s != "" {
			e.Telefones = append(e.Telefones, s)
		}
	}

	for _, s := range fieldpath.Array(raw, "socios", "qsa") {
		sRaw := []byte(s.Raw)
		e.QSA = append(e.QSA, model.Partner{
			Nome:         fieldpath.String(sRaw, "nome", "nome_socio"),
			Qualificacao: fieldpath.String(sRaw, "qualificacao.descricao", "qualificacao", "qualificacao_socio"),
		})
	}

	return e, nil
}
