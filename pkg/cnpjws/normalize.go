package cnpjws

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/cnpj-cli/internal/fieldpath"
	"github.com/sells-group/cnpj-cli/internal/model"
)

// Normalize maps a raw CNPJ.ws payload into the canonical schema. The API
// has shipped both snake_case and camelCase key sets over time, so every
// field lists both spellings.
func (c *Client) Normalize(identifier string, raw []byte) (model.Entity, error) {
	if len(raw) == 0 {
		return model.Entity{}, eris.New("cnpjws: empty payload")
	}

	e := model.Entity{
		CNPJ:             identifier,
		RazaoSocial:      fieldpath.String(raw, "razao_social", "nome_empresarial", "razaoSocial"),
		NomeFantasia:     fieldpath.String(raw, "estabelecimento.nome_fantasia", "nome_fantasia", "nomeFantasia"),
		Abertura:         fieldpath.String(raw, "estabelecimento.data_inicio_atividade", "data_inicio_atividade", "abertura"),
		NaturezaJuridica: fieldpath.String(raw, "natureza_juridica.descricao", "natureza_juridica", "naturezaJuridica"),
		Situacao:         fieldpath.String(raw, "estabelecimento.situacao_cadastral", "situacao_cadastral", "situacao"),
		SituacaoData:     fieldpath.String(raw, "estabelecimento.data_situacao_cadastral", "data_situacao_cadastral", "data_situacao"),
		CapitalSocial:    fieldpath.String(raw, "capital_social", "capitalSocial"),
		CNAEPrincipal: model.Activity{
			Codigo:    fieldpath.String(raw, "estabelecimento.atividade_principal.id", "cnae_fiscal.codigo", "cnae_fiscal.code", "cnae_fiscal"),
			Descricao: fieldpath.String(raw, "estabelecimento.atividade_principal.descricao", "cnae_fiscal.descricao", "cnae_fiscal.text", "cnae_fiscal_descricao"),
		},
		Endereco: model.Address{
			Logradouro:  fieldpath.String(raw, "estabelecimento.logradouro", "endereco.logradouro", "logradouro"),
			Numero:      fieldpath.String(raw, "estabelecimento.numero", "endereco.numero", "numero"),
			Complemento: fieldpath.String(raw, "estabelecimento.complemento", "endereco.complemento", "complemento"),
			Bairro:      fieldpath.String(raw, "estabelecimento.bairro", "endereco.bairro", "bairro"),
			Municipio:   fieldpath.String(raw, "estabelecimento.cidade.nome", "endereco.municipio", "municipio"),
			UF:          fieldpath.String(raw, "estabelecimento.estado.sigla", "endereco.uf", "uf"),
			CEP:         fieldpath.String(raw, "estabelecimento.cep", "endereco.cep", "cep"),
		},
		Email: fieldpath.String(raw, "estabelecimento.email", "email"),
	}

	for _, item := range fieldpath.Array(raw, "estabelecimento.atividades_secundarias", "cnaes_secundarias", "cnaes_secundarios") {
		itemRaw := []byte(item.Raw)
		e.CNAESecundarios = append(e.CNAESecundarios, model.Activity{
			Codigo:    fieldpath.String(itemRaw, "id", "codigo", "code"),
			Descricao: fieldpath.String(itemRaw, "descricao", "text"),
		})
	}

	e.Telefones = normalizePhones(raw)

	for _, s := range fieldpath.Array(raw, "socios", "qsa") {
		sRaw := []byte(s.Raw)
		e.QSA = append(e.QSA, model.Partner{
			Nome:         fieldpath.String(sRaw, "nome", "nome_socio"),
			Qualificacao: fieldpath.String(sRaw, "qualificacao_socio.descricao", "qualificacao_socio", "qualificacao", "qual"),
		})
	}

	return e, nil
}

// normalizePhones joins the split ddd/numero telephone records the
// commercial API returns, falling back to plain scalar or list shapes.
func normalizePhones(raw []byte) []string {
	items := fieldpath.Array(raw, "estabelecimento.telefones", "telefones")
	if len(items) == 0 {
		return fieldpath.Strings(raw, "telefone", "telefones")
	}

	var out []string
	for _, item := range items {
		if item.IsObject() {
			itemRaw := []byte(item.Raw)
			ddd := fieldpath.String(itemRaw, "ddd")
			num := fieldpath.String(itemRaw, "numero")
			if tel := ddd + num; tel != "" {
				out = append(out, tel)
			}
			continue
		}
		if s := item.String(); s != "" {
			out = append(out, s)
		}
	}
	return out
}
