package receitaws

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/cnpj-cli/internal/fieldpath"
	"github.com/sells-group/cnpj-cli/internal/model"
)

// Normalize maps a raw ReceitaWS payload into the canonical schema.
// ReceitaWS uses its own column names (nome, fantasia, code/text activity
// pairs) and reports the phone as a single scalar.
func (c *Client) Normalize(identifier string, raw []byte) (model.Entity, error) {
	if len(raw) == 0 {
		return model.Entity{}, eris.New("receitaws: empty payload")
	}

	e := model.Entity{
		CNPJ:             identifier,
		RazaoSocial:      fieldpath.String(raw, "nome", "razao_social"),
		NomeFantasia:     fieldpath.String(raw, "fantasia", "nome_fantasia"),
		Abertura:         fieldpath.String(raw, "abertura"),
		NaturezaJuridica: fieldpath.String(raw, "natureza_juridica"),
		Situacao:         fieldpath.String(raw, "situacao"),
		SituacaoData:     fieldpath.String(raw, "data_situacao", "data_situacao_especial"),
		CapitalSocial:    fieldpath.String(raw, "capital_social"),
		CNAEPrincipal: model.Activity{
			Codigo:    fieldpath.String(raw, "atividade_principal.0.code"),
			Descricao: fieldpath.String(raw, "atividade_principal.0.text"),
		},
		Endereco: model.Address{
			Logradouro:  fieldpath.String(raw, "logradouro"),
			Numero:      fieldpath.String(raw, "numero"),
			Complemento: fieldpath.String(raw, "complemento"),
			Bairro:      fieldpath.String(raw, "bairro"),
			Municipio:   fieldpath.String(raw, "municipio"),
			UF:          fieldpath.String(raw, "uf"),
			CEP:         fieldpath.String(raw, "cep"),
		},
		Telefones: fieldpath.Strings(raw, "telefone"),
		Email:     fieldpath.String(raw, "email"),
	}

	for _, item := range fieldpath.Array(raw, "atividades_secundarias") {
		itemRaw := []byte(item.Raw)
		e.CNAESecundarios = append(e.CNAESecundarios, model.Activity{
			Codigo:    fieldpath.String(itemRaw, "code"),
			Descricao: fieldpath.String(itemRaw, "text"),
		})
	}

	for _, s := range fieldpath.Array(raw, "qsa") {
		sRaw := []byte(s.Raw)
		e.QSA = append(e.QSA, model.Partner{
			Nome:         fieldpath.String(sRaw, "nome"),
			Qualificacao: fieldpath.String(sRaw, "qual", "qualificacao"),
		})
	}

	return e, nil
}
