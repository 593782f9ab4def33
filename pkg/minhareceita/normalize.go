package minhareceita

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/cnpj-cli/internal/fieldpath"
	"github.com/sells-group/cnpj-cli/internal/model"
)

// Normalize maps a raw Minha Receita payload into the canonical schema.
func (c *Client) Normalize(identifier string, raw []byte) (model.Entity, error) {
	if len(raw) == 0 {
		return model.Entity{}, eris.New("minhareceita: empty payload")
	}

	e := model.Entity{
		CNPJ:             identifier,
		RazaoSocial:      fieldpath.String(raw, "razao_social", "nome_empresarial"),
		NomeFantasia:     fieldpath.String(raw, "nome_fantasia"),
		Abertura:         fieldpath.String(raw, "data_inicio_atividade"),
		NaturezaJuridica: fieldpath.String(raw, "natureza_juridica"),
		Situacao:         fieldpath.String(raw, "situacao_cadastral", "descricao_situacao_cadastral"),
		SituacaoData:     fieldpath.String(raw, "data_situacao_cadastral"),
		CapitalSocial:    fieldpath.String(raw, "capital_social"),
		CNAEPrincipal: model.Activity{
			Codigo:    fieldpath.String(raw, "cnae_fiscal"),
			Descricao: fieldpath.String(raw, "cnae_fiscal_descricao"),
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
		Email: fieldpath.String(raw, "email"),
	}

	for _, item := range fieldpath.Array(raw, "cnaes_secundarios") {
		itemRaw := []byte(item.Raw)
		e.CNAESecundarios = append(e.CNAESecundarios, model.Activity{
			Codigo:    fieldpath.String(itemRaw, "codigo"),
			Descricao: fieldpath.String(itemRaw, "descricao"),
		})
	}

	for _, key := range []string{"ddd_telefone_1", "ddd_telefone_2"} {
		if tel := fieldpath.String(raw, key); tel != "" {
			e.Telefones = append(e.Telefones, tel)
		}
	}

	for _, s := range fieldpath.Array(raw, "qsa") {
		sRaw := []byte(s.Raw)
		e.QSA = append(e.QSA, model.Partner{
			Nome:         fieldpath.String(sRaw, "nome_socio", "nome"),
			Qualificacao: fieldpath.String(sRaw, "qualificacao_socio", "qualificacao"),
		})
	}

	return e, nil
}
