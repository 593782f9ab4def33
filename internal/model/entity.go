// Package model defines the canonical entity schema every provider response
// is normalized into, and the unified record produced by consolidation.
package model

// Activity is one CNAE economic-activity entry (code + description).
type Activity struct {
	Codigo    string `json:"codigo"`
	Descricao string `json:"descricao"`
}

// Address is the structured registry address of an establishment.
type Address struct {
	Logradouro  string `json:"logradouro"`
	Numero      string `json:"numero"`
	Complemento string `json:"complemento"`
	Bairro      string `json:"bairro"`
	Municipio   string `json:"municipio"`
	UF          string `json:"uf"`
	CEP         string `json:"cep"`
}

// Partner is one QSA (ownership board) entry.
type Partner struct {
	Nome         string `json:"nome"`
	Qualificacao string `json:"qualificacao"`
}

// Entity is the canonical schema. Each provider's normalizer maps its raw
// payload into this shape; missing source fields stay empty, never
// placeholder strings.
type Entity struct {
	CNPJ             string     `json:"cnpj"`
	RazaoSocial      string     `json:"razao_social"`
	NomeFantasia     string     `json:"nome_fantasia"`
	Abertura         string     `json:"abertura"`
	NaturezaJuridica string     `json:"natureza_juridica"`
	Situacao         string     `json:"situacao"`
	SituacaoData     string     `json:"situacao_data"`
	CapitalSocial    string     `json:"capital_social"`
	CNAEPrincipal    Activity   `json:"cnae_principal"`
	CNAESecundarios  []Activity `json:"cnaes_secundarios"`
	Endereco         Address    `json:"endereco"`
	Telefones        []string   `json:"telefones"`
	Email            string     `json:"email"`
	QSA              []Partner  `json:"qsa"`
}

// UnifiedEntity is the consolidated best-effort record built by merging the
// canonical records of all successful providers in trust order. Same shape as
// Entity plus the list of sources that contributed.
type UnifiedEntity struct {
	Entity
	Sources []string `json:"sources"`
}
