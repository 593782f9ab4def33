package entity

import (
	"sort"

	"github.com/sells-group/cnpj-cli/internal/model"
)

// Consolidate merges normalized provider records into one unified entity.
// Scalars take the first non-empty value walking the trust order; nested
// address and activity structures merge the same way field by field; list
// fields union across all providers, deduplicated by full structural
// equality with first-seen order preserved. Providers absent from the
// trust order rank after it, alphabetically, so the merge stays
// deterministic. A nil result means no provider contributed a record.
func Consolidate(byProvider map[string]model.Entity, order []string) *model.UnifiedEntity {
	ranked, sources := rank(byProvider, order)
	if len(ranked) == 0 {
		return nil
	}

	pick := func(get func(model.Entity) string) string {
		for _, e := range ranked {
			if v := get(e); v != "" {
				return v
			}
		}
		return ""
	}

	u := &model.UnifiedEntity{Sources: sources}
	u.CNPJ = pick(func(e model.Entity) string { return e.CNPJ })
	u.RazaoSocial = pick(func(e model.Entity) string { return e.RazaoSocial })
	u.NomeFantasia = pick(func(e model.Entity) string { return e.NomeFantasia })
	u.Abertura = pick(func(e model.Entity) string { return e.Abertura })
	u.NaturezaJuridica = pick(func(e model.Entity) string { return e.NaturezaJuridica })
	u.Situacao = pick(func(e model.Entity) string { return e.Situacao })
	u.SituacaoData = pick(func(e model.Entity) string { return e.SituacaoData })
	u.CapitalSocial = pick(func(e model.Entity) string { return e.CapitalSocial })
	u.Email = pick(func(e model.Entity) string { return e.Email })

	u.CNAEPrincipal = model.Activity{
		Codigo:    pick(func(e model.Entity) string { return e.CNAEPrincipal.Codigo }),
		Descricao: pick(func(e model.Entity) string { return e.CNAEPrincipal.Descricao }),
	}
	u.Endereco = model.Address{
		Logradouro:  pick(func(e model.Entity) string { return e.Endereco.Logradouro }),
		Numero:      pick(func(e model.Entity) string { return e.Endereco.Numero }),
		Complemento: pick(func(e model.Entity) string { return e.Endereco.Complemento }),
		Bairro:      pick(func(e model.Entity) string { return e.Endereco.Bairro }),
		Municipio:   pick(func(e model.Entity) string { return e.Endereco.Municipio }),
		UF:          pick(func(e model.Entity) string { return e.Endereco.UF }),
		CEP:         pick(func(e model.Entity) string { return e.Endereco.CEP }),
	}

	u.CNAESecundarios = union(ranked, func(e model.Entity) []model.Activity { return e.CNAESecundarios })
	u.Telefones = union(ranked, func(e model.Entity) []string { return e.Telefones })
	u.QSA = union(ranked, func(e model.Entity) []model.Partner { return e.QSA })

	return u
}

// rank orders the available records by trust, appending unranked providers
// alphabetically after the configured order.
func rank(byProvider map[string]model.Entity, order []string) ([]model.Entity, []string) {
	var ranked []model.Entity
	var sources []string
	seen := make(map[string]bool, len(order))

	for _, p := range order {
		seen[p] = true
		if e, ok := byProvider[p]; ok {
			ranked = append(ranked, e)
			sources = append(sources, p)
		}
	}

	var rest []string
	for p := range byProvider {
		if !seen[p] {
			rest = append(rest, p)
		}
	}
	sort.Strings(rest)
	for _, p := range rest {
		ranked = append(ranked, byProvider[p])
		sources = append(sources, p)
	}
	return ranked, sources
}

// union collects each provider's list in trust order, dropping exact
// duplicates.
func union[T comparable](ranked []model.Entity, get func(model.Entity) []T) []T {
	var out []T
	seen := make(map[T]struct{})
	for _, e := range ranked {
		for _, v := range get(e) {
			if _, dup := seen[v]; dup {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}
