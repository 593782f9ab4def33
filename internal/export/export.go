// Package export renders lookup results as JSON, a flat single-row CSV,
// or an XLSX workbook. List fields flatten into "a ; b" joined cells so
// one lookup stays one spreadsheet row.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/cnpj-cli/internal/model"
)

const listSep = " ; "

// Row is the flattened spreadsheet shape of a unified entity.
type Row struct {
	CNPJ             string `csv:"cnpj"`
	RazaoSocial      string `csv:"razao_social"`
	NomeFantasia     string `csv:"nome_fantasia"`
	Abertura         string `csv:"abertura"`
	NaturezaJuridica string `csv:"natureza_juridica"`
	Situacao         string `csv:"situacao"`
	SituacaoData     string `csv:"data_situacao"`
	CapitalSocial    string `csv:"capital_social"`
	CNAECodigo       string `csv:"cnae_principal"`
	CNAEDescricao    string `csv:"cnae_descricao"`
	CNAESecundarios  string `csv:"cnaes_secundarios"`
	Logradouro       string `csv:"logradouro"`
	Numero           string `csv:"numero"`
	Complemento      string `csv:"complemento"`
	Bairro           string `csv:"bairro"`
	Municipio        string `csv:"municipio"`
	UF               string `csv:"uf"`
	CEP              string `csv:"cep"`
	Telefones        string `csv:"telefones"`
	Email            string `csv:"email"`
	QSA              string `csv:"qsa"`
	Fontes           string `csv:"fontes"`
}

// Flatten folds a unified entity into one Row.
func Flatten(u *model.UnifiedEntity) Row {
	if u == nil {
		return Row{}
	}

	cnaes := make([]string, 0, len(u.CNAESecundarios))
	for _, a := range u.CNAESecundarios {
		cnaes = append(cnaes, joinNonEmpty(a.Codigo, a.Descricao, " - "))
	}
	socios := make([]string, 0, len(u.QSA))
	for _, p := range u.QSA {
		socios = append(socios, joinNonEmpty(p.Nome, p.Qualificacao, " - "))
	}

	return Row{
		CNPJ:             u.CNPJ,
		RazaoSocial:      u.RazaoSocial,
		NomeFantasia:     u.NomeFantasia,
		Abertura:         u.Abertura,
		NaturezaJuridica: u.NaturezaJuridica,
		Situacao:         u.Situacao,
		SituacaoData:     u.SituacaoData,
		CapitalSocial:    u.CapitalSocial,
		CNAECodigo:       u.CNAEPrincipal.Codigo,
		CNAEDescricao:    u.CNAEPrincipal.Descricao,
		CNAESecundarios:  strings.Join(cnaes, listSep),
		Logradouro:       u.Endereco.Logradouro,
		Numero:           u.Endereco.Numero,
		Complemento:      u.Endereco.Complemento,
		Bairro:           u.Endereco.Bairro,
		Municipio:        u.Endereco.Municipio,
		UF:               u.Endereco.UF,
		CEP:              u.Endereco.CEP,
		Telefones:        strings.Join(u.Telefones, listSep),
		Email:            u.Email,
		QSA:              strings.Join(socios, listSep),
		Fontes:           strings.Join(u.Sources, listSep),
	}
}

func joinNonEmpty(a, b, sep string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + sep + b
	}
}

// WriteJSON writes the full lookup result, pretty-printed.
func WriteJSON(w io.Writer, res model.LookupResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return eris.Wrap(enc.Encode(res), "export: encode json")
}

// WriteCSV writes the unified entity as a header plus one flat row.
func WriteCSV(w io.Writer, res model.LookupResult) error {
	out, err := csvutil.Marshal([]Row{Flatten(res.Unified)})
	if err != nil {
		return eris.Wrap(err, "export: encode csv")
	}
	_, err = w.Write(out)
	return eris.Wrap(err, "export: write csv")
}

// WriteXLSX writes a workbook with the flat entity row and a provider
// status sheet.
func WriteXLSX(path string, res model.LookupResult) error {
	f := xlsx.NewFile()

	sheet, err := f.AddSheet("entidade")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}
	row := Flatten(res.Unified)
	header, values := rowCells(row)
	addRow(sheet, header)
	addRow(sheet, values)

	statuses, err := f.AddSheet("fontes")
	if err != nil {
		return eris.Wrap(err, "export: add status sheet")
	}
	addRow(statuses, []string{"provider", "success", "http_status", "origin", "normalized", "error"})
	for _, st := range res.Statuses {
		addRow(statuses, []string{
			st.Provider,
			fmt.Sprintf("%t", st.Success),
			fmt.Sprintf("%d", st.HTTPStatus),
			string(st.Origin),
			fmt.Sprintf("%t", st.Normalized),
			st.Error,
		})
	}

	return eris.Wrapf(f.Save(path), "export: save %s", path)
}

// rowCells reuses the csv tags so all three formats share one column set.
func rowCells(r Row) (header, values []string) {
	out, err := csvutil.Marshal([]Row{r})
	if err != nil {
		return nil, nil
	}
	records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	if err != nil || len(records) < 2 {
		return nil, nil
	}
	return records[0], records[1]
}

func addRow(sheet *xlsx.Sheet, cells []string) {
	r := sheet.AddRow()
	for _, c := range cells {
		r.AddCell().SetString(c)
	}
}
