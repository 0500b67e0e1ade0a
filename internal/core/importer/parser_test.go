package importer

import (
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestParseSemicolonCSV(t *testing.T) {
	content := "Data;Vendedora;Filial\n15/03/2024;Maria;Centro\n01/04/2024;Ana;Norte\n"

	res, err := Parse("vendas.csv", strings.NewReader(content))
	if err != nil {
		t.Fatalf("Parse retornou erro: %v", err)
	}
	if res.Method != MethodSemicolonCSV {
		t.Errorf("Method = %q, esperado %q", res.Method, MethodSemicolonCSV)
	}
	if len(res.Headers) != 3 {
		t.Fatalf("Headers = %v, esperado 3 colunas", res.Headers)
	}
	if len(res.Rows) != 2 {
		t.Fatalf("Rows = %d, esperado 2", len(res.Rows))
	}
	if res.Rows[0]["Vendedora"] != "Maria" {
		t.Errorf("Rows[0][Vendedora] = %q, esperado Maria", res.Rows[0]["Vendedora"])
	}
}

func TestParseCommaFallback(t *testing.T) {
	// arquivo com vírgula: a primeira tentativa (ponto e vírgula) produz um
	// cabeçalho de uma coluna só e dispara a segunda tentativa
	content := "Data,Vendedora,Filial,Valor\n15/03/2024,Maria,Centro,100\n"

	res, err := Parse("vendas.csv", strings.NewReader(content))
	if err != nil {
		t.Fatalf("Parse retornou erro: %v", err)
	}
	if res.Method != MethodCommaCSV {
		t.Errorf("Method = %q, esperado %q", res.Method, MethodCommaCSV)
	}
	if len(res.Headers) != 4 {
		t.Errorf("Headers = %v, esperado 4 colunas", res.Headers)
	}
	if len(res.Rows) != 1 || res.Rows[0]["Valor"] != "100" {
		t.Errorf("Rows = %v, esperado uma linha com Valor=100", res.Rows)
	}
}

func TestParseDelimiterNotDetected(t *testing.T) {
	content := "coluna_unica\nvalor\n"

	_, err := Parse("vendas.csv", strings.NewReader(content))
	if !errors.Is(err, ErrDelimiterNotDetected) {
		t.Fatalf("err = %v, esperado ErrDelimiterNotDetected", err)
	}
}

func TestParseSkipsBlankLines(t *testing.T) {
	content := "Data;Vendedora\n\n15/03/2024;Maria\n;\n"

	res, err := Parse("vendas.csv", strings.NewReader(content))
	if err != nil {
		t.Fatalf("Parse retornou erro: %v", err)
	}
	if len(res.Rows) != 1 {
		t.Fatalf("Rows = %d, esperado 1 (linhas em branco descartadas)", len(res.Rows))
	}
}

func TestParseMissingCellsBecomeEmpty(t *testing.T) {
	content := "Data;Vendedora;Filial\n15/03/2024;Maria\n"

	res, err := Parse("vendas.csv", strings.NewReader(content))
	if err != nil {
		t.Fatalf("Parse retornou erro: %v", err)
	}
	if got := res.Rows[0]["Filial"]; got != "" {
		t.Errorf("Filial = %q, esperado célula vazia", got)
	}
}

func TestParseStripsBOM(t *testing.T) {
	content := "\uFEFFData;Vendedora\n15/03/2024;Maria\n"

	res, err := Parse("vendas.csv", strings.NewReader(content))
	if err != nil {
		t.Fatalf("Parse retornou erro: %v", err)
	}
	if res.Headers[0] != "Data" {
		t.Errorf("Headers[0] = %q, esperado Data (BOM removido)", res.Headers[0])
	}
	if res.Rows[0]["Data"] != "15/03/2024" {
		t.Errorf("Rows[0][Data] = %q, esperado 15/03/2024", res.Rows[0]["Data"])
	}
}

func TestParseLatin1CSV(t *testing.T) {
	data := []byte("Vendedora;Filial\nJo\xe3o;S\xe3o Paulo\n")

	res, err := Parse("vendas.csv", strings.NewReader(string(data)))
	if err != nil {
		t.Fatalf("Parse retornou erro: %v", err)
	}
	if got := res.Rows[0]["Vendedora"]; got != "João" {
		t.Errorf("Vendedora = %q, esperado João (decodificação ISO-8859-1)", got)
	}
}

func TestParseWorkbook(t *testing.T) {
	f := excelize.NewFile()
	if err := f.SetSheetRow("Sheet1", "A1", &[]interface{}{"Data", "Vendedora", "Filial"}); err != nil {
		t.Fatal(err)
	}
	if err := f.SetSheetRow("Sheet1", "A2", &[]interface{}{"15/03/2024", "Maria", "Centro"}); err != nil {
		t.Fatal(err)
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}

	res, err := Parse("vendas.xlsx", buf)
	if err != nil {
		t.Fatalf("Parse retornou erro: %v", err)
	}
	if res.Method != MethodWorkbook {
		t.Errorf("Method = %q, esperado %q", res.Method, MethodWorkbook)
	}
	if len(res.Rows) != 1 || res.Rows[0]["Vendedora"] != "Maria" {
		t.Errorf("Rows = %v, esperado uma linha com Vendedora=Maria", res.Rows)
	}
}

func TestParseWorkbookOnlyHeaderIsEmptyFile(t *testing.T) {
	f := excelize.NewFile()
	if err := f.SetSheetRow("Sheet1", "A1", &[]interface{}{"Data", "Vendedora"}); err != nil {
		t.Fatal(err)
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}

	_, err = Parse("vendas.xlsx", buf)
	if !errors.Is(err, ErrEmptyFile) {
		t.Fatalf("err = %v, esperado ErrEmptyFile", err)
	}
}
