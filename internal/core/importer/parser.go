package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"importer-service/internal/domain"

	"github.com/shakinm/xlsReader/xls"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Métodos de detecção reportados ao usuário junto com a contagem de linhas.
const (
	MethodSemicolonCSV = "csv_ponto_virgula"
	MethodCommaCSV     = "csv_virgula"
	MethodWorkbook     = "planilha"
)

// ---------------------- detector de formato ----------------------

// Parse decide pelo nome do arquivo se a entrada é texto delimitado ou uma
// planilha binária e produz as linhas brutas indexadas pelo cabeçalho.
// Falhas aqui são fatais para a sessão: nenhuma RawRow é produzida.
func Parse(filename string, file io.Reader) (domain.ParseResult, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return domain.ParseResult{}, fmt.Errorf("erro ao ler o arquivo: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == ".csv" {
		return parseDelimited(data)
	}
	return parseWorkbook(data)
}

// parseDelimited tenta ponto e vírgula primeiro; se o cabeçalho resultante
// tiver uma coluna ou menos, repete com vírgula. Critério de sucesso: mais de
// uma coluna no cabeçalho.
func parseDelimited(data []byte) (domain.ParseResult, error) {
	attempts := []struct {
		comma  rune
		method string
	}{
		{';', MethodSemicolonCSV},
		{',', MethodCommaCSV},
	}

	for _, att := range attempts {
		headers, rows, err := readDelimited(data, att.comma)
		if err != nil || len(headers) <= 1 {
			continue
		}
		return domain.ParseResult{
			Headers: headers,
			Rows:    rowsToRaw(headers, rows),
			Method:  att.method,
		}, nil
	}

	return domain.ParseResult{}, ErrDelimiterNotDetected
}

func readDelimited(data []byte, comma rune) ([]string, [][]string, error) {
	reader := csv.NewReader(decodeLegacy(data))
	reader.Comma = comma
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, ErrEmptyFile
	}

	headers := records[0]
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}
	if len(headers) > 0 {
		headers[0] = strings.TrimPrefix(headers[0], "\uFEFF")
	}

	return headers, records[1:], nil
}

// decodeLegacy aceita arquivos exportados em ISO-8859-1/Windows-1252, comuns
// em planilhas brasileiras antigas. Conteúdo UTF-8 válido passa direto.
func decodeLegacy(data []byte) io.Reader {
	if utf8.Valid(data) {
		return bytes.NewReader(data)
	}
	return transform.NewReader(bytes.NewReader(data), charmap.ISO8859_1.NewDecoder())
}

// ---------------------- planilhas binárias ----------------------

// parseWorkbook carrega somente a primeira aba, tratando a primeira linha
// como cabeçalho. Tenta xlsx via excelize e cai para o leitor de .xls legado.
func parseWorkbook(data []byte) (domain.ParseResult, error) {
	rows, err := loadFirstSheet(data)
	if err != nil {
		return domain.ParseResult{}, err
	}
	if len(rows) < 2 {
		return domain.ParseResult{}, ErrEmptyFile
	}

	headers := rows[0]
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}

	return domain.ParseResult{
		Headers: headers,
		Rows:    rowsToRaw(headers, rows[1:]),
		Method:  MethodWorkbook,
	}, nil
}

func loadFirstSheet(data []byte) ([][]string, error) {
	if f, err := excelize.OpenReader(bytes.NewReader(data)); err == nil {
		defer f.Close()
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, ErrEmptyFile
		}
		return f.GetRows(sheets[0])
	}

	workbook, err := xls.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("formato de planilha não suportado: %w", err)
	}
	if len(workbook.GetSheets()) == 0 {
		return nil, ErrEmptyFile
	}
	sheet, err := workbook.GetSheet(0)
	if err != nil {
		return nil, fmt.Errorf("erro ao obter a primeira aba do arquivo .xls: %w", err)
	}

	var rows [][]string
	for _, row := range sheet.GetRows() {
		var cells []string
		for _, cell := range row.GetCols() {
			cells = append(cells, cell.GetString())
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

// ---------------------- montagem das RawRows ----------------------

// rowsToRaw indexa cada linha pelos cabeçalhos, preenchendo célula vazia para
// colunas ausentes. Linhas totalmente vazias são descartadas.
func rowsToRaw(headers []string, rows [][]string) []domain.RawRow {
	out := make([]domain.RawRow, 0, len(rows))
	for _, rec := range rows {
		if isBlank(rec) {
			continue
		}
		raw := make(domain.RawRow, len(headers))
		for i, h := range headers {
			if i < len(rec) {
				raw[h] = rec[i]
			} else {
				raw[h] = ""
			}
		}
		out = append(out, raw)
	}
	return out
}

func isBlank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
