package importer

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"importer-service/internal/domain"
)

// ---------------------- normalização de linhas ----------------------

var (
	isoDateRegex   = regexp.MustCompile(`^(\d{4})-(\d{2})(-\d{2})?$`)
	moneyCharRegex = regexp.MustCompile(`[^0-9,.\-]`)
)

// Normalize converte todas as linhas brutas sob o mapeamento congelado. Cada
// linha falha de forma isolada: o lote inteiro sempre produz uma MappedRow
// por RawRow, válida ou não.
func Normalize(rows []domain.RawRow, mapping domain.ColumnMapping) []domain.MappedRow {
	out := make([]domain.MappedRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, NormalizeRow(row, mapping))
	}
	return out
}

// NormalizeRow transforma uma linha bruta em uma MappedRow canônica. A
// conversão para na primeira falha e devolve a linha zerada com o motivo.
func NormalizeRow(row domain.RawRow, mapping domain.ColumnMapping) domain.MappedRow {
	rawData := strings.TrimSpace(row[mapping[domain.FieldData]])
	data, err := parseMesData(rawData)
	if err != nil {
		return invalidRow(fmt.Sprintf("data inválida: %q", rawData))
	}

	rawBruto := row[mapping[domain.FieldValorBruto]]
	bruto, err := parseCentavos(rawBruto)
	if err != nil {
		return invalidRow(fmt.Sprintf("valor bruto inválido: %q", strings.TrimSpace(rawBruto)))
	}

	rawDesconto := row[mapping[domain.FieldDesconto]]
	desconto, err := parseCentavos(rawDesconto)
	if err != nil {
		return invalidRow(fmt.Sprintf("desconto inválido: %q", strings.TrimSpace(rawDesconto)))
	}

	rawQtd := strings.TrimSpace(row[mapping[domain.FieldQtdItens]])
	if rawQtd == "" {
		rawQtd = "1"
	}
	qtd, err := strconv.Atoi(rawQtd)
	if err != nil || qtd < 1 {
		return invalidRow(fmt.Sprintf("quantidade de itens inválida: %q", rawQtd))
	}

	rawAtend := "0"
	if header, ok := mapping[domain.FieldAtendimentos]; ok && header != "" {
		if v := strings.TrimSpace(row[header]); v != "" {
			rawAtend = v
		}
	}
	atend, err := strconv.Atoi(rawAtend)
	if err != nil || atend < 0 {
		return invalidRow(fmt.Sprintf("atendimentos inválido: %q", rawAtend))
	}

	return domain.MappedRow{
		Data:               data,
		VendedoraNome:      strings.TrimSpace(row[mapping[domain.FieldVendedora]]),
		FilialNome:         strings.TrimSpace(row[mapping[domain.FieldFilial]]),
		ValorBrutoCentavos: bruto,
		DescontoCentavos:   desconto,
		QtdItens:           qtd,
		Atendimentos:       atend,
		Valid:              true,
	}
}

func invalidRow(msg string) domain.MappedRow {
	return domain.MappedRow{Valid: false, Error: msg}
}

// parseMesData aceita dd/MM/yyyy, yyyy-MM e yyyy-MM-dd, sempre reduzindo ao
// primeiro dia do mês.
func parseMesData(s string) (domain.MesData, error) {
	if s == "" {
		return domain.MesData{}, errors.New("data vazia")
	}
	if t, err := time.Parse("02/01/2006", s); err == nil {
		return domain.NewMesData(t.Year(), t.Month()), nil
	}
	if isoDateRegex.MatchString(s) {
		if t, err := time.Parse("2006-01", s[:7]); err == nil {
			return domain.NewMesData(t.Year(), t.Month()), nil
		}
	}
	return domain.MesData{}, fmt.Errorf("formato de data não reconhecido: %q", s)
}

// parseCentavos converte um valor monetário textual em centavos inteiros.
// Remove tudo que não for dígito, vírgula, ponto ou sinal e decide o
// separador decimal pela última ocorrência, cobrindo "1.234,56" (pt-BR),
// "1,234.56" (anglo) e "10,5". Vazio vale zero; negativos são rejeitados.
func parseCentavos(raw string) (int64, error) {
	s := moneyCharRegex.ReplaceAllString(raw, "")
	if s == "" {
		s = "0"
	}

	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastComma > lastDot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	case lastDot > lastComma:
		s = strings.ReplaceAll(s, ",", "")
		if parts := strings.Split(s, "."); len(parts) > 2 {
			s = strings.Join(parts[:len(parts)-1], "") + "." + parts[len(parts)-1]
		}
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if neg || math.IsNaN(f) {
		return 0, errors.New("valor negativo não permitido")
	}
	return int64(math.Round(f * 100)), nil
}
