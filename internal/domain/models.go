// package domain/models.go
package domain

import (
	"fmt"
	"time"
)

// Field identifica um campo lógico da planilha de vendas.
type Field string

// Campos lógicos reconhecidos pelo importador.
const (
	FieldData         Field = "data"
	FieldVendedora    Field = "vendedora"
	FieldFilial       Field = "filial"
	FieldValorBruto   Field = "valor_bruto"
	FieldDesconto     Field = "desconto"
	FieldQtdItens     Field = "qtd_itens"
	FieldAtendimentos Field = "atendimentos"
)

// RequiredFields são os campos que precisam estar vinculados a uma coluna
// antes da normalização. FieldAtendimentos é sempre opcional.
var RequiredFields = []Field{
	FieldData,
	FieldVendedora,
	FieldFilial,
	FieldValorBruto,
	FieldDesconto,
	FieldQtdItens,
}

// KnownFields lista todos os campos lógicos, incluindo os opcionais.
var KnownFields = append(append([]Field{}, RequiredFields...), FieldAtendimentos)

// RawRow é uma linha do arquivo de entrada, indexada pelos cabeçalhos originais.
type RawRow map[string]string

// ColumnMapping vincula cada campo lógico ao cabeçalho escolhido no arquivo.
type ColumnMapping map[Field]string

// MesData é uma data normalizada para o primeiro dia do seu mês. As vendas
// são controladas por competência mensal; o dia informado no arquivo é
// descartado de propósito.
type MesData struct {
	time.Time
}

// NewMesData constrói uma MesData a partir de ano e mês.
func NewMesData(year int, month time.Month) MesData {
	return MesData{time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)}
}

// MarshalJSON serializa no formato YYYY-MM-01.
func (d MesData) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format("2006-01-02") + `"`), nil
}

// UnmarshalJSON aceita o formato YYYY-MM-DD, truncando para o início do mês.
func (d *MesData) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("data inválida: %s", s)
	}
	t, err := time.Parse("2006-01-02", s[1:len(s)-1])
	if err != nil {
		return err
	}
	*d = NewMesData(t.Year(), t.Month())
	return nil
}

// MappedRow é a representação canônica e tipada de uma linha importada.
// Uma MappedRow nunca é parcialmente válida: ou todos os campos foram
// convertidos com sucesso (Valid=true, Error vazio), ou a conversão parou na
// primeira falha e todos os campos numéricos e de data ficam zerados.
type MappedRow struct {
	Data               MesData `json:"data"`
	VendedoraNome      string  `json:"vendedora_nome"`
	FilialNome         string  `json:"filial_nome"`
	ValorBrutoCentavos int64   `json:"valor_bruto_centavos"`
	DescontoCentavos   int64   `json:"desconto_centavos"`
	QtdItens           int     `json:"qtd_itens"`
	Atendimentos       int     `json:"atendimentos"`
	Valid              bool    `json:"valid"`
	Error              string  `json:"error,omitempty"`
}

// ImportResult é o resultado agregado da etapa de gravação.
type ImportResult struct {
	Success int `json:"success"`
	Errors  int `json:"errors"`
}

// ParseResult é a saída do detector de formato: cabeçalhos na ordem original
// e as linhas brutas do arquivo.
type ParseResult struct {
	Headers []string
	Rows    []RawRow
	Method  string
}

// Vendedora é uma entrada da tabela de referência de vendedoras.
type Vendedora struct {
	ID   int64  `json:"id"`
	Nome string `json:"nome"`
}

// Filial é uma entrada da tabela de referência de filiais.
type Filial struct {
	ID   int64  `json:"id"`
	Nome string `json:"nome"`
}

// Venda é o registro de venda persistido após a resolução das referências.
// ValorLiquidoCentavos é sempre bruto - desconto.
type Venda struct {
	Data                 MesData `json:"data"`
	VendedoraID          int64   `json:"vendedora_id"`
	FilialID             int64   `json:"filial_id"`
	ValorBrutoCentavos   int64   `json:"valor_bruto_centavos"`
	DescontoCentavos     int64   `json:"desconto_centavos"`
	ValorLiquidoCentavos int64   `json:"valor_liquido_centavos"`
	QtdItens             int     `json:"qtd_itens"`
	Atendimentos         int     `json:"atendimentos"`
}
