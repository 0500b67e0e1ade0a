package importer

import (
	"testing"

	"importer-service/internal/domain"
)

func TestBindLastChoiceWins(t *testing.T) {
	headers := []string{"Data", "Dia", "Vendedora"}
	mapping := domain.ColumnMapping{}

	if err := Bind(mapping, headers, domain.FieldData, "Data"); err != nil {
		t.Fatal(err)
	}
	if err := Bind(mapping, headers, domain.FieldData, "Dia"); err != nil {
		t.Fatal(err)
	}
	if got := mapping[domain.FieldData]; got != "Dia" {
		t.Errorf("mapping[data] = %q, esperado a escolha mais recente (Dia)", got)
	}
}

func TestBindRejectsUnknownHeader(t *testing.T) {
	mapping := domain.ColumnMapping{}
	if err := Bind(mapping, []string{"Data"}, domain.FieldData, "Inexistente"); err == nil {
		t.Fatal("Bind aceitou coluna inexistente")
	}
	if len(mapping) != 0 {
		t.Errorf("mapping = %v, esperado vazio após recusa", mapping)
	}
}

func TestBindRejectsUnknownField(t *testing.T) {
	mapping := domain.ColumnMapping{}
	if err := Bind(mapping, []string{"Data"}, domain.Field("foo"), "Data"); err == nil {
		t.Fatal("Bind aceitou campo lógico desconhecido")
	}
}

func TestMissingFields(t *testing.T) {
	mapping := domain.ColumnMapping{}

	missing := MissingFields(mapping)
	if len(missing) != len(domain.RequiredFields) {
		t.Fatalf("len = %d, esperado todos os %d obrigatórios", len(missing), len(domain.RequiredFields))
	}

	for _, f := range domain.RequiredFields {
		if f != domain.FieldDesconto {
			mapping[f] = "Coluna"
		}
	}
	missing = MissingFields(mapping)
	if len(missing) != 1 || missing[0] != domain.FieldDesconto {
		t.Errorf("missing = %v, esperado somente desconto", missing)
	}

	mapping[domain.FieldDesconto] = "Coluna"
	if missing = MissingFields(mapping); missing != nil {
		t.Errorf("missing = %v, esperado nenhum", missing)
	}
}

func TestAtendimentosNeverRequired(t *testing.T) {
	mapping := domain.ColumnMapping{}
	for _, f := range domain.RequiredFields {
		mapping[f] = "Coluna"
	}
	if missing := MissingFields(mapping); missing != nil {
		t.Errorf("missing = %v, atendimentos não deveria ser obrigatório", missing)
	}
}
