package importer

import (
	"context"
	"errors"
	"testing"
	"time"

	"importer-service/internal/domain"
)

// fakeStore é um Store em memória para os testes do laço de gravação.
type fakeStore struct {
	vendedoras    []domain.Vendedora
	filiais       []domain.Filial
	inserted      []domain.Venda
	listErr       error
	failVendedora map[int64]bool
}

func (f *fakeStore) ListVendedoras(ctx context.Context) ([]domain.Vendedora, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.vendedoras, nil
}

func (f *fakeStore) ListFiliais(ctx context.Context) ([]domain.Filial, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.filiais, nil
}

func (f *fakeStore) InsertVenda(ctx context.Context, v domain.Venda) error {
	if f.failVendedora[v.VendedoraID] {
		return errors.New("insert falhou")
	}
	f.inserted = append(f.inserted, v)
	return nil
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		vendedoras: []domain.Vendedora{
			{ID: 1, Nome: "maria silva"},
			{ID: 2, Nome: "Ana Souza"},
		},
		filiais: []domain.Filial{
			{ID: 10, Nome: "Centro"},
			{ID: 11, Nome: "Norte"},
		},
	}
}

func validRow(vendedora, filial string, bruto, desconto int64) domain.MappedRow {
	return domain.MappedRow{
		Data:               domain.NewMesData(2024, time.March),
		VendedoraNome:      vendedora,
		FilialNome:         filial,
		ValorBrutoCentavos: bruto,
		DescontoCentavos:   desconto,
		QtdItens:           1,
		Valid:              true,
	}
}

func TestCommitCaseInsensitiveResolution(t *testing.T) {
	store := newFakeStore()
	rows := []domain.MappedRow{validRow("Maria Silva", "CENTRO", 10000, 500)}

	result, err := Commit(context.Background(), store, rows, nil)
	if err != nil {
		t.Fatalf("Commit retornou erro: %v", err)
	}
	if result.Success != 1 || result.Errors != 0 {
		t.Fatalf("result = %+v, esperado {1 0}", result)
	}
	venda := store.inserted[0]
	if venda.VendedoraID != 1 || venda.FilialID != 10 {
		t.Errorf("ids = %d/%d, esperado 1/10", venda.VendedoraID, venda.FilialID)
	}
	if venda.ValorLiquidoCentavos != 9500 {
		t.Errorf("ValorLiquidoCentavos = %d, esperado 9500 (bruto - desconto)", venda.ValorLiquidoCentavos)
	}
}

func TestCommitPartialBatch(t *testing.T) {
	store := newFakeStore()
	rows := []domain.MappedRow{
		validRow("Maria Silva", "Centro", 1000, 0),
		validRow("Ana Souza", "Norte", 2000, 0),
		validRow("Desconhecida", "Centro", 3000, 0),
		validRow("Maria Silva", "Norte", 4000, 0),
		validRow("Ana Souza", "Centro", 5000, 0),
	}

	result, err := Commit(context.Background(), store, rows, nil)
	if err != nil {
		t.Fatalf("Commit retornou erro: %v", err)
	}
	if result.Success != 4 || result.Errors != 1 {
		t.Fatalf("result = %+v, esperado {4 1}", result)
	}
	if len(store.inserted) != 4 {
		t.Fatalf("inserted = %d, esperado 4", len(store.inserted))
	}
	// a linha 3 é pulada sem abortar; a ordem das demais é preservada
	if store.inserted[2].ValorBrutoCentavos != 4000 {
		t.Errorf("terceira venda gravada = %+v, esperado a linha 4 do lote", store.inserted[2])
	}
}

func TestCommitProgressIsMonotonic(t *testing.T) {
	store := newFakeStore()
	rows := []domain.MappedRow{
		validRow("Maria Silva", "Centro", 1000, 0),
		validRow("Desconhecida", "Centro", 2000, 0),
		validRow("Ana Souza", "Norte", 3000, 0),
		validRow("Ana Souza", "Centro", 4000, 0),
	}

	var percents []int
	_, err := Commit(context.Background(), store, rows, func(ev ProgressEvent) {
		percents = append(percents, ev.Percent)
	})
	if err != nil {
		t.Fatalf("Commit retornou erro: %v", err)
	}

	want := []int{25, 50, 75, 100}
	if len(percents) != len(want) {
		t.Fatalf("percents = %v, esperado %v", percents, want)
	}
	for i := range want {
		if percents[i] != want[i] {
			t.Fatalf("percents = %v, esperado %v", percents, want)
		}
	}
}

func TestCommitRefusesBatchWithoutValidRows(t *testing.T) {
	store := newFakeStore()
	rows := []domain.MappedRow{
		{Valid: false, Error: "data inválida"},
		{Valid: false, Error: "desconto inválido"},
	}

	_, err := Commit(context.Background(), store, rows, nil)
	if !errors.Is(err, ErrNoValidRows) {
		t.Fatalf("err = %v, esperado ErrNoValidRows", err)
	}
	if len(store.inserted) != 0 {
		t.Errorf("inserted = %d, esperado nenhuma gravação", len(store.inserted))
	}
}

func TestCommitToleratesInsertFailure(t *testing.T) {
	store := newFakeStore()
	store.failVendedora = map[int64]bool{2: true}
	rows := []domain.MappedRow{
		validRow("Maria Silva", "Centro", 1000, 0),
		validRow("Ana Souza", "Centro", 2000, 0),
		validRow("Maria Silva", "Norte", 3000, 0),
	}

	result, err := Commit(context.Background(), store, rows, nil)
	if err != nil {
		t.Fatalf("Commit retornou erro: %v", err)
	}
	if result.Success != 2 || result.Errors != 1 {
		t.Fatalf("result = %+v, esperado {2 1}", result)
	}
}

func TestCommitReferenceLoadFailureIsFatal(t *testing.T) {
	store := newFakeStore()
	store.listErr = errors.New("banco indisponível")
	rows := []domain.MappedRow{validRow("Maria Silva", "Centro", 1000, 0)}

	_, err := Commit(context.Background(), store, rows, nil)
	if err == nil {
		t.Fatal("Commit deveria falhar quando a pré-carga das referências falha")
	}
}
