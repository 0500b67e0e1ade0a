package importer

import (
	"context"
	"fmt"
	"math"
	"strings"

	"importer-service/internal/domain"
)

// Store dá acesso às tabelas de referência e ao registro durável de vendas.
type Store interface {
	ListVendedoras(ctx context.Context) ([]domain.Vendedora, error)
	ListFiliais(ctx context.Context) ([]domain.Filial, error)
	InsertVenda(ctx context.Context, venda domain.Venda) error
}

// ProgressEvent é emitido após cada linha do lote, com sucesso ou falha.
type ProgressEvent struct {
	Processed int `json:"processadas"`
	Total     int `json:"total"`
	Percent   int `json:"percentual"`
}

// ---------------------- resolução e gravação ----------------------

// Commit resolve os nomes de vendedora e filial de cada linha válida contra
// as tabelas de referência e grava uma venda por linha, em ordem e de forma
// sequencial. Falhas individuais (nome sem correspondência, insert com erro)
// só incrementam o contador de erros; o lote nunca é abortado e não há
// rollback das linhas já gravadas.
//
// As tabelas de referência são lidas uma única vez por execução e tratadas
// como imutáveis durante o lote.
func Commit(ctx context.Context, store Store, rows []domain.MappedRow, onProgress func(ProgressEvent)) (domain.ImportResult, error) {
	valid := make([]domain.MappedRow, 0, len(rows))
	for _, r := range rows {
		if r.Valid {
			valid = append(valid, r)
		}
	}
	if len(valid) == 0 {
		return domain.ImportResult{}, ErrNoValidRows
	}

	vendedoras, filiais, err := loadReferenceMaps(ctx, store)
	if err != nil {
		return domain.ImportResult{}, err
	}

	var result domain.ImportResult
	total := len(valid)
	for i, row := range valid {
		vendedoraID, okV := vendedoras[referenceKey(row.VendedoraNome)]
		filialID, okF := filiais[referenceKey(row.FilialNome)]

		if okV && okF {
			venda := domain.Venda{
				Data:                 row.Data,
				VendedoraID:          vendedoraID,
				FilialID:             filialID,
				ValorBrutoCentavos:   row.ValorBrutoCentavos,
				DescontoCentavos:     row.DescontoCentavos,
				ValorLiquidoCentavos: row.ValorBrutoCentavos - row.DescontoCentavos,
				QtdItens:             row.QtdItens,
				Atendimentos:         row.Atendimentos,
			}
			if err := store.InsertVenda(ctx, venda); err != nil {
				result.Errors++
			} else {
				result.Success++
			}
		} else {
			result.Errors++
		}

		if onProgress != nil {
			processed := i + 1
			onProgress(ProgressEvent{
				Processed: processed,
				Total:     total,
				Percent:   int(math.Round(float64(processed) / float64(total) * 100)),
			})
		}
	}

	return result, nil
}

// loadReferenceMaps faz a pré-carga única das tabelas de referência e monta
// os índices de busca com a chave em minúsculas.
func loadReferenceMaps(ctx context.Context, store Store) (map[string]int64, map[string]int64, error) {
	vendedoras, err := store.ListVendedoras(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("erro ao carregar vendedoras: %w", err)
	}
	filiais, err := store.ListFiliais(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("erro ao carregar filiais: %w", err)
	}

	vmap := make(map[string]int64, len(vendedoras))
	for _, v := range vendedoras {
		vmap[referenceKey(v.Nome)] = v.ID
	}
	fmap := make(map[string]int64, len(filiais))
	for _, f := range filiais {
		fmap[referenceKey(f.Nome)] = f.ID
	}
	return vmap, fmap, nil
}

// referenceKey é a chave de busca case-insensitive das tabelas de referência.
func referenceKey(nome string) string {
	return strings.ToLower(strings.TrimSpace(nome))
}
