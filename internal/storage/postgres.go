// Package storage implementa o store de referência e de vendas sobre
// PostgreSQL, usando pgxpool. O núcleo do importador depende apenas da
// interface importer.Store, então os testes usam um store em memória.
package storage

import (
	"context"
	"fmt"

	"importer-service/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store dá acesso às tabelas vendedoras, filiais e vendas.
type Store struct {
	pool *pgxpool.Pool
}

// New cria um Store sobre um pool de conexões já configurado.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// ListVendedoras lê a tabela de referência completa, sem filtro.
func (s *Store) ListVendedoras(ctx context.Context) ([]domain.Vendedora, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, nome FROM vendedoras ORDER BY nome`)
	if err != nil {
		return nil, fmt.Errorf("consulta de vendedoras: %w", err)
	}
	defer rows.Close()

	var out []domain.Vendedora
	for rows.Next() {
		var v domain.Vendedora
		if err := rows.Scan(&v.ID, &v.Nome); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// ListFiliais lê a tabela de referência completa, sem filtro.
func (s *Store) ListFiliais(ctx context.Context) ([]domain.Filial, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, nome FROM filiais ORDER BY nome`)
	if err != nil {
		return nil, fmt.Errorf("consulta de filiais: %w", err)
	}
	defer rows.Close()

	var out []domain.Filial
	for rows.Next() {
		var f domain.Filial
		if err := rows.Scan(&f.ID, &f.Nome); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// InsertVenda grava um registro de venda resolvido.
func (s *Store) InsertVenda(ctx context.Context, v domain.Venda) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO vendas (
			data, vendedora_id, filial_id,
			valor_bruto_centavos, desconto_centavos, valor_liquido_centavos,
			qtd_itens, atendimentos
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		v.Data.Time, v.VendedoraID, v.FilialID,
		v.ValorBrutoCentavos, v.DescontoCentavos, v.ValorLiquidoCentavos,
		v.QtdItens, v.Atendimentos,
	)
	if err != nil {
		return fmt.Errorf("insert de venda: %w", err)
	}
	return nil
}
