package importer

import (
	"context"
	"time"

	"importer-service/internal/domain"

	"go.uber.org/zap"
)

// State é o estágio corrente de uma sessão de importação.
type State string

const (
	StateAwaitingMapping State = "aguardando_mapeamento"
	StateMapped          State = "mapeada"
	StateCommitting      State = "gravando"
	StateDone            State = "concluida"
)

// Session é a visão externa de uma sessão de importação. Todo o estado do
// fluxo (linhas brutas, mapeamento, linhas normalizadas, progresso,
// resultado) vive em memória, limitado à vida da sessão; nada atravessa
// sessões além das vendas efetivamente gravadas.
type Session struct {
	ID              string               `json:"id"`
	Arquivo         string               `json:"arquivo"`
	Estado          State                `json:"estado"`
	Metodo          string               `json:"metodo"`
	Colunas         []string             `json:"colunas"`
	TotalLinhas     int                  `json:"total_linhas"`
	Mapeamento      domain.ColumnMapping `json:"mapeamento"`
	Linhas          []domain.MappedRow   `json:"linhas,omitempty"`
	LinhasValidas   int                  `json:"linhas_validas"`
	LinhasInvalidas int                  `json:"linhas_invalidas"`
	Progresso       int                  `json:"progresso"`
	Resultado       *domain.ImportResult `json:"resultado,omitempty"`
}

// session é o estado mutável interno, sempre acessado sob o lock do serviço.
type session struct {
	id         string
	arquivo    string
	estado     State
	metodo     string
	colunas    []string
	raw        []domain.RawRow
	mapeamento domain.ColumnMapping
	linhas     []domain.MappedRow
	validas    int
	invalidas  int
	progresso  int
	resultado  *domain.ImportResult
	createdAt  time.Time
}

// snapshot devolve uma cópia estável para fora do lock. O mapeamento é
// copiado porque continua editável; as fatias são imutáveis após produzidas.
func (sess *session) snapshot() Session {
	mapping := make(domain.ColumnMapping, len(sess.mapeamento))
	for f, h := range sess.mapeamento {
		mapping[f] = h
	}
	return Session{
		ID:              sess.id,
		Arquivo:         sess.arquivo,
		Estado:          sess.estado,
		Metodo:          sess.metodo,
		Colunas:         sess.colunas,
		TotalLinhas:     len(sess.raw),
		Mapeamento:      mapping,
		Linhas:          sess.linhas,
		LinhasValidas:   sess.validas,
		LinhasInvalidas: sess.invalidas,
		Progresso:       sess.progresso,
		Resultado:       sess.resultado,
	}
}

const (
	sessionTTL    = 30 * time.Minute
	sweepInterval = 5 * time.Minute
)

// StartSessionSweeper descarta periodicamente sessões abandonadas. Roda até o
// contexto ser cancelado; deve ser iniciado em uma goroutine própria.
func (s *service) StartSessionSweeper(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := s.sweep(time.Now()); removed > 0 {
				s.log.Info("sessões expiradas descartadas", zap.Int("sessoes", removed))
			}
		}
	}
}

func (s *service) sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		// sessões gravando não expiram no meio do lote
		if sess.estado == StateCommitting {
			continue
		}
		if now.Sub(sess.createdAt) > sessionTTL {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}
