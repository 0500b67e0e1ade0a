package importer

import (
	"context"
	"io"
	"sync"
	"time"

	"importer-service/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service orquestra o fluxo de importação de vendas: carga do arquivo,
// mapeamento de colunas com checkpoint humano, normalização e gravação.
type Service interface {
	CreateSession(filename string, file io.Reader) (Session, error)
	GetSession(id string) (Session, error)
	BindColumns(id string, bindings map[domain.Field]string) (Session, error)
	ValidateMapping(id string) (Session, error)
	UnresolvedNames(ctx context.Context, id string) ([]UnresolvedName, error)
	Commit(ctx context.Context, id string) (domain.ImportResult, error)
	StartSessionSweeper(ctx context.Context)
}

type service struct {
	mu       sync.RWMutex
	sessions map[string]*session
	store    Store
	log      *zap.Logger
}

// NewService cria o serviço de importação sobre o store de referência/vendas.
func NewService(store Store, log *zap.Logger) Service {
	return &service{
		sessions: make(map[string]*session),
		store:    store,
		log:      log,
	}
}

// CreateSession roda o detector de formato sobre o arquivo enviado e abre uma
// sessão aguardando o mapeamento de colunas. Falha de parse não cria sessão.
func (s *service) CreateSession(filename string, file io.Reader) (Session, error) {
	parsed, err := Parse(filename, file)
	if err != nil {
		return Session{}, err
	}

	sess := &session{
		id:         uuid.NewString(),
		arquivo:    filename,
		estado:     StateAwaitingMapping,
		metodo:     parsed.Method,
		colunas:    parsed.Headers,
		raw:        parsed.Rows,
		mapeamento: domain.ColumnMapping{},
		createdAt:  time.Now(),
	}

	s.mu.Lock()
	s.sessions[sess.id] = sess
	snap := sess.snapshot()
	s.mu.Unlock()

	s.log.Info("planilha carregada",
		zap.String("sessao", sess.id),
		zap.String("arquivo", filename),
		zap.String("metodo", parsed.Method),
		zap.Int("linhas", len(parsed.Rows)),
	)
	return snap, nil
}

// GetSession devolve o retrato atual da sessão.
func (s *service) GetSession(id string) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return sess.snapshot(), nil
}

// BindColumns aplica um ou mais vínculos campo lógico → coluna. A escolha
// mais recente vence. Só é permitido enquanto o mapeamento não foi congelado.
func (s *service) BindColumns(id string, bindings map[domain.Field]string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	if sess.estado != StateAwaitingMapping {
		return Session{}, ErrSessionState
	}

	for field, header := range bindings {
		if err := Bind(sess.mapeamento, sess.colunas, field, header); err != nil {
			return Session{}, err
		}
	}
	return sess.snapshot(), nil
}

// ValidateMapping é o portão "validar e continuar": recusa com a lista de
// campos obrigatórios faltantes, ou congela o mapeamento e normaliza todas as
// linhas brutas de uma vez.
func (s *service) ValidateMapping(id string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	if sess.estado != StateAwaitingMapping {
		return Session{}, ErrSessionState
	}
	if missing := MissingFields(sess.mapeamento); len(missing) > 0 {
		return Session{}, &MissingFieldsError{Fields: missing}
	}

	sess.linhas = Normalize(sess.raw, sess.mapeamento)
	sess.validas = 0
	sess.invalidas = 0
	for _, row := range sess.linhas {
		if row.Valid {
			sess.validas++
		} else {
			sess.invalidas++
		}
	}
	sess.estado = StateMapped

	s.log.Info("linhas normalizadas",
		zap.String("sessao", sess.id),
		zap.Int("validas", sess.validas),
		zap.Int("invalidas", sess.invalidas),
	)
	return sess.snapshot(), nil
}

// UnresolvedNames devolve o relatório de nomes sem correspondência nas
// tabelas de referência, com sugestões aproximadas.
func (s *service) UnresolvedNames(ctx context.Context, id string) ([]UnresolvedName, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	if !ok {
		s.mu.RUnlock()
		return nil, ErrSessionNotFound
	}
	if sess.linhas == nil {
		s.mu.RUnlock()
		return nil, ErrSessionState
	}
	rows := sess.linhas
	s.mu.RUnlock()

	return UnresolvedNames(ctx, s.store, rows)
}

// Commit executa a gravação sequencial do lote da sessão. O progresso fica
// visível via GetSession enquanto a gravação corre; cada sessão só grava uma
// vez. Um lote recusado (nenhuma linha válida) devolve a sessão ao estado
// mapeado.
func (s *service) Commit(ctx context.Context, id string) (domain.ImportResult, error) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return domain.ImportResult{}, ErrSessionNotFound
	}
	if sess.estado != StateMapped {
		s.mu.Unlock()
		return domain.ImportResult{}, ErrSessionState
	}
	sess.estado = StateCommitting
	rows := sess.linhas
	s.mu.Unlock()

	result, err := Commit(ctx, s.store, rows, func(ev ProgressEvent) {
		s.mu.Lock()
		sess.progresso = ev.Percent
		s.mu.Unlock()
	})

	s.mu.Lock()
	if err != nil {
		sess.estado = StateMapped
		s.mu.Unlock()
		return domain.ImportResult{}, err
	}
	sess.estado = StateDone
	sess.resultado = &result
	s.mu.Unlock()

	if result.Success > 0 {
		s.log.Info("novas vendas importadas",
			zap.String("sessao", id),
			zap.Int("gravadas", result.Success),
			zap.Int("erros", result.Errors),
		)
	}
	return result, nil
}
