package importer

import (
	"errors"
	"fmt"
	"strings"

	"importer-service/internal/domain"
)

// Erros fatais de sessão: interrompem o fluxo antes de qualquer linha ser
// processada. Falhas por linha nunca viram erro de sessão.
var (
	ErrDelimiterNotDetected = errors.New("não foi possível detectar o delimitador do arquivo")
	ErrEmptyFile            = errors.New("o arquivo não contém linhas de dados")
	ErrSessionNotFound      = errors.New("sessão de importação não encontrada")
	ErrSessionState         = errors.New("operação não permitida no estado atual da sessão")
	ErrNoValidRows          = errors.New("nenhuma linha válida para importar")
)

// MissingFieldsError indica que o mapeamento de colunas ainda não cobre todos
// os campos obrigatórios. O mapeamento permanece editável.
type MissingFieldsError struct {
	Fields []domain.Field
}

func (e *MissingFieldsError) Error() string {
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = string(f)
	}
	return fmt.Sprintf("campos obrigatórios sem coluna vinculada: %s", strings.Join(names, ", "))
}
