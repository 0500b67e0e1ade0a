package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"importer-service/internal/api/responses"
	"importer-service/internal/core/importer"
	"importer-service/internal/domain"

	"github.com/gin-gonic/gin"
)

// ImportHandler lida com as requisições da API do fluxo de importação de vendas.
type ImportHandler struct {
	service importer.Service
}

// NewImportHandler cria um novo handler de importação.
func NewImportHandler(service importer.Service) *ImportHandler {
	return &ImportHandler{
		service: service,
	}
}

// HandleCreateSession recebe a planilha de vendas e abre uma sessão de
// importação aguardando o mapeamento de colunas.
func (h *ImportHandler) HandleCreateSession(c *gin.Context) {
	fileHeader, err := c.FormFile("arquivo")
	if err != nil {
		responses.Error(c, http.StatusBadRequest, "Arquivo de vendas (.csv, .xls, .xlsx) não encontrado ou inválido")
		return
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if ext != ".csv" && ext != ".xls" && ext != ".xlsx" {
		responses.Error(c, http.StatusBadRequest, fmt.Sprintf("Extensão de arquivo não suportada: %s", ext))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		responses.Error(c, http.StatusInternalServerError, "Não foi possível abrir o arquivo de vendas")
		return
	}
	defer file.Close()

	sess, err := h.service.CreateSession(fileHeader.Filename, file)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	responses.Created(c, sess, fmt.Sprintf("%d linhas carregadas (%s)", sess.TotalLinhas, methodLabel(sess.Metodo)))
}

// HandleGetSession devolve o retrato atual da sessão, incluindo o progresso
// da gravação enquanto ela corre.
func (h *ImportHandler) HandleGetSession(c *gin.Context) {
	sess, err := h.service.GetSession(c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	responses.Success(c, sess, "")
}

// HandleBindColumns aplica vínculos campo lógico → coluna do arquivo. Aceita
// um objeto JSON {"campo": "coluna"}; a escolha mais recente vence.
func (h *ImportHandler) HandleBindColumns(c *gin.Context) {
	var body map[string]string
	if err := c.ShouldBindJSON(&body); err != nil {
		responses.Error(c, http.StatusBadRequest, "Corpo inválido: esperado um objeto {\"campo\": \"coluna\"}")
		return
	}

	bindings := make(map[domain.Field]string, len(body))
	for field, header := range body {
		bindings[domain.Field(field)] = header
	}

	sess, err := h.service.BindColumns(c.Param("id"), bindings)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	responses.Success(c, sess, "Mapeamento atualizado")
}

// HandleValidateMapping é o "validar e continuar": congela o mapeamento e
// normaliza todas as linhas, ou recusa nomeando os campos faltantes.
func (h *ImportHandler) HandleValidateMapping(c *gin.Context) {
	sess, err := h.service.ValidateMapping(c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	responses.Success(c, sess, fmt.Sprintf("%d linhas válidas, %d inválidas", sess.LinhasValidas, sess.LinhasInvalidas))
}

// HandleUnresolvedNames antecipa os nomes que não resolvem contra as tabelas
// de referência, com sugestões aproximadas.
func (h *ImportHandler) HandleUnresolvedNames(c *gin.Context) {
	nomes, err := h.service.UnresolvedNames(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	responses.Success(c, nomes, fmt.Sprintf("%d nomes sem correspondência", len(nomes)))
}

// HandleCommit grava o lote da sessão de forma sequencial e devolve o
// resultado agregado.
func (h *ImportHandler) HandleCommit(c *gin.Context) {
	result, err := h.service.Commit(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	responses.Success(c, result, fmt.Sprintf("Importação concluída: %d gravadas, %d com erro", result.Success, result.Errors))
}

// HandleProgress devolve somente o percentual de progresso da gravação, para
// polling barato durante o commit.
func (h *ImportHandler) HandleProgress(c *gin.Context) {
	sess, err := h.service.GetSession(c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	responses.Success(c, gin.H{"estado": sess.Estado, "progresso": sess.Progresso}, "")
}

// respondServiceError traduz os erros do serviço para o envelope da API.
func respondServiceError(c *gin.Context, err error) {
	var missing *importer.MissingFieldsError
	switch {
	case errors.Is(err, importer.ErrSessionNotFound):
		responses.Error(c, http.StatusNotFound, "Sessão de importação não encontrada")
	case errors.As(err, &missing):
		fields := make([]string, len(missing.Fields))
		for i, f := range missing.Fields {
			fields[i] = string(f)
		}
		responses.Error(c, http.StatusBadRequest, "Campos obrigatórios sem coluna vinculada", fields...)
	case errors.Is(err, importer.ErrSessionState):
		responses.Error(c, http.StatusConflict, "Operação não permitida no estado atual da sessão")
	case errors.Is(err, importer.ErrDelimiterNotDetected),
		errors.Is(err, importer.ErrEmptyFile),
		errors.Is(err, importer.ErrNoValidRows):
		responses.Error(c, http.StatusBadRequest, capitalizeError(err))
	default:
		responses.Error(c, http.StatusInternalServerError, "Erro ao processar a importação", err.Error())
	}
}

func capitalizeError(err error) string {
	msg := err.Error()
	if msg == "" {
		return msg
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}

func methodLabel(method string) string {
	switch method {
	case importer.MethodSemicolonCSV:
		return "CSV delimitado por ponto e vírgula"
	case importer.MethodCommaCSV:
		return "CSV delimitado por vírgula"
	default:
		return "planilha"
	}
}
