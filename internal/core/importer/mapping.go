package importer

import (
	"fmt"

	"importer-service/internal/domain"
)

// ---------------------- mapeamento de colunas ----------------------

// Bind vincula um campo lógico a um cabeçalho detectado no arquivo. A escolha
// mais recente vence; vincular de novo o mesmo campo sobrescreve a anterior.
// Só cabeçalhos realmente presentes no arquivo são aceitos.
func Bind(mapping domain.ColumnMapping, headers []string, field domain.Field, header string) error {
	if !knownField(field) {
		return fmt.Errorf("campo lógico desconhecido: %q", field)
	}
	if !hasHeader(headers, header) {
		return fmt.Errorf("coluna %q não existe no arquivo", header)
	}
	mapping[field] = header
	return nil
}

// MissingFields retorna os campos obrigatórios ainda sem coluna vinculada, na
// ordem de RequiredFields. Vazio significa que a normalização pode prosseguir.
func MissingFields(mapping domain.ColumnMapping) []domain.Field {
	var missing []domain.Field
	for _, f := range domain.RequiredFields {
		if mapping[f] == "" {
			missing = append(missing, f)
		}
	}
	return missing
}

func knownField(field domain.Field) bool {
	for _, f := range domain.KnownFields {
		if f == field {
			return true
		}
	}
	return false
}

func hasHeader(headers []string, header string) bool {
	for _, h := range headers {
		if h == header {
			return true
		}
	}
	return false
}
