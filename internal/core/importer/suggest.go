package importer

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"importer-service/internal/domain"

	"github.com/schollz/closestmatch"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ---------------------- relatório de nomes sem correspondência ----------------------

// UnresolvedName descreve um nome de vendedora ou filial que não resolve
// contra a tabela de referência, junto com uma sugestão aproximada quando o
// casamento fuzzy encontra um candidato. A sugestão é apenas informativa: a
// gravação continua exigindo correspondência exata (case-insensitive).
type UnresolvedName struct {
	Tipo     string `json:"tipo"` // "vendedora" ou "filial"
	Nome     string `json:"nome"`
	Linhas   int    `json:"linhas"`
	Sugestao string `json:"sugestao,omitempty"`
}

// UnresolvedNames antecipa as falhas de resolução do lote: varre as linhas
// válidas e devolve cada nome distinto sem correspondência, na ordem
// alfabética, com quantas linhas ele afeta.
func UnresolvedNames(ctx context.Context, store Store, rows []domain.MappedRow) ([]UnresolvedName, error) {
	vendedoras, err := store.ListVendedoras(ctx)
	if err != nil {
		return nil, err
	}
	filiais, err := store.ListFiliais(ctx)
	if err != nil {
		return nil, err
	}

	vendedoraNomes := make([]string, len(vendedoras))
	for i, v := range vendedoras {
		vendedoraNomes[i] = v.Nome
	}
	filialNomes := make([]string, len(filiais))
	for i, f := range filiais {
		filialNomes[i] = f.Nome
	}

	var out []UnresolvedName
	out = append(out, unresolvedFor("vendedora", rows, vendedoraNomes, func(r domain.MappedRow) string { return r.VendedoraNome })...)
	out = append(out, unresolvedFor("filial", rows, filialNomes, func(r domain.MappedRow) string { return r.FilialNome })...)
	return out, nil
}

func unresolvedFor(tipo string, rows []domain.MappedRow, refNomes []string, pick func(domain.MappedRow) string) []UnresolvedName {
	known := make(map[string]bool, len(refNomes))
	for _, n := range refNomes {
		known[referenceKey(n)] = true
	}

	counts := make(map[string]int)
	for _, r := range rows {
		if !r.Valid {
			continue
		}
		nome := pick(r)
		if !known[referenceKey(nome)] {
			counts[nome]++
		}
	}
	if len(counts) == 0 {
		return nil
	}

	suggest := newSuggester(refNomes)

	out := make([]UnresolvedName, 0, len(counts))
	for nome, linhas := range counts {
		out = append(out, UnresolvedName{
			Tipo:     tipo,
			Nome:     nome,
			Linhas:   linhas,
			Sugestao: suggest(nome),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Nome < out[j].Nome })
	return out
}

// newSuggester monta um casador fuzzy sobre os nomes de referência
// normalizados e devolve o nome de exibição do melhor candidato, ou vazio
// quando não há referência alguma. As chaves vão em minúsculas porque o
// closestmatch rebaixa o dicionário ao indexar mas consulta a query como veio.
func newSuggester(refNomes []string) func(string) string {
	display := make(map[string]string, len(refNomes))
	keys := make([]string, 0, len(refNomes))
	for _, nome := range refNomes {
		key := suggestKey(nome)
		if key == "" {
			continue
		}
		if _, seen := display[key]; !seen {
			display[key] = nome
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return func(string) string { return "" }
	}

	cm := closestmatch.New(keys, []int{3, 4})
	return func(nome string) string {
		key := suggestKey(nome)
		if key == "" {
			return ""
		}
		return display[cm.Closest(key)]
	}
}

func suggestKey(nome string) string {
	return strings.ToLower(normalizeText(nome))
}

var (
	nonAlphanumericRegex = regexp.MustCompile(`[^A-Z0-9 ]+`)
	whitespaceRegex      = regexp.MustCompile(`\s+`)
)

// normalizeText remove acentos, sobe para maiúsculas e colapsa tudo que não
// for alfanumérico em espaços simples.
func normalizeText(str string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(func(r rune) bool {
		return unicode.Is(unicode.Mn, r)
	}))
	result, _, _ := transform.String(t, str)
	result = strings.ToUpper(result)
	result = nonAlphanumericRegex.ReplaceAllString(result, " ")
	result = whitespaceRegex.ReplaceAllString(result, " ")
	return strings.TrimSpace(result)
}
