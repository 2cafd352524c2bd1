// Package cypher turns a corrected question into a bounded Cypher query.
package cypher

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/cinegraph/backend/pkg/ai"
	"github.com/cinegraph/backend/pkg/logger"
)

// DefaultLimit caps queries that carry no LIMIT clause of their own.
const DefaultLimit = 60

// ErrEmptyQuery is returned when the model output holds no query text.
var ErrEmptyQuery = errors.New("model returned an empty query")

var limitToken = regexp.MustCompile(`(?i)\bLIMIT\b`)

// Synthesizer generates queries with a language model.
type Synthesizer struct {
	gen   ai.Generator
	model string
	limit int
}

// NewSynthesizerParams configures a Synthesizer. A zero Limit uses DefaultLimit.
type NewSynthesizerParams struct {
	Generator ai.Generator
	Model     string
	Limit     int
}

func NewSynthesizer(params NewSynthesizerParams) *Synthesizer {
	limit := params.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Synthesizer{
		gen:   params.Generator,
		model: params.Model,
		limit: limit,
	}
}

// Result is a sanitized query and whether a LIMIT had to be appended.
type Result struct {
	Query        string
	LimitApplied bool
}

// Synthesize asks the model for a query answering question against schema.
// Model errors are returned wrapped. Output without any query text yields
// ErrEmptyQuery.
func (s *Synthesizer) Synthesize(
	ctx context.Context,
	question string,
	schema string,
	history []ai.ChatMessage,
) (Result, error) {
	prompt := fmt.Sprintf(ai.CypherGenerationPrompt, schema, ai.FormatConversation(history), question)

	opts := []ai.GenerateOption{ai.WithTemperature(0)}
	if s.model != "" {
		opts = append(opts, ai.WithModel(s.model))
	}

	raw, err := s.gen.GenerateCompletion(ctx, prompt, opts...)
	if err != nil {
		return Result{}, fmt.Errorf("failed to generate query: %w", err)
	}

	query, applied := Sanitize(raw, s.limit)
	if query == "" {
		return Result{}, ErrEmptyQuery
	}
	if applied {
		logger.Debug("[Cypher] Appended result limit", "limit", s.limit)
	}
	logger.Debug("[Cypher] Generated query", "query", query)

	return Result{Query: query, LimitApplied: applied}, nil
}

// Sanitize strips markdown fences and surrounding whitespace from raw and,
// when the text has no LIMIT keyword outside string literals and comments,
// removes trailing statement terminators and appends "LIMIT <limit>" on its
// own line. It reports whether the limit
// was appended. Sanitize(Sanitize(q)) equals Sanitize(q).
func Sanitize(raw string, limit int) (string, bool) {
	query := ai.StripCodeFence(raw)
	if query == "" {
		return "", false
	}
	if HasLimit(query) {
		return query, false
	}

	query = strings.TrimSpace(strings.TrimRight(query, "; \t\r\n"))
	if query == "" {
		return "", false
	}
	return fmt.Sprintf("%s\nLIMIT %d", query, limit), true
}

// HasLimit reports whether query contains a LIMIT keyword in any case.
// Words inside string literals, quoted identifiers and comments do not count.
func HasLimit(query string) bool {
	return limitToken.MatchString(maskLiterals(query))
}

// maskLiterals blanks out the contents of quoted strings, backtick
// identifiers and comments, keeping line breaks. An unterminated literal or
// block comment only reaches to the end of its line, so text appended on a
// new line stays visible.
func maskLiterals(query string) string {
	b := []byte(query)
	for i := 0; i < len(b); i++ {
		var end int
		switch {
		case b[i] == '\'' || b[i] == '"' || b[i] == '`':
			end = closingQuote(b, i)
		case b[i] == '/' && i+1 < len(b) && b[i+1] == '/':
			end = lineEnd(b, i)
		case b[i] == '/' && i+1 < len(b) && b[i+1] == '*':
			end = strings.Index(string(b[i+2:]), "*/")
			if end < 0 {
				end = lineEnd(b, i)
			} else {
				end += i + 3
			}
		default:
			continue
		}
		for j := i; j <= end && j < len(b); j++ {
			if b[j] != '\n' {
				b[j] = ' '
			}
		}
		i = end
	}
	return string(b)
}

// closingQuote returns the index of the quote closing the literal opened at
// b[start], or the end of the line when there is none. Backslash escapes
// apply inside strings, doubled backticks inside identifiers.
func closingQuote(b []byte, start int) int {
	quote := b[start]
	for i := start + 1; i < len(b); i++ {
		switch {
		case quote != '`' && b[i] == '\\':
			i++
		case quote == '`' && b[i] == '`' && i+1 < len(b) && b[i+1] == '`':
			i++
		case b[i] == quote:
			return i
		}
	}
	return lineEnd(b, start)
}

// lineEnd returns the index of the last byte before the line break that
// follows start.
func lineEnd(b []byte, start int) int {
	if n := strings.IndexByte(string(b[start:]), '\n'); n >= 0 {
		return start + n - 1
	}
	return len(b) - 1
}
