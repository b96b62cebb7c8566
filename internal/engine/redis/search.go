package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/docrank/internal/engine"
)

// sourceField is the RETURN identifier for the whole JSON document.
const sourceField = "$"

// Search runs a ranked query via FT.SEARCH.
func (s *Store) Search(ctx context.Context, q *engine.Query) (*engine.SearchResult, error) {
	if err := q.Validate(); err != nil {
		return nil, &engine.Error{Op: engine.OpSearch, Err: fmt.Errorf("%w: %w", engine.ErrInvalid, err)}
	}

	queryStr, err := buildQuery(q)
	if err != nil {
		return nil, &engine.Error{Op: engine.OpSearch, Err: err}
	}

	cmd := s.b().Arbitrary("FT.SEARCH").Args(searchArgs(q, queryStr)...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, wrapErr(engine.OpSearch, err)
	}

	res, err := parseSearchResult(raw, q.Highlight)
	if err != nil {
		return nil, &engine.Error{Op: engine.OpSearch, Err: fmt.Errorf("%w: %w", engine.ErrMalformed, err)}
	}
	return res, nil
}

func searchArgs(q *engine.Query, queryStr string) []string {
	args := []string{q.Index, queryStr, "WITHSCORES"}

	if hl := q.Highlight; hl != nil {
		args = append(args,
			"RETURN", "2", sourceField, hl.Field,
			"HIGHLIGHT", "FIELDS", "1", hl.Field,
			"TAGS", hl.PreTag, hl.PostTag,
		)
	}

	if q.Size > 0 {
		args = append(args, "LIMIT", "0", strconv.Itoa(q.Size))
	}

	return append(args, "DIALECT", "2")
}

// buildQuery translates an engine.Query into FT.SEARCH query syntax.
func buildQuery(q *engine.Query) (string, error) {
	switch q.Kind {
	case engine.MultiMatch:
		terms := strings.Fields(q.Text)
		if len(terms) == 0 {
			return "", fmt.Errorf("%w: empty query text", engine.ErrInvalid)
		}
		for i, t := range terms {
			terms[i] = escapeQuery(t)
		}
		// Union of terms: documents matching more terms across more fields score higher.
		fields := make([]string, len(q.Fields))
		for i, f := range q.Fields {
			fields[i] = escapeField(f)
		}
		return fmt.Sprintf("@%s:(%s)", strings.Join(fields, "|"), strings.Join(terms, "|")), nil
	case engine.FieldMatch:
		if q.Text == "" {
			return "", fmt.Errorf("%w: empty match value", engine.ErrInvalid)
		}
		return fmt.Sprintf("@%s:{%s}", escapeField(q.Field), tagEscaper.Replace(q.Text)), nil
	case engine.MatchAll:
		return "*", nil
	default:
		return "", fmt.Errorf("%w: unsupported query kind %s", engine.ErrInvalid, q.Kind)
	}
}

// --- Result parsing ---

func parseSearchResult(raw []rueidis.RedisMessage, hl *engine.Highlight) (*engine.SearchResult, error) {
	if len(raw) == 0 {
		return &engine.SearchResult{}, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return &engine.SearchResult{}, nil
	}

	hits := make([]engine.Hit, 0, len(raw)/3)
	// 3-stride: [total, key1, score1, fields1, key2, score2, fields2, ...]
	for i := 1; i+2 < len(raw); i += 3 {
		key, err := raw[i].ToString()
		if err != nil {
			return nil, fmt.Errorf("parse key of hit %d: %w", i/3, err)
		}

		scoreStr, err := raw[i+1].ToString()
		if err != nil {
			return nil, fmt.Errorf("parse score of %s: %w", key, err)
		}
		score, err := strconv.ParseFloat(scoreStr, 64)
		if err != nil {
			return nil, fmt.Errorf("parse score of %s: %w", key, err)
		}

		fields, err := raw[i+2].ToArray()
		if err != nil {
			return nil, fmt.Errorf("parse fields of %s: %w", key, err)
		}
		pairs, err := parseFieldPairs(fields)
		if err != nil {
			return nil, fmt.Errorf("parse fields of %s: %w", key, err)
		}

		hit, err := buildHit(key, score, pairs, hl)
		if err != nil {
			return nil, err
		}
		hits = append(hits, hit)
	}

	return &engine.SearchResult{Total: int(total), Hits: hits}, nil
}

// buildHit decodes the JSON source ("$") when present and falls back to flat
// hash fields otherwise. The highlighted field is reported as a snippet.
func buildHit(key string, score float64, fields map[string]string, hl *engine.Highlight) (engine.Hit, error) {
	hit := engine.Hit{ID: key, Score: score}

	if raw, ok := fields[sourceField]; ok {
		source, err := decodeSource(raw)
		if err != nil {
			return engine.Hit{}, fmt.Errorf("decode source of %s: %w", key, err)
		}
		hit.Source = source
		delete(fields, sourceField)
	} else {
		hit.Source = make(map[string]any, len(fields))
	}

	for name, value := range fields {
		if hl != nil && name == hl.Field {
			if strings.Contains(value, hl.PreTag) {
				hit.Highlight = map[string][]string{name: {value}}
			}
			if _, ok := hit.Source[name]; ok {
				continue
			}
		}
		hit.Source[name] = value
	}

	return hit, nil
}

func parseFieldPairs(fields []rueidis.RedisMessage) (map[string]string, error) {
	if len(fields)%2 != 0 {
		return nil, fmt.Errorf("odd field list length %d", len(fields))
	}
	m := make(map[string]string, len(fields)/2)
	for j := 0; j < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			return nil, fmt.Errorf("field name %d: %w", j/2, err)
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", name, err)
		}
		m[name] = value
	}
	return m, nil
}

// --- Query helpers ---

// tagEscaper escapes TAG values; document identifiers often contain separators.
var tagEscaper = strings.NewReplacer(
	"\\", "\\\\",
	"/", "\\/",
	"|", "\\|",
	"[", "\\[",
	"]", "\\]",
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	" ", "\\ ",
)

// escapeField escapes every character of an attribute name that query syntax
// would otherwise parse, so dotted paths like "name.first" stay one attribute.
func escapeField(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func escapeQuery(s string) string {
	return queryEscaper.Replace(s)
}

var queryEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`"`, `\"`,
	`@`, `\@`,
	`{`, `\{`,
	`}`, `\}`,
	`(`, `\(`,
	`)`, `\)`,
	`|`, `\|`,
	`-`, `\-`,
	`~`, `\~`,
	`*`, `\*`,
	`[`, `\[`,
	`]`, `\]`,
	`!`, `\!`,
	`%`, `\%`,
	`^`, `\^`,
	`$`, `\$`,
	`<`, `\<`,
	`>`, `\>`,
	`=`, `\=`,
	`;`, `\;`,
	`+`, `\+`,
	`:`, `\:`,
	`.`, `\.`,
	`,`, `\,`,
)
