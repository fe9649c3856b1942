package scanner

import (
	"regexp"

	"github.com/tabledep/tabledep/internal/collector"
)

// ContextualScanner is the catch-all pass: identifiers resembling the target
// near query-adjacent keywords, and comments mentioning the target near
// schema-related keywords. Everything it produces is LOW confidence by
// definition.
type ContextualScanner struct {
	target Target

	varRe      *regexp.Regexp
	queryRe    *regexp.Regexp
	commentRe  *regexp.Regexp
	schemaKwRe *regexp.Regexp
}

func NewContextualScanner(target Target) *ContextualScanner {
	singular := regexp.QuoteMeta(target.Singular)
	return &ContextualScanner{
		target:     target,
		varRe:      regexp.MustCompile(`(?i)\b` + singular + `s?\w*\b`),
		queryRe:    regexp.MustCompile(`(?i)\b(query|execute|select|where|find_by|pluck|update_all|delete_all|sql|connection)\b`),
		commentRe:  regexp.MustCompile(`(?i)#.*\b` + singular),
		schemaKwRe: regexp.MustCompile(`(?i)\b(table|column|foreign[_ ]?key|fk|migration|schema|index)\b`),
	}
}

func (s *ContextualScanner) Name() string { return "contextual" }

func (s *ContextualScanner) Categories() []collector.Category {
	return []collector.Category{
		collector.CategoryRubyOther,
		collector.CategoryModel,
		collector.CategoryERB,
		collector.CategorySQL,
	}
}

func (s *ContextualScanner) ScanFile(path string, lines []string, category collector.Category) []Evidence {
	var results []Evidence

	emit := func(lineNo int, line string, kind ReferenceKind) {
		results = append(results, Evidence{
			FilePath:       path,
			LineNumber:     lineNo,
			TableName:      s.target.Table,
			Kind:           kind,
			Snippet:        snippet(line),
			Confidence:     ConfidenceLow,
			SchemaVerified: true,
		})
	}

	for i, line := range lines {
		lineNo := i + 1

		if s.varRe.MatchString(line) && s.queryRe.MatchString(line) {
			emit(lineNo, line, KindContextualVariable)
			continue
		}

		if s.commentRe.MatchString(line) && s.schemaKwRe.MatchString(line) {
			emit(lineNo, line, KindContextualComment)
		}
	}

	return results
}
