package scanner

import (
	"regexp"
	"strings"

	"github.com/tabledep/tabledep/internal/collector"
)

// RawSQLScanner finds SQL-shaped references to the target table: DML verbs,
// dotted column references, joins, ActiveRecord query-builder calls and
// string interpolation near the singular name. Heredoc SQL blocks (<<~SQL)
// are accumulated and scanned as one statement attributed to their first
// line.
type RawSQLScanner struct {
	target Target

	colRefRe      *regexp.Regexp
	tableDMLRe    *regexp.Regexp
	joinRe        *regexp.Regexp
	queryMethodRe *regexp.Regexp
	interpRe      *regexp.Regexp
	heredocRe     *regexp.Regexp
}

func NewRawSQLScanner(target Target) *RawSQLScanner {
	table := regexp.QuoteMeta(target.Table)
	singular := regexp.QuoteMeta(target.Singular)
	fk := regexp.QuoteMeta(target.FKColumn)
	return &RawSQLScanner{
		target:        target,
		colRefRe:      regexp.MustCompile(`(?i)\b` + table + `\.id\b|\b` + fk + `\b`),
		tableDMLRe:    regexp.MustCompile(`(?i)\b(?:FROM|UPDATE|INSERT\s+INTO|DELETE\s+FROM)\s+[` + "`" + `"]?` + table + `[` + "`" + `"]?\b`),
		joinRe:        regexp.MustCompile(`(?i)\bJOIN\s+[` + "`" + `"]?` + table + `[` + "`" + `"]?\s+ON\s+(\w+)\.(\w+)\s*=\s*` + table + `\.(\w+)`),
		queryMethodRe: regexp.MustCompile(`(?i)\.(where|joins|includes|eager_load|preload|references)\b.*[:('"]` + singular),
		interpRe:      regexp.MustCompile(`(?i)#\{.*` + singular + `.*\}`),
		heredocRe:     regexp.MustCompile(`<<[-~]?(\w*SQL\w*)`),
	}
}

func (s *RawSQLScanner) Name() string { return "rawsql" }

func (s *RawSQLScanner) Categories() []collector.Category {
	return []collector.Category{
		collector.CategoryRubyOther,
		collector.CategoryModel,
		collector.CategoryERB,
		collector.CategorySQL,
		collector.CategoryMigration,
	}
}

func (s *RawSQLScanner) ScanFile(path string, lines []string, category collector.Category) []Evidence {
	var results []Evidence

	inHeredoc := false
	var heredocLines []string
	heredocStart := 0
	var heredocEndRe *regexp.Regexp

	for i, line := range lines {
		lineNo := i + 1

		if !inHeredoc {
			if m := s.heredocRe.FindStringSubmatch(line); m != nil {
				inHeredoc = true
				heredocLines = nil
				heredocStart = lineNo
				heredocEndRe = regexp.MustCompile(`^\s*` + regexp.QuoteMeta(m[1]) + `\s*$`)
			}
		}

		if inHeredoc {
			heredocLines = append(heredocLines, line)
			if heredocEndRe.MatchString(line) && lineNo > heredocStart {
				block := strings.Join(heredocLines, "\n")
				results = append(results, s.scanBlock(path, heredocStart, block)...)
				inHeredoc = false
				heredocLines = nil
			}
			continue
		}

		results = append(results, s.scanLine(path, lineNo, line)...)
	}

	return results
}

// scanLine classifies a single line; the patterns are mutually exclusive and
// tried most-specific first.
func (s *RawSQLScanner) scanLine(path string, lineNo int, line string) []Evidence {
	ev := Evidence{
		FilePath:       path,
		LineNumber:     lineNo,
		Snippet:        snippet(line),
		SchemaVerified: true,
	}

	if m := s.joinRe.FindStringSubmatch(line); m != nil {
		ev.TableName, ev.ColumnName = m[1], m[2]
		ev.Kind, ev.Confidence = KindRawSQLJoin, ConfidenceMedium
		return []Evidence{ev}
	}

	if s.tableDMLRe.MatchString(line) {
		ev.TableName = s.target.Table
		ev.Kind, ev.Confidence = KindRawSQLTableRef, ConfidenceHigh
		return []Evidence{ev}
	}

	if s.colRefRe.MatchString(line) {
		ev.TableName, ev.ColumnName = s.target.Table, s.target.FKColumn
		ev.Kind, ev.Confidence = KindRawSQLColumnRef, ConfidenceHigh
		return []Evidence{ev}
	}

	if s.queryMethodRe.MatchString(line) {
		ev.TableName = s.target.Table
		ev.Kind, ev.Confidence = KindRawSQLQueryMethod, ConfidenceMedium
		return []Evidence{ev}
	}

	if s.interpRe.MatchString(line) {
		ev.TableName = s.target.Table
		ev.Kind, ev.Confidence = KindRawSQLInterpolation, ConfidenceLow
		return []Evidence{ev}
	}

	return nil
}

// scanBlock scans an accumulated heredoc SQL statement. Unlike single lines,
// a block can legitimately produce several claims at once; all are anchored
// to the block's first line.
func (s *RawSQLScanner) scanBlock(path string, startLine int, block string) []Evidence {
	var results []Evidence
	blockSnippet := snippet(block)

	emit := func(table, column string, kind ReferenceKind, conf Confidence) {
		results = append(results, Evidence{
			FilePath:       path,
			LineNumber:     startLine,
			TableName:      table,
			ColumnName:     column,
			Kind:           kind,
			Snippet:        blockSnippet,
			Confidence:     conf,
			SchemaVerified: true,
		})
	}

	if m := s.joinRe.FindStringSubmatch(block); m != nil {
		emit(m[1], m[2], KindRawSQLJoin, ConfidenceMedium)
	}
	if s.tableDMLRe.MatchString(block) {
		emit(s.target.Table, "", KindRawSQLTableRef, ConfidenceHigh)
	}
	if s.colRefRe.MatchString(block) {
		emit(s.target.Table, s.target.FKColumn, KindRawSQLColumnRef, ConfidenceHigh)
	}

	return results
}
