package scanner

import (
	"regexp"

	"github.com/tabledep/tabledep/internal/collector"
)

// SchemaScanner finds structural column and reference declarations for the
// target inside schema.rb create_table blocks.
type SchemaScanner struct {
	target Target

	createRe *regexp.Regexp
	colRe    *regexp.Regexp
	refRe    *regexp.Regexp
}

func NewSchemaScanner(target Target) *SchemaScanner {
	singular := regexp.QuoteMeta(target.Singular)
	return &SchemaScanner{
		target:   target,
		createRe: regexp.MustCompile(`create_table\s+"(\w+)"`),
		colRe:    regexp.MustCompile(`t\.(integer|bigint|references)\s+"?:?(` + singular + `(?:_id)?)"?`),
		refRe:    regexp.MustCompile(`t\.references\s+:(` + singular + `)\b`),
	}
}

func (s *SchemaScanner) Name() string { return "schema" }

func (s *SchemaScanner) Categories() []collector.Category {
	return []collector.Category{collector.CategorySchema}
}

func (s *SchemaScanner) ScanFile(path string, lines []string, category collector.Category) []Evidence {
	var results []Evidence
	currentTable := ""

	for i, line := range lines {
		lineNo := i + 1

		if m := s.createRe.FindStringSubmatch(line); m != nil {
			currentTable = m[1]
		}

		if s.refRe.MatchString(line) {
			results = append(results, Evidence{
				FilePath:       path,
				LineNumber:     lineNo,
				TableName:      tableOrUnknown(currentTable),
				ColumnName:     s.target.FKColumn,
				Kind:           KindSchemaReference,
				Snippet:        snippet(line),
				Confidence:     ConfidenceHigh,
				SchemaVerified: true,
			})
			continue
		}

		if m := s.colRe.FindStringSubmatch(line); m != nil {
			colType, colName := m[1], m[2]
			if colType == "references" {
				continue // handled by the reference pattern above
			}
			if colName == s.target.Singular {
				colName = s.target.FKColumn
			}
			results = append(results, Evidence{
				FilePath:       path,
				LineNumber:     lineNo,
				TableName:      tableOrUnknown(currentTable),
				ColumnName:     colName,
				Kind:           KindSchemaColumn,
				Snippet:        snippet(line),
				Confidence:     ConfidenceHigh,
				SchemaVerified: true,
			})
		}
	}

	return results
}

func tableOrUnknown(table string) string {
	if table == "" {
		return "unknown"
	}
	return table
}
