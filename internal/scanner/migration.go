package scanner

import (
	"regexp"

	"github.com/tabledep/tabledep/internal/collector"
)

// MigrationScanner finds add/remove column, add/remove reference, foreign-key
// and inline create_table references to the target in migration files.
//
// Additions are structural facts (HIGH); removals are only historical hints
// (MEDIUM), since a later migration may have re-added the column.
type MigrationScanner struct {
	target Target

	createRe    *regexp.Regexp
	addRefRe    *regexp.Regexp
	addColRe    *regexp.Regexp
	addFKRe     *regexp.Regexp
	tableRefRe  *regexp.Regexp
	removeRefRe *regexp.Regexp
	removeColRe *regexp.Regexp
}

func NewMigrationScanner(target Target) *MigrationScanner {
	singular := regexp.QuoteMeta(target.Singular)
	table := regexp.QuoteMeta(target.Table)
	fk := regexp.QuoteMeta(target.FKColumn)
	return &MigrationScanner{
		target:      target,
		createRe:    regexp.MustCompile(`create_table\s+[:"](\w+)`),
		addRefRe:    regexp.MustCompile(`add_reference\s+:(\w+)\s*,\s*:(` + singular + `)\b`),
		addColRe:    regexp.MustCompile(`add_column\s+:(\w+)\s*,\s*:(` + fk + `)\s*,`),
		addFKRe:     regexp.MustCompile(`add_foreign_key\s+:(\w+)\s*,\s*:(` + table + `)\b`),
		tableRefRe:  regexp.MustCompile(`t\.references\s+:(` + singular + `)\b`),
		removeRefRe: regexp.MustCompile(`remove_reference\s+:(\w+)\s*,\s*:(` + singular + `)\b`),
		removeColRe: regexp.MustCompile(`remove_column\s+:(\w+)\s*,\s*:(` + fk + `)\b`),
	}
}

func (s *MigrationScanner) Name() string { return "migration" }

func (s *MigrationScanner) Categories() []collector.Category {
	return []collector.Category{collector.CategoryMigration}
}

func (s *MigrationScanner) ScanFile(path string, lines []string, category collector.Category) []Evidence {
	var results []Evidence
	currentTable := ""

	emit := func(lineNo int, line, table, column string, kind ReferenceKind, conf Confidence) {
		results = append(results, Evidence{
			FilePath:       path,
			LineNumber:     lineNo,
			TableName:      table,
			ColumnName:     column,
			Kind:           kind,
			Snippet:        snippet(line),
			Confidence:     conf,
			SchemaVerified: true,
		})
	}

	for i, line := range lines {
		lineNo := i + 1

		// Track the enclosing create_table; "end" does not reset it because
		// migrations nest blocks freely.
		if m := s.createRe.FindStringSubmatch(line); m != nil {
			currentTable = m[1]
		}

		if m := s.addRefRe.FindStringSubmatch(line); m != nil {
			emit(lineNo, line, m[1], s.target.FKColumn, KindMigrationAddReference, ConfidenceHigh)
			continue
		}

		if m := s.addColRe.FindStringSubmatch(line); m != nil {
			emit(lineNo, line, m[1], s.target.FKColumn, KindMigrationAddColumn, ConfidenceHigh)
			continue
		}

		if m := s.addFKRe.FindStringSubmatch(line); m != nil {
			emit(lineNo, line, m[1], s.target.FKColumn, KindMigrationAddForeignKey, ConfidenceHigh)
			continue
		}

		if s.tableRefRe.MatchString(line) {
			emit(lineNo, line, tableOrUnknown(currentTable), s.target.FKColumn, KindMigrationCreateTableRef, ConfidenceHigh)
			continue
		}

		m := s.removeRefRe.FindStringSubmatch(line)
		if m == nil {
			m = s.removeColRe.FindStringSubmatch(line)
		}
		if m != nil {
			emit(lineNo, line, m[1], s.target.FKColumn, KindMigrationRemove, ConfidenceMedium)
		}
	}

	return results
}
