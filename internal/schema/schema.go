// Package schema builds the ground-truth index of tables and columns from a
// Rails schema.rb dump.
package schema

import (
	"regexp"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/tabledep/tabledep/internal/collector"
	"github.com/tabledep/tabledep/pkg/shared/files"
)

// Index holds the authoritative table and column set parsed from the schema
// definition. Both maps are empty when no schema file was found, which
// downstream stages treat as "schema unavailable", not as an error.
type Index struct {
	// Tables is the set of real table names.
	Tables map[string]struct{}
	// Columns maps table name -> column name -> declared datatype.
	Columns map[string]map[string]string
}

// HasTable reports whether name is a known table.
func (ix *Index) HasTable(name string) bool {
	_, ok := ix.Tables[name]
	return ok
}

// Empty reports whether no table was indexed (schema missing or unparseable).
func (ix *Index) Empty() bool {
	return len(ix.Tables) == 0
}

var (
	createTableRe = regexp.MustCompile(`create_table\s+"(\w+)"`)
	// Matches: t.<type> "col_name" or t.<type> :col_name
	columnRe = regexp.MustCompile(`\bt\.(\w+)\s+[":](\w+)`)
)

// nonColumnKeywords are schema DSL calls that match the column pattern but do
// not declare a data column.
var nonColumnKeywords = map[string]struct{}{
	"index":       {},
	"timestamps":  {},
	"primary_key": {},
}

// BuildIndex parses every schema file in one pass, tracking the current
// create_table context line by line. A `t.references :x` declaration
// synthesizes an `x_id` column and, when marked polymorphic, an `x_type`
// column. Unreadable files are skipped with a warning.
func BuildIndex(fileSet collector.FileSet, logger hclog.Logger) *Index {
	ix := &Index{
		Tables:  make(map[string]struct{}),
		Columns: make(map[string]map[string]string),
	}

	for _, path := range fileSet[collector.CategorySchema] {
		lines, err := files.ReadLines(path)
		if err != nil {
			logger.Warn("cannot read schema file, skipping", "path", path, "error", err)
			continue
		}

		currentTable := ""
		for _, line := range lines {
			if m := createTableRe.FindStringSubmatch(line); m != nil {
				currentTable = m[1]
				ix.Tables[currentTable] = struct{}{}
				if _, ok := ix.Columns[currentTable]; !ok {
					ix.Columns[currentTable] = make(map[string]string)
				}
				continue
			}

			if currentTable == "" {
				continue
			}

			m := columnRe.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			colType, colName := m[1], m[2]

			if _, skip := nonColumnKeywords[colType]; skip {
				continue
			}

			if colType == "references" {
				ix.Columns[currentTable][colName+"_id"] = "bigint"
				if strings.Contains(line, "polymorphic:") {
					ix.Columns[currentTable][colName+"_type"] = "string"
				}
			} else {
				ix.Columns[currentTable][colName] = colType
			}
		}
	}

	return ix
}
