// Package scanner holds the evidence data model and the heuristic scanners
// that detect references to a database table in categorized source files.
//
// Scanners never mutate shared state and never talk to each other; all
// composition happens in the runner. Any per-file context (current table,
// current class) lives inside a single ScanFile call and resets at file
// boundaries.
package scanner

import (
	"github.com/hashicorp/go-hclog"

	"github.com/tabledep/tabledep/internal/collector"
	"github.com/tabledep/tabledep/internal/inflect"
	"github.com/tabledep/tabledep/pkg/shared/files"
)

// Target is the table under investigation plus its derived name forms.
type Target struct {
	// Table is the table name as given by the caller.
	Table string
	// Singular is the inflected singular form of Table.
	Singular string
	// FKColumn is the foreign-key column other tables would use to point at
	// Table, by default "<singular>_id".
	FKColumn string
}

// NewTarget derives the target's name forms. fkColumn overrides the derived
// foreign-key column entirely; otherwise pkColumn (default "id") is appended
// to the singular form.
func NewTarget(table, fkColumn, pkColumn string) Target {
	singular := inflect.Singularize(table)
	fk := fkColumn
	if fk == "" {
		pk := pkColumn
		if pk == "" {
			pk = "id"
		}
		fk = singular + "_" + pk
	}
	return Target{Table: table, Singular: singular, FKColumn: fk}
}

// FileScanner scans one file at a time. ScanFile must be a pure function of
// the file's line sequence.
type FileScanner interface {
	Name() string
	Categories() []collector.Category
	ScanFile(path string, lines []string, category collector.Category) []Evidence
}

// ReadFunc loads a file into lines, returning nil when it cannot be read.
type ReadFunc func(path string) []string

// NewReader returns a ReadFunc reading from disk. Unreadable files produce a
// warning and a nil result; a failed read never aborts a scan.
func NewReader(logger hclog.Logger) ReadFunc {
	return func(path string) []string {
		lines, err := files.ReadLines(path)
		if err != nil {
			logger.Warn("cannot read file, skipping", "path", path, "error", err)
			return nil
		}
		return lines
	}
}

// ScanFiles drives a FileScanner over every file in its declared categories.
// onFile, when non-nil, is invoked once per visited file for progress
// accounting.
func ScanFiles(s FileScanner, fileSet collector.FileSet, read ReadFunc, onFile func()) []Evidence {
	var results []Evidence
	for _, cat := range s.Categories() {
		for _, path := range fileSet[cat] {
			if lines := read(path); lines != nil {
				results = append(results, s.ScanFile(path, lines, cat)...)
			}
			if onFile != nil {
				onFile()
			}
		}
	}
	return results
}

// FileCount returns how many files ScanFiles would visit for s.
func FileCount(s FileScanner, fileSet collector.FileSet) int {
	count := 0
	for _, cat := range s.Categories() {
		count += len(fileSet[cat])
	}
	return count
}
