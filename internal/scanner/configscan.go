package scanner

import (
	"path/filepath"
	"regexp"

	"github.com/tabledep/tabledep/internal/collector"
)

// ConfigScanner finds mentions of the target table in YAML settings files.
// database.yml is skipped entirely: names there are database names, not
// table references.
type ConfigScanner struct {
	target Target

	tableRe    *regexp.Regexp
	commentRe  *regexp.Regexp
	keyValueRe *regexp.Regexp
	fkShapedRe *regexp.Regexp
}

func NewConfigScanner(target Target) *ConfigScanner {
	table := regexp.QuoteMeta(target.Table)
	singular := regexp.QuoteMeta(target.Singular)
	return &ConfigScanner{
		target:     target,
		tableRe:    regexp.MustCompile(`\b` + table + `\b`),
		commentRe:  regexp.MustCompile(`^\s*#`),
		keyValueRe: regexp.MustCompile(`:\s*` + table + `\b`),
		fkShapedRe: regexp.MustCompile(`\b` + singular + `_`),
	}
}

func (s *ConfigScanner) Name() string { return "config" }

func (s *ConfigScanner) Categories() []collector.Category {
	return []collector.Category{collector.CategoryYAML}
}

func (s *ConfigScanner) ScanFile(path string, lines []string, category collector.Category) []Evidence {
	if filepath.Base(path) == "database.yml" {
		return nil
	}

	var results []Evidence
	for i, line := range lines {
		if s.commentRe.MatchString(line) {
			continue
		}
		if !s.tableRe.MatchString(line) {
			continue
		}

		// A key: value binding of the table name, or text shaped like its
		// foreign key, is a stronger signal than a bare mention.
		confidence := ConfidenceLow
		if s.keyValueRe.MatchString(line) || s.fkShapedRe.MatchString(line) {
			confidence = ConfidenceMedium
		}

		results = append(results, Evidence{
			FilePath:       path,
			LineNumber:     i + 1,
			TableName:      s.target.Table,
			Kind:           KindConfigTableRef,
			Snippet:        snippet(line),
			Confidence:     confidence,
			SchemaVerified: true,
		})
	}

	return results
}
