// Package collector walks a codebase and buckets its files into the fixed
// categories the scanners read.
package collector

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hashicorp/go-hclog"
)

// Category identifies which kind of source file a path holds. A file belongs
// to exactly one category; files matching no rule are excluded entirely.
type Category int

const (
	CategorySchema Category = iota
	CategoryMigration
	CategoryModel
	CategoryRubyOther
	CategorySQL
	CategoryERB
	CategoryYAML
)

func (c Category) String() string {
	switch c {
	case CategorySchema:
		return "schema"
	case CategoryMigration:
		return "migration"
	case CategoryModel:
		return "model"
	case CategoryRubyOther:
		return "ruby_other"
	case CategorySQL:
		return "sql"
	case CategoryERB:
		return "erb"
	case CategoryYAML:
		return "yml"
	default:
		return fmt.Sprintf("category(%d)", int(c))
	}
}

// AllCategories lists every category, in declaration order.
var AllCategories = []Category{
	CategorySchema,
	CategoryMigration,
	CategoryModel,
	CategoryRubyOther,
	CategorySQL,
	CategoryERB,
	CategoryYAML,
}

// FileSet maps a category to its ordered (lexical walk order) file paths.
type FileSet map[Category][]string

// TotalFiles counts all categorized files.
func (fs FileSet) TotalFiles() int {
	total := 0
	for _, paths := range fs {
		total += len(paths)
	}
	return total
}

// skipDirs are pruned anywhere in the tree: VCS metadata, dependency
// checkouts and log/temp noise.
var skipDirs = map[string]struct{}{
	"vendor":       {},
	"node_modules": {},
	".git":         {},
	"tmp":          {},
	"log":          {},
}

type categoryRule struct {
	pattern  string
	category Category
}

// categoryRules are tried in order; the first matching pattern wins. The
// specific locations come before the extension catch-alls.
var categoryRules = []categoryRule{
	{"db/schema.rb", CategorySchema},
	{"db/migrate/**/*.rb", CategoryMigration},
	{"app/models/**/*.rb", CategoryModel},
	{"**/*.rb", CategoryRubyOther},
	{"**/*.sql", CategorySQL},
	{"**/*.erb", CategoryERB},
	{"**/*.yml", CategoryYAML},
	{"**/*.yaml", CategoryYAML},
}

// Collect walks root and returns its files grouped by category. Unreadable
// directories are logged and skipped; a nonexistent root is an error.
func Collect(root string, logger hclog.Logger) (FileSet, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("cannot access scan root %q: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scan root %q is not a directory", root)
	}

	categorized := make(FileSet, len(AllCategories))

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			logger.Warn("cannot read path, skipping", "path", path, "error", walkErr)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if _, skip := skipDirs[d.Name()]; skip && path != root {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			logger.Warn("cannot relativize path, skipping", "path", path, "error", err)
			return nil
		}

		if cat, ok := Categorize(filepath.ToSlash(rel)); ok {
			categorized[cat] = append(categorized[cat], path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %q: %w", root, err)
	}

	return categorized, nil
}

// Categorize assigns a slash-separated path, relative to the scan root, to
// its category. The second return is false when no rule matches.
func Categorize(relPath string) (Category, bool) {
	relPath = strings.TrimPrefix(relPath, "./")
	for _, rule := range categoryRules {
		// Patterns are static, so a match error cannot occur.
		if ok, _ := doublestar.Match(rule.pattern, relPath); ok {
			return rule.category, true
		}
	}
	return 0, false
}
