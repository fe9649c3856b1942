package scanner

import (
	"regexp"
	"strings"

	"github.com/tabledep/tabledep/internal/collector"
	"github.com/tabledep/tabledep/internal/inflect"
)

// ModelScanner finds ActiveRecord associations involving the target table.
//
// Direction matters: `belongs_to :reward` means the declaring model's own
// table holds the foreign key, so evidence is attached to that owner table.
// `has_many :rewards` / `has_one :reward` means the foreign key lives on the
// target table pointing back at the owner; those are emitted with reverse
// kinds and excluded from final results by the runner.
type ModelScanner struct {
	target      Target
	knownTables map[string]struct{}

	classRe    *regexp.Regexp
	belongsRe  *regexp.Regexp
	hasManyRe  *regexp.Regexp
	hasOneRe   *regexp.Regexp
	indirectRe *regexp.Regexp
	fkRe       *regexp.Regexp
	throughRe  *regexp.Regexp
}

// NewModelScanner builds the association scanner. knownTables, when
// non-empty, is used to resolve model class names to real table names.
func NewModelScanner(target Target, knownTables map[string]struct{}) *ModelScanner {
	singular := regexp.QuoteMeta(target.Singular)
	table := regexp.QuoteMeta(target.Table)
	return &ModelScanner{
		target:      target,
		knownTables: knownTables,
		classRe:     regexp.MustCompile(`class\s+(\w+)\s*<`),
		belongsRe:   regexp.MustCompile(`belongs_to\s+:(` + singular + `)\b`),
		hasManyRe:   regexp.MustCompile(`has_many\s+:(` + table + `)\b`),
		hasOneRe:    regexp.MustCompile(`has_one\s+:(` + singular + `)\b`),
		indirectRe:  regexp.MustCompile(`belongs_to\s+:(\w+).*class_name:\s*['"]` + regexp.QuoteMeta(capitalize(target.Singular)) + `['"]`),
		fkRe:        regexp.MustCompile(`foreign_key:\s*['"](\w+)['"]`),
		throughRe:   regexp.MustCompile(`has_many\s+:(\w+)\s*,.*through:\s*:(` + table + `)\b`),
	}
}

func (s *ModelScanner) Name() string { return "model" }

func (s *ModelScanner) Categories() []collector.Category {
	return []collector.Category{collector.CategoryModel}
}

func (s *ModelScanner) ScanFile(path string, lines []string, category collector.Category) []Evidence {
	var results []Evidence
	currentClass := ""

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

		if m := s.classRe.FindStringSubmatch(line); m != nil {
			currentClass = m[1]
		}

		owner := "unknown"
		if currentClass != "" {
			owner = s.classToTable(currentClass)
		}
		// FK the target table would hold if the owner is on the "one" side
		ownerFK := inflect.Singularize(owner) + "_id"

		// has_many :x, through: :rewards is join-table traversal, the owner
		// holds no FK itself
		if s.throughRe.MatchString(line) {
			emit(lineNo, line, owner, "", KindModelHasManyThrough, ConfidenceMedium)
			continue
		}

		// belongs_to :x, class_name: 'Reward' puts the FK on the owner under an
		// association name that does not mention the target
		if m := s.indirectRe.FindStringSubmatch(line); m != nil {
			col := m[1] + "_id"
			if fk := s.fkRe.FindStringSubmatch(line); fk != nil {
				col = fk[1]
			}
			emit(lineNo, line, owner, col, KindModelIndirectAssociation, ConfidenceMedium)
			continue
		}

		// belongs_to :reward: FK lives on the owner table
		if s.belongsRe.MatchString(line) {
			col := s.target.FKColumn
			if fk := s.fkRe.FindStringSubmatch(line); fk != nil {
				col = fk[1]
			}
			emit(lineNo, line, owner, col, KindModelBelongsTo, ConfidenceHigh)
			continue
		}

		// has_many :rewards: FK lives on the TARGET table (reverse direction)
		if s.hasManyRe.MatchString(line) {
			col := ownerFK
			if fk := s.fkRe.FindStringSubmatch(line); fk != nil {
				col = fk[1]
			}
			emit(lineNo, line, s.target.Table, col, KindModelHasManyReverse, ConfidenceHigh)
			continue
		}

		// has_one :reward, same reverse direction as has_many
		if s.hasOneRe.MatchString(line) {
			col := ownerFK
			if fk := s.fkRe.FindStringSubmatch(line); fk != nil {
				col = fk[1]
			}
			emit(lineNo, line, s.target.Table, col, KindModelHasOneReverse, ConfidenceHigh)
		}
	}

	return results
}

// classToTable resolves a CamelCase model class name to a table name. The
// naive inflected form is preferred; when a known-table set is available and
// the naive form is not in it, namespace-like prefixes are stripped one
// segment at a time until a real table matches (Admin::User -> users).
func (s *ModelScanner) classToTable(className string) string {
	candidate := inflect.ClassNameToTableName(className)

	if len(s.knownTables) == 0 {
		return candidate
	}
	if _, ok := s.knownTables[candidate]; ok {
		return candidate
	}

	parts := strings.Split(candidate, "_")
	for i := 1; i < len(parts); i++ {
		tail := strings.Join(parts[i:], "_")
		if _, ok := s.knownTables[tail]; ok {
			return tail
		}
	}

	return candidate
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
