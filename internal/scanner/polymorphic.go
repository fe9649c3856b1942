package scanner

import (
	"regexp"
	"strings"

	"github.com/tabledep/tabledep/internal/collector"
)

// PolymorphicScanner resolves polymorphic associations in three passes:
//
//  1. collect {prefix}_type/{prefix}_id column pairs per schema table;
//  2. confirm prefixes structurally via `has_many/has_one :target, as: :prefix`
//     in model files (HIGH);
//  3. corroborate the rest textually: any code line holding both the
//     discriminator column and the target's class name (MEDIUM).
//
// Pairs with no evidence from pass 2 or 3 are dropped silently; type
// columns are everywhere and mean nothing without corroboration. Unlike the
// line scanners it needs the whole categorized file set, so it reads files
// itself through the injected ReadFunc.
type PolymorphicScanner struct {
	target Target
	// modelClass is the CamelCase class form of the singular name,
	// e.g. reward_credit -> RewardCredit.
	modelClass string
	read       ReadFunc

	createRe  *regexp.Regexp
	typeColRe *regexp.Regexp
	idColRe   *regexp.Regexp
	asRe      *regexp.Regexp
}

func NewPolymorphicScanner(target Target, read ReadFunc) *PolymorphicScanner {
	table := regexp.QuoteMeta(target.Table)
	singular := regexp.QuoteMeta(target.Singular)

	segments := strings.Split(target.Singular, "_")
	for i, seg := range segments {
		segments[i] = capitalize(seg)
	}

	return &PolymorphicScanner{
		target:     target,
		modelClass: strings.Join(segments, ""),
		read:       read,
		createRe:   regexp.MustCompile(`create_table\s+"(\w+)"`),
		typeColRe:  regexp.MustCompile(`t\.string\s+"(\w+)_type"`),
		idColRe:    regexp.MustCompile(`t\.(integer|bigint)\s+"(\w+)_id"`),
		asRe:       regexp.MustCompile(`(?:has_many|has_one)\s+:(` + table + `|` + singular + `)\s*,.*as:\s*:(\w+)`),
	}
}

func (s *PolymorphicScanner) Name() string { return "polymorphic" }

// polyPair is one discriminator pair found in the schema, anchored to the
// _id column's declaration.
type polyPair struct {
	childTable string
	prefix     string
	filePath   string
	lineNumber int
	snippet    string
}

// Scan runs all three passes over the categorized file set.
func (s *PolymorphicScanner) Scan(fileSet collector.FileSet) []Evidence {
	pairs := s.collectPairs(fileSet)
	if len(pairs) == 0 {
		return nil
	}

	confirmed := s.confirmPrefixes(fileSet)

	unconfirmed := make(map[string]struct{})
	for _, p := range pairs {
		if _, ok := confirmed[p.prefix]; !ok {
			unconfirmed[p.prefix] = struct{}{}
		}
	}
	corroborated := s.corroboratePrefixes(fileSet, unconfirmed)

	var results []Evidence
	for _, p := range pairs {
		ev := Evidence{
			FilePath:       p.filePath,
			LineNumber:     p.lineNumber,
			TableName:      p.childTable,
			ColumnName:     p.prefix + "_id",
			Snippet:        p.snippet,
			SchemaVerified: true,
		}
		if _, ok := confirmed[p.prefix]; ok {
			ev.Kind, ev.Confidence = KindPolymorphicModel, ConfidenceHigh
			results = append(results, ev)
		} else if _, ok := corroborated[p.prefix]; ok {
			ev.Kind, ev.Confidence = KindPolymorphicSchema, ConfidenceMedium
			results = append(results, ev)
		}
		// no evidence from either pass: drop
	}

	return results
}

// collectPairs is pass 1: a pair is recorded only once both its _type and
// _id halves were seen inside the same create_table context. The target's
// own table is skipped, pairs on it cannot be dependencies on it.
func (s *PolymorphicScanner) collectPairs(fileSet collector.FileSet) []polyPair {
	var pairs []polyPair
	seen := make(map[string]int) // childTable+prefix -> index in pairs

	record := func(childTable string, typeCols map[string]int, idCols map[string]polyPair) {
		for prefix := range typeCols {
			loc, ok := idCols[prefix]
			if !ok {
				continue
			}
			key := childTable + "\x00" + prefix
			if i, dup := seen[key]; dup {
				pairs[i] = loc
			} else {
				seen[key] = len(pairs)
				pairs = append(pairs, loc)
			}
		}
	}

	for _, path := range fileSet[collector.CategorySchema] {
		lines := s.read(path)
		if lines == nil {
			continue
		}

		currentTable := ""
		typeCols := make(map[string]int)
		idCols := make(map[string]polyPair)

		for i, line := range lines {
			if m := s.createRe.FindStringSubmatch(line); m != nil {
				if currentTable != "" {
					record(currentTable, typeCols, idCols)
				}
				currentTable = m[1]
				typeCols = make(map[string]int)
				idCols = make(map[string]polyPair)
				continue
			}

			if currentTable == "" || currentTable == s.target.Table {
				continue
			}

			if m := s.typeColRe.FindStringSubmatch(line); m != nil {
				typeCols[m[1]] = i + 1
			}
			if m := s.idColRe.FindStringSubmatch(line); m != nil {
				idCols[m[2]] = polyPair{
					childTable: currentTable,
					prefix:     m[2],
					filePath:   path,
					lineNumber: i + 1,
					snippet:    snippet(line),
				}
			}
		}

		if currentTable != "" {
			record(currentTable, typeCols, idCols)
		}
	}

	return pairs
}

// confirmPrefixes is pass 2: explicit `as:` qualifiers on associations
// naming the target are structural proof.
func (s *PolymorphicScanner) confirmPrefixes(fileSet collector.FileSet) map[string]struct{} {
	confirmed := make(map[string]struct{})
	for _, path := range fileSet[collector.CategoryModel] {
		lines := s.read(path)
		for _, line := range lines {
			if m := s.asRe.FindStringSubmatch(line); m != nil {
				confirmed[m[2]] = struct{}{}
			}
		}
	}
	return confirmed
}

// corroboratePrefixes is pass 3: a line containing both the discriminator
// column and the target's class name counts as weak evidence. The
// unconfirmed set shrinks monotonically and the search stops as soon as it
// is empty.
func (s *PolymorphicScanner) corroboratePrefixes(fileSet collector.FileSet, unconfirmed map[string]struct{}) map[string]struct{} {
	corroborated := make(map[string]struct{})
	if len(unconfirmed) == 0 {
		return corroborated
	}

	codeCategories := []collector.Category{
		collector.CategoryModel,
		collector.CategoryRubyOther,
		collector.CategoryERB,
		collector.CategorySQL,
		collector.CategoryMigration,
	}

	for _, cat := range codeCategories {
		for _, path := range fileSet[cat] {
			lines := s.read(path)
			for _, line := range lines {
				for prefix := range unconfirmed {
					if strings.Contains(line, prefix+"_type") && strings.Contains(line, s.modelClass) {
						corroborated[prefix] = struct{}{}
						delete(unconfirmed, prefix)
					}
				}
				if len(unconfirmed) == 0 {
					return corroborated
				}
			}
		}
	}

	return corroborated
}
