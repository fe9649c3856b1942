package runner

import (
	"path/filepath"
	"sort"
	"sync"

	"github.com/tabledep/tabledep/internal/scanner"
	"github.com/tabledep/tabledep/internal/schema"
)

// deduplicate keeps one evidence per identity key: the highest-confidence
// record wins, ties keep the first seen. Input order is preserved for
// survivors.
func deduplicate(raw []scanner.Evidence) []scanner.Evidence {
	var deduped []scanner.Evidence
	byKey := make(map[scanner.Key]int, len(raw))

	for _, ev := range raw {
		key := ev.Key()
		if i, ok := byKey[key]; ok {
			if ev.Confidence > deduped[i].Confidence {
				deduped[i] = ev
			}
			continue
		}
		byKey[key] = len(deduped)
		deduped = append(deduped, ev)
	}

	return deduped
}

// excludeReverse drops reverse-direction association evidence. It describes
// the target owning a child, not a dependency on the target, and must never
// surface as a direct dependency claim.
func excludeReverse(evidence []scanner.Evidence) []scanner.Evidence {
	kept := evidence[:0]
	for _, ev := range evidence {
		if !ev.Kind.Reverse() {
			kept = append(kept, ev)
		}
	}
	return kept
}

// filterTables drops evidence whose table is not a real database table
// (when a schema index is available) and evidence pointing at the target
// table itself: the target is the parent, not a dependency.
func filterTables(evidence []scanner.Evidence, index *schema.Index, targetTable string) []scanner.Evidence {
	kept := evidence[:0]
	for _, ev := range evidence {
		if !index.Empty() && !index.HasTable(ev.TableName) {
			continue
		}
		if ev.TableName == targetTable {
			continue
		}
		kept = append(kept, ev)
	}
	return kept
}

// validateColumns cross-checks (table, column) claims against the schema
// column map. Verified columns get their datatype attached. Unverifiable
// columns are dropped in strict mode, or kept as LOW/unverified in lenient
// mode. Table-level evidence (empty column) and tables absent from the map
// pass through unchanged; so does everything when no schema was indexed.
func validateColumns(evidence []scanner.Evidence, index *schema.Index, strict bool) []scanner.Evidence {
	if len(index.Columns) == 0 {
		return evidence
	}

	kept := evidence[:0]
	for _, ev := range evidence {
		if ev.ColumnName == "" {
			kept = append(kept, ev)
			continue
		}

		tableCols, ok := index.Columns[ev.TableName]
		if !ok {
			kept = append(kept, ev)
			continue
		}

		if datatype, ok := tableCols[ev.ColumnName]; ok {
			ev.ColumnDatatype = datatype
			kept = append(kept, ev)
			continue
		}

		if strict {
			continue
		}
		ev.SchemaVerified = false
		ev.Confidence = scanner.ConfidenceLow
		kept = append(kept, ev)
	}
	return kept
}

// filterConfidence drops evidence below the caller's minimum.
func filterConfidence(evidence []scanner.Evidence, min scanner.Confidence) []scanner.Evidence {
	kept := evidence[:0]
	for _, ev := range evidence {
		if ev.Confidence >= min {
			kept = append(kept, ev)
		}
	}
	return kept
}

// sortEvidence orders results for humans: strongest confidence first, then
// file path, then line number. The sort is stable so equal keys keep their
// pipeline order.
func sortEvidence(evidence []scanner.Evidence) {
	sort.SliceStable(evidence, func(i, j int) bool {
		if evidence[i].Confidence != evidence[j].Confidence {
			return evidence[i].Confidence > evidence[j].Confidence
		}
		if evidence[i].FilePath != evidence[j].FilePath {
			return evidence[i].FilePath < evidence[j].FilePath
		}
		return evidence[i].LineNumber < evidence[j].LineNumber
	})
}

// relativizePaths rewrites evidence locations relative to the scan root,
// with forward slashes, for stable human-facing output.
func relativizePaths(evidence []scanner.Evidence, root string) {
	for i := range evidence {
		if rel, err := filepath.Rel(root, evidence[i].FilePath); err == nil {
			evidence[i].FilePath = filepath.ToSlash(rel)
		}
	}
}

// forEachBounded runs f(0..n-1) with at most limit goroutines in flight.
func forEachBounded(limit, n int, f func(i int)) {
	guard := make(chan struct{}, limit)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		guard <- struct{}{} // blocks while the pool is full
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			f(i)
			<-guard
		}(i)
	}
	wg.Wait()
}
