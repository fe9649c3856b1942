// Package runner orchestrates a full dependency scan: file collection,
// schema indexing, the scanner fan-out and the post-processing pipeline.
package runner

import (
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/tabledep/tabledep/internal/collector"
	"github.com/tabledep/tabledep/internal/scanner"
	"github.com/tabledep/tabledep/internal/schema"
)

// Phase names the discrete stages a scan moves through. Progress and
// cancellation are only ever handled at phase (and scanner) boundaries, so a
// cancelled scan returns an explicit empty result instead of partial data.
type Phase string

const (
	PhaseCollecting Phase = "collecting"
	PhaseIndexing   Phase = "indexing"
	PhaseScanning   Phase = "scanning"
	PhaseProcessing Phase = "processing"
)

// ProgressFunc observes scan progress. It must be side-effect free with
// respect to the scan itself.
type ProgressFunc func(phase Phase, detail string)

// CancelFunc is polled between phases; returning true aborts the scan.
type CancelFunc func() bool

// Options configures one scan invocation.
type Options struct {
	// Root is the codebase directory to scan.
	Root string
	// Table is the table under investigation.
	Table string
	// FKColumn overrides the derived foreign-key column name.
	FKColumn string
	// PKColumn is appended to the singular form when FKColumn is empty
	// (default "id").
	PKColumn string
	// MinConfidence drops weaker evidence from the final result set.
	MinConfidence scanner.Confidence
	// Strict drops schema-unverifiable evidence instead of downgrading it.
	Strict bool
	// Jobs bounds the scanner worker pool; values below 2 run sequentially.
	Jobs int
	// Progress and Cancelled are optional observers, see ProgressFunc and
	// CancelFunc.
	Progress  ProgressFunc
	Cancelled CancelFunc
}

// Stats summarizes a scan for the front ends.
type Stats struct {
	TotalFiles  int            `json:"total_files_scanned"`
	RawHits     int            `json:"raw_hits"`
	AfterDedup  int            `json:"after_dedup"`
	AfterFilter int            `json:"after_filter"`
	ScannerHits map[string]int `json:"scanner_hits"`
}

// Result is the sole contract consumed by the CLI, HTTP and export front
// ends. Cancelled results carry no evidence and are distinguishable from a
// zero-match scan.
type Result struct {
	Evidence  []scanner.Evidence `json:"results"`
	Stats     Stats              `json:"stats"`
	Cancelled bool               `json:"cancelled"`
}

// Run executes the whole pipeline for one target table.
func Run(opts Options, logger hclog.Logger) (*Result, error) {
	if opts.Table == "" {
		return nil, fmt.Errorf("table name is required")
	}

	progress := opts.Progress
	if progress == nil {
		progress = func(Phase, string) {}
	}
	cancelled := opts.Cancelled
	if cancelled == nil {
		cancelled = func() bool { return false }
	}

	target := scanner.NewTarget(opts.Table, opts.FKColumn, opts.PKColumn)
	logger.Debug("starting scan",
		"root", opts.Root, "table", target.Table,
		"singular", target.Singular, "fk_column", target.FKColumn)

	progress(PhaseCollecting, "Collecting files...")
	fileSet, err := collector.Collect(opts.Root, logger)
	if err != nil {
		return nil, err
	}
	totalFiles := fileSet.TotalFiles()

	if cancelled() {
		return &Result{Cancelled: true}, nil
	}

	progress(PhaseIndexing, "Indexing schema definition...")
	index := schema.BuildIndex(fileSet, logger)

	if cancelled() {
		return &Result{Cancelled: true}, nil
	}

	read := scanner.NewReader(logger)
	jobs := buildJobs(target, index, fileSet, read)

	raw, hits, aborted := runScanners(jobs, opts.Jobs, progress, cancelled)
	if aborted {
		return &Result{Cancelled: true}, nil
	}

	if cancelled() {
		return &Result{Cancelled: true}, nil
	}

	progress(PhaseProcessing, "Deduplicating and filtering results...")
	deduped := deduplicate(raw)
	afterDedup := len(deduped)

	filtered := excludeReverse(deduped)
	filtered = filterTables(filtered, index, target.Table)
	filtered = validateColumns(filtered, index, opts.Strict)
	filtered = filterConfidence(filtered, opts.MinConfidence)
	sortEvidence(filtered)
	relativizePaths(filtered, opts.Root)

	return &Result{
		Evidence: filtered,
		Stats: Stats{
			TotalFiles:  totalFiles,
			RawHits:     len(raw),
			AfterDedup:  afterDedup,
			AfterFilter: len(filtered),
			ScannerHits: hits,
		},
	}, nil
}

// scanJob is one scanner ready to run against the collected file set.
type scanJob struct {
	name string
	run  func() []scanner.Evidence
}

// buildJobs assembles the full scanner registry for a target. Registry order
// is fixed: it decides first-seen tie-breaks during deduplication.
func buildJobs(target scanner.Target, index *schema.Index, fileSet collector.FileSet, read scanner.ReadFunc) []scanJob {
	fileScanners := []scanner.FileScanner{
		scanner.NewSchemaScanner(target),
		scanner.NewMigrationScanner(target),
		scanner.NewModelScanner(target, index.Tables),
		scanner.NewRawSQLScanner(target),
		scanner.NewConfigScanner(target),
		scanner.NewContextualScanner(target),
	}

	jobs := make([]scanJob, 0, len(fileScanners)+1)
	for _, fs := range fileScanners {
		fs := fs
		jobs = append(jobs, scanJob{
			name: fs.Name(),
			run:  func() []scanner.Evidence { return scanner.ScanFiles(fs, fileSet, read, nil) },
		})
	}

	poly := scanner.NewPolymorphicScanner(target, read)
	jobs = append(jobs, scanJob{
		name: poly.Name(),
		run:  func() []scanner.Evidence { return poly.Scan(fileSet) },
	})

	return jobs
}

// runScanners executes all jobs, sequentially or on a bounded pool. Results
// land in per-job slots concatenated in registry order, so parallel runs are
// byte-identical to sequential ones. In sequential mode cancellation is also
// polled between scanners (never inside one).
func runScanners(jobs []scanJob, workers int, progress ProgressFunc, cancelled CancelFunc) (raw []scanner.Evidence, hits map[string]int, aborted bool) {
	slots := make([][]scanner.Evidence, len(jobs))

	if workers > 1 {
		progress(PhaseScanning, fmt.Sprintf("Scanning with %d of %d scanners in parallel...", workers, len(jobs)))
		forEachBounded(workers, len(jobs), func(i int) {
			slots[i] = jobs[i].run()
		})
	} else {
		for i, job := range jobs {
			if cancelled() {
				return nil, nil, true
			}
			progress(PhaseScanning, fmt.Sprintf("Scanning... (%d/%d: %s)", i+1, len(jobs), job.name))
			slots[i] = job.run()
		}
	}

	hits = make(map[string]int)
	for i, job := range jobs {
		if len(slots[i]) > 0 {
			hits[job.name] = len(slots[i])
		}
		raw = append(raw, slots[i]...)
	}
	return raw, hits, false
}
