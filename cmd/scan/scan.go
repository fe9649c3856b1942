// Package scan implements the one-shot CLI scan command.
package scan

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/tabledep/tabledep/cmd/version"
	"github.com/tabledep/tabledep/internal/export"
	"github.com/tabledep/tabledep/internal/git"
	"github.com/tabledep/tabledep/internal/runner"
	"github.com/tabledep/tabledep/internal/scanner"
	"github.com/tabledep/tabledep/pkg/shared/config"
	"github.com/tabledep/tabledep/pkg/shared/files"
	"github.com/tabledep/tabledep/pkg/shared/logger"
)

// RunOptionsScan holds the scan command's flag values.
type RunOptionsScan struct {
	Repo          string
	Branch        string
	AuthType      string
	SSHKeyPath    string
	KeepClone     bool
	LocalPath     string
	Table         string
	FKColumn      string
	PKColumn      string
	MinConfidence string
	Strict        bool
	Jobs          int
	Output        string
	Format        string
}

var (
	appConfig      *config.Config
	allScanOptions RunOptionsScan
)

// Init passes the loaded application config to the command.
func Init(cfg *config.Config) {
	appConfig = cfg
}

var ScanCmd = &cobra.Command{
	Use:          "scan --table TABLE (--local-path DIR | --repo URL) [flags]",
	SilenceUsage: true,
	Short:        "Scan a codebase for dependencies on a database table",
	Example: `  # Scan a checked-out codebase for everything touching the rewards table
  tabledep scan --table rewards --local-path ~/src/storefront

  # Clone first, keep only HIGH confidence hits, write SARIF
  tabledep scan --table rewards --repo https://github.com/acme/storefront.git \
    --min-confidence HIGH --format sarif --output rewards.sarif`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScan(cmd.Flags())
	},
}

// changedFlags lists the flags the caller set explicitly, for debug logging.
func changedFlags(flags *pflag.FlagSet) []string {
	var names []string
	flags.Visit(func(f *pflag.Flag) { names = append(names, f.Name) })
	return names
}

func init() {
	ScanCmd.Flags().StringVar(&allScanOptions.Repo, "repo", "", "clone URL of the codebase to scan")
	ScanCmd.Flags().StringVar(&allScanOptions.Branch, "branch", "", "branch to clone (default: remote default branch)")
	ScanCmd.Flags().StringVar(&allScanOptions.AuthType, "auth-type", "", "clone auth: http, ssh-key or ssh-agent")
	ScanCmd.Flags().StringVar(&allScanOptions.SSHKeyPath, "ssh-key", "", "path to an ssh private key for auth-type ssh-key")
	ScanCmd.Flags().BoolVar(&allScanOptions.KeepClone, "keep-clone", false, "keep the temporary clone directory after the scan")
	ScanCmd.Flags().StringVar(&allScanOptions.LocalPath, "local-path", "", "path to an already checked-out codebase")
	ScanCmd.Flags().StringVar(&allScanOptions.Table, "table", "", "target table name (required)")
	ScanCmd.Flags().StringVar(&allScanOptions.FKColumn, "fk-column", "", "override the derived foreign-key column name")
	ScanCmd.Flags().StringVar(&allScanOptions.PKColumn, "pk-column", "", "primary-key column used to derive the foreign key (default: id)")
	ScanCmd.Flags().StringVar(&allScanOptions.MinConfidence, "min-confidence", "", "drop results below this level: LOW, MEDIUM or HIGH")
	ScanCmd.Flags().BoolVar(&allScanOptions.Strict, "strict", false, "drop schema-unverifiable evidence instead of downgrading it")
	ScanCmd.Flags().IntVar(&allScanOptions.Jobs, "jobs", 0, "scanner worker pool size (default from config)")
	ScanCmd.Flags().StringVarP(&allScanOptions.Output, "output", "o", "", "write results to a file instead of stdout")
	ScanCmd.Flags().StringVarP(&allScanOptions.Format, "format", "f", "csv", "output format: csv or sarif")
}

func runScan(flags *pflag.FlagSet) error {
	opts := allScanOptions
	log := logger.NewLogger(appConfig, "core-scan")
	log.Debug("scan invoked", "flags", changedFlags(flags))

	if opts.Table == "" {
		return fmt.Errorf("the --table flag is required")
	}
	if (opts.Repo == "") == (opts.LocalPath == "") {
		return fmt.Errorf("exactly one of --repo or --local-path must be set")
	}
	if opts.Format != "csv" && opts.Format != "sarif" {
		return fmt.Errorf("unknown output format %q (expected csv or sarif)", opts.Format)
	}

	minConfidence := scanner.ConfidenceLow
	confName := opts.MinConfidence
	if confName == "" {
		confName = appConfig.Scanner.MinConfidence
	}
	if confName != "" {
		parsed, err := scanner.ParseConfidence(confName)
		if err != nil {
			return err
		}
		minConfidence = parsed
	}

	jobs := opts.Jobs
	if jobs == 0 {
		jobs = appConfig.Scanner.Jobs
	}

	root := opts.LocalPath
	if root != "" {
		expanded, err := files.ExpandPath(root)
		if err != nil {
			return err
		}
		root = expanded
	} else {
		cloned, err := git.CloneRepository(appConfig, git.CloneOptions{
			URL:        opts.Repo,
			Branch:     opts.Branch,
			AuthType:   opts.AuthType,
			SSHKeyPath: opts.SSHKeyPath,
		}, log)
		if err != nil {
			return err
		}
		if opts.KeepClone {
			log.Info("keeping clone directory", "path", cloned)
		} else {
			defer git.Cleanup(cloned, log)
		}
		root = cloned
	}

	result, err := runner.Run(runner.Options{
		Root:          root,
		Table:         opts.Table,
		FKColumn:      opts.FKColumn,
		PKColumn:      opts.PKColumn,
		MinConfidence: minConfidence,
		Strict:        opts.Strict || appConfig.Scanner.Strict,
		Jobs:          jobs,
		Progress: func(phase runner.Phase, detail string) {
			log.Info(detail, "phase", string(phase))
		},
	}, log)
	if err != nil {
		return err
	}
	if result.Cancelled {
		return fmt.Errorf("scan was cancelled")
	}

	if err := writeResults(result, opts.Format, opts.Output); err != nil {
		return err
	}

	log.Info("scan finished",
		"table", opts.Table,
		"files_scanned", result.Stats.TotalFiles,
		"raw_hits", result.Stats.RawHits,
		"results", result.Stats.AfterFilter)
	for name, count := range result.Stats.ScannerHits {
		log.Debug("scanner hits", "scanner", name, "count", count)
	}
	return nil
}

func writeResults(result *runner.Result, format, output string) error {
	dest := os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("cannot create output file %q: %w", output, err)
		}
		defer f.Close()
		dest = f
	}

	switch strings.ToLower(format) {
	case "sarif":
		return export.WriteSARIF(result.Evidence, version.CoreVersion, dest)
	default:
		return export.WriteCSV(result.Evidence, dest)
	}
}
