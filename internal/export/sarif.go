package export

import (
	"fmt"
	"io"

	"github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/tabledep/tabledep/internal/scanner"
)

const informationURI = "https://github.com/tabledep/tabledep"

// WriteSARIF writes results as a SARIF 2.1.0 report with one rule per
// reference kind present in the result set.
func WriteSARIF(results []scanner.Evidence, toolVersion string, dest io.Writer) error {
	report, err := sarif.New(sarif.Version210)
	if err != nil {
		return fmt.Errorf("failed to create SARIF report: %w", err)
	}

	run := sarif.NewRunWithInformationURI("tabledep", informationURI)
	run.Tool.Driver.WithVersion(toolVersion)

	seenRules := make(map[string]bool)
	for _, ev := range results {
		ruleID := ev.Kind.String()
		if !seenRules[ruleID] {
			run.AddRule(ruleID).
				WithDescription(ruleDescription(ev.Kind)).
				WithDefaultConfiguration(&sarif.ReportingConfiguration{
					Level: toSarifLevel(ev.Confidence),
				})
			seenRules[ruleID] = true
		}

		location := sarif.NewLocation().WithPhysicalLocation(
			sarif.NewPhysicalLocation().
				WithArtifactLocation(sarif.NewArtifactLocation().WithUri(ev.FilePath)).
				WithRegion(sarif.NewRegion().WithStartLine(ev.LineNumber)),
		)

		result := sarif.NewRuleResult(ruleID).
			WithMessage(sarif.NewTextMessage(resultMessage(ev))).
			WithLevel(toSarifLevel(ev.Confidence)).
			WithLocations([]*sarif.Location{location})
		run.AddResult(result)
	}
	report.AddRun(run)

	return report.PrettyWrite(dest)
}

func resultMessage(ev scanner.Evidence) string {
	if ev.ColumnName != "" {
		return fmt.Sprintf("%s dependency on table %q via column %q: %s",
			ev.Confidence, ev.TableName, ev.ColumnName, ev.Snippet)
	}
	return fmt.Sprintf("%s dependency on table %q: %s", ev.Confidence, ev.TableName, ev.Snippet)
}

func toSarifLevel(confidence scanner.Confidence) string {
	switch confidence {
	case scanner.ConfidenceHigh:
		return "error"
	case scanner.ConfidenceMedium:
		return "warning"
	case scanner.ConfidenceLow:
		return "note"
	default:
		return "none"
	}
}

func ruleDescription(kind scanner.ReferenceKind) string {
	switch kind {
	case scanner.KindSchemaColumn:
		return "Column declaration referencing the target table in the schema definition"
	case scanner.KindSchemaReference:
		return "Reference declaration for the target table in the schema definition"
	case scanner.KindMigrationAddReference:
		return "Migration adding a reference to the target table"
	case scanner.KindMigrationAddColumn:
		return "Migration adding the target's foreign-key column"
	case scanner.KindMigrationAddForeignKey:
		return "Migration adding a foreign key to the target table"
	case scanner.KindMigrationCreateTableRef:
		return "Table created with an inline reference to the target table"
	case scanner.KindMigrationRemove:
		return "Migration removing a reference or column of the target table"
	case scanner.KindModelBelongsTo:
		return "Model association whose table holds the target's foreign key"
	case scanner.KindModelHasManyThrough:
		return "Model association traversing the target table as a join table"
	case scanner.KindModelIndirectAssociation:
		return "Model association naming the target class under another name"
	case scanner.KindModelHasManyReverse, scanner.KindModelHasOneReverse:
		return "Reverse-direction association on the target table"
	case scanner.KindRawSQLColumnRef:
		return "Raw SQL referencing the target's identifier or foreign-key column"
	case scanner.KindRawSQLTableRef:
		return "Raw SQL statement operating on the target table"
	case scanner.KindRawSQLJoin:
		return "SQL join against the target table"
	case scanner.KindRawSQLQueryMethod:
		return "Query-builder call referencing the target"
	case scanner.KindRawSQLInterpolation:
		return "String interpolation near the target name"
	case scanner.KindConfigTableRef:
		return "Configuration entry mentioning the target table"
	case scanner.KindContextualVariable:
		return "Identifier resembling the target near query code"
	case scanner.KindContextualComment:
		return "Comment mentioning the target near schema keywords"
	case scanner.KindPolymorphicSchema:
		return "Polymorphic discriminator pair corroborated textually"
	case scanner.KindPolymorphicModel:
		return "Polymorphic discriminator pair confirmed by an association"
	default:
		return "Reference to the target table"
	}
}
