package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabledep/tabledep/internal/scanner"
)

func sampleResults() []scanner.Evidence {
	return []scanner.Evidence{
		{
			FilePath:       "app/models/order.rb",
			LineNumber:     3,
			TableName:      "orders",
			ColumnName:     "reward_id",
			Kind:           scanner.KindModelBelongsTo,
			Snippet:        "belongs_to :reward",
			Confidence:     scanner.ConfidenceHigh,
			SchemaVerified: true,
			ColumnDatatype: "bigint",
		},
		{
			FilePath:       "config/settings.yml",
			LineNumber:     12,
			TableName:      "orders",
			Kind:           scanner.KindConfigTableRef,
			Snippet:        "source_table: rewards",
			Confidence:     scanner.ConfidenceMedium,
			SchemaVerified: true,
		},
		{
			FilePath:       "app/services/report.rb",
			LineNumber:     7,
			TableName:      "orders",
			Kind:           scanner.KindContextualVariable,
			Snippet:        "reward_ids = execute(sql)",
			Confidence:     scanner.ConfidenceLow,
			SchemaVerified: false,
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(sampleResults(), &buf))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)

	assert.Equal(t, csvColumns, records[0])
	assert.Equal(t, []string{
		"app/models/order.rb", "3", "orders", "reward_id",
		"model_belongs_to", "belongs_to :reward", "HIGH", "true", "bigint",
	}, records[1])
	assert.Equal(t, "false", records[3][7])
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(nil, &buf))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1)
}

func TestWriteSARIF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSARIF(sampleResults(), "1.2.3", &buf))

	var report struct {
		Version string `json:"version"`
		Runs    []struct {
			Tool struct {
				Driver struct {
					Name    string `json:"name"`
					Version string `json:"version"`
					Rules   []struct {
						ID string `json:"id"`
					} `json:"rules"`
				} `json:"driver"`
			} `json:"tool"`
			Results []struct {
				RuleID    string `json:"ruleId"`
				Level     string `json:"level"`
				Locations []struct {
					PhysicalLocation struct {
						ArtifactLocation struct {
							URI string `json:"uri"`
						} `json:"artifactLocation"`
						Region struct {
							StartLine int `json:"startLine"`
						} `json:"region"`
					} `json:"physicalLocation"`
				} `json:"locations"`
			} `json:"results"`
		} `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &report))

	assert.Equal(t, "2.1.0", report.Version)
	require.Len(t, report.Runs, 1)
	run := report.Runs[0]
	assert.Equal(t, "tabledep", run.Tool.Driver.Name)
	assert.Equal(t, "1.2.3", run.Tool.Driver.Version)

	// one rule per distinct reference kind
	require.Len(t, run.Tool.Driver.Rules, 3)

	require.Len(t, run.Results, 3)
	assert.Equal(t, "model_belongs_to", run.Results[0].RuleID)
	assert.Equal(t, "error", run.Results[0].Level)
	assert.Equal(t, "warning", run.Results[1].Level)
	assert.Equal(t, "note", run.Results[2].Level)

	loc := run.Results[0].Locations[0].PhysicalLocation
	assert.Equal(t, "app/models/order.rb", loc.ArtifactLocation.URI)
	assert.Equal(t, 3, loc.Region.StartLine)
}
