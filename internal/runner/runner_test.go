package runner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabledep/tabledep/internal/scanner"
)

func writeFixture(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func rewardsFixture(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	writeFixture(t, root, "db/schema.rb", `ActiveRecord::Schema.define(version: 2024_01_01_120000) do
  create_table "rewards", force: :cascade do |t|
    t.string "name"
  end

  create_table "orders", force: :cascade do |t|
    t.references :reward, foreign_key: true
    t.bigint "business_id"
  end

  create_table "businesses", force: :cascade do |t|
    t.string "name"
  end
end
`)
	writeFixture(t, root, "app/models/order.rb", `class Order < ApplicationRecord
  belongs_to :reward
end
`)
	writeFixture(t, root, "app/models/business.rb", `class Business < ApplicationRecord
  has_many :rewards
end
`)
	writeFixture(t, root, "app/services/report.rb", `sql = "SELECT * FROM orders JOIN rewards ON orders.reward_id = rewards.id"
`)
	return root
}

func TestRunEndToEnd(t *testing.T) {
	root := rewardsFixture(t)

	result, err := Run(Options{Root: root, Table: "rewards"}, hclog.NewNullLogger())
	require.NoError(t, err)
	require.False(t, result.Cancelled)

	require.Len(t, result.Evidence, 3)

	// sorted HIGH first, then by path
	first := result.Evidence[0]
	assert.Equal(t, "app/models/order.rb", first.FilePath)
	assert.Equal(t, scanner.KindModelBelongsTo, first.Kind)
	assert.Equal(t, "orders", first.TableName)
	assert.Equal(t, "reward_id", first.ColumnName)
	assert.Equal(t, "bigint", first.ColumnDatatype)
	assert.Equal(t, scanner.ConfidenceHigh, first.Confidence)

	second := result.Evidence[1]
	assert.Equal(t, "db/schema.rb", second.FilePath)
	assert.Equal(t, scanner.KindSchemaReference, second.Kind)
	assert.Equal(t, scanner.ConfidenceHigh, second.Confidence)

	third := result.Evidence[2]
	assert.Equal(t, "app/services/report.rb", third.FilePath)
	assert.Equal(t, scanner.KindRawSQLJoin, third.Kind)
	assert.Equal(t, scanner.ConfidenceMedium, third.Confidence)

	// the reverse has_many :rewards never surfaces
	for _, ev := range result.Evidence {
		assert.False(t, ev.Kind.Reverse())
		assert.NotEqual(t, "rewards", ev.TableName)
	}

	assert.Equal(t, 4, result.Stats.TotalFiles)
	assert.Equal(t, 3, result.Stats.AfterFilter)
	assert.Greater(t, result.Stats.RawHits, 3)
	assert.NotEmpty(t, result.Stats.ScannerHits)
}

// A foreign-key override pointing at a column schema.rb does not know is
// dropped under strict mode and downgraded under lenient mode.
func TestRunStrictVersusLenient(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "db/schema.rb", `ActiveRecord::Schema.define do
  create_table "rewards" do |t|
    t.string "name"
  end
  create_table "orders" do |t|
    t.string "number"
  end
end
`)
	writeFixture(t, root, "db/migrate/20240301000000_add_legacy_ref.rb", `class AddLegacyRef < ActiveRecord::Migration[7.0]
  def change
    add_column :orders, :legacy_reward_ref, :string
  end
end
`)

	lenient, err := Run(Options{Root: root, Table: "rewards", FKColumn: "legacy_reward_ref"}, hclog.NewNullLogger())
	require.NoError(t, err)
	require.Len(t, lenient.Evidence, 1)
	assert.Equal(t, scanner.ConfidenceLow, lenient.Evidence[0].Confidence)
	assert.False(t, lenient.Evidence[0].SchemaVerified)

	strict, err := Run(Options{Root: root, Table: "rewards", FKColumn: "legacy_reward_ref", Strict: true}, hclog.NewNullLogger())
	require.NoError(t, err)
	assert.Empty(t, strict.Evidence)
}

func TestRunMinConfidence(t *testing.T) {
	root := rewardsFixture(t)

	result, err := Run(Options{Root: root, Table: "rewards", MinConfidence: scanner.ConfidenceHigh}, hclog.NewNullLogger())
	require.NoError(t, err)

	require.Len(t, result.Evidence, 2)
	for _, ev := range result.Evidence {
		assert.Equal(t, scanner.ConfidenceHigh, ev.Confidence)
	}
}

func TestRunRequiresTable(t *testing.T) {
	_, err := Run(Options{Root: t.TempDir()}, hclog.NewNullLogger())
	assert.Error(t, err)
}

func TestRunMissingRoot(t *testing.T) {
	_, err := Run(Options{Root: filepath.Join(t.TempDir(), "gone"), Table: "rewards"}, hclog.NewNullLogger())
	assert.Error(t, err)
}

func TestRunCancelled(t *testing.T) {
	root := rewardsFixture(t)

	result, err := Run(Options{
		Root:      root,
		Table:     "rewards",
		Cancelled: func() bool { return true },
	}, hclog.NewNullLogger())
	require.NoError(t, err)

	assert.True(t, result.Cancelled)
	assert.Empty(t, result.Evidence)
	assert.Zero(t, result.Stats.AfterFilter)
}

func TestRunProgressPhases(t *testing.T) {
	root := rewardsFixture(t)

	var phases []Phase
	_, err := Run(Options{
		Root:  root,
		Table: "rewards",
		Progress: func(phase Phase, detail string) {
			if len(phases) == 0 || phases[len(phases)-1] != phase {
				phases = append(phases, phase)
			}
		},
	}, hclog.NewNullLogger())
	require.NoError(t, err)

	assert.Equal(t, []Phase{PhaseCollecting, PhaseIndexing, PhaseScanning, PhaseProcessing}, phases)
}

// Parallel scanning must produce byte-identical output to sequential.
func TestRunParallelMatchesSequential(t *testing.T) {
	root := rewardsFixture(t)

	sequential, err := Run(Options{Root: root, Table: "rewards", Jobs: 1}, hclog.NewNullLogger())
	require.NoError(t, err)

	parallel, err := Run(Options{Root: root, Table: "rewards", Jobs: 4}, hclog.NewNullLogger())
	require.NoError(t, err)

	assert.Equal(t, sequential.Evidence, parallel.Evidence)
	assert.Equal(t, sequential.Stats, parallel.Stats)
}
