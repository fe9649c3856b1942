package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabledep/tabledep/internal/collector"
)

var rewardTables = map[string]struct{}{
	"rewards": {}, "orders": {}, "businesses": {}, "users": {},
}

func TestModelScannerBelongsTo(t *testing.T) {
	s := NewModelScanner(NewTarget("rewards", "", ""), rewardTables)
	results := scanLines(s, `class Order < ApplicationRecord
  belongs_to :reward
end
`, collector.CategoryModel)

	require.Len(t, results, 1)
	assert.Equal(t, "orders", results[0].TableName)
	assert.Equal(t, "reward_id", results[0].ColumnName)
	assert.Equal(t, KindModelBelongsTo, results[0].Kind)
	assert.Equal(t, ConfidenceHigh, results[0].Confidence)
}

func TestModelScannerBelongsToForeignKeyOverride(t *testing.T) {
	s := NewModelScanner(NewTarget("rewards", "", ""), rewardTables)
	results := scanLines(s, `class Order < ApplicationRecord
  belongs_to :reward, foreign_key: 'legacy_reward_ref'
end
`, collector.CategoryModel)

	require.Len(t, results, 1)
	assert.Equal(t, "legacy_reward_ref", results[0].ColumnName)
}

// has_many/has_one point the other way: the foreign key sits on the target
// table, so the evidence is attached to the target with a reverse kind.
func TestModelScannerReverseAssociations(t *testing.T) {
	s := NewModelScanner(NewTarget("rewards", "", ""), rewardTables)
	results := scanLines(s, `class Business < ApplicationRecord
  has_many :rewards
end
`, collector.CategoryModel)

	require.Len(t, results, 1)
	assert.Equal(t, "rewards", results[0].TableName)
	assert.Equal(t, "business_id", results[0].ColumnName)
	assert.Equal(t, KindModelHasManyReverse, results[0].Kind)
	assert.True(t, results[0].Kind.Reverse())

	results = scanLines(s, `class User < ApplicationRecord
  has_one :reward
end
`, collector.CategoryModel)

	require.Len(t, results, 1)
	assert.Equal(t, "rewards", results[0].TableName)
	assert.Equal(t, "user_id", results[0].ColumnName)
	assert.Equal(t, KindModelHasOneReverse, results[0].Kind)
}

func TestModelScannerThrough(t *testing.T) {
	s := NewModelScanner(NewTarget("rewards", "", ""), rewardTables)
	results := scanLines(s, `class User < ApplicationRecord
  has_many :redemptions, through: :rewards
end
`, collector.CategoryModel)

	require.Len(t, results, 1)
	assert.Equal(t, "users", results[0].TableName)
	assert.Empty(t, results[0].ColumnName)
	assert.Equal(t, KindModelHasManyThrough, results[0].Kind)
	assert.Equal(t, ConfidenceMedium, results[0].Confidence)
}

func TestModelScannerIndirectAssociation(t *testing.T) {
	s := NewModelScanner(NewTarget("rewards", "", ""), rewardTables)
	results := scanLines(s, `class Order < ApplicationRecord
  belongs_to :perk, class_name: 'Reward'
end
`, collector.CategoryModel)

	require.Len(t, results, 1)
	assert.Equal(t, "orders", results[0].TableName)
	assert.Equal(t, "perk_id", results[0].ColumnName)
	assert.Equal(t, KindModelIndirectAssociation, results[0].Kind)
	assert.Equal(t, ConfidenceMedium, results[0].Confidence)
}

// Namespaced classes resolve by stripping prefixes against the known tables.
func TestModelScannerNamespacedClass(t *testing.T) {
	s := NewModelScanner(NewTarget("rewards", "", ""), rewardTables)
	results := scanLines(s, `class AdminUser < ApplicationRecord
  belongs_to :reward
end
`, collector.CategoryModel)

	require.Len(t, results, 1)
	assert.Equal(t, "users", results[0].TableName)
}

func TestModelScannerUnrelatedModel(t *testing.T) {
	s := NewModelScanner(NewTarget("rewards", "", ""), rewardTables)
	results := scanLines(s, `class Business < ApplicationRecord
  has_many :orders
  belongs_to :region
end
`, collector.CategoryModel)

	assert.Empty(t, results)
}
