package scanner

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabledep/tabledep/internal/collector"
)

// memReader serves file content from a map, path -> content.
func memReader(contents map[string]string) ReadFunc {
	return func(path string) []string {
		content, ok := contents[path]
		if !ok {
			return nil
		}
		return strings.Split(content, "\n")
	}
}

const polySchema = `ActiveRecord::Schema.define do
  create_table "notes" do |t|
    t.string "notable_type"
    t.bigint "notable_id"
  end

  create_table "stickers" do |t|
    t.string "stickable_type"
    t.bigint "stickable_id"
  end

  create_table "audits" do |t|
    t.string "auditable_type"
    t.bigint "auditable_id"
  end
end
`

func polyFileSet(contents map[string]string) collector.FileSet {
	fileSet := make(collector.FileSet)
	for path := range contents {
		if cat, ok := collector.Categorize(path); ok {
			fileSet[cat] = append(fileSet[cat], path)
		}
	}
	return fileSet
}

func TestPolymorphicScannerConfirmedByModel(t *testing.T) {
	contents := map[string]string{
		"db/schema.rb": polySchema,
		"app/models/note.rb": `class Note < ApplicationRecord
  has_many :rewards, as: :notable
end
`,
	}

	s := NewPolymorphicScanner(NewTarget("rewards", "", ""), memReader(contents))
	results := s.Scan(polyFileSet(contents))

	require.Len(t, results, 1)
	assert.Equal(t, "notes", results[0].TableName)
	assert.Equal(t, "notable_id", results[0].ColumnName)
	assert.Equal(t, KindPolymorphicModel, results[0].Kind)
	assert.Equal(t, ConfidenceHigh, results[0].Confidence)
	assert.Equal(t, "db/schema.rb", results[0].FilePath)
	assert.Equal(t, 4, results[0].LineNumber)
}

func TestPolymorphicScannerCorroboratedTextually(t *testing.T) {
	contents := map[string]string{
		"db/schema.rb": polySchema,
		"app/services/sticker_mover.rb": `class StickerMover
  def move
    Sticker.where(stickable_type: 'Reward').find_each do |sticker|
    end
  end
end
`,
	}

	s := NewPolymorphicScanner(NewTarget("rewards", "", ""), memReader(contents))
	results := s.Scan(polyFileSet(contents))

	require.Len(t, results, 1)
	assert.Equal(t, "stickers", results[0].TableName)
	assert.Equal(t, "stickable_id", results[0].ColumnName)
	assert.Equal(t, KindPolymorphicSchema, results[0].Kind)
	assert.Equal(t, ConfidenceMedium, results[0].Confidence)
}

// Pairs nothing confirms or corroborates never surface.
func TestPolymorphicScannerDropsUnresolved(t *testing.T) {
	contents := map[string]string{"db/schema.rb": polySchema}

	s := NewPolymorphicScanner(NewTarget("rewards", "", ""), memReader(contents))
	results := s.Scan(polyFileSet(contents))

	assert.Empty(t, results)
}

// A _type column without its _id half in the same table is not a pair.
func TestPolymorphicScannerRequiresBothHalves(t *testing.T) {
	contents := map[string]string{
		"db/schema.rb": `create_table "notes" do |t|
  t.string "notable_type"
end
`,
		"app/models/note.rb": `class Note < ApplicationRecord
  has_many :rewards, as: :notable
end
`,
	}

	s := NewPolymorphicScanner(NewTarget("rewards", "", ""), memReader(contents))
	results := s.Scan(polyFileSet(contents))

	assert.Empty(t, results)
}

// Discriminator pairs on the target's own table cannot depend on it.
func TestPolymorphicScannerSkipsTargetTable(t *testing.T) {
	contents := map[string]string{
		"db/schema.rb": `create_table "rewards" do |t|
  t.string "ownable_type"
  t.bigint "ownable_id"
end
`,
		"app/models/order.rb": `class Order < ApplicationRecord
  has_many :rewards, as: :ownable
end
`,
	}

	s := NewPolymorphicScanner(NewTarget("rewards", "", ""), memReader(contents))
	results := s.Scan(polyFileSet(contents))

	assert.Empty(t, results)
}
