package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabledep/tabledep/internal/collector"
)

func TestContextualScannerVariableNearQuery(t *testing.T) {
	s := NewContextualScanner(NewTarget("rewards", "", ""))
	results := scanLines(s, `reward_ids = connection.execute(sql).map(&:first)`, collector.CategoryRubyOther)

	require.Len(t, results, 1)
	assert.Equal(t, KindContextualVariable, results[0].Kind)
	assert.Equal(t, ConfidenceLow, results[0].Confidence)
}

func TestContextualScannerCommentNearSchemaKeyword(t *testing.T) {
	s := NewContextualScanner(NewTarget("rewards", "", ""))
	results := scanLines(s, `# the rewards table is partitioned by month`, collector.CategoryRubyOther)

	require.Len(t, results, 1)
	assert.Equal(t, KindContextualComment, results[0].Kind)
	assert.Equal(t, ConfidenceLow, results[0].Confidence)
}

// A variable match on a line also holding a comment takes priority.
func TestContextualScannerVariableWinsOverComment(t *testing.T) {
	s := NewContextualScanner(NewTarget("rewards", "", ""))
	results := scanLines(s, `rewards = execute(sql) # refresh the rewards table`, collector.CategoryRubyOther)

	require.Len(t, results, 1)
	assert.Equal(t, KindContextualVariable, results[0].Kind)
}

func TestContextualScannerNeedsBothSignals(t *testing.T) {
	s := NewContextualScanner(NewTarget("rewards", "", ""))

	// name without query keyword
	assert.Empty(t, scanLines(s, `reward_count = 0`, collector.CategoryRubyOther))
	// query keyword without name
	assert.Empty(t, scanLines(s, `connection.execute(sql)`, collector.CategoryRubyOther))
	// comment without schema keyword
	assert.Empty(t, scanLines(s, `# rewards are granted on signup`, collector.CategoryRubyOther))
}
