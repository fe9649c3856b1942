package collector

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategorize(t *testing.T) {
	var tests = []struct {
		path string
		want Category
		ok   bool
	}{
		{"db/schema.rb", CategorySchema, true},
		{"db/migrate/20240101120000_create_rewards.rb", CategoryMigration, true},
		{"db/migrate/archive/20200101000000_old.rb", CategoryMigration, true},
		{"app/models/reward.rb", CategoryModel, true},
		{"app/models/concerns/redeemable.rb", CategoryModel, true},
		{"app/services/reward_granter.rb", CategoryRubyOther, true},
		{"lib/tasks/cleanup.rb", CategoryRubyOther, true},
		{"db/views/reward_totals.sql", CategorySQL, true},
		{"app/views/rewards/index.html.erb", CategoryERB, true},
		{"config/settings.yml", CategoryYAML, true},
		{"config/settings.yaml", CategoryYAML, true},
		{"README.md", 0, false},
		{"app/assets/app.js", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := Categorize(tt.path)
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

// Specific-location rules must win over the extension catch-alls: a model is
// never also a ruby_other file.
func TestCategorizeFirstMatchWins(t *testing.T) {
	cat, ok := Categorize("app/models/reward.rb")
	require.True(t, ok)
	assert.Equal(t, CategoryModel, cat)

	cat, ok = Categorize("db/schema.rb")
	require.True(t, ok)
	assert.Equal(t, CategorySchema, cat)
}

func TestCollect(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "db/schema.rb", "ActiveRecord::Schema.define do\nend\n")
	writeFile(t, root, "db/migrate/001_create_rewards.rb", "class CreateRewards\nend\n")
	writeFile(t, root, "app/models/reward.rb", "class Reward\nend\n")
	writeFile(t, root, "app/services/granter.rb", "class Granter\nend\n")
	writeFile(t, root, "config/settings.yml", "rewards_table: rewards\n")
	writeFile(t, root, "reports/monthly.sql", "SELECT 1;\n")
	writeFile(t, root, "README.md", "docs\n")
	// pruned directories
	writeFile(t, root, "vendor/bundle/gems/foo.rb", "puts 1\n")
	writeFile(t, root, "node_modules/pkg/index.rb", "puts 1\n")
	writeFile(t, root, "tmp/cache/generated.rb", "puts 1\n")

	fileSet, err := Collect(root, hclog.NewNullLogger())
	require.NoError(t, err)

	assert.Len(t, fileSet[CategorySchema], 1)
	assert.Len(t, fileSet[CategoryMigration], 1)
	assert.Len(t, fileSet[CategoryModel], 1)
	assert.Len(t, fileSet[CategoryRubyOther], 1)
	assert.Len(t, fileSet[CategoryYAML], 1)
	assert.Len(t, fileSet[CategorySQL], 1)
	assert.Equal(t, 6, fileSet.TotalFiles())

	for _, paths := range fileSet {
		for _, path := range paths {
			assert.NotContains(t, path, "vendor")
			assert.NotContains(t, path, "node_modules")
			assert.NotContains(t, path, string(filepath.Separator)+"tmp"+string(filepath.Separator))
		}
	}
}

func TestCollectMissingRoot(t *testing.T) {
	_, err := Collect(filepath.Join(t.TempDir(), "nope"), hclog.NewNullLogger())
	assert.Error(t, err)
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
