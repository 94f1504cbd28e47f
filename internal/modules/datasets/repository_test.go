package datasets

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testingpkg "github.com/fathomcap/underwriter/internal/testing"
)

func TestRepositoryPersistsWarnings(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, "datasets")
	defer cleanup()
	repo := NewRepository(db.Conn(), zerolog.Nop())

	err := repo.ReplacePnLRows(
		[]PnLRow{{Month: "January 2024", Revenue: 100}},
		[]ImportWarning{{Dataset: "pnl", Row: "January 2024", Field: "cogs", Raw: "??"}},
	)
	require.NoError(t, err)

	warnings, err := repo.Warnings("pnl")
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Equal(t, "cogs", warnings[0].Field)
	assert.Equal(t, "??", warnings[0].Raw)

	// A re-import clears the previous warnings for the dataset
	err = repo.ReplacePnLRows([]PnLRow{{Month: "February 2024", Revenue: 200}}, nil)
	require.NoError(t, err)

	warnings, err = repo.Warnings("pnl")
	require.NoError(t, err)
	assert.Empty(t, warnings)
}

func TestRepositoryImportMetaUpserts(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, "datasets")
	defer cleanup()
	repo := NewRepository(db.Conn(), zerolog.Nop())

	require.NoError(t, repo.ReplacePnLRows([]PnLRow{{Month: "January 2024"}}, nil))
	require.NoError(t, repo.ReplacePnLRows([]PnLRow{{Month: "January 2024"}, {Month: "February 2024"}}, nil))

	meta, err := repo.ImportMeta()
	require.NoError(t, err)
	require.Len(t, meta, 1)
	assert.Equal(t, "pnl", meta[0].Dataset)
	assert.Equal(t, 2, meta[0].RowCount)
}
