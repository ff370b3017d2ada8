package migration

import (
	"testing"

	"evdash/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRunner_ValidatesTable(t *testing.T) {
	for _, bad := range []string{"", "1table", "ev;drop", "ev observations", `ev"x`} {
		_, err := NewRunner(bad)
		require.Error(t, err, bad)
		assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
	}
}

func TestStatements(t *testing.T) {
	r, err := NewRunner("ev_observations")
	require.NoError(t, err)

	stmts := r.Statements()
	require.Len(t, stmts, 3)
	assert.Contains(t, stmts[0], `CREATE TABLE IF NOT EXISTS "ev_observations"`)
	assert.Contains(t, stmts[1], `"idx_ev_observations_region"`)
	assert.Equal(t, "1.0.0", r.Version())
}
