package sqlite_test

import (
	"testing"

	"github.com/harborfund/portal/internal/onboarding/store/drivers/sqlite"
	"github.com/harborfund/portal/internal/onboarding/store/storetest"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	// A second run is a no-op.
	require.NoError(t, s.ApplyMigrations())

	storetest.Run(t, s)
}

func TestStore_File(t *testing.T) {
	path := t.TempDir() + "/onboarding.db"

	s, err := sqlite.NewStore(path)
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	storetest.SeedApplication(t, s, "fund-1", "prospect-1", "a@example.com")
	require.NoError(t, s.Close())

	// Reopen and confirm the data survived.
	s, err = sqlite.NewStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())

	app, err := s.Applications().GetApplicationByID(t.Context(), "prospect-1")
	require.NoError(t, err)
	require.Equal(t, "a@example.com", app.Email)
}
