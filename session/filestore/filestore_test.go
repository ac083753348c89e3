package filestore_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jrsteele09/paramed-portal/session"
	"github.com/jrsteele09/paramed-portal/session/filestore"
	"github.com/jrsteele09/paramed-portal/users"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileIsEmpty(t *testing.T) {
	fs := filestore.New(filepath.Join(t.TempDir(), "session.json"))

	rec, err := fs.Load(context.Background())
	require.NoError(t, err)
	require.True(t, rec.Empty())
}

func TestSaveLoadClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	fs := filestore.New(path)
	ctx := context.Background()

	want := session.Record{Token: "t1", User: &users.User{ID: "stu-1", Role: users.RoleStudent, Email: "amina@example.com"}}
	require.NoError(t, fs.Save(ctx, want))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err := fs.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, want, got)

	require.NoError(t, fs.Clear(ctx))
	require.NoError(t, fs.Clear(ctx), "clearing twice is not an error")

	got, err = fs.Load(ctx)
	require.NoError(t, err)
	require.True(t, got.Empty())
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	fs := filestore.New(filepath.Join(dir, "session.json"))

	require.NoError(t, fs.Save(context.Background(), session.Record{Token: "t1"}))
	require.NoError(t, fs.Save(context.Background(), session.Record{Token: "t2"}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "session.json", entries[0].Name())
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := filestore.New(path).Load(context.Background())
	require.ErrorIs(t, err, session.ErrCorruptRecord)
}

func TestStoreSurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	ctx := context.Background()

	first := session.New(filestore.New(path))
	first.Restore(ctx)
	require.NoError(t, first.SetAuthenticated(ctx, "t1", &users.User{ID: "adm-1", Role: users.RoleAdmin}))

	second := session.New(filestore.New(path))
	require.True(t, second.Restore(ctx))
	state := second.Snapshot()
	require.Equal(t, "t1", state.Token)
	require.Equal(t, users.RoleAdmin, state.Role())
	require.False(t, state.Loading)
}
