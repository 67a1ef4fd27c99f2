package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]Storage {
	t.Helper()
	local, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return map[string]Storage{
		"local":  local,
		"memory": NewMemoryStorage(),
	}
}

func TestStorage_SaveOpenDelete(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			ownerID := uuid.New()
			body := "Date,SalesRep,Customer,ContractValue\n2024-01-20,Alice,TechCorp,18000\n"

			info, err := store.Save(ctx, ownerID, Upload{
				Name:        "../sales.csv",
				Kind:        "sales",
				Fingerprint: "abc123",
				ContentType: "text/csv",
				Body:        strings.NewReader(body),
			})
			require.NoError(t, err)
			assert.Equal(t, int64(len(body)), info.Size)
			assert.Equal(t, "../sales.csv", info.Name)

			rc, got, err := store.Open(ctx, ownerID, info.ID)
			require.NoError(t, err)
			data, err := io.ReadAll(rc)
			require.NoError(t, rc.Close())
			require.NoError(t, err)
			assert.Equal(t, body, string(data))
			assert.Equal(t, "sales", got.Kind)
			assert.Equal(t, "abc123", got.Fingerprint)

			_, _, err = store.Open(ctx, uuid.New(), info.ID)
			assert.ErrorIs(t, err, ErrNotFound, "files are scoped to their owner")

			files, err := store.List(ctx, ownerID)
			require.NoError(t, err)
			require.Len(t, files, 1)

			require.NoError(t, store.Delete(ctx, ownerID, info.ID))
			_, _, err = store.Open(ctx, ownerID, info.ID)
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStorage_DeleteAll(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			ownerID := uuid.New()
			for _, n := range []string{"a.csv", "b.csv"} {
				_, err := store.Save(ctx, ownerID, Upload{Name: n, Body: strings.NewReader("x")})
				require.NoError(t, err)
			}

			require.NoError(t, store.DeleteAll(ctx, ownerID))

			files, err := store.List(ctx, ownerID)
			require.NoError(t, err)
			assert.Empty(t, files)
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "__etc_passwd", sanitizeFilename("../etc/passwd"))
	assert.Equal(t, "fuel_template.csv", sanitizeFilename("fuel_template.csv"))
}

func TestNew(t *testing.T) {
	s, err := New(&Config{Type: StorageTypeMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStorage{}, s)

	s, err = New(&Config{Type: StorageTypeLocal, LocalPath: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &LocalStorage{}, s)
}
