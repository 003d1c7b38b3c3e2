package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"carspa/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	logger := zerolog.Nop()
	db, err := NewDB(filepath.Join(t.TempDir(), "inbox.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNewDB_DirectoryCreation(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "test.db")
	logger := zerolog.Nop()

	db, err := NewDB(dbPath, &logger)
	require.NoError(t, err)
	defer db.Close()

	assert.FileExists(t, dbPath)
}

func TestNewDB_Memory(t *testing.T) {
	logger := zerolog.Nop()
	db, err := NewDB(":memory:", &logger)
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, db.CreateContactMessage(ctx, &models.ContactMessage{Name: "a", Email: "b", Message: "c"}))
	msgs, err := db.ListContactMessages(ctx, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
}

func TestDB_Ping(t *testing.T) {
	db := setupTestDB(t)
	assert.NoError(t, db.PingContext(context.Background()))
}

func TestContactMessages(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	base := time.Date(2026, time.October, 10, 12, 0, 0, 0, time.UTC)
	inputs := []*models.ContactMessage{
		{Name: "Sarah Johnson", Email: "sarah@example.com", Phone: "514-555-0101", Message: "Do you do pet hair removal?", CreatedAt: base},
		{Name: "Michael Chen", Email: "m.chen@example.com", Message: "Fleet pricing for 12 cars?", CreatedAt: base.Add(48 * time.Hour)},
		// stored in UTC regardless of the caller's zone
		{Name: "Emma Tremblay", Email: "emma@example.com", Message: "Ceramic coating in winter?", CreatedAt: base.Add(96 * time.Hour).In(time.FixedZone("EDT", -4*3600))},
	}
	for _, m := range inputs {
		require.NoError(t, db.CreateContactMessage(ctx, m))
		assert.NotZero(t, m.ID)
	}
	assert.Equal(t, time.UTC, inputs[2].CreatedAt.Location())

	t.Run("All", func(t *testing.T) {
		msgs, err := db.ListContactMessages(ctx, time.Time{}, time.Time{})
		require.NoError(t, err)
		require.Len(t, msgs, 3)
		assert.Equal(t, "Sarah Johnson", msgs[0].Name)
		assert.Equal(t, "514-555-0101", msgs[0].Phone)
		assert.Equal(t, "", msgs[1].Phone)
		assert.True(t, base.Equal(msgs[0].CreatedAt))
	})

	t.Run("Range", func(t *testing.T) {
		msgs, err := db.ListContactMessages(ctx, base.Add(time.Hour), base.Add(72*time.Hour))
		require.NoError(t, err)
		require.Len(t, msgs, 1)
		assert.Equal(t, "Michael Chen", msgs[0].Name)
	})

	t.Run("UntilExclusive", func(t *testing.T) {
		msgs, err := db.ListContactMessages(ctx, base, base.Add(48*time.Hour))
		require.NoError(t, err)
		require.Len(t, msgs, 1)
	})

	t.Run("Empty", func(t *testing.T) {
		msgs, err := db.ListContactMessages(ctx, base.AddDate(1, 0, 0), time.Time{})
		require.NoError(t, err)
		assert.Empty(t, msgs)
	})

	t.Run("DefaultCreatedAt", func(t *testing.T) {
		m := &models.ContactMessage{Name: "x", Email: "y", Message: "z"}
		require.NoError(t, db.CreateContactMessage(ctx, m))
		assert.WithinDuration(t, time.Now(), m.CreatedAt, time.Minute)
	})
}

func TestClosedDB(t *testing.T) {
	logger := zerolog.Nop()
	db, err := NewDB(filepath.Join(t.TempDir(), "closed.db"), &logger)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	ctx := context.Background()
	assert.Error(t, db.CreateContactMessage(ctx, &models.ContactMessage{Name: "a"}))
	_, err = db.ListContactMessages(ctx, time.Time{}, time.Time{})
	assert.Error(t, err)
	assert.Error(t, db.PingContext(ctx))
}
