package journal

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"food-analyzer-go/internal/domain/nutrition"
	"food-analyzer-go/internal/platform/config"
)

func sampleEntry(i int, at time.Time) *Entry {
	return &Entry{
		ID:           fmt.Sprintf("entry-%02d", i),
		CreatedAt:    at,
		RequestID:    fmt.Sprintf("req-%d", i),
		ImageDigest:  "abc123",
		ImageWidth:   640,
		ImageHeight:  480,
		SourceFormat: "png",
		Provider:     "gemini",
		Model:        "gemini-2.5-flash",
		Result: nutrition.Result{
			FoodItem: fmt.Sprintf("Dish %d", i),
			NutritionalInfo: nutrition.NutritionalInfo{
				Calories: "250",
				Protein:  "10g",
				Carbs:    "30g",
				Fat:      "8g",
				Details:  "Plain",
			},
		},
		RawReply:  "Food Item: Dish",
		Fields:    map[string]string{"Food Item": "Dish"},
		LatencyMS: 42,
	}
}

// exerciseStore runs the behaviour every driver shares.
func exerciseStore(t *testing.T, store Store, capacity int) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Count)
	assert.Nil(t, stats.Newest)

	total := capacity + 2
	for i := 0; i < total; i++ {
		require.NoError(t, store.Save(ctx, sampleEntry(i, base.Add(time.Duration(i)*time.Second))))
	}

	got, err := store.Get(ctx, "entry-03")
	require.NoError(t, err)
	assert.Equal(t, "Dish 3", got.Result.FoodItem)
	assert.Equal(t, "10g", got.Result.NutritionalInfo.Protein)
	assert.Equal(t, map[string]string{"Food Item": "Dish"}, got.Fields)
	assert.Equal(t, int64(42), got.LatencyMS)

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := store.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, fmt.Sprintf("entry-%02d", total-1), list[0].ID)
	assert.Equal(t, fmt.Sprintf("entry-%02d", total-2), list[1].ID)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemory(5)
	exerciseStore(t, store, 5)

	ctx := context.Background()
	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, stats.Driver)
	assert.Equal(t, int64(5), stats.Count)
	require.NotNil(t, stats.Newest)

	_, err = store.Get(ctx, "entry-00")
	assert.ErrorIs(t, err, ErrNotFound, "oldest entry should be evicted")

	all, err := store.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	store := NewMemory(2)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, sampleEntry(1, time.Now())))

	got, err := store.Get(ctx, "entry-01")
	require.NoError(t, err)
	got.Result.FoodItem = "changed"

	again, err := store.Get(ctx, "entry-01")
	require.NoError(t, err)
	assert.Equal(t, "Dish 1", again.Result.FoodItem)
}

func TestMemoryStore_RejectsMissingID(t *testing.T) {
	store := NewMemory(2)
	assert.Error(t, store.Save(context.Background(), &Entry{}))
}

func TestSQLiteStore(t *testing.T) {
	cfg := config.JournalConfig{
		Driver: DriverSQLite,
		DSN:    fmt.Sprintf("file:journal-%d?mode=memory&cache=shared", time.Now().UnixNano()),
	}
	store, err := New(cfg, Dependencies{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	exerciseStore(t, store, 3)

	stats, err := store.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, stats.Driver)
	assert.Equal(t, int64(5), stats.Count)
	require.NotNil(t, stats.Newest)
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := config.JournalConfig{
		Driver:   DriverRedis,
		Capacity: 4,
		Redis:    config.JournalRedisConfig{Addr: mr.Addr(), Prefix: "test:"},
	}
	store, err := New(cfg, Dependencies{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	exerciseStore(t, store, 4)

	assert.True(t, mr.Exists("test:analysis:entry-05"))
	assert.False(t, mr.Exists("test:analysis:entry-00"), "entries past capacity are removed")

	stats, err := store.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DriverRedis, stats.Driver)
	assert.Equal(t, int64(4), stats.Count)
	require.NotNil(t, stats.Newest)
}

func TestNewRedis_RequiresAddress(t *testing.T) {
	_, err := NewRedis(config.JournalRedisConfig{}, 10)
	assert.Error(t, err)
}

func TestNew_Drivers(t *testing.T) {
	store, err := New(config.JournalConfig{}, Dependencies{})
	require.NoError(t, err)
	stats, err := store.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, stats.Driver)

	none, err := New(config.JournalConfig{Driver: DriverNone}, Dependencies{})
	require.NoError(t, err)
	require.NoError(t, none.Save(context.Background(), sampleEntry(1, time.Now())))
	list, err := none.List(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = New(config.JournalConfig{Driver: "cassandra"}, Dependencies{})
	assert.Error(t, err)
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, DefaultListLimit, ClampLimit(0))
	assert.Equal(t, DefaultListLimit, ClampLimit(-3))
	assert.Equal(t, 7, ClampLimit(7))
	assert.Equal(t, MaxListLimit, ClampLimit(1000))
}
