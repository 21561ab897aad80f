package mongodb

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/krishichain/internal/domain/models"
)

// Runs against a live server only when MONGODB_TEST_URI is set.
func TestMongoDBRepositoryRoundTrip(t *testing.T) {
	uri := os.Getenv("MONGODB_TEST_URI")
	if uri == "" {
		t.Skip("MONGODB_TEST_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dbName := "krishichain_test_" + time.Now().UTC().Format("20060102150405")
	repo, err := NewMongoDBRepository(ctx, uri, dbName)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = repo.client.Database(dbName).Drop(context.Background())
		_ = repo.Close(context.Background())
	})

	empty, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	created := time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC)
	records := []models.ProduceRecord{{
		ID:           "1",
		Code:         "DIST-D4E5F6",
		Stage:        models.StageDistributed,
		Origin:       models.OriginFacts{ProductName: "Basmati Rice"},
		Distribution: &models.DistributionFacts{DistributorName: "Punjab Grains Ltd", QualityRating: 5},
		CreatedAt:    created,
		UpdatedAt:    created,
	}}
	require.NoError(t, repo.Save(ctx, records))
	require.NoError(t, repo.Save(ctx, records))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "DIST-D4E5F6", got[0].Code)
	assert.Equal(t, 5, got[0].Distribution.QualityRating)

	require.NoError(t, repo.SaveSummary(ctx, models.LedgerSummary{GeneratedAt: created, TotalRecords: 1}))
}
