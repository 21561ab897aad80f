package reporting

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mamadbah2/krishichain/internal/domain/models"
	"github.com/mamadbah2/krishichain/internal/ledger"
	"github.com/mamadbah2/krishichain/internal/repository/memory"
)

// fakeSheet keys rows by sheet name, ignoring the cell range.
type fakeSheet struct {
	appended map[string][][]interface{}
	err      error
}

func sheetName(sheetRange string) string {
	return strings.SplitN(sheetRange, "!", 2)[0]
}

func (f *fakeSheet) AppendRows(_ context.Context, sheetRange string, rows [][]interface{}) error {
	if f.err != nil {
		return f.err
	}
	if f.appended == nil {
		f.appended = make(map[string][][]interface{})
	}
	name := sheetName(sheetRange)
	f.appended[name] = append(f.appended[name], rows...)
	return nil
}

func (f *fakeSheet) ReadRange(_ context.Context, sheetRange string) ([][]interface{}, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.appended[sheetName(sheetRange)], nil
}

type fakeArchiver struct {
	saved []models.LedgerSummary
}

func (f *fakeArchiver) SaveSummary(_ context.Context, summary models.LedgerSummary) error {
	f.saved = append(f.saved, summary)
	return nil
}

var fixedNow = time.Date(2025, 9, 20, 14, 30, 0, 0, time.UTC)

// seededLedger holds one record per stage.
func seededLedger(t *testing.T) *ledger.Ledger {
	t.Helper()
	ctx := context.Background()
	l := ledger.New(memory.NewStore(), zaptest.NewLogger(t))

	origin := func(name string, price float64) models.OriginFacts {
		return models.OriginFacts{
			ProductName:  name,
			Quantity:     "10kg",
			FarmLocation: "Punjab",
			HarvestDate:  "2025-09-15",
			FarmerName:   "Rajesh Kumar",
			FarmerPrice:  price,
		}
	}
	dist := func(rating int) models.DistributionFacts {
		return models.DistributionFacts{
			DistributorName: "Punjab Grains Ltd",
			StorageLocation: "Delhi Warehouse",
			QualityRating:   rating,
			TransportDate:   "2025-09-17",
		}
	}
	retail := func(price float64) models.RetailFacts {
		return models.RetailFacts{ShopName: "Fresh Mart", FinalPrice: price, RetailLocation: "Mumbai"}
	}

	_, err := l.Create(ctx, origin("Onion", 10))
	require.NoError(t, err)

	code, err := l.Create(ctx, origin("Wheat", 20))
	require.NoError(t, err)
	_, err = l.TransitionToDistribution(ctx, code, dist(3))
	require.NoError(t, err)

	code, err = l.Create(ctx, origin("Tomato", 30))
	require.NoError(t, err)
	code, err = l.TransitionToDistribution(ctx, code, dist(4))
	require.NoError(t, err)
	_, err = l.TransitionToRetail(ctx, code, retail(49.99))
	require.NoError(t, err)

	code, err = l.Create(ctx, origin("Basmati Rice", 40))
	require.NoError(t, err)
	code, err = l.TransitionToDistribution(ctx, code, dist(5))
	require.NoError(t, err)
	code, err = l.TransitionToRetail(ctx, code, retail(120))
	require.NoError(t, err)
	require.NoError(t, l.MarkVerified(ctx, code))

	return l
}

func TestSummarize(t *testing.T) {
	svc := NewService(seededLedger(t), nil, nil, zaptest.NewLogger(t))
	svc.now = func() time.Time { return fixedNow }

	summary, err := svc.Summarize(context.Background())
	require.NoError(t, err)

	assert.Equal(t, fixedNow, summary.GeneratedAt)
	assert.Equal(t, 4, summary.TotalRecords)
	for _, stage := range models.Stages {
		assert.Equal(t, 1, summary.StageCounts[stage], stage)
	}
	assert.Equal(t, 4.0, summary.AverageRating)
	assert.Equal(t, 169.99, summary.TotalRetailValue)
	assert.Equal(t, 100.0, summary.TotalFarmerValue)
	assert.Equal(t, 25.0, summary.VerifiedPercentage)
}

// movingReader advances every record one stage after each read, the way
// concurrent transitions would between separate queries.
type movingReader struct {
	records []models.ProduceRecord
	reads   int
}

func (m *movingReader) Snapshot(context.Context) ([]models.ProduceRecord, error) {
	m.reads++
	out := make([]models.ProduceRecord, len(m.records))
	copy(out, m.records)
	for i := range m.records {
		if next, ok := m.records[i].Stage.Next(); ok {
			m.records[i].Stage = next
		}
	}
	return out, nil
}

func TestSummarizeReadsOneSnapshot(t *testing.T) {
	reader := &movingReader{records: []models.ProduceRecord{
		{Code: "FARM-AAAAAA", Stage: models.StageCreated},
		{Code: "FARM-BBBBBB", Stage: models.StageCreated},
		{Code: "DIST-CCCCCC", Stage: models.StageDistributed},
	}}
	svc := NewService(reader, nil, nil, zaptest.NewLogger(t))

	summary, err := svc.Summarize(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, reader.reads)
	assert.Equal(t, 3, summary.TotalRecords)
	assert.Equal(t, map[models.Stage]int{
		models.StageCreated:     2,
		models.StageDistributed: 1,
		models.StageRetailed:    0,
		models.StageVerified:    0,
	}, summary.StageCounts)
}

func TestSummarizeEmptyLedger(t *testing.T) {
	svc := NewService(ledger.New(memory.NewStore(), nil), nil, nil, nil)

	summary, err := svc.Summarize(context.Background())
	require.NoError(t, err)
	assert.Zero(t, summary.TotalRecords)
	assert.Zero(t, summary.AverageRating)
	assert.Zero(t, summary.VerifiedPercentage)
}

func TestExportToSheet(t *testing.T) {
	sheet := &fakeSheet{}
	archive := &fakeArchiver{}
	svc := NewService(seededLedger(t), sheet, archive, zaptest.NewLogger(t))
	svc.now = func() time.Time { return fixedNow }

	summary, err := svc.ExportToSheet(context.Background())
	require.NoError(t, err)

	rows := sheet.appended["Summary"]
	require.Len(t, rows, 2)
	assert.Equal(t, summaryHeader, rows[0])
	assert.Equal(t, "2025-09-20T14:30:00Z", rows[1][0])
	assert.Equal(t, 4, rows[1][1])

	products := sheet.appended["Products"]
	require.Len(t, products, 5)
	assert.Equal(t, productsHeader, products[0])
	for _, row := range products[1:] {
		assert.Len(t, row, 10)
	}

	require.Len(t, archive.saved, 1)
	assert.Equal(t, summary, archive.saved[0])

	// A second export appends data only.
	_, err = svc.ExportToSheet(context.Background())
	require.NoError(t, err)
	assert.Len(t, sheet.appended["Summary"], 3)
	assert.Len(t, sheet.appended["Products"], 9)
}

func TestExportToSheetErrors(t *testing.T) {
	ctx := context.Background()

	_, err := NewService(ledger.New(memory.NewStore(), nil), nil, nil, nil).ExportToSheet(ctx)
	assert.ErrorIs(t, err, ErrExportDisabled)

	sheet := &fakeSheet{err: errors.New("quota exceeded")}
	archive := &fakeArchiver{}
	_, err = NewService(ledger.New(memory.NewStore(), nil), sheet, archive, nil).ExportToSheet(ctx)
	assert.ErrorContains(t, err, "quota exceeded")
	assert.Empty(t, archive.saved)
}
