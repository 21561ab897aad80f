package reporting

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/krishichain/internal/domain/models"
	repo "github.com/mamadbah2/krishichain/internal/repository/sheets"
)

const (
	dateLayout    = "2006-01-02"
	summaryRange  = "Summary!A:H"
	productsRange = "Products!A:J"
)

var (
	summaryHeader = []interface{}{
		"generated_at", "total_records", "created", "distributed", "retailed", "verified", "average_rating", "total_retail_value",
	}
	productsHeader = []interface{}{
		"exported_at", "qr_code", "stage", "product_name", "quantity", "farmer_name", "harvest_date", "distributor_name", "quality_rating", "final_price",
	}
)

// ErrExportDisabled is returned by ExportToSheet when no sheet is configured.
var ErrExportDisabled = errors.New("sheet export is not configured")

// LedgerReader is the read side of the ledger that reports need. Snapshot
// must return all records from one consistent read.
type LedgerReader interface {
	Snapshot(ctx context.Context) ([]models.ProduceRecord, error)
}

// SummaryArchiver stores exported summaries for later comparison.
type SummaryArchiver interface {
	SaveSummary(ctx context.Context, summary models.LedgerSummary) error
}

// Service computes ledger summaries and exports them.
type Service struct {
	ledger   LedgerReader
	sheets   repo.Repository
	archiver SummaryArchiver
	logger   *zap.Logger
	now      func() time.Time
}

// NewService wires a reporting service. sheets and archiver may be nil.
func NewService(ledger LedgerReader, sheets repo.Repository, archiver SummaryArchiver, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		ledger:   ledger,
		sheets:   sheets,
		archiver: archiver,
		logger:   logger,
		now:      time.Now,
	}
}

// Summarize aggregates the ledger across all stages.
func (s *Service) Summarize(ctx context.Context) (models.LedgerSummary, error) {
	summary, _, err := s.collect(ctx)
	return summary, err
}

// ExportToSheet appends the current summary and a snapshot of every record.
func (s *Service) ExportToSheet(ctx context.Context) (models.LedgerSummary, error) {
	if s.sheets == nil {
		return models.LedgerSummary{}, ErrExportDisabled
	}

	summary, records, err := s.collect(ctx)
	if err != nil {
		return models.LedgerSummary{}, err
	}

	if err := s.ensureHeader(ctx, summaryRange, summaryHeader); err != nil {
		return models.LedgerSummary{}, err
	}
	if err := s.ensureHeader(ctx, productsRange, productsHeader); err != nil {
		return models.LedgerSummary{}, err
	}

	stamp := summary.GeneratedAt.Format(time.RFC3339)
	summaryRow := []interface{}{
		stamp,
		summary.TotalRecords,
		summary.StageCounts[models.StageCreated],
		summary.StageCounts[models.StageDistributed],
		summary.StageCounts[models.StageRetailed],
		summary.StageCounts[models.StageVerified],
		summary.AverageRating,
		summary.TotalRetailValue,
	}
	if err := s.sheets.AppendRows(ctx, summaryRange, [][]interface{}{summaryRow}); err != nil {
		return models.LedgerSummary{}, fmt.Errorf("export summary row: %w", err)
	}

	rows := make([][]interface{}, 0, len(records))
	for _, r := range records {
		rows = append(rows, productRow(stamp, r))
	}
	if err := s.sheets.AppendRows(ctx, productsRange, rows); err != nil {
		return models.LedgerSummary{}, fmt.Errorf("export product rows: %w", err)
	}

	if s.archiver != nil {
		if err := s.archiver.SaveSummary(ctx, summary); err != nil {
			s.logger.Warn("summary archive failed", zap.Error(err))
		}
	}

	s.logger.Info("ledger exported",
		zap.Int("records", summary.TotalRecords),
		zap.String("date", summary.GeneratedAt.Format(dateLayout)))
	return summary, nil
}

// ensureHeader writes header as the first row when the target sheet is empty.
func (s *Service) ensureHeader(ctx context.Context, sheetRange string, header []interface{}) error {
	firstRow := strings.SplitN(sheetRange, "!", 2)[0] + "!A1:A1"
	existing, err := s.sheets.ReadRange(ctx, firstRow)
	if err != nil {
		return fmt.Errorf("read header of %s: %w", sheetRange, err)
	}
	if len(existing) > 0 {
		return nil
	}
	if err := s.sheets.AppendRows(ctx, sheetRange, [][]interface{}{header}); err != nil {
		return fmt.Errorf("write header of %s: %w", sheetRange, err)
	}
	return nil
}

func (s *Service) collect(ctx context.Context) (models.LedgerSummary, []models.ProduceRecord, error) {
	summary := models.LedgerSummary{
		GeneratedAt: s.now().UTC(),
		StageCounts: make(map[models.Stage]int, len(models.Stages)),
	}

	records, err := s.ledger.Snapshot(ctx)
	if err != nil {
		return models.LedgerSummary{}, nil, fmt.Errorf("snapshot ledger: %w", err)
	}

	for _, stage := range models.Stages {
		summary.StageCounts[stage] = 0
	}

	var ratingTotal, rated int
	for _, r := range records {
		summary.StageCounts[r.Stage]++
		summary.TotalRecords++
		summary.TotalFarmerValue += r.Origin.FarmerPrice
		if r.Distribution != nil {
			ratingTotal += r.Distribution.QualityRating
			rated++
		}
		if r.Retail != nil {
			summary.TotalRetailValue += r.Retail.FinalPrice
		}
	}

	if rated > 0 {
		summary.AverageRating = round2(float64(ratingTotal) / float64(rated))
	}
	if summary.TotalRecords > 0 {
		summary.VerifiedPercentage = round2(float64(summary.StageCounts[models.StageVerified]) / float64(summary.TotalRecords) * 100)
	}
	summary.TotalRetailValue = round2(summary.TotalRetailValue)
	summary.TotalFarmerValue = round2(summary.TotalFarmerValue)

	return summary, records, nil
}

func productRow(stamp string, r models.ProduceRecord) []interface{} {
	row := []interface{}{
		stamp,
		r.Code,
		string(r.Stage),
		r.Origin.ProductName,
		r.Origin.Quantity,
		r.Origin.FarmerName,
		r.Origin.HarvestDate,
		"",
		"",
		"",
	}
	if r.Distribution != nil {
		row[7] = r.Distribution.DistributorName
		row[8] = r.Distribution.QualityRating
	}
	if r.Retail != nil {
		row[9] = r.Retail.FinalPrice
	}
	return row
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
