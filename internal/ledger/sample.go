package ledger

import (
	"context"
	"fmt"

	"github.com/mamadbah2/krishichain/internal/domain/models"
)

// SampleOrigin is the demo produce pushed through the chain by SeedSample.
var SampleOrigin = models.OriginFacts{
	ProductName:   "Basmati Rice",
	Quantity:      "100kg",
	FarmLocation:  "Punjab",
	HarvestDate:   "2025-09-15",
	FarmerName:    "Rajesh Kumar",
	FarmerPrice:   80,
	Category:      "Grains",
	Unit:          "kg",
	FarmingMethod: "Organic",
}

// SeedSample registers the demo record and walks it to verified when svc holds
// no records yet. It returns the final code, or "" when nothing was seeded.
func SeedSample(ctx context.Context, svc Service) (string, error) {
	existing, err := svc.Snapshot(ctx)
	if err != nil {
		return "", fmt.Errorf("check existing records: %w", err)
	}
	if len(existing) > 0 {
		return "", nil
	}

	code, err := svc.Create(ctx, SampleOrigin)
	if err != nil {
		return "", fmt.Errorf("seed create: %w", err)
	}

	code, err = svc.TransitionToDistribution(ctx, code, models.DistributionFacts{
		DistributorName: "Punjab Grains Ltd",
		StorageLocation: "Delhi Warehouse",
		QualityRating:   5,
		TransportDate:   "2025-09-17",
		TransportMethod: "Standard Truck",
	})
	if err != nil {
		return "", fmt.Errorf("seed distribution: %w", err)
	}

	code, err = svc.TransitionToRetail(ctx, code, models.RetailFacts{
		ShopName:       "Fresh Mart",
		FinalPrice:     120,
		RetailLocation: "Mumbai Central",
	})
	if err != nil {
		return "", fmt.Errorf("seed retail: %w", err)
	}

	if err := svc.MarkVerified(ctx, code); err != nil {
		return "", fmt.Errorf("seed verify: %w", err)
	}
	return code, nil
}
