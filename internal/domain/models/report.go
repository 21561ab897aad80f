package models

import "time"

// LedgerSummary is the aggregated view of the ledger exported to reports.
type LedgerSummary struct {
	GeneratedAt        time.Time     `bson:"generated_at" json:"generated_at"`
	StageCounts        map[Stage]int `bson:"stage_counts" json:"stage_counts"`
	TotalRecords       int           `bson:"total_records" json:"total_records"`
	AverageRating      float64       `bson:"average_rating" json:"average_rating"`
	TotalRetailValue   float64       `bson:"total_retail_value" json:"total_retail_value"`
	TotalFarmerValue   float64       `bson:"total_farmer_value" json:"total_farmer_value"`
	VerifiedPercentage float64       `bson:"verified_percentage" json:"verified_percentage"`
}
