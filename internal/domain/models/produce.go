package models

import (
	"strings"
	"time"
)

// DateLayout is the calendar date format used by harvest and transport dates.
const DateLayout = "2006-01-02"

// OriginFacts are fixed when the farmer registers the produce.
type OriginFacts struct {
	ProductName   string  `json:"product_name" bson:"product_name" validate:"required"`
	Quantity      string  `json:"quantity" bson:"quantity" validate:"required"`
	FarmLocation  string  `json:"farm_location" bson:"farm_location" validate:"required"`
	HarvestDate   string  `json:"harvest_date" bson:"harvest_date" validate:"required,datetime=2006-01-02"`
	FarmerName    string  `json:"farmer_name" bson:"farmer_name" validate:"required"`
	FarmerPrice   float64 `json:"farmer_price,omitempty" bson:"farmer_price,omitempty" validate:"finite,gte=0"`
	Category      string  `json:"category,omitempty" bson:"category,omitempty"`
	Unit          string  `json:"unit,omitempty" bson:"unit,omitempty"`
	FarmingMethod string  `json:"farming_method,omitempty" bson:"farming_method,omitempty"`
}

// Normalize trims surrounding whitespace from every text field.
func (o *OriginFacts) Normalize() {
	o.ProductName = strings.TrimSpace(o.ProductName)
	o.Quantity = strings.TrimSpace(o.Quantity)
	o.FarmLocation = strings.TrimSpace(o.FarmLocation)
	o.HarvestDate = strings.TrimSpace(o.HarvestDate)
	o.FarmerName = strings.TrimSpace(o.FarmerName)
	o.Category = strings.TrimSpace(o.Category)
	o.Unit = strings.TrimSpace(o.Unit)
	o.FarmingMethod = strings.TrimSpace(o.FarmingMethod)
}

// DistributionFacts are attached once, when a distributor takes the produce.
type DistributionFacts struct {
	DistributorName string `json:"distributor_name" bson:"distributor_name" validate:"required"`
	StorageLocation string `json:"storage_location" bson:"storage_location" validate:"required"`
	QualityRating   int    `json:"quality_rating" bson:"quality_rating" validate:"min=1,max=5"`
	TransportDate   string `json:"transport_date" bson:"transport_date" validate:"required,datetime=2006-01-02"`
	TransportMethod string `json:"transport_method,omitempty" bson:"transport_method,omitempty"`
}

// Normalize trims surrounding whitespace from every text field.
func (d *DistributionFacts) Normalize() {
	d.DistributorName = strings.TrimSpace(d.DistributorName)
	d.StorageLocation = strings.TrimSpace(d.StorageLocation)
	d.TransportDate = strings.TrimSpace(d.TransportDate)
	d.TransportMethod = strings.TrimSpace(d.TransportMethod)
}

// RetailFacts are attached once, when a retailer stocks the produce.
type RetailFacts struct {
	ShopName       string  `json:"shop_name" bson:"shop_name" validate:"required"`
	FinalPrice     float64 `json:"final_price" bson:"final_price" validate:"finite,gt=0"`
	RetailLocation string  `json:"retail_location" bson:"retail_location" validate:"required"`
}

// Normalize trims surrounding whitespace from every text field.
func (r *RetailFacts) Normalize() {
	r.ShopName = strings.TrimSpace(r.ShopName)
	r.RetailLocation = strings.TrimSpace(r.RetailLocation)
}

// ProduceRecord is one unit of produce tracked through the chain.
//
// Stage decides which optional sections are present: created has neither,
// distributed has Distribution, retailed and verified have both.
type ProduceRecord struct {
	ID            string             `json:"id" bson:"id"`
	Code          string             `json:"qr_code" bson:"code"`
	Stage         Stage              `json:"current_stage" bson:"stage"`
	Origin        OriginFacts        `json:"farmer" bson:"origin"`
	Distribution  *DistributionFacts `json:"distributor,omitempty" bson:"distribution,omitempty"`
	Retail        *RetailFacts       `json:"retailer,omitempty" bson:"retail,omitempty"`
	PreviousCodes []string           `json:"previous_codes,omitempty" bson:"previous_codes,omitempty"`
	CreatedAt     time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at" bson:"updated_at"`
	VerifiedAt    *time.Time         `json:"verified_at,omitempty" bson:"verified_at,omitempty"`
}

// Clone returns a deep copy so callers never share stage sections.
func (r ProduceRecord) Clone() ProduceRecord {
	out := r
	if r.Distribution != nil {
		d := *r.Distribution
		out.Distribution = &d
	}
	if r.Retail != nil {
		rt := *r.Retail
		out.Retail = &rt
	}
	if r.PreviousCodes != nil {
		out.PreviousCodes = append([]string(nil), r.PreviousCodes...)
	}
	if r.VerifiedAt != nil {
		v := *r.VerifiedAt
		out.VerifiedAt = &v
	}
	return out
}

// HasCode reports whether code is the record's current code or one of its retired ones.
func (r ProduceRecord) HasCode(code string) bool {
	if r.Code == code {
		return true
	}
	for _, prev := range r.PreviousCodes {
		if prev == code {
			return true
		}
	}
	return false
}
