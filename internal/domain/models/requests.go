package models

// DistributionRequest is the distributor's add-record payload.
type DistributionRequest struct {
	QRCode string `json:"qr_code"`
	DistributionFacts
}

// RetailRequest is the retailer's add-record payload.
type RetailRequest struct {
	QRCode string `json:"qr_code"`
	RetailFacts
}

// CodeResponse reports the code issued by a create or transition call.
type CodeResponse struct {
	QRCode       string `json:"qr_code"`
	PreviousCode string `json:"previous_code,omitempty"`
}

// DashboardResponse lists the records of one role.
type DashboardResponse struct {
	Role     string          `json:"role"`
	Stage    Stage           `json:"stage"`
	Products []ProduceRecord `json:"products"`
}

// ProductListResponse lists every record in the ledger.
type ProductListResponse struct {
	Total    int             `json:"total"`
	Products []ProduceRecord `json:"products"`
}

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Code    string      `json:"code"`
	Details interface{} `json:"details,omitempty"`
}
