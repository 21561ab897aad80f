// Package ledgerapi is a resty client for the KrishiChain HTTP API. It
// satisfies ledger.Service so a remote ledger can stand in for a local one.
package ledgerapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mamadbah2/krishichain/internal/domain/models"
	"github.com/mamadbah2/krishichain/internal/ledger"
)

// Client calls a remote ledger over HTTP.
type Client struct {
	httpClient *resty.Client
}

var _ ledger.Service = (*Client)(nil)

// NewClient builds a client for baseURL, e.g. "http://localhost:8080/api".
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	restyClient := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)

	return &Client{httpClient: restyClient}
}

// apiError mirrors models.ErrorResponse with typed details.
type apiError struct {
	Error   string              `json:"error"`
	Code    string              `json:"code"`
	Details []ledger.FieldError `json:"details"`
}

// Ping checks that the remote API answers its health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	var result struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodGet, "/health", nil, &result); err != nil {
		return err
	}
	if result.Status != "ok" {
		return fmt.Errorf("%w: health status %q", ledger.ErrBackendUnavailable, result.Status)
	}
	return nil
}

// Create registers produce remotely.
func (c *Client) Create(ctx context.Context, origin models.OriginFacts) (string, error) {
	result := new(models.CodeResponse)
	if err := c.do(ctx, http.MethodPost, "/farmer/register-product", origin, result); err != nil {
		return "", err
	}
	return result.QRCode, nil
}

// TransitionToDistribution adds the distributor record remotely.
func (c *Client) TransitionToDistribution(ctx context.Context, code string, facts models.DistributionFacts) (string, error) {
	req := models.DistributionRequest{QRCode: code, DistributionFacts: facts}
	result := new(models.CodeResponse)
	if err := c.do(ctx, http.MethodPost, "/distributor/add-record", req, result); err != nil {
		return "", err
	}
	return result.QRCode, nil
}

// TransitionToRetail adds the retailer record remotely.
func (c *Client) TransitionToRetail(ctx context.Context, code string, facts models.RetailFacts) (string, error) {
	req := models.RetailRequest{QRCode: code, RetailFacts: facts}
	result := new(models.CodeResponse)
	if err := c.do(ctx, http.MethodPost, "/retailer/add-record", req, result); err != nil {
		return "", err
	}
	return result.QRCode, nil
}

// MarkVerified advances a retailed record remotely.
func (c *Client) MarkVerified(ctx context.Context, code string) error {
	return c.do(ctx, http.MethodPost, "/customer/verify/"+pathCode(code), nil, new(models.ProduceRecord))
}

// Lookup resolves an active code remotely.
func (c *Client) Lookup(ctx context.Context, code string) (models.ProduceRecord, error) {
	var record models.ProduceRecord
	if err := c.do(ctx, http.MethodGet, "/verify-product/"+pathCode(code), nil, &record); err != nil {
		return models.ProduceRecord{}, err
	}
	return record, nil
}

// Trace resolves an active or retired code remotely.
func (c *Client) Trace(ctx context.Context, code string) (models.ProduceRecord, error) {
	var record models.ProduceRecord
	if err := c.do(ctx, http.MethodGet, "/trace/"+pathCode(code), nil, &record); err != nil {
		return models.ProduceRecord{}, err
	}
	return record, nil
}

// ListByStage fetches the dashboard for stage.
func (c *Client) ListByStage(ctx context.Context, stage models.Stage) ([]models.ProduceRecord, error) {
	if !stage.Valid() {
		return nil, &ledger.ValidationError{Fields: []ledger.FieldError{{
			Field:   "stage",
			Tag:     "oneof",
			Message: fmt.Sprintf("stage %q is not one of created, distributed, retailed, verified", stage),
		}}}
	}

	var result models.DashboardResponse
	if err := c.do(ctx, http.MethodGet, "/dashboard/"+string(stage), nil, &result); err != nil {
		return nil, err
	}
	if result.Products == nil {
		result.Products = []models.ProduceRecord{}
	}
	return result.Products, nil
}

// Snapshot fetches every record in one request.
func (c *Client) Snapshot(ctx context.Context) ([]models.ProduceRecord, error) {
	var result models.ProductListResponse
	if err := c.do(ctx, http.MethodGet, "/products", nil, &result); err != nil {
		return nil, err
	}
	if result.Products == nil {
		result.Products = []models.ProduceRecord{}
	}
	return result.Products, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, result interface{}) error {
	apiErr := new(apiError)

	req := c.httpClient.R().
		SetContext(ctx).
		SetResult(result).
		SetError(apiErr)
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ledger.ErrBackendUnavailable, method, path, err)
	}

	status := resp.StatusCode()
	switch {
	case status < http.StatusBadRequest:
		return nil
	case status >= http.StatusInternalServerError && apiErr.Code != ledger.CodeInternal:
		return fmt.Errorf("%w: %s %s returned %d", ledger.ErrBackendUnavailable, method, path, status)
	}

	message := apiErr.Error
	if message == "" {
		message = fmt.Sprintf("%s %s returned %d", method, path, status)
	}

	code := apiErr.Code
	if code == "" {
		code = codeForStatus(status)
	}
	return ledger.FromCode(code, message, apiErr.Details)
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return ledger.CodeValidation
	case http.StatusNotFound:
		return ledger.CodeNotFound
	case http.StatusConflict:
		return ledger.CodeInvalidStage
	default:
		return ledger.CodeInternal
	}
}

// pathCode escapes a code for use as a path segment. Empty codes still
// produce a request so the server can answer not-found.
func pathCode(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return "%20"
	}
	return url.PathEscape(code)
}
