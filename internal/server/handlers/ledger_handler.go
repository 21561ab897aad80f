package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"

	"github.com/mamadbah2/krishichain/internal/domain/models"
	"github.com/mamadbah2/krishichain/internal/ledger"
)

const (
	defaultQRSize = 256
	minQRSize     = 64
	maxQRSize     = 1024
)

// Summarizer produces the reporting summary served by the API.
type Summarizer interface {
	Summarize(ctx context.Context) (models.LedgerSummary, error)
}

// LedgerHandler adapts ledger operations to HTTP.
type LedgerHandler struct {
	svc     ledger.Service
	reports Summarizer
	logger  *zap.Logger
}

// NewLedgerHandler constructs the HTTP handler adapter. reports may be nil.
func NewLedgerHandler(svc ledger.Service, reports Summarizer, logger *zap.Logger) *LedgerHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerHandler{svc: svc, reports: reports, logger: logger}
}

// RegisterProduct creates a record from the farmer's origin facts.
func (h *LedgerHandler) RegisterProduct(c *gin.Context) {
	var origin models.OriginFacts
	if err := c.ShouldBindJSON(&origin); err != nil {
		h.badPayload(c, err)
		return
	}

	code, err := h.svc.Create(c.Request.Context(), origin)
	if err != nil {
		h.fail(c, "register product", err)
		return
	}

	c.JSON(http.StatusCreated, models.CodeResponse{QRCode: code})
}

// AddDistributionRecord performs the created → distributed transition.
func (h *LedgerHandler) AddDistributionRecord(c *gin.Context) {
	var req models.DistributionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badPayload(c, err)
		return
	}

	code, err := h.svc.TransitionToDistribution(c.Request.Context(), req.QRCode, req.DistributionFacts)
	if err != nil {
		h.fail(c, "add distribution record", err)
		return
	}

	c.JSON(http.StatusOK, models.CodeResponse{QRCode: code, PreviousCode: req.QRCode})
}

// AddRetailRecord performs the distributed → retailed transition.
func (h *LedgerHandler) AddRetailRecord(c *gin.Context) {
	var req models.RetailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badPayload(c, err)
		return
	}

	code, err := h.svc.TransitionToRetail(c.Request.Context(), req.QRCode, req.RetailFacts)
	if err != nil {
		h.fail(c, "add retail record", err)
		return
	}

	c.JSON(http.StatusOK, models.CodeResponse{QRCode: code, PreviousCode: req.QRCode})
}

// MarkVerified records the customer-facing verification and returns the record.
func (h *LedgerHandler) MarkVerified(c *gin.Context) {
	code := c.Param("code")
	ctx := c.Request.Context()

	if err := h.svc.MarkVerified(ctx, code); err != nil {
		h.fail(c, "mark verified", err)
		return
	}

	record, err := h.svc.Lookup(ctx, code)
	if err != nil {
		h.fail(c, "lookup verified record", err)
		return
	}

	c.JSON(http.StatusOK, record)
}

// VerifyProduct resolves an active code.
func (h *LedgerHandler) VerifyProduct(c *gin.Context) {
	record, err := h.svc.Lookup(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.fail(c, "verify product", err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// Trace resolves an active or retired code.
func (h *LedgerHandler) Trace(c *gin.Context) {
	record, err := h.svc.Trace(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.fail(c, "trace product", err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// Dashboard lists the records a role works on.
func (h *LedgerHandler) Dashboard(c *gin.Context) {
	role := c.Param("role")
	stage, err := models.StageForRole(role)
	if err != nil {
		h.fail(c, "dashboard", &ledger.ValidationError{Fields: []ledger.FieldError{{
			Field:   "role",
			Tag:     "oneof",
			Message: err.Error(),
		}}})
		return
	}

	products, err := h.svc.ListByStage(c.Request.Context(), stage)
	if err != nil {
		h.fail(c, "dashboard", err)
		return
	}

	c.JSON(http.StatusOK, models.DashboardResponse{Role: role, Stage: stage, Products: products})
}

// ListProducts returns every record from one ledger read.
func (h *LedgerHandler) ListProducts(c *gin.Context) {
	products, err := h.svc.Snapshot(c.Request.Context())
	if err != nil {
		h.fail(c, "list products", err)
		return
	}
	c.JSON(http.StatusOK, models.ProductListResponse{Total: len(products), Products: products})
}

// QRImage renders the active code as a PNG QR image.
func (h *LedgerHandler) QRImage(c *gin.Context) {
	record, err := h.svc.Lookup(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.fail(c, "qr image", err)
		return
	}

	size := defaultQRSize
	if raw := c.Query("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < minQRSize || n > maxQRSize {
			h.fail(c, "qr image", &ledger.ValidationError{Fields: []ledger.FieldError{{
				Field:   "size",
				Tag:     "range",
				Message: "size must be an integer between 64 and 1024",
			}}})
			return
		}
		size = n
	}

	png, err := qrcode.Encode(record.Code, qrcode.Medium, size)
	if err != nil {
		h.logger.Error("qr encode failed", zap.String("code", record.Code), zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to generate QR", Code: ledger.CodeInternal})
		return
	}

	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", png)
}

// Summary serves the aggregated ledger report.
func (h *LedgerHandler) Summary(c *gin.Context) {
	if h.reports == nil {
		c.JSON(http.StatusNotImplemented, models.ErrorResponse{Error: "reporting is not enabled", Code: ledger.CodeInternal})
		return
	}

	summary, err := h.reports.Summarize(c.Request.Context())
	if err != nil {
		h.fail(c, "summary", err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *LedgerHandler) badPayload(c *gin.Context, err error) {
	h.logger.Warn("invalid request payload", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error: "invalid request body",
		Code:  ledger.CodeValidation,
		Details: []ledger.FieldError{{
			Tag:     "json",
			Message: err.Error(),
		}},
	})
}

func (h *LedgerHandler) fail(c *gin.Context, op string, err error) {
	code := ledger.ErrorCode(err)
	resp := models.ErrorResponse{Error: err.Error(), Code: code}

	var status int
	switch code {
	case ledger.CodeValidation:
		status = http.StatusBadRequest
		var verr *ledger.ValidationError
		if errors.As(err, &verr) {
			resp.Details = verr.Fields
		}
	case ledger.CodeNotFound:
		status = http.StatusNotFound
	case ledger.CodeInvalidStage:
		status = http.StatusConflict
	case ledger.CodeUnavailable:
		status = http.StatusServiceUnavailable
	default:
		status = http.StatusInternalServerError
		resp.Error = "internal error"
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error(op+" failed", zap.Error(err))
	} else {
		h.logger.Info(op+" rejected", zap.String("code", code), zap.Error(err))
	}

	c.JSON(status, resp)
}
