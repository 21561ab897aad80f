package ledger

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/krishichain/internal/domain/models"
)

// maxCodeAttempts bounds collision retries when issuing a code.
const maxCodeAttempts = 32

// Service is the produce ledger contract shared by the local ledger and the
// remote API client.
type Service interface {
	Create(ctx context.Context, origin models.OriginFacts) (string, error)
	TransitionToDistribution(ctx context.Context, code string, facts models.DistributionFacts) (string, error)
	TransitionToRetail(ctx context.Context, code string, facts models.RetailFacts) (string, error)
	MarkVerified(ctx context.Context, code string) error
	Lookup(ctx context.Context, code string) (models.ProduceRecord, error)
	ListByStage(ctx context.Context, stage models.Stage) ([]models.ProduceRecord, error)
	Trace(ctx context.Context, code string) (models.ProduceRecord, error)
	Snapshot(ctx context.Context) ([]models.ProduceRecord, error)
}

// Store persists the whole record collection as one unit. Load returns a
// private copy; Save writes everything or nothing.
type Store interface {
	Load(ctx context.Context) ([]models.ProduceRecord, error)
	Save(ctx context.Context, records []models.ProduceRecord) error
}

// Ledger is the Store-backed implementation of Service.
type Ledger struct {
	store  Store
	codes  CodeGenerator
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
	mu     sync.Mutex
}

// Option customises a Ledger.
type Option func(*Ledger)

// WithCodeGenerator replaces the default random code generator.
func WithCodeGenerator(gen CodeGenerator) Option {
	return func(l *Ledger) {
		if gen != nil {
			l.codes = gen
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

// New builds a ledger over store.
func New(store Store, logger *zap.Logger, opts ...Option) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Ledger{
		store:  store,
		codes:  RandomCodeGenerator{},
		logger: logger,
		now:    time.Now,
		newID:  func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

var _ Service = (*Ledger)(nil)

// Create registers new produce at the created stage and returns its code.
func (l *Ledger) Create(ctx context.Context, origin models.OriginFacts) (string, error) {
	origin.Normalize()
	if err := validateFacts(origin); err != nil {
		return "", err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.load(ctx)
	if err != nil {
		return "", err
	}

	code, err := l.issueCode(records, models.StageCreated)
	if err != nil {
		return "", err
	}

	now := l.now().UTC()
	record := models.ProduceRecord{
		ID:        l.newID(),
		Code:      code,
		Stage:     models.StageCreated,
		Origin:    origin,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := l.save(ctx, append(records, record)); err != nil {
		return "", err
	}

	l.logger.Info("produce registered",
		zap.String("code", code),
		zap.String("product", origin.ProductName),
		zap.String("farmer", origin.FarmerName))
	return code, nil
}

// TransitionToDistribution moves a created record to distributed under a new code.
// A code the record has already retired fails with ErrInvalidStage, not ErrNotFound.
func (l *Ledger) TransitionToDistribution(ctx context.Context, code string, facts models.DistributionFacts) (string, error) {
	facts.Normalize()
	return l.transition(ctx, code, models.StageCreated, func() error {
		return validateFacts(facts)
	}, func(r *models.ProduceRecord) {
		r.Distribution = &facts
	})
}

// TransitionToRetail moves a distributed record to retailed under a new code.
// Retired codes fail with ErrInvalidStage, as in TransitionToDistribution.
func (l *Ledger) TransitionToRetail(ctx context.Context, code string, facts models.RetailFacts) (string, error) {
	facts.Normalize()
	return l.transition(ctx, code, models.StageDistributed, func() error {
		return validateFacts(facts)
	}, func(r *models.ProduceRecord) {
		r.Retail = &facts
	})
}

// MarkVerified advances a retailed record to verified. The code is kept.
func (l *Ledger) MarkVerified(ctx context.Context, code string) error {
	code = strings.TrimSpace(code)

	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.load(ctx)
	if err != nil {
		return err
	}

	idx := indexOfActive(records, code)
	if idx < 0 {
		return unresolved(records, code, models.StageRetailed)
	}
	if records[idx].Stage != models.StageRetailed {
		return &StageError{Code: code, Actual: string(records[idx].Stage), Required: string(models.StageRetailed)}
	}

	now := l.now().UTC()
	updated := records[idx].Clone()
	updated.Stage = models.StageVerified
	updated.UpdatedAt = now
	updated.VerifiedAt = &now
	records[idx] = updated

	if err := l.save(ctx, records); err != nil {
		return err
	}

	l.logger.Info("produce verified", zap.String("code", code))
	return nil
}

// Lookup resolves an active code.
func (l *Ledger) Lookup(ctx context.Context, code string) (models.ProduceRecord, error) {
	code = strings.TrimSpace(code)

	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.load(ctx)
	if err != nil {
		return models.ProduceRecord{}, err
	}

	idx := indexOfActive(records, code)
	if idx < 0 {
		return models.ProduceRecord{}, notFound(code)
	}
	return records[idx].Clone(), nil
}

// Trace resolves an active or retired code to the record's current state.
func (l *Ledger) Trace(ctx context.Context, code string) (models.ProduceRecord, error) {
	code = strings.TrimSpace(code)

	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.load(ctx)
	if err != nil {
		return models.ProduceRecord{}, err
	}

	for _, r := range records {
		if code != "" && r.HasCode(code) {
			return r.Clone(), nil
		}
	}
	return models.ProduceRecord{}, notFound(code)
}

// ListByStage returns records currently at stage in creation order.
func (l *Ledger) ListByStage(ctx context.Context, stage models.Stage) ([]models.ProduceRecord, error) {
	if !stage.Valid() {
		return nil, &ValidationError{Fields: []FieldError{{
			Field:   "stage",
			Tag:     "oneof",
			Message: fmt.Sprintf("stage %q is not one of created, distributed, retailed, verified", stage),
		}}}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.load(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]models.ProduceRecord, 0)
	for _, r := range records {
		if r.Stage == stage {
			out = append(out, r.Clone())
		}
	}
	return out, nil
}

// Snapshot returns every record, at any stage, from a single read of the store.
func (l *Ledger) Snapshot(ctx context.Context) ([]models.ProduceRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.load(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]models.ProduceRecord, 0, len(records))
	for _, r := range records {
		out = append(out, r.Clone())
	}
	return out, nil
}

func (l *Ledger) transition(ctx context.Context, code string, required models.Stage, check func() error, attach func(*models.ProduceRecord)) (string, error) {
	code = strings.TrimSpace(code)
	next, _ := required.Next()

	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.load(ctx)
	if err != nil {
		return "", err
	}

	idx := indexOfActive(records, code)
	if idx < 0 {
		return "", unresolved(records, code, required)
	}
	if records[idx].Stage != required {
		return "", &StageError{Code: code, Actual: string(records[idx].Stage), Required: string(required)}
	}
	if err := check(); err != nil {
		return "", err
	}

	newCode, err := l.issueCode(records, next)
	if err != nil {
		return "", err
	}

	updated := records[idx].Clone()
	updated.PreviousCodes = append(updated.PreviousCodes, updated.Code)
	updated.Code = newCode
	updated.Stage = next
	updated.UpdatedAt = l.now().UTC()
	attach(&updated)
	records[idx] = updated

	if err := l.save(ctx, records); err != nil {
		return "", err
	}

	l.logger.Info("produce transitioned",
		zap.String("code", code),
		zap.String("new_code", newCode),
		zap.String("stage", string(next)))
	return newCode, nil
}

// issueCode returns a code unused by any record, active or retired.
func (l *Ledger) issueCode(records []models.ProduceRecord, stage models.Stage) (string, error) {
	used := make(map[string]struct{}, len(records)*2)
	for _, r := range records {
		used[r.Code] = struct{}{}
		for _, prev := range r.PreviousCodes {
			used[prev] = struct{}{}
		}
	}

	prefix := stage.CodePrefix()
	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		candidate := l.codes.Generate(prefix)
		if candidate == "" {
			continue
		}
		if _, taken := used[candidate]; !taken {
			return candidate, nil
		}
		l.logger.Debug("code collision, retrying", zap.String("code", candidate), zap.Int("attempt", attempt))
	}
	return "", fmt.Errorf("%w after %d attempts", ErrCodeExhausted, maxCodeAttempts)
}

func (l *Ledger) load(ctx context.Context) ([]models.ProduceRecord, error) {
	records, err := l.store.Load(ctx)
	if err != nil {
		l.logger.Error("ledger load failed", zap.Error(err))
		return nil, unavailable("load", err)
	}
	return records, nil
}

func (l *Ledger) save(ctx context.Context, records []models.ProduceRecord) error {
	if err := l.store.Save(ctx, records); err != nil {
		l.logger.Error("ledger save failed", zap.Error(err))
		return unavailable("save", err)
	}
	return nil
}

func indexOfActive(records []models.ProduceRecord, code string) int {
	if code == "" {
		return -1
	}
	for i := range records {
		if records[i].Code == code {
			return i
		}
	}
	return -1
}

// unresolved explains why code has no active record: a retired code belongs
// to a record that already moved on, anything else is unknown.
func unresolved(records []models.ProduceRecord, code string, required models.Stage) error {
	if code != "" {
		for _, r := range records {
			if r.HasCode(code) {
				return &StageError{Code: code, Actual: string(r.Stage), Required: string(required)}
			}
		}
	}
	return notFound(code)
}
