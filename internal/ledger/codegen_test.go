package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRandomCodeGeneratorFormat(t *testing.T) {
	gen := RandomCodeGenerator{}
	for _, prefix := range []string{"FARM", "DIST", "RETL"} {
		code := gen.Generate(prefix)
		assert.Regexp(t, `^`+prefix+`-[A-Z0-9]{6}$`, code)
	}
}

func TestRandomCodeGeneratorSpread(t *testing.T) {
	gen := RandomCodeGenerator{}
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		seen[gen.Generate("FARM")] = struct{}{}
	}
	// 36^6 possible tokens; a handful of duplicates in 1000 draws would mean a broken source.
	assert.Greater(t, len(seen), 990)
}

func TestToSnake(t *testing.T) {
	assert.Equal(t, "product_name", toSnake("ProductName"))
	assert.Equal(t, "quality_rating", toSnake("QualityRating"))
	assert.Equal(t, "unit", toSnake("Unit"))
}

func TestErrorCodeRoundTrip(t *testing.T) {
	for _, sentinel := range []error{ErrNotFound, ErrInvalidStage, ErrBackendUnavailable, ErrValidation} {
		code := ErrorCode(sentinel)
		rebuilt := FromCode(code, sentinel.Error()+": FARM-ABC123", nil)
		assert.ErrorIs(t, rebuilt, sentinel)
	}

	assert.Equal(t, CodeInternal, ErrorCode(ErrCodeExhausted))

	rebuilt := FromCode(CodeNotFound, "record not found: FARM-ABC123", nil)
	assert.Equal(t, "record not found: FARM-ABC123", rebuilt.Error())
}
