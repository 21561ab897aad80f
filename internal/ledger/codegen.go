package ledger

import (
	"strings"

	"github.com/google/uuid"
)

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 6
)

// CodeGenerator issues short tokens for a stage prefix. Uniqueness is checked
// by the ledger, which retries on collision.
type CodeGenerator interface {
	Generate(prefix string) string
}

// CodeGeneratorFunc adapts a function to CodeGenerator.
type CodeGeneratorFunc func(prefix string) string

// Generate calls f.
func (f CodeGeneratorFunc) Generate(prefix string) string {
	return f(prefix)
}

// RandomCodeGenerator draws codes like FARM-A1B2C3 from random UUID bytes.
type RandomCodeGenerator struct{}

// Generate returns prefix + "-" + six characters of A-Z0-9.
func (RandomCodeGenerator) Generate(prefix string) string {
	id := uuid.New()

	var b strings.Builder
	b.Grow(len(prefix) + 1 + codeLength)
	b.WriteString(prefix)
	b.WriteByte('-')
	for i := 0; i < codeLength; i++ {
		b.WriteByte(codeAlphabet[int(id[i])%len(codeAlphabet)])
	}
	return b.String()
}
