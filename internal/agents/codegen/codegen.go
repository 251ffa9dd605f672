// Package codegen issues the short public codes that identify agents on
// referral links and marketing material.
package codegen

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"
)

const (
	codePrefix   = "AGT"
	codeAttempts = 100
	codeMin      = 1000
	codeSpan     = 9000
)

// CodeChecker reports whether an agent code is already taken.
type CodeChecker interface {
	CodeExists(ctx context.Context, code string) (bool, error)
}

// Generator produces unused agent codes of the form AGT followed by four
// digits.
type Generator struct {
	checker CodeChecker
	randInt func(n int) int
	now     func() time.Time
}

// New creates a generator backed by the given uniqueness checker.
func New(checker CodeChecker) *Generator {
	return &Generator{
		checker: checker,
		randInt: rand.IntN,
		now:     time.Now,
	}
}

// NextCode returns an agent code not currently in use. Random candidates in
// the 1000-9999 range are tried against the checker; once the attempt
// budget is exhausted the code is derived from the current epoch second
// instead and returned without a further check, so code assignment never
// fails outright on a crowded code space.
func (g *Generator) NextCode(ctx context.Context) (string, error) {
	for i := 0; i < codeAttempts; i++ {
		code := fmt.Sprintf("%s%d", codePrefix, codeMin+g.randInt(codeSpan))
		exists, err := g.checker.CodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("check agent code: %w", err)
		}
		if !exists {
			return code, nil
		}
	}
	return fmt.Sprintf("%s%04d", codePrefix, g.now().Unix()%10000), nil
}
