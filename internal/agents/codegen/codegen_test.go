package codegen

import (
	"context"
	"regexp"
	"strconv"
	"testing"
	"time"
)

type codeSet map[string]bool

func (s codeSet) CodeExists(_ context.Context, code string) (bool, error) {
	return s[code], nil
}

func TestNextCodeFormat(t *testing.T) {
	gen := New(codeSet{})
	pattern := regexp.MustCompile(`^AGT\d{4}$`)

	for i := 0; i < 1000; i++ {
		code, err := gen.NextCode(context.Background())
		if err != nil {
			t.Fatalf("NextCode returned error: %v", err)
		}
		if !pattern.MatchString(code) {
			t.Fatalf("code %q does not match AGT + four digits", code)
		}
		n, err := strconv.Atoi(code[3:])
		if err != nil {
			t.Fatalf("code %q has non-numeric suffix", code)
		}
		if n < 1000 || n > 9999 {
			t.Fatalf("code %q outside the 1000-9999 range", code)
		}
	}
}

func TestNextCodeSkipsTakenCodes(t *testing.T) {
	taken := codeSet{"AGT1000": true, "AGT1001": true}
	gen := New(taken)
	// Force deterministic candidates: the first two collide, the third is free.
	seq := []int{0, 1, 2}
	gen.randInt = func(int) int {
		n := seq[0]
		seq = seq[1:]
		return n
	}

	code, err := gen.NextCode(context.Background())
	if err != nil {
		t.Fatalf("NextCode returned error: %v", err)
	}
	if code != "AGT1002" {
		t.Fatalf("expected first free candidate AGT1002, got %q", code)
	}
}

func TestNextCodeFallsBackAfterExhaustion(t *testing.T) {
	// Every candidate reads as taken, so the generator must fall back.
	exhausted := codeSet{}
	gen := New(exhausted)
	gen.randInt = func(int) int { return 0 }
	exhausted["AGT1000"] = true
	gen.now = func() time.Time { return time.Unix(1_700_000_042, 0) }

	code, err := gen.NextCode(context.Background())
	if err != nil {
		t.Fatalf("NextCode returned error: %v", err)
	}
	if code != "AGT0042" {
		t.Fatalf("expected epoch fallback AGT0042, got %q", code)
	}
}
