// Package refgen issues human-readable lead reference numbers of the
// form PREFIX-YEAR-SEQUENCE, e.g. LI-2025-42.
package refgen

import (
	"context"
	"fmt"
	"strings"
	"unicode"
)

// fallbackPrefix is used when a sub-category name yields no initials.
const fallbackPrefix = "LD"

// YearCounter reports how many leads were created in a given year.
type YearCounter interface {
	CountLeadsInYear(ctx context.Context, year int) (int, error)
}

// CounterFunc adapts a plain function to the YearCounter interface, so a
// repository call bound to an open transaction can serve as the counter.
type CounterFunc func(ctx context.Context, year int) (int, error)

func (f CounterFunc) CountLeadsInYear(ctx context.Context, year int) (int, error) {
	return f(ctx, year)
}

// Prefix derives the reference prefix from a sub-category name: the
// upper-cased initials of its first two words. "Life Insurance" yields
// "LI", a single-word name yields a single initial.
func Prefix(subCategoryName string) string {
	words := strings.Fields(subCategoryName)
	if len(words) > 2 {
		words = words[:2]
	}

	var b strings.Builder
	for _, word := range words {
		for _, r := range word {
			b.WriteRune(unicode.ToUpper(r))
			break
		}
	}
	if b.Len() == 0 {
		return fallbackPrefix
	}
	return b.String()
}

// NextReference produces the reference number for the next lead in the
// given year: the year's current lead count plus one. The count is read
// and then used without coordination, so two creations racing in the
// same year can draw the same sequence; the unique constraint on the
// reference column rejects the loser.
func NextReference(ctx context.Context, counter YearCounter, subCategoryName string, year int) (string, error) {
	count, err := counter.CountLeadsInYear(ctx, year)
	if err != nil {
		return "", fmt.Errorf("count leads for year %d: %w", year, err)
	}
	return fmt.Sprintf("%s-%d-%d", Prefix(subCategoryName), year, count+1), nil
}
