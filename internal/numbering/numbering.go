// Package numbering derives sequential display numbers for tickets.
// Numbers are a one-letter category prefix followed by a zero-padded
// decimal sequence: V01, V02, ..., V99, V100. The padding is a minimum
// of two digits; past 99 the suffix simply widens, so numbers stay
// parseable and strictly increasing.
package numbering

import (
	"fmt"
	"strconv"

	"github.com/MacroHEX/auditoria-informatica/internal/models"
)

var prefixes = map[string]string{
	models.CategoryCounter:  "V",
	models.CategoryCashier:  "C",
	models.CategoryAdvisory: "A",
}

func Prefix(category string) (string, bool) {
	prefix, ok := prefixes[category]
	return prefix, ok
}

// Format renders the display number for the given sequence value.
func Format(category string, seq int64) (string, error) {
	prefix, ok := prefixes[category]
	if !ok {
		return "", fmt.Errorf("unknown category %q", category)
	}
	if seq < 1 {
		return "", fmt.Errorf("sequence must be positive, got %d", seq)
	}
	return fmt.Sprintf("%s%02d", prefix, seq), nil
}

// Next computes the number that follows lastNumber within a category.
// An empty lastNumber starts the category at 1. The function has no
// side effects; callers own whatever locking makes the read-then-write
// around it atomic.
func Next(category, lastNumber string) (string, error) {
	prefix, ok := prefixes[category]
	if !ok {
		return "", fmt.Errorf("unknown category %q", category)
	}
	if lastNumber == "" {
		return Format(category, 1)
	}
	if len(lastNumber) < 2 || lastNumber[:1] != prefix {
		return "", fmt.Errorf("number %q does not belong to category %q", lastNumber, category)
	}
	last, err := strconv.ParseInt(lastNumber[1:], 10, 64)
	if err != nil {
		return "", fmt.Errorf("parse number %q: %w", lastNumber, err)
	}
	return Format(category, last+1)
}
