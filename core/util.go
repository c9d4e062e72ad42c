package core

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// NowFunc is the clock used to stamp records. mockable
var NowFunc = func() time.Time { return time.Now().UTC() }

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// SameText compares two names case-insensitively, ignoring surrounding whitespace.
func SameText(a, b string) bool {
	return strings.EqualFold(CleanString(a), CleanString(b))
}

// NewID returns a new record id, e.g. `batch_4f5c...`.
func NewID(prefix string) string {
	return prefix + "_" + strings.ReplaceAll(uuid.New().String(), "-", "")
}
