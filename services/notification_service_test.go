package services

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncateKeepsRuneBoundaries(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 120))

	long := strings.Repeat("箱", 130)
	got := truncate(long, 120)
	assert.True(t, utf8.ValidString(got))
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, 123, utf8.RuneCountInString(got))

	// 200 bytes but only 100 runes; byte length must not trigger the cut
	wide := strings.Repeat("ü", 100)
	assert.Equal(t, wide, truncate(wide, 120))
}
