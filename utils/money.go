package utils

import (
	"strconv"
	"strings"
)

// FormatRUB formats an amount in kopecks as a string like "1 234,56 ₽".
// Uses a space as thousands separator and a comma before the kopecks.
func FormatRUB(kopecks int64) string {
	neg := kopecks < 0
	if neg {
		kopecks = -kopecks
	}

	roubles := strconv.FormatInt(kopecks/100, 10)
	cents := kopecks % 100

	var b strings.Builder
	// Pre-allocate: digits + separators + ",00 ₽"
	b.Grow(len(roubles) + len(roubles)/3 + 8)
	if neg {
		b.WriteByte('-')
	}

	// Insert separators from the left.
	rem := len(roubles) % 3
	if rem == 0 {
		rem = 3
	}
	b.WriteString(roubles[:rem])
	for i := rem; i < len(roubles); i += 3 {
		b.WriteByte(' ')
		b.WriteString(roubles[i : i+3])
	}

	b.WriteByte(',')
	if cents < 10 {
		b.WriteByte('0')
	}
	b.WriteString(strconv.FormatInt(cents, 10))
	b.WriteString(" ₽")
	return b.String()
}
