package service

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"coffee-menu/internal/domain"
)

// ParsePrice coerces submitted price text to a float. Leading whitespace is
// skipped and the longest numeric prefix is parsed, so "4" is 4.0 and
// "2.75 EUR" is 2.75. Text without a numeric prefix, including "", is NaN.
// A prefix that overflows to infinity is ErrInvalidPrice.
func ParsePrice(text string) (float64, error) {
	s := strings.TrimLeftFunc(text, unicode.IsSpace)

	sign := ""
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		sign, s = s[:1], s[1:]
	}

	end := numericPrefixLen(s)
	if end == 0 {
		return math.NaN(), nil
	}

	price, err := strconv.ParseFloat(sign+s[:end], 64)
	if err != nil || math.IsInf(price, 0) {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidPrice, text)
	}
	return price, nil
}

// numericPrefixLen returns the length of the decimal literal at the start of
// s, or 0 when there is none.
func numericPrefixLen(s string) int {
	i := 0
	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		j := i + 1
		frac := 0
		for j < len(s) && isDigit(s[j]) {
			j++
			frac++
		}
		if digits > 0 || frac > 0 {
			i = j
			digits += frac
		}
	}
	if digits == 0 {
		return 0
	}

	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		exp := 0
		for j < len(s) && isDigit(s[j]) {
			j++
			exp++
		}
		if exp > 0 {
			i = j
		}
	}
	return i
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
