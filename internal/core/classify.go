package core

// classify.go holds the per-cell predicates used by the inferrer and the
// converter. Every predicate looks at a single cell, never mutates it and
// never panics; column-level decisions are made by combining them with
// allCells / anyCell in infer.go.

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

var (
	// numberPattern: optional sign, digits, optional fraction.
	numberPattern = regexp.MustCompile(`^[+-]?\d+(\.\d+)?$`)

	// currencyPattern: three-letter code, one space, amount ("EUR 40.00").
	currencyPattern = regexp.MustCompile(`^[A-Za-z]{3} [+-]?\d+(\.\d+)?$`)

	// complexPartPattern validates each half of an a+bj literal.
	complexPartPattern = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)

	// durationPattern matches "<n> <unit>" tokens; group 2 is the signed
	// amount, group 3 the unit. The amount must start a word and may not
	// follow a sign or a dot.
	durationPattern = regexp.MustCompile(`(?i)(^|[^\w.+-])([+-]?\d+(?:\.\d+)?)\s*(year|month|week|day|hour|minute|second)s?\b`)

	// notDatePatterns are strings dateparse would accept but which are numbers.
	notDatePatterns = []*regexp.Regexp{
		regexp.MustCompile(`^\d+$`),
		regexp.MustCompile(`^-?\d+(\.\d+)?$`),
	}
)

// missingTokens are the textual forms of "no value", compared lowercased and trimmed.
var missingTokens = map[string]bool{
	"":     true,
	"nan":  true,
	"none": true,
	"n/a":  true,
	"null": true,
}

var (
	trueTokens  = map[string]bool{"true": true, "1": true, "yes": true, "t": true, "on": true}
	falseTokens = map[string]bool{"false": true, "0": true, "no": true, "f": true, "off": true}
)

// Earliest and latest calendar years accepted by LooksDate.
const (
	minDateYear = 1000
	maxDateYear = 9999
)

// IsMissing reports whether c is the missing marker or one of its source forms.
func IsMissing(c Cell) bool {
	switch c.kind {
	case CellMissing:
		return true
	case CellString:
		return missingTokens[strings.ToLower(strings.TrimSpace(c.str))]
	default:
		return false
	}
}

// LooksBoolean maps c onto a boolean token. known is false when c is not a
// recognised token, which is distinct from a known false.
func LooksBoolean(c Cell) (value, known bool) {
	if IsMissing(c) || c.kind == CellComplex {
		return false, false
	}
	tok := strings.ToLower(strings.TrimSpace(c.String()))
	switch {
	case trueTokens[tok]:
		return true, true
	case falseTokens[tok]:
		return false, true
	default:
		return false, false
	}
}

// LooksComplex reports whether c is a native complex value or an "a+bj" literal.
func LooksComplex(c Cell) bool {
	switch c.kind {
	case CellComplex:
		return true
	case CellString:
		_, ok := parseComplex(c.str)
		return ok
	default:
		return false
	}
}

// LooksNumeric reports whether c is a native number or a string that reads as
// one once thousands separators, surrounding space and a trailing % are removed.
func LooksNumeric(c Cell) bool {
	switch c.kind {
	case CellNumber:
		return true
	case CellString:
		s := strings.TrimSpace(strings.ReplaceAll(c.str, ",", ""))
		s = strings.TrimSuffix(s, "%")
		return numberPattern.MatchString(s)
	default:
		return false
	}
}

// LooksCurrency reports whether c is numeric or a "CCC amount" string.
func LooksCurrency(c Cell) bool {
	if LooksNumeric(c) {
		return true
	}
	if c.kind != CellString {
		return false
	}
	return currencyPattern.MatchString(strings.ReplaceAll(strings.TrimSpace(c.str), ",", ""))
}

// LooksTimeDuration reports whether c contains at least one "<n> <unit>" token.
func LooksTimeDuration(c Cell) bool {
	if c.kind != CellString {
		return false
	}
	return durationPattern.MatchString(c.str)
}

// LooksDate reports whether c parses as a calendar date with a four-digit year.
// Pure integers and decimals are never dates.
func LooksDate(c Cell) bool {
	if c.kind != CellString || IsMissing(c) {
		return false
	}
	s := strings.TrimSpace(c.str)
	for _, p := range notDatePatterns {
		if p.MatchString(s) {
			return false
		}
	}
	t, ok := parseAnyDate(s)
	if !ok {
		return false
	}
	return t.Year() >= minDateYear && t.Year() <= maxDateYear
}

// parseAnyDate is the permissive, non-fuzzy general parser. Times are read as UTC.
func parseAnyDate(s string) (t time.Time, ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

// parseComplex reads "a+bj", "bj" and the parenthesised "(a+bj)" form.
// The imaginary part needs digits before j. Internal spaces are not allowed.
func parseComplex(s string) (complex128, bool) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = s[1 : len(s)-1]
	}
	if len(s) < 2 || (s[len(s)-1] != 'j' && s[len(s)-1] != 'J') {
		return 0, false
	}
	body := s[:len(s)-1]

	realPart, imagPart := "", body
	if i := strings.LastIndexAny(body, "+-"); i > 0 {
		realPart, imagPart = body[:i], body[i:]
	}

	var re, im float64
	if realPart != "" {
		if !complexPartPattern.MatchString(realPart) {
			return 0, false
		}
		re, _ = strconv.ParseFloat(realPart, 64)
	}
	if !complexPartPattern.MatchString(imagPart) {
		return 0, false
	}
	im, _ = strconv.ParseFloat(imagPart, 64)
	return complex(re, im), true
}

// formatComplex renders c as "a+bj", the form parseComplex reads back.
func formatComplex(c complex128) string {
	re := strconv.FormatFloat(real(c), 'f', -1, 64)
	im := strconv.FormatFloat(imag(c), 'f', -1, 64)
	if !strings.HasPrefix(im, "-") {
		im = "+" + im
	}
	return re + im + "j"
}
