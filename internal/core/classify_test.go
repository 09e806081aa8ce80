package core

import (
	"math"
	"testing"
)

// ----------------------------------------------------------------------------
// IsMissing Tests
// ----------------------------------------------------------------------------

func TestIsMissing(t *testing.T) {
	tests := []struct {
		name string
		cell Cell
		want bool
	}{
		{"missing cell", MissingCell(), true},
		{"empty string", TextCell(""), true},
		{"whitespace", TextCell("   "), true},
		{"NaN", TextCell("NaN"), true},
		{"nan lowercase", TextCell("nan"), true},
		{"None", TextCell("None"), true},
		{"N/A", TextCell("N/A"), true},
		{"n/a lowercase", TextCell("n/a"), true},
		{"null", TextCell("null"), true},
		{"NULL padded", TextCell("  NULL "), true},
		{"native NaN", NumberCell(math.NaN()), true},
		{"zero string", TextCell("0"), false},
		{"zero number", NumberCell(0), false},
		{"word", TextCell("nothing"), false},
		{"complex zero", ComplexCell(0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsMissing(tt.cell); got != tt.want {
				t.Errorf("IsMissing(%q) = %v, want %v", tt.cell.String(), got, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// LooksBoolean Tests
// ----------------------------------------------------------------------------

func TestLooksBoolean(t *testing.T) {
	tests := []struct {
		name      string
		cell      Cell
		wantValue bool
		wantKnown bool
	}{
		{"true", TextCell("true"), true, true},
		{"TRUE", TextCell("TRUE"), true, true},
		{"one", TextCell("1"), true, true},
		{"yes", TextCell("Yes"), true, true},
		{"t", TextCell("t"), true, true},
		{"on", TextCell(" on "), true, true},
		{"false", TextCell("false"), false, true},
		{"zero", TextCell("0"), false, true},
		{"no", TextCell("NO"), false, true},
		{"f", TextCell("F"), false, true},
		{"off", TextCell("off"), false, true},
		{"native one", NumberCell(1), true, true},
		{"native zero", NumberCell(0), false, true},
		{"native two", NumberCell(2), false, false},
		{"maybe", TextCell("maybe"), false, false},
		{"missing", MissingCell(), false, false},
		{"empty", TextCell(""), false, false},
		{"complex", ComplexCell(1), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, known := LooksBoolean(tt.cell)
			if known != tt.wantKnown {
				t.Fatalf("LooksBoolean(%q) known = %v, want %v", tt.cell.String(), known, tt.wantKnown)
			}
			if value != tt.wantValue {
				t.Errorf("LooksBoolean(%q) value = %v, want %v", tt.cell.String(), value, tt.wantValue)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// LooksComplex Tests
// ----------------------------------------------------------------------------

func TestLooksComplex(t *testing.T) {
	tests := []struct {
		name string
		cell Cell
		want bool
	}{
		{"a+bj", TextCell("3+4j"), true},
		{"a-bj", TextCell("1-2j"), true},
		{"signed real", TextCell("-1.5+2j"), true},
		{"imaginary only", TextCell("2j"), true},
		{"negative unit", TextCell("-1j"), true},
		{"sign without digits", TextCell("-j"), false},
		{"uppercase J", TextCell("3+4J"), true},
		{"parenthesised", TextCell("(1+2j)"), true},
		{"native", ComplexCell(complex(1, 2)), true},
		{"internal spaces", TextCell("3 + 4j"), false},
		{"plain number", TextCell("42"), false},
		{"bare j", TextCell("j"), false},
		{"word ending in j", TextCell("haj"), false},
		{"native number", NumberCell(3), false},
		{"missing", MissingCell(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LooksComplex(tt.cell); got != tt.want {
				t.Errorf("LooksComplex(%q) = %v, want %v", tt.cell.String(), got, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// LooksNumeric / LooksCurrency Tests
// ----------------------------------------------------------------------------

func TestLooksNumeric(t *testing.T) {
	tests := []struct {
		name string
		cell Cell
		want bool
	}{
		{"integer", TextCell("42"), true},
		{"negative", TextCell("-3"), true},
		{"plus sign", TextCell("+7"), true},
		{"decimal", TextCell("2.50"), true},
		{"thousands", TextCell("1,000"), true},
		{"thousands decimal", TextCell("2,500.50"), true},
		{"percent", TextCell("45%"), true},
		{"padded", TextCell("  12  "), true},
		{"native", NumberCell(1.5), true},
		{"two points", TextCell("1.2.3"), false},
		{"word", TextCell("abc"), false},
		{"currency code", TextCell("EUR 40.00"), false},
		{"complex", ComplexCell(1), false},
		{"missing", MissingCell(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LooksNumeric(tt.cell); got != tt.want {
				t.Errorf("LooksNumeric(%q) = %v, want %v", tt.cell.String(), got, tt.want)
			}
		})
	}
}

func TestLooksCurrency(t *testing.T) {
	tests := []struct {
		name string
		cell Cell
		want bool
	}{
		{"code and amount", TextCell("EUR 40.00"), true},
		{"lowercase code", TextCell("usd 12"), true},
		{"code with thousands", TextCell("GBP 1,200.00"), true},
		{"plain number", TextCell("40"), true},
		{"no space", TextCell("EUR40"), false},
		{"four letter code", TextCell("EURO 40"), false},
		{"code only", TextCell("EUR"), false},
		{"two spaces", TextCell("EUR  40"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LooksCurrency(tt.cell); got != tt.want {
				t.Errorf("LooksCurrency(%q) = %v, want %v", tt.cell.String(), got, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// LooksTimeDuration Tests
// ----------------------------------------------------------------------------

func TestLooksTimeDuration(t *testing.T) {
	tests := []struct {
		name string
		cell Cell
		want bool
	}{
		{"days", TextCell("5 days"), true},
		{"single week", TextCell("1 week"), true},
		{"mixed case", TextCell("3 Hours"), true},
		{"compound", TextCell("2 weeks 3 days"), true},
		{"fractional", TextCell("1.5 hours"), true},
		{"negative", TextCell("-3 days"), true},
		{"glued to word", TextCell("abc5 days"), false},
		{"range", TextCell("1-3 days"), false},
		{"embedded", TextCell("about 10 minutes later"), true},
		{"year", TextCell("1 year"), true},
		{"unit without number", TextCell("days"), false},
		{"unknown unit", TextCell("5 parsecs"), false},
		{"glued suffix", TextCell("10 dayz"), false},
		{"native number", NumberCell(5), false},
		{"missing", MissingCell(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LooksTimeDuration(tt.cell); got != tt.want {
				t.Errorf("LooksTimeDuration(%q) = %v, want %v", tt.cell.String(), got, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// LooksDate Tests
// ----------------------------------------------------------------------------

func TestLooksDate(t *testing.T) {
	tests := []struct {
		name string
		cell Cell
		want bool
	}{
		{"iso", TextCell("2024-01-01"), true},
		{"us slashes", TextCell("01/15/2024"), true},
		{"long month", TextCell("October 7, 1970"), true},
		{"timestamp", TextCell("2024-01-15 10:30:00"), true},
		{"pure integer", TextCell("20240101"), false},
		{"negative integer", TextCell("-2024"), false},
		{"pure decimal", TextCell("12.5"), false},
		{"words", TextCell("not a date"), false},
		{"year below range", TextCell("0999-01-01"), false},
		{"native number", NumberCell(20240101), false},
		{"missing", TextCell("N/A"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LooksDate(tt.cell); got != tt.want {
				t.Errorf("LooksDate(%q) = %v, want %v", tt.cell.String(), got, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// parseComplex / formatComplex Tests
// ----------------------------------------------------------------------------

func TestParseComplex(t *testing.T) {
	tests := []struct {
		input  string
		want   complex128
		wantOK bool
	}{
		{"3+4j", complex(3, 4), true},
		{"1-2j", complex(1, -2), true},
		{"-1.5-0.5j", complex(-1.5, -0.5), true},
		{"2j", complex(0, 2), true},
		{"+1j", complex(0, 1), true},
		{"+j", 0, false},
		{"5+j", 0, false},
		{"(0+1j)", complex(0, 1), true},
		{"3+4", 0, false},
		{"a+bj", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := parseComplex(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("parseComplex(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("parseComplex(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatComplex_RoundTrip(t *testing.T) {
	values := []complex128{complex(3, 4), complex(1, -2), complex(0, 1), complex(-2.5, 0)}
	for _, want := range values {
		s := formatComplex(want)
		got, ok := parseComplex(s)
		if !ok || got != want {
			t.Errorf("parseComplex(formatComplex(%v)) = %v, %v; text %q", want, got, ok, s)
		}
	}

	if got := formatComplex(complex(1, -2)); got != "1-2j" {
		t.Errorf("formatComplex(1-2i) = %q, want %q", got, "1-2j")
	}
}
