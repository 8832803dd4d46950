package cli

import (
	"math"
	"strconv"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// For any finite value, FormatPercent ends in %, carries a + on positive
// values and parses back to the value rounded to 2 decimals.
func TestProperty_FormatPercent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("FormatPercent produces correct format", prop.ForAll(
		func(value float64) bool {
			formatted := FormatPercent(value)

			if !strings.HasSuffix(formatted, "%") {
				t.Logf("Expected %% suffix for %f, got %s", value, formatted)
				return false
			}
			if value > 0 && !strings.HasPrefix(formatted, "+") {
				t.Logf("Expected + prefix for positive %f, got %s", value, formatted)
				return false
			}

			parsed, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimPrefix(formatted, "+"), "%"), 64)
			if err != nil {
				t.Logf("Unparseable %s: %v", formatted, err)
				return false
			}
			return math.Abs(parsed-math.Round(value*100)/100) <= 0.005
		},
		gen.Float64Range(-1000, 1000),
	))

	properties.Property("FormatConfidence keeps one decimal", prop.ForAll(
		func(conf float64) bool {
			parts := strings.Split(FormatConfidence(conf), ".")
			return len(parts) == 2 && len(parts[1]) == 1
		},
		gen.Float64Range(0, 100),
	))

	properties.TestingRun(t)
}

// TruncateString never exceeds maxLen runes and leaves short strings alone.
func TestProperty_TruncateString(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("TruncateString bounds length", prop.ForAll(
		func(s string, maxLen int) bool {
			out := TruncateString(s, maxLen)
			n := utf8.RuneCountInString(out)
			if utf8.RuneCountInString(s) <= maxLen {
				return out == s
			}
			return n == maxLen
		},
		gen.AnyString(),
		gen.IntRange(0, 40),
	))

	properties.TestingRun(t)
}

// Painted text has the same visible width as the plain text.
func TestProperty_VisibleLen(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	colored := &Output{colorEnabled: true}
	properties.Property("visibleLen ignores color codes", prop.ForAll(
		func(s string) bool {
			return visibleLen(colored.Green(s)) == utf8.RuneCountInString(s) &&
				stripANSI(colored.GradeText("A+")+s) == "A+"+s
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

func TestFormatRatioExamples(t *testing.T) {
	testCases := []struct {
		ratio    float64
		expected string
	}{
		{math.Inf(1), "∞"},
		{0, "0.00"},
		{1.5, "1.50"},
		{2.0 / 3.0, "0.67"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			if result := FormatRatio(tc.ratio); result != tc.expected {
				t.Errorf("FormatRatio(%f) = %s, want %s", tc.ratio, result, tc.expected)
			}
		})
	}
}

func TestFormatExamples(t *testing.T) {
	pct := -1.234
	nan := math.NaN()
	testCases := []struct {
		name     string
		got      string
		expected string
	}{
		{"pct nil", FormatPctChange(nil), "N/A"},
		{"pct nan", FormatPctChange(&nan), "N/A"},
		{"pct value", FormatPctChange(&pct), "-1.23%"},
		{"percent zero", FormatPercent(0), "0.00%"},
		{"percent positive", FormatPercent(1.5), "+1.50%"},
		{"param nan", FormatParam(math.NaN()), "-"},
		{"param", FormatParam(3.30012), "3.300"},
		{"range", FormatRange(0, 38.5), "[0.000, 38.500]"},
		{"duration ms", FormatDuration(250 * time.Millisecond), "250ms"},
		{"duration s", FormatDuration(1500 * time.Millisecond), "1.5s"},
		{"duration m", FormatDuration(125 * time.Second), "2m 5s"},
		{"duration h", FormatDuration(90 * time.Minute), "1h 30m"},
		{"date zero", FormatDate(time.Time{}), "-"},
		{"date", FormatDate(time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC)), "28-Jun-2024"},
		{"pad", PadRight("ab", 4), "ab  "},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.got != tc.expected {
				t.Errorf("got %q, want %q", tc.got, tc.expected)
			}
		})
	}
}
