package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	negotiableMarkers = []string{"thoa thuan", "thuong luong", "canh tranh"}
	noExpMarkers      = []string{"khong yeu cau", "khong can kinh nghiem"}
	separatorRun      = regexp.MustCompile(`(?:\s*[/,]\s*)+`)
)

const (
	millionMarker = "trieu"
	usdMarker     = "usd"
	// USDToMillionVND converts a USD amount to million VND.
	USDToMillionVND = 0.026
)

// ParseSalary turns free salary text into million VND. Negotiable and blank
// inputs are nil without error; text that leaves an unusable number is nil
// with an error.
func ParseSalary(text string) (*float64, error) {
	folded := Fold(strings.TrimSpace(text))
	if folded == "" || containsAny(folded, negotiableMarkers) {
		return nil, nil
	}
	v, ok, err := rangeValue(folded)
	if err != nil || !ok {
		return nil, err
	}
	switch {
	case strings.Contains(folded, millionMarker):
	case strings.Contains(folded, usdMarker):
		v *= USDToMillionVND
	}
	return &v, nil
}

// ParseExp turns experience text into years.
func ParseExp(text string) (*float64, error) {
	folded := Fold(strings.TrimSpace(text))
	if folded == "" {
		return nil, nil
	}
	if containsAny(folded, noExpMarkers) {
		v := 0.0
		return &v, nil
	}
	v, ok, err := rangeValue(folded)
	if err != nil || !ok {
		return nil, err
	}
	return &v, nil
}

// rangeValue keeps digits, dots and hyphens, then reads a single number or
// averages an a-b range. ok is false when nothing numeric is left.
func rangeValue(folded string) (v float64, ok bool, err error) {
	num := numericChars(folded)
	if num == "" {
		return 0, false, nil
	}
	if !strings.Contains(num, "-") {
		v, err = strconv.ParseFloat(num, 64)
		if err != nil {
			return 0, false, fmt.Errorf("number %q: %w", num, err)
		}
		return v, true, nil
	}
	parts := strings.Split(num, "-")
	if len(parts) != 2 {
		return 0, false, fmt.Errorf("range %q has %d parts", num, len(parts))
	}
	a, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, false, fmt.Errorf("range start %q: %w", parts[0], err)
	}
	b, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return 0, false, fmt.Errorf("range end %q: %w", parts[1], err)
	}
	return (a + b) / 2, true, nil
}

func numericChars(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// Location keeps the part before the first "&", or failing that before the
// first ",".
func Location(text string) *string {
	s := strings.TrimSpace(text)
	if i := strings.Index(s, "&"); i >= 0 {
		s = strings.TrimSpace(s[:i])
	} else if i := strings.Index(s, ","); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	if s == "" {
		return nil
	}
	return &s
}

// Category normalizes level and industry text: every run of "/" or ","
// with its surrounding whitespace becomes a single "/".
func Category(text *string) *string {
	if text == nil {
		return nil
	}
	s := strings.TrimSpace(*text)
	if s == "" {
		return nil
	}
	s = separatorRun.ReplaceAllString(s, "/")
	return &s
}
