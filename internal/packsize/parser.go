package packsize

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// PackSize is the parsed form of a free-text pack-size string. Size and Unit
// may be empty when the input only carries an opaque configuration.
type PackSize struct {
	Size          *float64
	Unit          string
	Configuration string
}

// Shape patterns, tried in declaration order; first match wins.
var (
	// "500g + 2 wipes"
	reSizeUnitPlus = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*([a-z]+)\s*\+\s*(\d+(?:\.\d+)?)\s*([a-z]+)$`)
	// "3 + 1 tablets"
	reCountPlus = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*\+\s*(\d+(?:\.\d+)?)\s*([a-z]+)$`)
	// "250ml x 2" / "250ml x 2 bottles"
	reSizeUnitTimes = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*([a-z]+)\s*x\s*(\d+)(?:\s+([a-z]+))?$`)
	// "2 x 250ml" / "2 x 250ml bottles"
	reTimesSizeUnit = regexp.MustCompile(`^(\d+)\s*x\s*(\d+(?:\.\d+)?)\s*([a-z]+)(?:\s+([a-z]+))?$`)
	// "500g"
	reSizeUnit = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*([a-z]+)$`)
	// "pk 4"
	reUnitSize = regexp.MustCompile(`^([a-z]+)\s*(\d+(?:\.\d+)?)$`)
)

// Parse classifies a free-text pack-size string into one of the known shapes
// and extracts size, unit and configuration. It is total: text that matches
// no shape becomes an opaque configuration.
func Parse(text string) PackSize {
	s := strings.ToLower(strings.TrimSpace(text))
	if s == "" {
		return PackSize{}
	}

	if m := reSizeUnitPlus.FindStringSubmatch(s); m != nil {
		return PackSize{
			Size:          parseFloat(m[1]),
			Unit:          m[2],
			Configuration: m[3] + " " + m[4],
		}
	}
	if m := reCountPlus.FindStringSubmatch(s); m != nil {
		return PackSize{
			Size:          parseFloat(m[1]),
			Configuration: m[2] + " " + m[3],
		}
	}
	if m := reSizeUnitTimes.FindStringSubmatch(s); m != nil && m[2] != "x" {
		cfg := m[3]
		if m[4] != "" {
			cfg += " " + m[4]
		}
		return PackSize{Size: parseFloat(m[1]), Unit: m[2], Configuration: cfg}
	}
	if m := reTimesSizeUnit.FindStringSubmatch(s); m != nil {
		cfg := m[1]
		if m[4] != "" {
			cfg += " " + m[4]
		}
		return PackSize{Size: parseFloat(m[2]), Unit: m[3], Configuration: cfg}
	}
	if m := reSizeUnit.FindStringSubmatch(s); m != nil {
		return PackSize{Size: parseFloat(m[1]), Unit: m[2]}
	}
	if m := reUnitSize.FindStringSubmatch(s); m != nil {
		return PackSize{Size: parseFloat(m[2]), Unit: m[1]}
	}

	return PackSize{Configuration: s}
}

// A2C builds the canonical comparison string for the parsed pack size:
// configuration alone, "<size><unit>" alone, or "<size><unit> x <config>"
// when both are present. Empty when neither exists.
func (p PackSize) A2C() string {
	hasSize := p.Size != nil
	hasCfg := strings.TrimSpace(p.Configuration) != ""

	switch {
	case hasSize && hasCfg && p.Unit == "":
		// bonus-count shape ("3 + 1 tablets"): keep the additive form so the
		// canonical string re-parses to the same size
		return strings.ToLower(formatSize(*p.Size) + " + " + strings.TrimSpace(p.Configuration))
	case hasSize && hasCfg:
		return strings.ToLower(formatSize(*p.Size) + p.Unit + " x " + strings.TrimSpace(p.Configuration))
	case hasSize:
		return strings.ToLower(formatSize(*p.Size) + p.Unit)
	case hasCfg:
		return strings.ToLower(strings.TrimSpace(p.Configuration))
	default:
		return ""
	}
}

// Equivalent reports whether two pack-size strings describe the same
// quantity: their reduced numeric values are equal and fall in the same unit
// class. Symmetric by construction; unparseable input is never equivalent.
func Equivalent(a, b string) bool {
	va, ca, err := NumValue(a)
	if err != nil {
		return false
	}
	vb, cb, err := NumValue(b)
	if err != nil {
		return false
	}
	return ca == cb && math.Abs(va-vb) < 1e-9
}

func parseFloat(s string) *float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func formatSize(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
