package measure

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Calculator derives area and volume from article dimensions. Inputs come
// straight from spreadsheets and form posts, so every scalar is coerced
// leniently: both decimal separators are accepted and anything that cannot
// be read as a number counts as zero. The zero fallback is intentional --
// dirty import data must never fail a write -- but each fallback is
// reported on the logger so bad source columns stay visible to operators.
type Calculator struct {
	logger *zap.Logger
}

// NewCalculator constructs a Calculator. A nil logger disables diagnostics.
func NewCalculator(logger *zap.Logger) *Calculator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Calculator{logger: logger}
}

// Compute returns (area, volume) for the given dimensions and piece count,
// both rounded to 3 decimal places.
//
//	area   = pieces * length * width
//	volume = pieces * length * width * height
//
// Pieces defaults to 1 when absent, zero or non-numeric. Compute never
// fails; unreadable dimensions coerce to 0.
func (c *Calculator) Compute(length, width, height, pieces interface{}) (float64, float64) {
	l := c.coerce("length", length)
	w := c.coerce("width", width)
	h := c.coerce("height", height)

	n := c.coerce("pieces", pieces)
	if n <= 0 {
		n = 1
	}

	area := Round3(n * l * w)
	volume := Round3(n * l * w * h)
	return area, volume
}

func (c *Calculator) coerce(field string, raw interface{}) float64 {
	value, ok := ParseNumber(raw)
	if !ok {
		c.logger.Warn("measure_coercion_fallback",
			zap.String("field", field),
			zap.String("raw", fmt.Sprintf("%v", raw)),
		)
		return 0
	}
	return value
}

// groupedThousands requires at least two separator groups. A lone
// separator followed by three digits ("1,111") is ambiguous and must be
// read as a decimal, not as a stripped thousands group.
var groupedThousands = regexp.MustCompile(`^\d{1,3}(?:[.,]\d{3}){2,}$`)

// ParseNumber reads a loosely-typed scalar as a float. Numeric strings may
// use either decimal separator and may carry grouped thousands. The second
// return value is false when the input holds no usable number; an empty
// string is treated as an explicit zero, not a failure.
func ParseNumber(raw interface{}) (float64, bool) {
	switch v := raw.(type) {
	case nil:
		return 0, true
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		token := strings.TrimSpace(strings.ReplaceAll(v, "\u00a0", " "))
		token = strings.ReplaceAll(token, " ", "")
		if token == "" {
			return 0, true
		}
		value, err := strconv.ParseFloat(normalizeToken(token), 64)
		if err != nil {
			return 0, false
		}
		return value, true
	default:
		return 0, false
	}
}

func normalizeToken(token string) string {
	if groupedThousands.MatchString(token) {
		token = strings.ReplaceAll(token, ".", "")
		return strings.ReplaceAll(token, ",", "")
	}
	if strings.Contains(token, ",") && !strings.Contains(token, ".") {
		return strings.ReplaceAll(token, ",", ".")
	}
	return token
}

// Round3 rounds to 3 decimal places.
func Round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// PiecesOrDefault coerces a piece count, falling back to 1 when the value
// is absent, zero or non-numeric.
func PiecesOrDefault(raw interface{}) int {
	value, ok := ParseNumber(raw)
	if !ok || value <= 0 {
		return 1
	}
	return int(value)
}
