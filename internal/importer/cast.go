package importer

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"ecommerce-loader/internal/schema"
)

// DateLayout is the accepted date form. Single-digit months and days parse too.
const DateLayout = "2006-1-2"

// Cast converts one raw CSV field to the Go value stored for typ.
//
// Booleans are true iff raw is exactly "1". For every other type an empty
// field becomes nil (SQL NULL). Integers are 32-bit, reals 64-bit and dates
// are returned as UTC midnight.
func Cast(typ schema.Type, raw string) (any, error) {
	if typ == schema.Boolean {
		return raw == "1", nil
	}
	if raw == "" {
		return nil, nil
	}

	switch typ {
	case schema.Text:
		return raw, nil
	case schema.Integer:
		v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q: %w", raw, numErr(err))
		}
		return v, nil
	case schema.Real:
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid real %q: %w", raw, numErr(err))
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("invalid real %q: not a finite number", raw)
		}
		return v, nil
	case schema.Date:
		t, err := time.Parse(DateLayout, strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", raw)
		}
		return t.UTC(), nil
	}
	return nil, fmt.Errorf("unsupported column type %s", typ)
}

func numErr(err error) error {
	if ne, ok := err.(*strconv.NumError); ok {
		return ne.Err
	}
	return err
}
