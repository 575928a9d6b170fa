package domain

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// LineField names the editable columns of an invoice line.
type LineField string

const (
	LineFieldDescription LineField = "description"
	LineFieldQuantity    LineField = "quantity"
	LineFieldUnitPrice   LineField = "unitPrice"
)

type InvoiceLineItem struct {
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	Total       float64 `json:"total"`
}

// LineTotal is the only way a line total is produced.
func LineTotal(quantity int, unitPrice float64) float64 {
	return float64(quantity) * unitPrice
}

// WithTotal returns a copy of the item whose Total matches its quantity and price.
func (i InvoiceLineItem) WithTotal() InvoiceLineItem {
	i.Total = LineTotal(i.Quantity, i.UnitPrice)
	return i
}

func ParseField(raw string) (LineField, error) {
	switch LineField(strings.TrimSpace(raw)) {
	case LineFieldDescription:
		return LineFieldDescription, nil
	case LineFieldQuantity:
		return LineFieldQuantity, nil
	case LineFieldUnitPrice:
		return LineFieldUnitPrice, nil
	default:
		return "", fmt.Errorf("%w: unknown line field %q", ErrInvalidInput, raw)
	}
}

// ParseAmount parses a monetary amount typed as text.
func ParseAmount(raw string) (float64, error) {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNumber, raw)
	}
	return value, nil
}

// ParseQuantity parses a whole-unit quantity typed as text. "3.0" is accepted;
// "2.5" fails with ErrFractionalQuantity rather than ErrInvalidNumber.
func ParseQuantity(raw string) (int, error) {
	trimmed := strings.TrimSpace(raw)
	if value, err := strconv.Atoi(trimmed); err == nil {
		return value, nil
	}
	value, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNumber, raw)
	}
	if value != math.Trunc(value) {
		return 0, fmt.Errorf("%w: %q", ErrFractionalQuantity, raw)
	}
	if value > math.MaxInt32 || value < math.MinInt32 {
		return 0, fmt.Errorf("%w: %q out of range", ErrInvalidNumber, raw)
	}
	return int(value), nil
}

// CoerceAmount applies the form rule: unparseable input becomes 0.
// The second return value reports whether the fallback was used.
func CoerceAmount(raw string) (float64, bool) {
	value, err := ParseAmount(raw)
	if err != nil {
		return 0, true
	}
	return value, false
}

func CoerceQuantity(raw string) (int, bool) {
	value, err := ParseQuantity(raw)
	if err != nil {
		return 0, true
	}
	return value, false
}

// LineEdit is the outcome of RecalculateLine.
type LineEdit struct {
	Item    InvoiceLineItem `json:"item"`
	Coerced bool            `json:"coerced"`
	// Message is set when the edit was refused and the line kept its value.
	Message string `json:"message,omitempty"`
}

// RecalculateLine applies one field edit to a line and returns the updated line.
// Quantity and unit price edits recompute Total; description edits leave it alone.
func RecalculateLine(item InvoiceLineItem, field LineField, raw string) LineEdit {
	switch field {
	case LineFieldQuantity:
		if _, err := ParseQuantity(raw); errors.Is(err, ErrFractionalQuantity) {
			return LineEdit{Item: item.WithTotal(), Message: "Quantity must be a whole number"}
		}
		qty, coerced := CoerceQuantity(raw)
		item.Quantity = qty
		return LineEdit{Item: item.WithTotal(), Coerced: coerced}
	case LineFieldUnitPrice:
		price, coerced := CoerceAmount(raw)
		item.UnitPrice = price
		return LineEdit{Item: item.WithTotal(), Coerced: coerced}
	case LineFieldDescription:
		item.Description = raw
		return LineEdit{Item: item}
	default:
		return LineEdit{Item: item}
	}
}
