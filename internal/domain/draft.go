package domain

import (
	"fmt"
	"regexp"
	"strings"
)

type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusSent      InvoiceStatus = "sent"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusOverdue   InvoiceStatus = "overdue"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

const (
	DefaultWatermarkText  = "DRAFT"
	DefaultWatermarkColor = "#cccccc"
	MinWatermarkRotation  = -90
	MaxWatermarkRotation  = 90
)

var hexColorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Watermark is the decorative overlay shown on previews. It never affects totals.
type Watermark struct {
	Enabled  bool    `json:"watermarkEnabled"`
	Text     string  `json:"watermarkText"`
	Rotation float64 `json:"watermarkRotation"`
	Color    string  `json:"watermarkColor"`
}

func DefaultWatermark() Watermark {
	return Watermark{
		Text:     DefaultWatermarkText,
		Rotation: -45,
		Color:    DefaultWatermarkColor,
	}
}

// Normalized clamps the rotation and replaces an invalid color with the default.
func (w Watermark) Normalized() Watermark {
	w.Rotation = ClampRotation(w.Rotation)
	w.Color = strings.TrimSpace(w.Color)
	if !hexColorPattern.MatchString(w.Color) {
		w.Color = DefaultWatermarkColor
	}
	return w
}

func ClampRotation(degrees float64) float64 {
	if degrees < MinWatermarkRotation {
		return MinWatermarkRotation
	}
	if degrees > MaxWatermarkRotation {
		return MaxWatermarkRotation
	}
	return degrees
}

// InvoiceDraft is the in-progress invoice held by one form. It is a plain value;
// callers own it for the lifetime of a request.
type InvoiceDraft struct {
	ClientID      string            `json:"clientId"`
	InvoiceNumber string            `json:"invoiceNumber"`
	InvoiceDate   string            `json:"invoiceDate"`
	DueDate       string            `json:"dueDate"`
	Status        InvoiceStatus     `json:"status"`
	Notes         string            `json:"notes"`
	Items         []InvoiceLineItem `json:"items"`
	TaxEnabled    bool              `json:"taxEnabled"`
	TaxRate       float64           `json:"taxRate"`
	Watermark
}

// NewDraft returns an empty draft with one blank line.
func NewDraft() InvoiceDraft {
	return InvoiceDraft{
		Status:    InvoiceStatusDraft,
		Items:     []InvoiceLineItem{{}},
		Watermark: DefaultWatermark(),
	}
}

// Normalize recomputes every line total and the watermark settings. Drafts that
// arrive over the wire go through here so stale or forged totals never survive.
func (d *InvoiceDraft) Normalize() {
	items := make([]InvoiceLineItem, len(d.Items))
	for i, item := range d.Items {
		items[i] = item.WithTotal()
	}
	d.Items = items
	if d.Status == "" {
		d.Status = InvoiceStatusDraft
	}
	d.Watermark = d.Watermark.Normalized()
}

// ApplyLineEdit recalculates one line and splices it back in place.
func (d *InvoiceDraft) ApplyLineEdit(index int, field LineField, raw string) (LineEdit, error) {
	if index < 0 || index >= len(d.Items) {
		return LineEdit{}, fmt.Errorf("%w: line index %d out of range", ErrInvalidInput, index)
	}
	edit := RecalculateLine(d.Items[index], field, raw)
	items := append([]InvoiceLineItem(nil), d.Items...)
	items[index] = edit.Item
	d.Items = items
	return edit, nil
}

func (d *InvoiceDraft) AddItem() {
	d.Items = append(append([]InvoiceLineItem(nil), d.Items...), InvoiceLineItem{})
}

func (d *InvoiceDraft) RemoveItem(index int) error {
	if index < 0 || index >= len(d.Items) {
		return fmt.Errorf("%w: line index %d out of range", ErrInvalidInput, index)
	}
	items := make([]InvoiceLineItem, 0, len(d.Items)-1)
	items = append(items, d.Items[:index]...)
	items = append(items, d.Items[index+1:]...)
	d.Items = items
	return nil
}

func (d InvoiceDraft) Totals() Totals {
	return ComputeTotals(d.Items, d.TaxEnabled, d.TaxRate)
}

// Invoice is the backend's view of a saved invoice.
type Invoice struct {
	InvoiceID string `json:"id"`
	InvoiceDraft
	Subtotal  float64 `json:"subtotal"`
	Tax       float64 `json:"tax"`
	Total     float64 `json:"total"`
	CreatedAt string  `json:"createdAt,omitempty"`
	UpdatedAt string  `json:"updatedAt,omitempty"`
}

// DraftFromInvoice hydrates an editable draft from a saved invoice.
func DraftFromInvoice(inv Invoice) InvoiceDraft {
	draft := inv.InvoiceDraft
	draft.Items = append([]InvoiceLineItem(nil), inv.Items...)
	if len(draft.Items) == 0 {
		draft.Items = []InvoiceLineItem{{}}
	}
	if draft.Watermark.Text == "" && draft.Watermark.Color == "" {
		enabled := draft.Watermark.Enabled
		draft.Watermark = DefaultWatermark()
		draft.Watermark.Enabled = enabled
	}
	draft.Normalize()
	return draft
}
