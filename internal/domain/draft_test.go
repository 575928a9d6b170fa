package domain

import (
	"errors"
	"testing"
)

func TestNewDraftHasOneBlankLine(t *testing.T) {
	draft := NewDraft()
	if len(draft.Items) != 1 {
		t.Fatalf("expected one blank item, got %d", len(draft.Items))
	}
	if draft.Status != InvoiceStatusDraft {
		t.Fatalf("expected draft status, got %s", draft.Status)
	}
	if draft.Watermark.Enabled {
		t.Fatalf("watermark should start disabled")
	}
}

func TestApplyLineEditSplicesInPlace(t *testing.T) {
	draft := NewDraft()
	draft.AddItem()
	if _, err := draft.ApplyLineEdit(1, LineFieldQuantity, "2"); err != nil {
		t.Fatalf("edit quantity: %v", err)
	}
	edit, err := draft.ApplyLineEdit(1, LineFieldUnitPrice, "7.25")
	if err != nil || edit.Coerced {
		t.Fatalf("edit price: %v coerced=%v", err, edit.Coerced)
	}
	if draft.Items[1].Total != 14.5 {
		t.Fatalf("expected total 14.5, got %v", draft.Items[1].Total)
	}
	if draft.Items[0].Total != 0 {
		t.Fatalf("first line must be untouched")
	}
	if _, err := draft.ApplyLineEdit(5, LineFieldQuantity, "1"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected out of range error, got %v", err)
	}
}

func TestNormalizeRepairsStaleTotals(t *testing.T) {
	draft := InvoiceDraft{
		Items: []InvoiceLineItem{
			{Description: "A", Quantity: 3, UnitPrice: 2, Total: 999},
		},
		Watermark: Watermark{Enabled: true, Text: "PAID", Rotation: 180, Color: "red"},
	}
	draft.Normalize()
	if draft.Items[0].Total != 6 {
		t.Fatalf("expected recomputed total 6, got %v", draft.Items[0].Total)
	}
	if draft.Watermark.Rotation != MaxWatermarkRotation {
		t.Fatalf("expected clamped rotation, got %v", draft.Watermark.Rotation)
	}
	if draft.Watermark.Color != DefaultWatermarkColor {
		t.Fatalf("expected default color, got %s", draft.Watermark.Color)
	}
	if draft.Status != InvoiceStatusDraft {
		t.Fatalf("expected default status")
	}
}

func TestWatermarkKeepsValidColor(t *testing.T) {
	w := Watermark{Rotation: -120, Color: "#A0b"}.Normalized()
	if w.Color != "#A0b" || w.Rotation != MinWatermarkRotation {
		t.Fatalf("unexpected watermark %+v", w)
	}
}

func TestRemoveItem(t *testing.T) {
	draft := NewDraft()
	draft.AddItem()
	draft.Items[1].Description = "keep"
	if err := draft.RemoveItem(0); err != nil {
		t.Fatalf("remove item: %v", err)
	}
	if len(draft.Items) != 1 || draft.Items[0].Description != "keep" {
		t.Fatalf("unexpected items after removal: %+v", draft.Items)
	}
	if err := draft.RemoveItem(3); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected out of range error, got %v", err)
	}
}

func TestDraftFromInvoice(t *testing.T) {
	inv := Invoice{
		InvoiceID: "inv-1",
		InvoiceDraft: InvoiceDraft{
			ClientID:      "client-1",
			InvoiceNumber: "INV-1",
			Status:        InvoiceStatusSent,
			Items:         []InvoiceLineItem{{Description: "X", Quantity: 2, UnitPrice: 3}},
		},
		Total: 6,
	}
	draft := DraftFromInvoice(inv)
	if draft.Items[0].Total != 6 {
		t.Fatalf("expected hydrated total 6, got %v", draft.Items[0].Total)
	}
	if draft.Status != InvoiceStatusSent {
		t.Fatalf("status should be kept, got %s", draft.Status)
	}
	if draft.Watermark.Text != DefaultWatermarkText {
		t.Fatalf("expected default watermark text, got %q", draft.Watermark.Text)
	}

	empty := DraftFromInvoice(Invoice{InvoiceID: "inv-2"})
	if len(empty.Items) != 1 {
		t.Fatalf("hydrating an invoice without items should yield one blank line")
	}
}
