package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInvoiceDescription(t *testing.T) {
	tests := []struct {
		name  string
		items []LineItem
		want  string
	}{
		{"single", []LineItem{{Name: "Abono césped"}}, "Abono césped"},
		{"multiple", []LineItem{{Name: "Turba"}, {Name: "Mantillo"}}, "Turba, Mantillo"},
		{"skips empty names", []LineItem{{Name: "Turba"}, {Name: ""}}, "Turba"},
		{"no items", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := InvoiceRecord{LineItems: tt.items}
			assert.Equal(t, tt.want, r.Description())
		})
	}
}

func TestSameVendor(t *testing.T) {
	a := InvoiceRecord{Vendor: Vendor{ID: "v1"}}
	b := InvoiceRecord{Vendor: Vendor{ID: "v1"}}
	c := InvoiceRecord{Vendor: Vendor{ID: "v2"}}
	blank := InvoiceRecord{}

	assert.True(t, a.SameVendor(b))
	assert.False(t, a.SameVendor(c))
	assert.False(t, blank.SameVendor(blank), "missing vendor IDs never match")
}
