package model

// Vendor represents a supplier in vendors.csv.
type Vendor struct {
	ID      string
	Name    string
	TaxID   string
	Address string
	Phone   string
	Email   string
}
