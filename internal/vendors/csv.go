package vendors

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/greenbook-dev/greenbook/internal/model"
)

// Header is the CSV header for vendors.csv.
const Header = "id,name,tax_id,address,phone,email"

const (
	numFields  = 6
	colID      = 0
	colName    = 1
	colTaxID   = 2
	colAddress = 3
	colPhone   = 4
	colEmail   = 5
)

// ReadVendors reads all vendors from a vendors.csv reader.
func ReadVendors(r io.Reader) ([]model.Vendor, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading vendors CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	var vendors []model.Vendor
	for i, rec := range records[1:] {
		v, err := UnmarshalVendor(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		vendors = append(vendors, v)
	}
	return vendors, nil
}

// WriteVendors writes vendors to a vendors.csv writer (including header).
func WriteVendors(w io.Writer, vendors []model.Vendor) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, v := range vendors {
		if err := cw.Write(MarshalVendor(v)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// MarshalVendor converts a Vendor to a CSV row.
func MarshalVendor(v model.Vendor) []string {
	row := make([]string, numFields)
	row[colID] = v.ID
	row[colName] = v.Name
	row[colTaxID] = v.TaxID
	row[colAddress] = v.Address
	row[colPhone] = v.Phone
	row[colEmail] = v.Email
	return row
}

// UnmarshalVendor converts a CSV row to a Vendor.
func UnmarshalVendor(record []string) (model.Vendor, error) {
	if len(record) != numFields {
		return model.Vendor{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}
	if record[colID] == "" {
		return model.Vendor{}, fmt.Errorf("vendor row missing id")
	}
	return model.Vendor{
		ID:      record[colID],
		Name:    record[colName],
		TaxID:   record[colTaxID],
		Address: record[colAddress],
		Phone:   record[colPhone],
		Email:   record[colEmail],
	}, nil
}
