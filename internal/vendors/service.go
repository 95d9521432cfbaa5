// Package vendors maintains the supplier directory in vendors.csv.
package vendors

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/greenbook-dev/greenbook/internal/model"
)

const vendorsFile = "vendors.csv"

// Service provides in-memory lookup over the vendor directory.
type Service struct {
	vendors []model.Vendor
	byID    map[string]model.Vendor
}

// NewService creates a Service from a slice of vendors.
func NewService(vendors []model.Vendor) *Service {
	byID := make(map[string]model.Vendor, len(vendors))
	for _, v := range vendors {
		byID[v.ID] = v
	}
	return &Service{vendors: vendors, byID: byID}
}

// Load reads vendors.csv from the books root. A missing file is an empty
// directory.
func Load(root string) (*Service, error) {
	path := filepath.Join(root, vendorsFile)
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return NewService(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening vendors file: %w", err)
	}
	defer f.Close()

	list, err := ReadVendors(f)
	if err != nil {
		return nil, fmt.Errorf("reading vendors file: %w", err)
	}
	return NewService(list), nil
}

// All returns all vendors.
func (s *Service) All() []model.Vendor {
	return s.vendors
}

// Get returns a vendor by ID.
func (s *Service) Get(id string) (model.Vendor, bool) {
	v, ok := s.byID[id]
	return v, ok
}

// FindByName returns the first vendor whose name equals the query
// case-insensitively, or failing that, contains it as a substring. There is
// no fuzzy identity resolution.
func (s *Service) FindByName(name string) (model.Vendor, bool) {
	query := strings.ToLower(strings.TrimSpace(name))
	if query == "" {
		return model.Vendor{}, false
	}
	for _, v := range s.vendors {
		if strings.ToLower(v.Name) == query {
			return v, true
		}
	}
	for _, v := range s.vendors {
		if strings.Contains(strings.ToLower(v.Name), query) {
			return v, true
		}
	}
	return model.Vendor{}, false
}

// GetOrCreate returns the vendor matching name, creating a new one when no
// match exists. Reports whether a vendor was created.
func (s *Service) GetOrCreate(name string) (model.Vendor, bool) {
	if v, ok := s.FindByName(name); ok {
		return v, false
	}
	v := model.Vendor{ID: uuid.NewString(), Name: strings.TrimSpace(name)}
	s.vendors = append(s.vendors, v)
	s.byID[v.ID] = v
	return v, true
}

// Add inserts a fully specified vendor.
func (s *Service) Add(v model.Vendor) model.Vendor {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	s.vendors = append(s.vendors, v)
	s.byID[v.ID] = v
	return v
}

// Save writes the directory back to vendors.csv.
func (s *Service) Save(root string) error {
	path := filepath.Join(root, vendorsFile)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating vendors file: %w", err)
	}
	defer f.Close()

	if err := WriteVendors(f, s.vendors); err != nil {
		return fmt.Errorf("writing vendors file: %w", err)
	}
	return nil
}
