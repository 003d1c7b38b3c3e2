package config

import (
	"fmt"
	"os"
	"strings"

	"carspa/internal/models"

	"gopkg.in/yaml.v2"
)

// DefaultCatalog is used when no catalog file is configured.
func DefaultCatalog() *models.Catalog {
	return &models.Catalog{
		Business: models.Business{
			Name:  "InstaCarSpa",
			Phone: "(438) 226-3391",
			Email: "info@instacarspa.com",
		},
		Areas: []models.Area{
			{ID: "downtown", Name: "Downtown Montreal", Address: "Central Business District, Montreal, QC"},
			{ID: "plateau", Name: "Plateau Mont-Royal", Address: "Plateau Mont-Royal, Montreal, QC"},
			{ID: "westmount", Name: "Westmount", Address: "Westmount, Montreal, QC"},
			{ID: "ndg", Name: "Notre-Dame-de-Grâce", Address: "Notre-Dame-de-Grâce, Montreal, QC"},
			{ID: "griffintown", Name: "Griffintown", Address: "Griffintown, Montreal, QC"},
			{ID: "old-port", Name: "Old Port", Address: "Old Port, Montreal, QC"},
		},
		TimeSlots: []models.TimeSlot{
			{Value: "9:00", Label: "9:00 AM"},
			{Value: "10:00", Label: "10:00 AM"},
			{Value: "11:00", Label: "11:00 AM"},
			{Value: "12:00", Label: "12:00 PM"},
			{Value: "13:00", Label: "1:00 PM"},
			{Value: "14:00", Label: "2:00 PM"},
			{Value: "15:00", Label: "3:00 PM"},
			{Value: "16:00", Label: "4:00 PM"},
		},
	}
}

// LoadCatalog reads the catalog file. An empty path yields DefaultCatalog.
func LoadCatalog(path string) (*models.Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var catalog models.Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	if err := ValidateCatalog(&catalog); err != nil {
		return nil, err
	}
	return &catalog, nil
}

func ValidateCatalog(c *models.Catalog) error {
	if len(c.Areas) == 0 {
		return fmt.Errorf("catalog has no areas")
	}
	ids := make(map[string]bool)
	for _, a := range c.Areas {
		if strings.TrimSpace(a.ID) == "" {
			return fmt.Errorf("area '%s' has empty id", a.Name)
		}
		if ids[a.ID] {
			return fmt.Errorf("duplicate area id found: %s", a.ID)
		}
		ids[a.ID] = true
	}

	slots := make(map[string]bool)
	for _, s := range c.TimeSlots {
		if strings.TrimSpace(s.Value) == "" {
			return fmt.Errorf("time slot '%s' has empty value", s.Label)
		}
		if slots[s.Value] {
			return fmt.Errorf("duplicate time slot: %s", s.Value)
		}
		slots[s.Value] = true
	}
	return nil
}
