package inventory

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"parkwise/internal/models"

	"gopkg.in/yaml.v2"
)

// Catalog is the static city -> facilities inventory. It is loaded once
// at startup and never mutated afterwards.
type Catalog struct {
	cities  map[string][]models.Facility // keyed by lowercase city name
	display map[string]string            // lowercase -> display name
}

type catalogFile struct {
	Cities []struct {
		Name       string            `yaml:"name"`
		Facilities []models.Facility `yaml:"facilities"`
	} `yaml:"cities"`
}

// Load reads and validates the inventory file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read inventory file: %w", err)
	}
	return Parse(data)
}

// Parse builds a catalog from raw YAML.
func Parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse inventory: %w", err)
	}

	c := &Catalog{
		cities:  make(map[string][]models.Facility, len(file.Cities)),
		display: make(map[string]string, len(file.Cities)),
	}

	seenIDs := make(map[int64]bool)
	for _, city := range file.Cities {
		name := strings.TrimSpace(city.Name)
		if name == "" {
			return nil, fmt.Errorf("city with empty name")
		}
		key := strings.ToLower(name)
		if _, dup := c.cities[key]; dup {
			return nil, fmt.Errorf("duplicate city: %s", name)
		}

		for _, f := range city.Facilities {
			if err := validateFacility(f); err != nil {
				return nil, fmt.Errorf("city %s: %w", name, err)
			}
			if seenIDs[f.ID] {
				return nil, fmt.Errorf("duplicate facility ID: %d", f.ID)
			}
			seenIDs[f.ID] = true
		}

		c.cities[key] = city.Facilities
		c.display[key] = name
	}

	if len(c.cities) == 0 {
		return nil, fmt.Errorf("inventory has no cities")
	}
	return c, nil
}

func validateFacility(f models.Facility) error {
	if f.ID == 0 {
		return fmt.Errorf("facility %q has invalid ID 0", f.Name)
	}
	if f.Name == "" {
		return fmt.Errorf("facility %d has empty name", f.ID)
	}
	if f.Rating < 0 || f.Rating > 5 {
		return fmt.Errorf("facility %q rating out of range: %v", f.Name, f.Rating)
	}
	if len(f.Options) == 0 {
		return fmt.Errorf("facility %q has no options", f.Name)
	}
	for _, opt := range f.Options {
		switch opt.ID {
		case models.OptionRegular, models.OptionCovered, models.OptionValet:
		default:
			return fmt.Errorf("facility %q has unknown option %q", f.Name, opt.ID)
		}
		if opt.CarRate <= 0 && opt.BikeRate <= 0 {
			return fmt.Errorf("facility %q option %q has no rates", f.Name, opt.ID)
		}
	}
	return nil
}

// CityKnown reports whether the city exists, matching case-insensitively.
func (c *Catalog) CityKnown(name string) bool {
	_, ok := c.cities[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// CityName returns the canonical display name for a city.
func (c *Catalog) CityName(name string) (string, bool) {
	display, ok := c.display[strings.ToLower(strings.TrimSpace(name))]
	return display, ok
}

// Cities returns all known city names, sorted.
func (c *Catalog) Cities() []string {
	names := make([]string, 0, len(c.display))
	for _, display := range c.display {
		names = append(names, display)
	}
	sort.Strings(names)
	return names
}

// FacilitiesForCity returns the facilities of a city that have free
// spots for the vehicle type. An empty vehicleType skips the filter.
func (c *Catalog) FacilitiesForCity(city, vehicleType string) []models.Facility {
	all := c.cities[strings.ToLower(strings.TrimSpace(city))]
	if vehicleType == "" {
		return append([]models.Facility(nil), all...)
	}

	var out []models.Facility
	for _, f := range all {
		if f.HasSpots(vehicleType) {
			out = append(out, f)
		}
	}
	return out
}

// FacilityByID looks up a facility across all cities.
func (c *Catalog) FacilityByID(id int64) (models.Facility, bool) {
	for _, facilities := range c.cities {
		for _, f := range facilities {
			if f.ID == id {
				return f, true
			}
		}
	}
	return models.Facility{}, false
}
