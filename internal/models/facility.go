package models

// Features describes the feature flags of a facility or option tier.
type Features struct {
	Surveillance bool `yaml:"surveillance" json:"surveillance"`
	EVCharging   bool `yaml:"ev_charging" json:"ev_charging"`
	Covered      bool `yaml:"covered" json:"covered"`
}

// Option is a parking tier (regular/covered/valet) with its own rates
// and spot counts per vehicle type. Rates are in cents.
type Option struct {
	ID          string    `yaml:"id" json:"id"`
	Name        string    `yaml:"name" json:"name"`
	Description string    `yaml:"description" json:"description"`
	CarRate     int64     `yaml:"car_rate" json:"car_rate"`
	BikeRate    int64     `yaml:"bike_rate" json:"bike_rate"`
	CarSpots    int64     `yaml:"car_spots" json:"car_spots"`
	BikeSpots   int64     `yaml:"bike_spots" json:"bike_spots"`
	Features    *Features `yaml:"features,omitempty" json:"features,omitempty"`
}

// Rate returns the hourly rate in cents for a vehicle type.
func (o Option) Rate(vehicleType string) int64 {
	if vehicleType == VehicleBike {
		return o.BikeRate
	}
	return o.CarRate
}

// Spots returns the available spot count for a vehicle type.
func (o Option) Spots(vehicleType string) int64 {
	if vehicleType == VehicleBike {
		return o.BikeSpots
	}
	return o.CarSpots
}

// Facility is a parking location offering one or more Options.
// Records are loaded once from the inventory file and never mutated.
type Facility struct {
	ID       int64    `yaml:"id" json:"id"`
	Name     string   `yaml:"name" json:"name"`
	Address  string   `yaml:"address" json:"address"`
	Distance string   `yaml:"distance" json:"distance"`
	Rating   float64  `yaml:"rating" json:"rating"`
	CarRate  int64    `yaml:"car_rate" json:"car_rate"`
	BikeRate int64    `yaml:"bike_rate" json:"bike_rate"`
	Features Features `yaml:"features" json:"features"`
	Options  []Option `yaml:"options" json:"options"`
}

// OptionByID returns the option with the given id, if present.
func (f Facility) OptionByID(id string) (Option, bool) {
	for _, opt := range f.Options {
		if opt.ID == id {
			return opt, true
		}
	}
	return Option{}, false
}

// HasSpots reports whether any option of the facility has free spots
// for the vehicle type.
func (f Facility) HasSpots(vehicleType string) bool {
	for _, opt := range f.Options {
		if opt.Spots(vehicleType) > 0 {
			return true
		}
	}
	return false
}

// EffectiveFeatures returns the option's feature override when set,
// otherwise the facility-level flags.
func (f Facility) EffectiveFeatures(opt Option) Features {
	if opt.Features != nil {
		return *opt.Features
	}
	return f.Features
}
