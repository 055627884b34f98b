package geo

import (
	"fmt"
	"strings"
)

// AdminLevel is an Indonesian administrative level tag. It is used for
// display and lookup only, never for computation.
type AdminLevel string

const (
	LevelProvinsi  AdminLevel = "provinsi"
	LevelKabupaten AdminLevel = "kabupaten"
	LevelKota      AdminLevel = "kota"
	LevelKecamatan AdminLevel = "kecamatan"
	LevelKelurahan AdminLevel = "kelurahan"
)

// ValidLevel reports whether s names a known administrative level.
// The empty string is accepted and means "no filter".
func ValidLevel(s string) bool {
	switch AdminLevel(s) {
	case "", LevelProvinsi, LevelKabupaten, LevelKota, LevelKecamatan, LevelKelurahan:
		return true
	default:
		return false
	}
}

// Location represents one forecast target. Identity is the Name label;
// multiple locations may be processed per run.
type Location struct {
	Name  string     `json:"name" validate:"required"`
	Lat   float64    `json:"lat" validate:"gte=-90,lte=90"`
	Lon   float64    `json:"lon" validate:"gte=-180,lte=180"`
	Level AdminLevel `json:"level,omitempty"`
}

// Key returns a canonical string key for indexing this location.
func (l Location) Key() string {
	return l.Name
}

func (l Location) String() string {
	return fmt.Sprintf("%s (%.4f,%.4f)", l.Name, l.Lat, l.Lon)
}

// DefaultLocations returns the five Jabodetabek anchor cities used when no
// explicit targets are configured.
func DefaultLocations() []Location {
	return []Location{
		{Name: "Jakarta", Lat: -6.1754, Lon: 106.8272, Level: LevelKota},
		{Name: "Bogor", Lat: -6.5971, Lon: 106.8060, Level: LevelKota},
		{Name: "Depok", Lat: -6.4025, Lon: 106.7941, Level: LevelKota},
		{Name: "Tangerang", Lat: -6.1275, Lon: 106.6559, Level: LevelKota},
		{Name: "Bekasi", Lat: -6.2383, Lon: 106.9756, Level: LevelKota},
	}
}

// FindDefault looks up a default city by case-insensitive name match.
func FindDefault(name string) (Location, bool) {
	for _, loc := range DefaultLocations() {
		if strings.EqualFold(loc.Name, name) {
			return loc, true
		}
	}
	return Location{}, false
}
