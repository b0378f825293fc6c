// model.go defines the recording data model
package datastore

import "time"

// Recording is one captured voice memo with its transcript and optional location.
// Latitude and Longitude are either both set or both nil.
type Recording struct {
	ID        string    `gorm:"primaryKey;size:36"`
	Text      string    `gorm:"not null"`
	Timestamp time.Time `gorm:"not null"` // capture time supplied by the client or the server clock
	Latitude  *float64
	Longitude *float64
	City      *string   `gorm:"index"`
	CreatedAt time.Time `gorm:"not null"` // server-assigned, never changes
}

// TableName pins the table name
func (Recording) TableName() string {
	return "recordings"
}

// Clone returns a deep copy so callers cannot mutate stored state through pointers
func (r *Recording) Clone() Recording {
	out := *r
	if r.Latitude != nil {
		lat := *r.Latitude
		out.Latitude = &lat
	}
	if r.Longitude != nil {
		lon := *r.Longitude
		out.Longitude = &lon
	}
	if r.City != nil {
		city := *r.City
		out.City = &city
	}
	return out
}

// HasLocation reports whether both coordinates are present
func (r *Recording) HasLocation() bool {
	return r.Latitude != nil && r.Longitude != nil
}

// CityOr returns the city label, or fallback when none was resolved
func (r *Recording) CityOr(fallback string) string {
	if r.City == nil || *r.City == "" {
		return fallback
	}
	return *r.City
}
