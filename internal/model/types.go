// Package model defines shared data structures.
package model

import "time"

// DateLayout is the calendar date format used for storage and flags.
const DateLayout = "2006-01-02"

// Gun is a catalogued firearm.
type Gun struct {
	ID        string
	Name      string
	Caliber   string
	Notes     string
	CreatedAt time.Time
}

// Ammo is a catalogued ammunition type.
type Ammo struct {
	ID      string
	Name    string
	Caliber string
	// PricePerRound is in the base currency.
	PricePerRound *float64
}

// Session is one logged range session.
type Session struct {
	ID        string
	GunID     string
	AmmoID    string
	Date      time.Time
	Shots     int
	Hits      *int
	DistanceM *float64
	GroupCM   *float64
	// Cost is in the base currency.
	Cost  *float64
	Notes string
}

// MaintenanceRecord is one service entry for a firearm.
type MaintenanceRecord struct {
	ID         string
	GunID      string
	Date       time.Time
	Activities []string
	Notes      *string
}

// Rate is the price of one unit of Code expressed in the base currency.
type Rate struct {
	Code      string
	Rate      float64
	UpdatedAt time.Time
}

// Preferences holds per-user settings.
type Preferences struct {
	RoundsLimit     int
	DaysLimit       int
	DisplayCurrency string
}

// SessionFilter narrows session listings.
type SessionFilter struct {
	GunID  string
	AmmoID string
	Since  *time.Time
	Until  *time.Time
	Limit  int
	Offset int
}

// ReportConfig defines filters and options for report output.
type ReportConfig struct {
	Filter      SessionFilter
	Currency    string
	TrendWindow int
}
