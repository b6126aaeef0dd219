package models

import "time"

// Bean describes a coffee bean in the user's inventory.
type Bean struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id" validate:"required"`
	Name       string     `json:"name"    validate:"required,min=1"`
	Roaster    string     `json:"roaster,omitempty"`
	Origin     string     `json:"origin,omitempty"`
	Process    string     `json:"process,omitempty"`
	RoastLevel string     `json:"roast_level,omitempty"`
	RoastDate  *time.Time `json:"roast_date,omitempty"`
	IsDefault  bool       `json:"is_default,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Grinder describes a grinder in the user's inventory.
type Grinder struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id" validate:"required"`
	Name      string    `json:"name"    validate:"required,min=1"`
	BurrType  string    `json:"burr_type,omitempty"`
	IsDefault bool      `json:"is_default,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Brewer describes a brewing device in the user's inventory.
type Brewer struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id" validate:"required"`
	Name       string    `json:"name"    validate:"required,min=1"`
	Type       string    `json:"type,omitempty"`
	CapacityML int       `json:"capacity_ml,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// WaterProfile describes the mineral composition of brewing water.
type WaterProfile struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id" validate:"required"`
	Name         string    `json:"name"    validate:"required,min=1"`
	CalciumPPM   float64   `json:"calcium_ppm,omitempty"`
	MagnesiumPPM float64   `json:"magnesium_ppm,omitempty"`
	BicarbPPM    float64   `json:"bicarb_ppm,omitempty"`
	TDSPPM       float64   `json:"tds_ppm,omitempty"`
	IsDefault    bool      `json:"is_default,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
