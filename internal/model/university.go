package model

import "time"

// University is one of the admission targets offered by the academy.
// The roster is seeded by migration and changes rarely.
type University struct {
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	LogoPath  string    `json:"logo_path"`
	CreatedAt time.Time `json:"created_at"`
}

// UniversityForStudent decorates a university with the caller's access flag
// so the selector can grey out locked cards.
type UniversityForStudent struct {
	University
	HasAccess bool `json:"has_access"`
}
