package model

import "time"

// Continent is a land-body within the world, made up of locations.
type Continent struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"size:150;not null" json:"name"`
	Slug        string    `gorm:"uniqueIndex;size:150;not null" json:"slug"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Location is a place in the world. Locations serve as character home
// towns and as the places quests happen in. Immutable after seeding.
type Location struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ContinentID int64     `gorm:"index;not null" json:"continent_id"`
	Name        string    `gorm:"size:150;not null" json:"name"`
	Slug        string    `gorm:"uniqueIndex;size:150;not null" json:"slug"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Race defines much of a character's physical appearance.
type Race struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"size:150;not null" json:"name"`
	Slug        string    `gorm:"uniqueIndex;size:150;not null" json:"slug"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
