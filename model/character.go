package model

import "time"

// CharacterProfile holds per-account character metadata. Slots bounds
// how many characters the account may own concurrently.
type CharacterProfile struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	AccountID int64     `gorm:"uniqueIndex;not null" json:"account_id"`
	Slots     int       `gorm:"default:1" json:"slots"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// Character is a playable character in the world. A character may be on
// at most one active quest at a time; that relationship lives in the
// quest_characters ledger, not here.
type Character struct {
	ID                  int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	CharacterProfileID  int64     `gorm:"index;not null" json:"character_profile_id"`
	Name                string    `gorm:"uniqueIndex;size:50;not null" json:"name"`
	HomeTownID          int64     `gorm:"not null" json:"home_town_id"`
	RaceID              int64     `gorm:"not null" json:"race_id"`
	PhysicalDescription string    `gorm:"size:500" json:"physical_description"`
	Personality         string    `gorm:"size:500" json:"personality"`
	Skills              string    `gorm:"size:500" json:"skills"`
	FullBiography       string    `gorm:"type:text" json:"full_biography"`
	DateCreated         time.Time `gorm:"autoCreateTime" json:"date_created"`
	DateModified        time.Time `gorm:"autoUpdateTime" json:"date_modified"`
}
