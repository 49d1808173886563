package model

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog records one domain transition (quest initialised, moved,
// character added/removed, post created) for the timeline audit trail.
type AuditLog struct {
	ID         int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	TraceID    string         `gorm:"size:64;index" json:"trace_id"`
	AccountID  *int64         `gorm:"index" json:"account_id"`
	QuestID    *int64         `gorm:"index" json:"quest_id"`
	Action     string         `gorm:"size:64;not null" json:"action"`
	Request    datatypes.JSON `json:"request"`
	Response   datatypes.JSON `json:"response"`
	Error      string         `gorm:"type:text" json:"error"`
	IP         string         `gorm:"size:45" json:"ip"`
	DurationMs int            `json:"duration_ms"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
}
