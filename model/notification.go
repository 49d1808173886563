package model

import "time"

// NotificationKind discriminates notification variants stored in the
// single notifications table.
type NotificationKind string

const (
	NotificationGeneric NotificationKind = "generic"
	NotificationMessage NotificationKind = "message"
)

// NotificationProfile links notifications to an account.
type NotificationProfile struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	AccountID int64     `gorm:"uniqueIndex;not null" json:"account_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// Notification is one inbox entry. Kind selects which of the variant
// columns is meaningful: Text for generic notifications,
// PrivateMessageID for message notifications. A null DateSeen marks the
// notification unseen.
type Notification struct {
	ID                    int64            `gorm:"primaryKey;autoIncrement" json:"id"`
	NotificationProfileID int64            `gorm:"index:idx_notif_profile;not null" json:"notification_profile_id"`
	Kind                  NotificationKind `gorm:"size:20;not null" json:"kind"`
	Text                  string           `gorm:"type:text" json:"text,omitempty"`
	PrivateMessageID      *int64           `gorm:"index" json:"private_message_id,omitempty"`
	DateCreated           time.Time        `gorm:"autoCreateTime" json:"date_created"`
	DateSeen              *time.Time       `gorm:"index" json:"date_seen"`
}
