package model

import "time"

// MessageProfile links private messages to an account.
type MessageProfile struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	AccountID int64     `gorm:"uniqueIndex;not null" json:"account_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// MessageThread is one participant's view of a 1:1 conversation. Each
// conversation materializes as two threads, one owned by each side, so
// either party's view is self-contained.
type MessageThread struct {
	ID             int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerProfileID int64     `gorm:"uniqueIndex:idx_thread_pair;not null" json:"owner_profile_id"`
	OtherProfileID int64     `gorm:"uniqueIndex:idx_thread_pair;not null" json:"other_profile_id"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// PrivateMessage is one message inside a thread. Delivery writes a copy
// into both participants' threads.
type PrivateMessage struct {
	ID              int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	MessageThreadID int64     `gorm:"index:idx_pm_thread;not null" json:"message_thread_id"`
	SenderProfileID int64     `gorm:"index;not null" json:"sender_profile_id"`
	Message         string    `gorm:"type:text;not null" json:"message"`
	DateCreated     time.Time `gorm:"autoCreateTime" json:"date_created"`
	DateModified    time.Time `gorm:"autoUpdateTime" json:"date_modified"`
}
