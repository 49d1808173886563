package model

import "time"

// QuestProfile links an account to the quests it runs and follows.
type QuestProfile struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	AccountID int64     `gorm:"uniqueIndex;not null" json:"account_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// Quest is a collaborative narrative thread. Characters come and go and
// the quest moves between locations; both relationships are tracked in
// append-only ledger rows so the full timeline can be reconstructed.
type Quest struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Title       string    `gorm:"uniqueIndex;size:100;not null" json:"title"`
	Slug        string    `gorm:"uniqueIndex;size:110;not null" json:"slug"`
	Description string    `gorm:"type:text" json:"description"`
	GMProfileID int64     `gorm:"index;not null" json:"gm_profile_id"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// QuestLocation is a location-occupancy ledger row. A null DateDeparted
// marks the quest's current location; at most one such row may exist
// per quest.
type QuestLocation struct {
	ID           int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	QuestID      int64      `gorm:"index:idx_ql_quest;not null" json:"quest_id"`
	LocationID   int64      `gorm:"index;not null" json:"location_id"`
	DateCreated  time.Time  `gorm:"autoCreateTime" json:"date_created"`
	DateDeparted *time.Time `gorm:"index" json:"date_departed"`
}

// QuestCharacter is a character-membership ledger row. A null
// DateDeparted marks an active membership; at most one such row may
// exist per character across all quests.
type QuestCharacter struct {
	ID           int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	QuestID      int64      `gorm:"index:idx_qc_quest;not null" json:"quest_id"`
	CharacterID  int64      `gorm:"index:idx_qc_char;not null" json:"character_id"`
	DateCreated  time.Time  `gorm:"autoCreateTime" json:"date_created"`
	DateDeparted *time.Time `gorm:"index" json:"date_departed"`
}

// QuestFollower records a quest profile following a quest. Plain set
// membership, no history.
type QuestFollower struct {
	ID             int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	QuestProfileID int64 `gorm:"uniqueIndex:idx_follower;not null" json:"quest_profile_id"`
	QuestID        int64 `gorm:"uniqueIndex:idx_follower;not null" json:"quest_id"`
}

// Post is one entry in a quest's timeline. LocationID snapshots the
// quest's location at posting time and never changes afterwards.
type Post struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	QuestID      int64     `gorm:"index;not null" json:"quest_id"`
	CharacterID  int64     `gorm:"index;not null" json:"character_id"`
	LocationID   int64     `gorm:"not null" json:"location_id"`
	Content      string    `gorm:"type:text;not null" json:"content"`
	DateCreated  time.Time `gorm:"autoCreateTime" json:"date_created"`
	DateModified time.Time `gorm:"autoUpdateTime" json:"date_modified"`
}
