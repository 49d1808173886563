package model

import "gorm.io/gorm"

// allModels lists every model to be auto-migrated.
var allModels = []interface{}{
	&Account{},
	&Continent{},
	&Location{},
	&Race{},
	&CharacterProfile{},
	&Character{},
	&QuestProfile{},
	&Quest{},
	&QuestLocation{},
	&QuestCharacter{},
	&QuestFollower{},
	&Post{},
	&NotificationProfile{},
	&Notification{},
	&MessageProfile{},
	&MessageThread{},
	&PrivateMessage{},
	&AuditLog{},
}

// AutoMigrate creates or updates all tables in the given database.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(allModels...)
}
