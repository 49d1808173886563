package quest

import (
	"context"
	"errors"
	"time"

	"github.com/sojrpg/server/model"
	"gorm.io/gorm"
)

// Ledger is the temporal membership store for quests. It keeps two
// symmetric append-only sub-ledgers: location occupancy and character
// membership. A row with a null date_departed is "active"; departing
// stamps the timestamp instead of deleting, so the full join/leave
// history stays queryable.
type Ledger struct {
	db *gorm.DB
}

// NewLedger creates a Ledger over the given database handle.
func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// WithTx returns a Ledger bound to the given transaction handle, so
// compound mutations read their own uncommitted writes.
func (l *Ledger) WithTx(tx *gorm.DB) *Ledger {
	return &Ledger{db: tx}
}

// ---- location occupancy ----

// JoinLocation appends an active occupancy row. The quest must not
// currently occupy any location; MoveToLocation departs first.
func (l *Ledger) JoinLocation(ctx context.Context, questID, locationID int64) (*model.QuestLocation, error) {
	current, err := l.CurrentLocation(ctx, questID)
	if err != nil {
		return nil, err
	}
	if current != nil {
		if current.LocationID == locationID {
			return nil, ErrAlreadyAtLocation
		}
		return nil, ErrLocationActive
	}
	row := &model.QuestLocation{QuestID: questID, LocationID: locationID}
	if err := l.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// DepartLocation stamps the active occupancy row for the quest.
func (l *Ledger) DepartLocation(ctx context.Context, questID int64) (*model.QuestLocation, error) {
	current, err := l.CurrentLocation(ctx, questID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ErrNoActiveLocation
	}
	now := time.Now()
	current.DateDeparted = &now
	if err := l.db.WithContext(ctx).Save(current).Error; err != nil {
		return nil, err
	}
	return current, nil
}

// CurrentLocation returns the active occupancy row, or nil when the
// quest has never moved anywhere.
func (l *Ledger) CurrentLocation(ctx context.Context, questID int64) (*model.QuestLocation, error) {
	var row model.QuestLocation
	err := l.db.WithContext(ctx).
		Where("quest_id = ? AND date_departed IS NULL", questID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// LocationHistory returns every occupancy row for the quest in join
// order, active row included.
func (l *Ledger) LocationHistory(ctx context.Context, questID int64) ([]model.QuestLocation, error) {
	var rows []model.QuestLocation
	err := l.db.WithContext(ctx).
		Where("quest_id = ?", questID).
		Order("date_created, id").
		Find(&rows).Error
	return rows, err
}

// FormerLocations returns departed occupancy rows in join order.
func (l *Ledger) FormerLocations(ctx context.Context, questID int64) ([]model.QuestLocation, error) {
	var rows []model.QuestLocation
	err := l.db.WithContext(ctx).
		Where("quest_id = ? AND date_departed IS NOT NULL", questID).
		Order("date_created, id").
		Find(&rows).Error
	return rows, err
}

// CurrentQuests returns the quests occupying the location right now, in
// arrival order.
func (l *Ledger) CurrentQuests(ctx context.Context, locationID int64) ([]model.Quest, error) {
	var quests []model.Quest
	err := l.db.WithContext(ctx).
		Joins("JOIN quest_locations ql ON ql.quest_id = quests.id").
		Where("ql.location_id = ? AND ql.date_departed IS NULL", locationID).
		Order("ql.date_created, ql.id").
		Find(&quests).Error
	return quests, err
}

// FormerQuests returns quests holding at least one departed occupancy
// row at the location. A quest that left and came back still appears
// here, matching FormerCharacters.
func (l *Ledger) FormerQuests(ctx context.Context, locationID int64) ([]model.Quest, error) {
	var quests []model.Quest
	err := l.db.WithContext(ctx).
		Distinct("quests.*").
		Joins("JOIN quest_locations ql ON ql.quest_id = quests.id").
		Where("ql.location_id = ? AND ql.date_departed IS NOT NULL", locationID).
		Find(&quests).Error
	return quests, err
}

// ---- character membership ----

// JoinCharacter appends an active membership row. A character may hold
// at most one active row across all quests; violating that fails with
// a conflict before anything is written.
func (l *Ledger) JoinCharacter(ctx context.Context, questID, characterID int64) (*model.QuestCharacter, error) {
	active, err := l.ActiveMembership(ctx, characterID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		if active.QuestID == questID {
			return nil, ErrCharacterOnThisQuest
		}
		return nil, ErrCharacterOnQuest
	}
	row := &model.QuestCharacter{QuestID: questID, CharacterID: characterID}
	if err := l.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// DepartCharacter stamps the active membership row for the character on
// the given quest. Departing twice, or departing a character that never
// joined, fails with NotFound.
func (l *Ledger) DepartCharacter(ctx context.Context, questID, characterID int64) (*model.QuestCharacter, error) {
	var row model.QuestCharacter
	err := l.db.WithContext(ctx).
		Where("quest_id = ? AND character_id = ? AND date_departed IS NULL", questID, characterID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotOnQuest
	}
	if err != nil {
		return nil, err
	}
	now := time.Now()
	row.DateDeparted = &now
	if err := l.db.WithContext(ctx).Save(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// ActiveMembership returns the character's single active membership row
// across all quests, or nil.
func (l *Ledger) ActiveMembership(ctx context.Context, characterID int64) (*model.QuestCharacter, error) {
	var row model.QuestCharacter
	err := l.db.WithContext(ctx).
		Where("character_id = ? AND date_departed IS NULL", characterID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// CurrentCharacters returns the characters holding active membership
// rows on the quest, in join order.
func (l *Ledger) CurrentCharacters(ctx context.Context, questID int64) ([]model.Character, error) {
	var chars []model.Character
	err := l.db.WithContext(ctx).
		Joins("JOIN quest_characters qc ON qc.character_id = characters.id").
		Where("qc.quest_id = ? AND qc.date_departed IS NULL", questID).
		Order("qc.date_created, qc.id").
		Find(&chars).Error
	return chars, err
}

// FormerCharacters returns characters holding at least one departed
// membership row on the quest. A character that left and rejoined still
// appears here; the departed row is part of the quest's history.
func (l *Ledger) FormerCharacters(ctx context.Context, questID int64) ([]model.Character, error) {
	var chars []model.Character
	err := l.db.WithContext(ctx).
		Distinct("characters.*").
		Joins("JOIN quest_characters qc ON qc.character_id = characters.id").
		Where("qc.quest_id = ? AND qc.date_departed IS NOT NULL", questID).
		Find(&chars).Error
	return chars, err
}

// MembershipHistory returns every membership row for the quest in join
// order, for the timeline view.
func (l *Ledger) MembershipHistory(ctx context.Context, questID int64) ([]model.QuestCharacter, error) {
	var rows []model.QuestCharacter
	err := l.db.WithContext(ctx).
		Where("quest_id = ?", questID).
		Order("date_created, id").
		Find(&rows).Error
	return rows, err
}
