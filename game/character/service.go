package character

import (
	"context"
	"errors"

	"github.com/sojrpg/server/apperr"
	sojdb "github.com/sojrpg/server/db"
	"github.com/sojrpg/server/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrSlotsExhausted    = apperr.SlotsExhausted("no free character slots")
	ErrNameTaken         = apperr.Conflict("character name already taken")
	ErrCharacterNotFound = apperr.NotFound("character not found")
	ErrProfileNotFound   = apperr.NotFound("character profile not found")
)

// Service is the character registry: it owns character creation against
// the profile's slot quota and the derived "available" view over the
// quest membership ledger.
type Service struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewService creates a character Service.
func NewService(db *gorm.DB, logger *zap.Logger) *Service {
	return &Service{db: db, logger: logger}
}

// CreateParams carries the user-supplied character attributes.
type CreateParams struct {
	Name                string
	HomeTownID          int64
	RaceID              int64
	PhysicalDescription string
	Personality         string
	Skills              string
	FullBiography       string
}

// CreateCharacter creates a character for the profile, failing when the
// slot quota is already filled. The check-then-insert is not guarded by
// a constraint; concurrent creates can race past it, which the low
// per-profile write rate makes acceptable.
func (svc *Service) CreateCharacter(ctx context.Context, profileID int64, p CreateParams) (*model.Character, error) {
	profile, err := svc.ProfileByID(ctx, profileID)
	if err != nil {
		return nil, err
	}

	var count int64
	if err := svc.db.WithContext(ctx).Model(&model.Character{}).
		Where("character_profile_id = ?", profileID).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count >= int64(profile.Slots) {
		return nil, ErrSlotsExhausted
	}

	char := &model.Character{
		CharacterProfileID:  profileID,
		Name:                p.Name,
		HomeTownID:          p.HomeTownID,
		RaceID:              p.RaceID,
		PhysicalDescription: p.PhysicalDescription,
		Personality:         p.Personality,
		Skills:              p.Skills,
		FullBiography:       p.FullBiography,
	}
	if err := svc.db.WithContext(ctx).Create(char).Error; err != nil {
		if sojdb.IsUniqueViolation(err) {
			return nil, ErrNameTaken
		}
		return nil, err
	}
	svc.logger.Info("character created",
		zap.Int64("character_id", char.ID),
		zap.String("name", char.Name),
		zap.Int64("profile_id", profileID))
	return char, nil
}

// AvailableCharacters returns the profile's characters with no active
// quest membership: either every membership row is departed, or the
// character never joined a quest. Derived from the ledger, not stored.
func (svc *Service) AvailableCharacters(ctx context.Context, profileID int64) ([]model.Character, error) {
	var chars []model.Character
	err := svc.db.WithContext(ctx).
		Joins("LEFT JOIN quest_characters qc ON qc.character_id = characters.id AND qc.date_departed IS NULL").
		Where("characters.character_profile_id = ? AND qc.id IS NULL", profileID).
		Find(&chars).Error
	return chars, err
}

// HasFreeSlot reports whether the profile may create another character.
func (svc *Service) HasFreeSlot(ctx context.Context, profileID int64) (bool, error) {
	profile, err := svc.ProfileByID(ctx, profileID)
	if err != nil {
		return false, err
	}
	var count int64
	if err := svc.db.WithContext(ctx).Model(&model.Character{}).
		Where("character_profile_id = ?", profileID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count < int64(profile.Slots), nil
}

// CurrentQuest returns the quest the character is actively on, or nil.
// The ledger's cross-quest invariant guarantees at most one.
func (svc *Service) CurrentQuest(ctx context.Context, characterID int64) (*model.Quest, error) {
	var q model.Quest
	err := svc.db.WithContext(ctx).
		Joins("JOIN quest_characters qc ON qc.quest_id = quests.id").
		Where("qc.character_id = ? AND qc.date_departed IS NULL", characterID).
		First(&q).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// Characters returns all characters owned by the profile.
func (svc *Service) Characters(ctx context.Context, profileID int64) ([]model.Character, error) {
	var chars []model.Character
	err := svc.db.WithContext(ctx).
		Where("character_profile_id = ?", profileID).
		Find(&chars).Error
	return chars, err
}

// CharacterByID resolves a character by primary key.
func (svc *Service) CharacterByID(ctx context.Context, id int64) (*model.Character, error) {
	var char model.Character
	err := svc.db.WithContext(ctx).First(&char, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCharacterNotFound
	}
	if err != nil {
		return nil, err
	}
	return &char, nil
}

// ProfileByID resolves a character profile by primary key.
func (svc *Service) ProfileByID(ctx context.Context, id int64) (*model.CharacterProfile, error) {
	var profile model.CharacterProfile
	err := svc.db.WithContext(ctx).First(&profile, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// ProfileByAccount resolves the account's character profile.
func (svc *Service) ProfileByAccount(ctx context.Context, accountID int64) (*model.CharacterProfile, error) {
	var profile model.CharacterProfile
	err := svc.db.WithContext(ctx).Where("account_id = ?", accountID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}
