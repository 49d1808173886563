package quest

import (
	"context"
	"errors"

	"github.com/sojrpg/server/apperr"
	"github.com/sojrpg/server/db"
	"github.com/sojrpg/server/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service implements the quest lifecycle: a quest is created through
// Initialise and stays active for good, accumulating ledger history and
// posts. Compound mutations run inside a single transaction so a
// partial write never leaves a quest between states.
type Service struct {
	db     *gorm.DB
	ledger *Ledger
	logger *zap.Logger
}

// NewService creates a quest Service.
func NewService(db *gorm.DB, logger *zap.Logger) *Service {
	return &Service{db: db, ledger: NewLedger(db), logger: logger}
}

// Ledger exposes the membership ledger for derived reads.
func (svc *Service) Ledger() *Ledger {
	return svc.ledger
}

// InitialiseParams carries everything a new quest needs.
type InitialiseParams struct {
	GMProfileID int64
	Title       string
	Description string
	FirstPost   string
	LocationID  int64
	CharacterID int64
}

// Initialise creates a quest in one transaction: persist the quest row
// with a collision-free slug, occupy the starting location, join the
// first character, make the game master follow the quest, and write the
// opening post.
func (svc *Service) Initialise(ctx context.Context, p InitialiseParams) (*model.Quest, error) {
	var q *model.Quest
	err := svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		slug, err := svc.availableSlug(tx, Slugify(p.Title))
		if err != nil {
			return err
		}
		q = &model.Quest{
			Title:       p.Title,
			Slug:        slug,
			Description: p.Description,
			GMProfileID: p.GMProfileID,
		}
		if err := tx.Create(q).Error; err != nil {
			if db.IsUniqueViolation(err) {
				return apperr.Conflict("quest title already taken")
			}
			return err
		}

		ledger := svc.ledger.WithTx(tx)
		if _, err := ledger.JoinLocation(ctx, q.ID, p.LocationID); err != nil {
			return err
		}
		if _, err := ledger.JoinCharacter(ctx, q.ID, p.CharacterID); err != nil {
			return err
		}
		if err := followTx(tx, p.GMProfileID, q.ID); err != nil {
			return err
		}
		post := &model.Post{
			QuestID:     q.ID,
			CharacterID: p.CharacterID,
			LocationID:  p.LocationID,
			Content:     p.FirstPost,
		}
		return tx.Create(post).Error
	})
	if err != nil {
		return nil, txError("initialise quest", err)
	}
	svc.logger.Info("quest initialised",
		zap.Int64("quest_id", q.ID),
		zap.String("slug", q.Slug),
		zap.Int64("gm_profile_id", p.GMProfileID))
	return q, nil
}

// MoveToLocation departs the quest's current location and occupies the
// new one, atomically. Moving to the current location is a conflict,
// not a no-op; re-entering a previously departed location is allowed.
func (svc *Service) MoveToLocation(ctx context.Context, questID, locationID int64) error {
	err := svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ledger := svc.ledger.WithTx(tx)
		current, err := ledger.CurrentLocation(ctx, questID)
		if err != nil {
			return err
		}
		if current != nil {
			if current.LocationID == locationID {
				return ErrAlreadyAtLocation
			}
			if _, err := ledger.DepartLocation(ctx, questID); err != nil {
				return err
			}
		}
		_, err = ledger.JoinLocation(ctx, questID, locationID)
		return err
	})
	if err != nil {
		return txError("move quest", err)
	}
	svc.logger.Info("quest moved",
		zap.Int64("quest_id", questID),
		zap.Int64("location_id", locationID))
	return nil
}

// AddCharacter joins a character to the quest. The cross-quest
// invariant is enforced here as well as at the ledger: a character
// active anywhere may not join, even though callers are expected to
// offer only available characters.
func (svc *Service) AddCharacter(ctx context.Context, questID, characterID int64) error {
	_, err := svc.ledger.JoinCharacter(ctx, questID, characterID)
	if err != nil {
		return err
	}
	svc.logger.Info("character joined quest",
		zap.Int64("quest_id", questID),
		zap.Int64("character_id", characterID))
	return nil
}

// RemoveCharacter departs a character from the quest. The membership
// row survives with its departure stamp; a quest left with zero active
// characters stays active.
func (svc *Service) RemoveCharacter(ctx context.Context, questID, characterID int64) error {
	_, err := svc.ledger.DepartCharacter(ctx, questID, characterID)
	if err != nil {
		return err
	}
	svc.logger.Info("character departed quest",
		zap.Int64("quest_id", questID),
		zap.Int64("character_id", characterID))
	return nil
}

// CreatePost appends a post to the quest's timeline, snapshotting the
// quest's current location. Only an active member may post.
func (svc *Service) CreatePost(ctx context.Context, questID, characterID int64, content string) (*model.Post, error) {
	var post *model.Post
	err := svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ledger := svc.ledger.WithTx(tx)
		var member model.QuestCharacter
		err := tx.Where("quest_id = ? AND character_id = ? AND date_departed IS NULL", questID, characterID).
			First(&member).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotOnQuest
		}
		if err != nil {
			return err
		}
		current, err := ledger.CurrentLocation(ctx, questID)
		if err != nil {
			return err
		}
		if current == nil {
			return ErrNoActiveLocation
		}
		post = &model.Post{
			QuestID:     questID,
			CharacterID: characterID,
			LocationID:  current.LocationID,
			Content:     content,
		}
		return tx.Create(post).Error
	})
	if err != nil {
		return nil, txError("create post", err)
	}
	return post, nil
}

// Posts returns the quest's timeline in creation order.
func (svc *Service) Posts(ctx context.Context, questID int64) ([]model.Post, error) {
	var posts []model.Post
	err := svc.db.WithContext(ctx).
		Where("quest_id = ?", questID).
		Order("date_created, id").
		Find(&posts).Error
	return posts, err
}

// Follow adds the quest to the profile's followed set. Idempotent.
func (svc *Service) Follow(ctx context.Context, profileID, questID int64) error {
	return followTx(svc.db.WithContext(ctx), profileID, questID)
}

// Unfollow removes the quest from the profile's followed set.
func (svc *Service) Unfollow(ctx context.Context, profileID, questID int64) error {
	return svc.db.WithContext(ctx).
		Where("quest_profile_id = ? AND quest_id = ?", profileID, questID).
		Delete(&model.QuestFollower{}).Error
}

// Following returns the quests the profile follows.
func (svc *Service) Following(ctx context.Context, profileID int64) ([]model.Quest, error) {
	var quests []model.Quest
	err := svc.db.WithContext(ctx).
		Joins("JOIN quest_followers qf ON qf.quest_id = quests.id").
		Where("qf.quest_profile_id = ?", profileID).
		Find(&quests).Error
	return quests, err
}

// QuestBySlug resolves a quest by its slug.
func (svc *Service) QuestBySlug(ctx context.Context, slug string) (*model.Quest, error) {
	var q model.Quest
	err := svc.db.WithContext(ctx).Where("slug = ?", slug).First(&q).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrQuestNotFound
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// QuestByID resolves a quest by primary key.
func (svc *Service) QuestByID(ctx context.Context, id int64) (*model.Quest, error) {
	var q model.Quest
	err := svc.db.WithContext(ctx).First(&q, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrQuestNotFound
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// ProfileByAccount resolves the account's quest profile.
func (svc *Service) ProfileByAccount(ctx context.Context, accountID int64) (*model.QuestProfile, error) {
	var p model.QuestProfile
	err := svc.db.WithContext(ctx).Where("account_id = ?", accountID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("quest profile not found")
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// availableSlug finds a free slug by prepending hyphens to the
// candidate until no existing quest claims it.
func (svc *Service) availableSlug(tx *gorm.DB, slug string) (string, error) {
	for {
		var count int64
		if err := tx.Model(&model.Quest{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return slug, nil
		}
		slug = "-" + slug
	}
}

// followTx is the idempotent set-add behind Follow and Initialise.
func followTx(tx *gorm.DB, profileID, questID int64) error {
	follower := &model.QuestFollower{QuestProfileID: profileID, QuestID: questID}
	err := tx.Where("quest_profile_id = ? AND quest_id = ?", profileID, questID).
		FirstOrCreate(follower).Error
	return err
}

// txError passes domain errors through untouched and wraps storage
// failures so a rolled-back compound mutation is distinguishable.
func txError(op string, err error) error {
	if err == nil {
		return nil
	}
	if apperr.CodeOf(err) != apperr.CodeUnknown {
		return err
	}
	return apperr.TxFailure(op+" failed", err)
}
