package account

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sojrpg/server/apperr"
	"github.com/sojrpg/server/cache"
	"github.com/sojrpg/server/config"
	sojdb "github.com/sojrpg/server/db"
	mw "github.com/sojrpg/server/middleware"
	"github.com/sojrpg/server/model"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrPenNameTaken       = apperr.Conflict("pen name already taken")
	ErrEmailTaken         = apperr.Conflict("email already registered")
	ErrInvalidCredentials = apperr.Unauthorized("invalid credentials")
	ErrNotActivated       = apperr.Forbidden("account not activated")
	ErrTokenNotFound      = apperr.NotFound("activation token not found")
)

// Service owns identity: registration, activation and login. Dependent
// profiles (character, quest, notification, message) are provisioned in
// the same transaction as the account row, so every downstream
// component may assume they exist.
type Service struct {
	db     *gorm.DB
	cache  cache.Cache
	sec    config.SecurityConfig
	game   config.GameConfig
	logger *zap.Logger
}

// NewService creates an account Service.
func NewService(db *gorm.DB, c cache.Cache, sec config.SecurityConfig, game config.GameConfig, logger *zap.Logger) *Service {
	return &Service{db: db, cache: c, sec: sec, game: game, logger: logger}
}

// Register creates an inactive account plus its four dependent profiles
// in one transaction. The returned account carries the activation token
// for the mailer to deliver.
func (svc *Service) Register(ctx context.Context, penName, email, password string) (*model.Account, error) {
	cost := svc.sec.BcryptCost
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return nil, err
	}

	slots := svc.game.DefaultSlots
	if slots <= 0 {
		slots = 1
	}

	acc := &model.Account{
		PenName:         penName,
		Email:           email,
		PasswordHash:    string(hash),
		ActivationToken: uuid.New().String(),
	}
	err = svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(acc).Error; err != nil {
			return err
		}
		profiles := []interface{}{
			&model.CharacterProfile{AccountID: acc.ID, Slots: slots},
			&model.QuestProfile{AccountID: acc.ID},
			&model.NotificationProfile{AccountID: acc.ID},
			&model.MessageProfile{AccountID: acc.ID},
		}
		for _, p := range profiles {
			if err := tx.Create(p).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if sojdb.IsUniqueViolation(err) {
			var existing model.Account
			if svc.db.WithContext(ctx).Where("email = ?", email).First(&existing).Error == nil {
				return nil, ErrEmailTaken
			}
			return nil, ErrPenNameTaken
		}
		return nil, apperr.TxFailure("register failed", err)
	}

	svc.logger.Info("account registered",
		zap.Int64("account_id", acc.ID),
		zap.String("pen_name", acc.PenName))
	return acc, nil
}

// Activate flips the account active by its activation token.
func (svc *Service) Activate(ctx context.Context, token string) (*model.Account, error) {
	var acc model.Account
	err := svc.db.WithContext(ctx).
		Where("activation_token = ? AND is_active = ?", token, false).
		First(&acc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"is_active": true, "activation_token": ""}
	if err := svc.db.WithContext(ctx).Model(&acc).Updates(updates).Error; err != nil {
		return nil, err
	}
	acc.IsActive = true
	acc.ActivationToken = ""
	return &acc, nil
}

// Login verifies credentials against an activated account and issues a
// JWT plus a cache-backed session.
func (svc *Service) Login(ctx context.Context, penName, password, ip string) (string, *model.Account, error) {
	var acc model.Account
	err := svc.db.WithContext(ctx).Where("pen_name = ?", penName).First(&acc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}
	if !acc.IsActive {
		return "", nil, ErrNotActivated
	}

	token, err := mw.GenerateToken(acc.ID, svc.sec.JWTSecret, svc.sec.JWTTTL)
	if err != nil {
		return "", nil, err
	}
	_ = svc.cache.Set(ctx, "session:"+token, strconv.FormatInt(acc.ID, 10), svc.sec.JWTTTL)

	// Best-effort last-login bookkeeping.
	now := time.Now()
	_ = svc.db.WithContext(ctx).Model(&acc).Updates(map[string]interface{}{
		"last_login_at": now,
		"last_login_ip": ip,
	}).Error

	return token, &acc, nil
}

// Logout invalidates the session token.
func (svc *Service) Logout(ctx context.Context, token string) {
	_ = svc.cache.Del(ctx, "session:"+token)
}

// Refresh rotates the session: the old token is invalidated and a new
// one issued.
func (svc *Service) Refresh(ctx context.Context, oldToken string, accountID int64) (string, error) {
	_ = svc.cache.Del(ctx, "session:"+oldToken)
	token, err := mw.GenerateToken(accountID, svc.sec.JWTSecret, svc.sec.JWTTTL)
	if err != nil {
		return "", err
	}
	_ = svc.cache.Set(ctx, "session:"+token, strconv.FormatInt(accountID, 10), svc.sec.JWTTTL)
	return token, nil
}

// AccountByID resolves an account by primary key.
func (svc *Service) AccountByID(ctx context.Context, id int64) (*model.Account, error) {
	var acc model.Account
	err := svc.db.WithContext(ctx).First(&acc, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("account not found")
	}
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

// AccountByPenName resolves an account by pen name.
func (svc *Service) AccountByPenName(ctx context.Context, penName string) (*model.Account, error) {
	var acc model.Account
	err := svc.db.WithContext(ctx).Where("pen_name = ?", penName).First(&acc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("account not found")
	}
	if err != nil {
		return nil, err
	}
	return &acc, nil
}
