package message

import (
	"context"
	"errors"
	"time"

	"github.com/sojrpg/server/apperr"
	"github.com/sojrpg/server/game/notification"
	"github.com/sojrpg/server/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrThreadNotFound  = apperr.NotFound("message thread not found")
	ErrProfileNotFound = apperr.NotFound("message profile not found")
	ErrSelfMessage     = apperr.InvalidArg("cannot message yourself")
)

// Service handles private messages. Delivery duplicates each message
// into a thread per participant, so both views stay self-contained and
// independently orderable.
type Service struct {
	db            *gorm.DB
	notifications *notification.Service
	logger        *zap.Logger
}

// NewService creates a message Service.
func NewService(db *gorm.DB, notifications *notification.Service, logger *zap.Logger) *Service {
	return &Service{db: db, notifications: notifications, logger: logger}
}

// ThreadSummary is a thread annotated for the inbox listing.
type ThreadSummary struct {
	model.MessageThread
	MessageCount int64      `json:"message_count"`
	LastUpdated  *time.Time `json:"last_updated"`
	OtherPenName string     `json:"other_pen_name"`
}

// SendMessage delivers text from one profile to another: a copy into
// the receiver's thread, a copy into the sender's thread, then a
// message notification for the receiver that collapses with any unseen
// one from the same thread. Returns (received, sent).
func (svc *Service) SendMessage(ctx context.Context, fromProfileID, toProfileID int64, text string) (*model.PrivateMessage, *model.PrivateMessage, error) {
	if fromProfileID == toProfileID {
		return nil, nil, ErrSelfMessage
	}

	var received, sent *model.PrivateMessage
	var receiverThread *model.MessageThread
	err := svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		receiverThread, err = getOrCreateThread(tx, toProfileID, fromProfileID)
		if err != nil {
			return err
		}
		received = &model.PrivateMessage{
			MessageThreadID: receiverThread.ID,
			SenderProfileID: fromProfileID,
			Message:         text,
		}
		if err := tx.Create(received).Error; err != nil {
			return err
		}

		senderThread, err := getOrCreateThread(tx, fromProfileID, toProfileID)
		if err != nil {
			return err
		}
		sent = &model.PrivateMessage{
			MessageThreadID: senderThread.ID,
			SenderProfileID: fromProfileID,
			Message:         text,
		}
		return tx.Create(sent).Error
	})
	if err != nil {
		if apperr.CodeOf(err) != apperr.CodeUnknown {
			return nil, nil, err
		}
		return nil, nil, apperr.TxFailure("send message failed", err)
	}

	// Notify against the receiver's copy, so the notification renders
	// and links within their own thread view.
	if err := svc.notifyReceiver(ctx, toProfileID, receiverThread.ID, received.ID); err != nil {
		svc.logger.Warn("message notification failed",
			zap.Int64("to_profile_id", toProfileID),
			zap.Error(err))
	}

	return received, sent, nil
}

// Threads returns the profile's threads annotated with message count
// and last activity, most recently active first.
func (svc *Service) Threads(ctx context.Context, profileID int64) ([]ThreadSummary, error) {
	var summaries []ThreadSummary
	err := svc.db.WithContext(ctx).Model(&model.MessageThread{}).
		Select("message_threads.*, COUNT(pm.id) AS message_count, MAX(pm.date_created) AS last_updated, accounts.pen_name AS other_pen_name").
		Joins("LEFT JOIN private_messages pm ON pm.message_thread_id = message_threads.id").
		Joins("JOIN message_profiles op ON op.id = message_threads.other_profile_id").
		Joins("JOIN accounts ON accounts.id = op.account_id").
		Where("message_threads.owner_profile_id = ?", profileID).
		Group("message_threads.id, accounts.pen_name").
		Order("last_updated DESC, message_threads.id DESC").
		Scan(&summaries).Error
	return summaries, err
}

// ThreadMessages returns a thread's messages in order; the thread must
// belong to the profile.
func (svc *Service) ThreadMessages(ctx context.Context, profileID, threadID int64) ([]model.PrivateMessage, error) {
	var thread model.MessageThread
	err := svc.db.WithContext(ctx).
		Where("id = ? AND owner_profile_id = ?", threadID, profileID).
		First(&thread).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrThreadNotFound
	}
	if err != nil {
		return nil, err
	}

	var messages []model.PrivateMessage
	err = svc.db.WithContext(ctx).
		Where("message_thread_id = ?", threadID).
		Order("date_created, id").
		Find(&messages).Error
	return messages, err
}

// ReceivedMessages returns every message delivered to the profile.
func (svc *Service) ReceivedMessages(ctx context.Context, profileID int64) ([]model.PrivateMessage, error) {
	var messages []model.PrivateMessage
	err := svc.db.WithContext(ctx).
		Joins("JOIN message_threads mt ON mt.id = private_messages.message_thread_id").
		Where("mt.owner_profile_id = ? AND private_messages.sender_profile_id <> ?", profileID, profileID).
		Order("private_messages.date_created, private_messages.id").
		Find(&messages).Error
	return messages, err
}

// SentMessages returns every message the profile sent, from its own
// thread copies.
func (svc *Service) SentMessages(ctx context.Context, profileID int64) ([]model.PrivateMessage, error) {
	var messages []model.PrivateMessage
	err := svc.db.WithContext(ctx).
		Joins("JOIN message_threads mt ON mt.id = private_messages.message_thread_id").
		Where("mt.owner_profile_id = ? AND private_messages.sender_profile_id = ?", profileID, profileID).
		Order("private_messages.date_created, private_messages.id").
		Find(&messages).Error
	return messages, err
}

// ProfileByAccount resolves the account's message profile.
func (svc *Service) ProfileByAccount(ctx context.Context, accountID int64) (*model.MessageProfile, error) {
	var p model.MessageProfile
	err := svc.db.WithContext(ctx).Where("account_id = ?", accountID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ProfileByPenName resolves a message profile by the owning account's
// pen name.
func (svc *Service) ProfileByPenName(ctx context.Context, penName string) (*model.MessageProfile, error) {
	var p model.MessageProfile
	err := svc.db.WithContext(ctx).
		Joins("JOIN accounts ON accounts.id = message_profiles.account_id").
		Where("accounts.pen_name = ?", penName).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// notifyReceiver bridges from the message profile to the same account's
// notification profile before delivering.
func (svc *Service) notifyReceiver(ctx context.Context, toProfileID, threadID, messageID int64) error {
	var toProfile model.MessageProfile
	if err := svc.db.WithContext(ctx).First(&toProfile, toProfileID).Error; err != nil {
		return err
	}
	notifyProfile, err := svc.notifications.ProfileByAccount(ctx, toProfile.AccountID)
	if err != nil {
		return err
	}
	_, err = svc.notifications.NotifyMessage(ctx, notifyProfile.ID, threadID, messageID)
	return err
}

func getOrCreateThread(tx *gorm.DB, ownerID, otherID int64) (*model.MessageThread, error) {
	thread := &model.MessageThread{OwnerProfileID: ownerID, OtherProfileID: otherID}
	err := tx.Where("owner_profile_id = ? AND other_profile_id = ?", ownerID, otherID).
		FirstOrCreate(thread).Error
	if err != nil {
		return nil, err
	}
	return thread, nil
}
