package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sojrpg/server/apperr"
	"github.com/sojrpg/server/cache"
	"github.com/sojrpg/server/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrNotificationNotFound = apperr.NotFound("notification not found")
	ErrProfileNotFound      = apperr.NotFound("notification profile not found")
)

// Service is the polymorphic inbox. Each notification is one row in a
// single table with a kind discriminator; rendering dispatches on the
// kind. Unseen counts are cached, and every delivery publishes an event
// so connected clients see the inbox change without polling.
type Service struct {
	db       *gorm.DB
	cache    cache.Cache
	pubsub   cache.PubSub
	logger   *zap.Logger
	countTTL time.Duration
}

// NewService creates a notification Service.
func NewService(db *gorm.DB, c cache.Cache, ps cache.PubSub, countTTL time.Duration, logger *zap.Logger) *Service {
	if countTTL <= 0 {
		countTTL = 30 * time.Second
	}
	return &Service{db: db, cache: c, pubsub: ps, logger: logger, countTTL: countTTL}
}

// EventChannel names the pub/sub channel carrying a profile's
// notification events.
func EventChannel(profileID int64) string {
	return fmt.Sprintf("notify:%d", profileID)
}

// Send delivers a generic text notification to the profile's inbox.
func (svc *Service) Send(ctx context.Context, profileID int64, text string) (*model.Notification, error) {
	n := &model.Notification{
		NotificationProfileID: profileID,
		Kind:                  model.NotificationGeneric,
		Text:                  text,
	}
	if err := svc.db.WithContext(ctx).Create(n).Error; err != nil {
		return nil, err
	}
	svc.delivered(ctx, n)
	return n, nil
}

// NotifyMessage delivers a message notification for the given private
// message, collapsing with an existing unseen notification from the
// same thread: rather than stacking one notification per message, the
// unseen one is re-pointed at the latest message.
func (svc *Service) NotifyMessage(ctx context.Context, profileID, threadID, privateMessageID int64) (*model.Notification, error) {
	var existing model.Notification
	err := svc.db.WithContext(ctx).
		Joins("JOIN private_messages pm ON pm.id = notifications.private_message_id").
		Where("notifications.notification_profile_id = ? AND notifications.kind = ? AND notifications.date_seen IS NULL", profileID, model.NotificationMessage).
		Where("pm.message_thread_id = ?", threadID).
		First(&existing).Error

	if err == nil {
		existing.PrivateMessageID = &privateMessageID
		if err := svc.db.WithContext(ctx).Save(&existing).Error; err != nil {
			return nil, err
		}
		svc.delivered(ctx, &existing)
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	n := &model.Notification{
		NotificationProfileID: profileID,
		Kind:                  model.NotificationMessage,
		PrivateMessageID:      &privateMessageID,
	}
	if err := svc.db.WithContext(ctx).Create(n).Error; err != nil {
		return nil, err
	}
	svc.delivered(ctx, n)
	return n, nil
}

// Unseen returns the profile's unseen notifications, newest first.
func (svc *Service) Unseen(ctx context.Context, profileID int64) ([]model.Notification, error) {
	var notifications []model.Notification
	err := svc.db.WithContext(ctx).
		Where("notification_profile_id = ? AND date_seen IS NULL", profileID).
		Order("date_created DESC, id DESC").
		Find(&notifications).Error
	return notifications, err
}

// UnseenCount returns the cached unseen count, recomputing on miss.
func (svc *Service) UnseenCount(ctx context.Context, profileID int64) (int64, error) {
	key := countKey(profileID)
	if v, err := svc.cache.Get(ctx, key); err == nil {
		if n, perr := strconv.ParseInt(v, 10, 64); perr == nil {
			return n, nil
		}
	}
	var count int64
	err := svc.db.WithContext(ctx).Model(&model.Notification{}).
		Where("notification_profile_id = ? AND date_seen IS NULL", profileID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	_ = svc.cache.Set(ctx, key, strconv.FormatInt(count, 10), svc.countTTL)
	return count, nil
}

// MarkSeen stamps the notification as seen. Seeing is a one-way
// transition: an already-seen or foreign notification is not found,
// since callers address notifications through the unseen set.
func (svc *Service) MarkSeen(ctx context.Context, profileID, notificationID int64) error {
	now := time.Now()
	result := svc.db.WithContext(ctx).Model(&model.Notification{}).
		Where("id = ? AND notification_profile_id = ? AND date_seen IS NULL", notificationID, profileID).
		Update("date_seen", now)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotificationNotFound
	}
	_ = svc.cache.Del(ctx, countKey(profileID))
	return nil
}

// Render produces the user-facing text for a notification, dispatching
// on its kind. An unknown kind is a programming error in a new variant,
// not a user condition.
func (svc *Service) Render(ctx context.Context, n *model.Notification) (string, error) {
	switch n.Kind {
	case model.NotificationGeneric:
		return n.Text, nil
	case model.NotificationMessage:
		if n.PrivateMessageID == nil {
			return "", apperr.Internal("message notification without message")
		}
		return svc.renderMessage(ctx, *n.PrivateMessageID)
	default:
		return "", apperr.Unimplemented(fmt.Sprintf("no renderer for notification kind %q", n.Kind))
	}
}

// Prune deletes seen notifications older than the retention period and
// returns how many rows went away. Unseen notifications are never pruned.
func (svc *Service) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	result := svc.db.WithContext(ctx).
		Where("date_seen IS NOT NULL AND date_seen < ?", cutoff).
		Delete(&model.Notification{})
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected > 0 {
		svc.logger.Info("pruned seen notifications", zap.Int64("count", result.RowsAffected))
	}
	return result.RowsAffected, nil
}

// ProfileByAccount resolves the account's notification profile.
func (svc *Service) ProfileByAccount(ctx context.Context, accountID int64) (*model.NotificationProfile, error) {
	var p model.NotificationProfile
	err := svc.db.WithContext(ctx).Where("account_id = ?", accountID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

const messagePreviewLen = 30

func (svc *Service) renderMessage(ctx context.Context, privateMessageID int64) (string, error) {
	var row struct {
		Message string
		PenName string
	}
	err := svc.db.WithContext(ctx).Model(&model.PrivateMessage{}).
		Select("private_messages.message AS message, accounts.pen_name AS pen_name").
		Joins("JOIN message_profiles mp ON mp.id = private_messages.sender_profile_id").
		Joins("JOIN accounts ON accounts.id = mp.account_id").
		Where("private_messages.id = ?", privateMessageID).
		Scan(&row).Error
	if err != nil {
		return "", err
	}
	if row.PenName == "" {
		return "", ErrNotificationNotFound
	}
	preview := row.Message
	if runes := []rune(preview); len(runes) > messagePreviewLen {
		preview = string(runes[:messagePreviewLen]) + "…"
	}
	return fmt.Sprintf("New message from %s: %s", row.PenName, preview), nil
}

// delivered invalidates the cached count and publishes the inbox event.
func (svc *Service) delivered(ctx context.Context, n *model.Notification) {
	_ = svc.cache.Del(ctx, countKey(n.NotificationProfileID))
	payload, err := json.Marshal(map[string]interface{}{
		"id":           n.ID,
		"kind":         n.Kind,
		"date_created": n.DateCreated,
	})
	if err != nil {
		return
	}
	if err := svc.pubsub.Publish(ctx, EventChannel(n.NotificationProfileID), string(payload)); err != nil {
		svc.logger.Warn("notification event publish failed",
			zap.Int64("profile_id", n.NotificationProfileID),
			zap.Error(err))
	}
}

func countKey(profileID int64) string {
	return fmt.Sprintf("notify:count:%d", profileID)
}
