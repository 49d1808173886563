package account

import (
	"context"
	"testing"
	"time"

	"github.com/sojrpg/server/config"
	mw "github.com/sojrpg/server/middleware"
	"github.com/sojrpg/server/model"
	"github.com/sojrpg/server/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func testSecurity() config.SecurityConfig {
	return config.SecurityConfig{
		JWTSecret:  "test-secret",
		JWTTTL:     time.Hour,
		BcryptCost: 4, // min cost, tests only
	}
}

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	c, _ := testutil.SetupTestCache(t)
	svc := NewService(db, c, testSecurity(), config.GameConfig{DefaultSlots: 3}, zap.NewNop())
	return svc, db
}

func TestRegister_ProvisionsProfiles(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	acc, err := svc.Register(ctx, "margaery", "m@example.com", "hunter22")
	require.NoError(t, err)
	assert.False(t, acc.IsActive)
	assert.NotEmpty(t, acc.ActivationToken)
	assert.NotEqual(t, "hunter22", acc.PasswordHash)

	// All four dependent profiles exist from the same transaction.
	var cp model.CharacterProfile
	require.NoError(t, db.Where("account_id = ?", acc.ID).First(&cp).Error)
	assert.Equal(t, 3, cp.Slots)
	require.NoError(t, db.Where("account_id = ?", acc.ID).First(&model.QuestProfile{}).Error)
	require.NoError(t, db.Where("account_id = ?", acc.ID).First(&model.NotificationProfile{}).Error)
	require.NoError(t, db.Where("account_id = ?", acc.ID).First(&model.MessageProfile{}).Error)
}

func TestRegister_Duplicates(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "margaery", "m@example.com", "hunter22")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "margaery", "other@example.com", "hunter22")
	assert.ErrorIs(t, err, ErrPenNameTaken)

	_, err = svc.Register(ctx, "other", "m@example.com", "hunter22")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestActivate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	acc, err := svc.Register(ctx, "margaery", "m@example.com", "hunter22")
	require.NoError(t, err)

	activated, err := svc.Activate(ctx, acc.ActivationToken)
	require.NoError(t, err)
	assert.True(t, activated.IsActive)
	assert.Empty(t, activated.ActivationToken)

	// The token is single-use.
	_, err = svc.Activate(ctx, acc.ActivationToken)
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestLogin(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	acc, err := svc.Register(ctx, "margaery", "m@example.com", "hunter22")
	require.NoError(t, err)

	// Not yet activated.
	_, _, err = svc.Login(ctx, "margaery", "hunter22", "127.0.0.1")
	assert.ErrorIs(t, err, ErrNotActivated)

	_, err = svc.Activate(ctx, acc.ActivationToken)
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "margaery", "wrong", "127.0.0.1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = svc.Login(ctx, "nobody", "hunter22", "127.0.0.1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	token, got, err := svc.Login(ctx, "margaery", "hunter22", "127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, acc.ID, got.ID)

	claims, err := mw.ParseToken(token, testSecurity().JWTSecret)
	require.NoError(t, err)
	assert.Equal(t, acc.ID, claims.AccountID)
}

func TestLogoutInvalidatesSession(t *testing.T) {
	db := testutil.SetupTestDB(t)
	c, _ := testutil.SetupTestCache(t)
	svc := NewService(db, c, testSecurity(), config.GameConfig{DefaultSlots: 1}, zap.NewNop())
	ctx := context.Background()

	acc, err := svc.Register(ctx, "margaery", "m@example.com", "hunter22")
	require.NoError(t, err)
	_, err = svc.Activate(ctx, acc.ActivationToken)
	require.NoError(t, err)
	token, _, err := svc.Login(ctx, "margaery", "hunter22", "")
	require.NoError(t, err)

	exists, err := c.Exists(ctx, "session:"+token)
	require.NoError(t, err)
	assert.True(t, exists)

	svc.Logout(ctx, token)
	exists, err = c.Exists(ctx, "session:"+token)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRefresh(t *testing.T) {
	db := testutil.SetupTestDB(t)
	c, _ := testutil.SetupTestCache(t)
	svc := NewService(db, c, testSecurity(), config.GameConfig{DefaultSlots: 1}, zap.NewNop())
	ctx := context.Background()

	acc, err := svc.Register(ctx, "margaery", "m@example.com", "hunter22")
	require.NoError(t, err)
	_, err = svc.Activate(ctx, acc.ActivationToken)
	require.NoError(t, err)
	oldToken, _, err := svc.Login(ctx, "margaery", "hunter22", "")
	require.NoError(t, err)

	newToken, err := svc.Refresh(ctx, oldToken, acc.ID)
	require.NoError(t, err)

	oldExists, err := c.Exists(ctx, "session:"+oldToken)
	require.NoError(t, err)
	assert.False(t, oldExists)
	newExists, err := c.Exists(ctx, "session:"+newToken)
	require.NoError(t, err)
	assert.True(t, newExists)
}
