package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/sojrpg/server/cache"
	"github.com/sojrpg/server/config"
	dbsqlite "github.com/sojrpg/server/db/sqlite"
	"github.com/sojrpg/server/model"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var dbSeq atomic.Int64

// SetupTestDB creates a private in-memory SQLite DB and runs
// AutoMigrate. It requires no external services and is safe to use in
// parallel tests; each call gets its own database.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := dbsqlite.Open(dsn)
	require.NoError(t, err, "SetupTestDB: Open")
	require.NoError(t, model.AutoMigrate(db), "SetupTestDB: AutoMigrate")
	return db
}

// SetupTestCache creates a LocalCache and LocalPubSub (no Redis required).
func SetupTestCache(t *testing.T) (cache.Cache, cache.PubSub) {
	t.Helper()
	cfg := config.CacheConfig{} // empty RedisAddr → LocalCache
	c, err := cache.NewCache(cfg)
	require.NoError(t, err, "SetupTestCache: NewCache")
	ps, err := cache.NewPubSub(cfg)
	require.NoError(t, err, "SetupTestCache: NewPubSub")
	return c, ps
}
