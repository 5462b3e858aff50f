package repository

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/example/maktabati/pkg/config"
)

// testDatabase connects to TEST_MONGO_URI and returns a fresh database that
// is dropped when the test ends. Tests skip when the variable is unset.
func testDatabase(t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI not set, skipping integration test")
	}

	cfg := &config.MongoDBConfig{
		URI:             uri,
		Database:        fmt.Sprintf("maktabati_test_%d", time.Now().UnixNano()),
		AuditCollection: "audit_logs",
	}
	repo, err := NewMongoRepository(cfg)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, repo.Ping(ctx))
	require.NoError(t, repo.EnsureIndexes(ctx))

	t.Cleanup(func() {
		_ = repo.Database().Drop(context.Background())
		_ = repo.Close(context.Background())
	})
	return repo.Database()
}

func testRedis(t *testing.T) *RedisRepository {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set, skipping integration test")
	}
	r := NewRedisRepository(&config.RedisConfig{Addr: addr, PoolSize: 2})
	require.NoError(t, r.Ping(context.Background()))
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestFilterDoc_Nil(t *testing.T) {
	require.Equal(t, bson.D{}, filterDoc(nil))
}
