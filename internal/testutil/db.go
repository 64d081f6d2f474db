// Package testutil provides shared helpers for tests that need MongoDB or
// HTTP plumbing.
package testutil

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/taskhub/internal/app/system/indexes"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// MongoURIEnv points tests at an existing MongoDB instead of a container.
const MongoURIEnv = "TASKHUB_TEST_MONGO_URI"

// MongoImage is the image started when MongoURIEnv is unset.
const MongoImage = "mongo:7"

var (
	shared     *mongo.Client
	sharedErr  error
	sharedSkip string
	sharedOnce sync.Once
)

// client starts (once per test binary) the container or connects to
// MongoURIEnv. The container is reaped by testcontainers when the process exits.
func client() (*mongo.Client, string, error) {
	sharedOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		uri := os.Getenv(MongoURIEnv)
		if uri == "" {
			provider, err := testcontainers.ProviderDocker.GetProvider()
			if err != nil {
				sharedSkip = "Docker/Podman not available, skipping MongoDB tests"
				return
			}
			defer provider.Close()

			container, err := mongodb.Run(ctx, MongoImage)
			if err != nil {
				sharedSkip = "failed to start MongoDB container: " + err.Error()
				return
			}
			uri, err = container.ConnectionString(ctx)
			if err != nil {
				sharedErr = err
				return
			}
		}

		c, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
		if err != nil {
			sharedErr = err
			return
		}
		if err := c.Ping(ctx, nil); err != nil {
			sharedErr = err
			return
		}
		shared = c
	})
	return shared, sharedSkip, sharedErr
}

// SetupTestDB returns a fresh database with all indexes ensured. The
// database is dropped when the test finishes. Skipped under -short and
// when no MongoDB is reachable.
//
//	db := testutil.SetupTestDB(t)
//	store := workspacestore.New(db)
func SetupTestDB(t *testing.T) *mongo.Database {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping MongoDB test in short mode")
	}

	c, skip, err := client()
	if skip != "" {
		t.Skip(skip)
	}
	if err != nil {
		t.Fatalf("connect to MongoDB: %v", err)
	}

	db := c.Database("taskhub_test_" + primitive.NewObjectID().Hex())

	ctx, cancel := TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}

	t.Cleanup(func() {
		// Fresh context: the test's own may already be cancelled.
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := db.Drop(cleanupCtx); err != nil {
			t.Logf("Warning: failed to drop %s: %v", db.Name(), err)
		}
	})
	return db
}

// TestContext returns a context bounded to 30 seconds.
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}
