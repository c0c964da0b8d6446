package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// RedisClient starts a throwaway Redis container and returns a client
// connected to it. The test is skipped in -short mode or when no container
// runtime is available. PRAVODOC_TEST_REDIS_IMAGE overrides the image.
func RedisClient(t *testing.T) *redis.Client {
	t.Helper()
	SkipIfShort(t)

	ctx := context.Background()
	var container testcontainers.Container
	err := noPanic(func() error {
		var err error
		container, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        GetEnvOrDefault("PRAVODOC_TEST_REDIS_IMAGE", "redis:7-alpine"),
				ExposedPorts: []string{"6379/tcp"},
				WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
			},
			Started: true,
		})
		return err
	})
	if err != nil {
		t.Skipf("redis container unavailable: %v", err)
	}
	t.Cleanup(func() { container.Terminate(context.Background()) })

	addr, err := container.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("failed to get redis endpoint: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { client.Close() })
	return client
}
