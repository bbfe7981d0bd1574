package e2e

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/glizzus/jukebox/internal/datalayer"
	"github.com/glizzus/jukebox/internal/history"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

var (
	postgresOnce      sync.Once
	postgresContainer *postgres.PostgresContainer
	connStr           string
	postgresErr       error

	redisOnce      sync.Once
	redisContainer *tcredis.RedisContainer
	redisURI       string
	redisErr       error

	wg sync.WaitGroup
)

// UsePostgres signals that the test is using Postgres as its database.
// This will either provision or reuse a Postgres container for the test.
// Do not expect a clean state in the database; it is shared across tests
// to simulate real-world usage.
func UsePostgres(t *testing.T) string {
	t.Helper()

	postgresOnce.Do(func() {
		ctx := context.Background()
		postgresContainer, postgresErr = postgres.Run(
			ctx,
			"postgres",
			postgres.WithDatabase("jukebox"),
			postgres.WithUsername("user"),
			postgres.WithPassword("password"),
			postgres.BasicWaitStrategies(),
		)
		if postgresErr != nil {
			return
		}
		connStr, postgresErr = postgresContainer.ConnectionString(ctx)
		if postgresErr != nil {
			return
		}

		var pool *pgxpool.Pool
		pool, postgresErr = pgxpool.New(ctx, connStr)
		if postgresErr != nil {
			return
		}
		defer pool.Close()

		postgresErr = datalayer.MigratePostgres(pool)
	})

	if postgresErr != nil {
		t.Fatalf("failed to start postgres container: %v", postgresErr)
	}
	wg.Add(1)
	t.Cleanup(wg.Done)

	return connStr
}

// UseRedis is UsePostgres for the event stream. Tests share the server,
// so each should pick its own stream name.
func UseRedis(t *testing.T) *redis.Client {
	t.Helper()

	redisOnce.Do(func() {
		ctx := context.Background()
		redisContainer, redisErr = tcredis.Run(ctx, "redis:7")
		if redisErr != nil {
			return
		}
		redisURI, redisErr = redisContainer.ConnectionString(ctx)
	})

	if redisErr != nil {
		t.Fatalf("failed to start redis container: %v", redisErr)
	}
	wg.Add(1)
	t.Cleanup(wg.Done)

	opts, err := redis.ParseURL(redisURI)
	if err != nil {
		t.Fatalf("failed to parse redis uri: %v", err)
	}
	client := redis.NewClient(opts)
	t.Cleanup(func() { client.Close() })
	return client
}

// GetHistoryStore connects a history store to an already migrated database.
func GetHistoryStore(t *testing.T, connStr string) *history.PostgresStore {
	t.Helper()
	pool, err := pgxpool.New(t.Context(), connStr)
	if err != nil {
		t.Fatalf("failed to create postgres pool: %v", err)
	}

	t.Cleanup(pool.Close)
	return history.NewPostgresStore(pool)
}

func TerminatePostgresForE2E() {
	wg.Wait()
	if postgresContainer != nil {
		err := postgresContainer.Terminate(context.Background())
		if err != nil {
			fmt.Printf("failed to terminate postgres container: %v", err)
		}
	}
}

func TerminateRedisForE2E() {
	wg.Wait()
	if redisContainer != nil {
		err := redisContainer.Terminate(context.Background())
		if err != nil {
			fmt.Printf("failed to terminate redis container: %v", err)
		}
	}
}
