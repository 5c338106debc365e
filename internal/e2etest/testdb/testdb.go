package testdb

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

const startTimeout = 2 * time.Minute

// TestDBInstance is a throwaway postgres container for integration tests.
type TestDBInstance struct {
	container *postgres.PostgresContainer
	DSN       string
}

func NewTestDBInstance() (*TestDBInstance, error) {
	ctx, cancel := context.WithTimeout(context.Background(), startTimeout)
	defer cancel()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("novacart"),
		postgres.WithUsername("novacart"),
		postgres.WithPassword("novacart"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = testcontainers.TerminateContainer(container)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	return &TestDBInstance{container: container, DSN: dsn}, nil
}

func (t *TestDBInstance) Down() {
	_ = testcontainers.TerminateContainer(t.container)
}
