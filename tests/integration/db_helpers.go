package integration

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/pawtraitstudio/pawtrait-api/internal/database"
)

// TestDB manages PostgreSQL testcontainer and database operations
type TestDB struct {
	Container  testcontainers.Container
	ConnString string
	Pool       *pgxpool.Pool
	DB         *database.DB
}

// SetupTestDatabase creates a PostgreSQL testcontainer, runs migrations, returns TestDB
func SetupTestDatabase(ctx context.Context) (*TestDB, error) {
	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		postgres.WithDatabase("pawtrait"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := runMigrations(ctx, connStr); err != nil {
		pool.Close()
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &TestDB{
		Container:  container,
		ConnString: connStr,
		Pool:       pool,
		DB:         &database.DB{Pool: pool},
	}, nil
}

// runMigrations executes all goose migrations
func runMigrations(ctx context.Context, connStr string) error {
	migrationsDir, err := filepath.Abs("../../migrations")
	if err != nil {
		return fmt.Errorf("failed to get migrations path: %w", err)
	}

	goose.SetLogger(log.New(io.Discard, "", 0))

	// Goose needs a database/sql connection
	sqlDB, err := sql.Open("postgres", connStr)
	if err != nil {
		return fmt.Errorf("failed to open migration connection: %w", err)
	}
	defer sqlDB.Close()

	if err := goose.UpContext(ctx, sqlDB, migrationsDir); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	return nil
}

// Teardown stops the container and closes the connection pool
func (db *TestDB) Teardown(ctx context.Context) error {
	if db.Pool != nil {
		db.Pool.Close()
	}
	if db.Container != nil {
		return db.Container.Terminate(ctx)
	}
	return nil
}

// CleanupTables truncates all tables for test isolation
func (db *TestDB) CleanupTables(ctx context.Context) error {
	tables := []string{
		"support_tickets",
		"email_logs",
		"email_otps",
		"security_logs",
		"blocked_ips",
		"orders",
		"jobs",
		"users",
	}

	for _, table := range tables {
		if _, err := db.Pool.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)); err != nil {
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	return nil
}

// SeedUser inserts a user and returns its ID
func SeedUser(ctx context.Context, pool *pgxpool.Pool, email string) (string, error) {
	query := `
		INSERT INTO users (email)
		VALUES ($1)
		RETURNING id
	`

	var id string
	if err := pool.QueryRow(ctx, query, email).Scan(&id); err != nil {
		return "", fmt.Errorf("failed to insert user: %w", err)
	}
	return id, nil
}

// SeedJob inserts a job with the given age and returns its ID
func SeedJob(ctx context.Context, pool *pgxpool.Pool, userID, status string, outputKey *string, age time.Duration) (string, error) {
	query := `
		INSERT INTO jobs (user_id, status, output_key, created_at)
		VALUES ($1, $2, $3, NOW() - $4::interval)
		RETURNING id
	`

	var id string
	interval := fmt.Sprintf("%d seconds", int(age.Seconds()))
	if err := pool.QueryRow(ctx, query, userID, status, outputKey, interval).Scan(&id); err != nil {
		return "", fmt.Errorf("failed to insert job: %w", err)
	}
	return id, nil
}

// SeedOrder inserts an order with the given age and returns its ID
func SeedOrder(ctx context.Context, pool *pgxpool.Pool, userID string, jobID *string, status string, age time.Duration) (string, error) {
	query := `
		INSERT INTO orders (user_id, job_id, status, amount_cents, created_at)
		VALUES ($1, $2, $3, 2999, NOW() - $4::interval)
		RETURNING id
	`

	var id string
	interval := fmt.Sprintf("%d seconds", int(age.Seconds()))
	if err := pool.QueryRow(ctx, query, userID, jobID, status, interval).Scan(&id); err != nil {
		return "", fmt.Errorf("failed to insert order: %w", err)
	}
	return id, nil
}
