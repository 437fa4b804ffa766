//go:build integration

package testhelpers

import (
	"context"
	"testing"
	"time"

	"forklifttracker/internal/models"
	"forklifttracker/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB holds the database connection for testing
type TestDB struct {
	Pool *pgxpool.Pool
}

// StartPostgres runs a disposable postgres container with the schema applied.
// The container is terminated when the test finishes.
func StartPostgres(t *testing.T) *TestDB {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("forklifts_test"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("Failed to start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate postgres container: %v", err)
		}
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("Failed to get connection string: %v", err)
	}

	pool, err := database.NewPool(ctx, connStr, database.PoolOptions{MaxConns: 5})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := database.Migrate(ctx, pool); err != nil {
		t.Fatalf("Failed to apply schema: %v", err)
	}

	return &TestDB{Pool: pool}
}

// Truncate empties every table between tests.
func (db *TestDB) Truncate(t *testing.T) {
	t.Helper()
	_, err := db.Pool.Exec(context.Background(),
		`TRUNCATE audit_logs, forklift_documents, forklifts, user_companies, companies, users CASCADE`)
	if err != nil {
		t.Fatalf("Failed to truncate tables: %v", err)
	}
}

// CreateUser inserts a user with a placeholder password hash.
func (db *TestDB) CreateUser(t *testing.T, username string) *models.User {
	t.Helper()

	user := &models.User{ID: uuid.New(), Username: username, PasswordHash: "x", CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC()}
	_, err := db.Pool.Exec(context.Background(),
		`INSERT INTO users (id, username, password_hash, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		user.ID, user.Username, user.PasswordHash, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return user
}

// CreateCompany inserts a company and the creator's admin membership.
func (db *TestDB) CreateCompany(t *testing.T, name, joinCode string, owner uuid.UUID) *models.Company {
	t.Helper()
	ctx := context.Background()

	company := &models.Company{ID: uuid.New(), Name: name, JoinCode: joinCode, CreatedBy: owner, CreatedAt: time.Now().UTC()}
	if _, err := db.Pool.Exec(ctx,
		`INSERT INTO companies (id, name, join_code, created_by, created_at) VALUES ($1, $2, $3, $4, $5)`,
		company.ID, company.Name, company.JoinCode, company.CreatedBy, company.CreatedAt); err != nil {
		t.Fatalf("Failed to create test company: %v", err)
	}
	db.AddMember(t, company.ID, owner, true, false)
	return company
}

// AddMember inserts a membership row.
func (db *TestDB) AddMember(t *testing.T, companyID, userID uuid.UUID, admin, blocked bool) {
	t.Helper()
	_, err := db.Pool.Exec(context.Background(),
		`INSERT INTO user_companies (user_id, company_id, is_admin, is_blocked) VALUES ($1, $2, $3, $4)`,
		userID, companyID, admin, blocked)
	if err != nil {
		t.Fatalf("Failed to add test member: %v", err)
	}
}

// CreateForklift inserts a forklift with the given next service date.
func (db *TestDB) CreateForklift(t *testing.T, companyID, userID uuid.UUID, customer string, nextService *time.Time) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := db.Pool.Exec(context.Background(),
		`INSERT INTO forklifts (id, company_id, user_id, customer, brand, model_type, next_service_date)
		 VALUES ($1, $2, $3, $4, 'Linde', 'E20', $5)`,
		id, companyID, userID, customer, nextService)
	if err != nil {
		t.Fatalf("Failed to create test forklift: %v", err)
	}
	return id
}
