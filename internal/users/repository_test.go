package users

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"mkulima/internal/database"
)

const usersSchema = `
	CREATE TABLE users (
		id            BIGSERIAL PRIMARY KEY,
		name          TEXT NOT NULL,
		email         TEXT NOT NULL UNIQUE,
		phone         TEXT NOT NULL DEFAULT '',
		role          TEXT NOT NULL DEFAULT 'regular',
		password_hash TEXT NOT NULL
	)
`

func setupRepository(t *testing.T) Repository {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("mkulima_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, container.Terminate(context.Background()))
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	raw, err := sql.Open("pgx", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { raw.Close() })

	_, err = raw.ExecContext(ctx, usersSchema)
	require.NoError(t, err)

	return NewRepository(database.NewFromDB(raw))
}

func TestRepositoryCreateAndGet(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, &User{
		Name:         "Amina",
		Email:        "Amina@Mkulima.CO.KE",
		Phone:        "+254700000001",
		Role:         RoleAdmin,
		PasswordHash: "hash",
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	require.Equal(t, "amina@mkulima.co.ke", created.Email, "email must be lowercased on write")

	byID, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "Amina", byID.Name)
	require.Equal(t, "hash", byID.PasswordHash)

	byEmail, err := repo.GetByEmail(ctx, "  AMINA@mkulima.co.ke ")
	require.NoError(t, err)
	require.Equal(t, created.ID, byEmail.ID)
}

func TestRepositoryDuplicateEmail(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, &User{
		Name: "Amina", Email: "amina@mkulima.co.ke", Role: RoleAdmin, PasswordHash: "hash",
	})
	require.NoError(t, err)

	_, err = repo.Create(ctx, &User{
		Name: "Impostor", Email: "AMINA@mkulima.co.ke", Role: RoleRegular, PasswordHash: "hash",
	})
	require.ErrorIs(t, err, ErrEmailExists)
}

func TestRepositoryUpdatePartial(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, &User{
		Name: "Grace", Email: "grace@mkulima.co.ke", Role: RoleRegular, PasswordHash: "hash",
	})
	require.NoError(t, err)

	role := RoleExpert
	updated, err := repo.Update(ctx, created.ID, UpdateUserRequest{Role: &role})
	require.NoError(t, err)
	require.Equal(t, RoleExpert, updated.Role)
	require.Equal(t, "Grace", updated.Name, "untouched fields must survive")

	// No fields set returns the current row unchanged
	same, err := repo.Update(ctx, created.ID, UpdateUserRequest{})
	require.NoError(t, err)
	require.Equal(t, updated.Role, same.Role)
}

func TestRepositoryUpdateMissing(t *testing.T) {
	repo := setupRepository(t)

	name := "Nobody"
	_, err := repo.Update(context.Background(), 9999, UpdateUserRequest{Name: &name})
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestRepositoryListOrder(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	for _, email := range []string{"a@mkulima.co.ke", "b@mkulima.co.ke", "c@mkulima.co.ke"} {
		_, err := repo.Create(ctx, &User{
			Name: email, Email: email, Role: RoleRegular, PasswordHash: "hash",
		})
		require.NoError(t, err)
	}

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, "a@mkulima.co.ke", list[0].Email)
	require.Equal(t, "c@mkulima.co.ke", list[2].Email)
}

func TestRepositoryDelete(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, &User{
		Name: "Gone", Email: "gone@mkulima.co.ke", Role: RoleRegular, PasswordHash: "hash",
	})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, created.ID))
	require.ErrorIs(t, repo.Delete(ctx, created.ID), ErrUserNotFound)

	_, err = repo.GetByID(ctx, created.ID)
	require.ErrorIs(t, err, ErrUserNotFound)
}
