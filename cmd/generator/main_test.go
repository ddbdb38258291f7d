package main

import (
	"context"
	"math/rand"
	"testing"

	"homerent/internal/database"
	"homerent/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashIsHexSHA256(t *testing.T) {
	assert.Equal(t, "8c6976e5b5410415bde908bd4dee15dfb167a9c873fc4bb8a81f6f2ab448a918", passwordHash("admin"))
}

func TestGeneratedAccommodationsAreValid(t *testing.T) {
	g := &Generator{rnd: rand.New(rand.NewSource(42))}

	for i := 0; i < 200; i++ {
		a := g.accommodation(i)
		_, err := models.ParseAccommodationType(string(a.Type))
		require.NoError(t, err)
		assert.True(t, a.DailyRate.GreaterThan(decimal.Zero))
		assert.GreaterOrEqual(t, a.Availability, 1)
		assert.NotEmpty(t, a.Address.City)
		assert.NotNil(t, a.Amenities)
	}
}

func TestUsersSeedsAdminFirst(t *testing.T) {
	g := &Generator{rnd: rand.New(rand.NewSource(1))}
	users := g.users("root@example.com", "root", 3)

	require.Len(t, users, 4)
	assert.Equal(t, models.RoleAdmin, users[0].Role)
	assert.Equal(t, passwordHash("root"), users[0].PasswordHash)
	for _, u := range users[1:] {
		assert.Equal(t, models.RoleCustomer, u.Role)
		assert.Equal(t, passwordHash(u.Password), u.PasswordHash)
	}
}

func TestInsertUsersCountsOnlyNewRows(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	db := database.New(sqlDB)

	g := &Generator{rnd: rand.New(rand.NewSource(1))}
	users := g.users("root@example.com", "root", 1)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	created, err := insertUsers(context.Background(), tx, users)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	assert.Equal(t, 1, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}
