package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BusTicketPlatform/internal/domain"
)

func TestTicketRepository_CreateAndFind(t *testing.T) {
	repo := NewTicketRepository()

	err := repo.Create(context.Background(), &domain.Ticket{ID: "t-1", RideID: "r-1", TicketNumber: "BT-0001"})
	require.NoError(t, err)

	found, err := repo.FindByID(context.Background(), "t-1")
	require.NoError(t, err)
	assert.Equal(t, "BT-0001", found.TicketNumber)

	_, err = repo.FindByID(context.Background(), "missing")
	assert.Error(t, err)
}

func TestTicketRepository_CreateDuplicate(t *testing.T) {
	repo := NewTicketRepository()

	require.NoError(t, repo.Create(context.Background(), &domain.Ticket{ID: "t-1"}))
	assert.Error(t, repo.Create(context.Background(), &domain.Ticket{ID: "t-1"}))
}

func TestTicketRepository_SetValidated(t *testing.T) {
	repo := NewTicketRepository()
	require.NoError(t, repo.Create(context.Background(), &domain.Ticket{ID: "t-1"}))

	applied, err := repo.SetValidated(context.Background(), "t-1", true)
	require.NoError(t, err)
	assert.True(t, applied.Validated)

	// Обратный переход разрешен: водитель может снять ошибочную отметку
	applied, err = repo.SetValidated(context.Background(), "t-1", false)
	require.NoError(t, err)
	assert.False(t, applied.Validated)
}

func TestTicketRepository_SetValidatedIdempotent(t *testing.T) {
	repo := NewTicketRepository()
	require.NoError(t, repo.Create(context.Background(), &domain.Ticket{ID: "t-1"}))

	first, err := repo.SetValidated(context.Background(), "t-1", true)
	require.NoError(t, err)
	second, err := repo.SetValidated(context.Background(), "t-1", true)
	require.NoError(t, err)

	assert.True(t, first.Validated)
	assert.True(t, second.Validated)

	found, err := repo.FindByID(context.Background(), "t-1")
	require.NoError(t, err)
	assert.True(t, found.Validated)
}

func TestTicketRepository_SetValidatedUnknownTicket(t *testing.T) {
	repo := NewTicketRepository()

	_, err := repo.SetValidated(context.Background(), "missing", true)
	assert.Error(t, err)
}

func TestTicketRepository_ConcurrentTogglesLastWriteWins(t *testing.T) {
	repo := NewTicketRepository()
	require.NoError(t, repo.Create(context.Background(), &domain.Ticket{ID: "t-1"}))

	// Две стороны гонки: итоговое состояние — одно из двух целевых,
	// без блокировок и без версионного токена
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := repo.SetValidated(context.Background(), "t-1", true)
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := repo.SetValidated(context.Background(), "t-1", false)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	found, err := repo.FindByID(context.Background(), "t-1")
	require.NoError(t, err)
	assert.Contains(t, []bool{true, false}, found.Validated)
}

func TestRideRepository_CreateListUpdate(t *testing.T) {
	repo := NewRideRepository()

	require.NoError(t, repo.Create(context.Background(), &domain.Ride{ID: "r-1", LineName: "100"}))
	require.NoError(t, repo.Create(context.Background(), &domain.Ride{ID: "r-2", LineName: "200"}))

	rides, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, rides, 2)
	assert.Equal(t, "r-1", rides[0].ID)
	assert.Equal(t, "r-2", rides[1].ID)

	updated := *rides[0]
	updated.Archived = true
	require.NoError(t, repo.Update(context.Background(), &updated))

	found, err := repo.FindByID(context.Background(), "r-1")
	require.NoError(t, err)
	assert.True(t, found.Archived)
}

func TestRideRepository_ReturnedRideIsACopy(t *testing.T) {
	repo := NewRideRepository()
	require.NoError(t, repo.Create(context.Background(), &domain.Ride{ID: "r-1", LineName: "100"}))

	found, err := repo.FindByID(context.Background(), "r-1")
	require.NoError(t, err)
	found.LineName = "tampered"

	again, err := repo.FindByID(context.Background(), "r-1")
	require.NoError(t, err)
	assert.Equal(t, "100", again.LineName)
}

func TestAdminUserRepository_Lifecycle(t *testing.T) {
	repo := NewAdminUserRepository()

	require.NoError(t, repo.Create(context.Background(), &domain.AdminUser{ID: "u-1", Username: "alice"}))

	assert.Error(t, repo.Create(context.Background(), &domain.AdminUser{ID: "u-2", Username: "alice"}),
		"duplicate username must be rejected")

	found, err := repo.FindByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "u-1", found.ID)

	require.NoError(t, repo.Delete(context.Background(), "u-1"))
	_, err = repo.FindByID(context.Background(), "u-1")
	assert.Error(t, err)
	assert.Error(t, repo.Delete(context.Background(), "u-1"))
}
