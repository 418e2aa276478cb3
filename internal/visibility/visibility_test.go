package visibility

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BusTicketPlatform/internal/domain"
)

func ride(id string, archived bool) *domain.Ride {
	return &domain.Ride{ID: id, LineName: "line-" + id, Archived: archived}
}

func ticket(id, rideID, date, departureTime string) *domain.Ticket {
	return &domain.Ticket{
		ID:            id,
		RideID:        rideID,
		DepartureDate: date,
		DepartureTime: departureTime,
	}
}

func overlay(ids ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func TestVisibleRides_ExcludesArchivedAndOverlay(t *testing.T) {
	rides := []*domain.Ride{
		ride("a", false),
		ride("b", true),
		ride("c", false),
		ride("d", false),
	}

	visible := VisibleRides(rides, overlay("c"))

	require.Len(t, visible, 2)
	assert.Equal(t, "a", visible[0].ID)
	assert.Equal(t, "d", visible[1].ID)
}

func TestVisibleRides_OverlayHidesUnarchivedRide(t *testing.T) {
	// Персистентный флаг снят, но клиентский оверлей скрывает рейс
	rides := []*domain.Ride{ride("a", false)}

	visible := VisibleRides(rides, overlay("a"))

	assert.Empty(t, visible)
}

func TestVisibleRides_ArchivedHiddenEvenWithoutOverlay(t *testing.T) {
	rides := []*domain.Ride{ride("a", true)}

	assert.Empty(t, VisibleRides(rides, nil))
	assert.Empty(t, VisibleRides(rides, overlay()))
}

func TestVisibleRides_PreservesInputOrder(t *testing.T) {
	rides := []*domain.Ride{
		ride("z", false), ride("m", false), ride("a", false),
	}

	visible := VisibleRides(rides, nil)

	require.Len(t, visible, 3)
	assert.Equal(t, "z", visible[0].ID)
	assert.Equal(t, "m", visible[1].ID)
	assert.Equal(t, "a", visible[2].ID)
}

func TestVisibleRides_EmptyInput(t *testing.T) {
	assert.Empty(t, VisibleRides(nil, overlay("a")))
}

func TestUpcomingTickets_CombinedInstantComparison(t *testing.T) {
	reference := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	tickets := []*domain.Ticket{
		ticket("a", "r1", "2024-05-01", "09:00"), // сегодня, уже отправился
		ticket("b", "r1", "2024-05-01", "11:00"), // сегодня, еще впереди
		ticket("c", "r2", "2024-05-02", "00:01"), // завтра, время суток не важно
	}

	upcoming := UpcomingTickets(tickets, reference)

	require.Len(t, upcoming, 2)
	assert.Equal(t, "b", upcoming[0].ID)
	assert.Equal(t, "c", upcoming[1].ID)
}

func TestUpcomingTickets_ExactReferenceTimeIncluded(t *testing.T) {
	reference := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	upcoming := UpcomingTickets([]*domain.Ticket{
		ticket("a", "r1", "2024-05-01", "10:00"),
	}, reference)

	// Граница включается: >= по времени в день отправления
	assert.Len(t, upcoming, 1)
}

func TestUpcomingTickets_PastDateExcludedRegardlessOfTime(t *testing.T) {
	reference := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	upcoming := UpcomingTickets([]*domain.Ticket{
		ticket("a", "r1", "2024-04-30", "23:59"),
	}, reference)

	assert.Empty(t, upcoming)
}

func TestUpcomingTickets_OrderPreserved(t *testing.T) {
	reference := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	tickets := []*domain.Ticket{
		ticket("z", "r1", "2024-05-03", "08:00"),
		ticket("a", "r1", "2024-05-02", "08:00"),
	}

	upcoming := UpcomingTickets(tickets, reference)

	require.Len(t, upcoming, 2)
	assert.Equal(t, "z", upcoming[0].ID)
	assert.Equal(t, "a", upcoming[1].ID)
}

func TestTicketsOnDate(t *testing.T) {
	date := time.Date(2024, 5, 1, 15, 30, 0, 0, time.UTC)
	tickets := []*domain.Ticket{
		ticket("a", "r1", "2024-05-01", "09:00"), // время уже прошло, но дата совпадает
		ticket("b", "r1", "2024-05-02", "09:00"),
		ticket("c", "r2", "2024-05-01", "23:00"),
	}

	matched := TicketsOnDate(tickets, date)

	require.Len(t, matched, 2)
	assert.Equal(t, "a", matched[0].ID)
	assert.Equal(t, "c", matched[1].ID)
}

func TestRideIDsWithUpcomingTickets(t *testing.T) {
	reference := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	tickets := []*domain.Ticket{
		ticket("a", "r1", "2024-04-30", "08:00"), // r1 только в прошлом
		ticket("b", "r2", "2024-05-01", "11:00"),
		ticket("c", "r2", "2024-05-02", "08:00"),
		ticket("d", "r3", "2024-06-01", "08:00"),
	}

	ids := RideIDsWithUpcomingTickets(tickets, reference)

	assert.Len(t, ids, 2)
	assert.Contains(t, ids, "r2")
	assert.Contains(t, ids, "r3")
	assert.NotContains(t, ids, "r1")
}

func TestRideIDsWithUpcomingTickets_Empty(t *testing.T) {
	reference := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	ids := RideIDsWithUpcomingTickets(nil, reference)

	assert.Empty(t, ids)
}
