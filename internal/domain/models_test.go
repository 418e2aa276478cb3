package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRide_ScheduledDuration(t *testing.T) {
	ride := &Ride{DepartureTime: "08:00", ArrivalTime: "09:30"}

	duration, err := ride.ScheduledDuration()
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, duration)
	assert.Equal(t, "1h30m0s", duration.String())
}

func TestRide_ScheduledDuration_CrossesMidnight(t *testing.T) {
	ride := &Ride{DepartureTime: "23:30", ArrivalTime: "01:15"}

	duration, err := ride.ScheduledDuration()
	require.NoError(t, err)
	assert.Equal(t, time.Hour+45*time.Minute, duration)
}

func TestRide_ScheduledDuration_ZeroLength(t *testing.T) {
	ride := &Ride{DepartureTime: "10:00", ArrivalTime: "10:00"}

	duration, err := ride.ScheduledDuration()
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), duration)
}

func TestRide_ScheduledDuration_InvalidTimes(t *testing.T) {
	_, err := (&Ride{DepartureTime: "8am", ArrivalTime: "09:30"}).ScheduledDuration()
	assert.Error(t, err)

	_, err = (&Ride{DepartureTime: "08:00", ArrivalTime: "25:00"}).ScheduledDuration()
	assert.Error(t, err)
}
