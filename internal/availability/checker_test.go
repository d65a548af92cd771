package availability

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richxcame/bus-booking/pkg/common"
)

type fakeRepo struct {
	hirings  []HiringHold
	bookings []BookingHold
	occupied []SeatOccupancy
}

func (f *fakeRepo) ActiveHiringsOverlapping(_ context.Context, _ uuid.UUID, window Window, exclude *uuid.UUID) ([]HiringHold, error) {
	var out []HiringHold
	for _, h := range f.hirings {
		if exclude != nil && h.HiringID == *exclude {
			continue
		}
		if h.Window.Overlaps(window) {
			out = append(out, h)
		}
	}
	return out, nil
}

func (f *fakeRepo) ActiveBookingsInWindow(_ context.Context, _ uuid.UUID, window Window, exclude *uuid.UUID) ([]BookingHold, error) {
	var out []BookingHold
	for _, b := range f.bookings {
		if exclude != nil && b.BookingID == *exclude {
			continue
		}
		if window.Contains(b.DepartureAt) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeRepo) OccupiedSeats(_ context.Context, _ uuid.UUID, departureAt time.Time, exclude *uuid.UUID) ([]SeatOccupancy, error) {
	var out []SeatOccupancy
	for _, o := range f.occupied {
		if exclude != nil && o.BookingID == *exclude {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func window(startHour, endHour int) Window {
	day := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	return Window{Start: day.Add(time.Duration(startHour) * time.Hour), End: day.Add(time.Duration(endHour) * time.Hour)}
}

func TestWindow_Overlaps(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Window
		overlaps bool
	}{
		{"disjoint", window(0, 2), window(3, 5), false},
		{"touching endpoints do not overlap", window(0, 2), window(2, 4), false},
		{"partial overlap", window(0, 3), window(2, 5), true},
		{"containment", window(0, 10), window(2, 5), true},
		{"identical", window(1, 4), window(1, 4), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.overlaps, tt.a.Overlaps(tt.b))
			assert.Equal(t, tt.overlaps, tt.b.Overlaps(tt.a))
		})
	}
}

func TestValidateSeatSelection(t *testing.T) {
	tests := []struct {
		name       string
		seats      []string
		passengers []string
		capacity   int
		wantErr    bool
	}{
		{"valid selection", []string{"A1", "A2"}, []string{"A2", "A1"}, 10, false},
		{"duplicate seat in request", []string{"A1", "A1"}, []string{"A1", "A1"}, 10, true},
		{"exceeds capacity", []string{"A1", "A2", "A3"}, []string{"A1", "A2", "A3"}, 2, true},
		{"passenger seats mismatch", []string{"A1", "A2"}, []string{"A1", "A3"}, 10, true},
		{"passenger count mismatch", []string{"A1", "A2"}, []string{"A1"}, 10, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSeatSelection(tt.seats, tt.passengers, tt.capacity)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, common.IsCode(err, common.CodeValidation))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCheckSeats_ReportsConflictDetail(t *testing.T) {
	departure := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	otherBooking := uuid.New()
	repo := &fakeRepo{occupied: []SeatOccupancy{
		{SeatNumber: "A1", BookingID: otherBooking, Reference: "BK-001"},
		{SeatNumber: "B4", BookingID: otherBooking, Reference: "BK-001"},
	}}
	checker := NewChecker(repo)

	result, err := checker.CheckSeats(context.Background(), uuid.New(), departure, []string{"A1", "B4", "C2"}, nil)

	require.NoError(t, err)
	assert.False(t, result.Available)
	assert.Equal(t, []string{"A1", "B4"}, result.ConflictingSeats)
	require.Len(t, result.ConflictingReservations, 1)
	assert.Equal(t, "BK-001", result.ConflictingReservations[0].Reference)
}

func TestCheckSeats_FreeSeats(t *testing.T) {
	repo := &fakeRepo{occupied: []SeatOccupancy{{SeatNumber: "A1", BookingID: uuid.New()}}}
	checker := NewChecker(repo)

	result, err := checker.CheckSeats(context.Background(), uuid.New(), time.Now().UTC(), []string{"C2", "C3"}, nil)

	require.NoError(t, err)
	assert.True(t, result.Available)
	assert.Empty(t, result.ConflictingSeats)
}

func TestCheckSeats_ExcludesOwnBooking(t *testing.T) {
	own := uuid.New()
	repo := &fakeRepo{occupied: []SeatOccupancy{{SeatNumber: "A1", BookingID: own}}}
	checker := NewChecker(repo)

	result, err := checker.CheckSeats(context.Background(), uuid.New(), time.Now().UTC(), []string{"A1"}, &own)

	require.NoError(t, err)
	assert.True(t, result.Available)
}

func TestCheckBusWindow_HiringConflict(t *testing.T) {
	hiringID := uuid.New()
	repo := &fakeRepo{hirings: []HiringHold{
		{HiringID: hiringID, Reference: "HR-001", Window: window(8, 18)},
	}}
	checker := NewChecker(repo)

	result, err := checker.CheckBusWindow(context.Background(), uuid.New(), window(17, 20), nil)

	require.NoError(t, err)
	assert.False(t, result.Available)
	require.Len(t, result.ConflictingReservations, 1)
	assert.Equal(t, "hiring", result.ConflictingReservations[0].Type)
	assert.Equal(t, hiringID, result.ConflictingReservations[0].ID)
}

func TestCheckBusWindow_AdjacentWindowsAllowed(t *testing.T) {
	repo := &fakeRepo{hirings: []HiringHold{
		{HiringID: uuid.New(), Reference: "HR-001", Window: window(8, 12)},
	}}
	checker := NewChecker(repo)

	result, err := checker.CheckBusWindow(context.Background(), uuid.New(), window(12, 16), nil)

	require.NoError(t, err)
	assert.True(t, result.Available, "a window starting exactly at another's end must not conflict")
}

func TestCheckBusWindow_BookingBlocksHiring(t *testing.T) {
	repo := &fakeRepo{bookings: []BookingHold{
		{BookingID: uuid.New(), Reference: "BK-010", DepartureAt: window(8, 18).Start.Add(2 * time.Hour)},
	}}
	checker := NewChecker(repo)

	result, err := checker.CheckBusWindow(context.Background(), uuid.New(), window(8, 18), nil)

	require.NoError(t, err)
	assert.False(t, result.Available)
	assert.Equal(t, "booking", result.ConflictingReservations[0].Type)
}

func TestCheckBusWindow_InvalidWindow(t *testing.T) {
	checker := NewChecker(&fakeRepo{})

	_, err := checker.CheckBusWindow(context.Background(), uuid.New(), window(10, 10), nil)

	require.Error(t, err)
	assert.True(t, common.IsCode(err, common.CodeBadRequest))
}

func TestCheckBusForBooking_HiringHoldsBus(t *testing.T) {
	repo := &fakeRepo{hirings: []HiringHold{
		{HiringID: uuid.New(), Reference: "HR-002", Window: window(8, 18)},
	}}
	checker := NewChecker(repo)

	inside, err := checker.CheckBusForBooking(context.Background(), uuid.New(), window(8, 18).Start.Add(4*time.Hour))
	require.NoError(t, err)
	assert.False(t, inside.Available)

	after, err := checker.CheckBusForBooking(context.Background(), uuid.New(), window(8, 18).End)
	require.NoError(t, err)
	assert.True(t, after.Available, "departure at the hire window's end instant is free under half-open semantics")
}
