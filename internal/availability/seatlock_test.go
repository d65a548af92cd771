package availability

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richxcame/bus-booking/pkg/common"
	pkgredis "github.com/richxcame/bus-booking/pkg/redis"
)

func TestSeatLocker_HoldSeats(t *testing.T) {
	db, mock := redismock.NewClientMock()
	locker := NewSeatLocker(pkgredis.Wrap(db))

	busID := uuid.New()
	departure := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	owner := "req-1"

	mock.ExpectSetNX(seatKey(busID, departure, "A1"), owner, seatHoldTTL).SetVal(true)
	mock.ExpectSetNX(seatKey(busID, departure, "A2"), owner, seatHoldTTL).SetVal(true)

	err := locker.HoldSeats(context.Background(), busID, departure, []string{"A1", "A2"}, owner)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeatLocker_ContestedSeatReleasesEarlierHolds(t *testing.T) {
	db, mock := redismock.NewClientMock()
	locker := NewSeatLocker(pkgredis.Wrap(db))

	busID := uuid.New()
	departure := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	owner := "req-1"

	mock.ExpectSetNX(seatKey(busID, departure, "A1"), owner, seatHoldTTL).SetVal(true)
	mock.ExpectSetNX(seatKey(busID, departure, "A2"), owner, seatHoldTTL).SetVal(false)
	mock.ExpectGet(seatKey(busID, departure, "A1")).SetVal(owner)
	mock.ExpectDel(seatKey(busID, departure, "A1")).SetVal(1)

	err := locker.HoldSeats(context.Background(), busID, departure, []string{"A1", "A2"}, owner)

	require.Error(t, err)
	assert.True(t, common.IsCode(err, common.CodeSeatConflict))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeatLocker_ReleaseSkipsForeignHold(t *testing.T) {
	db, mock := redismock.NewClientMock()
	locker := NewSeatLocker(pkgredis.Wrap(db))

	busID := uuid.New()
	departure := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)

	mock.ExpectGet(seatKey(busID, departure, "A1")).SetVal("someone-else")

	locker.ReleaseSeats(context.Background(), busID, departure, []string{"A1"}, "req-1")

	assert.NoError(t, mock.ExpectationsWereMet())
}
