//go:build !integration
// +build !integration

package cronjob

import (
	"context"
	"testing"
	"time"

	"vesting-indexer/config"
	"vesting-indexer/database"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testNotifier struct {
	notified []string
	err      error
}

func (n *testNotifier) Notify(ctx context.Context, eventType string, payload any) error {
	if n.err != nil {
		return n.err
	}
	n.notified = append(n.notified, eventType)
	return nil
}

func createCliffSchedule(t *testing.T, db *gorm.DB, cliffEnd time.Time, notified bool) *database.VestingSchedule {
	s := &database.VestingSchedule{
		VaultID:         1,
		Amount:          decimal.NewFromInt(1000),
		AmountReleased:  decimal.Zero,
		CliffEnd:        &cliffEnd,
		VestingStart:    cliffEnd.Add(-24 * time.Hour),
		DurationSeconds: 3600 * 24 * 30,
		CliffNotified:   notified,
	}
	require.NoError(t, database.CreateVestingSchedules(db, []*database.VestingSchedule{s}))
	return s
}

func createCliffCronjob(db *gorm.DB, notifier *testNotifier) *cliffCronjob {
	return &cliffCronjob{
		db:        db,
		notifier:  notifier,
		enabled:   true,
		timeout:   time.Hour,
		lookahead: 24 * time.Hour,
	}
}

func TestCliffScan(t *testing.T) {
	db, err := database.ConnectAndInitializeTestDB(&config.DBConfig{})
	require.NoError(t, err)

	now := time.Now()
	inWindow := createCliffSchedule(t, db, now.Add(12*time.Hour), false)
	createCliffSchedule(t, db, now.Add(48*time.Hour), false)
	createCliffSchedule(t, db, now.Add(6*time.Hour), true)

	notifier := &testNotifier{}
	job := createCliffCronjob(db, notifier)

	require.NoError(t, job.Call())
	require.Equal(t, []string{"CLIFF_APPROACHING"}, notifier.notified)

	schedules, err := database.FetchVaultSchedules(db, 1)
	require.NoError(t, err)
	for i := range schedules {
		if schedules[i].ID == inWindow.ID {
			require.True(t, schedules[i].CliffNotified)
		}
	}

	// A second scan has nothing left to notify
	require.NoError(t, job.Call())
	require.Len(t, notifier.notified, 1)
}

func TestCliffScanNotifierDown(t *testing.T) {
	db, err := database.ConnectAndInitializeTestDB(&config.DBConfig{})
	require.NoError(t, err)

	now := time.Now()
	s := createCliffSchedule(t, db, now.Add(12*time.Hour), false)

	notifier := &testNotifier{err: errors.New("webhook down")}
	job := createCliffCronjob(db, notifier)

	// Delivery failure is not fatal; the schedule stays unmarked so the
	// next scan retries it
	require.NoError(t, job.Call())

	schedules, err := database.FetchVaultSchedules(db, 1)
	require.NoError(t, err)
	require.Equal(t, s.ID, schedules[0].ID)
	require.False(t, schedules[0].CliffNotified)

	notifier.err = nil
	require.NoError(t, job.Call())
	require.Len(t, notifier.notified, 1)

	schedules, err = database.FetchVaultSchedules(db, 1)
	require.NoError(t, err)
	require.True(t, schedules[0].CliffNotified)
}
