package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-guest-registration/internal/model"
	"github.com/iliyamo/event-guest-registration/internal/repository"
)

func newMaintService(t *testing.T) (*MaintenanceService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	svc := NewMaintenanceService(
		db,
		repository.NewGuestGroupRepo(db),
		repository.NewTicketClaimRepo(db),
		repository.NewCounterRepo(db),
		repository.NewDistributorRepo(db),
		repository.NewUserRepo(db),
	)
	return svc, mock
}

func TestRebuildCounterOverwritesFromFullCount(t *testing.T) {
	svc, mock := newMaintService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM guest_groups`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO registration_counter (id, count) VALUES (?, ?) ON DUPLICATE KEY UPDATE count = VALUES(count)`)).
		WithArgs(1, 7).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	count, err := svc.RebuildCounter(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCleanupOrphanClaimsReportsRemovals(t *testing.T) {
	svc, mock := newMaintService(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE tc FROM ticket_claims tc LEFT JOIN guest_groups g ON g.id = tc.group_id WHERE g.id IS NULL`)).
		WillReturnResult(sqlmock.NewResult(0, 4))

	removed, err := svc.CleanupOrphanClaims(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), removed)

	// A second run finds nothing left to remove.
	mock.ExpectExec(regexp.QuoteMeta(`DELETE tc FROM ticket_claims tc`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	removed, err = svc.CleanupOrphanClaims(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), removed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestImportRequiresExactPhrase(t *testing.T) {
	svc, mock := newMaintService(t)

	err := svc.Import(context.Background(), "replace all data", &Snapshot{})
	require.ErrorIs(t, err, ErrConfirmationRequired)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestImportReplacesEverythingAndPreservesIDs(t *testing.T) {
	svc, mock := newMaintService(t)
	now := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)

	snap := &Snapshot{
		Groups: []model.GuestGroup{{
			ID:               42,
			PrimaryGuestName: "Maria Lopez",
			ContactPhone:     "15551234567",
			AddressDetails:   "12 Hillside Ave",
			CreatedAt:        now,
			Companions: []model.Companion{
				{ID: 101, GroupID: 42, FullName: "Ana Lopez", Age: 7, Category: "GIRL", TicketCode: "NI0005", Status: "PENDING"},
			},
		}},
		Claims: []model.TicketClaim{
			{TicketCode: "NI0005", OwnerName: "Maria Lopez", GroupID: 42, ClaimedAt: now},
		},
	}

	mock.ExpectBegin()
	for _, table := range []string{"ticket_claims", "companions", "guest_groups", "distributors", "refresh_tokens", "users"} {
		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM ` + table)).
			WillReturnResult(sqlmock.NewResult(0, 0))
	}
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO guest_groups (id, primary_guest_name, contact_phone, distributor_label, address_details, created_at)`)).
		WithArgs(uint64(42), "Maria Lopez", "15551234567", "", "12 Hillside Ave", now).
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO companions (id, group_id, full_name, age, category, ticket_code, status)`)).
		WithArgs(uint64(101), uint64(42), "Ana Lopez", 7, "GIRL", "NI0005", "PENDING").
		WillReturnResult(sqlmock.NewResult(101, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO ticket_claims (ticket_code, owner_name, group_id, claimed_at)`)).
		WithArgs("NI0005", "Maria Lopez", uint64(42), now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO registration_counter (id, count) VALUES (?, ?) ON DUPLICATE KEY UPDATE count = VALUES(count)`)).
		WithArgs(1, 1).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, svc.Import(context.Background(), ConfirmPhrase, snap))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestImportRollsBackOnFailure(t *testing.T) {
	svc, mock := newMaintService(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM ticket_claims`)).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := svc.Import(context.Background(), ConfirmPhrase, &Snapshot{})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResetKeepsDistributorsAndUsers(t *testing.T) {
	svc, mock := newMaintService(t)

	mock.ExpectBegin()
	for _, table := range []string{"ticket_claims", "companions", "guest_groups"} {
		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM ` + table)).
			WillReturnResult(sqlmock.NewResult(0, 3))
	}
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO registration_counter (id, count) VALUES (?, ?) ON DUPLICATE KEY UPDATE count = VALUES(count)`)).
		WithArgs(1, 0).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, svc.Reset(context.Background(), ConfirmPhrase))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResetRequiresExactPhrase(t *testing.T) {
	svc, mock := newMaintService(t)

	err := svc.Reset(context.Background(), "yes really")
	require.ErrorIs(t, err, ErrConfirmationRequired)
	require.NoError(t, mock.ExpectationsWereMet())
}
