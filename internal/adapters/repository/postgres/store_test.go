package postgres

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/flencrypto/cfs-platform/internal/adapters/repository"
	"github.com/flencrypto/cfs-platform/internal/domain/model"
)

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(sqlx.NewDb(db, "postgres")), mock
}

var contestColumns = []string{
	"id", "sport_id", "creator_id", "name", "description", "type", "status",
	"entry_fee", "prize_pool", "salary_cap", "roster_size", "max_entries", "current_entries",
	"start_time", "lock_time", "end_time", "is_private", "invite_code", "scoring_rules",
	"created_at", "updated_at",
	"sport_slug", "sport_name", "sport_display_name", "sport_is_active", "sport_roster_size",
	"sport_salary_cap", "sport_scoring_rules", "sport_created_at", "sport_updated_at",
	"creator_ref", "creator_username", "creator_name", "creator_image",
}

func contestValues(id string, withCreator bool) []driver.Value {
	var creatorRef, creatorUsername any
	if withCreator {
		creatorRef, creatorUsername = "user_9", "coach"
	}
	return []driver.Value{
		id, "sport_nba", "user_9", "Night Slate", "late games", "DAILY", "ACTIVE",
		10.0, 1000.0, 50000.0, int64(8), int64(100), int64(3),
		testNow.Add(2 * time.Hour), testNow.Add(time.Hour), nil, false, nil, []byte(`{"points":1}`),
		testNow, testNow,
		"nba", "NBA", "NBA", true, int64(8),
		nil, []byte(`{}`), testNow, testNow,
		creatorRef, creatorUsername, nil, nil,
	}
}

func TestListContestsBuildsFilteredQuery(t *testing.T) {
	s, mock := newMockStore(t)
	status := model.StatusActive
	minFee := 5.0

	mock.ExpectQuery(`SELECT COUNT\(\*\)\s+FROM contests c.*WHERE s\.slug = \$1 AND c\.status = \$2 AND c\.entry_fee >= \$3`).
		WithArgs("nba", "ACTIVE", 5.0).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(11)))
	mock.ExpectQuery(`ORDER BY c\.created_at DESC, c\.id ASC LIMIT \$4 OFFSET \$5`).
		WithArgs("nba", "ACTIVE", 5.0, 10, 10).
		WillReturnRows(sqlmock.NewRows(contestColumns).
			AddRow(contestValues("c1", true)...).
			AddRow(contestValues("c2", false)...))

	items, total, err := s.ListContests(context.Background(), model.ContestFilter{
		Page: 2, Limit: 10, SportSlug: "nba", Status: &status, MinEntryFee: &minFee,
	})
	require.NoError(t, err)
	require.Equal(t, 11, total)
	require.Len(t, items, 2)

	first := items[0]
	require.Equal(t, "c1", first.ID)
	require.Equal(t, model.TypeDaily, first.Type)
	require.Equal(t, 100, *first.MaxEntries)
	require.Equal(t, 50000.0, *first.SalaryCap)
	require.Nil(t, first.EndTime)
	require.Equal(t, map[string]any{"points": 1.0}, first.ScoringRules)
	require.NotNil(t, first.Sport)
	require.Equal(t, "nba", first.Sport.Slug)
	require.NotNil(t, first.Creator)
	require.Equal(t, "coach", *first.Creator.Username)
	require.Nil(t, items[1].Creator)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListContestsLockDue(t *testing.T) {
	s, mock := newMockStore(t)
	status := model.StatusActive

	mock.ExpectQuery(`WHERE c\.status = \$1 AND c\.lock_time IS NOT NULL AND c\.lock_time <= \$2`).
		WithArgs("ACTIVE", testNow).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(0)))
	mock.ExpectQuery(`ORDER BY c\.created_at DESC, c\.id ASC$`).
		WithArgs("ACTIVE", testNow).
		WillReturnRows(sqlmock.NewRows(contestColumns))

	items, total, err := s.ListContests(context.Background(), model.ContestFilter{Status: &status, LockDueBy: &testNow})
	require.NoError(t, err)
	require.Zero(t, total)
	require.Empty(t, items)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetContestNotFound(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(`WHERE c\.id = \$1`).WithArgs("nope").WillReturnRows(sqlmock.NewRows(contestColumns))

	_, err := s.GetContest(context.Background(), "nope")
	require.ErrorIs(t, err, repository.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConnectionErrorsAreUnavailable(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{"dial failure", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}},
		{"connection exception", &pq.Error{Code: "08006", Message: "connection failure"}},
		{"admin shutdown", &pq.Error{Code: "57P01", Message: "terminating connection"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, mock := newMockStore(t)
			mock.ExpectQuery(`SELECT COUNT`).WillReturnError(tc.err)

			_, _, err := s.ListContests(context.Background(), model.ContestFilter{Page: 1, Limit: 10})
			require.ErrorIs(t, err, repository.ErrStoreUnavailable)
		})
	}

	t.Run("syntax error stays ordinary", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectQuery(`SELECT COUNT`).WillReturnError(&pq.Error{Code: "42601", Message: "syntax error"})

		_, _, err := s.ListContests(context.Background(), model.ContestFilter{Page: 1, Limit: 10})
		require.Error(t, err)
		require.NotErrorIs(t, err, repository.ErrStoreUnavailable)
		require.NotErrorIs(t, err, repository.ErrNotFound)
	})
}

func sampleContest() model.Contest {
	return model.Contest{
		ID:           "c1",
		SportID:      "sport_nba",
		CreatorID:    "user_9",
		Name:         "Night Slate",
		Type:         model.TypeDaily,
		Status:       model.StatusDraft,
		EntryFee:     10,
		PrizePool:    1000,
		RosterSize:   8,
		StartTime:    testNow.Add(2 * time.Hour),
		ScoringRules: map[string]any{"points": 1},
		CreatedAt:    testNow,
		UpdatedAt:    testNow,
	}
}

func TestCreateContestReadsBack(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(`INSERT INTO contests`).
		WithArgs("c1", "sport_nba", "user_9", "Night Slate", nil, "DAILY", "DRAFT",
			10.0, 1000.0, nil, 8, nil, 0,
			testNow.Add(2*time.Hour), nil, nil, false, nil, `{"points":1}`,
			testNow, testNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`WHERE c\.id = \$1`).WithArgs("c1").
		WillReturnRows(sqlmock.NewRows(contestColumns).AddRow(contestValues("c1", true)...))

	c, err := s.CreateContest(context.Background(), sampleContest())
	require.NoError(t, err)
	require.Equal(t, "c1", c.ID)
	require.NotNil(t, c.Sport)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateContestUnknownSport(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(`INSERT INTO contests`).
		WillReturnError(&pq.Error{Code: "23503", Constraint: "contests_sport_id_fkey"})

	_, err := s.CreateContest(context.Background(), sampleContest())
	require.ErrorIs(t, err, repository.ErrInvalidReference)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateContestMissingRow(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(`UPDATE contests SET`).WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := s.UpdateContest(context.Background(), sampleContest())
	require.ErrorIs(t, err, repository.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateContestStampsFromClock(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	s := New(sqlx.NewDb(db, "postgres"), WithClock(func() time.Time { return testNow }))

	c := sampleContest()
	c.UpdatedAt = time.Time{}
	mock.ExpectExec(`UPDATE contests SET`).
		WithArgs("sport_nba", "Night Slate", nil, "DAILY", "DRAFT",
			10.0, 1000.0, nil, 8, nil, 0,
			testNow.Add(2*time.Hour), nil, nil, false, nil, `{"points":1}`, testNow,
			"c1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`WHERE c\.id = \$1`).WithArgs("c1").
		WillReturnRows(sqlmock.NewRows(contestColumns).AddRow(contestValues("c1", false)...))

	_, err = s.UpdateContest(context.Background(), c)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteContest(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(`DELETE FROM contests WHERE id = \$1`).WithArgs("c1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM contests WHERE id = \$1`).WithArgs("c2").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.DeleteContest(context.Background(), "c1"))
	require.ErrorIs(t, s.DeleteContest(context.Background(), "c2"), repository.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListSportsActiveOnly(t *testing.T) {
	s, mock := newMockStore(t)
	cols := []string{"id", "slug", "name", "display_name", "is_active", "roster_size",
		"salary_cap", "scoring_rules", "created_at", "updated_at"}
	mock.ExpectQuery(`FROM sports\s+WHERE is_active\s+ORDER BY display_name ASC, id ASC`).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("sport_nba", "nba", "NBA", "NBA", true, int64(8), 60000.0, []byte(`{"pts":1}`), testNow, testNow).
			AddRow("sport_nfl", "nfl", "NFL", "NFL", true, int64(9), nil, nil, testNow, testNow))

	sports, err := s.ListSports(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, sports, 2)
	require.Equal(t, 60000.0, *sports[0].SalaryCap)
	require.Nil(t, sports[1].SalaryCap)
	require.Equal(t, map[string]any{}, sports[1].ScoringRules)
	require.NoError(t, mock.ExpectationsWereMet())
}

var userColumns = []string{
	"id", "email", "username", "name", "image", "created_at", "updated_at",
	"profile_user_id", "first_name", "last_name", "date_of_birth",
	"phone", "country", "timezone", "language", "notifications", "profile_updated_at",
}

func TestGetUser(t *testing.T) {
	t.Run("with profile", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectQuery(`LEFT JOIN user_profiles p ON p\.user_id = u\.id\s+WHERE u\.id = \$1`).WithArgs("user_1").
			WillReturnRows(sqlmock.NewRows(userColumns).AddRow(
				"user_1", "test@example.com", "testuser", "Test User", nil, testNow, testNow,
				"user_1", "Test", nil, nil, nil, "GB", nil, "fr", []byte(`{"email":false,"push":true,"sms":true}`), testNow))

		u, err := s.GetUser(context.Background(), "user_1")
		require.NoError(t, err)
		require.Equal(t, "testuser", *u.Username)
		require.NotNil(t, u.Profile)
		require.Equal(t, "fr", u.Profile.Language)
		require.Equal(t, model.NotificationPreferences{Email: false, Push: true, SMS: true}, u.Profile.Notifications)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("without profile", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectQuery(`FROM users u`).WithArgs("user_2").
			WillReturnRows(sqlmock.NewRows(userColumns).AddRow(
				"user_2", nil, nil, nil, nil, testNow, testNow,
				nil, nil, nil, nil, nil, nil, nil, nil, nil, nil))

		u, err := s.GetUser(context.Background(), "user_2")
		require.NoError(t, err)
		require.Nil(t, u.Profile)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSaveProfile(t *testing.T) {
	user := model.User{
		ID:        "user_1",
		Username:  model.Ptr("newname"),
		UpdatedAt: testNow,
		Profile: &model.Profile{
			Language:      "en",
			Country:       model.Ptr("GB"),
			Notifications: model.DefaultNotifications(),
			UpdatedAt:     testNow,
		},
	}

	t.Run("commits user and profile", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE users SET username = \$1, name = \$2, image = \$3, updated_at = \$4 WHERE id = \$5`).
			WithArgs("newname", nil, nil, testNow, "user_1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO user_profiles .* ON CONFLICT \(user_id\) DO UPDATE`).
			WithArgs("user_1", nil, nil, nil, nil, "GB", nil, "en", `{"email":true,"push":true,"sms":false}`, testNow).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()
		mock.ExpectQuery(`FROM users u`).WithArgs("user_1").
			WillReturnRows(sqlmock.NewRows(userColumns).AddRow(
				"user_1", nil, "newname", nil, nil, testNow, testNow,
				"user_1", nil, nil, nil, nil, "GB", nil, "en", []byte(`{"email":true,"push":true,"sms":false}`), testNow))

		u, err := s.SaveProfile(context.Background(), user)
		require.NoError(t, err)
		require.Equal(t, "newname", *u.Username)
		require.Equal(t, "GB", *u.Profile.Country)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("username collision rolls back", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE users SET`).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "users_username_key"})
		mock.ExpectRollback()

		_, err := s.SaveProfile(context.Background(), user)
		require.ErrorIs(t, err, repository.ErrDuplicate)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown user", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE users SET`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		_, err := s.SaveProfile(context.Background(), user)
		require.ErrorIs(t, err, repository.ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMigrate(t *testing.T) {
	s, mock := newMockStore(t)
	for n := 0; n < 3; n++ {
		mock.ExpectExec(`CREATE`).WillReturnResult(sqlmock.NewResult(0, 0))
	}
	mock.ExpectExec(`INSERT INTO sports`).WillReturnResult(sqlmock.NewResult(0, 4))
	require.NoError(t, s.Migrate(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOpenWithoutURL(t *testing.T) {
	_, err := Open(context.Background(), "")
	require.ErrorIs(t, err, repository.ErrStoreUnavailable)
}
