package fallback

import (
	"time"

	"github.com/flencrypto/cfs-platform/internal/domain/model"
)

// Epoch is the single instant all static timestamps derive from.
var Epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) //nolint:gochecknoglobals // fixed reference time

func at(d time.Duration) time.Time { return Epoch.Add(d) }

func emptyRules() map[string]any { return map[string]any{} }

func staticSports() []model.Sport {
	sport := func(id, name string, roster int, salaryCap float64) model.Sport {
		return model.Sport{
			ID:           id,
			Slug:         id,
			Name:         name,
			DisplayName:  name,
			IsActive:     true,
			RosterSize:   roster,
			SalaryCap:    model.Ptr(salaryCap),
			ScoringRules: emptyRules(),
			CreatedAt:    Epoch,
			UpdatedAt:    Epoch,
		}
	}
	return []model.Sport{
		sport("soccer", "Soccer", 11, 50000),
		sport("nba", "NBA", 8, 60000),
		sport("nfl", "NFL", 9, 55000),
		sport("ufc", "UFC", 6, 45000),
	}
}

// staticContest is a contest keyed by sport name, the way the seed data
// references sports. Names with no matching static sport get a synthesized one.
type staticContest struct {
	sportName string
	contest   model.Contest
}

func staticContests() []staticContest {
	return []staticContest{
		{
			sportName: "Soccer",
			contest:   model.Contest{
				ID:             "contest_1",
				Name:           "Premier League Showdown",
				Description:    model.Ptr("Battle for the Premier League crown."),
				Type:           model.TypeDaily,
				Status:         model.StatusActive,
				EntryFee:       25,
				PrizePool:      5000,
				SalaryCap:      model.Ptr(50000.0),
				RosterSize:     11,
				MaxEntries:     model.Ptr(200),
				CurrentEntries: 156,
				StartTime:      at(2 * time.Hour),
				LockTime:       model.Ptr(at(90 * time.Minute)),
				EndTime:        model.Ptr(at(5 * time.Hour)),
				ScoringRules:   emptyRules(),
				CreatedAt:      at(-1 * time.Hour),
			},
		},
		{
			sportName: "Basketball",
			contest:   model.Contest{
				ID:             "contest_2",
				Name:           "NBA Championship",
				Description:    model.Ptr("Playoff action for the NBA title."),
				Type:           model.TypeTournament,
				Status:         model.StatusActive,
				EntryFee:       50,
				PrizePool:      10000,
				SalaryCap:      model.Ptr(60000.0),
				RosterSize:     8,
				MaxEntries:     model.Ptr(100),
				CurrentEntries: 89,
				StartTime:      at(4 * time.Hour),
				LockTime:       model.Ptr(at(210 * time.Minute)),
				EndTime:        model.Ptr(at(8 * time.Hour)),
				ScoringRules:   emptyRules(),
				CreatedAt:      at(-2 * time.Hour),
			},
		},
		{
			sportName: "NFL",
			contest:   model.Contest{
				ID:           "contest_3",
				Name:         "Sunday Gridiron Weekly",
				Description:  model.Ptr("A full week of NFL matchups."),
				Type:         model.TypeWeekly,
				Status:       model.StatusDraft,
				EntryFee:     10,
				PrizePool:    2500,
				SalaryCap:    model.Ptr(55000.0),
				RosterSize:   9,
				MaxEntries:   model.Ptr(500),
				StartTime:    at(72 * time.Hour),
				LockTime:     model.Ptr(at(71 * time.Hour)),
				EndTime:      model.Ptr(at(168 * time.Hour)),
				ScoringRules: emptyRules(),
				CreatedAt:    at(-3 * time.Hour),
			},
		},
		{
			sportName: "UFC",
			contest:   model.Contest{
				ID:             "contest_4",
				Name:           "Fight Night Head to Head",
				Description:    model.Ptr("One opponent, one card."),
				Type:           model.TypeHeadToHead,
				Status:         model.StatusLocked,
				EntryFee:       5,
				PrizePool:      9,
				SalaryCap:      model.Ptr(45000.0),
				RosterSize:     6,
				MaxEntries:     model.Ptr(2),
				CurrentEntries: 2,
				StartTime:      at(-1 * time.Hour),
				LockTime:       model.Ptr(at(-2 * time.Hour)),
				ScoringRules:   emptyRules(),
				CreatedAt:      at(-4 * time.Hour),
			},
		},
		{
			sportName: "Soccer",
			contest:   model.Contest{
				ID:             "contest_5",
				Name:           "Season Long Golden Boot",
				Type:           model.TypeSeasonal,
				Status:         model.StatusSettled,
				PrizePool:      1000,
				RosterSize:     11,
				CurrentEntries: 740,
				StartTime:      at(-90 * 24 * time.Hour),
				EndTime:        model.Ptr(at(-24 * time.Hour)),
				ScoringRules:   emptyRules(),
				CreatedAt:      at(-92 * 24 * time.Hour),
			},
		},
		{
			sportName: "NBA",
			contest:   model.Contest{
				ID:           "contest_6",
				Name:         "Triple Double Multiplier",
				Type:         model.TypeMultiplier,
				Status:       model.StatusCancelled,
				EntryFee:     15,
				SalaryCap:    model.Ptr(60000.0),
				RosterSize:   8,
				MaxEntries:   model.Ptr(50),
				StartTime:    at(24 * time.Hour),
				IsPrivate:    true,
				InviteCode:   model.Ptr("TRIPLE6"),
				ScoringRules: emptyRules(),
				CreatedAt:    at(-5 * time.Hour),
			},
		},
	}
}

func staticUser() model.User {
	return model.User{
		ID:        "user_1",
		Email:     model.Ptr("test@example.com"),
		Username:  model.Ptr("testuser"),
		Name:      model.Ptr("Test User"),
		CreatedAt: Epoch,
		UpdatedAt: Epoch,
	}
}
