// Package seed loads demo data for local development.
package seed

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/rumfor/market-tracker/internal/auth"
	"github.com/rumfor/market-tracker/internal/market"
)

// Demo populates an empty database with a demo promoter and a handful
// of markets covering every schedule shape. Running it twice is a
// no-op.
func Demo(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM markets").Scan(&count); err != nil {
		return fmt.Errorf("checking markets: %w", err)
	}
	if count > 0 {
		slog.Info("seed skipped, markets already present", "count", count)
		return nil
	}

	users := auth.NewUserStore(db, "")
	promoter, err := users.Register("demo-promoter@rumfor.test", "Demo Promoter", "demo-password-1", auth.RolePromoter)
	if err != nil {
		return fmt.Errorf("creating demo promoter: %w", err)
	}

	repo := market.NewRepository(db)
	season := time.Now().Year()

	for _, m := range demoMarkets(promoter.ID, season) {
		created, err := repo.Insert(m)
		if err != nil {
			return fmt.Errorf("seeding %q: %w", m.Name, err)
		}
		if err := repo.UpdateStatus(created.ID, market.StatusActive); err != nil {
			return fmt.Errorf("activating %q: %w", m.Name, err)
		}
	}

	slog.Info("seeded demo markets", "promoter", promoter.Email)
	return nil
}

func demoMarkets(promoterID int64, year int) []*market.Market {
	date := func(month, day int) string {
		return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
	}

	return []*market.Market{
		{
			Name:        "Riverside Farmers Market",
			Description: "Weekly produce and flowers along the riverfront.",
			Category:    market.CategoryFarmersMarket,
			Location: market.Location{
				Address: "200 River Walk",
				City:    "Portland",
				State:   "OR",
				Zip:     "97201",
			},
			// Recurring shape: every Saturday through the season.
			Schedule: market.Schedule{
				Recurring: &market.RecurringPattern{
					SeasonStart: date(5, 1),
					SeasonEnd:   date(10, 31),
					DaysOfWeek:  []string{"saturday"},
					StartTime:   "08:00",
					EndTime:     "14:00",
				},
			},
			Tags: []string{"produce", "flowers", "family"},
			Accessibility: market.Accessibility{
				WheelchairAccess: true,
				Parking:          true,
				Restrooms:        true,
				FamilyFriendly:   true,
			},
			PromoterID: promoterID,
		},
		{
			Name:        "Old Town Night Market",
			Description: "Street food and live music on summer weekend evenings.",
			Category:    market.CategoryNightMarket,
			Location: market.Location{
				Address: "41 Old Town Square",
				City:    "Portland",
				State:   "OR",
				Zip:     "97209",
			},
			Schedule: market.Schedule{
				Recurring: &market.RecurringPattern{
					SeasonStart: date(6, 1),
					SeasonEnd:   date(8, 31),
					DaysOfWeek:  []string{"friday", "saturday"},
					StartTime:   "17:00",
					EndTime:     "23:00",
				},
			},
			Tags: []string{"food", "music", "evening"},
			Accessibility: market.Accessibility{
				FoodCourt: true,
				LiveMusic: true,
				Alcohol:   true,
				ATM:       true,
			},
			PromoterID: promoterID,
		},
		{
			Name:        "Winter Craft Fair",
			Description: "Two-weekend holiday fair with local makers.",
			Category:    market.CategoryHolidayMarket,
			Location: market.Location{
				Address: "9 Exhibition Hall",
				City:    "Salem",
				State:   "OR",
				Zip:     "97301",
			},
			// Special-dates shape: explicit one-off dates.
			Schedule: market.Schedule{
				Special: &market.SpecialDates{
					StartTime: "10:00",
					EndTime:   "18:00",
					Dates: []market.SpecialDate{
						{Date: date(12, 5)},
						{Date: date(12, 6)},
						{Date: date(12, 12), StartTime: "09:00"},
						{Date: date(12, 13), EndTime: "16:00"},
					},
				},
			},
			Tags: []string{"crafts", "holiday", "indoor"},
			Accessibility: market.Accessibility{
				Indoor:           true,
				WheelchairAccess: true,
				Restrooms:        true,
				Wifi:             true,
			},
			PromoterID: promoterID,
		},
		{
			Name:        "Harvest Food Festival",
			Description: "One-day celebration of regional food trucks and growers.",
			Category:    market.CategoryFoodFestival,
			Location: market.Location{
				Address: "1500 Fairgrounds Rd",
				City:    "Eugene",
				State:   "OR",
				Zip:     "97402",
			},
			// Session-list shape: pre-normalized sessions.
			Schedule: market.Schedule{
				Sessions: []market.Session{
					{
						Day:       6,
						StartTime: "11:00",
						EndTime:   "20:00",
						StartDate: date(9, 19),
						EndDate:   date(9, 19),
					},
				},
			},
			Tags: []string{"food", "trucks", "harvest"},
			Accessibility: market.Accessibility{
				Parking:        true,
				FoodCourt:      true,
				PetFriendly:    true,
				FamilyFriendly: true,
			},
			PromoterID: promoterID,
		},
	}
}
