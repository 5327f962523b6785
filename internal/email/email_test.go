package email

import (
	"strings"
	"testing"
	"time"

	"github.com/rumfor/market-tracker/internal/market"
	"github.com/rumfor/market-tracker/internal/tracking"
)

func TestIsConfigured(t *testing.T) {
	tests := []struct {
		name string
		cfg  SMTPConfig
		want bool
	}{
		{"empty", SMTPConfig{}, false},
		{"host only", SMTPConfig{Host: "smtp.example.com"}, false},
		{"from only", SMTPConfig{From: "noreply@example.com"}, false},
		{"host and from", SMTPConfig{Host: "smtp.example.com", From: "noreply@example.com"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.IsConfigured(); got != tt.want {
				t.Errorf("IsConfigured() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSendUnconfigured(t *testing.T) {
	err := Send(SMTPConfig{}, []string{"v@example.com"}, "hi", "body")
	if err == nil {
		t.Fatal("expected error for unconfigured SMTP")
	}
}

func TestFormatDigest(t *testing.T) {
	// A one-day session well in the future so "next" always appears.
	future := time.Now().AddDate(1, 0, 0).Format("2006-01-02")

	items := []TrackedMarket{
		{
			Tracking: &tracking.Tracking{
				Status:        tracking.StatusApplied,
				TodoCount:     4,
				TodoDone:      1,
				TotalExpenses: 7550,
			},
			Market: &market.Market{
				ID:   3,
				Name: "Riverside Farmers Market",
				Location: market.Location{
					City:  "Portland",
					State: "OR",
				},
				Schedule: market.Schedule{
					Sessions: []market.Session{
						{Day: 6, StartTime: "08:00", EndTime: "14:00", StartDate: future, EndDate: future},
					},
				},
			},
		},
		{
			Tracking: &tracking.Tracking{Status: tracking.StatusInterested},
			Market:   &market.Market{ID: 9, Name: "Winter Craft Fair"},
		},
	}

	body := FormatDigest(items, "http://localhost:8080")

	for _, want := range []string{
		"your 2 tracked markets",
		"1. Riverside Farmers Market (applied)",
		"Portland, OR",
		"next: " + future,
		"todos 1/4",
		"spent $75.50",
		"http://localhost:8080/api/markets/3",
		"2. Winter Craft Fair (interested)",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("digest missing %q:\n%s", want, body)
		}
	}

	// The second market has no todos or expenses; its detail line must
	// not mention them.
	second := body[strings.Index(body, "2. Winter"):]
	if strings.Contains(second, "todos") || strings.Contains(second, "spent") {
		t.Errorf("empty aggregates leaked into digest:\n%s", second)
	}
}

func TestFormatDigestNoBaseURL(t *testing.T) {
	items := []TrackedMarket{
		{
			Tracking: &tracking.Tracking{Status: tracking.StatusInterested},
			Market:   &market.Market{ID: 5, Name: "Night Market"},
		},
	}

	body := FormatDigest(items, "")
	if strings.Contains(body, "/api/markets/") {
		t.Errorf("link rendered without base URL:\n%s", body)
	}
}

func TestNextSessionDateSkipsPast(t *testing.T) {
	past := time.Now().AddDate(-1, 0, 0).Format("2006-01-02")
	future := time.Now().AddDate(0, 1, 0).Format("2006-01-02")

	m := &market.Market{
		Schedule: market.Schedule{
			Sessions: []market.Session{
				{Day: 6, StartTime: "08:00", EndTime: "14:00", StartDate: past, EndDate: past},
				{Day: 6, StartTime: "08:00", EndTime: "14:00", StartDate: future, EndDate: future},
			},
		},
	}

	if got := nextSessionDate(m); got != future {
		t.Errorf("nextSessionDate() = %q, want %q", got, future)
	}

	onlyPast := &market.Market{
		Schedule: market.Schedule{
			Sessions: []market.Session{
				{Day: 6, StartTime: "08:00", EndTime: "14:00", StartDate: past, EndDate: past},
			},
		},
	}
	if got := nextSessionDate(onlyPast); got != "" {
		t.Errorf("nextSessionDate() = %q, want empty for past-only schedule", got)
	}
}
