package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rumfor/market-tracker/internal/comment"
	"github.com/rumfor/market-tracker/internal/market"
	"github.com/rumfor/market-tracker/internal/tracking"
)

// printJSON marshals v as indented JSON and writes it to stdout.
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printMarketSummary prints a single market in text format.
func printMarketSummary(m *market.Market) {
	fmt.Printf("Market #%d: %s\n", m.ID, m.Name)
	fmt.Printf("  Category: %s\n", m.Category)
	fmt.Printf("  Status:   %s\n", m.Status)
	if m.Location.City != "" || m.Location.State != "" {
		fmt.Printf("  Where:    %s, %s\n", m.Location.City, m.Location.State)
	}
	if m.Location.Address != "" {
		fmt.Printf("  Address:  %s\n", m.Location.Address)
	}
	if m.Description != "" {
		fmt.Printf("  About:    %s\n", truncate(m.Description, 70))
	}
	if len(m.Tags) > 0 {
		fmt.Printf("  Tags:     %s\n", strings.Join(m.Tags, ", "))
	}
	for _, s := range m.Schedule.Normalize() {
		fmt.Printf("  When:     %s\n", formatSession(s))
	}
	fmt.Printf("  Stats:    %d views, %d favorites, %d applications, %d comments\n",
		m.Stats.Views, m.Stats.Favorites, m.Stats.Applications, m.Stats.Comments)
}

// printMarketTable prints a list of markets as a formatted table.
func printMarketTable(markets []*market.Market, total int) error {
	if len(markets) == 0 {
		fmt.Println("No markets found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tCITY\tSTATUS"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	if _, err := fmt.Fprintln(w, "--\t----\t--------\t----\t------"); err != nil {
		return fmt.Errorf("writing table separator: %w", err)
	}

	for _, m := range markets {
		city := m.Location.City
		if city == "" {
			city = "-"
		}
		if _, err := fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			m.ID, truncate(m.Name, 40), m.Category, city, m.Status); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}

	if total > len(markets) {
		fmt.Printf("\nShowing %d of %d markets\n", len(markets), total)
	} else {
		fmt.Printf("\nTotal: %d markets\n", len(markets))
	}
	return nil
}

// printTrackingTable prints the caller's tracked markets as a table.
func printTrackingTable(trackings []*tracking.Tracking) error {
	if len(trackings) == 0 {
		fmt.Println("No tracked markets.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "ID\tMARKET\tSTATUS\tTODOS\tSPENT"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	if _, err := fmt.Fprintln(w, "--\t------\t------\t-----\t-----"); err != nil {
		return fmt.Errorf("writing table separator: %w", err)
	}

	for _, tr := range trackings {
		if _, err := fmt.Fprintf(w, "%d\t#%d\t%s\t%d/%d\t%s\n",
			tr.ID, tr.MarketID, tr.Status, tr.TodoDone, tr.TodoCount,
			formatCents(tr.TotalExpenses)); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}

	fmt.Printf("\nTotal: %d tracked markets\n", len(trackings))
	return nil
}

// printCommentList prints comments in text format.
func printCommentList(comments []*comment.Comment) {
	if len(comments) == 0 {
		fmt.Println("No comments.")
		return
	}

	for _, c := range comments {
		author := c.Author
		if author == "" {
			author = "anonymous"
		}
		fmt.Printf("[%s] #%d (%s)\n  %s\n\n",
			c.CreatedAt.Format("2006-01-02 15:04"), c.ID, author, c.Text)
	}
}

// formatSession renders one normalized schedule session.
func formatSession(s market.Session) string {
	day := time.Weekday(s.Day).String()[:3]
	if s.StartDate == s.EndDate {
		return fmt.Sprintf("%s %s %s-%s", day, s.StartDate, s.StartTime, s.EndTime)
	}
	return fmt.Sprintf("%s %s-%s (%s to %s)", day, s.StartTime, s.EndTime, s.StartDate, s.EndDate)
}

// formatCents renders an amount in cents as dollars.
func formatCents(cents int64) string {
	return fmt.Sprintf("$%.2f", float64(cents)/100)
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
