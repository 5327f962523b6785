// Package comment provides the market comment domain model and data access.
package comment

import "time"

// Comment represents a community note on a market.
type Comment struct {
	ID        int64     `json:"id"`
	MarketID  int64     `json:"marketId"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}
