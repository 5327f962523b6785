// Package market provides the market domain model, schedule
// normalization, filtering, and data access.
package market

import (
	"strings"
	"time"
)

// Category classifies what kind of recurring event a market is.
type Category string

const (
	CategoryFarmersMarket  Category = "farmers-market"
	CategoryCraftFair      Category = "craft-fair"
	CategoryFleaMarket     Category = "flea-market"
	CategoryFoodFestival   Category = "food-festival"
	CategoryArtWalk        Category = "art-walk"
	CategoryNightMarket    Category = "night-market"
	CategoryHolidayMarket  Category = "holiday-market"
	CategoryAntiqueFair    Category = "antique-fair"
	CategoryCommunityEvent Category = "community-event"
	CategoryOther          Category = "other"
)

// ValidCategories is the set of allowed categories.
var ValidCategories = []Category{
	CategoryFarmersMarket, CategoryCraftFair, CategoryFleaMarket,
	CategoryFoodFestival, CategoryArtWalk, CategoryNightMarket,
	CategoryHolidayMarket, CategoryAntiqueFair, CategoryCommunityEvent,
	CategoryOther,
}

// IsValid checks if a category is recognized.
func (c Category) IsValid() bool {
	for _, v := range ValidCategories {
		if c == v {
			return true
		}
	}
	return false
}

// Status represents where a market is in its lifecycle.
// Markets are never hard-deleted; removal transitions to cancelled.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
	StatusInactive  Status = "inactive"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// ValidStatuses is the set of allowed market statuses.
var ValidStatuses = []Status{
	StatusDraft, StatusPending, StatusActive, StatusSuspended,
	StatusInactive, StatusCancelled, StatusCompleted,
}

// IsValid checks if a status is recognized.
func (s Status) IsValid() bool {
	for _, v := range ValidStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Location is where a market takes place.
type Location struct {
	Address string   `json:"address"`
	City    string   `json:"city"`
	State   string   `json:"state"`
	Zip     string   `json:"zip"`
	Lat     *float64 `json:"lat,omitempty"`
	Lng     *float64 `json:"lng,omitempty"`
}

// Accessibility is the set of boolean amenity flags a market can advertise.
type Accessibility struct {
	WheelchairAccess bool `json:"wheelchairAccess"`
	Parking          bool `json:"parking"`
	Restrooms        bool `json:"restrooms"`
	FamilyFriendly   bool `json:"familyFriendly"`
	PetFriendly      bool `json:"petFriendly"`
	Covered          bool `json:"covered"`
	Indoor           bool `json:"indoor"`
	Wifi             bool `json:"wifi"`
	ATM              bool `json:"atm"`
	FoodCourt        bool `json:"foodCourt"`
	LiveMusic        bool `json:"liveMusic"`
	Alcohol          bool `json:"alcohol"`
}

// Has reports whether the named flag is set. Unknown names are false.
func (a Accessibility) Has(flag string) bool {
	switch flag {
	case "wheelchairAccess":
		return a.WheelchairAccess
	case "parking":
		return a.Parking
	case "restrooms":
		return a.Restrooms
	case "familyFriendly":
		return a.FamilyFriendly
	case "petFriendly":
		return a.PetFriendly
	case "covered":
		return a.Covered
	case "indoor":
		return a.Indoor
	case "wifi":
		return a.Wifi
	case "atm":
		return a.ATM
	case "foodCourt":
		return a.FoodCourt
	case "liveMusic":
		return a.LiveMusic
	case "alcohol":
		return a.Alcohol
	}
	return false
}

// Stats holds engagement counters for a market.
type Stats struct {
	Views        int64   `json:"views"`
	Favorites    int64   `json:"favorites"`
	Applications int64   `json:"applications"`
	Comments     int64   `json:"comments"`
	Rating       float64 `json:"rating"`
}

// Market represents a recurring or one-off vendor event.
type Market struct {
	ID            int64         `json:"id"`
	Name          string        `json:"name"`
	Description   string        `json:"description"`
	Category      Category      `json:"category"`
	Location      Location      `json:"location"`
	Schedule      Schedule      `json:"schedule"`
	Status        Status        `json:"status"`
	Tags          []string      `json:"tags"`
	Accessibility Accessibility `json:"accessibility"`
	Stats         Stats         `json:"stats"`
	PromoterID    int64         `json:"promoterId"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// HasTag reports whether the market carries the given tag, case-insensitively.
func (m *Market) HasTag(tag string) bool {
	for _, t := range m.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// popularityScore weights intent-heavy counters above passive views.
func (m *Market) popularityScore() int64 {
	return m.Stats.Views + 3*m.Stats.Favorites + 5*m.Stats.Applications
}
