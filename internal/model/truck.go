// Package model defines the food truck record and cleanup result types.
package model

import (
	"time"
)

// VerificationStatus represents the review state of a record.
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationVerified VerificationStatus = "verified"
	VerificationFlagged  VerificationStatus = "flagged"
)

// PriceRange buckets a truck's typical menu pricing.
type PriceRange string

const (
	PriceBudget   PriceRange = "$"
	PriceModerate PriceRange = "$$"
	PricePremium  PriceRange = "$$$"
	PriceLuxury   PriceRange = "$$$$"
)

// Location is a truck's last observed position.
type Location struct {
	Lat       float64    `json:"lat"`
	Lng       float64    `json:"lng"`
	Address   string     `json:"address,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"` // when the position was observed
}

// ContactInfo holds direct contact channels for a truck.
type ContactInfo struct {
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	Website string `json:"website,omitempty"`
}

// SocialMedia holds per-platform handles.
type SocialMedia struct {
	Instagram string `json:"instagram,omitempty"`
	Facebook  string `json:"facebook,omitempty"`
	Twitter   string `json:"twitter,omitempty"`
}

// MenuItem is a single dish on a menu.
type MenuItem struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	DietaryTags []string `json:"dietary_tags,omitempty"`
	IsPopular   bool     `json:"is_popular"`
}

// MenuCategory groups menu items under a named heading.
type MenuCategory struct {
	CategoryName string     `json:"category_name"`
	Items        []MenuItem `json:"items"`
}

// ScheduleEntry is one recurring operating window.
type ScheduleEntry struct {
	DayOfWeek string `json:"day_of_week"`
	OpenTime  string `json:"open_time,omitempty"`
	CloseTime string `json:"close_time,omitempty"`
	Location  string `json:"location,omitempty"`
}

// FoodTruckRecord is the golden record for a food truck. It is produced by
// the scraping pipeline and maintained by the cleanup subsystem.
type FoodTruckRecord struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`

	CurrentLocation *Location    `json:"current_location,omitempty"`
	ContactInfo     *ContactInfo `json:"contact_info,omitempty"`
	SocialMedia     *SocialMedia `json:"social_media,omitempty"`

	Menu        []MenuCategory  `json:"menu,omitempty"`
	CuisineType []string        `json:"cuisine_type,omitempty"`
	PriceRange  PriceRange      `json:"price_range,omitempty"`
	Schedule    []ScheduleEntry `json:"schedule,omitempty"`

	AverageRating *float64 `json:"average_rating,omitempty"`
	ReviewCount   *int     `json:"review_count,omitempty"`

	SourceURLs         []string           `json:"source_urls,omitempty"`
	DataQualityScore   float64            `json:"data_quality_score"`
	VerificationStatus VerificationStatus `json:"verification_status"`

	LastScrapedAt *time.Time `json:"last_scraped_at,omitempty"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Phone returns the record's phone number, or "" if no contact info is set.
func (r *FoodTruckRecord) Phone() string {
	if r.ContactInfo == nil {
		return ""
	}
	return r.ContactInfo.Phone
}

// HasCoordinates reports whether the record carries a usable position.
func (r *FoodTruckRecord) HasCoordinates() bool {
	return r.CurrentLocation != nil &&
		r.CurrentLocation.Lat >= -90 && r.CurrentLocation.Lat <= 90 &&
		r.CurrentLocation.Lng >= -180 && r.CurrentLocation.Lng <= 180 &&
		!(r.CurrentLocation.Lat == 0 && r.CurrentLocation.Lng == 0)
}
