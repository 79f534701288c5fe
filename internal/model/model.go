package model

import "time"

type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserDetails is the runner profile, separate from the account row.
type UserDetails struct {
	UserID      string     `json:"userId"`
	Searchable  bool       `json:"searchable"`
	Name        string     `json:"name"`
	Location    string     `json:"location"`
	Sex         string     `json:"sex"` // "M", "F" or "N"
	Birthday    *time.Time `json:"birthday,omitempty"`
	Affiliation string     `json:"affiliation"`
}

type MeetStatus string

const (
	StatusPast     MeetStatus = "past"
	StatusCurrent  MeetStatus = "current"
	StatusUpcoming MeetStatus = "upcoming"
)

// Meet is an official race event, sourced from the meets CSV.
// Priority ranks 1 (highest) to 3 and only affects sort order.
type Meet struct {
	ID             string     `json:"id"`
	Date           time.Time  `json:"date"`
	Name           string     `json:"name"`
	Level          string     `json:"level"`
	Priority       int        `json:"priority"`
	LiveResultsURL string     `json:"liveResultsUrl,omitempty"`
	WatchURL       string     `json:"watchUrl,omitempty"`
	Status         MeetStatus `json:"status,omitempty"`
}

// UserRace is a race entry the user created for their own schedule.
// Date is the canonical instant; TimeZone is display metadata only.
type UserRace struct {
	ID             string    `json:"id"`
	UserID         string    `json:"-"`
	Name           string    `json:"name"`
	Distance       string    `json:"distance"`
	Date           time.Time `json:"date"`
	TimeZone       string    `json:"timeZone,omitempty"`
	Location       string    `json:"location"`
	LiveResultsURL string    `json:"liveResultsUrl,omitempty"`
	WatchURL       string    `json:"watchUrl,omitempty"`
	MeetPageURL    string    `json:"meetPageUrl,omitempty"`
	Levels         []string  `json:"levels"`
	Instructions   string    `json:"instructions,omitempty"`
	Comments       string    `json:"comments,omitempty"`
}

func (r UserRace) InPast(now time.Time) bool {
	return r.Date.Before(now)
}

// FeaturedMeet is a highlighted meet banner with its own event list.
type FeaturedMeet struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Date           time.Time `json:"date"`
	Location       string    `json:"location,omitempty"`
	LiveResultsURL string    `json:"liveResultsUrl,omitempty"`
	WatchURL       string    `json:"watchUrl,omitempty"`
	HomeMeetURL    string    `json:"homeMeetUrl,omitempty"`
}

type FeaturedEvent struct {
	MeetID string     `json:"meetId"`
	ID     string     `json:"id"`
	Name   string     `json:"name"`
	Start  *time.Time `json:"start,omitempty"`
}

// Watching holds everything the user has starred.
type Watching struct {
	FriendIDs         []string `json:"friendIds"`
	FeaturedEventKeys []string `json:"featuredEventKeys"`
}

// Settings are the per-user reminder preferences. NotificationsEnabled is
// the opt-in gate; while false, all scheduling silently no-ops.
type Settings struct {
	NotificationsEnabled  bool `json:"notificationsEnabled"`
	OwnerReminderEnabled  bool `json:"ownerReminderEnabled"`
	OwnerHoursBefore      int  `json:"ownerHoursBefore"`
	WatchingEnabled       bool `json:"watchingEnabled"`
	WatchingFirstMinutes  int  `json:"watchingFirstMinutes"`
	WatchingSecondMinutes int  `json:"watchingSecondMinutes"`
}

func DefaultSettings() Settings {
	return Settings{
		NotificationsEnabled:  false,
		OwnerReminderEnabled:  true,
		OwnerHoursBefore:      6,
		WatchingEnabled:       true,
		WatchingFirstMinutes:  20,
		WatchingSecondMinutes: 0,
	}
}

// FriendSearchResult is a row from the runner search.
type FriendSearchResult struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Location    string `json:"location,omitempty"`
	Affiliation string `json:"affiliation,omitempty"`
}
