package domain

import (
	"time"
)

const (
	MaxDraft  = 3
	MaxEvent  = 4
	MaxCouple = 2

	TokenLength = 6

	// MaxAliasLength bounds a stored, URI-encoded comment alias.
	MaxAliasLength = 300
	MaxGuestName   = 64
	MaxGuestGroup  = 32
)

type Status string

const (
	StatusDraft Status = "draft"
	StatusLive  Status = "live"
)

type Attendance string

const (
	AttendanceYes Attendance = "yes"
	AttendanceNo  Attendance = "no"
	AttendanceTBD Attendance = "tbd"
)

// LocalTime is one of the three Indonesian time zones shown next to an event.
type LocalTime string

const (
	LocalTimeWIB  LocalTime = "WIB"
	LocalTimeWITA LocalTime = "WITA"
	LocalTimeWIT  LocalTime = "WIT"
)

// Location is the fixed UTC offset of l. Unknown values fall back to WIB.
func (l LocalTime) Location() *time.Location {
	switch l {
	case LocalTimeWITA:
		return time.FixedZone("WITA", 8*60*60)
	case LocalTimeWIT:
		return time.FixedZone("WIT", 9*60*60)
	default:
		return time.FixedZone("WIB", 7*60*60)
	}
}

// Invitation is the root aggregate. Guests, comments and payments are owned by
// it but read and written as separate slices.
type Invitation struct {
	ID          string    `json:"id" validate:"required"`
	OwnerUserID string    `json:"ownerUserId" validate:"required"`
	Name        string    `json:"name" validate:"invname"`
	DisplayName string    `json:"displayName" validate:"max=64"`
	Status      Status    `json:"status" validate:"oneof=draft live"`
	Couple      []Person  `json:"couple" validate:"max=2,dive"`
	Events      []Event   `json:"events" validate:"min=1,max=4,dive"`
	Galleries   []Asset   `json:"galleries" validate:"max=24,dive"`
	Loadout     Loadout   `json:"loadout"`
	Stories     string    `json:"stories" validate:"max=20000"`
	Surprise    string    `json:"surprise" validate:"max=5000"`
	Music       *Asset    `json:"music" validate:"omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Person struct {
	Role      string `json:"role" validate:"oneof=groom bride"`
	FullName  string `json:"fullName" validate:"max=64"`
	NickName  string `json:"nickName" validate:"max=24"`
	Father    string `json:"father" validate:"max=64"`
	Mother    string `json:"mother" validate:"max=64"`
	Instagram string `json:"instagram" validate:"max=30"`
	Photo     *Asset `json:"photo" validate:"omitempty"`
}

type Event struct {
	ID        int       `json:"id" validate:"gt=0"`
	Date      time.Time `json:"date"`
	EventName string    `json:"eventName" validate:"required,max=40"`
	TimeStart string    `json:"timeStart" validate:"hhmm"`
	TimeEnd   string    `json:"timeEnd" validate:"omitempty,hhmm"`
	LocalTime LocalTime `json:"localTime" validate:"oneof=WIB WITA WIT"`
	PlaceName string    `json:"placeName" validate:"max=80"`
	District  string    `json:"district" validate:"max=60"`
	Province  string    `json:"province" validate:"max=60"`
	Detail    string    `json:"detail" validate:"max=200"`
	MapURL    string    `json:"mapUrl" validate:"omitempty,url"`
	OpensTo   string    `json:"opensTo" validate:"max=200"`
}

// Asset points at a file held by the media service.
type Asset struct {
	FileID       string `json:"fileId" validate:"required"`
	Name         string `json:"name"`
	URL          string `json:"url" validate:"required,url"`
	ThumbnailURL string `json:"thumbnailUrl" validate:"omitempty,url"`
}

type Loadout struct {
	Theme      string `json:"theme" validate:"required,max=32"`
	Foreground string `json:"foreground" validate:"max=32"`
	Background string `json:"background" validate:"max=32"`
}

type Guest struct {
	ID    int    `json:"id" validate:"gt=0"`
	Name  string `json:"name" validate:"guestname"`
	Slug  string `json:"slug" validate:"required"`
	Token string `json:"token" validate:"len=6,numeric"`
	Group string `json:"group,omitempty"`
}

// Alias is the display name a comment from this guest carries.
func (g Guest) Alias() string {
	return AliasOf(g.Slug)
}

// Comment stores alias and text URI-encoded. Token is empty for comments
// written by the owner.
type Comment struct {
	Alias    string     `json:"alias" validate:"required,max=300"`
	Text     string     `json:"text" validate:"required,max=3000"`
	Token    string     `json:"token,omitempty" validate:"omitempty,len=6,numeric"`
	IsComing Attendance `json:"isComing,omitempty" validate:"omitempty,oneof=yes no tbd"`
}

// Decoded returns the comment with alias and text URI-decoded. Values that
// fail to decode are returned as stored.
func (c Comment) Decoded() Comment {
	c.Alias = DecodeURIComponent(c.Alias)
	c.Text = DecodeURIComponent(c.Text)
	return c
}

// Payment is appended once per completed checkout and never changed.
type Payment struct {
	OrderID    string    `json:"orderId" validate:"required,max=64"`
	Amount     int64     `json:"amount" validate:"gt=0"`
	Guests     int       `json:"guests" validate:"gte=0"`
	ActiveDays int       `json:"activeDays" validate:"gte=0"`
	Method     string    `json:"method" validate:"max=32"`
	PaidAt     time.Time `json:"paidAt" validate:"required"`
}
