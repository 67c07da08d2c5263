package group

import "time"

// Status is the group lifecycle state. The only legal transition is
// voting -> finished; it never reverts.
type Status string

const (
	StatusVoting   Status = "voting"
	StatusFinished Status = "finished"
)

// VoteValue is a member's verdict on one candidate.
type VoteValue string

const (
	VoteLike    VoteValue = "like"
	VoteDislike VoteValue = "dislike"
)

func (v VoteValue) Valid() bool {
	return v == VoteLike || v == VoteDislike
}

type SearchPreferences struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Radius    int      `json:"radius"`
	MinPrice  *int     `json:"min_price,omitempty"`
	MaxPrice  *int     `json:"max_price,omitempty"`
	Types     []string `json:"types,omitempty"`
}

type Group struct {
	ID          string
	GroupName   string
	OrganizerID string
	Preferences SearchPreferences
	Status      Status
	CreatedAt   time.Time
}

type Review struct {
	AuthorName string `json:"author_name"`
	Rating     int    `json:"rating"`
	Text       string `json:"text"`
	Time       string `json:"time"`
}

type OpeningHours struct {
	OpenNow     *bool    `json:"open_now,omitempty"`
	WeekdayText []string `json:"weekday_text,omitempty"`
}

// Candidate is a restaurant snapshot frozen at group creation. Position
// preserves the provider's original ordering for stable default display.
type Candidate struct {
	PlaceID          string        `json:"place_id"`
	Position         int           `json:"-"`
	Name             string        `json:"name"`
	Address          string        `json:"address"`
	Rating           *float64      `json:"rating,omitempty"`
	PriceLevel       *int          `json:"price_level,omitempty"`
	PhotoURL         string        `json:"photo_url,omitempty"`
	PhotoURLs        []string      `json:"photo_urls,omitempty"`
	Lat              float64       `json:"lat"`
	Lng              float64       `json:"lng"`
	Types            []string      `json:"types,omitempty"`
	Reviews          []Review      `json:"reviews,omitempty"`
	PhoneNumber      string        `json:"phone_number,omitempty"`
	Website          string        `json:"website,omitempty"`
	MapsURL          string        `json:"google_maps_url,omitempty"`
	UserRatingsTotal *int          `json:"user_ratings_total,omitempty"`
	OpeningHours     *OpeningHours `json:"opening_hours,omitempty"`
	Summary          string        `json:"summary,omitempty"`
}

type Vote struct {
	GroupID  string
	MemberID string
	PlaceID  string
	Value    VoteValue
}

// CandidateResult is the derived per-candidate tally; recomputed on
// demand, never stored.
type CandidateResult struct {
	Restaurant Candidate `json:"restaurant"`
	Score      int       `json:"score"`
	Likes      int       `json:"likes"`
	Dislikes   int       `json:"dislikes"`
}

type CreateGroupResult struct {
	GroupID          string `json:"group_id"`
	InviteURL        string `json:"invite_url"`
	OrganizerID      string `json:"organizer_id"`
	OrganizerJoinURL string `json:"organizer_join_url"`
	GroupName        string `json:"group_name,omitempty"`
}

type GroupInfo struct {
	GroupID     string            `json:"group_id"`
	Status      Status            `json:"status"`
	OrganizerID string            `json:"organizer_id"`
	Members     []string          `json:"members"`
	CreatedAt   time.Time         `json:"created_at"`
	Preferences SearchPreferences `json:"preferences"`
	GroupName   string            `json:"group_name,omitempty"`
}

type GroupResults struct {
	GroupID string            `json:"group_id"`
	Status  Status            `json:"status"`
	Results []CandidateResult `json:"results"`
}
