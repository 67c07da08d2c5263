package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"tablevote/internal/group"
	"tablevote/internal/llm"
)

const (
	defaultSearchURL  = "https://maps.googleapis.com/maps/api/place/nearbysearch/json"
	defaultDetailsURL = "https://maps.googleapis.com/maps/api/place/details/json"
	defaultPhotoURL   = "https://maps.googleapis.com/maps/api/place/photo"

	maxPhotos          = 5
	maxReviews         = 5
	minReviewsForBlurb = 5

	requestTimeout = 15 * time.Second
)

// PhotoMirror copies a photo into our own object storage so clients
// never see the key-bearing Google photo URL. Optional.
type PhotoMirror interface {
	UploadBytes(ctx context.Context, key, contentType string, body []byte) (string, error)
}

// GoogleClient fetches restaurant candidates from the Google Places
// API. One nearby search plus one details call per place, sequential,
// no retries: any upstream failure aborts the whole fetch so group
// creation fails cleanly instead of persisting a partial list.
type GoogleClient struct {
	apiKey     string
	searchURL  string
	detailsURL string
	photoURL   string
	language   string
	client     *http.Client
	summarizer llm.Summarizer
	mirror     PhotoMirror
}

func NewGoogleClient(apiKey string, summarizer llm.Summarizer, mirror PhotoMirror) *GoogleClient {
	return &GoogleClient{
		apiKey:     apiKey,
		searchURL:  defaultSearchURL,
		detailsURL: defaultDetailsURL,
		photoURL:   defaultPhotoURL,
		language:   "ja",
		client:     &http.Client{Timeout: requestTimeout},
		summarizer: summarizer,
		mirror:     mirror,
	}
}

type searchResponse struct {
	Status  string        `json:"status"`
	Results []placeResult `json:"results"`
}

type placeResult struct {
	PlaceID    string   `json:"place_id"`
	Name       string   `json:"name"`
	Vicinity   string   `json:"vicinity"`
	Rating     *float64 `json:"rating"`
	PriceLevel *int     `json:"price_level"`
	Types      []string `json:"types"`
	Photos     []photo  `json:"photos"`
	Geometry   struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
}

type photo struct {
	PhotoReference string `json:"photo_reference"`
}

type detailsResponse struct {
	Status string `json:"status"`
	Result struct {
		Name             string   `json:"name"`
		FormattedAddress string   `json:"formatted_address"`
		Rating           *float64 `json:"rating"`
		PriceLevel       *int     `json:"price_level"`
		Types            []string `json:"types"`
		Photos           []photo  `json:"photos"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
		Reviews []struct {
			AuthorName              string `json:"author_name"`
			Rating                  int    `json:"rating"`
			Text                    string `json:"text"`
			RelativeTimeDescription string `json:"relative_time_description"`
		} `json:"reviews"`
		PhoneNumber      string        `json:"formatted_phone_number"`
		Website          string        `json:"website"`
		URL              string        `json:"url"`
		UserRatingsTotal *int          `json:"user_ratings_total"`
		OpeningHours     *openingHours `json:"opening_hours"`
	} `json:"result"`
}

type openingHours struct {
	OpenNow     *bool    `json:"open_now"`
	WeekdayText []string `json:"weekday_text"`
}

func (o *openingHours) toModel() *group.OpeningHours {
	if o == nil {
		return nil
	}
	return &group.OpeningHours{
		OpenNow:     o.OpenNow,
		WeekdayText: o.WeekdayText,
	}
}

func (g *GoogleClient) Search(ctx context.Context, prefs group.SearchPreferences) ([]group.Candidate, error) {
	if g.apiKey == "" {
		return nil, errors.New("google api key not configured")
	}

	params := url.Values{}
	params.Set("key", g.apiKey)
	params.Set("location", fmt.Sprintf("%f,%f", prefs.Latitude, prefs.Longitude))
	params.Set("radius", strconv.Itoa(prefs.Radius))
	params.Set("type", "restaurant")
	params.Set("opennow", "true")
	params.Set("language", g.language)
	if prefs.MinPrice != nil && prefs.MaxPrice != nil {
		params.Set("minprice", strconv.Itoa(*prefs.MinPrice))
		params.Set("maxprice", strconv.Itoa(*prefs.MaxPrice))
	}

	var search searchResponse
	if err := g.getJSON(ctx, g.searchURL+"?"+params.Encode(), &search); err != nil {
		return nil, fmt.Errorf("nearby search: %w", err)
	}
	if search.Status != "OK" && search.Status != "ZERO_RESULTS" {
		return nil, fmt.Errorf("google api error: %s", search.Status)
	}

	var candidates []group.Candidate
	for _, place := range search.Results {
		candidate, err := g.buildCandidate(ctx, place)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, candidate)
	}

	return candidates, nil
}

func (g *GoogleClient) buildCandidate(ctx context.Context, place placeResult) (group.Candidate, error) {
	var photoURLs []string
	for _, p := range place.Photos {
		if len(photoURLs) == maxPhotos {
			break
		}
		if p.PhotoReference != "" {
			photoURLs = append(photoURLs, g.photoRefURL(p.PhotoReference))
		}
	}

	details, err := g.fetchDetails(ctx, place.PlaceID)
	if err != nil {
		return group.Candidate{}, fmt.Errorf("place details for %s: %w", place.PlaceID, err)
	}

	for _, p := range details.Result.Photos {
		if len(photoURLs) == maxPhotos {
			break
		}
		if p.PhotoReference == "" {
			continue
		}
		u := g.photoRefURL(p.PhotoReference)
		if !contains(photoURLs, u) {
			photoURLs = append(photoURLs, u)
		}
	}

	var reviews []group.Review
	for _, r := range details.Result.Reviews {
		if len(reviews) == maxReviews {
			break
		}
		reviews = append(reviews, group.Review{
			AuthorName: r.AuthorName,
			Rating:     r.Rating,
			Text:       r.Text,
			Time:       r.RelativeTimeDescription,
		})
	}

	summary := ""
	if g.summarizer != nil && len(reviews) >= minReviewsForBlurb {
		summary, err = g.summarizer.Summarize(ctx, place.Name, reviews)
		if err != nil {
			return group.Candidate{}, fmt.Errorf("summarize %s: %w", place.PlaceID, err)
		}
	}

	if g.mirror != nil && len(photoURLs) > 0 {
		if mirrored := g.mirrorPhoto(ctx, place.PlaceID, photoURLs[0]); mirrored != "" {
			photoURLs[0] = mirrored
		}
	}

	var photoURL string
	if len(photoURLs) > 0 {
		photoURL = photoURLs[0]
	}

	return group.Candidate{
		PlaceID:          place.PlaceID,
		Name:             place.Name,
		Address:          place.Vicinity,
		Rating:           place.Rating,
		PriceLevel:       place.PriceLevel,
		PhotoURL:         photoURL,
		PhotoURLs:        photoURLs,
		Lat:              place.Geometry.Location.Lat,
		Lng:              place.Geometry.Location.Lng,
		Types:            place.Types,
		Reviews:          reviews,
		PhoneNumber:      details.Result.PhoneNumber,
		Website:          details.Result.Website,
		MapsURL:          details.Result.URL,
		UserRatingsTotal: details.Result.UserRatingsTotal,
		OpeningHours:     details.Result.OpeningHours.toModel(),
		Summary:          summary,
	}, nil
}

// detailsFields is the wider field set for the standalone details
// lookup; the group-creation path requests a narrower one per place.
const detailsFields = "name,formatted_address,rating,price_level,photos,geometry,types," +
	"reviews,user_ratings_total,formatted_phone_number,website,url,opening_hours"

// GetDetails fetches one place as a fully populated candidate,
// including address, coordinates and opening hours.
func (g *GoogleClient) GetDetails(ctx context.Context, placeID string) (group.Candidate, error) {
	if g.apiKey == "" {
		return group.Candidate{}, errors.New("google api key not configured")
	}

	params := url.Values{}
	params.Set("key", g.apiKey)
	params.Set("place_id", placeID)
	params.Set("fields", detailsFields)
	params.Set("language", g.language)

	var details detailsResponse
	if err := g.getJSON(ctx, g.detailsURL+"?"+params.Encode(), &details); err != nil {
		return group.Candidate{}, fmt.Errorf("place details: %w", err)
	}
	switch details.Status {
	case "OK":
	case "NOT_FOUND", "INVALID_REQUEST", "ZERO_RESULTS":
		return group.Candidate{}, fmt.Errorf("%w: %s", group.ErrCandidateNotFound, placeID)
	default:
		return group.Candidate{}, fmt.Errorf("google api error: %s", details.Status)
	}

	var photoURLs []string
	for _, p := range details.Result.Photos {
		if len(photoURLs) == maxPhotos {
			break
		}
		if p.PhotoReference != "" {
			photoURLs = append(photoURLs, g.photoRefURL(p.PhotoReference))
		}
	}
	var photoURL string
	if len(photoURLs) > 0 {
		photoURL = photoURLs[0]
	}

	var reviews []group.Review
	for _, r := range details.Result.Reviews {
		if len(reviews) == maxReviews {
			break
		}
		reviews = append(reviews, group.Review{
			AuthorName: r.AuthorName,
			Rating:     r.Rating,
			Text:       r.Text,
			Time:       r.RelativeTimeDescription,
		})
	}

	summary := ""
	if g.summarizer != nil && len(reviews) >= minReviewsForBlurb {
		s, err := g.summarizer.Summarize(ctx, details.Result.Name, reviews)
		if err != nil {
			return group.Candidate{}, fmt.Errorf("summarize %s: %w", placeID, err)
		}
		summary = s
	}

	return group.Candidate{
		PlaceID:          placeID,
		Name:             details.Result.Name,
		Address:          details.Result.FormattedAddress,
		Rating:           details.Result.Rating,
		PriceLevel:       details.Result.PriceLevel,
		PhotoURL:         photoURL,
		PhotoURLs:        photoURLs,
		Lat:              details.Result.Geometry.Location.Lat,
		Lng:              details.Result.Geometry.Location.Lng,
		Types:            details.Result.Types,
		Reviews:          reviews,
		PhoneNumber:      details.Result.PhoneNumber,
		Website:          details.Result.Website,
		MapsURL:          details.Result.URL,
		UserRatingsTotal: details.Result.UserRatingsTotal,
		OpeningHours:     details.Result.OpeningHours.toModel(),
		Summary:          summary,
	}, nil
}

func (g *GoogleClient) fetchDetails(ctx context.Context, placeID string) (*detailsResponse, error) {
	params := url.Values{}
	params.Set("key", g.apiKey)
	params.Set("place_id", placeID)
	params.Set("fields", "reviews,rating,user_ratings_total,photos,formatted_phone_number,website,url,opening_hours")
	params.Set("language", g.language)

	var details detailsResponse
	if err := g.getJSON(ctx, g.detailsURL+"?"+params.Encode(), &details); err != nil {
		return nil, err
	}
	if details.Status != "OK" {
		return nil, fmt.Errorf("google api error: %s", details.Status)
	}
	return &details, nil
}

// mirrorPhoto is best-effort: on any failure the direct Google URL is
// kept and the failure is only logged.
func (g *GoogleClient) mirrorPhoto(ctx context.Context, placeID, photoURL string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, photoURL, nil)
	if err != nil {
		return ""
	}

	resp, err := g.client.Do(req)
	if err != nil {
		slog.Warn("photo mirror fetch failed", "place_id", placeID, "error", err)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Warn("photo mirror fetch failed", "place_id", placeID, "status", resp.StatusCode)
		return ""
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Warn("photo mirror read failed", "place_id", placeID, "error", err)
		return ""
	}

	key := fmt.Sprintf("photos/%s/0.jpg", placeID)
	mirrored, err := g.mirror.UploadBytes(ctx, key, resp.Header.Get("Content-Type"), body)
	if err != nil {
		slog.Warn("photo mirror upload failed", "place_id", placeID, "error", err)
		return ""
	}
	return mirrored
}

func (g *GoogleClient) photoRefURL(ref string) string {
	return fmt.Sprintf("%s?maxwidth=800&photoreference=%s&key=%s", g.photoURL, ref, g.apiKey)
}

func (g *GoogleClient) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func contains(urls []string, u string) bool {
	for _, existing := range urls {
		if existing == u {
			return true
		}
	}
	return false
}
