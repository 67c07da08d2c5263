package group

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// CandidateProvider fetches the initial candidate list for a group.
// Called exactly once, at creation time; the result is frozen.
type CandidateProvider interface {
	Search(ctx context.Context, prefs SearchPreferences) ([]Candidate, error)
}

const (
	maxGroupNameLength = 50
	maxMemberIDLength  = 64
	maxIDAttempts      = 5

	defaultRadius   = 1000
	defaultMinPrice = 0
	defaultMaxPrice = 4

	DefaultListLimit = 20
	MaxListLimit     = 50

	fallbackResultCount = 5
)

var defaultTypes = []string{"restaurant", "cafe"}

type Service struct {
	repo            Repository
	provider        CandidateProvider
	frontendBaseURL string
}

func NewService(repo Repository, provider CandidateProvider, frontendBaseURL string) *Service {
	return &Service{
		repo:            repo,
		provider:        provider,
		frontendBaseURL: strings.TrimRight(frontendBaseURL, "/"),
	}
}

// --------------------------------------------------
// Create group
// --------------------------------------------------
func (s *Service) CreateGroup(ctx context.Context, prefs SearchPreferences, groupName, creatorID string) (*CreateGroupResult, error) {
	if err := validateMemberID(creatorID); err != nil {
		return nil, err
	}
	if len(groupName) > maxGroupNameLength {
		return nil, fmt.Errorf("%w: group name exceeds %d characters", ErrValidation, maxGroupNameLength)
	}
	applyPreferenceDefaults(&prefs)
	if err := validatePreferences(prefs); err != nil {
		return nil, err
	}

	candidates, err := s.provider.Search(ctx, prefs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	for i := range candidates {
		candidates[i].Position = i
	}

	g := &Group{
		GroupName:   groupName,
		OrganizerID: creatorID,
		Preferences: prefs,
		Status:      StatusVoting,
	}

	for attempt := 0; ; attempt++ {
		if attempt < maxIDAttempts {
			g.ID = newGroupID()
		} else {
			// Pathological collision streak; a UUID cannot collide.
			g.ID = uuid.NewString()
		}

		err = s.repo.CreateGroup(ctx, g, candidates)
		if err == nil {
			break
		}
		if errors.Is(err, ErrDuplicateGroup) && attempt < maxIDAttempts {
			continue
		}
		return nil, fmt.Errorf("create group: %w", err)
	}

	slog.Info("group created",
		"group_id", g.ID,
		"organizer_id", creatorID,
		"candidates", len(candidates),
	)

	inviteURL := fmt.Sprintf("%s/group/%s", s.frontendBaseURL, g.ID)
	return &CreateGroupResult{
		GroupID:          g.ID,
		InviteURL:        inviteURL,
		OrganizerID:      creatorID,
		OrganizerJoinURL: inviteURL + "?memberId=" + url.QueryEscape(creatorID),
		GroupName:        groupName,
	}, nil
}

// --------------------------------------------------
// Group info (admits the caller before snapshotting,
// so members always see themselves in the list)
// --------------------------------------------------
func (s *Service) GetGroupInfo(ctx context.Context, groupID, memberID string) (*GroupInfo, error) {
	g, err := s.repo.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	if memberID != "" {
		if err := validateMemberID(memberID); err != nil {
			return nil, err
		}
		if err := s.repo.EnsureMember(ctx, groupID, memberID); err != nil {
			return nil, err
		}
	}

	members, err := s.repo.ListMembers(ctx, groupID)
	if err != nil {
		return nil, err
	}

	return &GroupInfo{
		GroupID:     g.ID,
		Status:      g.Status,
		OrganizerID: g.OrganizerID,
		Members:     members,
		CreatedAt:   g.CreatedAt,
		Preferences: g.Preferences,
		GroupName:   g.GroupName,
	}, nil
}

// --------------------------------------------------
// Candidate listing
// --------------------------------------------------
// Voted candidates are removed from the full ordered list before the
// offset window is applied, so pagination walks the member's unvoted
// subsequence and never re-shows handled items.
func (s *Service) ListCandidates(ctx context.Context, groupID, memberID string, start, limit int) ([]Candidate, error) {
	if start < 0 {
		return nil, fmt.Errorf("%w: start must be >= 0", ErrValidation)
	}
	if limit < 1 || limit > MaxListLimit {
		return nil, fmt.Errorf("%w: limit must be between 1 and %d", ErrValidation, MaxListLimit)
	}

	if _, err := s.repo.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}

	voted := map[string]struct{}{}
	if memberID != "" {
		if err := validateMemberID(memberID); err != nil {
			return nil, err
		}
		if err := s.repo.EnsureMember(ctx, groupID, memberID); err != nil {
			return nil, err
		}
		placeIDs, err := s.repo.ListVotedPlaceIDs(ctx, groupID, memberID)
		if err != nil {
			return nil, err
		}
		for _, id := range placeIDs {
			voted[id] = struct{}{}
		}
	}

	candidates, err := s.repo.ListCandidates(ctx, groupID)
	if err != nil {
		return nil, err
	}

	if len(voted) > 0 {
		unvoted := candidates[:0]
		for _, c := range candidates {
			if _, ok := voted[c.PlaceID]; !ok {
				unvoted = append(unvoted, c)
			}
		}
		candidates = unvoted
	}

	if start >= len(candidates) {
		return []Candidate{}, nil
	}
	end := start + limit
	if end > len(candidates) {
		end = len(candidates)
	}
	return candidates[start:end], nil
}

// --------------------------------------------------
// Vote submission
// --------------------------------------------------
func (s *Service) SubmitVote(ctx context.Context, groupID, memberID, placeID string, value VoteValue) error {
	if err := validateMemberID(memberID); err != nil {
		return err
	}
	if placeID == "" {
		return fmt.Errorf("%w: candidate_id is required", ErrValidation)
	}
	if !value.Valid() {
		return fmt.Errorf("%w: vote value must be %q or %q", ErrValidation, VoteLike, VoteDislike)
	}

	if err := s.repo.SubmitVote(ctx, groupID, memberID, placeID, value); err != nil {
		return err
	}

	slog.Debug("vote recorded",
		"group_id", groupID,
		"member_id", memberID,
		"place_id", placeID,
		"value", value,
	)
	return nil
}

// --------------------------------------------------
// Finish: organizer-only, idempotent one-way door
// --------------------------------------------------
func (s *Service) FinishGroup(ctx context.Context, groupID, memberID string) (*GroupResults, error) {
	if err := validateMemberID(memberID); err != nil {
		return nil, err
	}

	g, err := s.repo.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if g.OrganizerID != memberID {
		return nil, ErrNotOrganizer
	}

	if err := s.repo.FinishGroup(ctx, groupID); err != nil {
		return nil, err
	}

	results, err := s.computeResults(ctx, groupID)
	if err != nil {
		return nil, err
	}

	slog.Info("group finished", "group_id", groupID, "results", len(results))

	return &GroupResults{
		GroupID: groupID,
		Status:  StatusFinished,
		Results: results,
	}, nil
}

func (s *Service) GetResults(ctx context.Context, groupID string) (*GroupResults, error) {
	g, err := s.repo.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if g.Status != StatusFinished {
		return nil, ErrResultsNotReady
	}

	results, err := s.computeResults(ctx, groupID)
	if err != nil {
		return nil, err
	}

	return &GroupResults{
		GroupID: groupID,
		Status:  StatusFinished,
		Results: results,
	}, nil
}

// --------------------------------------------------
// Ranking
// --------------------------------------------------
// Candidates with no votes carry no signal and are dropped; if nobody
// voted at all, the first five candidates in provider order stand in so
// finish always returns something displayable. Ties break by likes
// (engagement), then by the candidate's external rating. The stable
// sort keeps provider order for candidates tied on all three keys.
func (s *Service) computeResults(ctx context.Context, groupID string) ([]CandidateResult, error) {
	candidates, err := s.repo.ListCandidates(ctx, groupID)
	if err != nil {
		return nil, err
	}
	votes, err := s.repo.ListVotes(ctx, groupID)
	if err != nil {
		return nil, err
	}

	type tally struct{ likes, dislikes int }
	counts := make(map[string]*tally, len(candidates))
	known := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		known[c.PlaceID] = struct{}{}
	}

	for _, v := range votes {
		if _, ok := known[v.PlaceID]; !ok {
			continue
		}
		t := counts[v.PlaceID]
		if t == nil {
			t = &tally{}
			counts[v.PlaceID] = t
		}
		switch v.Value {
		case VoteLike:
			t.likes++
		case VoteDislike:
			t.dislikes++
		}
	}

	results := make([]CandidateResult, 0, len(counts))
	for _, c := range candidates {
		t := counts[c.PlaceID]
		if t == nil || (t.likes == 0 && t.dislikes == 0) {
			continue
		}
		results = append(results, CandidateResult{
			Restaurant: c,
			Score:      t.likes - t.dislikes,
			Likes:      t.likes,
			Dislikes:   t.dislikes,
		})
	}

	if len(results) == 0 {
		for _, c := range candidates {
			if len(results) == fallbackResultCount {
				break
			}
			results = append(results, CandidateResult{Restaurant: c})
		}
		return results, nil
	}

	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Likes != b.Likes {
			return a.Likes > b.Likes
		}
		return ratingOrZero(a.Restaurant) > ratingOrZero(b.Restaurant)
	})
	return results, nil
}

func ratingOrZero(c Candidate) float64 {
	if c.Rating == nil {
		return 0
	}
	return *c.Rating
}

// --------------------------------------------------
// Validation
// --------------------------------------------------
func validateMemberID(memberID string) error {
	if memberID == "" {
		return fmt.Errorf("%w: member_id is required", ErrValidation)
	}
	if len(memberID) > maxMemberIDLength {
		return fmt.Errorf("%w: member_id exceeds %d characters", ErrValidation, maxMemberIDLength)
	}
	return nil
}

func applyPreferenceDefaults(prefs *SearchPreferences) {
	if prefs.Radius == 0 {
		prefs.Radius = defaultRadius
	}
	if prefs.MinPrice == nil {
		v := defaultMinPrice
		prefs.MinPrice = &v
	}
	if prefs.MaxPrice == nil {
		v := defaultMaxPrice
		prefs.MaxPrice = &v
	}
	if len(prefs.Types) == 0 {
		prefs.Types = append([]string(nil), defaultTypes...)
	}
}

func validatePreferences(prefs SearchPreferences) error {
	if prefs.Latitude < -90 || prefs.Latitude > 90 {
		return fmt.Errorf("%w: latitude must be between -90 and 90", ErrValidation)
	}
	if prefs.Longitude < -180 || prefs.Longitude > 180 {
		return fmt.Errorf("%w: longitude must be between -180 and 180", ErrValidation)
	}
	if prefs.Radius < 100 || prefs.Radius > 5000 {
		return fmt.Errorf("%w: radius must be between 100 and 5000", ErrValidation)
	}
	if *prefs.MinPrice < 0 || *prefs.MinPrice > 4 {
		return fmt.Errorf("%w: min_price must be between 0 and 4", ErrValidation)
	}
	if *prefs.MaxPrice < 0 || *prefs.MaxPrice > 4 {
		return fmt.Errorf("%w: max_price must be between 0 and 4", ErrValidation)
	}
	if *prefs.MinPrice > *prefs.MaxPrice {
		return fmt.Errorf("%w: min_price cannot exceed max_price", ErrValidation)
	}
	return nil
}

// newGroupID returns a short URL-safe token (6 random bytes, 8 chars).
func newGroupID() string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return uuid.NewString()
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}
