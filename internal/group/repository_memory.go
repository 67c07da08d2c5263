package group

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemoryRepository mirrors the Postgres semantics for tests and local
// development. The registry lock only guards the group map; each group
// carries its own mutex so operations on different groups do not
// serialize against each other.
type InMemoryRepository struct {
	mu     sync.RWMutex
	groups map[string]*memGroup
}

type memGroup struct {
	mu         sync.Mutex
	group      Group
	members    map[string]struct{}
	candidates []Candidate
	votes      map[string]map[string]VoteValue // member -> place -> value
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		groups: make(map[string]*memGroup),
	}
}

func (r *InMemoryRepository) get(groupID string) (*memGroup, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.groups[groupID]
	if !ok {
		return nil, ErrGroupNotFound
	}
	return g, nil
}

func (r *InMemoryRepository) CreateGroup(ctx context.Context, g *Group, candidates []Candidate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.groups[g.ID]; exists {
		return ErrDuplicateGroup
	}

	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}

	stored := make([]Candidate, len(candidates))
	copy(stored, candidates)

	r.groups[g.ID] = &memGroup{
		group:      *g,
		members:    map[string]struct{}{g.OrganizerID: {}},
		candidates: stored,
		votes:      make(map[string]map[string]VoteValue),
	}
	return nil
}

func (r *InMemoryRepository) GetGroup(ctx context.Context, groupID string) (*Group, error) {
	g, err := r.get(groupID)
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	copied := g.group
	return &copied, nil
}

func (r *InMemoryRepository) EnsureMember(ctx context.Context, groupID, memberID string) error {
	g, err := r.get(groupID)
	if err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.members[memberID] = struct{}{}
	return nil
}

func (r *InMemoryRepository) ListMembers(ctx context.Context, groupID string) ([]string, error) {
	g, err := r.get(groupID)
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	members := make([]string, 0, len(g.members))
	for id := range g.members {
		members = append(members, id)
	}
	sort.Strings(members)
	return members, nil
}

func (r *InMemoryRepository) ListCandidates(ctx context.Context, groupID string) ([]Candidate, error) {
	g, err := r.get(groupID)
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	candidates := make([]Candidate, len(g.candidates))
	copy(candidates, g.candidates)
	return candidates, nil
}

func (r *InMemoryRepository) ListVotedPlaceIDs(ctx context.Context, groupID, memberID string) ([]string, error) {
	g, err := r.get(groupID)
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	var placeIDs []string
	for placeID := range g.votes[memberID] {
		placeIDs = append(placeIDs, placeID)
	}
	return placeIDs, nil
}

func (r *InMemoryRepository) SubmitVote(ctx context.Context, groupID, memberID, placeID string, value VoteValue) error {
	g, err := r.get(groupID)
	if err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.group.Status != StatusVoting {
		return ErrVotingClosed
	}

	known := false
	for _, c := range g.candidates {
		if c.PlaceID == placeID {
			known = true
			break
		}
	}
	if !known {
		return ErrCandidateNotFound
	}

	g.members[memberID] = struct{}{}

	if g.votes[memberID] == nil {
		g.votes[memberID] = make(map[string]VoteValue)
	}
	g.votes[memberID][placeID] = value
	return nil
}

func (r *InMemoryRepository) FinishGroup(ctx context.Context, groupID string) error {
	g, err := r.get(groupID)
	if err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.group.Status == StatusVoting {
		g.group.Status = StatusFinished
	}
	return nil
}

func (r *InMemoryRepository) ListVotes(ctx context.Context, groupID string) ([]Vote, error) {
	g, err := r.get(groupID)
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	var votes []Vote
	for memberID, byPlace := range g.votes {
		for placeID, value := range byPlace {
			votes = append(votes, Vote{
				GroupID:  groupID,
				MemberID: memberID,
				PlaceID:  placeID,
				Value:    value,
			})
		}
	}
	return votes, nil
}
