package group

import "context"

// Repository is the engine's durability contract. Mutating operations
// must be atomic per group: concurrent votes and finishes on the same
// group serialize against each other, operations on different groups
// never block each other.
type Repository interface {
	// CreateGroup persists the group, its frozen candidate list and the
	// organizer membership as one atomic unit. Returns ErrDuplicateGroup
	// when the group id is already taken.
	CreateGroup(ctx context.Context, g *Group, candidates []Candidate) error

	GetGroup(ctx context.Context, groupID string) (*Group, error)

	// EnsureMember admits a member into a group. Idempotent.
	EnsureMember(ctx context.Context, groupID, memberID string) error

	// ListMembers returns member ids in lexicographic order.
	ListMembers(ctx context.Context, groupID string) ([]string, error)

	// ListCandidates returns the frozen candidate list in position order.
	ListCandidates(ctx context.Context, groupID string) ([]Candidate, error)

	ListVotedPlaceIDs(ctx context.Context, groupID, memberID string) ([]string, error)

	// SubmitVote runs the full precondition sequence under a group-scoped
	// lock: group exists (ErrGroupNotFound), status is voting
	// (ErrVotingClosed), candidate exists (ErrCandidateNotFound), member
	// admitted, then upserts the vote so a repeat vote replaces the
	// stored value.
	SubmitVote(ctx context.Context, groupID, memberID, placeID string, value VoteValue) error

	// FinishGroup flips voting -> finished under the group lock.
	// Calling it on an already finished group is a no-op.
	FinishGroup(ctx context.Context, groupID string) error

	ListVotes(ctx context.Context, groupID string) ([]Vote, error)
}
