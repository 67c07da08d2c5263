package group

import "errors"

var (
	ErrGroupNotFound     = errors.New("group not found")
	ErrCandidateNotFound = errors.New("candidate not found")
	ErrResultsNotReady   = errors.New("results not ready")
	ErrVotingClosed      = errors.New("group is not accepting votes")
	ErrNotOrganizer      = errors.New("only the organizer can finish the group")
	ErrValidation        = errors.New("invalid request")
	ErrUpstream          = errors.New("candidate provider unavailable")

	// ErrDuplicateGroup is returned by the repository when a generated
	// group id collides with an existing row. The service retries with
	// a fresh id.
	ErrDuplicateGroup = errors.New("group id already exists")
)
