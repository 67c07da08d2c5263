package group

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// --------------------------------------------------
// Create group + organizer membership + candidates
// as one transaction
// --------------------------------------------------
func (r *PostgresRepository) CreateGroup(ctx context.Context, g *Group, candidates []Candidate) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	types, err := json.Marshal(g.Preferences.Types)
	if err != nil {
		return err
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO groups (
			id,
			group_name,
			organizer_id,
			latitude,
			longitude,
			radius,
			min_price,
			max_price,
			types,
			status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`,
		g.ID,
		g.GroupName,
		g.OrganizerID,
		g.Preferences.Latitude,
		g.Preferences.Longitude,
		g.Preferences.Radius,
		g.Preferences.MinPrice,
		g.Preferences.MaxPrice,
		types,
		g.Status,
	).Scan(&g.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateGroup
		}
		return err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO group_members (group_id, member_id)
		VALUES ($1, $2)
		ON CONFLICT (group_id, member_id) DO NOTHING
	`, g.ID, g.OrganizerID); err != nil {
		return err
	}

	for _, c := range candidates {
		photoURLs, err := json.Marshal(c.PhotoURLs)
		if err != nil {
			return err
		}
		candidateTypes, err := json.Marshal(c.Types)
		if err != nil {
			return err
		}
		reviews, err := json.Marshal(c.Reviews)
		if err != nil {
			return err
		}
		var openingHours []byte
		if c.OpeningHours != nil {
			openingHours, err = json.Marshal(c.OpeningHours)
			if err != nil {
				return err
			}
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO group_candidates (
				group_id,
				place_id,
				position,
				name,
				address,
				rating,
				price_level,
				photo_url,
				photo_urls,
				lat,
				lng,
				types,
				reviews,
				phone_number,
				website,
				maps_url,
				user_ratings_total,
				opening_hours,
				summary
			)
			VALUES (
				$1, $2, $3, $4, $5, $6, $7, $8, $9,
				$10, $11, $12, $13, $14, $15, $16, $17, $18, $19
			)
		`,
			g.ID,
			c.PlaceID,
			c.Position,
			c.Name,
			c.Address,
			c.Rating,
			c.PriceLevel,
			c.PhotoURL,
			photoURLs,
			c.Lat,
			c.Lng,
			candidateTypes,
			reviews,
			c.PhoneNumber,
			c.Website,
			c.MapsURL,
			c.UserRatingsTotal,
			openingHours,
			c.Summary,
		); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// --------------------------------------------------
// Fetch a group by id
// --------------------------------------------------
func (r *PostgresRepository) GetGroup(ctx context.Context, groupID string) (*Group, error) {
	var (
		g     Group
		types []byte
	)

	err := r.db.QueryRow(ctx, `
		SELECT
			id,
			group_name,
			organizer_id,
			latitude,
			longitude,
			radius,
			min_price,
			max_price,
			types,
			status,
			created_at
		FROM groups
		WHERE id = $1
	`, groupID).Scan(
		&g.ID,
		&g.GroupName,
		&g.OrganizerID,
		&g.Preferences.Latitude,
		&g.Preferences.Longitude,
		&g.Preferences.Radius,
		&g.Preferences.MinPrice,
		&g.Preferences.MaxPrice,
		&types,
		&g.Status,
		&g.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrGroupNotFound
	}
	if err != nil {
		return nil, err
	}

	if len(types) > 0 {
		if err := json.Unmarshal(types, &g.Preferences.Types); err != nil {
			return nil, err
		}
	}

	return &g, nil
}

// --------------------------------------------------
// Idempotent member admission
// --------------------------------------------------
func (r *PostgresRepository) EnsureMember(ctx context.Context, groupID, memberID string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO group_members (group_id, member_id)
		VALUES ($1, $2)
		ON CONFLICT (group_id, member_id) DO NOTHING
	`, groupID, memberID)
	return err
}

// --------------------------------------------------
// Members in lexicographic order (stable for clients)
// --------------------------------------------------
func (r *PostgresRepository) ListMembers(ctx context.Context, groupID string) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT member_id
		FROM group_members
		WHERE group_id = $1
		ORDER BY member_id
	`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		members = append(members, id)
	}
	return members, rows.Err()
}

// --------------------------------------------------
// Candidates in original provider order
// --------------------------------------------------
func (r *PostgresRepository) ListCandidates(ctx context.Context, groupID string) ([]Candidate, error) {
	rows, err := r.db.Query(ctx, `
		SELECT
			place_id,
			position,
			name,
			address,
			rating,
			price_level,
			photo_url,
			photo_urls,
			lat,
			lng,
			types,
			reviews,
			phone_number,
			website,
			maps_url,
			user_ratings_total,
			opening_hours,
			summary
		FROM group_candidates
		WHERE group_id = $1
		ORDER BY position
	`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candidates []Candidate
	for rows.Next() {
		var (
			c            Candidate
			photoURLs    []byte
			types        []byte
			reviews      []byte
			openingHours []byte
		)
		if err := rows.Scan(
			&c.PlaceID,
			&c.Position,
			&c.Name,
			&c.Address,
			&c.Rating,
			&c.PriceLevel,
			&c.PhotoURL,
			&photoURLs,
			&c.Lat,
			&c.Lng,
			&types,
			&reviews,
			&c.PhoneNumber,
			&c.Website,
			&c.MapsURL,
			&c.UserRatingsTotal,
			&openingHours,
			&c.Summary,
		); err != nil {
			return nil, err
		}

		if len(photoURLs) > 0 {
			if err := json.Unmarshal(photoURLs, &c.PhotoURLs); err != nil {
				return nil, err
			}
		}
		if len(types) > 0 {
			if err := json.Unmarshal(types, &c.Types); err != nil {
				return nil, err
			}
		}
		if len(reviews) > 0 {
			if err := json.Unmarshal(reviews, &c.Reviews); err != nil {
				return nil, err
			}
		}
		if len(openingHours) > 0 {
			if err := json.Unmarshal(openingHours, &c.OpeningHours); err != nil {
				return nil, err
			}
		}

		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

func (r *PostgresRepository) ListVotedPlaceIDs(ctx context.Context, groupID, memberID string) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT place_id
		FROM group_votes
		WHERE group_id = $1
		  AND member_id = $2
	`, groupID, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var placeIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		placeIDs = append(placeIDs, id)
	}
	return placeIDs, rows.Err()
}

// --------------------------------------------------
// Vote upsert under the group row lock
// --------------------------------------------------
// The SELECT ... FOR UPDATE pins the group row for the whole
// check-then-write sequence, so a vote can never slip in after a
// concurrent finish flips the status. Locks are per group row;
// other groups proceed in parallel.
func (r *PostgresRepository) SubmitVote(ctx context.Context, groupID, memberID, placeID string, value VoteValue) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var status Status
	err = tx.QueryRow(ctx, `
		SELECT status
		FROM groups
		WHERE id = $1
		FOR UPDATE
	`, groupID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrGroupNotFound
	}
	if err != nil {
		return err
	}
	if status != StatusVoting {
		return ErrVotingClosed
	}

	var exists bool
	if err := tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM group_candidates
			WHERE group_id = $1
			  AND place_id = $2
		)
	`, groupID, placeID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrCandidateNotFound
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO group_members (group_id, member_id)
		VALUES ($1, $2)
		ON CONFLICT (group_id, member_id) DO NOTHING
	`, groupID, memberID); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO group_votes (group_id, member_id, place_id, value)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (group_id, member_id, place_id)
		DO UPDATE SET value = EXCLUDED.value
	`, groupID, memberID, placeID, value); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// --------------------------------------------------
// One-way finish transition
// --------------------------------------------------
func (r *PostgresRepository) FinishGroup(ctx context.Context, groupID string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var status Status
	err = tx.QueryRow(ctx, `
		SELECT status
		FROM groups
		WHERE id = $1
		FOR UPDATE
	`, groupID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrGroupNotFound
	}
	if err != nil {
		return err
	}

	if status == StatusVoting {
		if _, err := tx.Exec(ctx, `
			UPDATE groups
			SET status = $1
			WHERE id = $2
		`, StatusFinished, groupID); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *PostgresRepository) ListVotes(ctx context.Context, groupID string) ([]Vote, error) {
	rows, err := r.db.Query(ctx, `
		SELECT group_id, member_id, place_id, value
		FROM group_votes
		WHERE group_id = $1
	`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var votes []Vote
	for rows.Next() {
		var v Vote
		if err := rows.Scan(&v.GroupID, &v.MemberID, &v.PlaceID, &v.Value); err != nil {
			return nil, err
		}
		votes = append(votes, v)
	}
	return votes, rows.Err()
}
