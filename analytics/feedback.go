package analytics

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"

	"github.com/open-rails/insights/jobs"
)

// Feedback is a user-submitted feedback record. Reference is the short
// user-facing code quoted back to the submitter.
type Feedback struct {
	ID        uuid.UUID `json:"id"`
	Reference string    `json:"reference"`
	UserID    string    `json:"user_id"`
	Category  string    `json:"category"`
	Message   string    `json:"message"`
	LGDCode   *string   `json:"lgd_code,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// newReference derives the user-facing reference code from the row id.
func newReference(id uuid.UUID) string {
	return base58.Encode(id[:8])
}

// CreateFeedback persists a feedback submission and, when a job client is
// configured, enqueues its processing job in the same transaction.
func (s *Store) CreateFeedback(ctx context.Context, userID, category, message string, lgdCode *string) (Feedback, error) {
	fb := Feedback{
		ID:        uuid.New(),
		UserID:    userID,
		Category:  category,
		Message:   message,
		LGDCode:   lgdCode,
		CreatedAt: time.Now().UTC(),
	}
	fb.Reference = newReference(fb.ID)

	tx, err := s.pg.Begin(ctx)
	if err != nil {
		return Feedback{}, err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO `+s.table("feedback")+` (id, reference, user_id, category, message, lgd_code, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		fb.ID, fb.Reference, fb.UserID, fb.Category, fb.Message, fb.LGDCode, fb.CreatedAt,
	)
	if err != nil {
		return Feedback{}, err
	}

	if s.jobs != nil {
		_, err = s.jobs.InsertTx(ctx, tx, jobs.FeedbackReceivedArgs{
			FeedbackID: fb.ID.String(),
			Reference:  fb.Reference,
			Category:   fb.Category,
		}, nil)
		if err != nil {
			return Feedback{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Feedback{}, err
	}
	return fb, nil
}

// ListFeedback pages through feedback submissions, newest first.
func (s *Store) ListFeedback(ctx context.Context, req PageRequest) (Page[Feedback], error) {
	var total int
	if err := s.pg.QueryRow(ctx, `SELECT count(*) FROM `+s.table("feedback")).Scan(&total); err != nil {
		return Page[Feedback]{}, err
	}

	limit, offset := req.LimitOffset()
	rows, err := s.pg.Query(ctx,
		`SELECT id, reference, user_id, category, message, lgd_code, created_at
		FROM `+s.table("feedback")+`
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return Page[Feedback]{}, err
	}
	defer rows.Close()

	var items []Feedback
	for rows.Next() {
		var fb Feedback
		if err := rows.Scan(&fb.ID, &fb.Reference, &fb.UserID, &fb.Category, &fb.Message, &fb.LGDCode, &fb.CreatedAt); err != nil {
			return Page[Feedback]{}, err
		}
		items = append(items, fb)
	}
	if err := rows.Err(); err != nil {
		return Page[Feedback]{}, err
	}
	return NewPage(items, total, req), nil
}
