package feedback

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrOrderMismatch   = errors.New("not authorized to provide feedback for this order")
)

// Feedback is a rating/comment submission for a product, optionally tied
// to a verified order. Never edited or deleted after creation.
type Feedback struct {
	ID        string    `json:"id"`
	ProductID string    `json:"productId"`
	OrderID   *string   `json:"orderId"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewFeedback is the submission payload.
type NewFeedback struct {
	ProductID string  `json:"productId" validate:"required"`
	OrderID   *string `json:"orderId"`
	Rating    int     `json:"rating" validate:"required,min=1,max=5"`
	Comment   string  `json:"comment"`
}

// Conf is the feedback store.
type Conf struct {
	db *sql.DB
}

func NewConf(db *sql.DB) (*Conf, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Conf{db: db}, nil
}

// InsertFeedback stores a submission. The product must exist; when an
// order reference is supplied, that order must belong to the submitter.
func (c *Conf) InsertFeedback(ctx context.Context, nf NewFeedback, userID, userName string) (Feedback, error) {
	var exists bool
	err := c.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, nf.ProductID).Scan(&exists)
	if err != nil {
		return Feedback{}, fmt.Errorf("checking product: %w", err)
	}
	if !exists {
		return Feedback{}, ErrProductNotFound
	}

	if nf.OrderID != nil && *nf.OrderID != "" {
		var customerID sql.NullString
		err := c.db.QueryRowContext(ctx,
			`SELECT customer_id FROM orders WHERE id = $1`, *nf.OrderID).Scan(&customerID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return Feedback{}, ErrOrderMismatch
			}
			return Feedback{}, fmt.Errorf("checking order: %w", err)
		}
		if !customerID.Valid || customerID.String != userID {
			return Feedback{}, ErrOrderMismatch
		}
	} else {
		nf.OrderID = nil
	}

	if userName == "" {
		userName = "Anonymous"
	}

	fb := Feedback{
		ID:        uuid.NewString(),
		ProductID: nf.ProductID,
		OrderID:   nf.OrderID,
		UserID:    userID,
		UserName:  userName,
		Rating:    nf.Rating,
		Comment:   nf.Comment,
	}
	err = c.db.QueryRowContext(ctx, `
		INSERT INTO feedback (id, product_id, order_id, user_id, user_name, rating, comment)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`,
		fb.ID, fb.ProductID, fb.OrderID, fb.UserID, fb.UserName, fb.Rating, fb.Comment).
		Scan(&fb.CreatedAt)
	if err != nil {
		return Feedback{}, fmt.Errorf("inserting feedback: %w", err)
	}
	return fb, nil
}

// ListByProduct returns all feedback for a product, newest first.
func (c *Conf) ListByProduct(ctx context.Context, productID string) ([]Feedback, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, product_id, order_id, user_id, user_name, rating, comment, created_at
		FROM feedback WHERE product_id = $1 ORDER BY created_at DESC`, productID)
	if err != nil {
		return nil, fmt.Errorf("listing feedback: %w", err)
	}
	defer rows.Close()

	out := make([]Feedback, 0)
	for rows.Next() {
		var fb Feedback
		err := rows.Scan(&fb.ID, &fb.ProductID, &fb.OrderID, &fb.UserID, &fb.UserName,
			&fb.Rating, &fb.Comment, &fb.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning feedback: %w", err)
		}
		out = append(out, fb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating feedback: %w", err)
	}
	return out, nil
}

// AverageRating is the arithmetic mean of the given ratings, 0 when there
// are none.
func AverageRating(ratings []int) float64 {
	if len(ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	return float64(sum) / float64(len(ratings))
}
