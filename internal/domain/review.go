package domain

import "time"

type ReviewStatus string

const (
	ReviewStatusPending  ReviewStatus = "pending"
	ReviewStatusApproved ReviewStatus = "approved"
	ReviewStatusRejected ReviewStatus = "rejected"
)

type Review struct {
	ID         string       `json:"id"`
	ProductID  string       `json:"product_id"`
	UserID     *string      `json:"user_id,omitempty"`
	AuthorName string       `json:"author_name"`
	Rating     int          `json:"rating"`
	Title      string       `json:"title,omitempty"`
	Body       string       `json:"body"`
	Status     ReviewStatus `json:"status"`
	CreatedAt  time.Time    `json:"created_at"`
}
