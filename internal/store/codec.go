package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/servicedeskpro/servicedesk/internal/domain"
)

// The comment thread and subscription record are stored as JSONB documents.
// JSON has no native timestamp type, so every nested timestamp crosses this
// boundary as RFC3339 text at millisecond granularity. This file is the single
// place where the two representations meet; nothing above the store sees the
// text form.

const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

type commentDoc struct {
	ID         string `json:"id"`
	TicketID   string `json:"ticketId"`
	UserID     string `json:"userId"`
	UserName   string `json:"userName"`
	Content    string `json:"content"`
	CreatedAt  string `json:"createdAt"`
	IsInternal bool   `json:"isInternal"`
}

type subscriptionDoc struct {
	PlanID    string `json:"planId"`
	PlanName  string `json:"planName"`
	Status    string `json:"status"`
	StartDate string `json:"startDate"`
	Amount    int64  `json:"amount"`
}

func encodeTimestamp(t time.Time) string {
	return t.UTC().Truncate(time.Millisecond).Format(timestampLayout)
}

func decodeTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("decode timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

// EncodeComments serializes a comment thread for storage, preserving order.
// The input slice is not mutated.
func EncodeComments(comments []domain.Comment) ([]byte, error) {
	docs := make([]commentDoc, 0, len(comments))
	for _, c := range comments {
		docs = append(docs, commentDoc{
			ID:         c.ID,
			TicketID:   c.TicketID,
			UserID:     c.UserID,
			UserName:   c.UserName,
			Content:    c.Content,
			CreatedAt:  encodeTimestamp(c.CreatedAt),
			IsInternal: c.IsInternal,
		})
	}
	return json.Marshal(docs)
}

// DecodeComments deserializes a stored comment thread in insertion order.
func DecodeComments(data []byte) ([]domain.Comment, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var docs []commentDoc
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("decode comments: %w", err)
	}
	comments := make([]domain.Comment, 0, len(docs))
	for _, doc := range docs {
		createdAt, err := decodeTimestamp(doc.CreatedAt)
		if err != nil {
			return nil, err
		}
		comments = append(comments, domain.Comment{
			ID:         doc.ID,
			TicketID:   doc.TicketID,
			UserID:     doc.UserID,
			UserName:   doc.UserName,
			Content:    doc.Content,
			CreatedAt:  createdAt,
			IsInternal: doc.IsInternal,
		})
	}
	return comments, nil
}

// EncodeCommentAppend serializes a single comment as a one-element array,
// suitable for an atomic JSONB concatenation at the backend.
func EncodeCommentAppend(comment domain.Comment) ([]byte, error) {
	return EncodeComments([]domain.Comment{comment})
}

// EncodeSubscription serializes a subscription record, or nil for none.
func EncodeSubscription(sub *domain.Subscription) ([]byte, error) {
	if sub == nil {
		return nil, nil
	}
	return json.Marshal(subscriptionDoc{
		PlanID:    sub.PlanID,
		PlanName:  sub.PlanName,
		Status:    string(sub.Status),
		StartDate: encodeTimestamp(sub.StartDate),
		Amount:    sub.Amount,
	})
}

// DecodeSubscription deserializes a stored subscription record; nil input
// yields nil.
func DecodeSubscription(data []byte) (*domain.Subscription, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var doc subscriptionDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode subscription: %w", err)
	}
	startDate, err := decodeTimestamp(doc.StartDate)
	if err != nil {
		return nil, err
	}
	return &domain.Subscription{
		PlanID:    doc.PlanID,
		PlanName:  doc.PlanName,
		Status:    domain.SubscriptionStatus(doc.Status),
		StartDate: startDate,
		Amount:    doc.Amount,
	}, nil
}
