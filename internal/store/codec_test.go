package store

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/servicedeskpro/servicedesk/internal/domain"
)

func TestCommentsRoundTrip(t *testing.T) {
	comments := []domain.Comment{
		{
			ID:        "c1",
			TicketID:  "t1",
			UserID:    "u1",
			UserName:  "Alice",
			Content:   "first",
			CreatedAt: time.Date(2024, 3, 1, 10, 30, 0, 123456789, time.UTC),
		},
		{
			ID:         "c2",
			TicketID:   "t1",
			UserID:     "u2",
			UserName:   "Bob",
			Content:    "second",
			CreatedAt:  time.Date(2024, 3, 1, 11, 0, 0, 500000000, time.FixedZone("IST", 5*3600+1800)),
			IsInternal: true,
		},
	}

	data, err := EncodeComments(comments)
	require.NoError(t, err)

	decoded, err := DecodeComments(data)
	require.NoError(t, err)
	require.Len(t, decoded, 2)

	// Timestamps survive at millisecond granularity, normalized to UTC.
	assert.Equal(t, time.Date(2024, 3, 1, 10, 30, 0, 123000000, time.UTC), decoded[0].CreatedAt)
	assert.Equal(t, time.Date(2024, 3, 1, 5, 30, 0, 500000000, time.UTC), decoded[1].CreatedAt)

	assert.Equal(t, "c1", decoded[0].ID)
	assert.Equal(t, "first", decoded[0].Content)
	assert.False(t, decoded[0].IsInternal)
	assert.Equal(t, "c2", decoded[1].ID)
	assert.True(t, decoded[1].IsInternal)
}

func TestCommentsRoundTripPreservesOrder(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	comments := make([]domain.Comment, 0, 10)
	for i := 0; i < 10; i++ {
		comments = append(comments, domain.Comment{
			ID:        string(rune('a' + i)),
			Content:   "entry",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}

	data, err := EncodeComments(comments)
	require.NoError(t, err)
	decoded, err := DecodeComments(data)
	require.NoError(t, err)

	require.Len(t, decoded, len(comments))
	for i := range comments {
		assert.Equal(t, comments[i].ID, decoded[i].ID)
	}
}

func TestDecodeCommentsEmpty(t *testing.T) {
	decoded, err := DecodeComments(nil)
	require.NoError(t, err)
	assert.Nil(t, decoded)

	decoded, err = DecodeComments([]byte(`[]`))
	require.NoError(t, err)
	assert.Empty(t, decoded)
}

func TestEncodeCommentAppendIsSingleElementArray(t *testing.T) {
	data, err := EncodeCommentAppend(domain.Comment{
		ID:        "c1",
		Content:   "hello",
		CreatedAt: time.Now(),
	})
	require.NoError(t, err)

	var raw []map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Len(t, raw, 1)
	assert.Equal(t, "c1", raw[0]["id"])
}

func TestCommentTimestampUsesWireLayout(t *testing.T) {
	data, err := EncodeComments([]domain.Comment{{
		ID:        "c1",
		CreatedAt: time.Date(2024, 7, 15, 9, 45, 12, 42000000, time.UTC),
	}})
	require.NoError(t, err)

	var docs []struct {
		CreatedAt string `json:"createdAt"`
	}
	require.NoError(t, json.Unmarshal(data, &docs))
	require.Len(t, docs, 1)
	assert.Equal(t, "2024-07-15T09:45:12.042Z", docs[0].CreatedAt)
}

func TestSubscriptionRoundTrip(t *testing.T) {
	sub := &domain.Subscription{
		PlanID:    "professional",
		PlanName:  "Professional",
		Status:    domain.SubscriptionActive,
		StartDate: time.Date(2024, 5, 20, 8, 0, 0, 999000000, time.UTC),
		Amount:    299900,
	}

	data, err := EncodeSubscription(sub)
	require.NoError(t, err)

	decoded, err := DecodeSubscription(data)
	require.NoError(t, err)
	require.NotNil(t, decoded)
	assert.Equal(t, sub.PlanID, decoded.PlanID)
	assert.Equal(t, sub.PlanName, decoded.PlanName)
	assert.Equal(t, sub.Status, decoded.Status)
	assert.Equal(t, sub.Amount, decoded.Amount)
	assert.True(t, sub.StartDate.Equal(decoded.StartDate))
}

func TestSubscriptionNilRoundTrip(t *testing.T) {
	data, err := EncodeSubscription(nil)
	require.NoError(t, err)
	assert.Nil(t, data)

	decoded, err := DecodeSubscription(nil)
	require.NoError(t, err)
	assert.Nil(t, decoded)
}
