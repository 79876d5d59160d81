package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/servicedeskpro/servicedesk/internal/config"
	"github.com/servicedeskpro/servicedesk/internal/domain"
	"github.com/servicedeskpro/servicedesk/internal/events"
	"github.com/servicedeskpro/servicedesk/internal/store"
	apperrors "github.com/servicedeskpro/servicedesk/pkg/util/errorutil"
)

const orderKeyPrefix = "payment:order:"

// Order is a pending payment awaiting gateway confirmation. Orders live in
// Redis for the configured TTL and are deleted once confirmed.
type Order struct {
	ID          string `json:"id"`
	UserID      string `json:"userId"`
	PlanID      string `json:"planId"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Description string `json:"description"`
}

// Callback carries the three values the payment gateway hands to the
// completion handler.
type Callback struct {
	PaymentID string
	OrderID   string
	Signature string
}

// PaymentService creates orders and records subscriptions once the gateway
// callback verifies.
type PaymentService struct {
	cfg        config.PaymentConfig
	users      store.UserRepository
	redis      *redis.Client
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewPaymentService builds the service.
func NewPaymentService(cfg config.PaymentConfig, users store.UserRepository, redisClient *redis.Client, dispatcher events.Dispatcher, logger *zap.Logger) *PaymentService {
	return &PaymentService{
		cfg:        cfg,
		users:      users,
		redis:      redisClient,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// CreateOrder opens a pending order for the given plan.
func (s *PaymentService) CreateOrder(ctx context.Context, user *domain.User, planID string) (*Order, error) {
	plan, ok := domain.PlanByID(planID)
	if !ok {
		return nil, apperrors.NewValidationError("unknown plan", map[string]any{"plan_id": planID})
	}

	order := &Order{
		ID:          "order_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16],
		UserID:      user.ID,
		PlanID:      plan.ID,
		Amount:      plan.Amount,
		Currency:    s.cfg.Currency,
		Description: plan.Name + " Plan - Monthly Subscription",
	}

	payload, err := json.Marshal(order)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if err := s.redis.Set(ctx, orderKeyPrefix+order.ID, payload, s.cfg.OrderTTL()).Err(); err != nil {
		s.logger.Error("store payment order", zap.Error(err))
		return nil, apperrors.NewInternalError(err)
	}
	return order, nil
}

// Confirm verifies the gateway callback and, only on verified success,
// records the subscription on the user. A failed verification leaves the
// subscription untouched.
func (s *PaymentService) Confirm(ctx context.Context, user *domain.User, cb Callback) (*domain.Subscription, error) {
	raw, err := s.redis.Get(ctx, orderKeyPrefix+cb.OrderID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.NewNotFound("payment order", map[string]any{"order_id": cb.OrderID})
		}
		s.logger.Error("load payment order", zap.Error(err))
		return nil, apperrors.NewInternalError(err)
	}

	var order Order
	if err := json.Unmarshal(raw, &order); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if order.UserID != user.ID {
		return nil, apperrors.NewForbidden("order belongs to another account")
	}

	if !VerifySignature(cb.OrderID, cb.PaymentID, cb.Signature, s.cfg.KeySecret) {
		s.logger.Warn("payment signature mismatch",
			zap.String("order_id", cb.OrderID),
			zap.String("payment_id", cb.PaymentID))
		return nil, apperrors.NewPaymentVerificationFailed()
	}

	plan, ok := domain.PlanByID(order.PlanID)
	if !ok {
		return nil, apperrors.NewInternalError(errors.New("order references unknown plan " + order.PlanID))
	}

	sub := &domain.Subscription{
		PlanID:    plan.ID,
		PlanName:  plan.Name,
		Status:    domain.SubscriptionActive,
		StartDate: time.Now(),
		Amount:    plan.Amount,
	}
	if err := s.users.UpdateSubscription(ctx, user.ID, sub); err != nil {
		s.logger.Error("record subscription", zap.Error(err))
		return nil, apperrors.MapError(err)
	}

	_ = s.redis.Del(ctx, orderKeyPrefix+cb.OrderID).Err()

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventSubscriptionActivated,
			UserID:    user.ID,
			Timestamp: time.Now(),
			Payload: events.SubscriptionActivatedPayload{
				PlanID:   plan.ID,
				PlanName: plan.Name,
				Amount:   plan.Amount,
			},
		})
	}
	return sub, nil
}

// VerifySignature checks the gateway's HMAC-SHA256 signature over
// "orderID|paymentID".
func VerifySignature(orderID, paymentID, signature, secret string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
