package seed

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/servicedeskpro/servicedesk/internal/auth"
	"github.com/servicedeskpro/servicedesk/internal/domain"
	"github.com/servicedeskpro/servicedesk/internal/store"
)

const seedFlagKey = "seed:demo-data"

// Seeder inserts illustrative demo accounts and tickets on first run. The
// flag in Redis guards against re-seeding; it is set before any writes so a
// partially-failed seed is not retried automatically.
type Seeder struct {
	redis      *redis.Client
	users      store.UserRepository
	tickets    store.TicketRepository
	bcryptCost int
	logger     *zap.Logger
}

// NewSeeder builds the seeder.
func NewSeeder(redisClient *redis.Client, users store.UserRepository, tickets store.TicketRepository, bcryptCost int, logger *zap.Logger) *Seeder {
	return &Seeder{
		redis:      redisClient,
		users:      users,
		tickets:    tickets,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// Run seeds demo data unless the seed flag is already present.
func (s *Seeder) Run(ctx context.Context) error {
	fresh, err := s.redis.SetNX(ctx, seedFlagKey, time.Now().Format(time.RFC3339), 0).Result()
	if err != nil {
		return err
	}
	if !fresh {
		return nil
	}

	s.logger.Info("seeding demo accounts and tickets")

	demoUser, err := s.seedUser(ctx, "user@demo.com", "Demo User", "user123", domain.RoleUser)
	if err != nil {
		return err
	}
	admin, err := s.seedUser(ctx, "admin@servicedesk.com", "Admin User", "admin123", domain.RoleAdmin)
	if err != nil {
		return err
	}
	sarah, err := s.seedUser(ctx, "sarah@company.com", "Sarah Johnson", "sarah123", domain.RoleUser)
	if err != nil {
		return err
	}

	firstTicket := &domain.Ticket{
		Title:       "Unable to access dashboard",
		Description: "The page keeps loading but never completes. This has been happening since yesterday morning. I have tried clearing my browser cache and using different browsers but the issue persists.",
		Category:    domain.CategoryTechnical,
		Priority:    domain.TicketPriorityHigh,
		Status:      domain.TicketStatusOpen,
		UserID:      demoUser.ID,
		UserName:    demoUser.Name,
		UserEmail:   demoUser.Email,
	}
	if err := s.tickets.Insert(ctx, firstTicket); err != nil {
		return err
	}
	comment := domain.Comment{
		ID:        uuid.NewString(),
		TicketID:  firstTicket.ID,
		UserID:    admin.ID,
		UserName:  admin.Name,
		Content:   "Thank you for reporting this issue. We are investigating the dashboard access problem and will update you soon.",
		CreatedAt: time.Now(),
	}
	if err := s.tickets.AppendComment(ctx, firstTicket.ID, comment); err != nil {
		return err
	}

	secondTicket := &domain.Ticket{
		Title:       "Question about invoice",
		Description: "My latest invoice shows a charge I do not recognize. Could someone explain what the line item covers?",
		Category:    domain.CategoryBilling,
		Priority:    domain.TicketPriorityMedium,
		Status:      domain.TicketStatusOpen,
		UserID:      sarah.ID,
		UserName:    sarah.Name,
		UserEmail:   sarah.Email,
	}
	if err := s.tickets.Insert(ctx, secondTicket); err != nil {
		return err
	}

	s.logger.Info("demo data seeded")
	return nil
}

func (s *Seeder) seedUser(ctx context.Context, email, name, password string, role domain.UserRole) (*domain.User, error) {
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		Role:         role,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
