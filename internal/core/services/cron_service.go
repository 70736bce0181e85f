package services

import (
	"context"
	"log"
	"time"

	"researchhub/internal/adapters/persistence/repositories"

	"github.com/robfig/cron/v3"
)

// How long a request may sit PENDING before admins get a reminder
const stalePendingAfter = 72 * time.Hour

// CronService runs scheduled maintenance jobs
type CronService struct {
	cron          *cron.Cron
	sessionRepo   repositories.SessionRepository
	userTokenRepo repositories.UserTokenRepository
	requestRepo   repositories.RequestRepository
	notification  *NotificationService
}

// NewCronService creates a new cron service
func NewCronService(
	sessionRepo repositories.SessionRepository,
	userTokenRepo repositories.UserTokenRepository,
	requestRepo repositories.RequestRepository,
	notification *NotificationService,
) *CronService {
	return &CronService{
		cron:          cron.New(),
		sessionRepo:   sessionRepo,
		userTokenRepo: userTokenRepo,
		requestRepo:   requestRepo,
		notification:  notification,
	}
}

// Start registers and starts all scheduled jobs
func (s *CronService) Start() error {
	// Purge expired sessions and single-use tokens nightly at 03:00
	if _, err := s.cron.AddFunc("0 3 * * *", s.purgeExpired); err != nil {
		return err
	}

	// Remind admins of stale pending requests every morning at 08:00
	if _, err := s.cron.AddFunc("0 8 * * *", s.remindStalePending); err != nil {
		return err
	}

	s.cron.Start()
	log.Println("✅ Cron jobs scheduled")
	return nil
}

// Stop stops the cron scheduler and waits for running jobs
func (s *CronService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("🛑 Cron jobs stopped")
}

// purgeExpired deletes expired sessions and used/expired single-use tokens
func (s *CronService) purgeExpired() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := s.sessionRepo.DeleteExpired(ctx); err != nil {
		log.Printf("❌ Expired session purge failed: %v", err)
	}
	if err := s.userTokenRepo.DeleteExpired(ctx); err != nil {
		log.Printf("❌ Expired token purge failed: %v", err)
	}

	log.Println("✅ Expired sessions and tokens purged")
}

// remindStalePending notifies admins about requests pending too long
func (s *CronService) remindStalePending() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cutoff := time.Now().Add(-stalePendingAfter)
	stale, err := s.requestRepo.ListPendingOlderThan(ctx, cutoff)
	if err != nil {
		log.Printf("❌ Stale request scan failed: %v", err)
		return
	}
	if len(stale) == 0 {
		return
	}

	// ListPendingOlderThan returns oldest first
	s.notification.NotifyStalePendingRequests(ctx, len(stale), stale[0].ID)
	log.Printf("⚠️ %d stale pending request(s), reminder sent", len(stale))
}
