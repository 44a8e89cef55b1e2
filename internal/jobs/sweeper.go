package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/mestermind/backend/internal/logger"
	"github.com/mestermind/backend/internal/repos"
	"github.com/mestermind/backend/internal/services"
)

const staleIntentMaxAge = 24 * time.Hour

// Sweeper runs the periodic maintenance tasks: expiring overdue proposals,
// dropping abandoned payment intents and pruning expired refresh tokens.
// Reads that race the sweep still see correct state because proposal reads
// expire lazily on their own.
type Sweeper struct {
	log             *logger.Logger
	cron            *cron.Cron
	db              *gorm.DB
	proposalService services.ProposalService
	paymentService  services.PaymentService
	userTokenRepo   repos.UserTokenRepo
}

func NewSweeper(
	log *logger.Logger,
	db *gorm.DB,
	proposalService services.ProposalService,
	paymentService services.PaymentService,
	userTokenRepo repos.UserTokenRepo,
) *Sweeper {
	return &Sweeper{
		log:             log.With("component", "Sweeper"),
		cron:            cron.New(),
		db:              db,
		proposalService: proposalService,
		paymentService:  paymentService,
		userTokenRepo:   userTokenRepo,
	}
}

func (s *Sweeper) Start() error {
	if _, err := s.cron.AddFunc("* * * * *", s.expireProposals); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("@hourly", s.cleanupPayments); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("@daily", s.pruneTokens); err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info("Sweeper started")
	return nil
}

// Stop waits for any in-flight run to finish.
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("Sweeper stopped")
}

func (s *Sweeper) expireProposals() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	count, err := s.proposalService.ExpireDue(ctx)
	if err != nil {
		s.log.Warn("Proposal expiry sweep failed", "error", err)
		return
	}
	if count > 0 {
		s.log.Info("Expired overdue proposals", "count", count)
	}
}

func (s *Sweeper) cleanupPayments() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	count, err := s.paymentService.CleanupStaleIntents(ctx, staleIntentMaxAge)
	if err != nil {
		s.log.Warn("Stale payment intent sweep failed", "error", err)
		return
	}
	if count > 0 {
		s.log.Info("Removed stale payment intents", "count", count)
	}
}

func (s *Sweeper) pruneTokens() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	count, err := s.userTokenRepo.DeleteExpired(ctx, s.db, time.Now())
	if err != nil {
		s.log.Warn("Refresh token prune failed", "error", err)
		return
	}
	if count > 0 {
		s.log.Info("Pruned expired refresh tokens", "count", count)
	}
}
