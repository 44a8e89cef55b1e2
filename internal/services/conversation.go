package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/mestermind/backend/internal/apierr"
	"github.com/mestermind/backend/internal/logger"
	"github.com/mestermind/backend/internal/repos"
	"github.com/mestermind/backend/internal/types"
)

// Placeholders shown when a sub-lookup fails. Degrading a single
// conversation beats failing the whole inbox; the warning log keeps the
// failure observable.
const (
	placeholderService  = "Ismeretlen szolgáltatás"
	placeholderCustomer = "Ismeretlen ügyfél"
)

type ConversationView struct {
	JobID            uuid.UUID  `json:"job_id"`
	JobTitle         string     `json:"job_title"`
	ServiceName      string     `json:"service_name"`
	CounterpartID    uuid.UUID  `json:"counterpart_id"`
	CounterpartName  string     `json:"counterpart_name"`
	LastMessage      string     `json:"last_message"`
	LastMessageAt    time.Time  `json:"last_message_at"`
	LastMessageFrom  uuid.UUID  `json:"last_message_from"`
	UnreadCount      int        `json:"unread_count"`
	Archived         bool       `json:"archived"`
	Starred          bool       `json:"starred"`
}

// ConversationService merges messages, jobs, customers and services into a
// display-ready conversation list per job.
type ConversationService interface {
	List(ctx context.Context, userID uuid.UUID, archivedOnly bool) ([]*ConversationView, error)
	Archive(ctx context.Context, userID, jobID uuid.UUID) error
	Unarchive(ctx context.Context, userID, jobID uuid.UUID) error
	IsArchived(ctx context.Context, userID, jobID uuid.UUID) (bool, error)
	Star(ctx context.Context, userID, jobID uuid.UUID) error
	Unstar(ctx context.Context, userID, jobID uuid.UUID) error
	IsStarred(ctx context.Context, userID, jobID uuid.UUID) (bool, error)
}

type conversationService struct {
	db          *gorm.DB
	log         *logger.Logger
	messageRepo repos.MessageRepo
	jobRepo     repos.JobRepo
	userRepo    repos.UserRepo
	serviceRepo repos.ServiceRepo
	profileRepo repos.ProProfileRepo
	flagRepo    repos.ConversationFlagRepo
}

func NewConversationService(
	db *gorm.DB,
	log *logger.Logger,
	messageRepo repos.MessageRepo,
	jobRepo repos.JobRepo,
	userRepo repos.UserRepo,
	serviceRepo repos.ServiceRepo,
	profileRepo repos.ProProfileRepo,
	flagRepo repos.ConversationFlagRepo,
) ConversationService {
	return &conversationService{
		db:          db,
		log:         log.With("service", "ConversationService"),
		messageRepo: messageRepo,
		jobRepo:     jobRepo,
		userRepo:    userRepo,
		serviceRepo: serviceRepo,
		profileRepo: profileRepo,
		flagRepo:    flagRepo,
	}
}

func (cs *conversationService) List(ctx context.Context, userID uuid.UUID, archivedOnly bool) ([]*ConversationView, error) {
	messages, err := cs.messageRepo.ListByUser(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	if len(messages) == 0 {
		return []*ConversationView{}, nil
	}

	// Group by job id; track last message and unread count in one pass.
	type group struct {
		jobID        uuid.UUID
		last         *types.Message
		unread       int
		counterpart  uuid.UUID
	}
	groups := map[uuid.UUID]*group{}
	for _, m := range messages {
		g, ok := groups[m.JobID]
		if !ok {
			g = &group{jobID: m.JobID}
			groups[m.JobID] = g
		}
		if g.last == nil || m.CreatedAt.After(g.last.CreatedAt) {
			g.last = m
		}
		if m.ReceiverID == userID && !m.IsRead {
			g.unread++
		}
		if m.SenderID != userID {
			g.counterpart = m.SenderID
		} else if g.counterpart == uuid.Nil {
			g.counterpart = m.ReceiverID
		}
	}

	jobIDs := make([]uuid.UUID, 0, len(groups))
	counterpartIDs := make([]uuid.UUID, 0, len(groups))
	for _, g := range groups {
		jobIDs = append(jobIDs, g.jobID)
		if g.counterpart != uuid.Nil {
			counterpartIDs = append(counterpartIDs, g.counterpart)
		}
	}

	// Sub-lookups run in parallel. Jobs are load-bearing (we need the
	// service ids); users and flags degrade to placeholders on failure.
	var (
		jobsByID     = map[uuid.UUID]*types.Job{}
		usersByID    = map[uuid.UUID]*types.User{}
		archivedJobs = map[uuid.UUID]bool{}
		starredJobs  = map[uuid.UUID]bool{}
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		jobs, jErr := cs.jobRepo.GetByIDs(egCtx, nil, jobIDs)
		if jErr != nil {
			return fmt.Errorf("load jobs: %w", jErr)
		}
		for _, j := range jobs {
			jobsByID[j.ID] = j
		}
		return nil
	})
	eg.Go(func() error {
		users, uErr := cs.userRepo.GetByIDs(egCtx, nil, counterpartIDs)
		if uErr != nil {
			cs.log.Warn("conversation counterpart lookup failed, using placeholders", "error", uErr)
			return nil
		}
		for _, u := range users {
			usersByID[u.ID] = u
		}
		return nil
	})
	eg.Go(func() error {
		profile, pErr := cs.profileRepo.GetByUserID(egCtx, nil, userID)
		if pErr != nil {
			if !errors.Is(pErr, gorm.ErrRecordNotFound) {
				cs.log.Warn("pro profile lookup failed, flags unavailable", "error", pErr, "user_id", userID)
			}
			return nil
		}
		archivedIDs, aErr := cs.flagRepo.ListArchivedJobIDs(egCtx, nil, profile.ID)
		if aErr != nil {
			cs.log.Warn("archived flag lookup failed", "error", aErr)
		}
		for _, id := range archivedIDs {
			archivedJobs[id] = true
		}
		starredIDs, sErr := cs.flagRepo.ListStarredJobIDs(egCtx, nil, profile.ID)
		if sErr != nil {
			cs.log.Warn("starred flag lookup failed", "error", sErr)
		}
		for _, id := range starredIDs {
			starredJobs[id] = true
		}
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	serviceIDs := make([]uuid.UUID, 0, len(jobsByID))
	for _, j := range jobsByID {
		serviceIDs = append(serviceIDs, j.ServiceID)
	}
	servicesByID := map[uuid.UUID]*types.Service{}
	if services, sErr := cs.serviceRepo.GetByIDs(ctx, nil, serviceIDs); sErr != nil {
		cs.log.Warn("service lookup failed, using placeholders", "error", sErr)
	} else {
		for _, s := range services {
			servicesByID[s.ID] = s
		}
	}

	views := make([]*ConversationView, 0, len(groups))
	for _, g := range groups {
		if archivedJobs[g.jobID] != archivedOnly {
			continue
		}
		view := &ConversationView{
			JobID:           g.jobID,
			ServiceName:     placeholderService,
			CounterpartID:   g.counterpart,
			CounterpartName: placeholderCustomer,
			UnreadCount:     g.unread,
			Archived:        archivedJobs[g.jobID],
			Starred:         starredJobs[g.jobID],
		}
		if g.last != nil {
			view.LastMessage = g.last.Content
			view.LastMessageAt = g.last.CreatedAt
			view.LastMessageFrom = g.last.SenderID
		}
		if job, ok := jobsByID[g.jobID]; ok {
			view.JobTitle = job.Title
			if svc, ok := servicesByID[job.ServiceID]; ok {
				view.ServiceName = svc.Name
			}
		}
		if u, ok := usersByID[g.counterpart]; ok {
			view.CounterpartName = u.FirstName + " " + u.LastName
		}
		views = append(views, view)
	}

	sort.Slice(views, func(i, j int) bool {
		return views[i].LastMessageAt.After(views[j].LastMessageAt)
	})
	return views, nil
}

func (cs *conversationService) profileFor(ctx context.Context, userID uuid.UUID) (*types.ProProfile, error) {
	profile, err := cs.profileRepo.GetByUserID(ctx, nil, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.Forbidden(fmt.Errorf("conversation flags require a pro profile"))
		}
		return nil, fmt.Errorf("load pro profile: %w", err)
	}
	return profile, nil
}

func (cs *conversationService) Archive(ctx context.Context, userID, jobID uuid.UUID) error {
	profile, err := cs.profileFor(ctx, userID)
	if err != nil {
		return err
	}
	return cs.flagRepo.Archive(ctx, nil, profile.ID, jobID)
}

func (cs *conversationService) Unarchive(ctx context.Context, userID, jobID uuid.UUID) error {
	profile, err := cs.profileFor(ctx, userID)
	if err != nil {
		return err
	}
	return cs.flagRepo.Unarchive(ctx, nil, profile.ID, jobID)
}

func (cs *conversationService) IsArchived(ctx context.Context, userID, jobID uuid.UUID) (bool, error) {
	profile, err := cs.profileFor(ctx, userID)
	if err != nil {
		return false, err
	}
	return cs.flagRepo.IsArchived(ctx, nil, profile.ID, jobID)
}

func (cs *conversationService) Star(ctx context.Context, userID, jobID uuid.UUID) error {
	profile, err := cs.profileFor(ctx, userID)
	if err != nil {
		return err
	}
	return cs.flagRepo.Star(ctx, nil, profile.ID, jobID)
}

func (cs *conversationService) Unstar(ctx context.Context, userID, jobID uuid.UUID) error {
	profile, err := cs.profileFor(ctx, userID)
	if err != nil {
		return err
	}
	return cs.flagRepo.Unstar(ctx, nil, profile.ID, jobID)
}

func (cs *conversationService) IsStarred(ctx context.Context, userID, jobID uuid.UUID) (bool, error) {
	profile, err := cs.profileFor(ctx, userID)
	if err != nil {
		return false, err
	}
	return cs.flagRepo.IsStarred(ctx, nil, profile.ID, jobID)
}
