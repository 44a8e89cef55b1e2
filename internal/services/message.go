package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mestermind/backend/internal/apierr"
	"github.com/mestermind/backend/internal/logger"
	"github.com/mestermind/backend/internal/repos"
	"github.com/mestermind/backend/internal/sse"
	"github.com/mestermind/backend/internal/types"
)

// RedactedPlaceholder replaces blurred customer message bodies in the pro's
// view until the lead is purchased. Display-layer redaction only; the rows
// themselves are untouched.
const RedactedPlaceholder = "— Az üzenet a hozzáférés megvásárlása után olvasható —"

type SendMessageRequest struct {
	JobID      uuid.UUID `json:"job_id"`
	ReceiverID uuid.UUID `json:"receiver_id"`
	Content    string    `json:"content"`
}

// MessageView is a Message plus the redaction flag applied for the viewer.
type MessageView struct {
	types.Message
	Redacted bool `json:"redacted,omitempty"`
}

type MessageService interface {
	Send(ctx context.Context, senderID uuid.UUID, req SendMessageRequest) (*types.Message, error)
	// ListThread returns the job thread as seen by viewer, redaction applied.
	ListThread(ctx context.Context, viewerID, jobID uuid.UUID) ([]*MessageView, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*types.Message, error)
	MarkRead(ctx context.Context, userID, messageID uuid.UUID) error
}

type messageService struct {
	db          *gorm.DB
	log         *logger.Logger
	messageRepo repos.MessageRepo
	userRepo    repos.UserRepo
	jobRepo     repos.JobRepo
	gateService GateService
	sseHub      *sse.SSEHub
	gateLimit   int
}

func NewMessageService(
	db *gorm.DB,
	log *logger.Logger,
	messageRepo repos.MessageRepo,
	userRepo repos.UserRepo,
	jobRepo repos.JobRepo,
	gateService GateService,
	sseHub *sse.SSEHub,
	gateLimit int,
) MessageService {
	if gateLimit <= 0 {
		gateLimit = DefaultLeadMessageLimit
	}
	return &messageService{
		db:          db,
		log:         log.With("service", "MessageService"),
		messageRepo: messageRepo,
		userRepo:    userRepo,
		jobRepo:     jobRepo,
		gateService: gateService,
		sseHub:      sseHub,
		gateLimit:   gateLimit,
	}
}

func (ms *messageService) Send(ctx context.Context, senderID uuid.UUID, req SendMessageRequest) (*types.Message, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, apierr.Validation(fmt.Errorf("message content is required"))
	}
	if req.JobID == uuid.Nil || req.ReceiverID == uuid.Nil {
		return nil, apierr.Validation(fmt.Errorf("job_id and receiver_id are required"))
	}

	sender, err := ms.userRepo.GetByID(ctx, nil, senderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound(fmt.Errorf("sender %s not found", senderID))
		}
		return nil, fmt.Errorf("load sender: %w", err)
	}
	if _, err := ms.jobRepo.GetByID(ctx, nil, req.JobID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound(fmt.Errorf("job %s not found", req.JobID))
		}
		return nil, fmt.Errorf("load job: %w", err)
	}

	// Only pro-authored outreach is gated; customers always reply freely.
	if sender.IsPro() {
		if gErr := ms.gateService.CheckSend(ctx, senderID, req.JobID); gErr != nil {
			return nil, gErr
		}
	}

	message := &types.Message{
		JobID:               req.JobID,
		SenderID:            senderID,
		ReceiverID:          req.ReceiverID,
		Content:             content,
		IsFromPro:           sender.IsPro(),
		ContainsContactInfo: containsContactInfo(content),
		CreatedAt:           time.Now().UTC(),
	}
	created, err := ms.messageRepo.Create(ctx, nil, []*types.Message{message})
	if err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}

	if ms.sseHub != nil {
		ms.sseHub.NotifyUser(req.ReceiverID, sse.SSEEventMessageReceived, created[0])
		ms.sseHub.Broadcast(sse.SSEMessage{
			Channel: sse.JobChannel(req.JobID),
			Event:   sse.SSEEventConversationUpdated,
			Data:    map[string]any{"job_id": req.JobID},
		})
	}
	return created[0], nil
}

func (ms *messageService) ListThread(ctx context.Context, viewerID, jobID uuid.UUID) ([]*MessageView, error) {
	viewer, err := ms.userRepo.GetByID(ctx, nil, viewerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound(fmt.Errorf("user %s not found", viewerID))
		}
		return nil, fmt.Errorf("load viewer: %w", err)
	}
	messages, err := ms.messageRepo.ListByJob(ctx, nil, jobID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	redactFromIndex := -1
	if viewer.IsPro() {
		purchased, aErr := ms.gateService.HasLeadAccess(ctx, viewerID, jobID)
		if aErr != nil {
			return nil, aErr
		}
		if !purchased {
			redactFromIndex = ms.gateLimit
		}
	}

	views := make([]*MessageView, 0, len(messages))
	customerSeen := 0
	for _, m := range messages {
		view := &MessageView{Message: *m}
		if !m.IsFromPro {
			// Customer messages past the free window are blurred for an
			// unpurchased pro viewer.
			if redactFromIndex >= 0 && customerSeen >= redactFromIndex {
				view.Redacted = true
				view.Content = RedactedPlaceholder
				view.ContainsContactInfo = false
			}
			customerSeen++
		}
		views = append(views, view)
	}
	return views, nil
}

func (ms *messageService) ListForUser(ctx context.Context, userID uuid.UUID) ([]*types.Message, error) {
	messages, err := ms.messageRepo.ListByUser(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return messages, nil
}

func (ms *messageService) MarkRead(ctx context.Context, userID, messageID uuid.UUID) error {
	message, err := ms.messageRepo.GetByID(ctx, nil, messageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierr.NotFound(fmt.Errorf("message %s not found", messageID))
		}
		return fmt.Errorf("load message: %w", err)
	}
	// Only the receiver may mark a message as read; the body itself stays
	// immutable.
	if message.ReceiverID != userID {
		return apierr.Forbidden(fmt.Errorf("only the receiver can mark a message read"))
	}
	if message.IsRead {
		return nil
	}
	if err := ms.messageRepo.MarkRead(ctx, nil, messageID); err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	return nil
}
