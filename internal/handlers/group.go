package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"studymate-backend/internal/logger"
	"studymate-backend/internal/middleware"
	"studymate-backend/internal/models"
	"studymate-backend/internal/realtime"
	"studymate-backend/internal/services"
)

const (
	groupMessageLimit   = 200
	groupBreakdownLimit = 50
)

type groupRepository interface {
	Create(ctx context.Context, g *models.Group) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Group, error)
	ListForUser(ctx context.Context, userID, email string) ([]*models.Group, error)
	AddMember(ctx context.Context, groupID uuid.UUID, userID, email string) error
	AddInvite(ctx context.Context, groupID uuid.UUID, email string) error
}

type groupMessageRepository interface {
	Create(ctx context.Context, m *models.GroupMessage) error
	ListByGroup(ctx context.Context, groupID uuid.UUID, limit int) ([]*models.GroupMessage, error)
}

type groupBreakdownRepository interface {
	ListByGroup(ctx context.Context, groupID uuid.UUID, limit int) ([]*models.Breakdown, error)
}

type jobQueue interface {
	Enqueue(ctx context.Context, job *models.GroupBreakdownJob) error
}

type eventPublisher interface {
	Publish(ctx context.Context, msg models.WSMessage) error
}

// GroupHandler serves study groups, their chat and their shared breakdown feed.
type GroupHandler struct {
	groupRepo     groupRepository
	messageRepo   groupMessageRepository
	breakdownRepo groupBreakdownRepository
	queue         jobQueue
	pending       *realtime.PendingSet
	publisher     eventPublisher
	mailer        services.InviteMailer
	log           *logger.Logger
}

func NewGroupHandler(
	groupRepo groupRepository,
	messageRepo groupMessageRepository,
	breakdownRepo groupBreakdownRepository,
	queue jobQueue,
	pending *realtime.PendingSet,
	publisher eventPublisher,
	mailer services.InviteMailer,
	log *logger.Logger,
) *GroupHandler {
	return &GroupHandler{
		groupRepo:     groupRepo,
		messageRepo:   messageRepo,
		breakdownRepo: breakdownRepo,
		queue:         queue,
		pending:       pending,
		publisher:     publisher,
		mailer:        mailer,
		log:           log.With("handler", "group"),
	}
}

// memberGroup loads the {groupId} path group and requires the caller to be a member.
func (h *GroupHandler) memberGroup(w http.ResponseWriter, r *http.Request) (*models.Group, bool) {
	id, ok := pathID(w, r, "groupId")
	if !ok {
		return nil, false
	}

	group, err := h.groupRepo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Group not found", r))
			return nil, false
		}
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load group", r))
		return nil, false
	}

	if !group.HasMember(middleware.GetUserID(r.Context())) {
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "You are not a member of this group", r))
		return nil, false
	}
	return group, true
}

func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateGroupRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		validationFailed(w, r, "name", "Group name is required")
		return
	}

	group := &models.Group{
		Name:        req.Name,
		Description: strings.TrimSpace(req.Description),
		CreatorID:   middleware.GetUserID(r.Context()),
	}
	if err := h.groupRepo.Create(r.Context(), group); err != nil {
		h.log.Error("failed to create group", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create group", r))
		return
	}

	writeJSON(w, http.StatusCreated, group)
}

func (h *GroupHandler) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	groups, err := h.groupRepo.ListForUser(r.Context(), user.UserID, user.Email)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to list groups", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"groups": groups})
}

func (h *GroupHandler) Get(w http.ResponseWriter, r *http.Request) {
	group, ok := h.memberGroup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, group)
}

// Join adds the caller to the group and clears their pending invite.
func (h *GroupHandler) Join(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "groupId")
	if !ok {
		return
	}
	user := middleware.GetUser(r.Context())

	if err := h.groupRepo.AddMember(r.Context(), id, user.UserID, user.Email); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Group not found", r))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to join group", r))
		return
	}

	group, err := h.groupRepo.GetByID(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load group", r))
		return
	}
	writeJSON(w, http.StatusOK, group)
}

func (h *GroupHandler) Invite(w http.ResponseWriter, r *http.Request) {
	group, ok := h.memberGroup(w, r)
	if !ok {
		return
	}

	var req models.InviteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		validationFailed(w, r, "email", "A valid email is required")
		return
	}

	if err := h.groupRepo.AddInvite(r.Context(), group.ID, email); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to invite member", r))
		return
	}

	user := middleware.GetUser(r.Context())
	emailSent := true
	if err := h.mailer.SendGroupInvite(email, group.Name, group.ID.String(), user.DisplayName()); err != nil {
		h.log.Warn("failed to send invite email", "group_id", group.ID.String(), "error", err)
		emailSent = false
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"email":     email,
		"emailSent": emailSent,
	})
}

func (h *GroupHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	group, ok := h.memberGroup(w, r)
	if !ok {
		return
	}

	messages, err := h.messageRepo.ListByGroup(r.Context(), group.ID, groupMessageLimit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load messages", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"messages": messages})
}

func (h *GroupHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	group, ok := h.memberGroup(w, r)
	if !ok {
		return
	}

	var req models.SendMessageRequest
	if !decodeBody(w, r, &req) {
		return
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		validationFailed(w, r, "content", "Message content is required")
		return
	}

	user := middleware.GetUser(r.Context())
	msg := &models.GroupMessage{
		GroupID:  group.ID,
		UserID:   user.UserID,
		UserName: user.DisplayName(),
		Content:  content,
		Type:     models.MessageTypeMessage,
	}
	if err := h.messageRepo.Create(r.Context(), msg); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to send message", r))
		return
	}

	h.publish(r.Context(), group.ID, models.EventMessageCreated, msg)
	writeJSON(w, http.StatusCreated, msg)
}

// CreateBreakdown queues generation for the group and announces a pending
// entry keyed by the client's correlation id.
func (h *GroupHandler) CreateBreakdown(w http.ResponseWriter, r *http.Request) {
	group, ok := h.memberGroup(w, r)
	if !ok {
		return
	}

	var req models.CreateGroupBreakdownRequest
	if !decodeBody(w, r, &req) {
		return
	}
	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		validationFailed(w, r, "topic", "Topic is required")
		return
	}
	if !validQuestionCount(w, r, req.NumQuestions) {
		return
	}
	correlationID := strings.TrimSpace(req.CorrelationID)
	if correlationID == "" {
		correlationID = uuid.New().String()
	}

	user := middleware.GetUser(r.Context())
	now := time.Now()

	pending := models.PendingBreakdown{
		CorrelationID: correlationID,
		GroupID:       group.ID,
		UserID:        user.UserID,
		UserName:      user.DisplayName(),
		Topic:         topic,
		CreatedAt:     now,
	}
	h.pending.Add(pending)
	h.publish(r.Context(), group.ID, models.EventBreakdownPending, pending)

	job := &models.GroupBreakdownJob{
		ID:            uuid.New(),
		GroupID:       group.ID,
		UserID:        user.UserID,
		UserName:      user.DisplayName(),
		Topic:         topic,
		CorrelationID: correlationID,
		NumQuestions:  req.NumQuestions,
		CreatedAt:     now,
	}
	if err := h.queue.Enqueue(r.Context(), job); err != nil {
		h.log.Error("failed to enqueue group breakdown", "group_id", group.ID.String(), "error", err)
		h.pending.Resolve(group.ID, correlationID)
		h.publish(r.Context(), group.ID, models.EventBreakdownFailed, models.BreakdownFailedEvent{
			CorrelationID: correlationID,
			ErrorMessage:  "Failed to queue generation",
		})
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to queue generation", r))
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"correlationId": correlationID})
}

// ListBreakdowns returns persisted group breakdowns merged with entries that
// are still pending, newest first.
func (h *GroupHandler) ListBreakdowns(w http.ResponseWriter, r *http.Request) {
	group, ok := h.memberGroup(w, r)
	if !ok {
		return
	}

	persisted, err := h.breakdownRepo.ListByGroup(r.Context(), group.ID, groupBreakdownLimit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load breakdowns", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"breakdowns": h.pending.Merge(group.ID, persisted)})
}

func (h *GroupHandler) publish(ctx context.Context, groupID uuid.UUID, eventType string, payload interface{}) {
	err := h.publisher.Publish(ctx, models.WSMessage{Type: eventType, GroupID: groupID, Payload: payload})
	if err != nil {
		h.log.Warn("failed to publish group event", "type", eventType, "group_id", groupID.String(), "error", err)
	}
}
