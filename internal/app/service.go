package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"ideagate/api/internal/access"
	"ideagate/api/internal/auth"
	"ideagate/api/internal/bus"
	"ideagate/api/internal/config"
	"ideagate/api/internal/email"
	"ideagate/api/internal/files"
	"ideagate/api/internal/scoring"
	"ideagate/api/internal/search"
	"ideagate/api/internal/store"
	"ideagate/api/internal/util"
)

type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type SubmitIdeaInput struct {
	Title       string `json:"title"`
	Domain      string `json:"domain"`
	Description string `json:"description"`
}

type EditIdeaInput struct {
	Title       string `json:"title"`
	Domain      string `json:"domain"`
	Description string `json:"description"`
}

type AnalyzeInput struct {
	Feasibility *int `json:"feasibilityScore"`
	Similarity  *int `json:"similarityScore"`
}

type ReviewInput struct {
	Status  string `json:"status"`
	Comment string `json:"comment"`
}

type AssignReviewerInput struct {
	ReviewerID string `json:"reviewerId"`
}

type LockInput struct {
	Locked bool `json:"locked"`
}

var reviewDecisions = map[string]struct{}{
	store.StatusReviewed: {},
	store.StatusApproved: {},
	store.StatusRejected: {},
}

var allowedStatuses = map[string]struct{}{
	store.StatusPending:  {},
	store.StatusReviewed: {},
	store.StatusApproved: {},
	store.StatusRejected: {},
}

type dataStore interface {
	GetUserByID(ctx context.Context, userID string) (store.User, error)
	GetUserByEmail(ctx context.Context, email string) (store.User, error)
	ListUsers(ctx context.Context) ([]store.User, error)
	CountUsers(ctx context.Context) (int, error)
	InsertUser(ctx context.Context, user store.User) error
	ToggleUserActive(ctx context.Context, userID string) (bool, error)

	InsertIdea(ctx context.Context, item store.Idea) error
	GetIdea(ctx context.Context, ideaID string) (store.Idea, error)
	ListIdeasByOwner(ctx context.Context, ownerID string) ([]store.Idea, error)
	ListIdeasForReviewer(ctx context.Context, reviewerID string) ([]store.Idea, error)
	ListIdeasByStatus(ctx context.Context, status string) ([]store.Idea, error)
	ListIdeas(ctx context.Context) ([]store.Idea, error)
	ListIdeaTexts(ctx context.Context) ([]store.IdeaText, error)
	UpdateIdeaContent(ctx context.Context, ideaID, ownerID, title, domain, description string, attachment *store.Attachment) (bool, error)
	SaveAnalysis(ctx context.Context, ideaID, reviewerID string, feasibility, similarity int, plagiarism bool, snapshot store.ScoreSnapshot, entry store.TimelineEntry) (bool, error)
	ApplyReview(ctx context.Context, ideaID, reviewerID, status string, lock bool, feedback *store.FeedbackEntry, entry store.TimelineEntry, notification store.Notification) (bool, error)
	AssignReviewer(ctx context.Context, ideaID, reviewerID, reviewerName string, entry store.TimelineEntry) (bool, error)
	SetIdeaLock(ctx context.Context, ideaID string, locked bool) (bool, error)
	SetIdeaConversation(ctx context.Context, ideaID, conversationID string) error

	ListNotifications(ctx context.Context, userID string) ([]store.UserNotification, error)
	MarkNotificationRead(ctx context.Context, ideaID, notificationID, userID string) (bool, error)
	Stats(ctx context.Context) (store.Stats, error)

	FindOrCreateConversation(ctx context.Context, conv store.Conversation) (store.Conversation, bool, error)
	GetConversation(ctx context.Context, conversationID string) (store.Conversation, error)
	ListConversationsForUser(ctx context.Context, userID string) ([]store.Conversation, error)
	TouchConversation(ctx context.Context, conversationID string) error
	InsertMessage(ctx context.Context, msg store.Message) error
	ListMessages(ctx context.Context, conversationID string) ([]store.Message, error)
	GetMessage(ctx context.Context, messageID string) (store.Message, error)
	SoftDeleteMessage(ctx context.Context, messageID, deletedBy string) (bool, error)
}

type Service struct {
	cfg    config.Config
	store  dataStore
	events *bus.Bus
	bus    bus.Publisher
	email  *email.Service
	files  *files.Service
	search *search.Service
}

// New wires the service. events is the local fan-out bus; publisher is
// where outgoing chat events go, which is either the same bus or a
// Redis bridge layered on top of it.
func New(cfg config.Config, dataStore dataStore, events *bus.Bus, publisher bus.Publisher, emailSvc *email.Service, filesSvc *files.Service, searchSvc *search.Service) *Service {
	return &Service{
		cfg:    cfg,
		store:  dataStore,
		events: events,
		bus:    publisher,
		email:  emailSvc,
		files:  filesSvc,
		search: searchSvc,
	}
}

// Bootstrap seeds a starter set of accounts into an empty database and
// warms the search index from whatever ideas are already stored.
func (s *Service) Bootstrap(ctx context.Context) error {
	count, err := s.store.CountUsers(ctx)
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if count == 0 {
		now := time.Now().UTC()
		seeded := []store.User{
			{ID: util.NewID("usr"), Name: "Avery Admin", Email: "avery@ideagate.dev", Role: "admin"},
			{ID: util.NewID("usr"), Name: "Priya Raman", Email: "priya@ideagate.dev", Role: "reviewer"},
			{ID: util.NewID("usr"), Name: "Marcus Webb", Email: "marcus@ideagate.dev", Role: "reviewer"},
			{ID: util.NewID("usr"), Name: "Lena Fischer", Email: "lena@ideagate.dev", Role: "submitter"},
			{ID: util.NewID("usr"), Name: "Tomas Rivera", Email: "tomas@ideagate.dev", Role: "submitter"},
		}
		for _, user := range seeded {
			user.IsActive = true
			user.CreatedAt = now
			user.UpdatedAt = now
			if err := s.store.InsertUser(ctx, user); err != nil {
				return fmt.Errorf("seed user %s: %w", user.Email, err)
			}
		}
		log.Printf("seeded %d starter accounts", len(seeded))
	}
	if s.search != nil {
		s.search.ReindexAllFromPG(ctx)
	}
	return nil
}

func (s *Service) Ping(ctx context.Context) error {
	_, err := s.store.CountUsers(ctx)
	return err
}

// Login exchanges a known account email for a signed session token.
// Credential verification happens upstream; this service only decides
// whether the account exists and is still active.
func (s *Service) Login(ctx context.Context, emailAddr string) (Session, error) {
	emailAddr = strings.TrimSpace(emailAddr)
	if emailAddr == "" {
		return Session{}, errValidation("email is required")
	}
	user, err := s.store.GetUserByEmail(ctx, emailAddr)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, domainError(http.StatusUnauthorized, "UNAUTHORIZED", "Unknown account", nil)
	}
	if err != nil {
		return Session{}, err
	}
	if !user.IsActive {
		return Session{}, domainError(http.StatusForbidden, "FORBIDDEN", "Account is deactivated", nil)
	}
	return s.issueSession(user)
}

func (s *Service) issueSession(user store.User) (Session, error) {
	expiresAt := time.Now().Add(s.cfg.TokenTTL)
	token, err := auth.IssueToken([]byte(s.cfg.TokenSecret), auth.Claims{
		Sub:  user.ID,
		Name: user.Name,
		Role: user.Role,
		JTI:  util.NewID("jti"),
		Exp:  expiresAt.Unix(),
	})
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w", err)
	}
	return Session{
		Token:     token,
		UserID:    user.ID,
		UserName:  user.Name,
		Role:      user.Role,
		ExpiresAt: expiresAt,
	}, nil
}

func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.TokenSecret), token)
	if err != nil {
		return Session{}, err
	}
	user, err := s.store.GetUserByID(ctx, claims.Sub)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, auth.ErrInvalidToken
	}
	if err != nil {
		return Session{}, err
	}
	if !user.IsActive {
		return Session{}, auth.ErrInvalidToken
	}
	return Session{
		Token:     token,
		UserID:    user.ID,
		UserName:  user.Name,
		Role:      user.Role,
		ExpiresAt: time.Unix(claims.Exp, 0),
	}, nil
}

func (s *Service) SubmitIdea(ctx context.Context, sess Session, input SubmitIdeaInput, attachment *store.Attachment) (store.Idea, error) {
	if !access.CanSubmitIdea(access.Normalize(sess.Role)) {
		return store.Idea{}, errForbidden()
	}
	input.Title = strings.TrimSpace(input.Title)
	input.Domain = strings.TrimSpace(input.Domain)
	input.Description = strings.TrimSpace(input.Description)
	if input.Title == "" {
		return store.Idea{}, errValidation("title is required")
	}
	if input.Domain == "" {
		return store.Idea{}, errValidation("domain is required")
	}
	kind := store.KindText
	if attachment != nil {
		kind = store.KindFile
		input.Description = ""
	}
	if kind == store.KindText && input.Description == "" {
		return store.Idea{}, errValidation("description is required for a text submission")
	}

	similarity, err := s.highestSimilarity(ctx, input.Title, input.Description, "")
	if err != nil {
		return store.Idea{}, err
	}
	feasibility := scoring.Feasibility(input.Description, input.Domain)
	suspect := scoring.IsPlagiarismSuspect(similarity)

	now := time.Now().UTC()
	message := "Idea submitted successfully."
	if suspect {
		message = "Idea submitted (High similarity detected - Plagiarism Warning)."
	}
	idea := store.Idea{
		ID:                util.NewID("idea"),
		Title:             input.Title,
		Domain:            input.Domain,
		Kind:              kind,
		Description:       input.Description,
		OwnerID:           sess.UserID,
		OwnerName:         sess.UserName,
		Status:            store.StatusPending,
		Feasibility:       feasibility,
		Similarity:        similarity,
		PlagiarismSuspect: suspect,
		Attachment:        attachment,
		Timeline: []store.TimelineEntry{{
			Status:    store.StatusPending,
			Message:   message,
			Actor:     sess.UserName,
			CreatedAt: now,
		}},
		Notifications: []store.Notification{},
		Feedback:      []store.FeedbackEntry{},
		ScoresHistory: []store.ScoreSnapshot{{
			Feasibility: feasibility,
			Similarity:  similarity,
			RecordedAt:  now,
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.InsertIdea(ctx, idea); err != nil {
		return store.Idea{}, fmt.Errorf("insert idea: %w", err)
	}
	s.indexIdea(idea)
	return idea, nil
}

func (s *Service) ListOwnIdeas(ctx context.Context, sess Session) ([]store.Idea, error) {
	return s.store.ListIdeasByOwner(ctx, sess.UserID)
}

// ListAssignedIdeas returns the open queue for a reviewer: everything
// assigned to them that still awaits a final decision.
func (s *Service) ListAssignedIdeas(ctx context.Context, sess Session) ([]store.Idea, error) {
	if !access.CanListPending(access.Normalize(sess.Role)) {
		return nil, errForbidden()
	}
	all, err := s.store.ListIdeasForReviewer(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	open := make([]store.Idea, 0, len(all))
	for _, idea := range all {
		if idea.Status == store.StatusPending || idea.Status == store.StatusReviewed {
			open = append(open, idea)
		}
	}
	return open, nil
}

// ListAllIdeas is the admin view, optionally narrowed to one lifecycle
// status.
func (s *Service) ListAllIdeas(ctx context.Context, sess Session, status string) ([]store.Idea, error) {
	if !access.CanListAllIdeas(access.Normalize(sess.Role)) {
		return nil, errForbidden()
	}
	if status == "" {
		return s.store.ListIdeas(ctx)
	}
	if _, ok := allowedStatuses[status]; !ok {
		return nil, domainError(http.StatusUnprocessableEntity, "INVALID_STATUS", "Unknown status filter", nil)
	}
	return s.store.ListIdeasByStatus(ctx, status)
}

func (s *Service) GetIdea(ctx context.Context, sess Session, ideaID string) (store.Idea, error) {
	idea, err := s.store.GetIdea(ctx, ideaID)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Idea{}, errNotFound("idea not found")
	}
	if err != nil {
		return store.Idea{}, err
	}
	if !access.CanViewIdea(access.Normalize(sess.Role), sess.UserID, idea.OwnerID, idea.ReviewerID) {
		return store.Idea{}, errForbidden()
	}
	return idea, nil
}

func (s *Service) EditIdea(ctx context.Context, sess Session, ideaID string, input EditIdeaInput, attachment *store.Attachment) (store.Idea, error) {
	idea, err := s.store.GetIdea(ctx, ideaID)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Idea{}, errNotFound("idea not found")
	}
	if err != nil {
		return store.Idea{}, err
	}
	if !access.CanEditIdea(access.Normalize(sess.Role), sess.UserID, idea.OwnerID) {
		return store.Idea{}, errForbidden()
	}
	title := strings.TrimSpace(input.Title)
	domain := strings.TrimSpace(input.Domain)
	description := strings.TrimSpace(input.Description)
	if title == "" {
		title = idea.Title
	}
	if domain == "" {
		domain = idea.Domain
	}
	if description == "" {
		description = idea.Description
	}

	changed, err := s.store.UpdateIdeaContent(ctx, ideaID, sess.UserID, title, domain, description, attachment)
	if err != nil {
		return store.Idea{}, fmt.Errorf("update idea: %w", err)
	}
	if !changed {
		return store.Idea{}, s.editRejection(ctx, ideaID)
	}
	updated, err := s.store.GetIdea(ctx, ideaID)
	if err != nil {
		return store.Idea{}, err
	}
	s.indexIdea(updated)
	return updated, nil
}

// editRejection re-reads the idea to report why a guarded edit matched
// no row.
func (s *Service) editRejection(ctx context.Context, ideaID string) error {
	idea, err := s.store.GetIdea(ctx, ideaID)
	if errors.Is(err, sql.ErrNoRows) {
		return errNotFound("idea not found")
	}
	if err != nil {
		return err
	}
	if idea.IsLocked {
		return errStateLocked()
	}
	if idea.Status != store.StatusPending {
		return domainError(http.StatusForbidden, "EDIT_FORBIDDEN", "Only pending ideas can be edited", nil)
	}
	return domainError(http.StatusForbidden, "EDIT_FORBIDDEN", "Idea can no longer be edited", nil)
}

func (s *Service) AnalyzeIdea(ctx context.Context, sess Session, ideaID string, input AnalyzeInput) (store.Idea, error) {
	idea, err := s.store.GetIdea(ctx, ideaID)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Idea{}, errNotFound("idea not found")
	}
	if err != nil {
		return store.Idea{}, err
	}
	if !access.CanAnalyzeIdea(access.Normalize(sess.Role), sess.UserID, idea.ReviewerID) {
		return store.Idea{}, errForbidden()
	}
	if idea.IsLocked {
		return store.Idea{}, errStateLocked()
	}

	feasibility := scoring.Feasibility(idea.Description, idea.Domain)
	if input.Feasibility != nil {
		feasibility = *input.Feasibility
	}
	similarity := idea.Similarity
	if input.Similarity != nil {
		similarity = *input.Similarity
	} else if input.Feasibility == nil {
		similarity, err = s.highestSimilarity(ctx, idea.Title, idea.Description, idea.ID)
		if err != nil {
			return store.Idea{}, err
		}
	}
	if feasibility < 0 || feasibility > 100 || similarity < 0 || similarity > 100 {
		return store.Idea{}, errValidation("scores must be between 0 and 100")
	}
	suspect := scoring.IsPlagiarismSuspect(similarity)

	now := time.Now().UTC()
	snapshot := store.ScoreSnapshot{Feasibility: feasibility, Similarity: similarity, RecordedAt: now}
	entry := store.TimelineEntry{
		Status:    idea.Status,
		Message:   fmt.Sprintf("Reviewer analysis updated (Feasibility: %d%%, Similarity: %d%%).", feasibility, similarity),
		Actor:     sess.UserName,
		CreatedAt: now,
	}
	changed, err := s.store.SaveAnalysis(ctx, ideaID, sess.UserID, feasibility, similarity, suspect, snapshot, entry)
	if err != nil {
		return store.Idea{}, fmt.Errorf("save analysis: %w", err)
	}
	if !changed {
		return store.Idea{}, s.analysisRejection(ctx, ideaID)
	}
	return s.store.GetIdea(ctx, ideaID)
}

func (s *Service) analysisRejection(ctx context.Context, ideaID string) error {
	idea, err := s.store.GetIdea(ctx, ideaID)
	if errors.Is(err, sql.ErrNoRows) {
		return errNotFound("idea not found")
	}
	if err != nil {
		return err
	}
	if idea.IsLocked {
		return errStateLocked()
	}
	if idea.Status != store.StatusPending {
		return domainError(http.StatusConflict, "CONFLICT", "Idea is no longer pending analysis", nil)
	}
	return errForbidden()
}

func (s *Service) ReviewIdea(ctx context.Context, sess Session, ideaID string, input ReviewInput) (store.Idea, error) {
	idea, err := s.store.GetIdea(ctx, ideaID)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Idea{}, errNotFound("idea not found")
	}
	if err != nil {
		return store.Idea{}, err
	}
	if !access.CanReviewIdea(access.Normalize(sess.Role), sess.UserID, idea.ReviewerID) {
		return store.Idea{}, errForbidden()
	}
	if _, ok := reviewDecisions[input.Status]; !ok {
		return store.Idea{}, domainError(http.StatusUnprocessableEntity, "INVALID_STATUS", "Status must be Reviewed, Approved or Rejected", nil)
	}
	if idea.IsLocked {
		return store.Idea{}, errStateLocked()
	}
	if idea.Status != store.StatusPending && idea.Status != store.StatusReviewed {
		return store.Idea{}, domainError(http.StatusConflict, "CONFLICT", "Idea already has a final decision", nil)
	}
	comment := strings.TrimSpace(input.Comment)
	if comment != "" {
		for _, fb := range idea.Feedback {
			if fb.ReviewerID == sess.UserID {
				return store.Idea{}, domainError(http.StatusConflict, "DUPLICATE_FEEDBACK", "You have already left feedback on this idea", nil)
			}
		}
	}

	lock := input.Status == store.StatusApproved || input.Status == store.StatusRejected
	now := time.Now().UTC()
	var feedback *store.FeedbackEntry
	if comment != "" {
		feedback = &store.FeedbackEntry{
			ReviewerID:   sess.UserID,
			ReviewerName: sess.UserName,
			Comment:      comment,
			CreatedAt:    now,
		}
	}
	entry := store.TimelineEntry{
		Status:    input.Status,
		Message:   fmt.Sprintf("Review decision recorded: %s.", input.Status),
		Actor:     sess.UserName,
		CreatedAt: now,
	}
	notification := store.Notification{
		ID:        util.NewID("ntf"),
		Recipient: idea.OwnerID,
		Title:     fmt.Sprintf("Idea %s", input.Status),
		Message:   fmt.Sprintf("Your idea %q is now %s.", idea.Title, input.Status),
		CreatedAt: now,
	}

	changed, err := s.store.ApplyReview(ctx, ideaID, sess.UserID, input.Status, lock, feedback, entry, notification)
	if err != nil {
		return store.Idea{}, fmt.Errorf("apply review: %w", err)
	}
	if !changed {
		return store.Idea{}, s.reviewRejection(ctx, sess, ideaID, comment)
	}
	updated, err := s.store.GetIdea(ctx, ideaID)
	if err != nil {
		return store.Idea{}, err
	}
	if lock {
		s.sendDecisionEmail(updated, input.Status, comment)
	}
	s.indexIdea(updated)
	return updated, nil
}

func (s *Service) reviewRejection(ctx context.Context, sess Session, ideaID, comment string) error {
	idea, err := s.store.GetIdea(ctx, ideaID)
	if errors.Is(err, sql.ErrNoRows) {
		return errNotFound("idea not found")
	}
	if err != nil {
		return err
	}
	if idea.IsLocked {
		return errStateLocked()
	}
	if idea.Status != store.StatusPending && idea.Status != store.StatusReviewed {
		return domainError(http.StatusConflict, "CONFLICT", "Idea already has a final decision", nil)
	}
	if comment != "" {
		for _, fb := range idea.Feedback {
			if fb.ReviewerID == sess.UserID {
				return domainError(http.StatusConflict, "DUPLICATE_FEEDBACK", "You have already left feedback on this idea", nil)
			}
		}
	}
	return domainError(http.StatusConflict, "CONFLICT", "Review was not applied; please retry", nil)
}

func (s *Service) AssignReviewer(ctx context.Context, sess Session, ideaID string, input AssignReviewerInput) (store.Idea, error) {
	if !access.CanAssignReviewer(access.Normalize(sess.Role)) {
		return store.Idea{}, errForbidden()
	}
	reviewer, err := s.store.GetUserByID(ctx, input.ReviewerID)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Idea{}, domainError(http.StatusUnprocessableEntity, "INVALID_REVIEWER", "Reviewer does not exist", nil)
	}
	if err != nil {
		return store.Idea{}, err
	}
	if access.Normalize(reviewer.Role) != access.RoleReviewer || !reviewer.IsActive {
		return store.Idea{}, domainError(http.StatusUnprocessableEntity, "INVALID_REVIEWER", "User is not an active reviewer", nil)
	}
	idea, err := s.store.GetIdea(ctx, ideaID)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Idea{}, errNotFound("idea not found")
	}
	if err != nil {
		return store.Idea{}, err
	}

	// Assignment is an admin action and works in any state, locked
	// included; it touches neither status nor the lock flag.
	entry := store.TimelineEntry{
		Status:    idea.Status,
		Message:   fmt.Sprintf("Reviewer assigned: %s (%s).", reviewer.Name, reviewer.Email),
		Actor:     sess.UserName,
		CreatedAt: time.Now().UTC(),
	}
	changed, err := s.store.AssignReviewer(ctx, ideaID, reviewer.ID, reviewer.Name, entry)
	if err != nil {
		return store.Idea{}, fmt.Errorf("assign reviewer: %w", err)
	}
	if !changed {
		return store.Idea{}, errNotFound("idea not found")
	}
	updated, err := s.store.GetIdea(ctx, ideaID)
	if err != nil {
		return store.Idea{}, err
	}
	s.sendAssignmentEmail(reviewer, updated)
	return updated, nil
}

func (s *Service) SetIdeaLock(ctx context.Context, sess Session, ideaID string, locked bool) (store.Idea, error) {
	if !access.CanToggleLock(access.Normalize(sess.Role)) {
		return store.Idea{}, errForbidden()
	}
	changed, err := s.store.SetIdeaLock(ctx, ideaID, locked)
	if err != nil {
		return store.Idea{}, fmt.Errorf("set idea lock: %w", err)
	}
	if !changed {
		return store.Idea{}, errNotFound("idea not found")
	}
	return s.store.GetIdea(ctx, ideaID)
}

func (s *Service) Notifications(ctx context.Context, sess Session) ([]store.UserNotification, error) {
	return s.store.ListNotifications(ctx, sess.UserID)
}

func (s *Service) MarkNotificationRead(ctx context.Context, sess Session, ideaID, notificationID string) error {
	changed, err := s.store.MarkNotificationRead(ctx, ideaID, notificationID, sess.UserID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if !changed {
		return errNotFound("notification not found")
	}
	return nil
}

func (s *Service) Stats(ctx context.Context, sess Session) (store.Stats, error) {
	if !access.CanViewStats(access.Normalize(sess.Role)) {
		return store.Stats{}, errForbidden()
	}
	return s.store.Stats(ctx)
}

func (s *Service) ListUsers(ctx context.Context, sess Session) ([]store.User, error) {
	if !access.CanManageUsers(access.Normalize(sess.Role)) {
		return nil, errForbidden()
	}
	return s.store.ListUsers(ctx)
}

// ToggleUserActive flips a user's active flag. Administrator accounts
// can never be deactivated, which also protects the caller's own
// account.
func (s *Service) ToggleUserActive(ctx context.Context, sess Session, userID string) (store.User, error) {
	if !access.CanManageUsers(access.Normalize(sess.Role)) {
		return store.User{}, errForbidden()
	}
	target, err := s.store.GetUserByID(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return store.User{}, errNotFound("user not found")
	}
	if err != nil {
		return store.User{}, err
	}
	if access.Normalize(target.Role) == access.RoleAdmin {
		return store.User{}, domainError(http.StatusForbidden, "FORBIDDEN", "Administrators cannot be deactivated", nil)
	}
	if _, err := s.store.ToggleUserActive(ctx, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.User{}, errNotFound("user not found")
		}
		return store.User{}, fmt.Errorf("toggle user: %w", err)
	}
	return s.store.GetUserByID(ctx, userID)
}

// SearchIdeas queries the full-text index. The index spans every
// owner's ideas, so only reviewers and admins may use it.
func (s *Service) SearchIdeas(ctx context.Context, sess Session, q search.Query) (search.Response, error) {
	if !access.CanSearchIdeas(access.Normalize(sess.Role)) {
		return search.Response{}, errForbidden()
	}
	if s.search == nil {
		return search.Response{Results: []search.Result{}}, nil
	}
	return s.search.Search(q), nil
}

func (s *Service) Files() *files.Service {
	return s.files
}

// StoreAttachment validates and persists an uploaded document, local
// disk or object storage depending on configuration.
func (s *Service) StoreAttachment(ctx context.Context, name string, r io.Reader, size int64) (*store.Attachment, error) {
	if s.files == nil {
		return nil, domainError(http.StatusBadGateway, "DEPENDENCY_FAILURE", "File storage is not available", nil)
	}
	if !files.AllowedExtension(name) {
		return nil, errValidation("only pdf, doc and docx attachments are allowed")
	}
	stored, err := s.files.Store(ctx, name, r, size)
	if err != nil {
		log.Printf("store attachment %s: %v", name, err)
		return nil, domainError(http.StatusBadGateway, "DEPENDENCY_FAILURE", "Could not store attachment", nil)
	}
	return &store.Attachment{
		Name:      stored.Name,
		URL:       stored.URL,
		MediaType: stored.MediaType,
	}, nil
}

// highestSimilarity compares an idea's combined title and description
// against every other stored idea and returns the closest match.
func (s *Service) highestSimilarity(ctx context.Context, title, description, excludeID string) (int, error) {
	texts, err := s.store.ListIdeaTexts(ctx)
	if err != nil {
		return 0, fmt.Errorf("list idea texts: %w", err)
	}
	combined := strings.TrimSpace(title + " " + description)
	best := 0
	for _, t := range texts {
		if t.ID == excludeID {
			continue
		}
		if score := scoring.Similarity(combined, t.Title+" "+t.Description); score > best {
			best = score
		}
	}
	return best, nil
}

func (s *Service) indexIdea(idea store.Idea) {
	if s.search == nil {
		return
	}
	s.search.IndexIdea(search.IdeaRecord{
		ID:          idea.ID,
		Title:       idea.Title,
		Description: idea.Description,
		Domain:      idea.Domain,
		Status:      idea.Status,
		OwnerName:   idea.OwnerName,
	})
}

func (s *Service) sendDecisionEmail(idea store.Idea, status, feedback string) {
	if s.email == nil || !s.email.IsConfigured() {
		return
	}
	go func() {
		timeout := s.cfg.EmailTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		owner, err := s.store.GetUserByID(ctx, idea.OwnerID)
		if err != nil {
			log.Printf("decision email: load owner %s: %v", idea.OwnerID, err)
			return
		}
		if err := s.email.SendDecisionEmail(owner.Email, owner.Name, idea.Title, status, feedback); err != nil {
			log.Printf("decision email to %s: %v", owner.Email, err)
		}
	}()
}

func (s *Service) sendAssignmentEmail(reviewer store.User, idea store.Idea) {
	if s.email == nil || !s.email.IsConfigured() {
		return
	}
	go func() {
		if err := s.email.SendAssignmentEmail(reviewer.Email, reviewer.Name, idea.Title, idea.OwnerName); err != nil {
			log.Printf("assignment email to %s: %v", reviewer.Email, err)
		}
	}()
}
