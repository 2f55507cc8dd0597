package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"ideagate/api/internal/access"
	"ideagate/api/internal/bus"
	"ideagate/api/internal/store"
	"ideagate/api/internal/util"
)

type SendMessageInput struct {
	Text       string            `json:"text"`
	Attachment *store.Attachment `json:"attachment"`
}

// OpenConversation returns the single conversation attached to an idea,
// creating it on first use. The idea's submitter, its assigned reviewer
// and admins may open it, and only once a reviewer has been assigned.
func (s *Service) OpenConversation(ctx context.Context, sess Session, ideaID string) (store.Conversation, error) {
	idea, err := s.store.GetIdea(ctx, ideaID)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Conversation{}, errNotFound("idea not found")
	}
	if err != nil {
		return store.Conversation{}, err
	}
	if idea.ReviewerID == "" {
		return store.Conversation{}, domainError(http.StatusConflict, "REVIEWER_NOT_ASSIGNED", "A reviewer must be assigned before a conversation can start", nil)
	}
	if !access.CanOpenConversation(access.Normalize(sess.Role), sess.UserID, idea.OwnerID, idea.ReviewerID) {
		return store.Conversation{}, errForbidden()
	}

	now := time.Now().UTC()
	conv, created, err := s.store.FindOrCreateConversation(ctx, store.Conversation{
		ID:             util.NewID("conv"),
		IdeaID:         idea.ID,
		IdeaTitle:      idea.Title,
		SubmitterID:    idea.OwnerID,
		SubmitterName:  idea.OwnerName,
		ReviewerID:     idea.ReviewerID,
		ReviewerName:   idea.ReviewerName,
		CreatedAt:      now,
		LastActivityAt: now,
	})
	if err != nil {
		return store.Conversation{}, fmt.Errorf("find or create conversation: %w", err)
	}
	if created {
		if err := s.store.SetIdeaConversation(ctx, idea.ID, conv.ID); err != nil {
			return store.Conversation{}, fmt.Errorf("link conversation: %w", err)
		}
	}
	return conv, nil
}

func (s *Service) ListConversations(ctx context.Context, sess Session) ([]store.Conversation, error) {
	return s.store.ListConversationsForUser(ctx, sess.UserID)
}

func (s *Service) ListMessages(ctx context.Context, sess Session, conversationID string) ([]store.Message, error) {
	conv, err := s.conversationForReading(ctx, sess, conversationID)
	if err != nil {
		return nil, err
	}
	messages, err := s.store.ListMessages(ctx, conv.ID)
	if err != nil {
		return nil, err
	}
	for i := range messages {
		redactMessage(&messages[i])
	}
	return messages, nil
}

func (s *Service) SendMessage(ctx context.Context, sess Session, conversationID string, input SendMessageInput) (store.Message, error) {
	conv, err := s.getConversation(ctx, conversationID)
	if err != nil {
		return store.Message{}, err
	}
	if !access.CanReadConversation(access.Normalize(sess.Role), sess.UserID, conv.SubmitterID, conv.ReviewerID) {
		return store.Message{}, errForbidden()
	}
	text := strings.TrimSpace(input.Text)
	if text == "" && input.Attachment == nil {
		return store.Message{}, domainError(http.StatusUnprocessableEntity, "EMPTY_MESSAGE", "A message needs text or an attachment", nil)
	}

	receiver := conv.SubmitterID
	if sess.UserID == conv.SubmitterID {
		receiver = conv.ReviewerID
	}
	msg := store.Message{
		ID:             util.NewID("msg"),
		ConversationID: conv.ID,
		SenderID:       sess.UserID,
		SenderName:     sess.UserName,
		ReceiverID:     receiver,
		Text:           text,
		Attachment:     input.Attachment,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.store.InsertMessage(ctx, msg); err != nil {
		return store.Message{}, fmt.Errorf("insert message: %w", err)
	}
	if err := s.store.TouchConversation(ctx, conv.ID); err != nil {
		return store.Message{}, fmt.Errorf("touch conversation: %w", err)
	}
	s.publishEvent(bus.EventMessageCreated, conv.ID, msg)
	return msg, nil
}

func (s *Service) DeleteMessage(ctx context.Context, sess Session, messageID string) (store.Message, error) {
	msg, err := s.store.GetMessage(ctx, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Message{}, errNotFound("message not found")
	}
	if err != nil {
		return store.Message{}, err
	}
	conv, err := s.getConversation(ctx, msg.ConversationID)
	if err != nil {
		return store.Message{}, err
	}
	role := access.Normalize(sess.Role)
	if !access.CanReadConversation(role, sess.UserID, conv.SubmitterID, conv.ReviewerID) {
		return store.Message{}, errForbidden()
	}
	if !access.CanDeleteMessage(role, sess.UserID, msg.SenderID) {
		return store.Message{}, errForbidden()
	}

	changed, err := s.store.SoftDeleteMessage(ctx, messageID, sess.UserID)
	if err != nil {
		return store.Message{}, fmt.Errorf("delete message: %w", err)
	}
	deleted, err := s.store.GetMessage(ctx, messageID)
	if err != nil {
		return store.Message{}, err
	}
	redactMessage(&deleted)
	// changed is false when the message was already deleted; the
	// earlier lookup proved it exists, so just skip the re-broadcast.
	if changed {
		s.publishEvent(bus.EventMessageDeleted, conv.ID, deleted)
	}
	return deleted, nil
}

// SubscribeConversation attaches a live event channel after checking
// the caller may read the conversation.
func (s *Service) SubscribeConversation(ctx context.Context, sess Session, conversationID string, buffer int) (chan bus.Event, error) {
	if _, err := s.conversationForReading(ctx, sess, conversationID); err != nil {
		return nil, err
	}
	return s.events.Subscribe(conversationID, buffer), nil
}

func (s *Service) UnsubscribeConversation(conversationID string, ch chan bus.Event) {
	s.events.Unsubscribe(conversationID, ch)
}

func (s *Service) conversationForReading(ctx context.Context, sess Session, conversationID string) (store.Conversation, error) {
	conv, err := s.getConversation(ctx, conversationID)
	if err != nil {
		return store.Conversation{}, err
	}
	if !access.CanReadConversation(access.Normalize(sess.Role), sess.UserID, conv.SubmitterID, conv.ReviewerID) {
		return store.Conversation{}, errForbidden()
	}
	return conv, nil
}

func (s *Service) getConversation(ctx context.Context, conversationID string) (store.Conversation, error) {
	conv, err := s.store.GetConversation(ctx, conversationID)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Conversation{}, errNotFound("conversation not found")
	}
	if err != nil {
		return store.Conversation{}, err
	}
	return conv, nil
}

func (s *Service) publishEvent(eventType, conversationID string, msg store.Message) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(bus.Event{
		Type:           eventType,
		ConversationID: conversationID,
		Payload:        msg,
		At:             time.Now().UTC(),
	})
}

// redactMessage blanks the visible content of a deleted message while
// keeping sender and timestamps for the thread's shape.
func redactMessage(msg *store.Message) {
	if !msg.Deleted {
		return
	}
	msg.Text = ""
	msg.Attachment = nil
}
