package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) GetUserByID(ctx context.Context, userID string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, role, is_active, created_at, updated_at
		FROM users
		WHERE id=$1
	`, userID).Scan(&user.ID, &user.Name, &user.Email, &user.Role, &user.IsActive, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, role, is_active, created_at, updated_at
		FROM users
		WHERE lower(email)=lower($1)
	`, email).Scan(&user.ID, &user.Name, &user.Email, &user.Role, &user.IsActive, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *PostgresStore) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, role, is_active, created_at, updated_at
		FROM users
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	items := make([]User, 0)
	for rows.Next() {
		var user User
		if err := rows.Scan(&user.ID, &user.Name, &user.Email, &user.Role, &user.IsActive, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		items = append(items, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) CountUsers(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) InsertUser(ctx context.Context, user User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, role, is_active)
		VALUES ($1, $2, $3, $4, $5)
	`, user.ID, user.Name, user.Email, user.Role, user.IsActive)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// ToggleUserActive flips the active flag and returns the new value.
func (s *PostgresStore) ToggleUserActive(ctx context.Context, userID string) (bool, error) {
	var active bool
	err := s.db.QueryRowContext(ctx, `
		UPDATE users
		SET is_active = NOT is_active, updated_at=NOW()
		WHERE id=$1
		RETURNING is_active
	`, userID).Scan(&active)
	if err != nil {
		return false, err
	}
	return active, nil
}

const ideaColumns = `
	id, title, domain, kind, description, owner_id, owner_name, status, is_locked,
	feasibility, similarity, plagiarism_suspect, reviewer_id, reviewer_name,
	conversation_id, attachment, timeline, notifications, feedback,
	scores_history, created_at, updated_at
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIdea(sc rowScanner) (Idea, error) {
	var item Idea
	var attachmentRaw []byte
	var timelineRaw, notificationsRaw, feedbackRaw, scoresRaw []byte
	err := sc.Scan(
		&item.ID,
		&item.Title,
		&item.Domain,
		&item.Kind,
		&item.Description,
		&item.OwnerID,
		&item.OwnerName,
		&item.Status,
		&item.IsLocked,
		&item.Feasibility,
		&item.Similarity,
		&item.PlagiarismSuspect,
		&item.ReviewerID,
		&item.ReviewerName,
		&item.ConversationID,
		&attachmentRaw,
		&timelineRaw,
		&notificationsRaw,
		&feedbackRaw,
		&scoresRaw,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return Idea{}, err
	}
	if len(attachmentRaw) > 0 {
		var attachment Attachment
		if err := json.Unmarshal(attachmentRaw, &attachment); err == nil {
			item.Attachment = &attachment
		}
	}
	item.Timeline = make([]TimelineEntry, 0)
	item.Notifications = make([]Notification, 0)
	item.Feedback = make([]FeedbackEntry, 0)
	item.ScoresHistory = make([]ScoreSnapshot, 0)
	_ = json.Unmarshal(timelineRaw, &item.Timeline)
	_ = json.Unmarshal(notificationsRaw, &item.Notifications)
	_ = json.Unmarshal(feedbackRaw, &item.Feedback)
	_ = json.Unmarshal(scoresRaw, &item.ScoresHistory)
	return item, nil
}

func (s *PostgresStore) InsertIdea(ctx context.Context, item Idea) error {
	attachment, err := marshalAttachment(item.Attachment)
	if err != nil {
		return err
	}
	timeline, err := json.Marshal(item.Timeline)
	if err != nil {
		return fmt.Errorf("marshal timeline: %w", err)
	}
	scores, err := json.Marshal(item.ScoresHistory)
	if err != nil {
		return fmt.Errorf("marshal scores history: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO ideas (
			id, title, domain, kind, description, owner_id, owner_name, status,
			feasibility, similarity, plagiarism_suspect, attachment,
			timeline, scores_history
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12::jsonb, $13::jsonb, $14::jsonb)
	`, item.ID, item.Title, item.Domain, item.Kind, item.Description, item.OwnerID, item.OwnerName,
		item.Status, item.Feasibility, item.Similarity, item.PlagiarismSuspect,
		attachment, string(timeline), string(scores))
	if err != nil {
		return fmt.Errorf("insert idea: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetIdea(ctx context.Context, ideaID string) (Idea, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+ideaColumns+` FROM ideas WHERE id=$1`, ideaID)
	return scanIdea(row)
}

func (s *PostgresStore) ListIdeasByOwner(ctx context.Context, ownerID string) ([]Idea, error) {
	return s.listIdeas(ctx, `SELECT `+ideaColumns+` FROM ideas WHERE owner_id=$1 ORDER BY created_at DESC`, ownerID)
}

func (s *PostgresStore) ListIdeasByStatus(ctx context.Context, status string) ([]Idea, error) {
	return s.listIdeas(ctx, `SELECT `+ideaColumns+` FROM ideas WHERE status=$1 ORDER BY created_at DESC`, status)
}

// ListIdeasForReviewer returns the ideas assigned to a reviewer.
func (s *PostgresStore) ListIdeasForReviewer(ctx context.Context, reviewerID string) ([]Idea, error) {
	return s.listIdeas(ctx, `SELECT `+ideaColumns+` FROM ideas WHERE reviewer_id=$1 ORDER BY created_at DESC`, reviewerID)
}

func (s *PostgresStore) ListIdeas(ctx context.Context) ([]Idea, error) {
	return s.listIdeas(ctx, `SELECT `+ideaColumns+` FROM ideas ORDER BY created_at DESC`)
}

func (s *PostgresStore) listIdeas(ctx context.Context, query string, args ...any) ([]Idea, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list ideas: %w", err)
	}
	defer rows.Close()

	items := make([]Idea, 0)
	for rows.Next() {
		item, err := scanIdea(rows)
		if err != nil {
			return nil, fmt.Errorf("scan idea: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ideas: %w", err)
	}
	return items, nil
}

// ListIdeaTexts returns the projection used for pairwise similarity at
// submission time.
func (s *PostgresStore) ListIdeaTexts(ctx context.Context) ([]IdeaText, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, title, description FROM ideas`)
	if err != nil {
		return nil, fmt.Errorf("list idea texts: %w", err)
	}
	defer rows.Close()

	items := make([]IdeaText, 0)
	for rows.Next() {
		var item IdeaText
		if err := rows.Scan(&item.ID, &item.Title, &item.Description); err != nil {
			return nil, fmt.Errorf("scan idea text: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate idea texts: %w", err)
	}
	return items, nil
}

// UpdateIdeaContent rewrites the editable fields. The update is guarded
// so a locked or already-decided idea is never touched; callers map a
// false return to the precise failure.
func (s *PostgresStore) UpdateIdeaContent(ctx context.Context, ideaID, ownerID, title, domain, description string, attachment *Attachment) (bool, error) {
	encoded, err := marshalAttachment(attachment)
	if err != nil {
		return false, err
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE ideas
		SET title=$3, domain=$4, description=$5,
			attachment = CASE WHEN $6::jsonb IS NULL THEN attachment ELSE $6::jsonb END,
			kind = CASE WHEN $6::jsonb IS NULL THEN kind ELSE 'file' END,
			updated_at=NOW()
		WHERE id=$1 AND owner_id=$2 AND NOT is_locked AND status='Pending'
	`, ideaID, ownerID, title, domain, description, encoded)
	if err != nil {
		return false, fmt.Errorf("update idea content: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update idea content rows: %w", err)
	}
	return affected > 0, nil
}

// SaveAnalysis overwrites the score fields, snapshots them into the
// score history and appends a timeline entry, all in one guarded write.
func (s *PostgresStore) SaveAnalysis(ctx context.Context, ideaID, reviewerID string, feasibility, similarity int, plagiarism bool, snapshot ScoreSnapshot, entry TimelineEntry) (bool, error) {
	snapshotJSON, err := json.Marshal(snapshot)
	if err != nil {
		return false, fmt.Errorf("marshal score snapshot: %w", err)
	}
	entryJSON, err := json.Marshal(entry)
	if err != nil {
		return false, fmt.Errorf("marshal timeline entry: %w", err)
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE ideas
		SET feasibility=$3, similarity=$4, plagiarism_suspect=$5,
			scores_history = scores_history || $6::jsonb,
			timeline = timeline || $7::jsonb,
			updated_at=NOW()
		WHERE id=$1 AND reviewer_id=$2 AND NOT is_locked AND status='Pending'
	`, ideaID, reviewerID, feasibility, similarity, plagiarism, string(snapshotJSON), string(entryJSON))
	if err != nil {
		return false, fmt.Errorf("save analysis: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("save analysis rows: %w", err)
	}
	return affected > 0, nil
}

// ApplyReview performs the status transition in a single guarded write.
// The row is only updated when the idea is unlocked, still in a
// reviewable status, assigned to this reviewer, and the reviewer has not
// left feedback before. A false return means one of the guards failed;
// the caller re-reads the row to report which.
func (s *PostgresStore) ApplyReview(ctx context.Context, ideaID, reviewerID, status string, lock bool, feedback *FeedbackEntry, entry TimelineEntry, notification Notification) (bool, error) {
	var feedbackJSON any
	if feedback != nil {
		encoded, err := json.Marshal(feedback)
		if err != nil {
			return false, fmt.Errorf("marshal feedback: %w", err)
		}
		feedbackJSON = string(encoded)
	}
	entryJSON, err := json.Marshal(entry)
	if err != nil {
		return false, fmt.Errorf("marshal timeline entry: %w", err)
	}
	notificationJSON, err := json.Marshal(notification)
	if err != nil {
		return false, fmt.Errorf("marshal notification: %w", err)
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE ideas
		SET status=$3,
			is_locked = is_locked OR $4,
			feedback = CASE WHEN $5::jsonb IS NULL THEN feedback ELSE feedback || $5::jsonb END,
			timeline = timeline || $6::jsonb,
			notifications = notifications || $7::jsonb,
			updated_at=NOW()
		WHERE id=$1 AND reviewer_id=$2
			AND NOT is_locked
			AND status IN ('Pending', 'Reviewed')
			AND ($5::jsonb IS NULL OR NOT EXISTS (
				SELECT 1 FROM jsonb_array_elements(feedback) AS fb
				WHERE fb->>'reviewerId' = $2
			))
	`, ideaID, reviewerID, status, lock, feedbackJSON, string(entryJSON), string(notificationJSON))
	if err != nil {
		return false, fmt.Errorf("apply review: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("apply review rows: %w", err)
	}
	return affected > 0, nil
}

// AssignReviewer is an admin action and ignores the lock flag.
func (s *PostgresStore) AssignReviewer(ctx context.Context, ideaID, reviewerID, reviewerName string, entry TimelineEntry) (bool, error) {
	entryJSON, err := json.Marshal(entry)
	if err != nil {
		return false, fmt.Errorf("marshal timeline entry: %w", err)
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE ideas
		SET reviewer_id=$2, reviewer_name=$3,
			timeline = timeline || $4::jsonb,
			updated_at=NOW()
		WHERE id=$1
	`, ideaID, reviewerID, reviewerName, string(entryJSON))
	if err != nil {
		return false, fmt.Errorf("assign reviewer: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("assign reviewer rows: %w", err)
	}
	return affected > 0, nil
}

// SetIdeaLock is the explicit admin override, independent of status.
func (s *PostgresStore) SetIdeaLock(ctx context.Context, ideaID string, locked bool) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE ideas SET is_locked=$2, updated_at=NOW() WHERE id=$1
	`, ideaID, locked)
	if err != nil {
		return false, fmt.Errorf("set idea lock: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("set idea lock rows: %w", err)
	}
	return affected > 0, nil
}

func (s *PostgresStore) SetIdeaConversation(ctx context.Context, ideaID, conversationID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE ideas SET conversation_id=$2, updated_at=NOW() WHERE id=$1 AND conversation_id=''
	`, ideaID, conversationID)
	if err != nil {
		return fmt.Errorf("set idea conversation: %w", err)
	}
	return nil
}

// UserNotification is a notification joined with the idea it lives on.
type UserNotification struct {
	IdeaID    string `json:"ideaId"`
	IdeaTitle string `json:"ideaTitle"`
	Notification
}

func (s *PostgresStore) ListNotifications(ctx context.Context, userID string) ([]UserNotification, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT i.id, i.title, n.value
		FROM ideas i, jsonb_array_elements(i.notifications) AS n
		WHERE n.value->>'recipient' = $1
		ORDER BY (n.value->>'createdAt')::timestamptz DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	items := make([]UserNotification, 0)
	for rows.Next() {
		var item UserNotification
		var raw []byte
		if err := rows.Scan(&item.IdeaID, &item.IdeaTitle, &raw); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		if err := json.Unmarshal(raw, &item.Notification); err != nil {
			return nil, fmt.Errorf("decode notification: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}
	return items, nil
}

// MarkNotificationRead rebuilds the notifications list with the target
// entry flagged read, preserving order. Only the recipient can flip it.
func (s *PostgresStore) MarkNotificationRead(ctx context.Context, ideaID, notificationID, userID string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE ideas
		SET notifications = (
			SELECT COALESCE(jsonb_agg(
				CASE WHEN n.value->>'id' = $2 AND n.value->>'recipient' = $3
					THEN jsonb_set(n.value, '{read}', 'true'::jsonb)
					ELSE n.value
				END
				ORDER BY n.ordinality), '[]'::jsonb)
			FROM jsonb_array_elements(notifications) WITH ORDINALITY AS n(value, ordinality)
		), updated_at=NOW()
		WHERE id=$1 AND EXISTS (
			SELECT 1 FROM jsonb_array_elements(notifications) AS m
			WHERE m.value->>'id' = $2 AND m.value->>'recipient' = $3
		)
	`, ideaID, notificationID, userID)
	if err != nil {
		return false, fmt.Errorf("mark notification read: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark notification read rows: %w", err)
	}
	return affected > 0, nil
}

func (s *PostgresStore) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM users WHERE is_active),
			(SELECT COUNT(*) FROM users WHERE NOT is_active),
			(SELECT COUNT(*) FROM users WHERE role='reviewer'),
			(SELECT COUNT(*) FROM ideas),
			(SELECT COUNT(*) FROM ideas WHERE status='Pending'),
			(SELECT COUNT(*) FROM ideas WHERE status='Reviewed'),
			(SELECT COUNT(*) FROM ideas WHERE status='Approved'),
			(SELECT COUNT(*) FROM ideas WHERE status='Rejected'),
			(SELECT COUNT(*) FROM ideas WHERE plagiarism_suspect),
			(SELECT COUNT(*) FROM messages),
			(SELECT COUNT(*) FROM conversations)
	`).Scan(
		&stats.TotalUsers,
		&stats.ActiveUsers,
		&stats.InactiveUsers,
		&stats.TotalReviewers,
		&stats.TotalIdeas,
		&stats.PendingIdeas,
		&stats.ReviewedIdeas,
		&stats.ApprovedIdeas,
		&stats.RejectedIdeas,
		&stats.FlaggedIdeas,
		&stats.TotalMessages,
		&stats.OpenChats,
	)
	if err != nil {
		return Stats{}, fmt.Errorf("read stats: %w", err)
	}
	return stats, nil
}

// FindOrCreateConversation inserts the conversation for an idea or, if
// another request won the race, returns the existing one. The unique
// index on idea_id makes concurrent first-access safe.
func (s *PostgresStore) FindOrCreateConversation(ctx context.Context, conv Conversation) (Conversation, bool, error) {
	const insert = `
		INSERT INTO conversations (id, idea_id, idea_title, submitter_id, submitter_name, reviewer_id, reviewer_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (idea_id) DO NOTHING
		RETURNING id, idea_id, idea_title, submitter_id, submitter_name, reviewer_id, reviewer_name, created_at, last_activity_at
	`
	var created Conversation
	err := s.db.QueryRowContext(ctx, insert,
		conv.ID, conv.IdeaID, conv.IdeaTitle, conv.SubmitterID, conv.SubmitterName,
		conv.ReviewerID, conv.ReviewerName,
	).Scan(
		&created.ID, &created.IdeaID, &created.IdeaTitle,
		&created.SubmitterID, &created.SubmitterName,
		&created.ReviewerID, &created.ReviewerName,
		&created.CreatedAt, &created.LastActivityAt,
	)
	if err == nil {
		return created, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Conversation{}, false, fmt.Errorf("create conversation: %w", err)
	}

	existing, err := s.GetConversationByIdea(ctx, conv.IdeaID)
	if err != nil {
		return Conversation{}, false, fmt.Errorf("load existing conversation: %w", err)
	}
	return existing, false, nil
}

func (s *PostgresStore) GetConversation(ctx context.Context, conversationID string) (Conversation, error) {
	return s.getConversation(ctx, `WHERE id=$1`, conversationID)
}

func (s *PostgresStore) GetConversationByIdea(ctx context.Context, ideaID string) (Conversation, error) {
	return s.getConversation(ctx, `WHERE idea_id=$1`, ideaID)
}

func (s *PostgresStore) getConversation(ctx context.Context, where string, arg string) (Conversation, error) {
	var conv Conversation
	err := s.db.QueryRowContext(ctx, `
		SELECT id, idea_id, idea_title, submitter_id, submitter_name, reviewer_id, reviewer_name, created_at, last_activity_at
		FROM conversations `+where, arg).Scan(
		&conv.ID, &conv.IdeaID, &conv.IdeaTitle,
		&conv.SubmitterID, &conv.SubmitterName,
		&conv.ReviewerID, &conv.ReviewerName,
		&conv.CreatedAt, &conv.LastActivityAt,
	)
	if err != nil {
		return Conversation{}, err
	}
	return conv, nil
}

func (s *PostgresStore) ListConversationsForUser(ctx context.Context, userID string) ([]Conversation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, idea_id, idea_title, submitter_id, submitter_name, reviewer_id, reviewer_name, created_at, last_activity_at
		FROM conversations
		WHERE submitter_id=$1 OR reviewer_id=$1
		ORDER BY last_activity_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	items := make([]Conversation, 0)
	for rows.Next() {
		var conv Conversation
		if err := rows.Scan(
			&conv.ID, &conv.IdeaID, &conv.IdeaTitle,
			&conv.SubmitterID, &conv.SubmitterName,
			&conv.ReviewerID, &conv.ReviewerName,
			&conv.CreatedAt, &conv.LastActivityAt,
		); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		items = append(items, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conversations: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) TouchConversation(ctx context.Context, conversationID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE conversations SET last_activity_at=NOW() WHERE id=$1
	`, conversationID)
	if err != nil {
		return fmt.Errorf("touch conversation: %w", err)
	}
	return nil
}

func (s *PostgresStore) InsertMessage(ctx context.Context, msg Message) error {
	attachment, err := marshalAttachment(msg.Attachment)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO messages (id, conversation_id, sender_id, sender_name, receiver_id, body, attachment)
		VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb)
	`, msg.ID, msg.ConversationID, msg.SenderID, msg.SenderName, msg.ReceiverID, msg.Text, attachment)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListMessages(ctx context.Context, conversationID string) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, conversation_id, sender_id, sender_name, receiver_id, body, attachment, is_deleted, deleted_at, deleted_by, created_at
		FROM messages
		WHERE conversation_id=$1
		ORDER BY created_at ASC
	`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	items := make([]Message, 0)
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		items = append(items, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetMessage(ctx context.Context, messageID string) (Message, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, conversation_id, sender_id, sender_name, receiver_id, body, attachment, is_deleted, deleted_at, deleted_by, created_at
		FROM messages
		WHERE id=$1
	`, messageID)
	return scanMessage(row)
}

func scanMessage(sc rowScanner) (Message, error) {
	var msg Message
	var attachmentRaw []byte
	var deletedBy sql.NullString
	err := sc.Scan(
		&msg.ID, &msg.ConversationID, &msg.SenderID, &msg.SenderName, &msg.ReceiverID,
		&msg.Text, &attachmentRaw, &msg.Deleted, &msg.DeletedAt, &deletedBy, &msg.CreatedAt,
	)
	if err != nil {
		return Message{}, err
	}
	if len(attachmentRaw) > 0 {
		var attachment Attachment
		if err := json.Unmarshal(attachmentRaw, &attachment); err == nil {
			msg.Attachment = &attachment
		}
	}
	msg.DeletedBy = deletedBy.String
	return msg, nil
}

// SoftDeleteMessage marks the message deleted. The text stays in the
// row for moderation; reads redact it.
func (s *PostgresStore) SoftDeleteMessage(ctx context.Context, messageID, deletedBy string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE messages
		SET is_deleted=TRUE, deleted_at=NOW(), deleted_by=$2
		WHERE id=$1 AND NOT is_deleted
	`, messageID, deletedBy)
	if err != nil {
		return false, fmt.Errorf("soft delete message: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("soft delete message rows: %w", err)
	}
	return affected > 0, nil
}

func marshalAttachment(attachment *Attachment) (any, error) {
	if attachment == nil {
		return nil, nil
	}
	encoded, err := json.Marshal(attachment)
	if err != nil {
		return nil, fmt.Errorf("marshal attachment: %w", err)
	}
	return string(encoded), nil
}
