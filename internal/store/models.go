package store

import "time"

// Idea lifecycle states. Approved and Rejected are final and always
// coincide with a locked record.
const (
	StatusPending  = "Pending"
	StatusReviewed = "Reviewed"
	StatusApproved = "Approved"
	StatusRejected = "Rejected"
)

// Submission kinds. A file submission carries an attachment instead of
// a description; uploading an attachment later flips a text idea to
// file.
const (
	KindText = "text"
	KindFile = "file"
)

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TimelineEntry is one append-only progress record on an idea.
type TimelineEntry struct {
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Actor     string    `json:"actor,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Notification is an in-app notice addressed to a single user, stored
// inline on the idea that produced it.
type Notification struct {
	ID        string    `json:"id"`
	Recipient string    `json:"recipient"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

// FeedbackEntry records a reviewer's comment. At most one entry per
// reviewer per idea.
type FeedbackEntry struct {
	ReviewerID   string    `json:"reviewerId"`
	ReviewerName string    `json:"reviewerName"`
	Comment      string    `json:"comment"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ScoreSnapshot preserves the score pair at a point in time.
type ScoreSnapshot struct {
	Feasibility int       `json:"feasibility"`
	Similarity  int       `json:"similarity"`
	RecordedAt  time.Time `json:"recordedAt"`
}

// Attachment is a stored file reference recorded verbatim as returned
// by the file-storage collaborator.
type Attachment struct {
	Name      string `json:"name"`
	URL       string `json:"url"`
	MediaType string `json:"mediaType"`
}

// Idea is the aggregate root. The timeline, notifications, feedback and
// score history live inline as ordered JSONB lists and are mutated only
// through guarded single-row updates.
type Idea struct {
	ID                string          `json:"id"`
	Title             string          `json:"title"`
	Domain            string          `json:"domain"`
	Kind              string          `json:"submissionType"`
	Description       string          `json:"description"`
	OwnerID           string          `json:"ownerId"`
	OwnerName         string          `json:"ownerName"`
	Status            string          `json:"status"`
	IsLocked          bool            `json:"isLocked"`
	Feasibility       int             `json:"feasibilityScore"`
	Similarity        int             `json:"similarityScore"`
	PlagiarismSuspect bool            `json:"plagiarismSuspect"`
	ReviewerID        string          `json:"reviewerId,omitempty"`
	ReviewerName      string          `json:"reviewerName,omitempty"`
	ConversationID    string          `json:"conversationId,omitempty"`
	Attachment        *Attachment     `json:"attachment,omitempty"`
	Timeline          []TimelineEntry `json:"timeline"`
	Notifications     []Notification  `json:"notifications"`
	Feedback          []FeedbackEntry `json:"feedback"`
	ScoresHistory     []ScoreSnapshot `json:"scoresHistory"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// IdeaText is the minimal projection used for pairwise similarity.
type IdeaText struct {
	ID          string
	Title       string
	Description string
}

type Conversation struct {
	ID             string    `json:"id"`
	IdeaID         string    `json:"ideaId"`
	IdeaTitle      string    `json:"ideaTitle"`
	SubmitterID    string    `json:"submitterId"`
	SubmitterName  string    `json:"submitterName"`
	ReviewerID     string    `json:"reviewerId"`
	ReviewerName   string    `json:"reviewerName"`
	CreatedAt      time.Time `json:"createdAt"`
	LastActivityAt time.Time `json:"lastActivityAt"`
}

type Message struct {
	ID             string      `json:"id"`
	ConversationID string      `json:"conversationId"`
	SenderID       string      `json:"senderId"`
	SenderName     string      `json:"senderName"`
	ReceiverID     string      `json:"receiverId"`
	Text           string      `json:"text"`
	Attachment     *Attachment `json:"attachment,omitempty"`
	Deleted        bool        `json:"deleted"`
	DeletedAt      *time.Time  `json:"deletedAt,omitempty"`
	DeletedBy      string      `json:"deletedBy,omitempty"`
	CreatedAt      time.Time   `json:"createdAt"`
}

// Stats is the admin dashboard aggregate.
type Stats struct {
	TotalUsers     int `json:"totalUsers"`
	TotalIdeas     int `json:"totalIdeas"`
	PendingIdeas   int `json:"pendingIdeas"`
	ReviewedIdeas  int `json:"reviewedIdeas"`
	ApprovedIdeas  int `json:"approvedIdeas"`
	RejectedIdeas  int `json:"rejectedIdeas"`
	FlaggedIdeas   int `json:"flaggedIdeas"`
	TotalMessages  int `json:"totalMessages"`
	OpenChats      int `json:"openChats"`
	ActiveUsers    int `json:"activeUsers"`
	InactiveUsers  int `json:"inactiveUsers"`
	TotalReviewers int `json:"totalReviewers"`
}
