// Package access holds the authorization rules for the idea pipeline.
// The predicates are pure so handlers and services can share them.
package access

import "strings"

type Role string

const (
	RoleSubmitter Role = "submitter"
	RoleReviewer  Role = "reviewer"
	RoleAdmin     Role = "admin"
)

// Normalize maps a stored or token role to its canonical lowercase form.
// Unknown roles normalize to the empty Role, which denies everything.
func Normalize(role string) Role {
	switch Role(strings.ToLower(role)) {
	case RoleSubmitter, RoleReviewer, RoleAdmin:
		return Role(strings.ToLower(role))
	default:
		return Role("")
	}
}

func CanSubmitIdea(role Role) bool {
	return role == RoleSubmitter
}

func CanListPending(role Role) bool {
	return role == RoleReviewer
}

func CanListAllIdeas(role Role) bool {
	return role == RoleAdmin
}

func CanAssignReviewer(role Role) bool {
	return role == RoleAdmin
}

func CanToggleLock(role Role) bool {
	return role == RoleAdmin
}

func CanManageUsers(role Role) bool {
	return role == RoleAdmin
}

func CanViewStats(role Role) bool {
	return role == RoleAdmin
}

// CanSearchIdeas gates the cross-owner search index. Submitters only
// ever see their own ideas, so the index stays reviewer/admin territory.
func CanSearchIdeas(role Role) bool {
	return role == RoleReviewer || role == RoleAdmin
}

// CanViewIdea allows the owner, the assigned reviewer, and admins.
func CanViewIdea(role Role, userID, ownerID, reviewerID string) bool {
	if role == RoleAdmin {
		return true
	}
	if userID == "" {
		return false
	}
	return userID == ownerID || (reviewerID != "" && userID == reviewerID)
}

// CanEditIdea allows only the submitting owner. Lock state is checked
// separately so callers can report it as a distinct condition.
func CanEditIdea(role Role, userID, ownerID string) bool {
	return role == RoleSubmitter && userID != "" && userID == ownerID
}

// CanAnalyzeIdea allows only the reviewer assigned to the idea.
func CanAnalyzeIdea(role Role, userID, reviewerID string) bool {
	return role == RoleReviewer && userID != "" && userID == reviewerID
}

// CanReviewIdea allows only the reviewer assigned to the idea.
func CanReviewIdea(role Role, userID, reviewerID string) bool {
	return role == RoleReviewer && userID != "" && userID == reviewerID
}

// CanOpenConversation allows the idea owner, the assigned reviewer and
// admins. Whether a reviewer has actually been assigned is a separate
// check.
func CanOpenConversation(role Role, userID, ownerID, reviewerID string) bool {
	if role == RoleAdmin {
		return true
	}
	if userID == "" {
		return false
	}
	return userID == ownerID || (reviewerID != "" && userID == reviewerID)
}

// IsConversationParticipant reports whether the user is one of the two
// sides of a conversation.
func IsConversationParticipant(userID, submitterID, reviewerID string) bool {
	return userID != "" && (userID == submitterID || userID == reviewerID)
}

// CanReadConversation allows participants plus admins for moderation.
func CanReadConversation(role Role, userID, submitterID, reviewerID string) bool {
	if role == RoleAdmin {
		return true
	}
	return IsConversationParticipant(userID, submitterID, reviewerID)
}

// CanDeleteMessage allows admins to remove any message and senders to
// remove their own.
func CanDeleteMessage(role Role, userID, senderID string) bool {
	if role == RoleAdmin {
		return true
	}
	return userID != "" && userID == senderID
}
