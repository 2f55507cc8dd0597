package access

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want Role
	}{
		{in: "submitter", want: RoleSubmitter},
		{in: "Reviewer", want: RoleReviewer},
		{in: "ADMIN", want: RoleAdmin},
		{in: "moderator", want: Role("")},
		{in: "", want: Role("")},
	}
	for _, tc := range cases {
		if got := Normalize(tc.in); got != tc.want {
			t.Fatalf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRoleGates(t *testing.T) {
	cases := []struct {
		name  string
		check func(Role) bool
		role  Role
		allow bool
	}{
		{name: "submitter submits", check: CanSubmitIdea, role: RoleSubmitter, allow: true},
		{name: "reviewer submits", check: CanSubmitIdea, role: RoleReviewer, allow: false},
		{name: "admin submits", check: CanSubmitIdea, role: RoleAdmin, allow: false},
		{name: "reviewer lists pending", check: CanListPending, role: RoleReviewer, allow: true},
		{name: "submitter lists pending", check: CanListPending, role: RoleSubmitter, allow: false},
		{name: "admin lists pending", check: CanListPending, role: RoleAdmin, allow: false},
		{name: "admin lists all", check: CanListAllIdeas, role: RoleAdmin, allow: true},
		{name: "reviewer lists all", check: CanListAllIdeas, role: RoleReviewer, allow: false},
		{name: "admin assigns", check: CanAssignReviewer, role: RoleAdmin, allow: true},
		{name: "reviewer assigns", check: CanAssignReviewer, role: RoleReviewer, allow: false},
		{name: "admin toggles lock", check: CanToggleLock, role: RoleAdmin, allow: true},
		{name: "admin manages users", check: CanManageUsers, role: RoleAdmin, allow: true},
		{name: "reviewer views stats", check: CanViewStats, role: RoleReviewer, allow: false},
		{name: "reviewer searches", check: CanSearchIdeas, role: RoleReviewer, allow: true},
		{name: "admin searches", check: CanSearchIdeas, role: RoleAdmin, allow: true},
		{name: "submitter searches", check: CanSearchIdeas, role: RoleSubmitter, allow: false},
		{name: "unknown role submits", check: CanSubmitIdea, role: Role(""), allow: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.check(tc.role); got != tc.allow {
				t.Fatalf("check(%q) = %v, want %v", tc.role, got, tc.allow)
			}
		})
	}
}

func TestCanViewIdea(t *testing.T) {
	if !CanViewIdea(RoleSubmitter, "u1", "u1", "") {
		t.Fatal("owner should view own idea")
	}
	if !CanViewIdea(RoleReviewer, "r1", "u1", "r1") {
		t.Fatal("assigned reviewer should view idea")
	}
	if CanViewIdea(RoleReviewer, "r2", "u1", "r1") {
		t.Fatal("unassigned reviewer should not view idea")
	}
	if !CanViewIdea(RoleAdmin, "a1", "u1", "r1") {
		t.Fatal("admin should view any idea")
	}
	if CanViewIdea(RoleSubmitter, "u2", "u1", "") {
		t.Fatal("other submitter should not view idea")
	}
	if CanViewIdea(RoleReviewer, "", "u1", "") {
		t.Fatal("empty user should never match empty reviewer")
	}
}

func TestEditAnalyzeReview(t *testing.T) {
	if !CanEditIdea(RoleSubmitter, "u1", "u1") {
		t.Fatal("owner should edit")
	}
	if CanEditIdea(RoleSubmitter, "u2", "u1") {
		t.Fatal("non-owner should not edit")
	}
	if CanEditIdea(RoleAdmin, "u1", "u1") {
		t.Fatal("edit is a submitter capability only")
	}
	if !CanAnalyzeIdea(RoleReviewer, "r1", "r1") {
		t.Fatal("assigned reviewer should analyze")
	}
	if CanAnalyzeIdea(RoleReviewer, "r1", "") {
		t.Fatal("no reviewer assigned means no analysis")
	}
	if CanReviewIdea(RoleAdmin, "a1", "a1") {
		t.Fatal("review is a reviewer capability only")
	}
}

func TestConversationPredicates(t *testing.T) {
	if !CanOpenConversation(RoleSubmitter, "u1", "u1", "r1") {
		t.Fatal("owner should open conversation")
	}
	if !CanOpenConversation(RoleReviewer, "r1", "u1", "r1") {
		t.Fatal("assigned reviewer should open conversation")
	}
	if !CanOpenConversation(RoleAdmin, "a1", "u1", "r1") {
		t.Fatal("admin should open any conversation")
	}
	if CanOpenConversation(RoleSubmitter, "u2", "u1", "r1") {
		t.Fatal("outsider should not open conversation")
	}
	if CanOpenConversation(RoleSubmitter, "u1", "u2", "") {
		t.Fatal("non-participant with no reviewer should not open")
	}
	if !CanReadConversation(RoleAdmin, "a1", "u1", "r1") {
		t.Fatal("admin should read any conversation")
	}
	if CanReadConversation(RoleReviewer, "r2", "u1", "r1") {
		t.Fatal("other reviewer should not read conversation")
	}
	if !CanDeleteMessage(RoleSubmitter, "u1", "u1") {
		t.Fatal("sender should delete own message")
	}
	if CanDeleteMessage(RoleReviewer, "r1", "u1") {
		t.Fatal("non-sender should not delete message")
	}
	if !CanDeleteMessage(RoleAdmin, "a1", "u1") {
		t.Fatal("admin should delete any message")
	}
}
