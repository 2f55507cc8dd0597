package email

import (
	"strings"
	"testing"
)

func TestServiceIsConfigured(t *testing.T) {
	tests := []struct {
		name     string
		config   Config
		expected bool
	}{
		{
			name:     "empty config",
			config:   Config{},
			expected: false,
		},
		{
			name: "missing host",
			config: Config{
				Port: "587",
				From: "test@example.com",
			},
			expected: false,
		},
		{
			name: "missing port",
			config: Config{
				Host: "smtp.example.com",
				From: "test@example.com",
			},
			expected: false,
		},
		{
			name: "missing from",
			config: Config{
				Host: "smtp.example.com",
				Port: "587",
			},
			expected: false,
		},
		{
			name: "fully configured",
			config: Config{
				Host: "smtp.example.com",
				Port: "587",
				From: "test@example.com",
			},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(tt.config)
			if svc.IsConfigured() != tt.expected {
				t.Errorf("IsConfigured() = %v, want %v", svc.IsConfigured(), tt.expected)
			}
		})
	}
}

func TestRenderDecisionTemplate(t *testing.T) {
	data := DecisionData{
		AppName:   "IdeaGate",
		UserName:  "Test User",
		IdeaTitle: "Smart irrigation",
		Status:    "Approved",
		Feedback:  "Solid plan, well scoped.",
		Approved:  true,
	}

	html, err := renderTemplate(decisionEmailTemplate, data)
	if err != nil {
		t.Fatalf("renderTemplate failed: %v", err)
	}

	if !strings.Contains(html, "IdeaGate") {
		t.Error("template should contain app name")
	}
	if !strings.Contains(html, "Test User") {
		t.Error("template should contain user name")
	}
	if !strings.Contains(html, "Smart irrigation") {
		t.Error("template should contain idea title")
	}
	if !strings.Contains(html, "Congratulations") {
		t.Error("approved decision should congratulate")
	}
	if !strings.Contains(html, "Solid plan, well scoped.") {
		t.Error("template should contain reviewer feedback")
	}
}

func TestRenderDecisionTemplateRejectedWithoutFeedback(t *testing.T) {
	data := DecisionData{
		AppName:   "IdeaGate",
		UserName:  "Test User",
		IdeaTitle: "Smart irrigation",
		Status:    "Rejected",
	}

	html, err := renderTemplate(decisionEmailTemplate, data)
	if err != nil {
		t.Fatalf("renderTemplate failed: %v", err)
	}

	if strings.Contains(html, "Congratulations") {
		t.Error("rejected decision should not congratulate")
	}
	if strings.Contains(html, "Reviewer feedback") {
		t.Error("feedback block should be omitted when empty")
	}
}

func TestRenderAssignmentTemplate(t *testing.T) {
	data := AssignmentData{
		AppName:       "IdeaGate",
		ReviewerName:  "Priya",
		IdeaTitle:     "Smart irrigation",
		SubmitterName: "Test User",
	}

	html, err := renderTemplate(assignmentEmailTemplate, data)
	if err != nil {
		t.Fatalf("renderTemplate failed: %v", err)
	}

	if !strings.Contains(html, "Priya") {
		t.Error("template should contain reviewer name")
	}
	if !strings.Contains(html, "Smart irrigation") {
		t.Error("template should contain idea title")
	}
	if !strings.Contains(html, "Test User") {
		t.Error("template should contain submitter name")
	}
}
