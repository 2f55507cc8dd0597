package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"ideagate/api/internal/files"
	"ideagate/api/internal/store"
)

func newTestServer(t *testing.T, fs *fakeStore) (*Service, http.Handler) {
	t.Helper()
	service := newTestService(fs)
	server := NewHTTPServer(service, "http://localhost:5173")
	return service, server.Handler()
}

func tokenFor(t *testing.T, service *Service, user store.User) string {
	t.Helper()
	session, err := service.issueSession(user)
	if err != nil {
		t.Fatalf("issue session: %v", err)
	}
	return session.Token
}

func activeUser(id, name, role string) store.User {
	return store.User{ID: id, Name: name, Email: strings.ToLower(name) + "@ideagate.dev", Role: role, IsActive: true}
}

// userDirectory wires GetUserByID so issued tokens resolve to sessions.
func userDirectory(users ...store.User) func(context.Context, string) (store.User, error) {
	return func(_ context.Context, userID string) (store.User, error) {
		for _, user := range users {
			if user.ID == userID {
				return user, nil
			}
		}
		return store.User{}, errors.New("no such user")
	}
}

func TestHealthEndpoint(t *testing.T) {
	_, handler := newTestServer(t, &fakeStore{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatalf("missing request id header")
	}
}

func TestReadyEndpointReportsDatabaseFailure(t *testing.T) {
	fs := &fakeStore{
		countUsersFn: func(context.Context) (int, error) { return 0, errors.New("connection refused") },
	}
	_, handler := newTestServer(t, fs)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ready", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if payload["status"] != "not_ready" {
		t.Fatalf("expected not_ready, got %v", payload["status"])
	}
}

func TestProtectedRouteWithoutBearerReturnsUnauthorized(t *testing.T) {
	_, handler := newTestServer(t, &fakeStore{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ideas", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestProtectedRouteWithGarbageBearerReturnsUnauthorized(t *testing.T) {
	_, handler := newTestServer(t, &fakeStore{})

	req := httptest.NewRequest(http.MethodGet, "/api/ideas", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestSessionLoginReturnsContract(t *testing.T) {
	user := activeUser("usr_sub", "lena", "submitter")
	fs := &fakeStore{
		getUserByEmailFn: func(context.Context, string) (store.User, error) { return user, nil },
	}
	_, handler := newTestServer(t, fs)

	body := bytes.NewBufferString(`{"email":"lena@ideagate.dev"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/session/login", body)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	for _, key := range []string{"token", "userId", "userName", "role", "expiresAt"} {
		if _, ok := payload[key]; !ok {
			t.Fatalf("login payload missing %q: %v", key, payload)
		}
	}
}

func TestSessionEndpointWithoutTokenIsAnonymous(t *testing.T) {
	_, handler := newTestServer(t, &fakeStore{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/session", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if payload["authenticated"] != false {
		t.Fatalf("expected anonymous session, got %v", payload)
	}
}

func TestSubmitterCannotReachAdminOrReviewerRoutes(t *testing.T) {
	submitter := activeUser("usr_sub", "lena", "submitter")
	fs := &fakeStore{getUserByIDFn: userDirectory(submitter)}
	service, handler := newTestServer(t, fs)
	token := tokenFor(t, service, submitter)

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/admin/stats"},
		{http.MethodGet, "/api/admin/users"},
		{http.MethodGet, "/api/ideas/all"},
		{http.MethodGet, "/api/ideas/assigned"},
	}
	for _, route := range routes {
		req := httptest.NewRequest(route.method, route.path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("%s %s: expected 403, got %d", route.method, route.path, rec.Code)
		}
	}
}

func TestSubmitIdeaEndpointCreates(t *testing.T) {
	submitter := activeUser("usr_sub", "lena", "submitter")
	fs := &fakeStore{getUserByIDFn: userDirectory(submitter)}
	service, handler := newTestServer(t, fs)
	token := tokenFor(t, service, submitter)

	body := bytes.NewBufferString(`{"title":"Crop Health Monitor","domain":"Machine Learning","description":"A drone platform that uses machine learning and a public kaggle dataset to detect crop disease early."}`)
	req := httptest.NewRequest(http.MethodPost, "/api/ideas", body)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if payload["status"] != store.StatusPending {
		t.Fatalf("expected Pending idea, got %v", payload["status"])
	}
	if _, ok := payload["feasibilityScore"]; !ok {
		t.Fatalf("payload missing feasibilityScore: %v", payload)
	}
}

func TestSubmitIdeaMultipartStoresAttachment(t *testing.T) {
	submitter := activeUser("usr_sub", "lena", "submitter")
	fs := &fakeStore{getUserByIDFn: userDirectory(submitter)}

	filesService, err := files.NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("local files service: %v", err)
	}
	service := newTestService(fs)
	service.files = filesService
	handler := NewHTTPServer(service, "http://localhost:5173").Handler()
	token := tokenFor(t, service, submitter)

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	_ = form.WriteField("title", "Crop Health Monitor")
	_ = form.WriteField("domain", "Machine Learning")
	_ = form.WriteField("description", "A drone platform that uses machine learning and a public kaggle dataset to detect crop disease early.")
	part, err := form.CreateFormFile("attachment", "proposal.pdf")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte("%PDF-1.4 test")); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	_ = form.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/ideas", &buf)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", form.FormDataContentType())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var payload struct {
		Kind       string            `json:"submissionType"`
		Attachment *store.Attachment `json:"attachment"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if payload.Kind != store.KindFile {
		t.Fatalf("expected file submission kind, got %q", payload.Kind)
	}
	if payload.Attachment == nil {
		t.Fatalf("expected stored attachment in response")
	}
	if payload.Attachment.Name != "proposal.pdf" || !strings.HasPrefix(payload.Attachment.URL, "/uploads/") {
		t.Fatalf("unexpected attachment reference: %+v", payload.Attachment)
	}
}

func TestSubmitIdeaMultipartRejectsDisallowedExtension(t *testing.T) {
	submitter := activeUser("usr_sub", "lena", "submitter")
	fs := &fakeStore{getUserByIDFn: userDirectory(submitter)}

	filesService, err := files.NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("local files service: %v", err)
	}
	service := newTestService(fs)
	service.files = filesService
	handler := NewHTTPServer(service, "http://localhost:5173").Handler()
	token := tokenFor(t, service, submitter)

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	_ = form.WriteField("title", "t")
	_ = form.WriteField("domain", "d")
	_ = form.WriteField("description", "desc")
	part, _ := form.CreateFormFile("attachment", "malware.exe")
	_, _ = part.Write([]byte("MZ"))
	_ = form.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/ideas", &buf)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", form.FormDataContentType())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestUnknownRouteReturnsNotFound(t *testing.T) {
	submitter := activeUser("usr_sub", "lena", "submitter")
	fs := &fakeStore{getUserByIDFn: userDirectory(submitter)}
	service, handler := newTestServer(t, fs)
	token := tokenFor(t, service, submitter)

	req := httptest.NewRequest(http.MethodGet, "/api/nope", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestConversationStreamDeliversLiveEvents(t *testing.T) {
	submitter := activeUser("usr_sub", "lena", "submitter")
	reviewer := activeUser("usr_rev", "priya", "reviewer")
	fs := &fakeStore{
		getUserByIDFn: userDirectory(submitter, reviewer),
		getConversationFn: func(context.Context, string) (store.Conversation, error) {
			return store.Conversation{
				ID:          "conv_1",
				IdeaID:      "idea_1",
				SubmitterID: "usr_sub",
				ReviewerID:  "usr_rev",
			}, nil
		},
	}
	service, handler := newTestServer(t, fs)
	token := tokenFor(t, service, reviewer)

	ts := httptest.NewServer(handler)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	conn, _, err := websocket.Dial(ctx, fmt.Sprintf("%s/api/conversations/conv_1/stream", ts.URL), &websocket.DialOptions{
		HTTPHeader: header,
	})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	var ready map[string]any
	if err := wsjson.Read(ctx, conn, &ready); err != nil {
		t.Fatalf("read ready frame: %v", err)
	}
	if ready["type"] != "ready" || ready["conversationId"] != "conv_1" {
		t.Fatalf("unexpected ready frame: %v", ready)
	}

	sent, err := service.SendMessage(ctx, Session{UserID: "usr_sub", UserName: "Lena Fischer", Role: "submitter"}, "conv_1", SendMessageInput{Text: "hello over the wire"})
	if err != nil {
		t.Fatalf("send message: %v", err)
	}

	var event struct {
		Type           string        `json:"type"`
		ConversationID string        `json:"conversationId"`
		Payload        store.Message `json:"payload"`
	}
	if err := wsjson.Read(ctx, conn, &event); err != nil {
		t.Fatalf("read event frame: %v", err)
	}
	if event.Type != "message.created" || event.Payload.ID != sent.ID {
		t.Fatalf("unexpected event: %+v", event)
	}
}

func TestConversationStreamRejectsOutsiders(t *testing.T) {
	outsider := activeUser("usr_other", "tomas", "submitter")
	fs := &fakeStore{
		getUserByIDFn: userDirectory(outsider),
		getConversationFn: func(context.Context, string) (store.Conversation, error) {
			return store.Conversation{ID: "conv_1", SubmitterID: "usr_sub", ReviewerID: "usr_rev"}, nil
		},
	}
	service, handler := newTestServer(t, fs)
	token := tokenFor(t, service, outsider)

	req := httptest.NewRequest(http.MethodGet, "/api/conversations/conv_1/stream", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 before upgrade, got %d", rec.Code)
	}
}
