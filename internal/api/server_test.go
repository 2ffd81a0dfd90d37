package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"echocheck/internal/api"
	"echocheck/internal/logging"
	"echocheck/internal/notifications"
	"echocheck/internal/queue"
	"echocheck/internal/testsupport"
	"echocheck/internal/users"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []notifications.Event
}

func (n *recordingNotifier) Publish(_ context.Context, event notifications.Event, _ notifications.Payload) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

func (n *recordingNotifier) saw(event notifications.Event) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, seen := range n.events {
		if seen == event {
			return true
		}
	}
	return false
}

type testServer struct {
	server   *api.Server
	store    *queue.Store
	users    *users.Store
	notifier *recordingNotifier
	staging  string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	userStore, err := users.Open(cfg)
	if err != nil {
		t.Fatalf("open users store: %v", err)
	}
	t.Cleanup(func() { _ = userStore.Close() })

	notifier := &recordingNotifier{}
	server := api.NewServer(cfg, store, userStore, nil, notifier, logging.NewNop())
	return &testServer{
		server:   server,
		store:    store,
		users:    userStore,
		notifier: notifier,
		staging:  cfg.Paths.StagingDir,
	}
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	ts.server.ServeHTTP(recorder, req)
	return recorder
}

func (ts *testServer) registerAndLogin(t *testing.T, username, email string) string {
	t.Helper()
	resp := ts.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username,
		"email":    email,
		"password": "correct-horse-battery",
	})
	if resp.Code != http.StatusCreated {
		t.Fatalf("register returned %d: %s", resp.Code, resp.Body.String())
	}

	resp = ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": username,
		"password": "correct-horse-battery",
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("login returned %d: %s", resp.Code, resp.Body.String())
	}
	var token struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &token); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if token.TokenType != "bearer" || token.AccessToken == "" {
		t.Fatalf("unexpected token response: %+v", token)
	}
	return token.AccessToken
}

func (ts *testServer) upload(t *testing.T, token, fileName string, contents []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(contents); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/analyses", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	recorder := httptest.NewRecorder()
	ts.server.ServeHTTP(recorder, req)
	return recorder
}

func TestRegisterLoginAndCurrentUser(t *testing.T) {
	ts := newTestServer(t)
	token := ts.registerAndLogin(t, "alice", "alice@example.com")

	resp := ts.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "ALICE",
		"email":    "other@example.com",
		"password": "another-password-123",
	})
	if resp.Code != http.StatusConflict {
		t.Fatalf("duplicate register returned %d, want %d", resp.Code, http.StatusConflict)
	}

	resp = ts.do(t, http.MethodGet, "/api/users/me", token, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("users/me returned %d: %s", resp.Code, resp.Body.String())
	}
	var me struct {
		Username string `json:"username"`
		Email    string `json:"email"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &me); err != nil {
		t.Fatalf("decode users/me: %v", err)
	}
	if me.Username != "alice" || me.Email != "alice@example.com" {
		t.Fatalf("unexpected identity: %+v", me)
	}

	resp = ts.do(t, http.MethodGet, "/api/users/me", "", nil)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated users/me returned %d, want %d", resp.Code, http.StatusUnauthorized)
	}
}

func TestRegisterRejectsInvalidInput(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "bob",
		"email":    "not-an-email",
		"password": "long-enough-password",
	})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("invalid email returned %d, want %d", resp.Code, http.StatusBadRequest)
	}

	resp = ts.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "bob",
		"email":    "bob@example.com",
		"password": "short",
	})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("short password returned %d, want %d", resp.Code, http.StatusBadRequest)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	ts := newTestServer(t)
	ts.registerAndLogin(t, "carol", "carol@example.com")

	resp := ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "carol",
		"password": "wrong-password-entirely",
	})
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password returned %d, want %d", resp.Code, http.StatusUnauthorized)
	}
}

func TestUploadQueuesAnalysis(t *testing.T) {
	ts := newTestServer(t)
	token := ts.registerAndLogin(t, "dave", "dave@example.com")

	resp := ts.upload(t, token, "interview clip.wav", []byte("RIFF fake audio payload"))
	if resp.Code != http.StatusAccepted {
		t.Fatalf("upload returned %d: %s", resp.Code, resp.Body.String())
	}

	var queued struct {
		ID       int64  `json:"id"`
		FileName string `json:"file_name"`
		FileType string `json:"file_type"`
		Status   string `json:"status"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &queued); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	if queued.Status != string(queue.StatusPending) {
		t.Fatalf("unexpected status %q, want %q", queued.Status, queue.StatusPending)
	}
	if queued.FileType != "WAV" {
		t.Fatalf("unexpected file type %q", queued.FileType)
	}

	item, err := ts.store.GetByID(context.Background(), queued.ID)
	if err != nil {
		t.Fatalf("load queued item: %v", err)
	}
	if item == nil {
		t.Fatal("queued item not found in store")
	}
	if filepath.Dir(item.SourcePath) != ts.staging {
		t.Fatalf("source path %q not under staging dir %q", item.SourcePath, ts.staging)
	}
	if _, err := os.Stat(item.SourcePath); err != nil {
		t.Fatalf("staged file missing: %v", err)
	}
	if !ts.notifier.saw(notifications.EventUploadQueued) {
		t.Fatal("expected upload_queued notification")
	}
}

func TestUploadRejectsUnsupportedExtension(t *testing.T) {
	ts := newTestServer(t)
	token := ts.registerAndLogin(t, "erin", "erin@example.com")

	resp := ts.upload(t, token, "notes.txt", []byte("plain text"))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("unsupported extension returned %d, want %d", resp.Code, http.StatusBadRequest)
	}
}

func TestHistoryIsScopedToOwner(t *testing.T) {
	ts := newTestServer(t)
	ownerToken := ts.registerAndLogin(t, "frank", "frank@example.com")
	otherToken := ts.registerAndLogin(t, "grace", "grace@example.com")

	resp := ts.upload(t, ownerToken, "clip.wav", []byte("RIFF payload"))
	if resp.Code != http.StatusAccepted {
		t.Fatalf("upload returned %d: %s", resp.Code, resp.Body.String())
	}
	var queued struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &queued); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}

	resp = ts.do(t, http.MethodGet, "/api/analyses", ownerToken, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("list returned %d: %s", resp.Code, resp.Body.String())
	}
	var listing struct {
		Items []struct {
			ID int64 `json:"id"`
		} `json:"items"`
		Total int `json:"total"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &listing); err != nil {
		t.Fatalf("decode listing: %v", err)
	}
	if listing.Total != 1 || len(listing.Items) != 1 || listing.Items[0].ID != queued.ID {
		t.Fatalf("unexpected listing: %+v", listing)
	}

	resp = ts.do(t, http.MethodGet, fmt.Sprintf("/api/analyses/%d", queued.ID), otherToken, nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("cross-user detail returned %d, want %d", resp.Code, http.StatusNotFound)
	}

	resp = ts.do(t, http.MethodGet, "/api/analyses", otherToken, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("other user list returned %d", resp.Code)
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &listing); err != nil {
		t.Fatalf("decode other listing: %v", err)
	}
	if listing.Total != 0 {
		t.Fatalf("expected empty history for other user, got total %d", listing.Total)
	}
}

func TestDeleteAnalysisRemovesArtifacts(t *testing.T) {
	ts := newTestServer(t)
	token := ts.registerAndLogin(t, "heidi", "heidi@example.com")

	resp := ts.upload(t, token, "clip.wav", []byte("RIFF payload"))
	if resp.Code != http.StatusAccepted {
		t.Fatalf("upload returned %d: %s", resp.Code, resp.Body.String())
	}
	var queued struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &queued); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}

	ctx := context.Background()
	item, err := ts.store.GetByID(ctx, queued.ID)
	if err != nil || item == nil {
		t.Fatalf("load item: %v", err)
	}
	spectrogram := filepath.Join(t.TempDir(), "spectrogram.png")
	if err := os.WriteFile(spectrogram, []byte("png bytes"), 0o644); err != nil {
		t.Fatalf("write spectrogram: %v", err)
	}
	sourcePath := item.SourcePath
	item.SpectrogramPath = spectrogram
	if err := ts.store.Update(ctx, item); err != nil {
		t.Fatalf("update item: %v", err)
	}

	resp = ts.do(t, http.MethodDelete, fmt.Sprintf("/api/analyses/%d", queued.ID), token, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("delete returned %d: %s", resp.Code, resp.Body.String())
	}

	if _, err := os.Stat(sourcePath); !os.IsNotExist(err) {
		t.Fatalf("expected staged source to be removed, stat err: %v", err)
	}
	if _, err := os.Stat(spectrogram); !os.IsNotExist(err) {
		t.Fatalf("expected spectrogram to be removed, stat err: %v", err)
	}
	deleted, err := ts.store.GetByID(ctx, queued.ID)
	if err != nil {
		t.Fatalf("reload item: %v", err)
	}
	if deleted != nil {
		t.Fatal("expected item to be deleted from store")
	}
}

func TestSpectrogramDownload(t *testing.T) {
	ts := newTestServer(t)
	token := ts.registerAndLogin(t, "ivan", "ivan@example.com")

	resp := ts.upload(t, token, "clip.wav", []byte("RIFF payload"))
	if resp.Code != http.StatusAccepted {
		t.Fatalf("upload returned %d: %s", resp.Code, resp.Body.String())
	}
	var queued struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &queued); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}

	resp = ts.do(t, http.MethodGet, fmt.Sprintf("/api/analyses/%d/spectrogram", queued.ID), token, nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("missing spectrogram returned %d, want %d", resp.Code, http.StatusNotFound)
	}

	ctx := context.Background()
	item, err := ts.store.GetByID(ctx, queued.ID)
	if err != nil || item == nil {
		t.Fatalf("load item: %v", err)
	}
	spectrogram := filepath.Join(t.TempDir(), "spectrogram.png")
	if err := os.WriteFile(spectrogram, []byte("png bytes"), 0o644); err != nil {
		t.Fatalf("write spectrogram: %v", err)
	}
	item.SpectrogramPath = spectrogram
	if err := ts.store.Update(ctx, item); err != nil {
		t.Fatalf("update item: %v", err)
	}

	resp = ts.do(t, http.MethodGet, fmt.Sprintf("/api/analyses/%d/spectrogram", queued.ID), token, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("spectrogram returned %d: %s", resp.Code, resp.Body.String())
	}
	if got := resp.Header().Get("Content-Type"); got != "image/png" {
		t.Fatalf("unexpected content type %q", got)
	}
	if resp.Body.String() != "png bytes" {
		t.Fatalf("unexpected body %q", resp.Body.String())
	}
}

func TestStatusReportsQueueAndDependencies(t *testing.T) {
	ts := newTestServer(t)
	token := ts.registerAndLogin(t, "judy", "judy@example.com")

	resp := ts.do(t, http.MethodGet, "/api/status", token, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("status returned %d: %s", resp.Code, resp.Body.String())
	}
	var status struct {
		Service  string `json:"service"`
		Workflow struct {
			Running bool `json:"running"`
		} `json:"workflow"`
		Dependencies []struct {
			Name string `json:"name"`
		} `json:"dependencies"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status.Service != "echocheck" {
		t.Fatalf("unexpected service name %q", status.Service)
	}
	if status.Workflow.Running {
		t.Fatal("expected workflow to be reported stopped without a manager")
	}
	if len(status.Dependencies) == 0 {
		t.Fatal("expected dependency statuses")
	}
}

func TestHealthzIsPublic(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodGet, "/healthz", "", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("healthz returned %d", resp.Code)
	}
	var health struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &health); err != nil {
		t.Fatalf("decode healthz: %v", err)
	}
	if health.Status != "ok" {
		t.Fatalf("unexpected health status %q", health.Status)
	}
}
