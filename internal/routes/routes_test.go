package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/DJELO6elisee/YouVoice-API/internal/handlers"
	"github.com/DJELO6elisee/YouVoice-API/internal/services"
	"github.com/DJELO6elisee/YouVoice-API/internal/storage"
	"github.com/DJELO6elisee/YouVoice-API/internal/testutil"
	"github.com/DJELO6elisee/YouVoice-API/internal/validation"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type testAPI struct {
	t   *testing.T
	app *fiber.App
	db  *gorm.DB
}

func newTestAPI(t *testing.T, adminEmails string) *testAPI {
	t.Helper()
	db := testutil.NewDB(t)
	cfg := testutil.Config()
	cfg.UploadDir = t.TempDir()
	cfg.AdminEmails = adminEmails

	store, err := storage.NewLocalStore(cfg.UploadDir, cfg.UploadURLPrefix)
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}

	authService := services.NewAuthService(db, cfg)
	userService := services.NewUserService(db, store, cfg.AdminEmails)
	notificationService := services.NewNotificationService(db)
	v := validation.New()

	h := Handlers{
		Auth:          handlers.NewAuthHandler(authService, userService, store, v, cfg),
		Admin:         handlers.NewAdminHandler(userService, v),
		Health:        handlers.NewHealthHandler(func() error { return nil }),
		Moderation:    handlers.NewModerationHandler(services.NewModerationService(db, notificationService, store), v),
		VoiceNotes:    handlers.NewVoiceNoteHandler(services.NewVoiceNoteService(db, store), store, cfg.MaxFileSize),
		Reactions:     handlers.NewReactionHandler(services.NewReactionService(db, notificationService), v),
		Comments:      handlers.NewCommentHandler(services.NewCommentService(db, notificationService), v),
		Shares:        handlers.NewShareHandler(services.NewShareService(db, notificationService), v),
		Notifications: handlers.NewNotificationHandler(notificationService),
		Conversations: handlers.NewConversationHandler(services.NewConversationService(db), v),
	}

	app := fiber.New()
	Setup(app, cfg, h, userService)
	return &testAPI{t: t, app: app, db: db}
}

func (a *testAPI) do(req *http.Request, token string) (int, map[string]interface{}) {
	a.t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := a.app.Test(req, -1)
	if err != nil {
		a.t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	body := map[string]interface{}{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &body); err != nil {
			a.t.Fatalf("%s %s: decode %q: %v", req.Method, req.URL.Path, raw, err)
		}
	}
	return resp.StatusCode, body
}

func (a *testAPI) json(method, path, token string, payload interface{}) (int, map[string]interface{}) {
	a.t.Helper()
	var body io.Reader
	if payload != nil {
		b, _ := json.Marshal(payload)
		body = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	return a.do(req, token)
}

// signup registers and logs in a user, returning the token and user id.
func (a *testAPI) signup(username string) (string, string) {
	a.t.Helper()
	status, _ := a.json("POST", "/api/auth/register", "", map[string]string{
		"username": username, "email": username + "@example.com", "password": "secret123",
	})
	if status != fiber.StatusCreated {
		a.t.Fatalf("register %s: status %d", username, status)
	}
	status, body := a.json("POST", "/api/auth/login", "", map[string]string{
		"email": username + "@example.com", "password": "secret123",
	})
	if status != fiber.StatusOK {
		a.t.Fatalf("login %s: status %d", username, status)
	}
	user := body["user"].(map[string]interface{})
	return body["token"].(string), user["id"].(string)
}

func (a *testAPI) upload(token, contentType, duration string) (int, map[string]interface{}) {
	a.t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="audio"; filename="clip.mp3"`)
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	if err != nil {
		a.t.Fatalf("create part: %v", err)
	}
	part.Write([]byte("ID3 fake audio"))
	w.WriteField("duration", duration)
	w.WriteField("description", "hello world")
	w.Close()

	req := httptest.NewRequest("POST", "/api/voice-notes", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return a.do(req, token)
}

func TestAuthFlow(t *testing.T) {
	api := newTestAPI(t, "")

	status, body := api.json("POST", "/api/auth/register", "", map[string]string{"username": "a", "email": "bad", "password": "1"})
	if status != fiber.StatusBadRequest || body["message"] != "Validation failed" {
		t.Fatalf("expected validation failure, got %d %v", status, body)
	}

	token, id := api.signup("alice")

	status, _ = api.json("POST", "/api/auth/register", "", map[string]string{"username": "alice2", "email": "alice@example.com", "password": "secret123"})
	if status != fiber.StatusConflict {
		t.Errorf("expected 409 for duplicate email, got %d", status)
	}

	status, body = api.json("GET", "/api/auth/me", token, nil)
	if status != fiber.StatusOK || body["id"] != id {
		t.Errorf("me: %d %v", status, body)
	}
	if _, leaked := body["password"]; leaked {
		t.Error("password must never be serialized")
	}

	status, _ = api.json("GET", "/api/auth/me", "", nil)
	if status != fiber.StatusUnauthorized {
		t.Errorf("expected 401 without a token, got %d", status)
	}

	status, body = api.json("PATCH", "/api/auth/me", token, map[string]string{"bio": "hi there", "genre": "femme"})
	if status != fiber.StatusOK || body["bio"] != "hi there" {
		t.Errorf("update me: %d %v", status, body)
	}
}

func TestVoiceNoteLifecycle(t *testing.T) {
	api := newTestAPI(t, "")
	alice, _ := api.signup("alice")
	bob, _ := api.signup("bob")

	if status, _ := api.upload(alice, "text/plain", "10"); status != fiber.StatusBadRequest {
		t.Errorf("expected 400 for a non-audio upload, got %d", status)
	}
	if status, _ := api.upload(alice, "audio/mpeg", "61"); status != fiber.StatusBadRequest {
		t.Errorf("expected 400 for a long clip, got %d", status)
	}

	status, note := api.upload(alice, "audio/mpeg", "12")
	if status != fiber.StatusCreated {
		t.Fatalf("upload: %d %v", status, note)
	}
	noteID := note["id"].(string)

	status, body := api.json("POST", "/api/reactions", bob, map[string]string{"voice_note_id": noteID, "emoji": "🔥"})
	if status != fiber.StatusCreated {
		t.Fatalf("react: %d %v", status, body)
	}
	status, _ = api.json("POST", "/api/reactions", bob, map[string]string{"voice_note_id": noteID, "emoji": "😀"})
	if status != fiber.StatusOK {
		t.Errorf("expected 200 when changing a reaction, got %d", status)
	}

	status, body = api.json("POST", "/api/comments", bob, map[string]string{"voice_note_id": noteID, "text": "great"})
	if status != fiber.StatusCreated {
		t.Fatalf("comment: %d %v", status, body)
	}

	status, body = api.json("GET", "/api/voice-notes/"+noteID, "", nil)
	if status != fiber.StatusOK {
		t.Fatalf("get: %d", status)
	}
	if reactions := body["reactions"].([]interface{}); len(reactions) != 1 {
		t.Errorf("expected one reaction, got %d", len(reactions))
	}

	status, body = api.json("GET", "/api/voice-notes?sort_by=reaction_count", "", nil)
	if status != fiber.StatusOK {
		t.Fatalf("feed: %d", status)
	}
	data := body["data"].(map[string]interface{})
	if pagination := data["pagination"].(map[string]interface{}); pagination["total"].(float64) != 1 {
		t.Errorf("unexpected pagination: %v", pagination)
	}

	status, body = api.json("GET", "/api/notifications", alice, nil)
	if status != fiber.StatusOK {
		t.Fatalf("notifications: %d", status)
	}
	data = body["data"].(map[string]interface{})
	if data["unread_count"].(float64) != 2 {
		t.Errorf("expected 2 unread notifications, got %v", data["unread_count"])
	}

	if status, _ := api.json("DELETE", "/api/voice-notes/"+noteID, bob, nil); status != fiber.StatusForbidden {
		t.Errorf("expected 403 deleting someone else's note, got %d", status)
	}
	if status, _ := api.json("DELETE", "/api/voice-notes/"+noteID, alice, nil); status != fiber.StatusNoContent {
		t.Errorf("expected 204, got %d", status)
	}
	if status, _ := api.json("GET", "/api/voice-notes/"+noteID, "", nil); status != fiber.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", status)
	}
	if status, _ := api.json("GET", "/api/voice-notes/not-a-uuid", "", nil); status != fiber.StatusBadRequest {
		t.Errorf("expected 400 for a malformed id, got %d", status)
	}
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	api := newTestAPI(t, "boss@example.com")
	boss, _ := api.signup("boss")
	alice, aliceID := api.signup("alice")

	if status, _ := api.json("GET", "/api/admin/stats", alice, nil); status != fiber.StatusForbidden {
		t.Errorf("expected 403 for a regular user, got %d", status)
	}
	if status, _ := api.json("GET", "/api/admin/stats", "", nil); status != fiber.StatusUnauthorized {
		t.Errorf("expected 401 without a token, got %d", status)
	}

	status, body := api.json("GET", "/api/admin/stats", boss, nil)
	if status != fiber.StatusOK || body["total_users"].(float64) != 2 {
		t.Errorf("stats: %d %v", status, body)
	}

	status, body = api.json("PATCH", fmt.Sprintf("/api/admin/users/%s/status", aliceID), boss, map[string]bool{"is_active": false})
	if status != fiber.StatusOK || body["is_active"] != false {
		t.Fatalf("block: %d %v", status, body)
	}
	status, _ = api.json("POST", "/api/auth/login", "", map[string]string{"email": "alice@example.com", "password": "secret123"})
	if status != fiber.StatusForbidden {
		t.Errorf("expected 403 logging into a blocked account, got %d", status)
	}

	if status, _ := api.json("GET", "/api/admin/stats/activity-over-time?days=abc", boss, nil); status != fiber.StatusBadRequest {
		t.Errorf("expected 400 for invalid days, got %d", status)
	}
	if status, _ := api.json("DELETE", "/api/admin/content/podcast/"+aliceID, boss, nil); status != fiber.StatusBadRequest {
		t.Errorf("expected 400 for an unknown content type, got %d", status)
	}
}

func TestReportRoutes(t *testing.T) {
	api := newTestAPI(t, "boss@example.com")
	boss, _ := api.signup("boss")
	alice, _ := api.signup("alice")
	bob, _ := api.signup("bob")

	status, note := api.upload(alice, "audio/mpeg", "12")
	if status != fiber.StatusCreated {
		t.Fatalf("upload: %d %v", status, note)
	}

	status, report := api.json("POST", "/api/reports", bob, map[string]string{
		"voice_note_id": note["id"].(string),
		"reason":        "this clip is spam",
	})
	if status != fiber.StatusCreated {
		t.Fatalf("report: %d %v", status, report)
	}
	reportID := report["id"].(string)

	if status, _ := api.json("GET", "/api/reports", bob, nil); status != fiber.StatusForbidden {
		t.Errorf("expected 403 listing reports as a regular user, got %d", status)
	}

	status, body := api.json("GET", "/api/reports", boss, nil)
	if status != fiber.StatusOK {
		t.Fatalf("list reports: %d %v", status, body)
	}
	reports := body["data"].(map[string]interface{})["reports"].([]interface{})
	if len(reports) != 1 || reports[0].(map[string]interface{})["id"] != reportID {
		t.Errorf("unexpected reports: %v", reports)
	}

	status, body = api.json("PATCH", "/api/reports/"+reportID, boss, map[string]string{"status": "under_review"})
	if status != fiber.StatusOK || body["status"] != "under_review" {
		t.Errorf("update report: %d %v", status, body)
	}

	for _, path := range []string{"/api/auth/admin/stats", "/api/auth/admin/users", "/api/auth/admin/reports?status=under_review"} {
		if status, body := api.json("GET", path, boss, nil); status != fiber.StatusOK {
			t.Errorf("%s: %d %v", path, status, body)
		}
		if status, _ := api.json("GET", path, alice, nil); status != fiber.StatusForbidden {
			t.Errorf("%s: expected 403 for a regular user, got %d", path, status)
		}
	}
}

func TestConversationRoutes(t *testing.T) {
	api := newTestAPI(t, "")
	alice, _ := api.signup("alice")
	_, bobID := api.signup("bob")
	mallory, _ := api.signup("mallory")

	status, conv := api.json("POST", "/api/conversations", alice, map[string]interface{}{"participant_ids": []string{bobID}})
	if status != fiber.StatusCreated {
		t.Fatalf("create: %d %v", status, conv)
	}
	status, again := api.json("POST", "/api/conversations", alice, map[string]interface{}{"participant_ids": []string{bobID}})
	if status != fiber.StatusOK || again["id"] != conv["id"] {
		t.Errorf("expected the existing conversation with 200, got %d %v", status, again["id"])
	}

	path := "/api/conversations/" + conv["id"].(string) + "/messages"
	if status, _ := api.json("POST", path, alice, map[string]string{"content": "hey"}); status != fiber.StatusCreated {
		t.Errorf("send: %d", status)
	}
	if status, _ := api.json("POST", path, mallory, map[string]string{"content": "hey"}); status != fiber.StatusForbidden {
		t.Errorf("expected 403 for a non-participant, got %d", status)
	}
	if status, _ := api.json("GET", path, mallory, nil); status != fiber.StatusForbidden {
		t.Errorf("expected 403 reading as a non-participant, got %d", status)
	}

	status, body := api.json("GET", "/api/conversations/find-users?search=bo", alice, nil)
	if status != fiber.StatusOK {
		t.Fatalf("find users: %d", status)
	}
	if users := body["users"].([]interface{}); len(users) != 1 {
		t.Errorf("expected one match, got %v", users)
	}
}

func TestHealthAndDocs(t *testing.T) {
	api := newTestAPI(t, "")

	status, body := api.json("GET", "/api/health", "", nil)
	if status != fiber.StatusOK || body["status"] != "ok" {
		t.Errorf("health: %d %v", status, body)
	}

	status, body = api.json("GET", "/api-docs", "", nil)
	if status != fiber.StatusOK || len(body["routes"].([]interface{})) == 0 {
		t.Errorf("docs: %d %v", status, body)
	}
}
