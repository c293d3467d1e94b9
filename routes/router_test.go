package routes

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/engforum/engforum/config"
	"github.com/engforum/engforum/models"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	t      *testing.T
	engine *gin.Engine
	cfg    config.AppConfig
}

func newTestServer(t *testing.T, tweak func(*config.AppConfig)) *testServer {
	t.Helper()
	cfg := config.AppConfig{
		JWTSecret:          "router_test_secret",
		SessionTTLHours:    1,
		DBDriver:           "sqlite",
		DatabaseURI:        "file:" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=on",
		GinMode:            "test",
		RateLimitPerMinute: 100000,
		AllowedOrigins:     []string{"*"},
		LogLevel:           "silent",
		UploadDir:          t.TempDir(),
		UploadMaxBytes:     1 << 20,
		AdminUsernames:     []string{"root"},
		PasswordScheme:     "sha256",
	}
	if tweak != nil {
		tweak(&cfg)
	}
	config.Set(cfg)

	db, err := config.Open(cfg)
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db, models.All()...))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return &testServer{t: t, engine: SetupRouter(db), cfg: cfg}
}

func (s *testServer) do(method, path string, body interface{}, token string) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.send(req, token)
}

func (s *testServer) send(req *http.Request, token string) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func (s *testServer) register(username string) string {
	s.t.Helper()
	w, env := s.do(http.MethodPost, "/api/v1/auth/register", gin.H{"username": username, "password": "secret1"}, "")
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	var data struct {
		Token string `json:"token"`
	}
	require.NoError(s.t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(s.t, data.Token)
	return data.Token
}

func (s *testServer) createThread(token, category string) models.Thread {
	s.t.Helper()
	w, env := s.do(http.MethodPost, "/api/v1/threads", gin.H{
		"category": category,
		"title":    "Load paths in trusses",
		"content":  "How do you trace load paths through a truss?",
	}, token)
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	var data struct {
		Thread models.Thread `json:"thread"`
	}
	require.NoError(s.t, json.Unmarshal(env.Data, &data))
	return data.Thread
}

func (s *testServer) getThread(id string) models.Thread {
	s.t.Helper()
	w, env := s.do(http.MethodGet, "/api/v1/threads/"+id, nil, "")
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	var data struct {
		Thread models.Thread `json:"thread"`
	}
	require.NoError(s.t, json.Unmarshal(env.Data, &data))
	return data.Thread
}

func TestHealthAndNoRoute(t *testing.T) {
	s := newTestServer(t, nil)

	w, env := s.do(http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, env.Code)

	w, env = s.do(http.MethodGet, "/api/v1/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 40400, env.Code)
}

func TestRegisterLoginLogout(t *testing.T) {
	s := newTestServer(t, nil)
	s.register("alice")

	w, env := s.do(http.MethodPost, "/api/v1/auth/register", gin.H{"username": "ALICE", "password": "secret1"}, "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, 40901, env.Code)

	w, _ = s.do(http.MethodPost, "/api/v1/auth/register", gin.H{"username": "bad name", "password": "secret1"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(http.MethodPost, "/api/v1/auth/login", gin.H{"username": "alice", "password": "wrong"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, env = s.do(http.MethodPost, "/api/v1/auth/login", gin.H{"username": "Alice", "password": "secret1"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	var login struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &login))
	assert.Equal(t, "alice", login.User.Username)
	assert.NotContains(t, w.Body.String(), "password")

	var sessionCookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == "forum_session" {
			sessionCookie = c
		}
	}
	require.NotNil(t, sessionCookie)
	assert.True(t, sessionCookie.HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.AddCookie(sessionCookie)
	w, _ = s.send(req, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(http.MethodPost, "/api/v1/auth/logout", nil, login.Token)
	assert.Equal(t, http.StatusOK, w.Code)
	w, env = s.do(http.MethodGet, "/api/v1/auth/me", nil, login.Token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 40104, env.Code)
}

func TestCategories(t *testing.T) {
	s := newTestServer(t, nil)

	w, env := s.do(http.MethodGet, "/api/v1/categories", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Items []models.Category `json:"items"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list.Items, 7)

	w, _ = s.do(http.MethodGet, "/api/v1/categories/CIVIL", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(http.MethodGet, "/api/v1/categories/astrology", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestThreadLifecycle(t *testing.T) {
	s := newTestServer(t, nil)
	alice := s.register("alice")
	bob := s.register("bob")

	w, _ := s.do(http.MethodPost, "/api/v1/threads", gin.H{"category": "civil", "title": "Hi", "content": "too short"}, alice)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, env := s.do(http.MethodPost, "/api/v1/threads", gin.H{"category": "astrology", "title": "Stars and beams", "content": "Do the stars bend beams?"}, alice)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 40022, env.Code)
	w, _ = s.do(http.MethodPost, "/api/v1/threads", gin.H{"category": "civil", "title": "Anonymous post", "content": "Nobody is logged in here"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	th := s.createThread(alice, "Civil")
	assert.Equal(t, "civil", th.CategoryID)
	assert.Equal(t, "alice", th.AuthorUsername)

	w, _ = s.do(http.MethodPost, "/api/v1/threads/"+th.ID+"/replies", gin.H{"content": "Use a free body diagram."}, bob)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	got := s.getThread(th.ID)
	assert.Equal(t, 1, got.ReplyCount)
	require.Len(t, got.Replies, 1)
	assert.Equal(t, "bob", got.Replies[0].AuthorUsername)

	w, _ = s.do(http.MethodPost, "/api/v1/threads/missing/replies", gin.H{"content": "hello"}, bob)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = s.do(http.MethodPut, "/api/v1/threads/"+th.ID, gin.H{"title": "Bob was here", "content": "Bob rewrote this thread"}, bob)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, _ = s.do(http.MethodPut, "/api/v1/threads/"+th.ID, gin.H{"title": "Load paths revisited", "content": "Updated question about trusses"}, alice)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Load paths revisited", s.getThread(th.ID).Title)

	replyID := got.Replies[0].ID
	w, _ = s.do(http.MethodPut, "/api/v1/replies/"+replyID, gin.H{"content": "Edited by alice"}, alice)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, _ = s.do(http.MethodPut, "/api/v1/replies/"+replyID, gin.H{"content": "Use a free body diagram first."}, bob)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, s.getThread(th.ID).Replies[0].IsEdited)

	w, _ = s.do(http.MethodDelete, "/api/v1/replies/"+replyID, nil, bob)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, s.getThread(th.ID).ReplyCount)

	w, _ = s.do(http.MethodDelete, "/api/v1/threads/"+th.ID, nil, bob)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, _ = s.do(http.MethodDelete, "/api/v1/threads/"+th.ID, nil, alice)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(http.MethodGet, "/api/v1/threads/"+th.ID, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListThreadsByCategory(t *testing.T) {
	s := newTestServer(t, nil)
	alice := s.register("alice")
	s.createThread(alice, "civil")
	s.createThread(alice, "software")

	list := func(query string) []models.Thread {
		w, env := s.do(http.MethodGet, "/api/v1/threads"+query, nil, "")
		require.Equal(t, http.StatusOK, w.Code)
		var data struct {
			Items []models.Thread `json:"items"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &data))
		return data.Items
	}
	assert.Len(t, list(""), 2)
	assert.Len(t, list("?category=software"), 1)
	assert.Empty(t, list("?category=astrology"))
}

func TestModeration(t *testing.T) {
	s := newTestServer(t, nil)
	root := s.register("root")
	alice := s.register("alice")
	th := s.createThread(alice, "civil")

	w, _ := s.do(http.MethodGet, "/api/v1/admin/dashboard", nil, alice)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = s.do(http.MethodPut, "/api/v1/admin/threads/"+th.ID+"/lock", gin.H{"value": true}, root)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w, env := s.do(http.MethodPost, "/api/v1/threads/"+th.ID+"/replies", gin.H{"content": "Can I still reply?"}, alice)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, 40902, env.Code)

	w, _ = s.do(http.MethodPut, "/api/v1/admin/threads/"+th.ID+"/pin", gin.H{}, root)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = s.do(http.MethodPut, "/api/v1/admin/threads/"+th.ID+"/pin", gin.H{"value": true}, root)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(http.MethodPost, "/api/v1/admin/threads/"+th.ID+"/violation", gin.H{}, root)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = s.do(http.MethodPost, "/api/v1/admin/threads/"+th.ID+"/violation", gin.H{"reason": "off topic"}, root)
	assert.Equal(t, http.StatusOK, w.Code)
	got := s.getThread(th.ID)
	assert.True(t, got.IsPinned)
	assert.True(t, got.IsLocked)
	assert.True(t, got.IsViolation)
	require.NotNil(t, got.ViolatedByAdmin)
	assert.Equal(t, "root", *got.ViolatedByAdmin)

	w, env = s.do(http.MethodGet, "/api/v1/admin/dashboard", nil, root)
	require.Equal(t, http.StatusOK, w.Code)
	var dash struct {
		Stats map[string]int64 `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &dash))
	assert.EqualValues(t, 1, dash.Stats["total_threads"])
	assert.EqualValues(t, 1, dash.Stats["violated_threads"])
	assert.EqualValues(t, 2, dash.Stats["total_users"])

	w, _ = s.do(http.MethodDelete, "/api/v1/admin/threads/"+th.ID+"/violation", nil, root)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, s.getThread(th.ID).IsViolation)

	w, _ = s.do(http.MethodDelete, "/api/v1/admin/threads/"+th.ID, nil, root)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(http.MethodDelete, "/api/v1/admin/threads/"+th.ID, nil, root)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminDemotionAppliesImmediately(t *testing.T) {
	s := newTestServer(t, nil)
	root := s.register("root")
	alice := s.register("alice")

	w, _ := s.do(http.MethodPut, "/api/v1/admin/users/alice/admin", gin.H{"value": true}, root)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(http.MethodGet, "/api/v1/admin/users", nil, alice)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(http.MethodPut, "/api/v1/admin/users/alice/admin", gin.H{"value": false}, root)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(http.MethodGet, "/api/v1/admin/users", nil, alice)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = s.do(http.MethodPut, "/api/v1/admin/users/root/admin", gin.H{"value": false}, root)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = s.do(http.MethodPut, "/api/v1/admin/users/ghost/admin", gin.H{"value": true}, root)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMessaging(t *testing.T) {
	s := newTestServer(t, nil)
	alice := s.register("alice")
	bob := s.register("bob")

	w, env := s.do(http.MethodPost, "/api/v1/messages", gin.H{"recipient": "ALICE", "subject": "me", "content": "note"}, alice)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 40041, env.Code)
	w, env = s.do(http.MethodPost, "/api/v1/messages", gin.H{"recipient": "ghost", "subject": "hi", "content": "anyone?"}, alice)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 40421, env.Code)

	w, _ = s.do(http.MethodGet, "/api/v1/messages/sent", nil, alice)
	assert.NotContains(t, w.Body.String(), "anyone?")
	assert.NotContains(t, w.Body.String(), "note")

	w, env = s.do(http.MethodPost, "/api/v1/messages", gin.H{"recipient": "BOB", "subject": "Hello", "content": "About that truss"}, alice)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var sent struct {
		Message models.PrivateMessage `json:"message"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &sent))
	assert.Equal(t, "bob", sent.Message.RecipientUsername)

	unread := func() int64 {
		_, env := s.do(http.MethodGet, "/api/v1/messages/unread-count", nil, bob)
		var data struct {
			Count int64 `json:"count"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &data))
		return data.Count
	}
	assert.EqualValues(t, 1, unread())

	w, _ = s.do(http.MethodGet, "/api/v1/messages/"+sent.Message.ID+"?mark_read=1", nil, bob)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, unread())

	w, _ = s.do(http.MethodDelete, "/api/v1/messages/"+sent.Message.ID, nil, bob)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(http.MethodGet, "/api/v1/messages/"+sent.Message.ID, nil, bob)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env = s.do(http.MethodGet, "/api/v1/messages/sent", nil, alice)
	require.Equal(t, http.StatusOK, w.Code)
	var outbox struct {
		Items []models.PrivateMessage `json:"items"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &outbox))
	assert.Len(t, outbox.Items, 1)
}

func multipartThread(t *testing.T, fields map[string]string, fileField, fileName string, content []byte) *http.Request {
	t.Helper()
	return multipartForm(t, "/api/v1/threads", fields, fileField, fileName, content)
}

func multipartForm(t *testing.T, path string, fields map[string]string, fileField, fileName string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileName != "" {
		fw, err := mw.CreateFormFile(fileField, fileName)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestThreadImageUpload(t *testing.T) {
	s := newTestServer(t, func(c *config.AppConfig) { c.UploadMaxBytes = 64 })
	alice := s.register("alice")
	fields := map[string]string{
		"category": "mechanical",
		"title":    "Gearbox photo",
		"content":  "Does this wear pattern look normal?",
	}

	w, _ := s.send(multipartThread(t, fields, "image", "script.exe", []byte("MZ")), alice)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = s.send(multipartThread(t, fields, "image", "huge.png", bytes.Repeat([]byte("x"), 65)), alice)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w, _ = s.do(http.MethodGet, "/api/v1/threads", nil, "")
	assert.NotContains(t, w.Body.String(), "Gearbox photo")

	w, env := s.send(multipartThread(t, fields, "image", "gear.png", []byte("png-bytes")), alice)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var data struct {
		Thread models.Thread `json:"thread"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.NotNil(t, data.Thread.ImageURL)
	assert.True(t, strings.HasPrefix(*data.Thread.ImageURL, "/uploads/threads/"))

	rel := strings.TrimPrefix(*data.Thread.ImageURL, "/uploads/")
	onDisk := filepath.Join(s.cfg.UploadDir, filepath.FromSlash(rel))
	_, err := os.Stat(onDisk)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, *data.Thread.ImageURL, nil)
	served := httptest.NewRecorder()
	s.engine.ServeHTTP(served, req)
	assert.Equal(t, http.StatusOK, served.Code)
	assert.Equal(t, "png-bytes", served.Body.String())

	w, _ = s.do(http.MethodDelete, "/api/v1/threads/"+data.Thread.ID, nil, alice)
	require.Equal(t, http.StatusOK, w.Code)
	_, err = os.Stat(onDisk)
	assert.True(t, os.IsNotExist(err))
}

func TestProfileAndStats(t *testing.T) {
	s := newTestServer(t, nil)
	alice := s.register("alice")
	th := s.createThread(alice, "software")
	w, _ := s.do(http.MethodPost, "/api/v1/threads/"+th.ID+"/replies", gin.H{"content": "Self reply"}, alice)
	require.Equal(t, http.StatusCreated, w.Code)

	w, env := s.do(http.MethodGet, "/api/v1/users/ALICE", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var profile struct {
		ThreadCount   int64           `json:"thread_count"`
		ReplyCount    int64           `json:"reply_count"`
		RecentThreads []models.Thread `json:"recent_threads"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &profile))
	assert.EqualValues(t, 1, profile.ThreadCount)
	assert.EqualValues(t, 1, profile.ReplyCount)
	assert.Len(t, profile.RecentThreads, 1)
	assert.NotContains(t, w.Body.String(), "email")

	w, _ = s.do(http.MethodGet, "/api/v1/users/ghost", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env = s.do(http.MethodGet, "/api/v1/stats", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var stats map[string]int64
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.EqualValues(t, 1, stats["user_count"])
	assert.EqualValues(t, 1, stats["thread_count"])
	assert.EqualValues(t, 1, stats["reply_count"])
	assert.EqualValues(t, 7, stats["category_count"])
	assert.Positive(t, stats["today_page_views"])
}

func TestReplyAttachmentUpload(t *testing.T) {
	s := newTestServer(t, func(c *config.AppConfig) { c.UploadMaxBytes = 64 })
	alice := s.register("alice")
	th := s.createThread(alice, "electrical")
	path := "/api/v1/threads/" + th.ID + "/replies"
	fields := map[string]string{"content": "Wiring diagram attached"}

	w, _ := s.send(multipartForm(t, path, fields, "attachment", "payload.exe", []byte("MZ")), alice)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = s.send(multipartForm(t, path, fields, "attachment", "huge.pdf", bytes.Repeat([]byte("x"), 65)), alice)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	got := s.getThread(th.ID)
	assert.Equal(t, 0, got.ReplyCount)
	assert.Empty(t, got.Replies)

	w, env := s.send(multipartForm(t, path, fields, "attachment", "panel.pdf", []byte("%PDF-1.4")), alice)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var data struct {
		Reply models.Reply `json:"reply"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.NotNil(t, data.Reply.AttachmentURL)
	require.NotNil(t, data.Reply.AttachmentFileName)
	assert.Equal(t, "panel.pdf", *data.Reply.AttachmentFileName)
	assert.True(t, strings.HasPrefix(*data.Reply.AttachmentURL, "/uploads/replies/"))

	got = s.getThread(th.ID)
	assert.Equal(t, 1, got.ReplyCount)
	require.Len(t, got.Replies, 1)
	require.NotNil(t, got.Replies[0].AttachmentFileName)
	assert.Equal(t, "panel.pdf", *got.Replies[0].AttachmentFileName)

	rel := strings.TrimPrefix(*data.Reply.AttachmentURL, "/uploads/")
	onDisk := filepath.Join(s.cfg.UploadDir, filepath.FromSlash(rel))
	_, err := os.Stat(onDisk)
	require.NoError(t, err)

	w, _ = s.do(http.MethodDelete, "/api/v1/replies/"+data.Reply.ID, nil, alice)
	require.Equal(t, http.StatusOK, w.Code)
	_, err = os.Stat(onDisk)
	assert.True(t, os.IsNotExist(err))
}

func TestLengthBoundsApplyAfterSanitizing(t *testing.T) {
	s := newTestServer(t, nil)
	root := s.register("root")
	alice := s.register("alice")
	s.register("bob")

	thread := func(title, content string) (int, envelope) {
		w, env := s.do(http.MethodPost, "/api/v1/threads", gin.H{"category": "civil", "title": title, "content": content}, alice)
		return w.Code, env
	}

	code, env := thread(strings.Repeat("&", 200), "Escaping grows this field.")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, 40021, env.Code)

	code, env = thread("<b></b>abcd", "Tags are stripped from titles.")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, 40021, env.Code)

	code, env = thread("Beam deflection", "<script>alert(1)</script>ok")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, 40021, env.Code)

	code, _ = thread(strings.Repeat("a", 200), strings.Repeat("b", 5000))
	assert.Equal(t, http.StatusCreated, code)
	code, _ = thread("abcde", "0123456789")
	assert.Equal(t, http.StatusCreated, code)

	w, _ := s.do(http.MethodGet, "/api/v1/threads", nil, "")
	assert.NotContains(t, w.Body.String(), "&amp;&amp;")

	th := s.createThread(alice, "civil")
	w, env = s.do(http.MethodPost, "/api/v1/threads/"+th.ID+"/replies", gin.H{"content": strings.Repeat("&", 3000)}, alice)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 40024, env.Code)
	w, _ = s.do(http.MethodPost, "/api/v1/threads/"+th.ID+"/replies", gin.H{"content": strings.Repeat("r", 3000)}, alice)
	assert.Equal(t, http.StatusCreated, w.Code)

	w, env = s.do(http.MethodPost, "/api/v1/messages", gin.H{"recipient": "bob", "subject": strings.Repeat("&", 200), "content": "hi"}, alice)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 40042, env.Code)
	w, env = s.do(http.MethodPost, "/api/v1/messages", gin.H{"recipient": "bob", "subject": "<i></i>", "content": "hi"}, alice)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 40042, env.Code)
	w, _ = s.do(http.MethodPost, "/api/v1/messages", gin.H{"recipient": "bob", "subject": strings.Repeat("s", 200), "content": "hi"}, alice)
	assert.Equal(t, http.StatusCreated, w.Code)

	violation := "/api/v1/admin/threads/" + th.ID + "/violation"
	w, env = s.do(http.MethodPost, violation, gin.H{"reason": strings.Repeat("&", 500)}, root)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 40070, env.Code)
	assert.False(t, s.getThread(th.ID).IsViolation)
	w, _ = s.do(http.MethodPost, violation, gin.H{"reason": strings.Repeat("v", 500)}, root)
	assert.Equal(t, http.StatusOK, w.Code)
}
