package router

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/special-academy-api/internal/activity"
	"github.com/iliyamo/special-academy-api/internal/cache"
	"github.com/iliyamo/special-academy-api/internal/config"
	"github.com/iliyamo/special-academy-api/internal/handler"
	"github.com/iliyamo/special-academy-api/internal/model"
	"github.com/iliyamo/special-academy-api/internal/repository"
	"github.com/iliyamo/special-academy-api/internal/service"
)

// syncSink writes records immediately so assertions need no waiting.
type syncSink struct {
	repo repository.ActivityLogRepository
}

func (s syncSink) Submit(l model.ActivityLog) bool {
	return s.repo.Create(context.Background(), &l) == nil
}
func (s syncSink) Stats() activity.Stats { return activity.Stats{Sink: "sync"} }
func (s syncSink) Close(context.Context) error { return nil }

// fakeUploader returns a predictable URL built from the file name.
type fakeUploader struct{ calls int }

func (f *fakeUploader) Upload(_ context.Context, fh *multipart.FileHeader) (string, error) {
	f.calls++
	return "https://i.ibb.co/test/" + fh.Filename, nil
}

type testEnv struct {
	e        *echo.Echo
	store    *repository.Store
	uploader *fakeUploader
	admin    *model.User
	user     *model.User
	adminTok string
	userTok  string
}

func newTestEnv(t *testing.T, opts ...func(*Deps)) *testEnv {
	t.Helper()
	log := zap.NewNop()
	store := repository.NewMemoryStore()
	tokens := service.NewTokenService("access-secret", "refresh-secret", time.Hour, 24*time.Hour)
	auth := service.NewAuthService(store.Users, tokens, 4, false)
	act := activity.NewLogger(syncSink{repo: store.ActivityLogs}, log)
	up := &fakeUploader{}

	cfg := config.Config{StoreTimeout: 2 * time.Second}
	env := &testEnv{store: store, uploader: up}
	d := Deps{
		Config:  cfg,
		Log:     log,
		Tokens:  tokens,
		Users:   store.Users,
		Auth:    handler.NewAuthHandler(auth, act, cfg.StoreTimeout, log),
		Content: handler.NewContentHandler(store, up, act, cfg.StoreTimeout, log),
		People:  handler.NewUserHandler(store.Users, auth, act, cfg.StoreTimeout, log),
		Admin:   handler.NewAdminHandler(store, act, cfg.StoreTimeout, log),
	}
	for _, opt := range opts {
		opt(&d)
	}
	env.e = New(d)

	ctx := context.Background()
	var err error
	env.admin, err = auth.CreateUser(ctx, service.UserInput{FullName: "Admin", Email: "admin@example.com", Password: "secret1", Role: model.RoleAdmin})
	require.NoError(t, err)
	env.user, err = auth.CreateUser(ctx, service.UserInput{FullName: "Reader", Email: "reader@example.com", Password: "secret1"})
	require.NoError(t, err)

	at, err := tokens.IssueAccessToken(env.admin.ID, env.admin.Role)
	require.NoError(t, err)
	ut, err := tokens.IssueAccessToken(env.user.ID, env.user.Role)
	require.NoError(t, err)
	env.adminTok, env.userTok = at.Token, ut.Token
	return env
}

func (env *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		bs, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(bs)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) multipart(t *testing.T, method, path, token string, fields map[string]string, fileName string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if fileName != "" {
		fw, err := w.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = fw.Write([]byte("%PDF-1.4 test"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type msgBody struct {
	Message string `json:"message"`
}

type validationBody struct {
	Success bool              `json:"success"`
	Errors  map[string]string `json:"errors"`
}

func (env *testEnv) createCategory(t *testing.T, name string) model.Category {
	t.Helper()
	rec := env.do(t, http.MethodPost, "/api/categories", env.adminTok, map[string]string{"name": name})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[model.Category](t, rec)
}

func (env *testEnv) createSubcategory(t *testing.T, categoryID, name string) model.Subcategory {
	t.Helper()
	rec := env.do(t, http.MethodPost, "/api/subcategories", env.adminTok, map[string]string{"category_id": categoryID, "name": name})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[model.Subcategory](t, rec)
}

func TestHealthAndRoot(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestContentWritesRequireAdmin(t *testing.T) {
	env := newTestEnv(t)
	body := map[string]string{"name": "Math"}

	rec := env.do(t, http.MethodPost, "/api/categories", "", body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/categories", env.userTok, body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/categories", env.adminTok, body)
	assert.Equal(t, http.StatusCreated, rec.Code)

	// reads only need a valid token
	rec = env.do(t, http.MethodGet, "/api/categories", env.userTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cats := decode[[]model.Category](t, rec)
	require.Len(t, cats, 1)
	assert.Equal(t, "Math", cats[0].Name)

	rec = env.do(t, http.MethodGet, "/api/categories", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCategoryLifecycle(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/categories", env.adminTok, map[string]string{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	vb := decode[validationBody](t, rec)
	assert.False(t, vb.Success)
	assert.Equal(t, "Name is required", vb.Errors["name"])

	rec = env.do(t, http.MethodPost, "/api/categories", env.adminTok, map[string]string{"_id": "cat-1", "name": "Science"})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = env.do(t, http.MethodPost, "/api/categories", env.adminTok, map[string]string{"_id": "cat-1", "name": "Again"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/categories/cat-1", env.adminTok, map[string]string{"description": "Lab work"})
	require.Equal(t, http.StatusOK, rec.Code)
	cat := decode[model.Category](t, rec)
	assert.Equal(t, "Science", cat.Name, "empty fields keep their stored value")
	assert.Equal(t, "Lab work", cat.Description)

	rec = env.do(t, http.MethodGet, "/api/categories/missing", env.userTok, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Category not found", decode[msgBody](t, rec).Message)

	rec = env.do(t, http.MethodDelete, "/api/categories/cat-1", env.adminTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Category removed", decode[msgBody](t, rec).Message)
}

func TestDeleteRefusesOrphans(t *testing.T) {
	env := newTestEnv(t)
	cat := env.createCategory(t, "Languages")
	sub := env.createSubcategory(t, cat.ID, "French")

	rec := env.do(t, http.MethodPost, "/api/items", env.adminTok, map[string]string{
		"subcategory_id": sub.ID, "title": "Lesson 1", "type": model.ItemTypeYouTube,
		"youtube_url": "https://www.youtube.com/watch?v=abc",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	item := decode[model.Item](t, rec)

	rec = env.do(t, http.MethodDelete, "/api/categories/"+cat.ID, env.adminTok, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Cannot delete category with existing subcategories", decode[msgBody](t, rec).Message)

	rec = env.do(t, http.MethodDelete, "/api/subcategories/"+sub.ID, env.adminTok, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/items/"+item.ID, env.adminTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodDelete, "/api/subcategories/"+sub.ID, env.adminTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodDelete, "/api/categories/"+cat.ID, env.adminTok, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSubcategoryParentMustExist(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/subcategories", env.adminTok, map[string]string{"category_id": "nope", "name": "Orphan"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Category not found", decode[msgBody](t, rec).Message)

	cat := env.createCategory(t, "History")
	sub := env.createSubcategory(t, cat.ID, "Ancient")

	rec = env.do(t, http.MethodGet, "/api/subcategories/"+sub.ID, env.userTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[model.Subcategory](t, rec)
	require.NotNil(t, got.Category)
	assert.Equal(t, "History", got.Category.Name)
}

func TestItemPayloadRules(t *testing.T) {
	env := newTestEnv(t)
	cat := env.createCategory(t, "Art")
	sub := env.createSubcategory(t, cat.ID, "Drawing")

	tests := []struct {
		name  string
		body  map[string]string
		field string
		msg   string
	}{
		{"pdf without file", map[string]string{"subcategory_id": sub.ID, "title": "Sketching", "type": "pdf"}, "file_path", "A PDF file is required"},
		{"youtube without url", map[string]string{"subcategory_id": sub.ID, "title": "Shading", "type": "youtube_url"}, "youtube_url", "A YouTube URL is required"},
		{"bad youtube url", map[string]string{"subcategory_id": sub.ID, "title": "Shading", "type": "youtube_url", "youtube_url": "https://vimeo.com/1"}, "youtube_url", "Invalid YouTube URL"},
		{"unknown type", map[string]string{"subcategory_id": sub.ID, "title": "Shading", "type": "mp3"}, "type", "Type must be either 'pdf' or 'youtube_url'"},
		{"missing title", map[string]string{"subcategory_id": sub.ID, "type": "youtube_url", "youtube_url": "https://youtu.be/x"}, "title", "Title is required"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/items", env.adminTok, tc.body)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Equal(t, tc.msg, decode[validationBody](t, rec).Errors[tc.field])
		})
	}
	assert.Zero(t, env.uploader.calls, "nothing is uploaded for rejected requests")

	rec := env.do(t, http.MethodPost, "/api/items", env.adminTok, map[string]string{
		"subcategory_id": "ghost", "title": "Lost", "type": "youtube_url", "youtube_url": "https://youtu.be/x",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Subcategory not found", decode[msgBody](t, rec).Message)
}

func TestItemPDFNeedsRealUpload(t *testing.T) {
	env := newTestEnv(t)
	cat := env.createCategory(t, "Chemistry")
	sub := env.createSubcategory(t, cat.ID, "Acids")

	// a form value cannot stand in for the uploaded file
	rec := env.multipart(t, http.MethodPost, "/api/items", env.adminTok, map[string]string{
		"subcategory_id": sub.ID, "title": "Titration", "type": "pdf", "-": "x.pdf", "file_path": "x.pdf",
	}, "")
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Equal(t, "A PDF file is required", decode[validationBody](t, rec).Errors["file_path"])
	assert.Zero(t, env.uploader.calls)
}

func TestItemUploadAndTypeSwitch(t *testing.T) {
	env := newTestEnv(t)
	cat := env.createCategory(t, "Physics")
	sub := env.createSubcategory(t, cat.ID, "Optics")

	rec := env.multipart(t, http.MethodPost, "/api/items", env.adminTok, map[string]string{
		"subcategory_id": sub.ID, "title": "Lenses", "type": "pdf",
	}, "lenses.pdf")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	item := decode[model.Item](t, rec)
	assert.Equal(t, "https://i.ibb.co/test/lenses.pdf", item.FilePath)
	assert.Empty(t, item.YoutubeURL)
	assert.Equal(t, 1, env.uploader.calls)

	rec = env.do(t, http.MethodGet, "/api/items/"+item.ID, env.userTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[model.Item](t, rec)
	require.NotNil(t, got.Subcategory)
	assert.Equal(t, "Optics", got.Subcategory.Name)

	// switching to youtube without a URL is rejected
	rec = env.do(t, http.MethodPut, "/api/items/"+item.ID, env.adminTok, map[string]string{"type": "youtube_url"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "A YouTube URL is required", decode[validationBody](t, rec).Errors["youtube_url"])

	rec = env.do(t, http.MethodPut, "/api/items/"+item.ID, env.adminTok, map[string]string{
		"type": "youtube_url", "youtube_url": "https://youtu.be/optics",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got = decode[model.Item](t, rec)
	assert.Equal(t, "https://youtu.be/optics", got.YoutubeURL)
	assert.Empty(t, got.FilePath, "the other payload is cleared")
	assert.Equal(t, "Lenses", got.Title)

	// back to pdf needs a new file
	rec = env.do(t, http.MethodPut, "/api/items/"+item.ID, env.adminTok, map[string]string{"type": "pdf"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "A PDF file is required", decode[validationBody](t, rec).Errors["file_path"])
}

func TestAuthFlow(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"fullName": "Student", "email": "Student@Example.com", "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	reg := decode[map[string]any](t, rec)
	assert.Equal(t, "student@example.com", reg["email"])
	assert.Equal(t, model.RoleUser, reg["role"])
	assert.Equal(t, reg["token"], reg["accessToken"])

	rec = env.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"fullName": "Student", "email": "student@example.com", "password": "secret1",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "User already exists", decode[msgBody](t, rec).Message)

	rec = env.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"fullName": "Boss", "email": "boss@example.com", "password": "secret1", "role": "admin",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "student@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid email or password", decode[msgBody](t, rec).Message)

	rec = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "student@example.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, rec.Code)
	login := decode[map[string]any](t, rec)
	first := login["refreshToken"].(string)
	access := login["accessToken"].(string)

	rec = env.do(t, http.MethodPost, "/api/auth/refresh-token", "", map[string]string{"refreshToken": first})
	require.Equal(t, http.StatusOK, rec.Code)
	second := decode[map[string]any](t, rec)["refreshToken"].(string)
	assert.NotEqual(t, first, second)

	// the rotated token is single use
	rec = env.do(t, http.MethodPost, "/api/auth/refresh-token", "", map[string]string{"refreshToken": first})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/auth/refresh-token", "", map[string]string{"refreshToken": "garbage"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/auth/me", access, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[map[string]any](t, rec)
	assert.Equal(t, "student@example.com", me["email"])
	assert.NotContains(t, me, "password")

	rec = env.do(t, http.MethodPost, "/api/auth/logout", access, map[string]string{"userId": env.user.ID})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/auth/logout", access, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Logged out successfully", decode[msgBody](t, rec).Message)

	rec = env.do(t, http.MethodPost, "/api/auth/refresh-token", "", map[string]string{"refreshToken": second})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminCanLogOutAnotherUser(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/auth/logout", env.adminTok, map[string]string{"userId": env.user.ID})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/auth/logout", env.adminTok, map[string]string{"userId": "ghost"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUserManagement(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/users", env.userTok, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/users", env.adminTok, map[string]string{
		"fullName": "Editor", "email": "editor@example.com", "password": "secret1", "role": "admin",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[model.User](t, rec)
	assert.Equal(t, model.RoleAdmin, created.Role)

	rec = env.do(t, http.MethodPost, "/api/users", env.adminTok, map[string]string{
		"fullName": "Editor", "email": "editor@example.com", "password": "secret1",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/users/"+created.ID, env.adminTok, map[string]string{"email": "reader@example.com"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/users/"+created.ID, env.adminTok, map[string]string{"fullName": "   "})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Full name cannot be empty", decode[validationBody](t, rec).Errors["fullName"])

	rec = env.do(t, http.MethodPut, "/api/users/"+created.ID, env.adminTok, map[string]string{"fullName": "Chief Editor"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Chief Editor", decode[model.User](t, rec).FullName)

	rec = env.do(t, http.MethodGet, "/api/users", env.adminTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]model.User](t, rec), 3)

	rec = env.do(t, http.MethodDelete, "/api/users/"+created.ID, env.adminTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodGet, "/api/users/"+created.ID, env.adminTok, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatsAndActivityLogs(t *testing.T) {
	env := newTestEnv(t)
	cat := env.createCategory(t, "Music")
	env.createSubcategory(t, cat.ID, "Piano")

	rec := env.do(t, http.MethodGet, "/api/stats", env.userTok, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/stats", env.adminTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[map[string]int64](t, rec)
	assert.Equal(t, map[string]int64{"users": 2, "categories": 1, "subcategories": 1, "items": 0}, stats)

	rec = env.do(t, http.MethodGet, "/api/activity-logs?entity=category", env.adminTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-Total-Count"))
	logs := decode[[]model.ActivityLog](t, rec)
	require.Len(t, logs, 1)
	assert.Equal(t, env.admin.ID, logs[0].AdminID)
	assert.Equal(t, model.ActionCreate, logs[0].Action)
	assert.Equal(t, cat.ID, logs[0].EntityID)

	rec = env.do(t, http.MethodGet, "/api/activity-logs?action=explode", env.adminTok, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.True(t, strings.HasPrefix(decode[validationBody](t, rec).Errors["action"], "Action must be one of"))

	rec = env.do(t, http.MethodGet, "/api/activity-logs/metrics", env.adminTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "sync", decode[activity.Stats](t, rec).Sink)
}

func TestCachedReadsKeepSingleCORSHeaders(t *testing.T) {
	const origin = "https://app.example.com"
	env := newTestEnv(t, func(d *Deps) {
		d.Config.CORSOrigins = []string{origin}
		d.Config.Cache = config.CacheConfig{
			Enabled:      true,
			Backend:      "memory",
			Methods:      map[string]bool{http.MethodGet: true},
			TTL:          time.Minute,
			KeyStrategy:  "method_route_query_role",
			Prefix:       "test",
			MaxBodyBytes: 1 << 20,
		}
		d.Cache = cache.NewMemoryStore()
	})
	env.createCategory(t, "Geography")

	get := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/categories", nil)
		req.Header.Set(echo.HeaderOrigin, origin)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+env.userTok)
		rec := httptest.NewRecorder()
		env.e.ServeHTTP(rec, req)
		return rec
	}

	first := get()
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))

	second := get()
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, []string{origin}, second.Header().Values(echo.HeaderAccessControlAllowOrigin))
	assert.Equal(t, []string{"true"}, second.Header().Values(echo.HeaderAccessControlAllowCredentials))
	assert.Len(t, second.Header().Values(echo.HeaderXRequestID), 1)
	assert.NotEqual(t, first.Header().Get(echo.HeaderXRequestID), second.Header().Get(echo.HeaderXRequestID))
	assert.Equal(t, []string{echo.MIMEApplicationJSON}, second.Header().Values(echo.HeaderContentType))
	assert.JSONEq(t, first.Body.String(), second.Body.String())
}
