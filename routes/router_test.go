package routes_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cppla/blog/config"
	"github.com/cppla/blog/models"
	"github.com/cppla/blog/routes"
	"github.com/cppla/blog/testutil"
	"github.com/cppla/blog/utils"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type apiClient struct {
	t  *testing.T
	r  *gin.Engine
	db *gorm.DB
}

func newClient(t *testing.T) *apiClient {
	t.Helper()
	db := testutil.NewDB(t)
	return &apiClient{t: t, r: routes.SetupRouter(db), db: db}
}

func (c *apiClient) do(method, path, token string, body interface{}) (int, envelope) {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	c.r.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(c.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

func (c *apiClient) token(username string, roles ...string) string {
	c.t.Helper()
	return testutil.Token(c.t, testutil.CreateUser(c.t, c.db, username, roles...))
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

type idOnly struct {
	ID     uint `json:"id"`
	PostID uint `json:"post_id"`
}

// seed creates a category and a post through the API and returns their ids.
func (c *apiClient) seed(admin string) (uint, uint) {
	c.t.Helper()
	status, env := c.do(http.MethodPost, "/api/categories", admin, map[string]interface{}{"name": "golang", "description": "all about go"})
	require.Equal(c.t, http.StatusCreated, status, env.Message)
	cat := decode[idOnly](c.t, env)

	status, env = c.do(http.MethodPost, "/api/posts", admin, map[string]interface{}{
		"title": "hello", "description": "first post", "content": "hello world", "category_id": cat.ID,
	})
	require.Equal(c.t, http.StatusCreated, status, env.Message)
	return cat.ID, decode[idOnly](c.t, env).ID
}

func TestHealthAndMetrics(t *testing.T) {
	c := newClient(t)

	status, env := c.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, 0, env.Code)

	w := httptest.NewRecorder()
	c.r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "blog_http_requests_total")
}

func TestUnknownRouteAndBadIDs(t *testing.T) {
	c := newClient(t)

	status, env := c.do(http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, 40400, env.Code)

	status, env = c.do(http.MethodGet, "/api/posts/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, 40002, env.Code)

	status, _ = c.do(http.MethodGet, "/api/posts/42", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestRegisterLoginMeLogout(t *testing.T) {
	c := newClient(t)
	reg := map[string]string{"name": "Ann", "username": "ann", "email": "ann@example.com", "password": "secret1"}

	status, env := c.do(http.MethodPost, "/api/register", "", reg)
	require.Equal(t, http.StatusCreated, status, env.Message)
	assert.Equal(t, "User registered successfully!", env.Message)

	status, env = c.do(http.MethodPost, "/api/register", "", reg)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Username already exists", env.Message)

	status, _ = c.do(http.MethodPost, "/api/register", "", map[string]string{"name": "x", "username": "x", "email": "not-an-email", "password": "secret1"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = c.do(http.MethodPost, "/api/login", "", map[string]string{"username_or_email": "ann", "password": "bad"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, env = c.do(http.MethodPost, "/api/login", "", map[string]string{"username_or_email": "ann@example.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, status)
	tok := decode[struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}](t, env)
	assert.Equal(t, "Bearer", tok.TokenType)

	status, env = c.do(http.MethodGet, "/api/me", tok.AccessToken, nil)
	require.Equal(t, http.StatusOK, status)
	me := decode[struct {
		Username string   `json:"username"`
		Roles    []string `json:"roles"`
	}](t, env)
	assert.Equal(t, "ann", me.Username)
	assert.Equal(t, []string{models.RoleUser}, me.Roles)

	status, _ = c.do(http.MethodPost, "/api/logout", tok.AccessToken, nil)
	assert.Equal(t, http.StatusOK, status)

	status, env = c.do(http.MethodGet, "/api/me", tok.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, 40104, env.Code)
}

func TestRouteGating(t *testing.T) {
	c := newClient(t)
	user := c.token("ann", models.RoleUser)
	admin := c.token("root", models.RoleUser, models.RoleAdmin)
	body := map[string]string{"name": "misc", "description": "miscellany"}

	status, _ := c.do(http.MethodPost, "/api/categories", "", body)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = c.do(http.MethodPost, "/api/categories", user, body)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = c.do(http.MethodPost, "/api/categories", admin, body)
	assert.Equal(t, http.StatusCreated, status)

	status, _ = c.do(http.MethodGet, "/api/categories", "", nil)
	assert.Equal(t, http.StatusOK, status)

	_, postID := c.seed(admin)
	path := fmt.Sprintf("/api/posts/%d", postID)
	status, _ = c.do(http.MethodDelete, path, user, nil)
	assert.Equal(t, http.StatusForbidden, status)

	comment := map[string]string{"name": "ann", "email": "ann@example.com", "body": "great read"}
	status, _ = c.do(http.MethodPost, path+"/comments", "", comment)
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = c.do(http.MethodPost, path+"/comments", user, comment)
	assert.Equal(t, http.StatusCreated, status)
}

func TestTokenValidationErrors(t *testing.T) {
	c := newClient(t)
	testutil.CreateUser(t, c.db, "ann", models.RoleUser)

	expired, err := utils.GenerateToken(1, "ann", -time.Minute)
	require.NoError(t, err)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "ann",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		msg   string
	}{
		{name: "malformed", token: "abc.def", msg: "Invalid JWT token"},
		{name: "expired", token: expired, msg: "Expired JWT token"},
		{name: "unsupported", token: none, msg: "Unsupported JWT token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := c.do(http.MethodGet, "/api/me", tt.token, nil)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, tt.msg, env.Message)
		})
	}
}

func TestCommentBelongsToPost(t *testing.T) {
	c := newClient(t)
	admin := c.token("root", models.RoleUser, models.RoleAdmin)
	catID, firstID := c.seed(admin)

	status, env := c.do(http.MethodPost, "/api/posts", admin, map[string]interface{}{
		"title": "second", "description": "second post", "content": "more", "category_id": catID,
	})
	require.Equal(t, http.StatusCreated, status)
	secondID := decode[idOnly](t, env).ID

	status, env = c.do(http.MethodPost, fmt.Sprintf("/api/posts/%d/comments", firstID), admin,
		map[string]string{"name": "ann", "email": "ann@example.com", "body": "great read"})
	require.Equal(t, http.StatusCreated, status)
	commentID := decode[idOnly](t, env).ID

	wrong := fmt.Sprintf("/api/posts/%d/comments/%d", secondID, commentID)
	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		status, env = c.do(method, wrong, admin, nil)
		assert.Equal(t, http.StatusBadRequest, status, method)
		assert.Equal(t, "Comment does not belong to post", env.Message)
	}

	right := fmt.Sprintf("/api/posts/%d/comments/%d", firstID, commentID)
	status, env = c.do(http.MethodDelete, right, admin, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, commentID, decode[idOnly](t, env).ID)

	status, _ = c.do(http.MethodGet, right, "", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestPostPaging(t *testing.T) {
	c := newClient(t)
	admin := c.token("root", models.RoleUser, models.RoleAdmin)
	catID, _ := c.seed(admin)
	for i := 0; i < 4; i++ {
		status, _ := c.do(http.MethodPost, "/api/posts", admin, map[string]interface{}{
			"title": fmt.Sprintf("post %d", i), "description": "paged post", "content": "c", "category_id": catID,
		})
		require.Equal(t, http.StatusCreated, status)
	}

	status, env := c.do(http.MethodGet, "/api/posts?page=1&size=2&sortBy=id&sortDir=desc", "", nil)
	require.Equal(t, http.StatusOK, status)
	page := decode[struct {
		Content       []idOnly `json:"content"`
		Page          int      `json:"page"`
		Size          int      `json:"size"`
		TotalElements int64    `json:"total_elements"`
		TotalPages    int      `json:"total_pages"`
		Last          bool     `json:"last"`
	}](t, env)
	assert.Len(t, page.Content, 2)
	assert.Equal(t, 1, page.Page)
	assert.EqualValues(t, 5, page.TotalElements)
	assert.Equal(t, 3, page.TotalPages)
	assert.False(t, page.Last)
	assert.Greater(t, page.Content[0].ID, page.Content[1].ID)

	for _, q := range []string{"page=-1", "size=0", "size=500", "sortBy=secret", "page=abc"} {
		status, _ = c.do(http.MethodGet, "/api/posts?"+q, "", nil)
		assert.Equal(t, http.StatusBadRequest, status, q)
	}

	status, env = c.do(http.MethodGet, fmt.Sprintf("/api/categories/%d/posts", catID), "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]idOnly](t, env), 5)
}

func TestDeleteCascadesAndCategoryGuard(t *testing.T) {
	c := newClient(t)
	admin := c.token("root", models.RoleUser, models.RoleAdmin)
	catID, postID := c.seed(admin)

	catPath := fmt.Sprintf("/api/categories/%d", catID)
	status, env := c.do(http.MethodDelete, catPath, admin, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "category still has posts", env.Message)

	status, _ = c.do(http.MethodDelete, fmt.Sprintf("/api/posts/%d", postID), admin, nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = c.do(http.MethodDelete, catPath, admin, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = c.do(http.MethodDelete, catPath, admin, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestPostResponseCache(t *testing.T) {
	c := newClient(t)
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	utils.SetRedis(rc)
	t.Cleanup(func() {
		utils.SetRedis(nil)
		_ = rc.Close()
	})

	admin := c.token("root", models.RoleUser, models.RoleAdmin)
	catID, postID := c.seed(admin)
	path := fmt.Sprintf("/api/posts/%d", postID)
	key := fmt.Sprintf("cache:post:detail:%d", postID)

	status, _ := c.do(http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, mr.Exists(key))

	status, env := c.do(http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, postID, decode[idOnly](t, env).ID)

	status, _ = c.do(http.MethodPut, path, admin, map[string]interface{}{
		"title": "edited", "description": "edited post", "content": "new", "category_id": catID,
	})
	require.Equal(t, http.StatusOK, status)
	assert.False(t, mr.Exists(key))

	status, env = c.do(http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "edited", decode[struct {
		Title string `json:"title"`
	}](t, env).Title)
}

func TestForwardedForDoesNotResetRateLimit(t *testing.T) {
	db := testutil.NewDB(t)
	cfg := config.Get()
	cfg.RateLimitPerMinute = 2
	config.Override(cfg)
	r := routes.SetupRouter(db)

	login := func(forwardedFor string) int {
		body := strings.NewReader(`{"username_or_email":"ann","password":"bad"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/login", body)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", forwardedFor)
		req.RemoteAddr = "192.0.2.10:40000"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusUnauthorized, login("203.0.113.1"))
	assert.Equal(t, http.StatusTooManyRequests, login("203.0.113.2"))
}

func TestOverlongFieldsRejected(t *testing.T) {
	c := newClient(t)
	admin := c.token("root", models.RoleUser, models.RoleAdmin)
	catID, postID := c.seed(admin)
	long := func(n int) string { return strings.Repeat("a", n) }
	longEmail := long(250) + "@x.io"

	tests := []struct {
		name string
		path string
		body map[string]interface{}
	}{
		{
			name: "category name",
			path: "/api/categories",
			body: map[string]interface{}{"name": long(129), "description": "all about go"},
		},
		{
			name: "category description",
			path: "/api/categories",
			body: map[string]interface{}{"name": "golang", "description": long(513)},
		},
		{
			name: "post title",
			path: "/api/posts",
			body: map[string]interface{}{"title": long(256), "description": "first post", "content": "body", "category_id": catID},
		},
		{
			name: "post description",
			path: "/api/posts",
			body: map[string]interface{}{"title": "hello", "description": long(513), "content": "body", "category_id": catID},
		},
		{
			name: "comment name",
			path: fmt.Sprintf("/api/posts/%d/comments", postID),
			body: map[string]interface{}{"name": long(129), "email": "ann@example.com", "body": "nice post"},
		},
		{
			name: "comment email",
			path: fmt.Sprintf("/api/posts/%d/comments", postID),
			body: map[string]interface{}{"name": "ann", "email": longEmail, "body": "nice post"},
		},
		{
			name: "register name",
			path: "/api/register",
			body: map[string]interface{}{"name": long(129), "username": "longname", "email": "long@example.com", "password": "secret1"},
		},
		{
			name: "register email",
			path: "/api/register",
			body: map[string]interface{}{"name": "Long", "username": "longmail", "email": longEmail, "password": "secret1"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := c.do(http.MethodPost, tt.path, admin, tt.body)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, 40000, env.Code)
		})
	}
}

func TestPublicReadsIgnoreBearerToken(t *testing.T) {
	c := newClient(t)

	for _, tok := range []string{"abc.def", "not-a-jwt"} {
		status, env := c.do(http.MethodGet, "/api/categories", tok, nil)
		assert.Equal(t, http.StatusOK, status, env.Message)
	}
}
