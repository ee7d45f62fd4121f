package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/contratpro/internal/auth"
	"github.com/nurpe/contratpro/internal/model"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type staticParser struct {
	token     string
	principal *model.Principal
}

func (p staticParser) Authenticate(token string) (*model.Principal, error) {
	if token != p.token {
		return nil, errors.New("bad token")
	}
	return p.principal, nil
}

func newAuthRouter(mw gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.GET("/", mw, func(c *gin.Context) {
		p, ok := Principal(c)
		fromCtx, _ := auth.FromContext(c.Request.Context())
		if !ok {
			c.JSON(http.StatusOK, gin.H{"anonymous": true, "ctx": fromCtx != nil})
			return
		}
		c.JSON(http.StatusOK, gin.H{"email": p.Email, "ctx": fromCtx == p})
	})
	return r
}

func do(r http.Handler, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuth(t *testing.T) {
	parser := staticParser{token: "good", principal: &model.Principal{UserID: uuid.New(), Email: "a@b.c"}}
	r := newAuthRouter(Auth(parser))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid token", "Bearer good", http.StatusOK},
		{"lowercase scheme", "bearer good", http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"missing scheme", "good", http.StatusUnauthorized},
		{"invalid token", "Bearer bad", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, do(r, tt.header).Code)
		})
	}

	w := do(r, "Bearer good")
	assert.JSONEq(t, `{"email":"a@b.c","ctx":true}`, w.Body.String())
}

func TestOptionalAuth(t *testing.T) {
	parser := staticParser{token: "good", principal: &model.Principal{UserID: uuid.New(), Email: "a@b.c"}}
	r := newAuthRouter(OptionalAuth(parser))

	w := do(r, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"anonymous":true,"ctx":false}`, w.Body.String())

	w = do(r, "Bearer good")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"email":"a@b.c","ctx":true}`, w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, do(r, "Bearer bad").Code)
}

func TestRequestIDAndLogger(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	r := gin.New()
	r.Use(RequestID(log), RequestLogger(log))
	r.GET("/ping", func(c *gin.Context) {
		zerolog.Ctx(c.Request.Context()).Info().Msg("inside")
		c.String(http.StatusTeapot, "pong")
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var inner, access map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &inner))
	require.NoError(t, json.Unmarshal(lines[1], &access))
	assert.Equal(t, "req-42", inner["request_id"])
	assert.Equal(t, "warn", access["level"])
	assert.Equal(t, float64(http.StatusTeapot), access["status"])
	assert.Equal(t, "/ping", access["path"])
	assert.Equal(t, "req-42", access["request_id"])
}

func TestRequestIDGenerated(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(zerolog.Nop()))
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	_, err := uuid.Parse(w.Body.String())
	assert.NoError(t, err)
	assert.Equal(t, w.Body.String(), w.Header().Get("X-Request-ID"))
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(zerolog.Nop()), Recovery(zerolog.Nop()))
	r.GET("/", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal error")
}
