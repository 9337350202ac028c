package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/opsdesk-api/internal/constants"
)

func newRouter(sessionValue interface{}, logger zerolog.Logger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(sessions.Sessions(constants.SessionCookieName, cookie.NewStore([]byte("secret"))))
	r.Use(RequestLogger(logger))
	r.Use(func(c *gin.Context) {
		if sessionValue != nil {
			sessions.Default(c).Set(constants.ContextKeyUserID, sessionValue)
		}
		c.Next()
	})
	r.GET("/me", RequireAuth(), func(c *gin.Context) {
		id, ok := GetUserID(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id})
	})
	return r
}

func TestRequireAuth(t *testing.T) {
	tests := []struct {
		name   string
		value  interface{}
		want   int
		wantID uint64
	}{
		{name: "no session", value: nil, want: http.StatusUnauthorized},
		{name: "uint64", value: uint64(7), want: http.StatusOK, wantID: 7},
		{name: "json number", value: float64(9), want: http.StatusOK, wantID: 9},
		{name: "zero", value: uint64(0), want: http.StatusUnauthorized},
		{name: "negative", value: -3, want: http.StatusUnauthorized},
		{name: "string", value: "7", want: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRouter(tt.value, zerolog.Nop())
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))

			require.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusOK {
				var body struct {
					ID uint64 `json:"id"`
				}
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.Equal(t, tt.wantID, body.ID)
			}
		})
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	r := newRouter(nil, zerolog.New(&buf))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	require.Equal(t, http.StatusUnauthorized, w.Code)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "/me", entry["path"])
	assert.Equal(t, float64(http.StatusUnauthorized), entry["status"])
	assert.NotContains(t, entry, "user_id")
}
