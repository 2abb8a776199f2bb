package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSigner() Signer {
	return Signer{Issuer: "test", Key: []byte("secret"), TTL: time.Hour}
}

func TestIssueAndParse(t *testing.T) {
	s := testSigner()
	tok, exp, err := s.Issue("abc", time.Now())
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, time.Second)

	id, err := s.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "abc", id)
}

func TestParseRejects(t *testing.T) {
	s := testSigner()
	expired, _, err := s.Issue("abc", time.Now().Add(-2*time.Hour))
	require.NoError(t, err)
	_, err = s.Parse(expired)
	assert.Error(t, err)

	other := Signer{Issuer: "other", Key: s.Key, TTL: time.Hour}
	tok, _, err := other.Issue("abc", time.Now())
	require.NoError(t, err)
	_, err = s.Parse(tok)
	assert.Error(t, err, "issuer mismatch")

	wrongKey := Signer{Issuer: "test", Key: []byte("nope"), TTL: time.Hour}
	tok, _, err = wrongKey.Issue("abc", time.Now())
	require.NoError(t, err)
	_, err = s.Parse(tok)
	assert.Error(t, err)
}

func TestSessionMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := testSigner()
	r := gin.New()
	r.Use(Session(s, false))
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, SessionID(c)) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	first := w.Body.String()
	assert.NotEmpty(t, first)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.True(t, cookies[0].HttpOnly)

	// returning with the cookie keeps the same session
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, first, w.Body.String())
	assert.Empty(t, w.Result().Cookies())

	// a forged cookie gets a fresh session
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "garbage"})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.NotEqual(t, first, w.Body.String())
}

func TestRateKeyFallsBackForIssuedSessions(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Session(testSigner(), false))
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, RateKey(c)) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String(), "new session is charged to the client IP")
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.NotEmpty(t, w.Body.String())
}
