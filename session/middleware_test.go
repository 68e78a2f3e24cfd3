package session

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/leeforge/captchakit/logging"
)

func TestSignVerify(t *testing.T) {
	secret := []byte("s3cret")
	sid := uuid.NewString()

	token := Sign(secret, sid)
	got, ok := Verify(secret, token)
	if !ok || got != sid {
		t.Fatalf("Verify(Sign(sid)) = (%q, %v)", got, ok)
	}

	if _, ok := Verify([]byte("other"), token); ok {
		t.Fatal("token signed with another secret must not verify")
	}
	if _, ok := Verify(secret, sid+".tampered"); ok {
		t.Fatal("tampered signature must not verify")
	}
	if _, ok := Verify(secret, Sign(secret, "not-a-uuid")); ok {
		t.Fatal("non-uuid session ids are rejected")
	}
}

func TestMiddleware_IssuesAndReusesSession(t *testing.T) {
	opts := CookieOptions{Secret: "k"}
	var (
		seen      []string
		returning []bool
	)
	h := Middleware(opts)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid := IDFromContext(r.Context())
		if got := logging.GetSessionID(r.Context()); got != sid {
			t.Errorf("log session id = %q, want %q", got, sid)
		}
		seen = append(seen, sid)
		returning = append(returning, Returning(r.Context()))
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	cookies := rr.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != "captcha_session" {
		t.Fatalf("expected one session cookie, got %+v", cookies)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	h.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderName, rr.Header().Get(HeaderName))
	h.ServeHTTP(httptest.NewRecorder(), req)

	if len(seen) != 3 || seen[0] == "" || seen[0] != seen[1] || seen[1] != seen[2] {
		t.Fatalf("session id should be stable across requests, got %v", seen)
	}
	if returning[0] || !returning[1] || !returning[2] {
		t.Fatalf("returning = %v, want [false true true]", returning)
	}
}
