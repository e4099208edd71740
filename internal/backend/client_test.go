package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/jonathan/jobplus/internal/config"
	"github.com/jonathan/jobplus/internal/fetch"
	"github.com/jonathan/jobplus/internal/schemas"
	"github.com/jonathan/jobplus/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorded is one request seen by the fake backend.
type recorded struct {
	Method      string
	Path        string
	Query       map[string]string
	ContentType string
	Body        map[string]any
}

type fakeBackend struct {
	t        *testing.T
	mu       sync.Mutex
	requests []recorded
	handlers map[string]http.HandlerFunc
}

func newFakeBackend(t *testing.T) (*fakeBackend, *httptest.Server) {
	t.Helper()
	fb := &fakeBackend{t: t, handlers: map[string]http.HandlerFunc{}}
	server := httptest.NewServer(http.HandlerFunc(fb.serve))
	t.Cleanup(server.Close)
	return fb, server
}

func (fb *fakeBackend) handle(pattern string, h http.HandlerFunc) {
	fb.handlers[pattern] = h
}

func (fb *fakeBackend) serve(w http.ResponseWriter, r *http.Request) {
	rec := recorded{
		Method:      r.Method,
		Path:        r.URL.Path,
		Query:       map[string]string{},
		ContentType: r.Header.Get("Content-Type"),
	}
	for key := range r.URL.Query() {
		rec.Query[key] = r.URL.Query().Get(key)
	}
	if data, _ := io.ReadAll(r.Body); len(data) > 0 {
		assert.NoError(fb.t, json.Unmarshal(data, &rec.Body))
	}

	fb.mu.Lock()
	fb.requests = append(fb.requests, rec)
	fb.mu.Unlock()

	if h, ok := fb.handlers[r.Method+" "+r.URL.Path]; ok {
		h(w, r)
		return
	}
	w.WriteHeader(http.StatusNotFound)
}

func (fb *fakeBackend) last() recorded {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	require.NotEmpty(fb.t, fb.requests)
	return fb.requests[len(fb.requests)-1]
}

func writeJSON(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func newClient(t *testing.T, url string) *Client {
	t.Helper()
	c, err := New(url, 0)
	require.NoError(t, err)
	return c
}

func TestNew_InvalidURL(t *testing.T) {
	_, err := New("not a url", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid backend URL")
}

func TestNew_TrimsTrailingSlash(t *testing.T) {
	c := newClient(t, "http://localhost:8080/jobplus/")
	assert.Equal(t, "http://localhost:8080/jobplus", c.baseURL)
}

func TestLogin_Success(t *testing.T) {
	fb, server := newFakeBackend(t)
	fb.handle("POST /login", writeJSON(`{"status":"OK","user_id":"u1","name":"A B"}`))

	session, err := newClient(t, server.URL).Login(context.Background(), types.LoginRequest{Username: "u1", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, &types.Session{UserID: "u1", FullName: "A B"}, session)

	req := fb.last()
	assert.Equal(t, fetch.JSONContentType, req.ContentType)
	assert.Equal(t, "u1", req.Body["user_id"])
	assert.Equal(t, config.HashPassword("u1", "secret"), req.Body["password"])
	assert.NotEqual(t, "secret", req.Body["password"])
}

func TestLogin_Rejected(t *testing.T) {
	fb, server := newFakeBackend(t)
	fb.handle("POST /login", writeJSON(`{"status":"Invalid"}`))

	_, err := newClient(t, server.URL).Login(context.Background(), types.LoginRequest{Username: "u1", Password: "bad"})
	assert.ErrorIs(t, err, ErrRejected)
}

func TestLogin_Unauthorized(t *testing.T) {
	fb, server := newFakeBackend(t)
	fb.handle("POST /login", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusUnauthorized) })

	_, err := newClient(t, server.URL).Login(context.Background(), types.LoginRequest{Username: "u1", Password: "bad"})
	require.Error(t, err)

	assert.ErrorIs(t, err, ErrRejected)
	var fetchErr *fetch.Error
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, http.StatusUnauthorized, fetchErr.StatusCode)
}

func TestValidateSession(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    *types.Session
		wantErr error
	}{
		{
			name:    "live session",
			handler: writeJSON(`{"status":"OK","user_id":"u1","name":"A B"}`),
			want:    &types.Session{UserID: "u1", FullName: "A B"},
		},
		{
			name:    "no session",
			handler: writeJSON(`{"status":"Invalid Session"}`),
			wantErr: ErrNoSession,
		},
		{
			name:    "unauthorized",
			handler: func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusUnauthorized) },
			wantErr: ErrNoSession,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb, server := newFakeBackend(t)
			fb.handle("GET /login", tt.handler)

			session, err := newClient(t, server.URL).ValidateSession(context.Background())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, session)
			assert.Empty(t, fb.last().ContentType)
		})
	}
}

func TestSessionCookieIsKept(t *testing.T) {
	fb, server := newFakeBackend(t)
	fb.handle("POST /login", func(w http.ResponseWriter, _ *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "JSESSIONID", Value: "s1", Path: "/"})
		writeJSON(`{"status":"OK","user_id":"u1","name":"A B"}`)(w, nil)
	})
	fb.handle("GET /login", func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("JSESSIONID"); err == nil && c.Value == "s1" {
			writeJSON(`{"status":"OK","user_id":"u1","name":"A B"}`)(w, r)
			return
		}
		writeJSON(`{"status":"Invalid Session"}`)(w, r)
	})

	client := newClient(t, server.URL)
	_, err := client.ValidateSession(context.Background())
	require.ErrorIs(t, err, ErrNoSession)

	_, err = client.Login(context.Background(), types.LoginRequest{Username: "u1", Password: "pw"})
	require.NoError(t, err)

	session, err := client.ValidateSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u1", session.UserID)

	other := newClient(t, server.URL)
	_, err = other.ValidateSession(context.Background())
	assert.ErrorIs(t, err, ErrNoSession, "clients do not share cookies")
}

func TestRegister(t *testing.T) {
	tests := []struct {
		name           string
		response       string
		wantRegistered bool
	}{
		{name: "registered", response: `{"status":"OK"}`, wantRegistered: true},
		{name: "taken", response: `{"status":"User Already Exists"}`, wantRegistered: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb, server := newFakeBackend(t)
			fb.handle("POST /register", writeJSON(tt.response))

			req := types.RegisterRequest{Username: "alice", Password: "pw", FirstName: "Alice", LastName: "Smith"}
			registered, err := newClient(t, server.URL).Register(context.Background(), req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantRegistered, registered)

			body := fb.last().Body
			assert.Equal(t, "alice", body["user_id"])
			assert.Equal(t, config.HashPassword("alice", "pw"), body["password"])
			assert.Equal(t, "Alice", body["first_name"])
			assert.Equal(t, "Smith", body["last_name"])
		})
	}
}

func TestRegister_Failure(t *testing.T) {
	fb, server := newFakeBackend(t)
	fb.handle("POST /register", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusInternalServerError) })

	_, err := newClient(t, server.URL).Register(context.Background(), types.RegisterRequest{Username: "a", Password: "b", FirstName: "c", LastName: "d"})
	assert.Error(t, err)
}

func TestNearby(t *testing.T) {
	fb, server := newFakeBackend(t)
	fb.handle("GET /search", writeJSON(`[
		{"item_id":"1","name":"Go Engineer","url":"https://jobs/1","image_url":"","address":"1 Main St, Springfield","keywords":["go"],"favorite":false},
		{"item_id":"2","name":"SRE","keywords":null,"favorite":true}
	]`))

	coords := types.Coordinates{Latitude: 37.38, Longitude: -122.08}
	items, err := newClient(t, server.URL).Nearby(context.Background(), "u1", coords)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Go Engineer", items[0].Name)
	assert.Equal(t, []string{"go"}, items[0].Keywords)
	assert.True(t, items[1].Favorite)

	req := fb.last()
	assert.Equal(t, map[string]string{"user_id": "u1", "lat": "37.38", "lon": "-122.08"}, req.Query)
	assert.Empty(t, req.ContentType)
}

func TestItems_NullAndEmpty(t *testing.T) {
	for _, body := range []string{`null`, `[]`, " null\n"} {
		t.Run(body, func(t *testing.T) {
			fb, server := newFakeBackend(t)
			fb.handle("GET /history", writeJSON(body))

			items, err := newClient(t, server.URL).Favorites(context.Background(), "u1")
			require.NoError(t, err)
			assert.NotNil(t, items)
			assert.Empty(t, items)
		})
	}
}

func TestItems_SchemaViolation(t *testing.T) {
	fb, server := newFakeBackend(t)
	fb.handle("GET /recommendation", writeJSON(`[{"name":"no id"}]`))

	_, err := newClient(t, server.URL).Recommended(context.Background(), "u1", types.DefaultCoordinates)
	require.Error(t, err)

	var validationErr *schemas.ValidationError
	assert.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "/recommendation", fb.last().Path)
}

func TestItems_NonOK(t *testing.T) {
	fb, server := newFakeBackend(t)
	fb.handle("GET /history", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusForbidden) })

	_, err := newClient(t, server.URL).Favorites(context.Background(), "u1")
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, fetch.StatusCode(err))
	assert.NotErrorIs(t, err, ErrNoSession)
}

func TestSetFavorite(t *testing.T) {
	tests := []struct {
		name       string
		favorite   bool
		response   string
		wantMethod string
		wantErr    error
	}{
		{name: "add with status", favorite: true, response: `{"status":"OK"}`, wantMethod: http.MethodPost},
		{name: "add with result", favorite: true, response: `{"result":"SUCCESS"}`, wantMethod: http.MethodPost},
		{name: "remove", favorite: false, response: `{"result":"SUCCESS"}`, wantMethod: http.MethodDelete},
		{name: "not applied", favorite: true, response: `{"result":"FAILED"}`, wantMethod: http.MethodPost, wantErr: ErrNotApplied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb, server := newFakeBackend(t)
			fb.handle(tt.wantMethod+" /history", writeJSON(tt.response))

			item := types.JobItem{ItemID: "42", Name: "Go Engineer"}
			err := newClient(t, server.URL).SetFavorite(context.Background(), "u1", item, tt.favorite)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}

			req := fb.last()
			assert.Equal(t, tt.wantMethod, req.Method)
			assert.Equal(t, fetch.JSONContentType, req.ContentType)
			assert.Equal(t, "u1", req.Body["user_id"])

			favorite, ok := req.Body["favorite"].(map[string]any)
			require.True(t, ok)
			assert.Equal(t, "42", favorite["item_id"])
			assert.Equal(t, "", favorite["image_url"])
			assert.Equal(t, []any{}, favorite["keywords"])
		})
	}
}

func TestLogout(t *testing.T) {
	fb, server := newFakeBackend(t)
	fb.handle("GET /logout", writeJSON(`{}`))

	require.NoError(t, newClient(t, server.URL).Logout(context.Background()))
	assert.Equal(t, "/logout", fb.last().Path)
}

func TestLogout_Failure(t *testing.T) {
	fb, server := newFakeBackend(t)
	fb.handle("GET /logout", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusBadGateway) })

	err := newClient(t, server.URL).Logout(context.Background())
	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, fetch.StatusCode(err))
}

func TestSetFavorite_Failures(t *testing.T) {
	fb, server := newFakeBackend(t)
	fb.handle("POST /history", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusInternalServerError) })
	fb.handle("DELETE /history", writeJSON(`{"status":5}`))
	client := newClient(t, server.URL)
	item := types.JobItem{ItemID: "7", Name: "SRE"}

	err := client.SetFavorite(context.Background(), "u1", item, true)
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, fetch.StatusCode(err))
	assert.NotErrorIs(t, err, ErrNotApplied)

	err = client.SetFavorite(context.Background(), "u1", item, false)
	require.Error(t, err)
	var validationErr *schemas.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}
