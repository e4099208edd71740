// Package backend provides a typed client for the JobPlus backend endpoints.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/jonathan/jobplus/internal/config"
	"github.com/jonathan/jobplus/internal/fetch"
	"github.com/jonathan/jobplus/internal/schemas"
	"github.com/jonathan/jobplus/internal/types"
)

var (
	// ErrNoSession is returned by ValidateSession when the backend has no session for this client.
	ErrNoSession = errors.New("no active backend session")
	// ErrRejected is returned when the backend answers a login with a non-OK status.
	ErrRejected = errors.New("login rejected")
	// ErrNotApplied is returned when a favorite change is answered without a success marker.
	ErrNotApplied = errors.New("favorite change not applied")
)

// Client talks to one JobPlus backend on behalf of one user session.
// The backend keys its session on cookies, so each Client owns its cookie jar.
type Client struct {
	baseURL string
	http    *fetch.Client
}

// New creates a client for the backend rooted at baseURL.
func New(baseURL string, timeout time.Duration) (*Client, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid backend URL %q", baseURL)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	opts := fetch.DefaultOptions()
	if timeout > 0 {
		opts.Timeout = timeout
	}
	opts.Jar = jar

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    fetch.New(opts),
	}, nil
}

// denied reports whether the backend refused the request as unauthenticated.
func denied(err error) bool {
	code := fetch.StatusCode(err)
	return code == http.StatusUnauthorized || code == http.StatusForbidden
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// ValidateSession asks the backend whether the cookie jar carries a live session.
func (c *Client) ValidateSession(ctx context.Context) (*types.Session, error) {
	res, err := c.http.Do(ctx, http.MethodGet, c.endpoint("/login", nil), nil)
	if err != nil {
		if denied(err) {
			return nil, fmt.Errorf("%w: %w", ErrNoSession, err)
		}
		return nil, fmt.Errorf("validate session: %w", err)
	}

	status, err := decodeStatus(res.Body)
	if err != nil {
		return nil, fmt.Errorf("validate session: %w", err)
	}
	if !status.OK() {
		return nil, ErrNoSession
	}
	return status.Session(), nil
}

// Login submits credentials. The password is hashed before it leaves the process.
func (c *Client) Login(ctx context.Context, req types.LoginRequest) (*types.Session, error) {
	body := types.LoginRequest{
		Username: req.Username,
		Password: config.HashPassword(req.Username, req.Password),
	}

	res, err := c.http.Do(ctx, http.MethodPost, c.endpoint("/login", nil), body)
	if err != nil {
		if denied(err) {
			return nil, fmt.Errorf("%w: %w", ErrRejected, err)
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	status, err := decodeStatus(res.Body)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if !status.OK() {
		return nil, ErrRejected
	}

	session := status.Session()
	if session.UserID == "" {
		session.UserID = req.Username
	}
	return session, nil
}

// Register creates an account. It reports false when the backend answered but refused,
// which the backend does when the username is taken.
func (c *Client) Register(ctx context.Context, req types.RegisterRequest) (bool, error) {
	body := req
	body.Password = config.HashPassword(req.Username, req.Password)

	res, err := c.http.Do(ctx, http.MethodPost, c.endpoint("/register", nil), body)
	if err != nil {
		return false, fmt.Errorf("register: %w", err)
	}

	status, err := decodeStatus(res.Body)
	if err != nil {
		return false, fmt.Errorf("register: %w", err)
	}
	return status.OK(), nil
}

// Logout ends the backend session.
func (c *Client) Logout(ctx context.Context) error {
	var err error
	c.http.Call(ctx, http.MethodGet, c.endpoint("/logout", nil), nil, nil, func(callErr error) {
		err = fmt.Errorf("logout: %w", callErr)
	})
	return err
}

// Nearby lists the jobs around coords.
func (c *Client) Nearby(ctx context.Context, userID string, coords types.Coordinates) ([]types.JobItem, error) {
	return c.items(ctx, "/search", url.Values{
		"user_id": {userID},
		"lat":     {coords.QueryLat()},
		"lon":     {coords.QueryLon()},
	})
}

// Favorites lists the user's favorite jobs.
func (c *Client) Favorites(ctx context.Context, userID string) ([]types.JobItem, error) {
	return c.items(ctx, "/history", url.Values{"user_id": {userID}})
}

// Recommended lists jobs recommended from the user's favorites.
func (c *Client) Recommended(ctx context.Context, userID string, coords types.Coordinates) ([]types.JobItem, error) {
	return c.items(ctx, "/recommendation", url.Values{
		"user_id": {userID},
		"lat":     {coords.QueryLat()},
		"lon":     {coords.QueryLon()},
	})
}

// SetFavorite adds (favorite=true, POST) or removes (DELETE) item from the user's favorites.
func (c *Client) SetFavorite(ctx context.Context, userID string, item types.JobItem, favorite bool) error {
	method := http.MethodDelete
	if favorite {
		method = http.MethodPost
	}

	// The backend reads keywords as an array and rejects null
	if item.Keywords == nil {
		item.Keywords = []string{}
	}

	body := types.FavoriteRequest{UserID: userID, Favorite: item}

	var err error
	c.http.Call(ctx, method, c.endpoint("/history", nil), body,
		func(res *fetch.Result) {
			status, decodeErr := decodeStatus(res.Body)
			switch {
			case decodeErr != nil:
				err = fmt.Errorf("set favorite %s: %w", item.ItemID, decodeErr)
			case !status.Succeeded():
				err = ErrNotApplied
			}
		},
		func(callErr error) {
			err = fmt.Errorf("set favorite %s: %w", item.ItemID, callErr)
		})
	return err
}

func (c *Client) items(ctx context.Context, path string, query url.Values) ([]types.JobItem, error) {
	res, err := c.http.Do(ctx, http.MethodGet, c.endpoint(path, query), nil)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	items, err := decodeItems(res.Body)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return items, nil
}

func decodeItems(body []byte) ([]types.JobItem, error) {
	trimmed := bytes.TrimSpace(body)
	if bytes.Equal(trimmed, []byte("null")) {
		return []types.JobItem{}, nil
	}

	if err := schemas.Validate(schemas.JobItems, trimmed); err != nil {
		return nil, fmt.Errorf("invalid item list: %w", err)
	}

	items := []types.JobItem{}
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, fmt.Errorf("failed to decode item list: %w", err)
	}
	return items, nil
}

func decodeStatus(body []byte) (*types.StatusResponse, error) {
	trimmed := bytes.TrimSpace(body)
	if err := schemas.Validate(schemas.StatusResponse, trimmed); err != nil {
		return nil, fmt.Errorf("invalid status response: %w", err)
	}

	var status types.StatusResponse
	if err := json.Unmarshal(trimmed, &status); err != nil {
		return nil, fmt.Errorf("failed to decode status response: %w", err)
	}
	return &status, nil
}
