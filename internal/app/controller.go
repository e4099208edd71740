// Package app implements the JobPlus client behavior as handlers over an explicit session.State.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jonathan/jobplus/internal/backend"
	"github.com/jonathan/jobplus/internal/geo"
	"github.com/jonathan/jobplus/internal/session"
	"github.com/jonathan/jobplus/internal/types"
)

// Backend is the part of the backend client the controller needs.
type Backend interface {
	ValidateSession(ctx context.Context) (*types.Session, error)
	Login(ctx context.Context, req types.LoginRequest) (*types.Session, error)
	Register(ctx context.Context, req types.RegisterRequest) (bool, error)
	Logout(ctx context.Context) error
	Nearby(ctx context.Context, userID string, coords types.Coordinates) ([]types.JobItem, error)
	Favorites(ctx context.Context, userID string) ([]types.JobItem, error)
	Recommended(ctx context.Context, userID string, coords types.Coordinates) ([]types.JobItem, error)
	SetFavorite(ctx context.Context, userID string, item types.JobItem, favorite bool) error
}

// Locator resolves coordinates. *geo.Resolver implements it.
type Locator interface {
	Resolve(ctx context.Context, previous types.Coordinates, clientIP string) geo.Result
	FromFix(ctx context.Context, fix geo.Fix, previous types.Coordinates, clientIP string) geo.Result
	FromIP(ctx context.Context, previous types.Coordinates, clientIP string) geo.Result
}

// Options tunes a Controller.
type Options struct {
	// ClientLocates leaves the device position to the client, which reports back
	// through PositionUpdated or PositionFailed.
	ClientLocates bool
	// MaxAge is how long a resolved position is reused without locating again.
	MaxAge time.Duration
	Now    func() time.Time
}

// Controller holds the collaborators for one user session. Handlers take the
// state explicitly and leave it describing what the user should see.
type Controller struct {
	backend Backend
	locator Locator
	opts    Options
}

// New creates a controller.
func New(b Backend, locator Locator, opts Options) *Controller {
	if opts.MaxAge <= 0 {
		opts.MaxAge = geo.DefaultMaxAge
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Controller{backend: b, locator: locator, opts: opts}
}

// ValidateSession shows the login panel and asks the backend for an existing session.
func (c *Controller) ValidateSession(ctx context.Context, st *session.State, clientIP string) {
	st.ShowUnauthenticated()
	st.SetNotice(session.NoticeLoading, MsgValidatingSession)

	sess, err := c.backend.ValidateSession(ctx)
	if err != nil {
		if !errors.Is(err, backend.ErrNoSession) {
			log.Printf("[app] session validation failed: %v", err)
		}
		st.Notice = nil
		return
	}
	c.onSessionValid(ctx, st, sess, clientIP)
}

// Login submits the login form.
func (c *Controller) Login(ctx context.Context, st *session.State, req types.LoginRequest, clientIP string) {
	st.LoginError = ""

	sess, err := c.backend.Login(ctx, req)
	if err != nil {
		log.Printf("[app] login for %q failed: %v", req.Username, err)
		st.LoginError = MsgLoginRejected
		return
	}
	c.onSessionValid(ctx, st, sess, clientIP)
}

func (c *Controller) onSessionValid(ctx context.Context, st *session.State, sess *types.Session, clientIP string) {
	st.ShowAuthenticated(sess)
	c.Locate(ctx, st, clientIP)
}

// Register submits the registration form. The result message is left in st.RegisterResult.
func (c *Controller) Register(ctx context.Context, st *session.State, req types.RegisterRequest) {
	if err := ValidateRegistration(req); err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			st.RegisterResult = ve.Message
			return
		}
		st.RegisterResult = MsgRegisterFailed
		return
	}

	registered, err := c.backend.Register(ctx, req)
	switch {
	case err != nil:
		log.Printf("[app] register %q failed: %v", req.Username, err)
		st.RegisterResult = MsgRegisterFailed
	case registered:
		st.RegisterResult = MsgRegistered
	default:
		st.RegisterResult = MsgUserExists
	}
}

// Logout ends the backend session and shows the login panel.
func (c *Controller) Logout(ctx context.Context, st *session.State) {
	if err := c.backend.Logout(ctx); err != nil {
		log.Printf("[app] logout failed: %v", err)
	}
	st.ShowUnauthenticated()
}

// ShowLogin switches to the login panel.
func (c *Controller) ShowLogin(st *session.State) {
	st.ShowUnauthenticated()
}

// ShowRegistration switches to the registration panel.
func (c *Controller) ShowRegistration(st *session.State) {
	st.ShowRegistration()
}

// Locate resolves the user's position and then loads nearby jobs. With
// ClientLocates set it only marks the state as waiting for the client, unless
// the last position is still fresh.
func (c *Controller) Locate(ctx context.Context, st *session.State, clientIP string) {
	if !st.Authenticated() {
		return
	}

	if c.fresh(st) {
		c.LoadNearby(ctx, st)
		return
	}

	st.SetNotice(session.NoticeLoading, MsgLocating)
	if c.opts.ClientLocates {
		st.Locating = true
		return
	}

	c.apply(st, c.locator.Resolve(ctx, st.Coordinates, clientIP))
	c.LoadNearby(ctx, st)
}

// PositionUpdated takes a position reported by the client.
func (c *Controller) PositionUpdated(ctx context.Context, st *session.State, fix geo.Fix, clientIP string) {
	st.Locating = false
	if !st.Authenticated() {
		return
	}
	if fix.Taken.IsZero() {
		fix.Taken = c.opts.Now()
	}
	c.apply(st, c.locator.FromFix(ctx, fix, st.Coordinates, clientIP))
	c.LoadNearby(ctx, st)
}

// PositionFailed falls back to the IP lookup when the client could not locate itself.
func (c *Controller) PositionFailed(ctx context.Context, st *session.State, clientIP string) {
	st.Locating = false
	if !st.Authenticated() {
		return
	}
	c.apply(st, c.locator.FromIP(ctx, st.Coordinates, clientIP))
	c.LoadNearby(ctx, st)
}

func (c *Controller) fresh(st *session.State) bool {
	return !st.PositionTaken.IsZero() && c.opts.Now().Sub(st.PositionTaken) <= c.opts.MaxAge
}

func (c *Controller) apply(st *session.State, res geo.Result) {
	if res.Source == geo.SourcePrevious {
		return
	}
	st.SetPosition(res.Coordinates, c.opts.Now())
}

type itemLoader struct {
	nav     session.Nav
	loading string
	empty   string
	failed  string
	load    func(ctx context.Context, st *session.State) ([]types.JobItem, error)
}

func (c *Controller) loadItems(ctx context.Context, st *session.State, l itemLoader) {
	if !st.Authenticated() {
		return
	}

	st.Activate(l.nav)
	st.SetNotice(session.NoticeLoading, l.loading)

	items, err := l.load(ctx, st)
	switch {
	case err != nil:
		log.Printf("[app] %s for %q failed: %v", l.nav, st.UserID(), err)
		st.SetNotice(session.NoticeError, l.failed)
	case len(items) == 0:
		st.SetNotice(session.NoticeWarning, l.empty)
	default:
		st.SetItems(items)
	}
}

// LoadNearby lists the jobs around the current coordinates.
func (c *Controller) LoadNearby(ctx context.Context, st *session.State) {
	c.loadItems(ctx, st, itemLoader{
		nav:     session.NavNearby,
		loading: MsgLoadingNearby,
		empty:   MsgNoNearby,
		failed:  MsgNearbyFailed,
		load: func(ctx context.Context, st *session.State) ([]types.JobItem, error) {
			return c.backend.Nearby(ctx, st.UserID(), st.Coordinates)
		},
	})
}

// LoadFavorites lists the user's favorites.
func (c *Controller) LoadFavorites(ctx context.Context, st *session.State) {
	c.loadItems(ctx, st, itemLoader{
		nav:     session.NavFavorites,
		loading: MsgLoadingFavorites,
		empty:   MsgNoFavorites,
		failed:  MsgFavoritesFailed,
		load: func(ctx context.Context, st *session.State) ([]types.JobItem, error) {
			return c.backend.Favorites(ctx, st.UserID())
		},
	})
}

// LoadRecommended lists recommendations based on the user's favorites.
func (c *Controller) LoadRecommended(ctx context.Context, st *session.State) {
	c.loadItems(ctx, st, itemLoader{
		nav:     session.NavRecommend,
		loading: MsgLoadingRecommended,
		empty:   MsgNoRecommended,
		failed:  MsgRecommendedFailed,
		load: func(ctx context.Context, st *session.State) ([]types.JobItem, error) {
			return c.backend.Recommended(ctx, st.UserID(), st.Coordinates)
		},
	})
}

// ToggleFavorite flips the favorite flag of a displayed item. The flag only
// changes once the backend confirms; a failure leaves the item as it was.
func (c *Controller) ToggleFavorite(ctx context.Context, st *session.State, itemID string) (types.JobItem, error) {
	item, ok := st.Item(itemID)
	if !ok {
		return types.JobItem{}, fmt.Errorf("%w: %s", ErrUnknownItem, itemID)
	}

	favorite := !item.Favorite
	if err := c.backend.SetFavorite(ctx, st.UserID(), *item, favorite); err != nil {
		log.Printf("[app] change favorite failed: %v", err)
		return *item, err
	}

	item.Favorite = favorite
	return *item, nil
}
