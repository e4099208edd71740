package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/jobplus/internal/backend"
	"github.com/jonathan/jobplus/internal/geo"
	"github.com/jonathan/jobplus/internal/session"
	"github.com/jonathan/jobplus/internal/types"
)

type fakeBackend struct {
	session      *types.Session
	validateErr  error
	loginErr     error
	registered   bool
	registerErr  error
	items        map[string][]types.JobItem
	itemsErr     map[string]error
	favoriteErr  error
	calls        []string
	favoriteArgs []bool
	lastCoords   types.Coordinates
	lastLogin    types.LoginRequest
}

func (f *fakeBackend) ValidateSession(context.Context) (*types.Session, error) {
	f.calls = append(f.calls, "validate")
	return f.session, f.validateErr
}

func (f *fakeBackend) Login(_ context.Context, req types.LoginRequest) (*types.Session, error) {
	f.calls = append(f.calls, "login")
	f.lastLogin = req
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return f.session, nil
}

func (f *fakeBackend) Register(context.Context, types.RegisterRequest) (bool, error) {
	f.calls = append(f.calls, "register")
	return f.registered, f.registerErr
}

func (f *fakeBackend) Logout(context.Context) error {
	f.calls = append(f.calls, "logout")
	return errors.New("backend has no logout")
}

func (f *fakeBackend) list(name string) ([]types.JobItem, error) {
	f.calls = append(f.calls, name)
	return f.items[name], f.itemsErr[name]
}

func (f *fakeBackend) Nearby(_ context.Context, _ string, coords types.Coordinates) ([]types.JobItem, error) {
	f.lastCoords = coords
	return f.list("nearby")
}

func (f *fakeBackend) Favorites(context.Context, string) ([]types.JobItem, error) {
	return f.list("favorites")
}

func (f *fakeBackend) Recommended(_ context.Context, _ string, coords types.Coordinates) ([]types.JobItem, error) {
	f.lastCoords = coords
	return f.list("recommended")
}

func (f *fakeBackend) SetFavorite(_ context.Context, _ string, _ types.JobItem, favorite bool) error {
	f.calls = append(f.calls, "favorite")
	f.favoriteArgs = append(f.favoriteArgs, favorite)
	return f.favoriteErr
}

type fakeLocator struct {
	result geo.Result
	calls  []string
}

func (l *fakeLocator) Resolve(_ context.Context, previous types.Coordinates, _ string) geo.Result {
	l.calls = append(l.calls, "resolve")
	return l.answer(previous)
}

func (l *fakeLocator) FromFix(_ context.Context, fix geo.Fix, previous types.Coordinates, _ string) geo.Result {
	l.calls = append(l.calls, "fix")
	if fix.Coordinates.Valid() {
		return geo.Result{Coordinates: fix.Coordinates, Source: geo.SourceDevice}
	}
	return l.answer(previous)
}

func (l *fakeLocator) FromIP(_ context.Context, previous types.Coordinates, _ string) geo.Result {
	l.calls = append(l.calls, "ip")
	return l.answer(previous)
}

func (l *fakeLocator) answer(previous types.Coordinates) geo.Result {
	if l.result.Source == "" || l.result.Source == geo.SourcePrevious {
		return geo.Result{Coordinates: previous, Source: geo.SourcePrevious}
	}
	return l.result
}

var (
	alice  = &types.Session{UserID: "u1", FullName: "A B"}
	nyc    = types.Coordinates{Latitude: 40.7128, Longitude: -74.006}
	fixed  = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	sample = []types.JobItem{
		{ItemID: "1", Name: "Go Engineer", Favorite: false},
		{ItemID: "2", Name: "SRE", Favorite: true},
	}
)

func newController(b *fakeBackend, l *fakeLocator, clientLocates bool) *Controller {
	return New(b, l, Options{ClientLocates: clientLocates, Now: func() time.Time { return fixed }})
}

func noticeOf(st *session.State) session.Notice {
	if st.Notice == nil {
		return session.Notice{}
	}
	return *st.Notice
}

func TestValidateSession_NoSessionShowsLogin(t *testing.T) {
	b := &fakeBackend{validateErr: backend.ErrNoSession}
	st := session.NewState("s")

	newController(b, &fakeLocator{}, false).ValidateSession(context.Background(), st, "")

	assert.Equal(t, []session.Region{session.RegionLoginForm}, st.VisibleRegions())
	assert.False(t, st.Authenticated())
	assert.Nil(t, st.Notice)
}

func TestValidateSession_LiveSessionLoadsNearby(t *testing.T) {
	b := &fakeBackend{session: alice, items: map[string][]types.JobItem{"nearby": sample}}
	l := &fakeLocator{result: geo.Result{Coordinates: nyc, Source: geo.SourceIP}}
	st := session.NewState("s")

	newController(b, l, false).ValidateSession(context.Background(), st, "8.8.8.8")

	assert.Equal(t, "Welcome, A B", st.Welcome())
	assert.Equal(t, []string{"validate", "nearby"}, b.calls)
	assert.Equal(t, nyc, b.lastCoords)
	assert.Equal(t, fixed, st.PositionTaken)
	assert.Len(t, st.Items, 2)
}

func TestLogin_Success(t *testing.T) {
	b := &fakeBackend{session: alice, items: map[string][]types.JobItem{"nearby": sample}}
	st := session.NewState("s")

	newController(b, &fakeLocator{}, false).Login(context.Background(), st, types.LoginRequest{Username: "u1", Password: "pw"}, "")

	want := []session.Region{
		session.RegionItemNav, session.RegionItemList, session.RegionAvatar,
		session.RegionWelcome, session.RegionLogoutLink,
	}
	if diff := cmp.Diff(want, st.VisibleRegions()); diff != "" {
		t.Errorf("visible regions mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "Welcome, A B", st.Welcome())
	assert.Empty(t, st.LoginError)
	assert.Equal(t, session.NavNearby, st.ActiveNav)
	assert.Equal(t, types.DefaultCoordinates, b.lastCoords, "failed location keeps the default coordinates")
	assert.Equal(t, "pw", b.lastLogin.Password, "hashing happens in the backend client")
}

func TestLogin_Rejected(t *testing.T) {
	for _, loginErr := range []error{backend.ErrRejected, errors.New("connection refused")} {
		t.Run(loginErr.Error(), func(t *testing.T) {
			b := &fakeBackend{loginErr: loginErr}
			st := session.NewState("s")

			newController(b, &fakeLocator{}, false).Login(context.Background(), st, types.LoginRequest{Username: "u1", Password: "bad"}, "")

			assert.Equal(t, MsgLoginRejected, st.LoginError)
			assert.True(t, st.Visible(session.RegionLoginForm))
			assert.False(t, st.Authenticated())
		})
	}
}

func TestLogin_ClientLocates(t *testing.T) {
	b := &fakeBackend{session: alice}
	l := &fakeLocator{}
	st := session.NewState("s")

	newController(b, l, true).Login(context.Background(), st, types.LoginRequest{Username: "u1", Password: "pw"}, "")

	assert.True(t, st.Locating)
	assert.Equal(t, session.Notice{Kind: session.NoticeLoading, Message: MsgLocating}, noticeOf(st))
	assert.Empty(t, l.calls)
	assert.Equal(t, []string{"login"}, b.calls, "nearby waits for the client position")
}

func TestLocate_ReusesFreshPosition(t *testing.T) {
	b := &fakeBackend{session: alice}
	l := &fakeLocator{}
	st := session.NewState("s")
	st.ShowAuthenticated(alice)
	st.SetPosition(nyc, fixed.Add(-59*time.Second))

	newController(b, l, true).Locate(context.Background(), st, "")

	assert.False(t, st.Locating)
	assert.Empty(t, l.calls)
	assert.Equal(t, []string{"nearby"}, b.calls)
	assert.Equal(t, nyc, b.lastCoords)
}

func TestLocate_StalePositionAsksAgain(t *testing.T) {
	st := session.NewState("s")
	st.ShowAuthenticated(alice)
	st.SetPosition(nyc, fixed.Add(-61*time.Second))

	newController(&fakeBackend{}, &fakeLocator{}, true).Locate(context.Background(), st, "")

	assert.True(t, st.Locating)
}

func TestLocate_Unauthenticated(t *testing.T) {
	b := &fakeBackend{}
	l := &fakeLocator{}
	st := session.NewState("s")

	newController(b, l, false).Locate(context.Background(), st, "")
	assert.Empty(t, b.calls)
	assert.Empty(t, l.calls)
}

func TestPositionUpdated(t *testing.T) {
	b := &fakeBackend{session: alice, items: map[string][]types.JobItem{"nearby": sample}}
	l := &fakeLocator{}
	st := session.NewState("s")
	st.ShowAuthenticated(alice)
	st.Locating = true

	newController(b, l, true).PositionUpdated(context.Background(), st, geo.Fix{Coordinates: nyc}, "")

	assert.False(t, st.Locating)
	assert.Equal(t, nyc, st.Coordinates)
	assert.Equal(t, fixed, st.PositionTaken)
	assert.Equal(t, nyc, b.lastCoords)
	assert.Len(t, st.Items, 2)
}

func TestPositionFailed_IPWithoutLocKeepsCoordinates(t *testing.T) {
	b := &fakeBackend{items: map[string][]types.JobItem{"nearby": nil}}
	l := &fakeLocator{}
	st := session.NewState("s")
	st.ShowAuthenticated(alice)
	st.Coordinates = nyc

	newController(b, l, true).PositionFailed(context.Background(), st, "8.8.8.8")

	assert.Equal(t, []string{"ip"}, l.calls)
	assert.Equal(t, nyc, st.Coordinates)
	assert.True(t, st.PositionTaken.IsZero())
	assert.Equal(t, []string{"nearby"}, b.calls, "nearby is loaded even without a location")
	assert.Equal(t, session.Notice{Kind: session.NoticeWarning, Message: MsgNoNearby}, noticeOf(st))
}

func TestLoadLists(t *testing.T) {
	type loadFunc func(c *Controller, st *session.State)

	nearby := func(c *Controller, st *session.State) { c.LoadNearby(context.Background(), st) }
	favorites := func(c *Controller, st *session.State) { c.LoadFavorites(context.Background(), st) }
	recommended := func(c *Controller, st *session.State) { c.LoadRecommended(context.Background(), st) }

	tests := []struct {
		name       string
		list       string
		load       loadFunc
		items      []types.JobItem
		err        error
		wantNav    session.Nav
		wantNotice session.Notice
		wantItems  int
	}{
		{name: "nearby items", list: "nearby", load: nearby, items: sample, wantNav: session.NavNearby, wantItems: 2},
		{name: "nearby empty", list: "nearby", load: nearby, items: []types.JobItem{}, wantNav: session.NavNearby,
			wantNotice: session.Notice{Kind: session.NoticeWarning, Message: MsgNoNearby}},
		{name: "nearby failure", list: "nearby", load: nearby, err: errors.New("500"), wantNav: session.NavNearby,
			wantNotice: session.Notice{Kind: session.NoticeError, Message: MsgNearbyFailed}},
		{name: "favorites items", list: "favorites", load: favorites, items: sample, wantNav: session.NavFavorites, wantItems: 2},
		{name: "favorites empty", list: "favorites", load: favorites, wantNav: session.NavFavorites,
			wantNotice: session.Notice{Kind: session.NoticeWarning, Message: MsgNoFavorites}},
		{name: "favorites failure", list: "favorites", load: favorites, err: errors.New("403"), wantNav: session.NavFavorites,
			wantNotice: session.Notice{Kind: session.NoticeError, Message: MsgFavoritesFailed}},
		{name: "recommended items", list: "recommended", load: recommended, items: sample, wantNav: session.NavRecommend, wantItems: 2},
		{name: "recommended empty", list: "recommended", load: recommended, wantNav: session.NavRecommend,
			wantNotice: session.Notice{Kind: session.NoticeWarning, Message: MsgNoRecommended}},
		{name: "recommended failure", list: "recommended", load: recommended, err: errors.New("timeout"), wantNav: session.NavRecommend,
			wantNotice: session.Notice{Kind: session.NoticeError, Message: MsgRecommendedFailed}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &fakeBackend{
				items:    map[string][]types.JobItem{tt.list: tt.items},
				itemsErr: map[string]error{tt.list: tt.err},
			}
			st := session.NewState("s")
			st.ShowAuthenticated(alice)
			st.SetItems([]types.JobItem{{ItemID: "stale"}})

			tt.load(newController(b, &fakeLocator{}, false), st)

			assert.Equal(t, tt.wantNav, st.ActiveNav)
			assert.Equal(t, tt.wantNotice, noticeOf(st))
			assert.Len(t, st.Items, tt.wantItems)
			_, stale := st.Item("stale")
			assert.False(t, stale, "prior items are cleared")
		})
	}
}

func TestLoad_Unauthenticated(t *testing.T) {
	b := &fakeBackend{}
	st := session.NewState("s")
	newController(b, &fakeLocator{}, false).LoadFavorites(context.Background(), st)
	assert.Empty(t, b.calls)
}

func TestRegister(t *testing.T) {
	valid := types.RegisterRequest{Username: "alice_1", Password: "pw", FirstName: "Alice", LastName: "Smith"}

	tests := []struct {
		name        string
		req         types.RegisterRequest
		registered  bool
		registerErr error
		want        string
		wantCall    bool
	}{
		{name: "registered", req: valid, registered: true, want: MsgRegistered, wantCall: true},
		{name: "taken", req: valid, registered: false, want: MsgUserExists, wantCall: true},
		{name: "failure", req: valid, registerErr: errors.New("500"), want: MsgRegisterFailed, wantCall: true},
		{name: "missing last name", req: types.RegisterRequest{Username: "alice", Password: "pw", FirstName: "A"}, want: MsgMissingField},
		{name: "missing username", req: types.RegisterRequest{Password: "pw", FirstName: "A", LastName: "B"}, want: MsgMissingField},
		{name: "uppercase username", req: types.RegisterRequest{Username: "Alice", Password: "pw", FirstName: "A", LastName: "B"}, want: MsgInvalidUsername},
		{name: "missing field wins over bad username", req: types.RegisterRequest{Username: "Alice!", Password: "", FirstName: "A", LastName: "B"}, want: MsgMissingField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &fakeBackend{registered: tt.registered, registerErr: tt.registerErr}
			st := session.NewState("s")
			st.ShowRegistration()

			newController(b, &fakeLocator{}, false).Register(context.Background(), st, tt.req)

			assert.Equal(t, tt.want, st.RegisterResult)
			assert.Equal(t, tt.wantCall, len(b.calls) == 1)
			assert.True(t, st.Visible(session.RegionRegisterForm))
		})
	}
}

func TestValidateRegistration_ErrorType(t *testing.T) {
	err := ValidateRegistration(types.RegisterRequest{Username: "BAD", Password: "p", FirstName: "f", LastName: "l"})
	require.Error(t, err)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Username", ve.Field)
	assert.Equal(t, MsgInvalidUsername, ve.Message)
}

func TestLogout(t *testing.T) {
	b := &fakeBackend{}
	st := session.NewState("s")
	st.ShowAuthenticated(alice)
	st.SetItems(sample)

	newController(b, &fakeLocator{}, false).Logout(context.Background(), st)

	assert.Equal(t, []string{"logout"}, b.calls)
	assert.Equal(t, []session.Region{session.RegionLoginForm}, st.VisibleRegions())
	assert.Empty(t, st.Items)
}

func TestShowPanels(t *testing.T) {
	c := newController(&fakeBackend{}, &fakeLocator{}, false)
	st := session.NewState("s")

	c.ShowRegistration(st)
	assert.Equal(t, []session.Region{session.RegionRegisterForm}, st.VisibleRegions())

	c.ShowLogin(st)
	assert.Equal(t, []session.Region{session.RegionLoginForm}, st.VisibleRegions())
}

func TestToggleFavorite(t *testing.T) {
	tests := []struct {
		name         string
		itemID       string
		favoriteErr  error
		wantFavorite bool
		wantArg      bool
		wantErr      bool
	}{
		{name: "add", itemID: "1", wantFavorite: true, wantArg: true},
		{name: "remove", itemID: "2", wantFavorite: false, wantArg: false},
		{name: "failure leaves item", itemID: "1", favoriteErr: backend.ErrNotApplied, wantFavorite: false, wantArg: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &fakeBackend{favoriteErr: tt.favoriteErr}
			st := session.NewState("s")
			st.ShowAuthenticated(alice)
			st.SetItems(append([]types.JobItem(nil), sample...))

			item, err := newController(b, &fakeLocator{}, false).ToggleFavorite(context.Background(), st, tt.itemID)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
			}

			assert.Equal(t, []bool{tt.wantArg}, b.favoriteArgs)
			assert.Equal(t, tt.wantFavorite, item.Favorite)
			stored, ok := st.Item(tt.itemID)
			require.True(t, ok)
			assert.Equal(t, tt.wantFavorite, stored.Favorite)
		})
	}
}

func TestToggleFavorite_UnknownItem(t *testing.T) {
	b := &fakeBackend{}
	st := session.NewState("s")
	st.ShowAuthenticated(alice)

	_, err := newController(b, &fakeLocator{}, false).ToggleFavorite(context.Background(), st, "404")
	assert.ErrorIs(t, err, ErrUnknownItem)
	assert.Empty(t, b.calls)
}
