// Package session holds the per-user application state: which panels are shown,
// who is signed in, where they are and what the item list currently displays.
package session

import (
	"time"

	"github.com/jonathan/jobplus/internal/types"
)

// Region is one of the fixed page regions whose visibility the controller toggles.
type Region string

const (
	RegionLoginForm    Region = "login-form"
	RegionRegisterForm Region = "register-form"
	RegionItemNav      Region = "item-nav"
	RegionItemList     Region = "item-list"
	RegionAvatar       Region = "avatar"
	RegionWelcome      Region = "welcome-msg"
	RegionLogoutLink   Region = "logout-link"
)

// Regions lists every region in page order.
var Regions = []Region{
	RegionLoginForm,
	RegionRegisterForm,
	RegionItemNav,
	RegionItemList,
	RegionAvatar,
	RegionWelcome,
	RegionLogoutLink,
}

// Nav is a navigation button of the authenticated view.
type Nav string

const (
	NavNearby    Nav = "nearby-btn"
	NavFavorites Nav = "fav-btn"
	NavRecommend Nav = "recommend-btn"
)

// NoticeKind selects the icon shown with a notice.
type NoticeKind string

const (
	NoticeLoading NoticeKind = "loading"
	NoticeWarning NoticeKind = "warning"
	NoticeError   NoticeKind = "error"
)

// Notice is a message shown in place of the item list.
type Notice struct {
	Kind    NoticeKind
	Message string
}

// State is everything one user's view depends on. It is not safe for concurrent use;
// Store serializes access per entry.
type State struct {
	ID      string
	Session *types.Session

	Coordinates   types.Coordinates
	PositionTaken time.Time // zero until a position was resolved
	Locating      bool      // waiting for the client to report its position

	ActiveNav      Nav
	LoginError     string
	RegisterResult string
	Notice         *Notice
	Items          []types.JobItem

	visible map[Region]bool
}

// NewState returns a state showing the login panel at the default coordinates.
func NewState(id string) *State {
	s := &State{
		ID:          id,
		Coordinates: types.DefaultCoordinates,
		ActiveNav:   NavNearby,
	}
	s.ShowUnauthenticated()
	return s
}

// Visible reports whether region r is shown.
func (s *State) Visible(r Region) bool {
	return s.visible[r]
}

// VisibleRegions lists the shown regions in page order.
func (s *State) VisibleRegions() []Region {
	var out []Region
	for _, r := range Regions {
		if s.visible[r] {
			out = append(out, r)
		}
	}
	return out
}

// Authenticated reports whether a user is signed in.
func (s *State) Authenticated() bool {
	return s.Session != nil
}

// UserID returns the signed in user's id, or "".
func (s *State) UserID() string {
	if s.Session == nil {
		return ""
	}
	return s.Session.UserID
}

// Welcome returns the greeting shown in the header.
func (s *State) Welcome() string {
	if s.Session == nil {
		return ""
	}
	return "Welcome, " + s.Session.FullName
}

func (s *State) show(regions ...Region) {
	s.visible = make(map[Region]bool, len(regions))
	for _, r := range regions {
		s.visible[r] = true
	}
}

// ShowUnauthenticated shows only the login form and forgets the session.
func (s *State) ShowUnauthenticated() {
	s.forget()
	s.show(RegionLoginForm)
}

func (s *State) forget() {
	s.Session = nil
	s.LoginError = ""
	s.Notice = nil
	s.Items = nil
	s.Locating = false
}

// ShowAuthenticated shows the signed in view for session.
func (s *State) ShowAuthenticated(session *types.Session) {
	s.Session = session
	s.show(RegionItemNav, RegionItemList, RegionAvatar, RegionWelcome, RegionLogoutLink)
}

// ShowRegistration shows only the registration form and forgets the session.
func (s *State) ShowRegistration() {
	s.forget()
	s.RegisterResult = ""
	s.show(RegionRegisterForm)
}

// Activate marks nav as the active navigation button.
func (s *State) Activate(nav Nav) {
	s.ActiveNav = nav
}

// SetNotice replaces the item list with a notice.
func (s *State) SetNotice(kind NoticeKind, message string) {
	s.Notice = &Notice{Kind: kind, Message: message}
	s.Items = nil
}

// SetItems replaces the item list. An empty list is not shown as a notice here;
// callers pick the right warning.
func (s *State) SetItems(items []types.JobItem) {
	s.Notice = nil
	s.Items = items
}

// Item returns the displayed item with the given id.
func (s *State) Item(id string) (*types.JobItem, bool) {
	for i := range s.Items {
		if s.Items[i].ItemID == id {
			return &s.Items[i], true
		}
	}
	return nil, false
}

// SetPosition records a resolved position.
func (s *State) SetPosition(coords types.Coordinates, taken time.Time) {
	s.Coordinates = coords
	s.PositionTaken = taken
}
