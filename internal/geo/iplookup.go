package geo

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jonathan/jobplus/internal/fetch"
	"github.com/jonathan/jobplus/internal/types"
	"github.com/tidwall/gjson"
)

// ErrNoLocation means the lookup answered without a usable "loc" field.
var ErrNoLocation = errors.New("ip lookup returned no location")

// IPLookup resolves coordinates from a network address.
type IPLookup interface {
	Lookup(ctx context.Context, clientIP string) (types.Coordinates, error)
}

// IPInfo queries an ipinfo.io compatible service.
type IPInfo struct {
	baseURL string
	http    *fetch.Client
}

// NewIPInfo creates a lookup against baseURL, e.g. https://ipinfo.io.
func NewIPInfo(baseURL string, timeout time.Duration) *IPInfo {
	opts := fetch.DefaultOptions()
	if timeout > 0 {
		opts.Timeout = timeout
	}
	return &IPInfo{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    fetch.New(opts),
	}
}

// Lookup asks the service for the position of clientIP, or of the caller's own
// address when clientIP is not public.
func (l *IPInfo) Lookup(ctx context.Context, clientIP string) (types.Coordinates, error) {
	target := l.baseURL + "/json"
	if ip := PublicIP(clientIP); ip != "" {
		target = l.baseURL + "/" + ip + "/json"
	}

	res, err := l.http.Do(ctx, http.MethodGet, target, nil)
	if err != nil {
		return types.Coordinates{}, fmt.Errorf("ip lookup: %w", err)
	}
	return ParseLoc(res.Body)
}

// ParseLoc extracts the "lat,lon" loc field of an ipinfo response.
func ParseLoc(body []byte) (types.Coordinates, error) {
	if !gjson.ValidBytes(body) {
		return types.Coordinates{}, fmt.Errorf("ip lookup: malformed response")
	}

	loc := gjson.GetBytes(body, "loc")
	if !loc.Exists() || loc.Type != gjson.String {
		return types.Coordinates{}, ErrNoLocation
	}

	parts := strings.Split(loc.String(), ",")
	if len(parts) != 2 {
		return types.Coordinates{}, fmt.Errorf("%w: %q", ErrNoLocation, loc.String())
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return types.Coordinates{}, fmt.Errorf("%w: bad latitude %q", ErrNoLocation, parts[0])
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return types.Coordinates{}, fmt.Errorf("%w: bad longitude %q", ErrNoLocation, parts[1])
	}

	coords := types.Coordinates{Latitude: lat, Longitude: lon}
	if !coords.Valid() {
		return types.Coordinates{}, fmt.Errorf("%w: out of range %q", ErrNoLocation, loc.String())
	}
	return coords, nil
}

// PublicIP returns addr's IP when it is routable on the internet, else "".
// addr may carry a port.
func PublicIP(addr string) string {
	host := strings.TrimSpace(addr)
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}

	ip := net.ParseIP(host)
	if ip == nil {
		return ""
	}
	if ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsMulticast() {
		return ""
	}
	return ip.String()
}
