package ratelimit

import (
	"strings"
)

// unlimited marks endpoints that are never throttled.
var unlimited = &EndpointConfig{Path: "*"}

// MatchEndpoint matches a request path and method to an endpoint configuration.
// Exact paths win over prefixes, and the longest prefix wins among prefixes.
// Returns nil when the global default applies.
func MatchEndpoint(path string, method string, configs []EndpointConfig) *EndpointConfig {
	if method == "GET" && (path == "/health" || strings.HasPrefix(path, "/static/")) {
		return unlimited
	}

	for i := range configs {
		config := &configs[i]
		if config.Path == path && config.Method == method {
			return config
		}
	}

	var best *EndpointConfig
	for i := range configs {
		config := &configs[i]
		if config.Method != method || !strings.HasSuffix(config.Path, "/") {
			continue
		}
		if strings.HasPrefix(path, config.Path) && (best == nil || len(config.Path) > len(best.Path)) {
			best = config
		}
	}
	return best
}
