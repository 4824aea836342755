package middleware

import (
	"strings"

	"github.com/mssola/useragent"
)

// ParseUserAgent reduces a raw User-Agent header to a short display summary
// such as "Chrome on Mac OS X". The summary is what ends up in audit events;
// the raw header is kept separately on the request context.
func ParseUserAgent(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return "Unknown Device"
	}

	ua := useragent.New(raw)

	browser, _ := ua.Browser()
	if browser == "" {
		browser = "Unknown Browser"
	}

	os := ua.OSInfo().Name
	if os == "" {
		os = "Unknown OS"
	}

	return browser + " on " + os
}
