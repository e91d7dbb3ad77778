// Package kiosk is the customer-facing client: table board, tablet and cart
// on top of the HTTP API and the realtime feed.
package kiosk

import (
	"strings"
	"time"

	"crustalyst/internal/config"
)

type Config struct {
	APIURL               string
	APIKey               string
	PollInterval         time.Duration
	FallbackPollInterval time.Duration
	RequestTimeout       time.Duration
}

// ConfigFrom fills anything left empty with the built-in defaults, so a kiosk
// with no environment still reaches the local API.
func ConfigFrom(c config.KioskConfig) Config {
	out := Config{
		APIURL:               strings.TrimRight(strings.TrimSpace(c.APIURL), "/"),
		APIKey:               strings.TrimSpace(c.APIKey),
		PollInterval:         c.PollInterval,
		FallbackPollInterval: c.FallbackPollInterval,
		RequestTimeout:       c.RequestTimeout,
	}
	if out.APIURL == "" {
		out.APIURL = config.DefaultKioskAPIURL
	}
	if out.APIKey == "" {
		out.APIKey = config.DefaultAnonKey
	}
	if out.PollInterval <= 0 {
		out.PollInterval = 10 * time.Second
	}
	if out.FallbackPollInterval <= 0 {
		out.FallbackPollInterval = 5 * time.Second
	}
	if out.RequestTimeout <= 0 {
		out.RequestTimeout = 10 * time.Second
	}
	return out
}
