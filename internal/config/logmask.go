// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import "strings"

const maskedValue = "***"

var sensitiveKeywords = []string{
	"password",
	"passwordhash",
	"secret",
	"token",
	"pin",
}

// MaskSecrets returns a copy of s with credentials replaced, suitable for
// `config dump` and startup logging.
func MaskSecrets(s Settings) Settings {
	out := s
	out.Sites = make([]Site, len(s.Sites))
	for i, site := range s.Sites {
		if site.Password != "" {
			site.Password = maskedValue
		}
		out.Sites[i] = site
	}
	if out.Lockout.PasswordHash != "" {
		out.Lockout.PasswordHash = maskedValue
	}
	if out.Hidden.PIN != "" {
		out.Hidden.PIN = maskedValue
	}
	out.Warnings = append([]string(nil), s.Warnings...)
	return out
}

// MaskURL strips userinfo from a URL for logging.
func MaskURL(raw string) string {
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return raw
	}
	if at := strings.LastIndex(strings.SplitN(rest, "/", 2)[0], "@"); at >= 0 {
		return scheme + "://" + maskedValue + "@" + rest[at+1:]
	}
	return raw
}
