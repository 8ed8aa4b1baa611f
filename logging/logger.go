// Package logging configures the process-wide slog logger.
package logging

import (
	"io"
	"log/slog"
	"net/url"
	"os"
	"strings"
)

// ParseLevel maps DEBUG/INFO/WARN/ERROR to a slog level. Unknown values
// fall back to INFO.
func ParseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return level
}

// New builds a logger writing to w: text output in development mode, JSON
// otherwise.
func New(w io.Writer, level string, devMode bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	if devMode {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// Setup installs a stderr logger as the slog default and returns it.
func Setup(level string, devMode bool) *slog.Logger {
	logger := New(os.Stderr, level, devMode)
	slog.SetDefault(logger)
	return logger
}

// CleanURL drops the query string, fragment and user info so URLs can be
// logged without leaking tokens.
func CleanURL(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil || u.Host == "" {
		if i := strings.IndexAny(urlStr, "?#"); i >= 0 {
			return urlStr[:i]
		}
		return urlStr
	}

	cleanURL := u.Scheme + "://" + u.Host
	if u.Path != "" && u.Path != "/" {
		cleanURL += u.Path
	}
	return strings.TrimSuffix(cleanURL, "/")
}
