package http

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	minYear = 1
	maxYear = 9999
)

// parseYear reads ?year=, defaulting to the year of now.
func parseYear(r *http.Request, now time.Time) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get("year"))
	if v == "" {
		return now.Year(), nil
	}
	y, err := strconv.Atoi(v)
	if err != nil || y < minYear || y > maxYear {
		return 0, fmt.Errorf("invalid year %q", v)
	}
	return y, nil
}

// parseCell reads ?day= (1-31) and ?month= (1-12) and returns the day and
// the 0-based month index.
func parseCell(r *http.Request) (day, monthIndex int, err error) {
	q := r.URL.Query()
	day, err = strconv.Atoi(strings.TrimSpace(q.Get("day")))
	if err != nil || day < 1 || day > 31 {
		return 0, 0, fmt.Errorf("invalid day %q", q.Get("day"))
	}
	month, err := strconv.Atoi(strings.TrimSpace(q.Get("month")))
	if err != nil || month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("invalid month %q", q.Get("month"))
	}
	return day, month - 1, nil
}

// sanitizeInput trims s and drops control characters other than tab and
// line breaks.
func sanitizeInput(s string) string {
	return stripControl(strings.TrimSpace(s))
}

// stripControl drops control characters but keeps surrounding spaces.
// Account ids go through it because they are matched exactly.
func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}

func generateRequestID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(b)
}
