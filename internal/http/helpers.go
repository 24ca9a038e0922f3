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

// parseMonth extracts the month index (0 to 11) from the query string.
func parseMonth(r *http.Request) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get("month"))
	if v == "" {
		return 0, fmt.Errorf("missing month parameter")
	}
	month, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid month %q", v)
	}
	return month, nil
}

// sanitizeInput removes potentially dangerous characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}
