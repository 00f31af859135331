// Package respond writes JSON responses and keeps internal error details,
// such as upstream URLs carrying API keys, out of response bodies.
package respond

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

// JSON writes v as JSON with the given status code.
func JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are already sent.
		slog.Default().Error("failed to encode JSON response",
			slog.Int("status_code", code),
			slog.Any("error", err))
	}
}

// Error writes {"error": msg}.
func Error(w http.ResponseWriter, code int, msg string) {
	JSON(w, code, map[string]string{"error": msg})
}

// safeFragments mark messages that describe the caller's request rather
// than server internals.
var safeFragments = []string{
	"not found",
	"invalid",
	"required",
	"too long",
	"not allowed",
}

// SafeError returns err's message to the client only when it is a 4xx
// describing the request. Anything else is logged (sanitized) and replaced
// with a generic message.
func SafeError(w http.ResponseWriter, code int, err error) {
	if err == nil {
		return
	}
	msg := err.Error()
	// 4xx かつリクエスト起因のメッセージだけをそのまま返す
	if code < http.StatusInternalServerError && isSafe(msg) {
		Error(w, code, msg)
		return
	}
	// 機密情報をマスクしてログ出力
	slog.Default().Error("internal server error",
		slog.Int("code", code),
		slog.String("error", SanitizeError(err)))
	Error(w, code, "internal server error")
}

func isSafe(msg string) bool {
	lower := strings.ToLower(msg)
	for _, f := range safeFragments {
		if strings.Contains(lower, f) {
			return true
		}
	}
	return false
}
