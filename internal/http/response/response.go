// Package response writes the JSON wire shapes the front end consumes. Every
// body carries "ok"; failures add "msg" and, where an endpoint defines them,
// extra flags like "available" or "loggedIn".
package response

import (
	"encoding/json"
	"net/http"
)

func JSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func OK(w http.ResponseWriter, fields map[string]any) {
	body := map[string]any{"ok": true}
	for k, v := range fields {
		body[k] = v
	}
	JSON(w, http.StatusOK, body)
}

func Fail(w http.ResponseWriter, status int, msg string, fields map[string]any) {
	body := map[string]any{"ok": false, "msg": msg}
	for k, v := range fields {
		body[k] = v
	}
	JSON(w, status, body)
}
