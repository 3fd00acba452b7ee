package utils

import (
	"encoding/json"
	"log"
	"net/http"
)

// RespondJSON 以JSON写出HTTP响应。编码失败时状态行已发出，只能记录日志。
func RespondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("[http] failed to encode response: %v", err)
	}
}

// RespondError 以统一的 {"error": message} 结构写出错误响应。
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, map[string]string{"error": message})
}
