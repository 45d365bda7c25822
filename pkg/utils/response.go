package utils

import (
	"encoding/json"
	"log"
	"net/http"
)

// RespondJSON 发送JSON响应
func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

type errorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// RespondError 发送 OpenAI 风格的错误响应: {"error":{"message","type"}}
func RespondError(w http.ResponseWriter, status int, errType, message string) {
	RespondJSON(w, status, map[string]errorDetail{
		"error": {Message: message, Type: errType},
	})
}
