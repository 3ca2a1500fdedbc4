package xero

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Error is an error response of the accounting or identity API. The identity endpoints reply with
// problem details (Title, Detail, Status), the accounting endpoints with Type, Message and ErrorNumber.
type Error struct {
	HTTPStatus  int
	Title       string `json:"Title"`
	Detail      string `json:"Detail"`
	Type        string `json:"Type"`
	Message     string `json:"Message"`
	ErrorNumber int    `json:"ErrorNumber"`
}

func (err Error) Error() string {
	var parts []string
	for _, part := range []string{err.Type, err.Title, err.Message, err.Detail} {
		if part != "" {
			parts = append(parts, part)
		}
	}

	if len(parts) == 0 {
		parts = append(parts, http.StatusText(err.HTTPStatus))
	}

	return fmt.Sprintf("xero error (statusCode=%d): %s", err.HTTPStatus, strings.Join(parts, ": "))
}

func UnmarshalError(status int, body []byte) error {
	apiError := Error{HTTPStatus: status}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &apiError); err != nil {
			return fmt.Errorf("xero error (statusCode=%d): %s", status, strings.TrimSpace(string(body)))
		}
	}

	return apiError
}
