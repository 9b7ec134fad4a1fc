package drive

import (
	"fmt"

	"github.com/imroc/req/v3"
)

type fileInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// APIError is the error body the storage API returns on non-2xx responses.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"error"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Code, e.Message)
}

func apiError(resp *req.Response, requestErr error, operation string) error {
	if requestErr != nil {
		return fmt.Errorf("drive %s: %w", operation, requestErr)
	}

	// got a response, but the api returned an error
	if resp.IsErrorState() {
		var apiErr APIError
		if err := resp.UnmarshalJson(&apiErr); err == nil && apiErr.Message != "" {
			apiErr.Code = resp.StatusCode
			return fmt.Errorf("drive %s: %w", operation, &apiErr)
		}
		return fmt.Errorf("drive %s: unexpected status %s", operation, resp.Status)
	}

	return nil
}
