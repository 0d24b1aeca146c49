package advisor

import (
	"context"
	"errors"
	"fmt"
	"net"

	"google.golang.org/genai"

	"tietkiem/internal/core"
)

// ErrorKind classifies advisor failures.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindEmptyResponse
	KindAuth
	KindQuota
	KindNetwork
	KindDisabled
)

func (k ErrorKind) String() string {
	switch k {
	case KindEmptyResponse:
		return "empty_response"
	case KindAuth:
		return "auth"
	case KindQuota:
		return "quota"
	case KindNetwork:
		return "network"
	case KindDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

var kindMessages = map[ErrorKind]string{
	KindEmptyResponse: "AI trả về response trống",
	KindAuth:          "API key không hợp lệ. Kiểm tra GEMINI_API_KEY trong .env",
	KindQuota:         "Đã hết quota API Gemini. Vui lòng kiểm tra giới hạn.",
	KindNetwork:       "Lỗi kết nối mạng. Kiểm tra internet.",
	KindDisabled:      "Tính năng AI chưa được cấu hình (thiếu GEMINI_API_KEY)",
}

// Message returns the user-facing text for a failure of kind k.
func Message(k ErrorKind, err error) string {
	if msg, ok := kindMessages[k]; ok {
		return msg
	}
	detail := "lỗi không xác định"
	if err != nil {
		detail = err.Error()
	}
	return "Không thể kết nối AI: " + detail
}

var errEmptyResponse = errors.New("empty response")

// Classify maps a model call error onto an ErrorKind using the API status
// and transport error types.
func Classify(err error) ErrorKind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, errEmptyResponse):
		return KindEmptyResponse
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return KindNetwork
	}

	if apiErr, ok := asAPIError(err); ok {
		switch {
		case apiErr.Code == 401 || apiErr.Code == 403,
			apiErr.Status == "UNAUTHENTICATED", apiErr.Status == "PERMISSION_DENIED",
			hasReason(apiErr, "API_KEY_INVALID"):
			return KindAuth
		case apiErr.Code == 429, apiErr.Status == "RESOURCE_EXHAUSTED":
			return KindQuota
		case apiErr.Code == 503, apiErr.Code == 504, apiErr.Status == "UNAVAILABLE":
			return KindNetwork
		case apiErr.Code == 400 && apiErr.Status == "INVALID_ARGUMENT" && hasReason(apiErr, "API_KEY"):
			return KindAuth
		}
		return KindUnknown
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindNetwork
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return KindNetwork
	}
	return KindUnknown
}

func asAPIError(err error) (genai.APIError, bool) {
	var v genai.APIError
	if errors.As(err, &v) {
		return v, true
	}
	var p *genai.APIError
	if errors.As(err, &p) && p != nil {
		return *p, true
	}
	return genai.APIError{}, false
}

// hasReason reports whether an error detail carries the given reason prefix.
func hasReason(e genai.APIError, reason string) bool {
	for _, d := range e.Details {
		if r, ok := d["reason"].(string); ok && len(r) >= len(reason) && r[:len(reason)] == reason {
			return true
		}
	}
	return false
}

// serviceError wraps a classified failure in the core taxonomy for logging.
func serviceError(kind ErrorKind, err error) error {
	if err == nil {
		err = fmt.Errorf("%s", kind)
	}
	return &core.ExternalServiceError{Service: "gemini", Kind: kind.String(), Err: err}
}
