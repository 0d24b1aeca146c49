// This file holds helpers for reading path values, query strings and JSON bodies.
package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tietkiem/internal/core"
)

const (
	maxJSONBody = 1 << 20
	maxCSVBody  = 5 << 20
)

// decodeJSON reads a single JSON object into dst, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var ve *core.ValidationError
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &ve):
			return err
		case errors.As(err, &tooLarge):
			return core.Invalid("", "Dữ liệu gửi lên quá lớn")
		case errors.Is(err, io.EOF):
			return core.Invalid("", "Thiếu dữ liệu yêu cầu")
		default:
			return core.Invalid("", "Định dạng JSON không hợp lệ")
		}
	}
	if dec.More() {
		return core.Invalid("", "Chỉ chấp nhận một đối tượng JSON")
	}
	return nil
}

// pathID parses a positive integer path value.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, core.Invalid(name, "ID không hợp lệ")
	}
	return id, nil
}

// queryInt64 returns 0 when the parameter is absent.
func queryInt64(r *http.Request, name string) (int64, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return 0, core.Invalid(name, "Giá trị không hợp lệ: "+v)
	}
	return n, nil
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, core.Invalid(name, "Giá trị không hợp lệ: "+v)
	}
	return n, nil
}

// queryType returns def when the type parameter is absent.
func queryType(r *http.Request, def core.TxType) (core.TxType, error) {
	v := strings.TrimSpace(r.URL.Query().Get("type"))
	if v == "" {
		return def, nil
	}
	typ, ok := core.ParseTxType(v)
	if !ok {
		return "", core.Invalid("type", "Loại giao dịch phải là expense hoặc income")
	}
	return typ, nil
}

// queryMonth returns the month parameter, defaulting to the current YYYY-MM.
func queryMonth(r *http.Request, now time.Time) string {
	if v := strings.TrimSpace(r.URL.Query().Get("month")); v != "" {
		return v
	}
	return now.Format("2006-01")
}

// sanitizeInput trims and drops control characters other than tab and newlines.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}
