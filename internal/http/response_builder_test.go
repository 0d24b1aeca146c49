package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"tietkiem/internal/core"
)

func TestJSONResponseBuilder(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("X-Cache", "miss").
		Body(map[string]int{"id": 1}).
		Write(w)

	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d", w.Code)
	}
	if got := w.Header().Get("Content-Type"); got != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", got)
	}
	if w.Header().Get("X-Cache") != "miss" {
		t.Error("custom header missing")
	}
	if w.Body.String() != `{"id":1}` {
		t.Errorf("Body = %q", w.Body.String())
	}
}

func TestJSONResponseBuilder_NoBody(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
	if w.Code != http.StatusNoContent || w.Body.Len() != 0 {
		t.Errorf("unexpected response: %d %q", w.Code, w.Body.String())
	}
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
		kind string
	}{
		{core.Invalid("amount", "Số tiền phải lớn hơn 0"), http.StatusBadRequest, "validation"},
		{fmt.Errorf("wrap: %w", core.NotFound(core.EntityGoal, 3)), http.StatusNotFound, "not_found"},
		{&core.ExternalServiceError{Service: "gemini", Kind: "quota"}, http.StatusBadGateway, "external_service"},
		{errors.New("disk full"), http.StatusInternalServerError, "internal"},
	}
	for _, tt := range tests {
		status, kind := errorStatus(tt.err)
		if status != tt.want || kind != tt.kind {
			t.Errorf("errorStatus(%v) = %d %q, want %d %q", tt.err, status, kind, tt.want, tt.kind)
		}
	}
}

func TestWriteErrorIncludesField(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/goals", nil)
	writeError(w, r, "create", core.Invalid("name", "Tên mục tiêu không được để trống"))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	want := `{"error":"validation","message":"Tên mục tiêu không được để trống","field":"name"}`
	if w.Body.String() != want {
		t.Errorf("body = %s", w.Body.String())
	}
}
