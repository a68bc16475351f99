package pkg

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp
}

func TestErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"wrapped bad request", fmt.Errorf("%w: title is required", ErrBadRequest), http.StatusBadRequest, "title is required"},
		{"not found", ErrNotFound, http.StatusNotFound, "not found"},
		{"backend 401", NewBackendError(KindStatus, "auth.verify", 401, "Invalid token", nil), http.StatusUnauthorized, "Invalid token"},
		{"backend 500", NewBackendError(KindStatus, "blogs.list", 503, "Service down", nil), http.StatusBadGateway, "Service down"},
		{"backend network", NewBackendError(KindNetwork, "blogs.list", 0, "Could not reach the server", errors.New("dial tcp")), http.StatusBadGateway, "Could not reach the server"},
		{"backend decode", NewBackendError(KindDecode, "blogs.list", 0, "Unexpected response from the server", errors.New("eof")), http.StatusInternalServerError, "Unexpected response from the server"},
		{"internal", errors.New("sql: database is locked"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Error(rec, tt.err)

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			resp := decodeResponse(t, rec)
			if resp.Success || resp.Error != tt.msg {
				t.Errorf("resp = %+v, want error %q", resp, tt.msg)
			}
		})
	}
}

func TestJSONEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, http.StatusCreated, map[string]string{"slug": "hello"})

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d", rec.Code)
	}
	resp := decodeResponse(t, rec)
	data, _ := resp.Data.(map[string]any)
	if !resp.Success || data["slug"] != "hello" {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestBackendErrorUnwrapAndStack(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewBackendError(KindNetwork, "auth.login", 0, "Could not reach the server", cause)

	if !errors.Is(err, cause) {
		t.Error("cause not reachable through Unwrap")
	}
	if len(err.StackTrace()) == 0 {
		t.Error("no stack captured")
	}
	if errors.Is(err, ErrUnauthorized) {
		t.Error("network error must not look like a 401")
	}
}
