package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/skypoint/socialfeed/internal/apperr"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestEngine(h *JSONRPCHandler) *gin.Engine {
	engine := gin.New()
	engine.POST("/", h.Handle)
	return engine
}

func call(t *testing.T, engine *gin.Engine, body string) JSONRPCResponse {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected HTTP 200, got %d", w.Code)
	}
	var resp JSONRPCResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return resp
}

func TestJSONRPCHandler_ErrorCodes(t *testing.T) {
	h := NewJSONRPCHandler()
	h.RegisterMethod("test.ok", func(*gin.Context, json.RawMessage) (interface{}, error) {
		return gin.H{"ok": true}, nil
	})
	h.RegisterMethod("test.fail", func(_ *gin.Context, params json.RawMessage) (interface{}, error) {
		var p struct {
			Kind string `json:"kind"`
		}
		json.Unmarshal(params, &p)
		switch p.Kind {
		case "invalid":
			return nil, apperr.InvalidArgument("bad value")
		case "notfound":
			return nil, fmt.Errorf("lookup: %w", apperr.NotFound("post missing"))
		case "forbidden":
			return nil, apperr.Forbidden("not yours")
		case "conflict":
			return nil, apperr.Conflict("has replies")
		default:
			return nil, errors.New("connection refused to 10.0.0.5")
		}
	})
	engine := newTestEngine(h)

	tests := []struct {
		name    string
		body    string
		code    int
		message string
	}{
		{"parse error", `{not json`, ErrParseError, "Parse error"},
		{"bad version", `{"jsonrpc":"1.0","id":1,"method":"test.ok"}`, ErrInvalidRequest, "Invalid Request"},
		{"unknown method", `{"jsonrpc":"2.0","id":1,"method":"nope"}`, ErrMethodNotFound, "Method not found"},
		{"invalid argument", `{"jsonrpc":"2.0","id":1,"method":"test.fail","params":{"kind":"invalid"}}`, ErrInvalidParams, "bad value"},
		{"not found wrapped", `{"jsonrpc":"2.0","id":1,"method":"test.fail","params":{"kind":"notfound"}}`, ErrNotFound, "post missing"},
		{"forbidden", `{"jsonrpc":"2.0","id":1,"method":"test.fail","params":{"kind":"forbidden"}}`, ErrForbidden, "not yours"},
		{"conflict", `{"jsonrpc":"2.0","id":1,"method":"test.fail","params":{"kind":"conflict"}}`, ErrConflict, "has replies"},
		{"internal hidden", `{"jsonrpc":"2.0","id":1,"method":"test.fail","params":{"kind":"boom"}}`, ErrServerError, "Server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := call(t, engine, tt.body)
			if resp.Error == nil {
				t.Fatalf("Expected error response, got result %v", resp.Result)
			}
			if resp.Error.Code != tt.code {
				t.Errorf("Expected code %d, got %d", tt.code, resp.Error.Code)
			}
			if resp.Error.Message != tt.message {
				t.Errorf("Expected message %q, got %q", tt.message, resp.Error.Message)
			}
			if tt.code == ErrServerError && resp.Error.Data != nil {
				t.Errorf("Internal error detail should not reach the client: %v", resp.Error.Data)
			}
		})
	}
}

func TestJSONRPCHandler_Success(t *testing.T) {
	h := NewJSONRPCHandler()
	h.RegisterMethod("test.ok", func(*gin.Context, json.RawMessage) (interface{}, error) {
		return gin.H{"ok": true}, nil
	})

	resp := call(t, newTestEngine(h), `{"jsonrpc":"2.0","id":"abc","method":"test.ok"}`)
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %+v", resp.Error)
	}
	if resp.ID != "abc" {
		t.Errorf("Expected id to be echoed, got %v", resp.ID)
	}
	result, ok := resp.Result.(map[string]interface{})
	if !ok || result["ok"] != true {
		t.Errorf("Unexpected result: %v", resp.Result)
	}
}

func TestRouter_RegistersAllMethods(t *testing.T) {
	r := NewRouter(&Services{}, nil, nil)

	got := r.handler.Methods()
	sort.Strings(got)

	want := []string{
		"comments.count", "comments.create", "comments.delete", "comments.get_comment", "comments.get_thread", "comments.update",
		"feed.get_feed",
		"follow.follow", "follow.get_counts", "follow.is_following", "follow.unfollow",
		"posts.create", "posts.delete", "posts.get", "posts.list_by_user", "posts.update",
		"votes.cast", "votes.get_stats", "votes.get_vote", "votes.has_voted", "votes.retract",
	}
	if len(got) != len(want) {
		t.Fatalf("Expected %d methods, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Method %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestRouter_Health(t *testing.T) {
	engine := gin.New()
	NewRouter(&Services{}, nil, nil).SetupRoutes(engine)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if body.Status != "OK" || body.Checks["redis"] != "disabled" {
		t.Errorf("Unexpected health body: %+v", body)
	}
}
