package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// fakeScripter runs a fixed-window bucket in memory instead of evaluating Lua.
type fakeScripter struct {
	mu       sync.Mutex
	capacity int64
	used     map[string]int64
}

func newFakeScripter(capacity int64) *fakeScripter {
	return &fakeScripter{capacity: capacity, used: map[string]int64{}}
}

func (f *fakeScripter) take(keys []string) *redis.Cmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := keys[0]
	if f.used[k] >= f.capacity {
		return redis.NewCmdResult([]any{int64(0), int64(0), int64(1500)}, nil)
	}
	f.used[k]++
	return redis.NewCmdResult([]any{int64(1), f.capacity - f.used[k], int64(0)}, nil)
}

func (f *fakeScripter) Eval(ctx context.Context, script string, keys []string, args ...any) *redis.Cmd {
	return f.take(keys)
}

func (f *fakeScripter) EvalSha(ctx context.Context, sha1 string, keys []string, args ...any) *redis.Cmd {
	return f.take(keys)
}

func (f *fakeScripter) EvalRO(ctx context.Context, script string, keys []string, args ...any) *redis.Cmd {
	return f.take(keys)
}

func (f *fakeScripter) EvalShaRO(ctx context.Context, sha1 string, keys []string, args ...any) *redis.Cmd {
	return f.take(keys)
}

func (f *fakeScripter) ScriptExists(ctx context.Context, hashes ...string) *redis.BoolSliceCmd {
	return redis.NewBoolSliceResult([]bool{true}, nil)
}

func (f *fakeScripter) ScriptLoad(ctx context.Context, script string) *redis.StringCmd {
	return redis.NewStringResult("", nil)
}

func TestTakeParsesScriptResult(t *testing.T) {
	l := New(newFakeScripter(1), 1, 0.5)

	d, err := l.Take(context.Background(), "k")
	if err != nil {
		t.Fatalf("take: %v", err)
	}
	if !d.Allowed || d.Remaining != 0 {
		t.Fatalf("unexpected decision: %+v", d)
	}
	d, _ = l.Take(context.Background(), "k")
	if d.Allowed || d.RetryAfter != 1500*time.Millisecond {
		t.Fatalf("expected rejection with retry, got %+v", d)
	}
}

func TestMiddlewareRejectsOverLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	l := New(newFakeScripter(2), 2, 1)

	r := gin.New()
	r.GET("/public/x", l.Middleware(nil), func(c *gin.Context) { c.Status(200) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/public/x", nil))
		codes = append(codes, w.Code)
		if i == 2 && w.Header().Get("Retry-After") != "2" {
			t.Fatalf("expected Retry-After 2, got %q", w.Header().Get("Retry-After"))
		}
	}
	if codes[0] != 200 || codes[1] != 200 || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected codes: %v", codes)
	}
}

func TestMiddlewareDisabledWithoutRedis(t *testing.T) {
	gin.SetMode(gin.TestMode)
	l := New(nil, 1, 1)

	r := gin.New()
	r.GET("/x", l.Middleware(nil), func(c *gin.Context) { c.Status(200) })
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		if w.Code != 200 {
			t.Fatalf("expected pass-through, got %d", w.Code)
		}
	}
}

func TestTTLCoversFullRefill(t *testing.T) {
	if got := New(nil, 30, 0.5).ttlSeconds(); got != 61 {
		t.Fatalf("expected 61, got %d", got)
	}
}
