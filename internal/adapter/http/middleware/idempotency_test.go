package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

type fakeIdempotencyStore struct {
	mu     sync.Mutex
	values map[string][]byte
}

func newFakeIdempotencyStore() *fakeIdempotencyStore {
	return &fakeIdempotencyStore{values: make(map[string][]byte)}
}

func (s *fakeIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.values[key]; ok {
		return true, existing, nil
	}

	if response != nil {
		s.values[key] = response
	} else {
		s.values[key] = []byte("processing")
	}

	return false, nil, nil
}

func (s *fakeIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = response
	return nil
}

// keyedRequest builds a request as it arrives behind the identity
// middleware: caller in context, key in the header.
func keyedRequest(method, target, userID, key string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	if userID != "" {
		req = req.WithContext(context.WithValue(req.Context(), UserIDContextKey, userID))
	}
	return req
}

func TestIdempotency_CachesSuccessfulResponse(t *testing.T) {
	store := newFakeIdempotencyStore()
	calls := 0

	handler := NewIdempotencyMiddleware(store).Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"txn-1"}`))
	}))

	rec1 := httptest.NewRecorder()
	handler.ServeHTTP(rec1, keyedRequest(http.MethodPost, "/api/v1/transactions/transfer", "user-1", "key-1"))

	rec2 := httptest.NewRecorder()
	handler.ServeHTTP(rec2, keyedRequest(http.MethodPost, "/api/v1/transactions/transfer", "user-1", "key-1"))

	if calls != 1 {
		t.Fatalf("expected handler to run once, ran %d times", calls)
	}
	if rec2.Header().Get("X-Idempotency-Replay") != "true" {
		t.Fatalf("expected replay marker on second response")
	}
	if rec2.Body.String() != `{"id":"txn-1"}` {
		t.Fatalf("expected cached body, got %s", rec2.Body.String())
	}
}

func TestIdempotency_DoesNotCacheFailures(t *testing.T) {
	store := newFakeIdempotencyStore()
	calls := 0

	handler := NewIdempotencyMiddleware(store).Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error":"insufficient funds"}`))
	}))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, keyedRequest(http.MethodPost, "/api/v1/transactions/transfer", "user-1", "key-1"))
	}

	// Failures fall through to the durable registry instead of being
	// served from the response cache.
	if calls != 2 {
		t.Fatalf("expected handler to run twice, ran %d times", calls)
	}
}

func TestIdempotency_IgnoresUnkeyedAndReadRequests(t *testing.T) {
	store := newFakeIdempotencyStore()
	calls := 0

	handler := NewIdempotencyMiddleware(store).Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))

	unkeyed := keyedRequest(http.MethodPost, "/api/v1/transactions/transfer", "user-1", "")
	handler.ServeHTTP(httptest.NewRecorder(), unkeyed)

	read := keyedRequest(http.MethodGet, "/api/v1/accounts", "user-1", "key-1")
	handler.ServeHTTP(httptest.NewRecorder(), read)

	if calls != 2 {
		t.Fatalf("expected both requests to pass through, got %d calls", calls)
	}
	if len(store.values) != 0 {
		t.Fatalf("expected no cached entries, got %d", len(store.values))
	}
}

func TestIdempotency_ScopesCacheByCaller(t *testing.T) {
	store := newFakeIdempotencyStore()
	calls := 0

	handler := NewIdempotencyMiddleware(store).Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		userID, _ := CallerID(r.Context())
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"caller":"` + userID + `"}`))
	}))

	rec1 := httptest.NewRecorder()
	handler.ServeHTTP(rec1, keyedRequest(http.MethodPost, "/api/v1/transactions/transfer", "user-1", "key-1"))

	// The same key from another caller is a fresh request, never a
	// replay of someone else's response.
	rec2 := httptest.NewRecorder()
	handler.ServeHTTP(rec2, keyedRequest(http.MethodPost, "/api/v1/transactions/transfer", "user-2", "key-1"))

	if calls != 2 {
		t.Fatalf("expected handler to run for each caller, ran %d times", calls)
	}
	if rec2.Header().Get("X-Idempotency-Replay") == "true" {
		t.Fatal("second caller must not receive a replayed response")
	}
	if rec2.Body.String() != `{"caller":"user-2"}` {
		t.Fatalf("expected second caller's own response, got %s", rec2.Body.String())
	}
}
