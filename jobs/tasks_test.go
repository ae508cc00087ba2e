package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"

	_ "github.com/appbox-io/appbox/testing"
)

type stubPurger struct {
	purged int64
	err    error
	calls  int
}

func (s *stubPurger) PurgeExpired(ctx context.Context) (int64, error) {
	s.calls++
	return s.purged, s.err
}

func TestHandleTokenPurgeTask(t *testing.T) {
	purger := &stubPurger{purged: 3}
	task, err := NewTokenPurgeTask()
	if err != nil {
		t.Fatalf("build task: %v", err)
	}

	handler := HandleTokenPurgeTask(purger, nil, nil)
	if err := handler(context.Background(), task); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if purger.calls != 1 {
		t.Fatalf("expected one purge call, got %d", purger.calls)
	}
}

func TestHandleTokenPurgeTaskPropagatesError(t *testing.T) {
	wantErr := errors.New("db down")
	purger := &stubPurger{err: wantErr}
	task, err := NewTokenPurgeTask()
	if err != nil {
		t.Fatalf("build task: %v", err)
	}

	handler := HandleTokenPurgeTask(purger, nil, nil)
	if err := handler(context.Background(), task); !errors.Is(err, wantErr) {
		t.Fatalf("expected purge error to propagate, got %v", err)
	}
}

type stubEnqueuer struct {
	calls int
	err   error
}

func (s *stubEnqueuer) EnqueueTokenPurge(ctx context.Context) (*asynq.TaskInfo, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &asynq.TaskInfo{ID: "task-1", Queue: QueueDefault}, nil
}

func newTestHandlerRouter(enqueuer PurgeEnqueuer) chi.Router {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	NewHandler(nil, enqueuer, logger).MountRoutes(r)
	return r
}

func TestPurgeEndpointEnqueues(t *testing.T) {
	enqueuer := &stubEnqueuer{}
	router := newTestHandlerRouter(enqueuer)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/purge", nil))

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202 got %d", rec.Code)
	}
	if enqueuer.calls != 1 {
		t.Fatalf("expected one enqueue call, got %d", enqueuer.calls)
	}
	if !strings.Contains(rec.Body.String(), "task-1") {
		t.Fatalf("expected task id in body, got %q", rec.Body.String())
	}
}

func TestPurgeEndpointEnqueueFailure(t *testing.T) {
	enqueuer := &stubEnqueuer{err: errors.New("redis down")}
	router := newTestHandlerRouter(enqueuer)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/purge", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", rec.Code)
	}
}

func TestHandleTokenPurgeTaskBadPayload(t *testing.T) {
	purger := &stubPurger{}
	handler := HandleTokenPurgeTask(purger, nil, nil)

	err := handler(context.Background(), asynq.NewTask(TaskTokenPurge, []byte("{not json")))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry, got %v", err)
	}
	if purger.calls != 0 {
		t.Fatalf("purge must not run on a bad payload")
	}
}
