package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/jhipl/backoffice/internal/jobs"
)

type stubInvalidator struct {
	calls int
	err   error
}

func (s *stubInvalidator) Invalidate(ctx context.Context) error {
	s.calls++
	return s.err
}

type fixedBook int

func (b fixedBook) Len() int { return int(b) }

func TestLookupsRefreshTaskPayload(t *testing.T) {
	task, err := NewLookupsRefreshTask("")
	require.NoError(t, err)
	require.Equal(t, TaskLookupsRefresh, task.Type())

	var payload LookupsRefreshPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	require.Equal(t, "scheduled", payload.Reason)
}

func TestLookupsRefreshJobInvalidates(t *testing.T) {
	inv := &stubInvalidator{}
	job := NewLookupsRefreshJob(inv, fixedBook(3), nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))
	task, err := NewLookupsRefreshTask("manual")
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, 1, inv.calls)
}

func TestLookupsRefreshJobPropagatesError(t *testing.T) {
	boom := errors.New("backend down")
	job := NewLookupsRefreshJob(&stubInvalidator{err: boom}, nil, nil, nil)
	task, err := NewLookupsRefreshTask("manual")
	require.NoError(t, err)
	require.ErrorIs(t, job.Handle(context.Background(), task), boom)
}

func TestLookupsRefreshJobSkipsBadPayload(t *testing.T) {
	inv := &stubInvalidator{}
	job := NewLookupsRefreshJob(inv, nil, nil, nil)
	err := job.Handle(context.Background(), asynq.NewTask(TaskLookupsRefresh, []byte("{")))
	require.ErrorIs(t, err, asynq.SkipRetry)
	require.Zero(t, inv.calls)
}

type stubInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (s stubInspector) GetQueueInfo(queue string) (*asynq.QueueInfo, error) {
	return s.info, s.err
}

type stubEnqueuer struct {
	err error
}

func (s stubEnqueuer) EnqueueLookupsRefresh(ctx context.Context, reason string) (*asynq.TaskInfo, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &asynq.TaskInfo{ID: "task-1", Type: TaskLookupsRefresh}, nil
}

func serveJobs(h *Handler, method, target string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Route("/jobs", h.MountRoutes)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestHealthWithoutInspector(t *testing.T) {
	rec := serveJobs(NewHandler(nil, nil, nil), http.MethodGet, "/jobs/health")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"queue":"default","pending":0,"active":0,"retry":0,"scheduled":0}`, rec.Body.String())
}

func TestHealthReportsQueue(t *testing.T) {
	h := NewHandler(stubInspector{info: &asynq.QueueInfo{Queue: "default", Pending: 4, Retry: 1}}, nil, nil)
	rec := serveJobs(h, http.MethodGet, "/jobs/health")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"queue":"default","pending":4,"active":0,"retry":1,"scheduled":0}`, rec.Body.String())

	h = NewHandler(stubInspector{err: errors.New("redis down")}, nil, nil)
	rec = serveJobs(h, http.MethodGet, "/jobs/health")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRefreshEndpoint(t *testing.T) {
	rec := serveJobs(NewHandler(nil, stubEnqueuer{}, nil), http.MethodPost, "/jobs/lookups/refresh")
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.JSONEq(t, `{"status":"queued","id":"task-1"}`, rec.Body.String())

	rec = serveJobs(NewHandler(nil, stubEnqueuer{err: asynq.ErrDuplicateTask}, nil), http.MethodPost, "/jobs/lookups/refresh")
	require.Equal(t, http.StatusAccepted, rec.Code)

	rec = serveJobs(NewHandler(nil, nil, nil), http.MethodPost, "/jobs/lookups/refresh")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
