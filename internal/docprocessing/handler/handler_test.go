package handler_test

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pravodoc/pravodoc-backend/internal/docprocessing/handler"
	"github.com/pravodoc/pravodoc-backend/internal/docprocessing/processor"
	"github.com/pravodoc/pravodoc-backend/internal/docprocessing/service"
	"github.com/pravodoc/pravodoc-backend/internal/docprocessing/storage"
	"github.com/pravodoc/pravodoc-backend/pkg/httputil"
	"github.com/pravodoc/pravodoc-backend/pkg/logger"
	"github.com/pravodoc/pravodoc-backend/pkg/testutil"
)

type stubReader []string

func (s stubReader) ReadLines(context.Context, []byte) ([]string, error) {
	return s, nil
}

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	store := storage.NewTempStorage(time.Minute)
	t.Cleanup(store.Close)

	lines := testutil.PassportLines(testutil.NewFixtureFactory().Passport())
	registry := processor.NewRegistry(
		processor.NewOCRProcessor("ocr", stubReader(lines), nil),
		processor.NewManualProcessor(),
	)
	svc := service.NewService(registry, store, nil, logger.Nop())
	h := handler.NewHandler(svc, 1<<20, logger.Nop())

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(httputil.WithUserID(r.Context(), "user-1")))
		})
	})
	r.Route("/api/v1", h.Routes)
	return r
}

func TestHandler_ParseManual(t *testing.T) {
	router := newRouter(t)

	tests := []struct {
		name       string
		body       interface{}
		wantStatus int
		wantBody   string
	}{
		{
			name:       "valid",
			body:       handler.ManualRequest{Text: "ФИО: Иванов Иван\nСерия: 1234\nНомер: 567890\nКем выдан: ОВД\nДата выдачи: 01.02.2020"},
			wantStatus: http.StatusOK,
			wantBody:   `"full_name":"Иванов Иван"`,
		},
		{
			name:       "missing fields",
			body:       handler.ManualRequest{Text: "ФИО: Иванов Иван"},
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   "FORMAT_ERROR",
		},
		{
			name:       "empty text",
			body:       map[string]string{},
			wantStatus: http.StatusBadRequest,
			wantBody:   "VALIDATION_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.NewHTTPRequest(http.MethodPost, "/api/v1/passports/manual", tt.body)
			rr := testutil.ExecuteRequest(router, req)
			testutil.AssertStatus(t, rr, tt.wantStatus)
			testutil.AssertBodyContains(t, rr, tt.wantBody)
		})
	}
}

func TestHandler_BuildSchedule(t *testing.T) {
	router := newRouter(t)

	req := testutil.NewHTTPRequest(http.MethodPost, "/api/v1/schedules", handler.ScheduleRequest{
		StartDate:   "25.03.2024",
		TotalAmount: 132000,
	})
	rr := testutil.ExecuteRequest(router, req)
	testutil.AssertStatus(t, rr, http.StatusOK)

	var resp struct {
		Data handler.ScheduleResponse `json:"data"`
	}
	testutil.ParseJSONBody(t, rr, &resp)
	require.Len(t, resp.Data.Payments, 9)
	assert.Equal(t, int64(27000), resp.Data.Payments[1].Amount)

	req = testutil.NewHTTPRequest(http.MethodPost, "/api/v1/schedules", handler.ScheduleRequest{
		StartDate:   "31.02.2024",
		TotalAmount: 1000,
	})
	rr = testutil.ExecuteRequest(router, req)
	testutil.AssertStatus(t, rr, http.StatusBadRequest)

	req = testutil.NewHTTPRequest(http.MethodPost, "/api/v1/schedules", handler.ScheduleRequest{
		StartDate:   "25.03.2024",
		TotalAmount: 9_000_000_000_000_000_000,
	})
	rr = testutil.ExecuteRequest(router, req)
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
}

func TestHandler_RecognizeAndPoll(t *testing.T) {
	router := newRouter(t)

	var img bytes.Buffer
	require.NoError(t, png.Encode(&img, image.NewGray(image.Rect(0, 0, 2, 2))))

	req := testutil.NewMultipartRequest(t, "/api/v1/passports/recognize", "file", "passport.png", img.Bytes())
	rr := testutil.ExecuteRequest(router, req)
	testutil.AssertStatus(t, rr, http.StatusAccepted)

	var created struct {
		Data struct {
			JobID string `json:"job_id"`
		} `json:"data"`
	}
	testutil.ParseJSONBody(t, rr, &created)
	require.NotEmpty(t, created.Data.JobID)

	testutil.RequireEventually(t, func() bool {
		rr := testutil.ExecuteRequest(router, testutil.NewHTTPRequest(http.MethodGet, "/api/v1/passports/jobs/"+created.Data.JobID, nil))
		return rr.Code == http.StatusOK && bytes.Contains(rr.Body.Bytes(), []byte(`"status":"completed"`))
	}, 2*time.Second, 10*time.Millisecond, "recognition job did not complete")

	rr = testutil.ExecuteRequest(router, testutil.NewHTTPRequest(http.MethodGet, "/api/v1/passports/jobs/unknown", nil))
	testutil.AssertStatus(t, rr, http.StatusNotFound)
}

func TestHandler_Recognize_Invalid(t *testing.T) {
	router := newRouter(t)

	req := testutil.NewMultipartRequest(t, "/api/v1/passports/recognize", "other", "x.png", []byte("x"))
	rr := testutil.ExecuteRequest(router, req)
	testutil.AssertStatus(t, rr, http.StatusBadRequest)

	req = testutil.NewMultipartRequest(t, "/api/v1/passports/recognize", "file", "x.txt", []byte("hello"))
	rr = testutil.ExecuteRequest(router, req)
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
}
