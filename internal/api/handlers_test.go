package api

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insight-studio/backend/internal/animate"
	"github.com/insight-studio/backend/internal/config"
	"github.com/insight-studio/backend/internal/figure"
	"github.com/insight-studio/backend/internal/insight"
	"github.com/insight-studio/backend/internal/llm"
	"github.com/insight-studio/backend/internal/models"
	"github.com/insight-studio/backend/internal/profile"
	"github.com/insight-studio/backend/internal/raster"
	"github.com/insight-studio/backend/internal/session"
	"github.com/insight-studio/backend/internal/testutil"
	"github.com/insight-studio/backend/internal/video"
)

const insightReply = `Here you go:
{"key_insights":[{"title":"North leads","description":"North sells the most","importance":"High"}],
 "trends":[{"pattern":"Growth","explanation":"Sales rise over the week"}],
 "visualization_suggestions":[{"type":"basic_bar","reason":"compare regions"}]}`

type fakeCompleter struct {
	mu      sync.Mutex
	reply   string
	err     error
	prompts []string
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string, _ float64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

func (f *fakeCompleter) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

type fakeWriter struct {
	path   string
	frames int
}

func (w *fakeWriter) WriteFrame(image.Image) error {
	w.frames++
	return nil
}

func (w *fakeWriter) Close() error {
	return os.WriteFile(w.path, []byte("fake mp4"), 0644)
}

func fakeWriterFactory(_ context.Context, path string, _ float64, _, _ int) (video.FrameWriter, error) {
	return &fakeWriter{path: path}, nil
}

type testEnv struct {
	e        *echo.Echo
	h        *Handlers
	sessions *session.Manager
	store    *testutil.MockStorage
	llm      *fakeCompleter
	cookies  []*http.Cookie
}

type envOption func(cfg *config.AppConfig)

func withoutInsightsOnUpload(cfg *config.AppConfig) { cfg.LLM.InsightsOnUpload = false }

// newTestEnv wires the full router. A nil completer disables the language model.
func newTestEnv(t *testing.T, completer *fakeCompleter, opts ...envOption) *testEnv {
	t.Helper()
	logger := testutil.NewTestLogger(t)
	dir := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.Storage.TempDirectory = dir
	cfg.Rendering.Width, cfg.Rendering.Height = 320, 180
	cfg.Rendering.SlideWidth, cfg.Rendering.SlideHeight = 320, 180
	for _, opt := range opts {
		opt(cfg)
	}

	var c llm.Completer
	if completer != nil {
		c = completer
	}

	store := testutil.NewMockStorage(dir)
	sessions := session.NewManager(0, logger)
	h := NewHandlers(&Dependencies{
		Store:        store,
		SessionMgr:   sessions,
		CookieStore:  NewCookieStore("test-secret", false, 3600),
		Insights:     insight.NewService(c, logger),
		Profiler:     &profile.Profiler{Threads: 1, Logger: logger},
		ProfileCache: profile.NewCache(logger),
		Generator:    animate.NewGenerator(logger),
		Encoder:      video.NewEncoder(raster.New(320, 180), fakeWriterFactory, dir, logger),
		Config:       cfg,
		Logger:       logger,
		Version:      "test",
	})

	e := echo.New()
	SetupMiddleware(e, true)
	RegisterRoutes(e, h)

	return &testEnv{e: e, h: h, sessions: sessions, store: store, llm: completer}
}

func (env *testEnv) do(t *testing.T, method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	for _, c := range env.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	if cookies := rec.Result().Cookies(); len(cookies) > 0 {
		env.cookies = cookies
	}
	return rec
}

func (env *testEnv) doJSON(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	return env.do(t, method, target, strings.NewReader(body), echo.MIMEApplicationJSON)
}

func (env *testEnv) upload(t *testing.T, name, data string) *httptest.ResponseRecorder {
	t.Helper()
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", name)
	require.NoError(t, err)
	part.Write([]byte(data))
	require.NoError(t, writer.Close())
	return env.do(t, http.MethodPost, "/api/dataset", body, writer.FormDataContentType())
}

func decodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func assertAPIError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	assert.Equal(t, status, rec.Code, rec.Body.String())
	apiErr := decodeJSON[APIError](t, rec)
	assert.Equal(t, code, apiErr.Code)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeJSON[map[string]interface{}](t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, false, body["insights"])
	assert.Empty(t, rec.Result().Cookies(), "health checks do not create sessions")
}

func TestSession_CookieAndView(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/session", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	first := decodeJSON[models.SessionSummary](t, rec)
	assert.Equal(t, models.ViewVisualization, first.ActiveView)
	require.NotEmpty(t, env.cookies)

	rec = env.doJSON(t, http.MethodPut, "/api/session/view", `{"view":"insights"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decodeJSON[models.SessionSummary](t, rec)
	assert.Equal(t, first.ID, updated.ID)
	assert.Equal(t, models.ViewInsights, updated.ActiveView)

	rec = env.doJSON(t, http.MethodPut, "/api/session/view", `{"view":"settings"}`)
	assertAPIError(t, rec, http.StatusBadRequest, "VALIDATION_ERROR")
	assert.Equal(t, 1, env.sessions.Count())
}

func TestSession_RecreatedAfterCleanup(t *testing.T) {
	env := newTestEnv(t, nil)

	first := decodeJSON[models.SessionSummary](t, env.do(t, http.MethodGet, "/api/session", nil, ""))
	require.True(t, env.sessions.Delete(first.ID))

	rec := env.do(t, http.MethodGet, "/api/session", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	second := decodeJSON[models.SessionSummary](t, rec)
	assert.NotEqual(t, first.ID, second.ID)
	assert.NotEmpty(t, rec.Result().Cookies(), "a new cookie is issued")
}

func TestDataset_UploadPreviewDelete(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/dataset", nil, "")
	assertAPIError(t, rec, http.StatusConflict, "NO_DATASET")

	rec = env.upload(t, "sales.csv", testutil.SalesCSV)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	summary := decodeJSON[models.SessionSummary](t, rec)
	require.NotNil(t, summary.Dataset)
	assert.Equal(t, "sales.csv", summary.Dataset.Name)
	assert.Equal(t, 5, summary.Dataset.Rows)
	assert.Equal(t, []string{"sales", "units"}, summary.Dataset.NumericColumns)
	assert.Equal(t, []string{"region", "product"}, summary.Dataset.CategoricalColumns)
	firstID := summary.Dataset.FileID

	info, err := env.store.Get(firstID)
	require.NoError(t, err)
	assert.Equal(t, models.FileStatusLoaded, info.Status)

	rec = env.do(t, http.MethodGet, "/api/dataset/preview?rows=2", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	preview := decodeJSON[struct {
		Columns []string         `json:"columns"`
		Rows    []map[string]any `json:"rows"`
		Total   int              `json:"total"`
	}](t, rec)
	assert.Len(t, preview.Rows, 2)
	assert.Equal(t, 5, preview.Total)
	assert.Equal(t, "north", preview.Rows[0]["region"])

	rec = env.do(t, http.MethodGet, "/api/dataset/preview?rows=0", nil, "")
	assertAPIError(t, rec, http.StatusBadRequest, "VALIDATION_ERROR")

	// A second upload replaces the first and drops its file.
	rec = env.upload(t, "again.csv", testutil.SalesCSV)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 1, env.store.GetFileCount())
	_, err = env.store.Get(firstID)
	assert.Error(t, err)

	rec = env.do(t, http.MethodDelete, "/api/dataset", nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 0, env.store.GetFileCount())

	rec = env.do(t, http.MethodGet, "/api/dataset", nil, "")
	assertAPIError(t, rec, http.StatusConflict, "NO_DATASET")
}

func TestDataset_UploadFailures(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.upload(t, "empty.csv", testutil.HeaderOnlyCSV)
	assertAPIError(t, rec, http.StatusBadRequest, "INVALID_INPUT")
	assert.Equal(t, 0, env.store.GetFileCount(), "an unreadable upload is removed right away")

	rec = env.do(t, http.MethodPost, "/api/dataset", strings.NewReader("x"), echo.MIMEApplicationJSON)
	assertAPIError(t, rec, http.StatusBadRequest, "BAD_REQUEST")

	rec = env.do(t, http.MethodGet, "/api/session", nil, "")
	assert.Nil(t, decodeJSON[models.SessionSummary](t, rec).Dataset, "a failed upload leaves the session untouched")
}

func TestInsights_RequestedOnUpload(t *testing.T) {
	fake := &fakeCompleter{reply: insightReply}
	env := newTestEnv(t, fake)

	rec := env.upload(t, "sales.csv", testutil.SalesCSV)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, decodeJSON[models.SessionSummary](t, rec).HasInsights, "insights are ready when the upload returns")
	assert.Equal(t, 1, fake.calls())

	rec = env.do(t, http.MethodGet, "/api/insights", nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	set := decodeJSON[insight.InsightSet](t, rec)
	require.Len(t, set.KeyInsights, 1)
	assert.Equal(t, "North leads", set.KeyInsights[0].Title)
	assert.Contains(t, fake.prompts[0], `Columns: ["region","product","sales","units","date"]`)

	rec = env.do(t, http.MethodPost, "/api/insights/refresh", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, fake.calls())

	summary := decodeJSON[models.SessionSummary](t, env.do(t, http.MethodGet, "/api/session", nil, ""))
	assert.True(t, summary.HasInsights)
}

func TestInsights_FailureIsReported(t *testing.T) {
	fake := &fakeCompleter{reply: "I could not find anything interesting."}
	env := newTestEnv(t, fake)

	require.Equal(t, http.StatusCreated, env.upload(t, "sales.csv", testutil.SalesCSV).Code)

	rec := env.do(t, http.MethodGet, "/api/insights", nil, "")
	assertAPIError(t, rec, http.StatusBadGateway, "INSIGHTS_UNAVAILABLE")

	summary := decodeJSON[models.SessionSummary](t, env.do(t, http.MethodGet, "/api/session", nil, ""))
	assert.False(t, summary.HasInsights)
	assert.Equal(t, "could not obtain insights", summary.InsightsError)
	assert.Equal(t, 5, summary.Dataset.Rows, "the dataset stays usable")

	rec = env.do(t, http.MethodPost, "/api/insights/refresh", nil, "")
	assertAPIError(t, rec, http.StatusBadGateway, "INSIGHTS_UNAVAILABLE")
}

func TestInsights_Disabled(t *testing.T) {
	env := newTestEnv(t, nil)
	require.Equal(t, http.StatusCreated, env.upload(t, "sales.csv", testutil.SalesCSV).Code)

	for _, tc := range []struct {
		method, path, body string
	}{
		{http.MethodGet, "/api/insights", ""},
		{http.MethodPost, "/api/insights/refresh", ""},
		{http.MethodPost, "/api/charts/suggest", `{"type":"line"}`},
		{http.MethodPost, "/api/dataset/text", `{"text":"alice liked it"}`},
	} {
		t.Run(tc.path, func(t *testing.T) {
			rec := env.doJSON(t, tc.method, tc.path, tc.body)
			assertAPIError(t, rec, http.StatusServiceUnavailable, "FEATURE_DISABLED")
		})
	}
}

func TestInsights_MissingKeyAtRuntime(t *testing.T) {
	fake := &fakeCompleter{err: llm.ErrMissingAPIKey}
	env := newTestEnv(t, fake, withoutInsightsOnUpload)
	require.Equal(t, http.StatusCreated, env.upload(t, "sales.csv", testutil.SalesCSV).Code)

	rec := env.do(t, http.MethodPost, "/api/insights/refresh", nil, "")
	assertAPIError(t, rec, http.StatusServiceUnavailable, "FEATURE_DISABLED")

	rec = env.do(t, http.MethodGet, "/api/insights", nil, "")
	assertAPIError(t, rec, http.StatusServiceUnavailable, "FEATURE_DISABLED")
}

func TestDatasetFromText(t *testing.T) {
	fake := &fakeCompleter{reply: `{"columns":["name","score"],"data":[["alice",4],["bob",5]]}`}
	env := newTestEnv(t, fake, withoutInsightsOnUpload)

	rec := env.doJSON(t, http.MethodPost, "/api/dataset/text", `{"text":"alice gave 4 stars, bob gave 5"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	summary := decodeJSON[models.SessionSummary](t, rec)
	assert.Equal(t, 2, summary.Dataset.Rows)
	assert.Equal(t, []string{"score"}, summary.Dataset.NumericColumns)

	data, err := env.store.GetFileData(summary.Dataset.FileID)
	require.NoError(t, err)
	assert.Equal(t, "name,score\nalice,4\nbob,5\n", string(data))

	rec = env.doJSON(t, http.MethodPost, "/api/dataset/text", `{"text":"  "}`)
	assertAPIError(t, rec, http.StatusBadRequest, "VALIDATION_ERROR")
}

func TestCharts(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.doJSON(t, http.MethodPost, "/api/charts/render", `{"type":"basic_bar","x":"region","y":"sales"}`)
	assertAPIError(t, rec, http.StatusConflict, "NO_DATASET")

	require.Equal(t, http.StatusCreated, env.upload(t, "sales.csv", testutil.SalesCSV).Code)

	rec = env.do(t, http.MethodGet, "/api/charts/columns?kind=line", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	cols := decodeJSON[map[string][]string](t, rec)
	assert.Equal(t, []string{"sales", "units", "date"}, cols["x"])
	assert.Equal(t, []string{"sales", "units"}, cols["y"])

	rec = env.doJSON(t, http.MethodPost, "/api/charts/render", `{"type":"basic_bar","x":"region","y":"sales","title":"Sales"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	fig := decodeJSON[figure.Figure](t, rec)
	require.Len(t, fig.Traces, 1)
	assert.Equal(t, figure.TraceBar, fig.Traces[0].Type)

	rec = env.doJSON(t, http.MethodPost, "/api/charts/render?format=png", `{"type":"pie","labels":"region","values":"sales"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get(echo.HeaderContentType))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))

	rec = env.doJSON(t, http.MethodPost, "/api/charts/render?format=msgpack", `{"type":"scatter","x":"units","y":"sales"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	figs, err := figure.UnmarshalMsgpack(rec.Body.Bytes())
	require.NoError(t, err)
	assert.Len(t, figs, 1)

	rec = env.doJSON(t, http.MethodPost, "/api/charts/render", `{"type":"heatmap","x":"region","y":"sales"}`)
	assertAPIError(t, rec, http.StatusBadRequest, "BAD_REQUEST")

	rec = env.doJSON(t, http.MethodPost, "/api/charts/render", `{"type":"line","x":"units","y":"profit"}`)
	assertAPIError(t, rec, http.StatusUnprocessableEntity, "RENDER_ERROR")

	rec = env.doJSON(t, http.MethodPost, "/api/charts/render?format=gif", `{"type":"line","x":"units","y":"sales"}`)
	assertAPIError(t, rec, http.StatusBadRequest, "VALIDATION_ERROR")
}

func TestSuggestChart(t *testing.T) {
	fake := &fakeCompleter{reply: `{"parameters":{"x":"region","y":"sales","title":"Sales by region"}}`}
	env := newTestEnv(t, fake, withoutInsightsOnUpload)
	require.Equal(t, http.StatusCreated, env.upload(t, "sales.csv", testutil.SalesCSV).Code)

	rec := env.doJSON(t, http.MethodPost, "/api/charts/suggest", `{"type":"basic_bar"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	s := decodeJSON[insight.Suggestion](t, rec)
	assert.Equal(t, "region", s.Parameters.X)
	assert.Equal(t, "Sales by region", s.Parameters.Title)

	rec = env.doJSON(t, http.MethodPost, "/api/charts/suggest", `{"type":"radar"}`)
	assertAPIError(t, rec, http.StatusBadRequest, "VALIDATION_ERROR")

	fake.reply = `{"parameters":{"x":"region","y":"profit","title":"Profit"}}`
	rec = env.doJSON(t, http.MethodPost, "/api/charts/suggest", `{"type":"basic_bar"}`)
	assertAPIError(t, rec, http.StatusBadGateway, "INSIGHTS_UNAVAILABLE")
}

func TestAnimation(t *testing.T) {
	env := newTestEnv(t, nil)
	require.Equal(t, http.StatusCreated, env.upload(t, "sales.csv", testutil.SalesCSV).Code)

	rec := env.doJSON(t, http.MethodPost, "/api/animations", `{"type":"basic_bar","x":"region","y":"sales","duration":1,"fps":24}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeJSON[videoResponse](t, rec)
	assert.Equal(t, "basic_bar_animation.mp4", resp.FileName)
	assert.Equal(t, 24, resp.Frames)
	assert.Equal(t, video.DataURI([]byte("fake mp4")), resp.DataURI)

	rec = env.doJSON(t, http.MethodPost, "/api/animations?download=1", `{"type":"line","x":"units","y":"sales","duration":1,"fps":24}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, video.MIMEType, rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "line_animation.mp4")
	assert.Equal(t, "fake mp4", rec.Body.String())

	for _, body := range []string{
		`{"type":"line","x":"units","y":"sales","duration":11,"fps":24}`,
		`{"type":"line","x":"units","y":"sales","duration":1,"fps":10}`,
		`{"type":"line","x":"units","y":"sales","duration":-1}`,
	} {
		rec = env.doJSON(t, http.MethodPost, "/api/animations", body)
		assertAPIError(t, rec, http.StatusBadRequest, "VALIDATION_ERROR")
	}

	rec = env.doJSON(t, http.MethodPost, "/api/animations", `{"type":"basic_bar","x":"region","y":"profit","duration":1,"fps":24}`)
	assertAPIError(t, rec, http.StatusUnprocessableEntity, "RENDER_ERROR")
}

func TestPresentation(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/presentation/deck", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"seconds_per_slide":2,"visualizations":[]}`, rec.Body.String())

	deckYAML := "visualizations:\n  - type: basic_bar\n    x: region\n    y: sales\n  - type: scatter\n    x: units\n    y: missing\n"
	rec = env.do(t, http.MethodPut, "/api/presentation/deck", strings.NewReader(deckYAML), mimeYAML)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/presentation/deck?format=yaml", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, mimeYAML, rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Body.String(), "type: basic_bar")

	rec = env.do(t, http.MethodPut, "/api/presentation/deck", strings.NewReader("visualizations:\n  - type: radar\n"), mimeYAML)
	assertAPIError(t, rec, http.StatusBadRequest, "BAD_REQUEST")

	rec = env.do(t, http.MethodPost, "/api/presentation/slides", nil, "")
	assertAPIError(t, rec, http.StatusConflict, "NO_DATASET")

	require.Equal(t, http.StatusCreated, env.upload(t, "sales.csv", testutil.SalesCSV).Code)
	// Loading a dataset clears the visualization list.
	rec = env.do(t, http.MethodPut, "/api/presentation/deck", strings.NewReader(deckYAML), mimeYAML)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/presentation/slides", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	figs := decodeJSON[[]figure.Figure](t, rec)
	assert.Len(t, figs, 3, "title, one chart and closing; the broken chart is skipped")

	rec = env.do(t, http.MethodPost, "/api/presentation/slides?format=msgpack", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	decoded, err := figure.UnmarshalMsgpack(rec.Body.Bytes())
	require.NoError(t, err)
	assert.Len(t, decoded, 3)

	rec = env.do(t, http.MethodPost, "/api/presentation/slides?format=png", nil, "")
	assertAPIError(t, rec, http.StatusBadRequest, "VALIDATION_ERROR")

	rec = env.do(t, http.MethodPost, "/api/presentation/video?secondsPerSlide=1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeJSON[videoResponse](t, rec)
	assert.Equal(t, "presentation.mp4", resp.FileName)
	assert.Equal(t, 3, resp.Frames)

	rec = env.do(t, http.MethodPost, "/api/presentation/video?secondsPerSlide=30", nil, "")
	assertAPIError(t, rec, http.StatusBadRequest, "VALIDATION_ERROR")
}

func TestProfile(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/profile", nil, "")
	assertAPIError(t, rec, http.StatusConflict, "NO_DATASET")

	require.Equal(t, http.StatusCreated, env.upload(t, "sales.csv", testutil.SalesCSV).Code)

	rec = env.do(t, http.MethodGet, "/api/profile", nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/html")
	assert.Contains(t, rec.Body.String(), "sales.csv")
	assert.Contains(t, rec.Body.String(), "region")

	_, err := os.Stat(env.h.Profile.(*ProfileHandlerImpl).tempDir + "/" + profile.ReportFileName)
	assert.True(t, os.IsNotExist(err), "the report file is removed after serving")
}
