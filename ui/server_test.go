package ui

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"evdash/adapters/excel"
	"evdash/app"
	loader "evdash/internal/dataset"
	"evdash/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uploadOptions() loader.Options {
	return loader.Options{Columns: testkit.DefaultColumns(), Reader: excel.DefaultReaderConfig()}
}

func fixtureFiles(t *testing.T) (ev, chargers []byte) {
	t.Helper()
	fixture := testkit.NewFixture(testkit.DefaultGeneratorConfig())
	cols := testkit.DefaultColumns()
	ev, err := testkit.CSVBytes(fixture.EVRows(cols))
	require.NoError(t, err)
	chargers, err = testkit.CSVBytes(fixture.ChargerRows(cols))
	require.NoError(t, err)
	return ev, chargers
}

func newTestServer(t *testing.T, withSource bool) *Server {
	t.Helper()
	cfg := Config{
		Service: app.NewDashboardService(nil, nil),
		Upload:  uploadOptions(),
		GinMode: "test",
	}
	if withSource {
		ev, chargers := fixtureFiles(t)
		cfg.Default = loader.NewUploadSource(
			loader.UploadFile{Name: "ev.csv", Content: ev},
			loader.UploadFile{Name: "chargers.csv", Content: chargers},
			uploadOptions(),
		)
	}
	s, err := NewServer(cfg)
	require.NoError(t, err)
	return s
}

func multipartBody(t *testing.T, files map[string][2]string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for field, file := range files {
		part, err := w.CreateFormFile(field, file[0])
		require.NoError(t, err)
		_, err = part.Write([]byte(file[1]))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &body, w.FormDataContentType()
}

func do(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestAPISummary(t *testing.T) {
	s := newTestServer(t, true)

	rec := do(s, httptest.NewRequest(http.MethodGet, "/api/summary", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Rows int `json:"rows"`
		Fit  struct {
			N        int     `json:"n"`
			Slope    float64 `json:"slope"`
			PearsonR float64 `json:"pearson_r"`
		} `json:"fit"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 24, body.Rows)
	assert.Equal(t, 24, body.Fit.N)
	assert.Greater(t, body.Fit.PearsonR, 0.9)
}

func TestAPI_NoSource(t *testing.T) {
	s := newTestServer(t, false)

	rec := do(s, httptest.NewRequest(http.MethodGet, "/api/summary", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"NOT_FOUND"`)

	rec = do(s, httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPIObservationsAndTimeline(t *testing.T) {
	s := newTestServer(t, true)

	rec := do(s, httptest.NewRequest(http.MethodGet, "/api/observations", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var ds struct {
		Observations []map[string]interface{} `json:"observations"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ds))
	assert.Len(t, ds.Observations, 24)

	rec = do(s, httptest.NewRequest(http.MethodGet, "/api/timeline", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var tl struct {
		Points []map[string]interface{} `json:"points"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tl))
	assert.Len(t, tl.Points, 12)
}

func TestUpload_MissingColumn(t *testing.T) {
	s := newTestServer(t, false)
	body, contentType := multipartBody(t, map[string][2]string{
		"ev":      {"ev.csv", "시군구,등록대수\nA,10\n"},
		"charger": {"chargers.csv", "시군구,충전기수\nA,2\n"},
	})

	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := do(s, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "MISSING_COLUMN", resp["code"])
	assert.Contains(t, resp["error"], "전기차등록수")
}

func TestUpload_ThenDashboard(t *testing.T) {
	s := newTestServer(t, false)
	ev, chargers := fixtureFiles(t)
	body, contentType := multipartBody(t, map[string][2]string{
		"ev":      {"ev.csv", string(ev)},
		"charger": {"chargers.csv", string(chargers)},
	})

	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "text/html")
	rec := do(s, req)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	rec = do(s, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	page := rec.Body.String()
	assert.Contains(t, page, "Correlation (r)")
	assert.Contains(t, page, "서울 강남구")
	assert.Contains(t, page, "/charts/timeline.svg")
	assert.Contains(t, page, "Back to configured files")

	rec = do(s, httptest.NewRequest(http.MethodPost, "/upload/clear", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(s, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Contains(t, rec.Body.String(), "No data configured")
}

func TestUpload_RequiresEV(t *testing.T) {
	s := newTestServer(t, false)
	body, contentType := multipartBody(t, map[string][2]string{"charger": {"c.csv", "a\n1\n"}})

	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := do(s, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_INPUT")
}

func TestDashboard_ErrorIsRendered(t *testing.T) {
	bad := loader.NewUploadSource(loader.UploadFile{Name: "ev.csv", Content: []byte("x,y\n1,2\n")}, loader.UploadFile{}, uploadOptions())
	s, err := NewServer(Config{Service: app.NewDashboardService(nil, nil), Default: bad, GinMode: "test"})
	require.NoError(t, err)

	rec := do(s, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "MISSING_COLUMN")
	assert.Contains(t, rec.Body.String(), "</html>")
}

func TestCharts(t *testing.T) {
	s := newTestServer(t, true)

	rec := do(s, httptest.NewRequest(http.MethodGet, "/charts/scatter.svg", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<svg")

	rec = do(s, httptest.NewRequest(http.MethodGet, "/charts/timeline.svg?format=png", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))

	rec = do(s, httptest.NewRequest(http.MethodGet, "/charts/scatter.svg?format=bmp", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReportAndCache(t *testing.T) {
	s := newTestServer(t, true)

	rec := do(s, httptest.NewRequest(http.MethodGet, "/report.xlsx", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))

	rec = do(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"entries":1`)

	rec = do(s, httptest.NewRequest(http.MethodPost, "/cache/reset", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, s.service.Cache().Stats().Entries)
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "1,234,567", formatNumber(1234567))
	assert.Equal(t, "-1,000", formatNumber(-1000))
	assert.Equal(t, "999", formatNumber(999))
	assert.Equal(t, "3.14", formatNumber(3.14159))
}
