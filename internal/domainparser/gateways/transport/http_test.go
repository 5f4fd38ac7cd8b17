package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/haukened/domainparser/internal/domainparser/domain"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type MockParser struct {
	mock.Mock
}

func (m *MockParser) Parse(raw, def string) (domain.ParseResult, error) {
	args := m.Called(raw, def)
	return args.Get(0).(domain.ParseResult), args.Error(1)
}

func (m *MockParser) IsValid(candidate string) bool {
	return m.Called(candidate).Bool(0)
}

type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) Catalog() (*domain.Catalog, error) {
	args := m.Called()
	cat, _ := args.Get(0).(*domain.Catalog)
	return cat, args.Error(1)
}

func (m *MockCatalog) Refresh(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func newTestTransport(p Parser, c CatalogSource) *HTTPTransport {
	return NewHTTPTransport(Options{Addr: "127.0.0.1:0", Parser: p, Catalog: c, DefaultSuffix: "com"})
}

func do(t *testing.T, tr *HTTPTransport, method, target string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	tr.routes().ServeHTTP(rec, req)
	var body map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

var sampleCatalog = domain.NewCatalog([]domain.SuffixGroup{
	{Name: "uk", Suffixes: []string{"uk", "co.uk"}},
	{Name: "com", Suffixes: []string{"com"}},
}, 1700000000)

func TestHealth(t *testing.T) {
	rec, body := do(t, newTestTransport(new(MockParser), new(MockCatalog)), http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestParseEndpoint(t *testing.T) {
	p := new(MockParser)
	res := domain.ParseResult{Label: "example", LabelEncoded: "example", Suffix: "co.uk", SuffixEncoded: "co.uk", Group: "uk", ValidHostname: true}
	p.On("Parse", "http://example.co.uk", "com").Return(res, nil)
	p.On("Parse", "foo", "").Return(domain.ParseResult{Label: "foo", LabelEncoded: "foo", ValidHostname: true}, nil)
	tr := newTestTransport(p, new(MockCatalog))

	rec, body := do(t, tr, http.MethodGet, "/v1/parse?q=http://example.co.uk")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "example", body["label"])
	assert.Equal(t, "co.uk", body["suffix"])
	assert.Equal(t, "uk", body["group"])
	assert.Equal(t, true, body["valid_hostname"])
	assert.NotContains(t, body, "error")

	rec, body = do(t, tr, http.MethodGet, "/v1/parse?q=foo&default=")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "", body["suffix"])
	p.AssertExpectations(t)
}

func TestParseEndpoint_Errors(t *testing.T) {
	p := new(MockParser)
	p.On("Parse", "captured", "com").Return(domain.FailedResult(domain.ErrUnparsable), nil)
	p.On("Parse", "thrown", "com").Return(domain.ParseResult{}, fmt.Errorf("%w: x", domain.ErrUnparsable))
	p.On("Parse", "nocache", "com").Return(domain.ParseResult{}, domain.ErrCacheUnavailable)
	tr := newTestTransport(p, new(MockCatalog))

	rec, body := do(t, tr, http.MethodGet, "/v1/parse")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["error"], "missing")

	rec, body = do(t, tr, http.MethodGet, "/v1/parse?q=captured")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, domain.ErrUnparsable.Error(), body["error"])

	rec, _ = do(t, tr, http.MethodGet, "/v1/parse?q=thrown")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec, _ = do(t, tr, http.MethodGet, "/v1/parse?q=nocache")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestValidEndpoint(t *testing.T) {
	p := new(MockParser)
	p.On("IsValid", "co.uk").Return(false)
	p.On("IsValid", "example.co.uk").Return(true)
	tr := newTestTransport(p, new(MockCatalog))

	rec, body := do(t, tr, http.MethodGet, "/v1/valid?q=co.uk")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["valid"])

	_, body = do(t, tr, http.MethodGet, "/v1/valid?q=example.co.uk")
	assert.Equal(t, true, body["valid"])
	assert.Equal(t, "example.co.uk", body["input"])

	rec, _ = do(t, tr, http.MethodGet, "/v1/valid")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCatalogEndpoint(t *testing.T) {
	c := new(MockCatalog)
	c.On("Catalog").Return(sampleCatalog, nil).Once()
	c.On("Catalog").Return(nil, fmt.Errorf("%w: missing", domain.ErrCacheUnavailable)).Once()
	tr := newTestTransport(new(MockParser), c)

	rec, body := do(t, tr, http.MethodGet, "/v1/catalog")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1700000000, body["timestamp"])
	assert.Equal(t, "2023-11-14T22:13:20Z", body["updated"])
	assert.EqualValues(t, 2, body["groups"])
	assert.EqualValues(t, 3, body["suffixes"])
	assert.NotContains(t, body, "results")

	rec, _ = do(t, tr, http.MethodGet, "/v1/catalog")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

type fixedStats struct{}

func (fixedStats) Len() int                        { return 4 }
func (fixedStats) Stats() (uint64, uint64, uint64) { return 10, 3, 1 }

func TestCatalogEndpoint_ResultStats(t *testing.T) {
	c := new(MockCatalog)
	c.On("Catalog").Return(sampleCatalog, nil)
	tr := NewHTTPTransport(Options{Parser: new(MockParser), Catalog: c, Results: fixedStats{}})

	rec, body := do(t, tr, http.MethodGet, "/v1/catalog")
	require.Equal(t, http.StatusOK, rec.Code)
	results, ok := body["results"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 4, results["entries"])
	assert.EqualValues(t, 10, results["hits"])
	assert.EqualValues(t, 3, results["misses"])
	assert.EqualValues(t, 1, results["evictions"])
}

func TestGroupEndpoint(t *testing.T) {
	c := new(MockCatalog)
	c.On("Catalog").Return(sampleCatalog, nil).Twice()
	c.On("Catalog").Return(nil, domain.ErrCacheUnavailable).Once()
	tr := newTestTransport(new(MockParser), c)

	rec, body := do(t, tr, http.MethodGet, "/v1/catalog/groups/uk")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "uk", body["name"])
	assert.Equal(t, []any{"co.uk", "uk"}, body["suffixes"])

	rec, body = do(t, tr, http.MethodGet, "/v1/catalog/groups/io")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, body["error"], "io")

	rec, _ = do(t, tr, http.MethodGet, "/v1/catalog/groups/uk")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRefreshEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		refreshErr error
		wantStatus int
		wantWarn   bool
	}{
		{"success", nil, http.StatusOK, false},
		{"persist failure still published", fmt.Errorf("%w: disk full", domain.ErrCacheWrite), http.StatusOK, true},
		{"source unreachable", fmt.Errorf("%w: timeout", domain.ErrSourceUnreachable), http.StatusBadGateway, false},
		{"malformed", domain.ErrMalformedSource, http.StatusBadGateway, false},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := new(MockCatalog)
			c.On("Refresh", mock.Anything).Return(tt.refreshErr)
			c.On("Catalog").Return(sampleCatalog, nil)
			tr := newTestTransport(new(MockParser), c)

			rec, body := do(t, tr, http.MethodPost, "/v1/catalog/refresh")
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Contains(t, body, "catalog")
			}
			_, hasWarn := body["warning"]
			assert.Equal(t, tt.wantWarn, hasWarn)
		})
	}
}

func TestStartStop(t *testing.T) {
	p := new(MockParser)
	p.On("IsValid", "example.com").Return(true)
	tr := newTestTransport(p, new(MockCatalog))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, tr.Start(ctx))
	assert.Error(t, tr.Start(ctx), "second start must fail")

	url := "http://" + tr.Address() + "/v1/valid?q=example.com"
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, tr.Stop())
	assert.NoError(t, tr.Stop(), "stop is idempotent")

	client := http.Client{Timeout: 200 * time.Millisecond}
	_, err = client.Get(url)
	assert.Error(t, err)
}

func TestStart_BindError(t *testing.T) {
	tr := NewHTTPTransport(Options{Addr: "256.0.0.1:bad"})
	assert.Error(t, tr.Start(context.Background()))
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusUnprocessableEntity, statusFor(domain.ErrEncoding))
	assert.Equal(t, http.StatusInternalServerError, statusFor(domain.ErrCacheWrite))
}
