// Package transport exposes the decomposer over HTTP.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/haukened/domainparser/internal/domainparser/common/log"
	"github.com/haukened/domainparser/internal/domainparser/domain"
)

// Parser is the decomposition service.
type Parser interface {
	Parse(raw, defaultSuffix string) (domain.ParseResult, error)
	IsValid(candidate string) bool
}

// CatalogSource reports on and refreshes the suffix catalog.
type CatalogSource interface {
	Catalog() (*domain.Catalog, error)
	Refresh(ctx context.Context) error
}

// ResultStats reports on the parse result cache.
type ResultStats interface {
	Len() int
	Stats() (hits, misses, evictions uint64)
}

type Options struct {
	Addr          string
	Parser        Parser
	Catalog       CatalogSource
	Results       ResultStats // optional
	DefaultSuffix string
	Logger        log.Logger
}

// HTTPTransport serves the JSON API:
//
//	GET  /healthz
//	GET  /v1/parse?q=<input>&default=<suffix>
//	GET  /v1/valid?q=<input>
//	GET  /v1/catalog
//	GET  /v1/catalog/groups/<name>
//	POST /v1/catalog/refresh
type HTTPTransport struct {
	addr          string
	parser        Parser
	catalog       CatalogSource
	results       ResultStats
	defaultSuffix string
	logger        log.Logger

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
	running  bool
}

func NewHTTPTransport(opts Options) *HTTPTransport {
	logger := opts.Logger
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &HTTPTransport{
		addr:          opts.Addr,
		parser:        opts.Parser,
		catalog:       opts.Catalog,
		results:       opts.Results,
		defaultSuffix: opts.DefaultSuffix,
		logger:        logger,
	}
}

// Start binds the listener and serves in the background until Stop is called
// or ctx is done.
func (t *HTTPTransport) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return fmt.Errorf("HTTP transport already running")
	}

	ln, err := net.Listen("tcp", t.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", t.addr, err)
	}
	t.listener = ln
	t.server = &http.Server{
		Handler:           t.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	t.running = true

	t.logger.Info(map[string]any{
		"transport": "http",
		"address":   ln.Addr().String(),
	}, "HTTP transport started")

	go func(srv *http.Server) {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.logger.Error(map[string]any{"error": err}, "HTTP server failed")
		}
	}(t.server)

	go func() {
		<-ctx.Done()
		_ = t.Stop()
	}()
	return nil
}

// Stop gracefully shuts the server down.
func (t *HTTPTransport) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.running {
		return nil
	}
	t.running = false

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := t.server.Shutdown(ctx)
	if err != nil {
		t.logger.Warn(map[string]any{"error": err}, "Error shutting down HTTP server")
	}

	t.logger.Info(map[string]any{
		"transport": "http",
		"address":   t.addr,
	}, "HTTP transport stopped")
	return err
}

// Address returns the bound address once started, the configured one before.
func (t *HTTPTransport) Address() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.listener != nil {
		return t.listener.Addr().String()
	}
	return t.addr
}

func (t *HTTPTransport) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), t.requestLogger())

	r.GET("/healthz", t.health)
	v1 := r.Group("/v1")
	v1.GET("/parse", t.parse)
	v1.GET("/valid", t.valid)
	v1.GET("/catalog", t.catalogInfo)
	v1.GET("/catalog/groups/:name", t.group)
	v1.POST("/catalog/refresh", t.refresh)
	return r
}

func (t *HTTPTransport) requestLogger() gin.HandlerFunc {
	return func(g *gin.Context) {
		start := time.Now()
		g.Next()
		t.logger.Debug(map[string]any{
			"method":  g.Request.Method,
			"path":    g.Request.URL.Path,
			"status":  g.Writer.Status(),
			"latency": time.Since(start).String(),
			"client":  g.ClientIP(),
		}, "HTTP request handled")
	}
}

func (t *HTTPTransport) health(g *gin.Context) {
	g.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (t *HTTPTransport) parse(g *gin.Context) {
	q, ok := g.GetQuery("q")
	if !ok {
		g.JSON(http.StatusBadRequest, gin.H{"error": "missing query parameter q"})
		return
	}
	def, ok := g.GetQuery("default")
	if !ok {
		def = t.defaultSuffix
	}

	res, err := t.parser.Parse(q, def)
	if err != nil {
		g.JSON(statusFor(err), domain.FailedResult(err))
		return
	}
	if res.Failed() {
		g.JSON(http.StatusUnprocessableEntity, res)
		return
	}
	g.JSON(http.StatusOK, res)
}

func (t *HTTPTransport) valid(g *gin.Context) {
	q, ok := g.GetQuery("q")
	if !ok {
		g.JSON(http.StatusBadRequest, gin.H{"error": "missing query parameter q"})
		return
	}
	g.JSON(http.StatusOK, gin.H{"input": q, "valid": t.parser.IsValid(q)})
}

type catalogSummary struct {
	Timestamp int64          `json:"timestamp"`
	Updated   string         `json:"updated"`
	Groups    int            `json:"groups"`
	Suffixes  int            `json:"suffixes"`
	Results   *resultSummary `json:"results,omitempty"`
}

type resultSummary struct {
	Entries   int    `json:"entries"`
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
}

func summarize(cat *domain.Catalog) catalogSummary {
	return catalogSummary{
		Timestamp: cat.Timestamp,
		Updated:   time.Unix(cat.Timestamp, 0).UTC().Format(time.RFC3339),
		Groups:    len(cat.Groups),
		Suffixes:  cat.SuffixCount(),
	}
}

func (t *HTTPTransport) catalogInfo(g *gin.Context) {
	cat, err := t.catalog.Catalog()
	if err != nil {
		g.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	summary := summarize(cat)
	if t.results != nil {
		hits, misses, evictions := t.results.Stats()
		summary.Results = &resultSummary{
			Entries:   t.results.Len(),
			Hits:      hits,
			Misses:    misses,
			Evictions: evictions,
		}
	}
	g.JSON(http.StatusOK, summary)
}

func (t *HTTPTransport) group(g *gin.Context) {
	cat, err := t.catalog.Catalog()
	if err != nil {
		g.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	name := g.Param("name")
	grp, ok := cat.Group(name)
	if !ok {
		g.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("unknown group %q", name)})
		return
	}
	g.JSON(http.StatusOK, gin.H{"name": grp.Name, "suffixes": grp.Suffixes})
}

func (t *HTTPTransport) refresh(g *gin.Context) {
	err := t.catalog.Refresh(g.Request.Context())
	if err != nil && !errors.Is(err, domain.ErrCacheWrite) {
		t.logger.Warn(map[string]any{"error": err}, "Catalog refresh via API failed")
		g.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	cat, catErr := t.catalog.Catalog()
	if catErr != nil {
		g.JSON(statusFor(catErr), gin.H{"error": catErr.Error()})
		return
	}
	body := gin.H{"catalog": summarize(cat)}
	if err != nil {
		// Published but not persisted.
		body["warning"] = err.Error()
	}
	g.JSON(http.StatusOK, body)
}

// statusFor maps error kinds to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnparsable), errors.Is(err, domain.ErrEncoding):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrCacheUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrSourceUnreachable), errors.Is(err, domain.ErrMalformedSource):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
