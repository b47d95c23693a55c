package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vitwit/zizza/logger"
	"github.com/vitwit/zizza/types"
)

const requestIDHeader = "X-Request-ID"

// Server exposes the engine as a task queue over HTTP.
type Server struct {
	engine   Engine
	tasks    *TaskStore
	log      logger.Logger
	gatherer prometheus.Gatherer
	router   *gin.Engine

	// ctx bounds every running task; it is cancelled on shutdown.
	ctx    context.Context
	cancel context.CancelFunc
}

type ServerOption func(*Server)

func WithServerLogger(l logger.Logger) ServerOption {
	return func(s *Server) { s.log = l }
}

// WithGatherer selects the registry served on /metrics.
func WithGatherer(g prometheus.Gatherer) ServerOption {
	return func(s *Server) { s.gatherer = g }
}

func NewServer(engine Engine, opts ...ServerOption) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		engine:   engine,
		tasks:    NewTaskStore(),
		log:      logger.NoopLogger{},
		gatherer: prometheus.DefaultGatherer,
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(s)
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestID(), s.requestLogger())
	r.POST("/execute", s.execute)
	r.GET("/status/:task_id", s.status)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	s.router = r
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is done, then shuts down gracefully and cancels any
// running task.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("api listening", map[string]any{"addr": addr})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.cancel()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.cancel()
	return err
}

func (s *Server) execute(c *gin.Context) {
	var ops []Operation
	if err := c.ShouldBindJSON(&ops); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must be a list of {command, params}: " + err.Error()})
		return
	}

	id := uuid.New().String()
	s.tasks.Create(id)
	s.log.Info("task accepted", map[string]any{"task_id": id, "operations": len(ops), "request_id": c.GetString("request_id")})

	go s.run(id, ops)

	c.JSON(http.StatusOK, gin.H{"task_id": id})
}

func (s *Server) status(c *gin.Context) {
	task, ok := s.tasks.Get(c.Param("task_id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}
	c.JSON(http.StatusOK, task)
}

// run executes the operations in order and stops at the first failure.
func (s *Server) run(id string, ops []Operation) {
	n := len(ops)
	for i, op := range ops {
		s.tasks.SetStatus(id, processingStatus(i+1, n))

		result := Result{Command: op.Command, Params: op.Params}
		value, err := s.dispatch(op)
		if err != nil {
			result.Error = err.Error()
			if e, ok := types.AsError(err); ok {
				result.Code = e.Code
			}
			s.tasks.AddResult(id, result)
			s.tasks.SetStatus(id, failedStatus(i+1, n))
			s.log.Warn("task failed", map[string]any{"task_id": id, "command": op.Command, "step": i + 1, "error": err})
			return
		}

		result.Result = value
		s.tasks.AddResult(id, result)
	}

	s.tasks.SetStatus(id, StatusCompleted)
	s.log.Info("task completed", map[string]any{"task_id": id, "operations": n})
}

func (s *Server) dispatch(op Operation) (interface{}, error) {
	h, ok := commands[op.Command]
	if !ok {
		if op.Command == "" {
			return nil, types.NewError(types.ErrInvalidRequest, "Invalid command format")
		}
		return nil, types.NewError(types.ErrInvalidRequest, "Unknown command: %s", op.Command)
	}
	return h(s.ctx, s.engine, op.Params)
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := map[string]any{
			"request_id": c.GetString("request_id"),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency":    time.Since(start).String(),
		}
		switch {
		case c.Writer.Status() >= 500:
			s.log.Error("http request", fields)
		case c.Writer.Status() >= 400:
			s.log.Warn("http request", fields)
		default:
			s.log.Debug("http request", fields)
		}
	}
}
