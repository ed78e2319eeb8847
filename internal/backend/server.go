package backend

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Server serves the /tasks collection with json-server compatible semantics.
type Server struct {
	engine *gin.Engine
	store  *Store
	logger *slog.Logger
}

// New constructs the HTTP server with routes and middleware configured.
// accessLog receives gin's request log; nil disables it.
func New(store *Store, logger *slog.Logger, accessLog io.Writer) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	if accessLog != nil {
		router.Use(gin.LoggerWithWriter(accessLog, "/healthz"))
	}
	router.Use(cors())

	srv := &Server{
		engine: router,
		store:  store,
		logger: logger,
	}
	srv.registerRoutes()
	return srv
}

// Engine exposes the underlying Gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", s.handleHealth)

	tasks := s.engine.Group("/tasks")
	{
		tasks.GET("", s.handleListTasks)
		tasks.POST("", s.handleCreateTask)
		tasks.GET("/:id", s.handleGetTask)
		tasks.PATCH("/:id", s.handlePatchTask)
		tasks.DELETE("/:id", s.handleDeleteTask)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// cors lets browser clients read X-Total-Count.
func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")
		h.Set("Access-Control-Expose-Headers", "X-Total-Count")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// respondError logs server-side failures and returns a {message} body.
func (s *Server) respondError(c *gin.Context, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", slog.String("path", c.FullPath()), slog.String("error", err.Error()))
	}
	c.JSON(status, gin.H{"message": err.Error()})
}
