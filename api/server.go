package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/multiversx/mx-chain-core-go/core/check"
	logger "github.com/multiversx/mx-chain-logger-go"
)

var log = logger.GetOrCreate("api")

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 1000
)

// ArgsWebServer defines the web server arguments
type ArgsWebServer struct {
	ListenAddress string
	// ServiceKeyApi guards the endpoints when not empty
	ServiceKeyApi string
	Storage       Storage
}

// server exposes a local, read-only view over the readings history. The
// handlers only issue reads through database/sql's own pooling, so the
// background polling pipeline is never blocked by UI-side queries.
type server struct {
	router     *gin.Engine
	httpServer *http.Server
	storage    Storage
	serviceKey string
	listenAddr string
	wg         sync.WaitGroup
}

// NewServer initializes the Gin engine and mounts all routes
func NewServer(args ArgsWebServer) (*server, error) {
	if check.IfNil(args.Storage) {
		return nil, errors.New("storage is required")
	}
	if len(args.ListenAddress) == 0 {
		return nil, errors.New("empty listen address")
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &server{
		router:     router,
		storage:    args.Storage,
		serviceKey: args.ServiceKeyApi,
		listenAddr: args.ListenAddress,
	}

	s.setupRoutes()
	return s, nil
}

func (s *server) setupRoutes() {
	api := s.router.Group("/api")
	api.Use(s.authAPIKey())

	api.GET("/latest", s.handleLatest)
	api.GET("/history", s.handleHistory)
}

func (s *server) authAPIKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(s.serviceKey) == 0 {
			c.Next()
			return
		}

		if c.GetHeader("X-Api-Key") != s.serviceKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid api key"})
			return
		}

		c.Next()
	}
}

func (s *server) handleLatest(c *gin.Context) {
	entry, err := s.storage.Latest(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if entry == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no readings yet"})
		return
	}

	c.JSON(http.StatusOK, entry)
}

func (s *server) handleHistory(c *gin.Context) {
	n, err := strconv.Atoi(c.DefaultQuery("n", strconv.Itoa(defaultHistoryLimit)))
	if err != nil || n < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid n parameter"})
		return
	}
	if n > maxHistoryLimit {
		n = maxHistoryLimit
	}

	entries, err := s.storage.Recent(c.Request.Context(), n)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// Start listens and serves connections
func (s *server) Start() {
	s.httpServer = &http.Server{
		Addr:    s.listenAddr,
		Handler: s.router,
	}

	ln, err := net.Listen("tcp", s.listenAddr)
	if err != nil {
		log.Error("failed to listen", "error", err)
		return
	}

	log.Info("history API listening", "address", s.listenAddr)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		errServe := s.httpServer.Serve(ln)
		if errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
			log.Error("history API stopped", "error", errServe)
		}
	}()
}

// Close shuts down the server and waits for the serving goroutine
func (s *server) Close() error {
	if s.httpServer == nil {
		return nil
	}

	err := s.httpServer.Shutdown(context.Background())
	s.wg.Wait()
	return err
}

// IsInterfaceNil returns true if the value under the interface is nil
func (s *server) IsInterfaceNil() bool {
	return s == nil
}
