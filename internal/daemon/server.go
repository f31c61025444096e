package daemon

import (
	"context"
	"errors"
	"incback/internal/archive"
	"incback/internal/logger"
	"incback/internal/model"
	"incback/internal/prior"
	"incback/internal/registry"
	"incback/internal/repository"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// Server exposes a read-only view of the registry, the run history and the
// backups found under the configured backup directory.
type Server struct {
	echo      *echo.Echo
	store     *registry.Store
	histRepo  *repository.HistoryRepository
	backupDir string
	port      int
	startedAt time.Time
	stopCh    chan struct{}
}

func NewServer(store *registry.Store, backupDir string, port int) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	s := &Server{
		echo:      e,
		store:     store,
		histRepo:  repository.NewHistoryRepository(),
		backupDir: backupDir,
		port:      port,
		startedAt: time.Now(),
		stopCh:    make(chan struct{}, 1),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.echo.GET("/status", s.handleStatus)
	s.echo.POST("/stop", s.handleStop)

	s.echo.GET("/datapaths", s.handleDataPaths)
	s.echo.GET("/history", s.handleHistory)
	s.echo.GET("/backups", s.handleBackups)
}

func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start() {
	go func() {
		addr := ":" + strconv.Itoa(s.port)
		logger.Log.Info("status server started",
			zap.String("addr", addr))

		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Error("status server error", zap.Error(err))
		}
	}()
}

func (s *Server) Stop(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) StopCh() <-chan struct{} {
	return s.stopCh
}

func (s *Server) handleStatus(c echo.Context) error {
	snap, err := s.snapshot()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, snap)
}

func (s *Server) handleStop(c echo.Context) error {
	select {
	case s.stopCh <- struct{}{}:
	default:
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "stopping"})
}

func (s *Server) handleDataPaths(c echo.Context) error {
	paths, err := s.store.Load()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	model.SortDataPaths(paths)
	return c.JSON(http.StatusOK, map[string]any{
		"data_paths": paths,
	})
}

func (s *Server) handleHistory(c echo.Context) error {
	n := 20
	if nStr := c.QueryParam("n"); nStr != "" {
		parsed, err := strconv.Atoi(nStr)
		if err != nil || parsed <= 0 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid n"})
		}
		n = parsed
	}

	histories, err := s.histRepo.GetRecent(n)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, histories)
}

type BackupInfo struct {
	Path          string           `json:"path"`
	EffectiveTime time.Time        `json:"effective_time"`
	Archives      map[string]int64 `json:"archives"`
}

func (s *Server) handleBackups(c echo.Context) error {
	if s.backupDir == "" {
		return c.JSON(http.StatusOK, []BackupInfo{})
	}

	priors, err := prior.Discover(s.backupDir)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	backups := make([]BackupInfo, 0, len(priors))
	for _, p := range priors {
		backups = append(backups, BackupInfo{
			Path:          p.FullPath,
			EffectiveTime: p.EffectiveTime,
			Archives:      archiveSizes(p.FullPath),
		})
	}

	return c.JSON(http.StatusOK, backups)
}

func archiveSizes(dir string) map[string]int64 {
	sizes := make(map[string]int64)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return sizes
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}

		volume, ok := archive.VolumeOf(e.Name())
		if !ok {
			continue
		}

		info, err := e.Info()
		if err != nil {
			continue
		}
		sizes[volume] = info.Size()
	}

	return sizes
}
