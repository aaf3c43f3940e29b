// Package api serves the engine's HTTP control surface.
package api

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/ratufa/internal/engine"
	"github.com/samcharles93/ratufa/internal/format"
	"github.com/samcharles93/ratufa/internal/logger"
	"github.com/samcharles93/ratufa/internal/scaffold"
	"github.com/samcharles93/ratufa/internal/task"
)

// Engine is the engine surface the server drives.
type Engine interface {
	Scaffold() string
	ROMs() []*engine.ROM
	ClassPath(names ...string) (format.ClassPath, error)
	SpawnTask(ctx context.Context, req task.Request) (*task.Task, *task.Thread, error)
	Tasks() []*task.Task
	Task(id string) (*task.Task, error)
	DestroyTask(id string) error
}

type Server struct {
	engine Engine
	log    logger.Logger
}

func NewServer(eng Engine, log logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	return &Server{engine: eng, log: log.With("component", "api")}
}

func (s *Server) Register(e *echo.Echo) {
	e.GET("/v1/scaffolds", s.handleListScaffolds)
	e.GET("/v1/roms", s.handleListROMs)

	e.POST("/v1/tasks", s.handleCreateTask)
	e.GET("/v1/tasks", s.handleListTasks)
	e.GET("/v1/tasks/:id", s.handleGetTask)
	e.GET("/v1/tasks/:id/stdout", s.handleTaskOutput)
	e.DELETE("/v1/tasks/:id", s.handleDeleteTask)
}

func (s *Server) handleListScaffolds(c *echo.Context) error {
	def := s.engine.Scaffold()
	names := scaffold.Names()
	out := make([]ScaffoldInfo, 0, len(names))
	for _, n := range names {
		out = append(out, ScaffoldInfo{Name: n, Default: n == def})
	}
	return c.JSON(http.StatusOK, newList(out))
}

func (s *Server) handleListROMs(c *echo.Context) error {
	roms := s.engine.ROMs()
	out := make([]ROMInfo, 0, len(roms))
	for _, r := range roms {
		info, err := romInfo(r)
		if err != nil {
			return writeEngineError(c, err)
		}
		out = append(out, info)
	}
	return c.JSON(http.StatusOK, newList(out))
}

func romInfo(r *engine.ROM) (ROMInfo, error) {
	ct := r.Container
	version, err := ct.Version()
	if err != nil {
		return ROMInfo{}, err
	}
	count, err := ct.NumProperties()
	if err != nil {
		return ROMInfo{}, err
	}
	info := ROMInfo{
		Name:          ct.Name(),
		Kind:          string(ct.Kind()),
		Driver:        ct.Driver(),
		Version:       version,
		NumProperties: count,
		Mapped:        r.Mapped(),
	}
	if p, ok := ct.(*format.Pack); ok {
		if n, err := p.NumLibraries(); err == nil {
			info.NumLibraries = &n
		}
	}
	return info, nil
}

func (s *Server) handleCreateTask(c *echo.Context) error {
	req, err := decodeJSON[SpawnRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error(), "")
	}
	if err := validate.Struct(req); err != nil {
		msg, param := validationMessage(err)
		return writeBadRequest(c, msg, param)
	}
	stdout, stderr, err := req.redirects()
	if err != nil {
		return writeBadRequest(c, err.Error(), "stdout")
	}
	cp, err := s.engine.ClassPath(req.ROMs...)
	if err != nil {
		return writeEngineError(c, err)
	}

	tk, _, err := s.engine.SpawnTask(c.Request().Context(), task.Request{
		ClassPath:        cp,
		MainClass:        req.MainClass,
		MainArgs:         req.MainArgs,
		SystemProperties: req.SystemProperties,
		StdOut:           stdout,
		StdErr:           stderr,
		ForkThread:       true,
		Scaffold:         req.Scaffold,
		Stdin:            []byte(req.Stdin),
	})
	if err != nil {
		return writeEngineError(c, err)
	}
	s.log.Info("task created over http", "task", tk.ID(), "main", req.MainClass)
	return c.JSON(http.StatusCreated, tk.Info())
}

func (s *Server) handleListTasks(c *echo.Context) error {
	tasks := s.engine.Tasks()
	out := make([]task.Info, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.Info())
	}
	return c.JSON(http.StatusOK, newList(out))
}

func (s *Server) handleGetTask(c *echo.Context) error {
	tk, err := s.engine.Task(c.Param("id"))
	if err != nil {
		return writeEngineError(c, err)
	}
	return c.JSON(http.StatusOK, tk.Info())
}

func (s *Server) handleTaskOutput(c *echo.Context) error {
	tk, err := s.engine.Task(c.Param("id"))
	if err != nil {
		return writeEngineError(c, err)
	}
	return c.JSON(http.StatusOK, OutputResponse{
		ID:     tk.ID(),
		Stdout: string(tk.Stdout()),
		Stderr: string(tk.Stderr()),
	})
}

func (s *Server) handleDeleteTask(c *echo.Context) error {
	id := c.Param("id")
	if err := s.engine.DestroyTask(id); err != nil {
		return writeEngineError(c, err)
	}
	return c.JSON(http.StatusOK, DeleteResponse{ID: id, Object: "task", Deleted: true})
}
