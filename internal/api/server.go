package api

import (
	"sync"

	"github.com/limaJavier/schooltimetable/pkg/model"
	"github.com/limaJavier/schooltimetable/pkg/store"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

type Server struct {
	app        *fiber.App
	catalog    model.Catalog
	grid       model.Grid
	store      store.Store
	timetabler model.Timetabler
	logger     *zap.Logger
	generating sync.Mutex
}

type classReportResponse struct {
	Class     string `json:"class"`
	Entries   int    `json:"entries"`
	Conflicts int    `json:"conflicts"`
	Unfilled  int    `json:"unfilled"`
	Resets    int    `json:"resets"`
	Error     string `json:"error,omitempty"`
}

func NewServer(catalog model.Catalog, grid model.Grid, timetableStore store.Store, timetabler model.Timetabler, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	server := &Server{
		app:        fiber.New(fiber.Config{DisableStartupMessage: true}),
		catalog:    catalog,
		grid:       grid,
		store:      timetableStore,
		timetabler: timetabler,
		logger:     logger,
	}

	timetable := server.app.Group("/timetable")
	timetable.Get("/:class", server.classTimetable)
	timetable.Post("/generate", server.generate)

	return server
}

func (server *Server) App() *fiber.App {
	return server.app
}

func (server *Server) Listen(addr string) error {
	server.logger.Info("listening", zap.String("addr", addr))
	return server.app.Listen(addr)
}

func (server *Server) Shutdown() error {
	return server.app.Shutdown()
}

// classTimetable renders a class' committed timetable as a grid of periods by days
func (server *Server) classTimetable(c *fiber.Ctx) error {
	classId, err := c.ParamsInt("class")
	if err != nil || classId < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Class ID must be a non-negative integer"})
	} else if classId >= len(server.catalog.Classes) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Class not found"})
	}
	class := server.catalog.Classes[classId]

	entries, err := server.store.ListByClass(c.UserContext(), class.Id)
	if err != nil {
		server.logger.Error("cannot list timetable", zap.String("class", class.Name), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load timetable"})
	}

	return c.JSON(fiber.Map{
		"class":     class.Name,
		"timetable": model.BuildGridView(entries, server.grid.Days),
	})
}

// generate regenerates the whole timetable. Runs are serialized: a request arriving while another run is in progress is rejected
func (server *Server) generate(c *fiber.Ctx) error {
	if !server.generating.TryLock() {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "A timetable generation is already in progress"})
	}
	defer server.generating.Unlock()

	report, err := server.timetabler.Build(c.UserContext(), server.catalog)
	if err != nil {
		server.logger.Error("timetable generation aborted", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Timetable generation failed"})
	}

	return c.JSON(fiber.Map{
		"message": "Timetable generated successfully.",
		"classes": lo.Map(report.Classes, func(classReport model.ClassReport, _ int) classReportResponse {
			response := classReportResponse{
				Class:     classReport.Class.Name,
				Entries:   classReport.Entries,
				Conflicts: classReport.Conflicts,
				Unfilled:  classReport.Unfilled,
				Resets:    classReport.Resets,
			}
			if classReport.Err != nil {
				response.Error = classReport.Err.Error()
			}
			return response
		}),
	})
}
