package api

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"flip-analyzer/models"
	"flip-analyzer/services"
	"flip-analyzer/storage"
	"flip-analyzer/utils"
)

const maxUploadBytes = 64 << 20

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Server exposes the analyzer over HTTP. Each request is one independent
// run over the uploaded listing and comp exports.
type Server struct {
	app      *fiber.App
	analyzer *services.Analyzer
	defaults models.MatchCriteria
	logger   *utils.Logger
}

// NewServer wires routes. defaults fill any criteria field the request omits.
func NewServer(analyzer *services.Analyzer, defaults models.MatchCriteria, logger *utils.Logger) *Server {
	s := &Server{analyzer: analyzer, defaults: defaults, logger: logger}

	s.app = fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
		BodyLimit:             maxUploadBytes,
	})
	s.app.Use(recover.New())
	s.app.Use(s.routeLogger())

	s.app.Get("/health", s.health)
	v1 := s.app.Group("/api/v1")
	v1.Post("/analyze", s.analyze)
	v1.Post("/analyze/xlsx", s.analyzeXLSX)
	return s
}

// App returns the underlying fiber app, mainly for tests.
func (s *Server) App() *fiber.App { return s.app }

func (s *Server) Listen(addr string) error {
	s.logger.Info("[api] Listening on %s", addr)
	return s.app.Listen(addr)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func (s *Server) routeLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		s.logger.Info("[api] %s %s %d %dms", c.Method(), c.Path(), c.Response().StatusCode(), time.Since(start).Milliseconds())
		return err
	}
}

// health GET /health
func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// analyze POST /api/v1/analyze
func (s *Server) analyze(c *fiber.Ctx) error {
	a, status, err := s.run(c)
	if err != nil {
		return failure(c, err.Error(), status)
	}
	return success(c, "Analysis complete", a)
}

// analyzeXLSX POST /api/v1/analyze/xlsx
func (s *Server) analyzeXLSX(c *fiber.Ctx) error {
	a, status, err := s.run(c)
	if err != nil {
		return failure(c, err.Error(), status)
	}

	f, err := storage.BuildWorkbook(a)
	if err != nil {
		s.logger.Error("[api] Workbook build failed: %v", err)
		return failure(c, "Failed to build workbook", fiber.StatusInternalServerError)
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		s.logger.Error("[api] Workbook write failed: %v", err)
		return failure(c, "Failed to build workbook", fiber.StatusInternalServerError)
	}

	filename := fmt.Sprintf("flip_analysis_%s.xlsx", time.Now().Format("2006-01-02_15-04-05"))
	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Send(buf.Bytes())
}

// run parses the multipart request and executes one analysis. The returned
// status is meaningful only when err is non-nil.
func (s *Server) run(c *fiber.Ctx) (*models.Analysis, int, error) {
	listings, err := formTable(c, "listings")
	if err != nil {
		return nil, fiber.StatusBadRequest, err
	}
	comps, err := formTable(c, "comps")
	if err != nil {
		return nil, fiber.StatusBadRequest, err
	}

	criteria, err := s.formCriteria(c)
	if err != nil {
		return nil, fiber.StatusBadRequest, err
	}
	grouping, err := models.ParseGrouping(c.FormValue("group_by"))
	if err != nil {
		return nil, fiber.StatusBadRequest, err
	}

	a, err := s.analyzer.Run(services.AnalysisRequest{
		Listings: listings,
		Comps:    comps,
		Criteria: criteria,
		Grouping: grouping,
		Focus:    splitList(c.FormValue("focus")),
		Selected: splitList(c.FormValue("selected")),
	})
	if err != nil {
		var schemaErr *models.SchemaError
		switch {
		case errors.As(err, &schemaErr):
			return nil, fiber.StatusUnprocessableEntity, err
		case errors.Is(err, models.ErrInvalidCriteria):
			return nil, fiber.StatusBadRequest, err
		}
		s.logger.Error("[api] Analysis failed: %v", err)
		return nil, fiber.StatusInternalServerError, errors.New("analysis failed")
	}
	return a, fiber.StatusOK, nil
}

func formTable(c *fiber.Ctx, field string) (models.RawTable, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return models.RawTable{}, fmt.Errorf("%s file is required", field)
	}
	f, err := fh.Open()
	if err != nil {
		return models.RawTable{}, fmt.Errorf("open %s upload: %w", field, err)
	}
	defer f.Close()

	t, err := storage.ReadCSV(f)
	if err != nil {
		return models.RawTable{}, fmt.Errorf("%s: %w", field, err)
	}
	t.Name = fh.Filename
	return t, nil
}

// formCriteria overlays the request's form fields on the server defaults.
func (s *Server) formCriteria(c *fiber.Ctx) (models.MatchCriteria, error) {
	out := s.defaults

	for field, dst := range map[string]*bool{
		"same_zip":      &out.SameZip,
		"same_county":   &out.SameCounty,
		"same_city":     &out.SameCity,
		"same_sub":      &out.SameSub,
		"same_bedrooms": &out.SameBedrooms,
	} {
		raw := strings.TrimSpace(c.FormValue(field))
		if raw == "" {
			continue
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return out, fmt.Errorf("%s must be a boolean", field)
		}
		*dst = v
	}

	if raw := strings.TrimSpace(c.FormValue("bedroom_tolerance")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return out, errors.New("bedroom_tolerance must be an integer")
		}
		out.BedroomTolerance = v
	}
	if raw := strings.TrimSpace(c.FormValue("sf_range_pct")); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return out, errors.New("sf_range_pct must be a number")
		}
		out.SizeTolerancePct = v
	}
	return out, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
