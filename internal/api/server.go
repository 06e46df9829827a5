// Package api exposes comparisons over HTTP. Comparisons run as background
// jobs; clients poll for the report or ask the server to wait.
package api

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/juju/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"comparador/internal/compare"
	"comparador/internal/config"
	"comparador/internal/data"
	"comparador/internal/jobs"
	"comparador/internal/report"
)

type Server struct {
	cfg        *config.Config
	comparator *compare.Comparator
	jobs       *jobs.Manager
	logger     *zap.Logger
}

// New wires a server. It takes over the comparator's OnEntry hook to record
// per-model metrics.
func New(cfg *config.Config, comparator *compare.Comparator, manager *jobs.Manager, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	comparator.OnEntry = func(e compare.Entry) {
		ModelSeconds.WithLabelValues(e.Name).Observe(e.Duration.Seconds())
		if e.Failed() {
			ModelFailures.WithLabelValues(e.Name).Inc()
		}
	}
	return &Server{cfg: cfg, comparator: comparator, jobs: manager, logger: logger}
}

func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.observe)

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/")
	api.Use(apiKeyMiddleware(s.cfg.Server.APIKey))
	api.POST("/comparisons", s.handleSubmit)
	api.GET("/comparisons/:id", s.handleGet)
	api.GET("/comparisons/:id/report", s.handleReport)
	api.GET("/comparisons/:id/chart.png", s.handleChart)
	return r
}

func (s *Server) observe(c *gin.Context) {
	start := time.Now()
	c.Next()
	route := c.FullPath()
	if route == "" {
		route = "unmatched"
	}
	status := strconv.Itoa(c.Writer.Status())
	RequestSeconds.WithLabelValues(c.Request.Method, route, status).Observe(time.Since(start).Seconds())
	s.logger.Debug("Requisição atendida",
		zap.String("method", c.Request.Method),
		zap.String("route", route),
		zap.String("status", status),
		zap.Duration("duration", time.Since(start)))
}

func apiKeyMiddleware(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key == "" {
			c.Next()
			return
		}
		if c.GetHeader("X-API-Key") != key {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

type submitQuery struct {
	Mode    string `form:"mode" binding:"omitempty,oneof=classification regression"`
	Seed    *int64 `form:"seed"`
	Target  string `form:"target"`
	Nominal string `form:"nominal"`
	Name    string `form:"name" binding:"max=128"`
	Wait    bool   `form:"wait"`
}

func (s *Server) handleSubmit(c *gin.Context) {
	var q submitQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	mode, err := compare.ParseMode(lo.Ternary(q.Mode == "", s.cfg.Mode, q.Mode))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	seed := s.cfg.Seed
	if q.Seed != nil {
		seed = *q.Seed
	}

	body, name, err := s.upload(c)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "arquivo excede o limite"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if q.Name != "" {
		name = q.Name
	}
	nominal := lo.Compact(lo.Map(strings.Split(q.Nominal, ","), func(col string, _ int) string {
		return strings.TrimSpace(col)
	}))
	ds, err := data.ReadCSV(body, name, data.CSVOptions{Target: q.Target, Nominal: nominal})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := s.jobs.Submit(func(ctx context.Context) (*compare.Report, error) {
		r, err := s.comparator.CompareMode(ctx, ds, mode, seed)
		ComparisonsFinished.WithLabelValues(lo.Ternary(err == nil, "done", "failed")).Inc()
		return r, err
	})
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	ComparisonsSubmitted.Inc()
	s.logger.Info("Comparação enviada", zap.String("job", id), zap.String("dataset", name),
		zap.String("mode", string(mode)), zap.Int64("seed", seed), zap.Int("rows", ds.Len()))

	c.Header("Location", "/comparisons/"+id)
	if !q.Wait {
		c.JSON(http.StatusAccepted, gin.H{"id": id, "status": jobs.Pending})
		return
	}
	job, err := s.jobs.Wait(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusGatewayTimeout, gin.H{"id": id, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, job)
}

// upload returns the CSV sent either as multipart field "file" or as the
// raw body.
func (s *Server) upload(c *gin.Context) (io.Reader, string, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.Server.MaxUploadBytes)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile("file")
		if err != nil {
			return nil, "", errors.Annotate(err, "campo file")
		}
		f, err := fh.Open()
		if err != nil {
			return nil, "", errors.Trace(err)
		}
		defer f.Close()
		b, err := io.ReadAll(f)
		if err != nil {
			return nil, "", errors.Trace(err)
		}
		return bytes.NewReader(b), strings.TrimSuffix(fh.Filename, ".csv"), nil
	}
	b, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil, "", errors.Trace(err)
	}
	if len(b) == 0 {
		return nil, "", errors.New("corpo vazio")
	}
	return bytes.NewReader(b), "upload", nil
}

func (s *Server) job(c *gin.Context) (jobs.Job, bool) {
	job, ok := s.jobs.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "comparação não encontrada"})
	}
	return job, ok
}

// finished writes an error response and returns false unless job has a report.
func finished(c *gin.Context, job jobs.Job) bool {
	switch job.Status {
	case jobs.Done:
		return true
	case jobs.Failed:
		c.JSON(http.StatusUnprocessableEntity, gin.H{"id": job.ID, "status": job.Status, "error": job.Error})
	default:
		c.JSON(http.StatusConflict, gin.H{"id": job.ID, "status": job.Status})
	}
	return false
}

func (s *Server) handleGet(c *gin.Context) {
	if job, ok := s.job(c); ok {
		c.JSON(http.StatusOK, job)
	}
}

func (s *Server) handleReport(c *gin.Context) {
	job, ok := s.job(c)
	if !ok || !finished(c, job) {
		return
	}
	format, err := report.ParseFormat(c.DefaultQuery("format", string(report.Text)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var buf bytes.Buffer
	if err := report.Write(&buf, job.Report, format, report.TextOptions{Details: c.Query("details") == "true"}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	contentType := map[report.Format]string{
		report.Text: "text/plain; charset=utf-8",
		report.JSON: "application/json",
		report.YAML: "application/yaml",
	}[format]
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

func (s *Server) handleChart(c *gin.Context) {
	job, ok := s.job(c)
	if !ok || !finished(c, job) {
		return
	}
	var buf bytes.Buffer
	if err := report.WriteChart(&buf, job.Report, "png"); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}
