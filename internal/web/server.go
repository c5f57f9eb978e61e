// Package web serves the prediction form and routes its events to the
// controller. Submit and reset use POST-redirect-GET; the redirect fragment
// scrolls the browser to the result panel or back to the top.
package web

import (
	"context"
	"embed"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"churn-console/internal/churn/display"
	"churn-console/internal/churn/form"
	commonerrors "churn-console/internal/common/errors"
	"churn-console/internal/common/logger"
	"churn-console/internal/controller"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const pageTemplate = "page.html.tmpl"

// PageController is the subset of controller.Controller the server drives.
type PageController interface {
	Load(ctx context.Context) (*controller.PageState, error)
	Submit(ctx context.Context, id string, values map[string]string) (*controller.PageState, error)
	Reset(ctx context.Context, id string) (*controller.PageState, error)
	View(ctx context.Context, id string) (*controller.PageState, error)
	Peek(ctx context.Context, id string) (*controller.PageState, error)
}

type Config struct {
	Title          string
	MetricsEnabled bool
	MetricsPath    string
}

type Server struct {
	engine *gin.Engine
	ctrl   PageController
	config Config
	logger logger.Logger
}

// pageView is the template data of the form page.
type pageView struct {
	Title        string
	Page         *controller.PageState
	Fields       []form.Field
	Levels       []display.Profile
	LoadingLabel string
}

func New(ctrl PageController, cfg Config, log logger.Logger) (*Server, error) {
	if cfg.Title == "" {
		cfg.Title = "Churn Risk Analyzer"
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}

	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, err
	}

	engine := gin.New()
	engine.SetHTMLTemplate(tmpl)

	s := &Server{
		engine: engine,
		ctrl:   ctrl,
		config: cfg,
		logger: log.With(map[string]interface{}{"component": "web"}),
	}
	engine.Use(gin.Recovery(), s.requestLogger())
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.engine.GET("/", s.handleNewPage)
	s.engine.GET("/healthz", s.handleHealthz)
	if s.config.MetricsEnabled {
		s.engine.GET(s.config.MetricsPath, gin.WrapH(promhttp.Handler()))
	}

	pages := s.engine.Group("/p/:id")
	pages.GET("", s.handleView)
	pages.GET("/state", s.handleState)
	pages.POST("/submit", s.handleSubmit)
	pages.POST("/reset", s.handleReset)
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) handleNewPage(c *gin.Context) {
	page, err := s.ctrl.Load(c.Request.Context())
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, pagePath(page.ID))
}

func (s *Server) handleView(c *gin.Context) {
	page, err := s.ctrl.View(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.renderError(c, err)
		return
	}

	levels := make([]display.Profile, 0, len(display.Levels()))
	for _, level := range display.Levels() {
		levels = append(levels, display.ProfileFor(level))
	}

	c.Header("Cache-Control", "no-store")
	c.HTML(http.StatusOK, pageTemplate, pageView{
		Title:        s.config.Title,
		Page:         page,
		Fields:       form.Fields(),
		Levels:       levels,
		LoadingLabel: controller.ButtonLoading,
	})
}

// handleState returns the page state as JSON without consuming one-shot fields.
func (s *Server) handleState(c *gin.Context) {
	page, err := s.ctrl.Peek(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (s *Server) handleSubmit(c *gin.Context) {
	id := c.Param("id")
	if err := c.Request.ParseForm(); err != nil {
		c.String(http.StatusBadRequest, "invalid form body")
		return
	}

	values := make(map[string]string, len(c.Request.PostForm))
	for name, vs := range c.Request.PostForm {
		if len(vs) > 0 {
			values[name] = vs[0]
		}
	}

	page, err := s.ctrl.Submit(c.Request.Context(), id, values)
	if err != nil {
		if commonerrors.CodeOf(err) == commonerrors.ErrCodeSubmissionInFlight {
			// The page already shows the pending submission.
			c.Redirect(http.StatusSeeOther, pagePath(id))
			return
		}
		s.renderError(c, err)
		return
	}

	target := pagePath(id)
	if page.ResultVisible && page.Alert == "" {
		target += "#" + controller.ScrollResult
	}
	c.Redirect(http.StatusSeeOther, target)
}

func (s *Server) handleReset(c *gin.Context) {
	id := c.Param("id")
	if _, err := s.ctrl.Reset(c.Request.Context(), id); err != nil {
		if commonerrors.CodeOf(err) == commonerrors.ErrCodeSubmissionInFlight {
			c.Redirect(http.StatusSeeOther, pagePath(id))
			return
		}
		s.renderError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, pagePath(id)+"#"+controller.ScrollTop)
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) renderError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	code := commonerrors.CodeOf(err)
	switch code {
	case commonerrors.ErrCodePageNotFound:
		status = http.StatusNotFound
	case commonerrors.ErrCodeSubmissionInFlight:
		status = http.StatusConflict
	default:
		s.logger.WithError(err).Error("request failed", map[string]interface{}{
			"path":      c.Request.URL.Path,
			"errorCode": string(code),
		})
	}
	c.JSON(status, gin.H{
		"error": string(code),
	})
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request handled", map[string]interface{}{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		})
	}
}

func pagePath(id string) string {
	return "/p/" + id
}

var templateFuncs = template.FuncMap{
	"bound": func(v *float64) string {
		if v == nil {
			return ""
		}
		return strconv.FormatFloat(*v, 'f', -1, 64)
	},
	"gauge": func(g string) template.CSS {
		return template.CSS("background: " + g)
	},
	"css": func(s string) template.CSS {
		return template.CSS(s)
	},
}
