package ui

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"evdash/app"
	"evdash/internal/charts"
	loader "evdash/internal/dataset"
	"evdash/internal/errors"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// pageData is the dashboard template input
type pageData struct {
	View        *app.View
	HasSource   bool
	Uploaded    bool
	MaxUploadMB int64
	Cache       loader.CacheStats
}

func (s *Server) page(view *app.View) pageData {
	s.mu.RLock()
	uploaded := s.upload != nil
	s.mu.RUnlock()
	return pageData{
		View:        view,
		HasSource:   s.currentSource() != nil,
		Uploaded:    uploaded,
		MaxUploadMB: s.maxUploadBytes >> 20,
		Cache:       s.service.Cache().Stats(),
	}
}

// handleDashboard renders the dashboard for the current source
func (s *Server) handleDashboard(c *gin.Context) {
	src := s.currentSource()
	if src == nil {
		s.renderTemplate(c, http.StatusOK, "dashboard.html", s.page(&app.View{}))
		return
	}

	view, err := s.service.Build(c.Request.Context(), src)
	status := http.StatusOK
	if err != nil {
		status = errors.HTTPStatus(err)
	}
	s.renderTemplate(c, status, "dashboard.html", s.page(view))
}

// handleUpload builds a dataset from the multipart fields ev and charger.
// A missing charger field means the ev file already carries charger counts.
func (s *Server) handleUpload(c *gin.Context) {
	evHeader, err := c.FormFile("ev")
	if err != nil {
		s.fail(c, errors.InvalidInput("the ev file is required"), &app.View{})
		return
	}
	ev, err := s.readUpload(evHeader)
	if err != nil {
		s.fail(c, err, &app.View{})
		return
	}

	var charger loader.UploadFile
	if chargerHeader, err := c.FormFile("charger"); err == nil {
		if charger, err = s.readUpload(chargerHeader); err != nil {
			s.fail(c, err, &app.View{})
			return
		}
	} else if err != http.ErrMissingFile {
		s.fail(c, errors.InvalidInput("invalid charger upload: "+err.Error()), &app.View{})
		return
	}

	src := loader.NewUploadSource(ev, charger, s.uploadOpts)
	view, err := s.service.Build(c.Request.Context(), src)
	if err != nil {
		s.fail(c, err, view)
		return
	}
	s.setUpload(src)

	if wantsHTML(c) {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	c.JSON(http.StatusOK, view.Report)
}

// handleClearUpload returns to the configured source
func (s *Server) handleClearUpload(c *gin.Context) {
	s.setUpload(nil)
	if wantsHTML(c) {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) readUpload(header *multipart.FileHeader) (loader.UploadFile, error) {
	if header.Size > s.maxUploadBytes {
		return loader.UploadFile{}, errors.InvalidInput(header.Filename + " exceeds the upload limit")
	}
	f, err := header.Open()
	if err != nil {
		return loader.UploadFile{}, errors.Wrap(err, "failed to open upload")
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, s.maxUploadBytes+1))
	if err != nil {
		return loader.UploadFile{}, errors.Wrap(err, "failed to read upload")
	}
	if int64(len(content)) > s.maxUploadBytes {
		return loader.UploadFile{}, errors.InvalidInput(header.Filename + " exceeds the upload limit")
	}
	return loader.UploadFile{Name: header.Filename, Content: content}, nil
}

func (s *Server) handleScatter(c *gin.Context) {
	s.serveChart(c, s.service.Scatter)
}

func (s *Server) handleTimeline(c *gin.Context) {
	s.serveChart(c, s.service.Timeline)
}

type chartFunc func(ctx context.Context, src loader.Source, opts charts.Options) ([]byte, error)

func (s *Server) serveChart(c *gin.Context, render chartFunc) {
	src, ok := s.requireSource(c)
	if !ok {
		return
	}
	opts := charts.DefaultOptions()
	opts.Format = c.DefaultQuery("format", charts.FormatSVG)

	data, err := render(c.Request.Context(), src, opts)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, charts.ContentType(opts.Format), data)
}

func (s *Server) handleReport(c *gin.Context) {
	src, ok := s.requireSource(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := s.service.Workbook(c.Request.Context(), src, &buf); err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="evdash-report.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (s *Server) handleCacheReset(c *gin.Context) {
	s.service.Cache().Reset()
	if wantsHTML(c) {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"has_source": s.currentSource() != nil,
		"cache":      s.service.Cache().Stats(),
	})
}

func (s *Server) requireSource(c *gin.Context) (loader.Source, bool) {
	src := s.currentSource()
	if src == nil {
		respondError(c, errors.New(errors.CodeNotFound, "no data source: configure EV_FILE and CHARGER_FILE or upload files"))
		return nil, false
	}
	return src, true
}

// fail renders the dashboard with the error for browsers, JSON otherwise
func (s *Server) fail(c *gin.Context, err error, view *app.View) {
	if wantsHTML(c) {
		if view.Err == nil {
			view.Err = err
			view.ErrCode = errors.GetCode(err)
		}
		_ = c.Error(err)
		s.renderTemplate(c, errors.HTTPStatus(err), "dashboard.html", s.page(view))
		return
	}
	respondError(c, err)
}

func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(errors.HTTPStatus(err), gin.H{
		"error": err.Error(),
		"code":  errors.GetCode(err),
	})
}

func wantsHTML(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "text/html")
}
