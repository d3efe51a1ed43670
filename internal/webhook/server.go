// Package webhook exposes the chat engine to a WhatsApp-style messaging
// gateway: inbound messages arrive as HTTP form posts with Body and From
// fields, replies go back as a TwiML message envelope.
package webhook

import (
	"context"
	"encoding/xml"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Answerer is the webhook-facing subset of the chat engine
type Answerer interface {
	Ask(ctx context.Context, key, question string) string
}

// Ingestor accepts an uploaded document for indexing
type Ingestor interface {
	IngestBytes(ctx context.Context, data []byte, name string) error
}

// twimlResponse is the message envelope the gateway expects
type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Message string   `xml:"Message"`
}

// Server handles inbound webhook requests. Each sender identifier maps
// to its own session, so concurrent senders converse independently.
type Server struct {
	echo     *echo.Echo
	engine   Answerer
	ingestor Ingestor
	logger   *slog.Logger
}

// NewServer creates a webhook server around the given engine and
// ingestion pipeline.
func NewServer(engine Answerer, ingestor Ingestor, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	s := &Server{echo: e, engine: engine, ingestor: ingestor, logger: logger}
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.POST("/whatsapp", s.handleMessage)
	e.POST("/documents", s.handleUpload)
	return s
}

// handleMessage processes one inbound message and replies with TwiML
func (s *Server) handleMessage(c echo.Context) error {
	body := strings.TrimSpace(c.FormValue("Body"))
	sender := strings.TrimSpace(c.FormValue("From"))

	if sender == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing From field")
	}

	s.logger.Info("inbound message", "from", sender, "length", len(body))
	answer := s.engine.Ask(c.Request().Context(), sender, body)

	return c.XML(http.StatusOK, twimlResponse{Message: answer})
}

// handleUpload indexes a PDF posted as multipart form data
func (s *Server) handleUpload(c echo.Context) error {
	fh, err := c.FormFile("document")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing document field")
	}

	f, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable document")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable document")
	}

	if err := s.ingestor.IngestBytes(c.Request().Context(), data, fh.Filename); err != nil {
		s.logger.Error("upload ingestion failed", "name", fh.Filename, "error", err)
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "ingestion failed")
	}

	s.logger.Info("document uploaded", "name", fh.Filename, "bytes", len(data))
	return c.JSON(http.StatusOK, map[string]string{"status": "ingested", "name": fh.Filename})
}

// Handler returns the underlying HTTP handler, for tests
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start runs the server until the listener fails or is shut down
func (s *Server) Start(addr string) error {
	s.logger.Info("webhook server listening", "addr", addr)
	return s.echo.Start(addr)
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
