package httpserver

import (
	"context"
	"embed"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/malhajar17/modcast/internal/audio"
	"github.com/malhajar17/modcast/internal/conversation"
)

//go:embed static/index.html
var staticFS embed.FS

// maxAudioUpload caps human audio submissions.
const maxAudioUpload = 10 << 20

// audioFallbackText substitutes for human audio that could not be decoded.
const audioFallbackText = "I'd like to join the conversation!"

// Conversation is the orchestrator surface the HTTP layer drives.
type Conversation interface {
	Start(ctx context.Context, topic string) error
	Stop()
	Status() conversation.Status
	SubmitHumanText(text string) error
	SubmitHumanAudio(pcm []byte) error
	Events() *conversation.Bus
}

// Handlers bundles the HTTP routes and their dependencies.
type Handlers struct {
	Conv       Conversation
	Transcoder *audio.Transcoder
	Registry   *prometheus.Registry

	// baseCtx outlives individual requests; conversations started over HTTP
	// are bound to it, not to the request.
	baseCtx context.Context
}

func NewHandlers(ctx context.Context, conv Conversation, transcoder *audio.Transcoder, registry *prometheus.Registry) *Handlers {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Handlers{Conv: conv, Transcoder: transcoder, Registry: registry, baseCtx: ctx}
}

func (h *Handlers) Register(e *echo.Echo) {
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/", h.index)
	e.POST("/conversation/start", h.start)
	e.POST("/conversation/stop", h.stop)
	e.GET("/conversation/status", h.status)
	e.POST("/human/text", h.humanText)
	e.POST("/human/audio", h.humanAudio)
	e.GET("/ws", h.liveEvents)
	if h.Registry != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(h.Registry, promhttp.HandlerOpts{})))
	}
}

func (h *Handlers) index(c echo.Context) error {
	page, err := staticFS.ReadFile("static/index.html")
	if err != nil {
		return c.NoContent(http.StatusInternalServerError)
	}
	return c.HTMLBlob(http.StatusOK, page)
}

type startRequest struct {
	Topic string `json:"topic"`
}

func (h *Handlers) start(c echo.Context) error {
	var req startRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := h.Conv.Start(h.baseCtx, req.Topic); err != nil {
		if errors.Is(err, conversation.ErrAlreadyRunning) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "conversation already running"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusAccepted, echo.Map{
		"status":          "started",
		"conversation_id": h.Conv.Status().ConversationID,
	})
}

func (h *Handlers) stop(c echo.Context) error {
	h.Conv.Stop()
	return c.JSON(http.StatusOK, echo.Map{"status": "stopped"})
}

func (h *Handlers) status(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Conv.Status())
}

type humanTextRequest struct {
	Text string `json:"text"`
}

func (h *Handlers) humanText(c echo.Context) error {
	var req humanTextRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if strings.TrimSpace(req.Text) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "text is required"})
	}
	if err := h.Conv.SubmitHumanText(req.Text); err != nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusAccepted, echo.Map{"status": "received"})
}

// humanAudio accepts an arbitrary audio container, transcodes it to PCM16,
// and hands it to the orchestrator. When the audio cannot be decoded the
// submission degrades to a text acknowledgment so the human turn is not lost.
func (h *Handlers) humanAudio(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxAudioUpload))
	if err != nil || len(body) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no audio provided"})
	}

	pcm, err := h.Transcoder.ToPCM16(c.Request().Context(), body)
	if err != nil {
		log.Printf("httpserver: audio conversion failed: %v", err)
		if subErr := h.Conv.SubmitHumanText(audioFallbackText); subErr != nil {
			return c.JSON(http.StatusConflict, echo.Map{"error": subErr.Error()})
		}
		return c.JSON(http.StatusAccepted, echo.Map{"status": "received", "fallback": true})
	}

	if err := h.Conv.SubmitHumanAudio(pcm); err != nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusAccepted, echo.Map{"status": "received"})
}
