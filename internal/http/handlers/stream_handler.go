// Stream HTTP handlers.
//
// This file exposes the Generation Pipeline over HTTP:
//   - POST /stream/{chatId}            (run one prompt, SSE response)
//   - POST /stream/cancel/{streamId}   (cancel an in-flight generation)
//
// The handler itself does no generation logic; it decodes the request,
// delegates to generate.Pipeline.Run, and lets the pipeline own the SSE
// framing and persistence.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/samansalari/seenovate-appforge/internal/generate"
)

// StreamHandlers exposes the streaming endpoints, backed by a Pipeline.
type StreamHandlers struct {
	Pipeline *generate.Pipeline
}

// NewStreamHandlers constructs a StreamHandlers bound to pipeline.
func NewStreamHandlers(pipeline *generate.Pipeline) *StreamHandlers {
	return &StreamHandlers{Pipeline: pipeline}
}

// Stream runs one Generation Pipeline turn for chat :id, writing SSE frames
// directly to the response as they're produced.
// Stream godoc
// @ID          streamChat
// @Summary     Run the generation pipeline and stream SSE frames
// @Tags        Generation
// @Accept      json
// @Produce     text/event-stream
// @Param       id    path  string  true  "Chat ID"
// @Param       body  body  generate.StreamRequest  true  "Prompt payload"
// @Success     200  "text/event-stream of framed generation events"
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse "Chat not found"
// @Router      /stream/{id} [post]
func (h *StreamHandlers) Stream(c *gin.Context) {
	var req generate.StreamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}

	chatID := c.Param("id")
	if err := h.Pipeline.Run(c.Request.Context(), c.Writer, userID(c), chatID, req); err != nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "chat not found")
		return
	}
}

// Cancel stops the in-flight generation identified by :streamId, if any.
// Cancelling a stream that has already finished (or never existed) is a
// harmless no-op per the Generation Pipeline's race-tolerance contract.
// Cancel godoc
// @ID          cancelStream
// @Summary     Cooperatively cancel an in-flight generation stream
// @Tags        Generation
// @Produce     json
// @Param       streamId  path  string  true  "Stream ID returned in the SSE handshake"
// @Success     200  {object}  map[string]bool
// @Router      /stream/cancel/{streamId} [post]
func (h *StreamHandlers) Cancel(c *gin.Context) {
	h.Pipeline.Sessions.Cancel(c.Param("streamId"))
	ok(c, http.StatusOK, gin.H{"cancelled": true})
}
