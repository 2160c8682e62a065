// Feed HTTP handlers.
//
// This file exposes REST endpoints for the room feed:
//   - POST   /rooms/{id}/messages          (post a free message)
//   - GET    /rooms/{id}/feed              (merged history, free + paid)
//   - GET    /rooms/{id}/stats             (aggregate counters)
//   - PUT    /messages/{id}/pin            (pin; privileged)
//   - DELETE /messages/{id}/pin            (unpin; privileged)
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/streamverse/superchat-backend/internal/feed"
	"github.com/streamverse/superchat-backend/internal/services"
	"github.com/streamverse/superchat-backend/internal/utils"
)

//
// DTOs
//

// PostMessageRequest is the JSON payload for posting a free message.
type PostMessageRequest struct {
	// Text is the message body (whitespace-normalized server-side).
	Text string `json:"text" binding:"required" example:"hello chat"`
	// AttachmentRef optionally references an uploaded attachment.
	AttachmentRef string `json:"attachment_ref,omitempty"`
}

// feedLimits bound the history read.
const (
	defaultFeedLimit = 200
	maxFeedLimit     = 1000
)

//
// Handlers
//

// PostMessage godoc
// @ID          postMessage
// @Summary     Post a free message
// @Description Stores a free message in the room and broadcasts it to connected viewers.
// @Tags        Feed
// @Accept      json
// @Produce     json
//
// @Param       X-User-Id  header  string  true  "User ID"  example(user123)
// @Param       id         path    string  true  "Room ID"
// @Param       body       body    handlers.PostMessageRequest  true  "Message payload"
//
// @Success     201  {object}  domain.FreeMessage
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Router      /rooms/{id}/messages [post]
func (h *Handlers) PostMessage(c *gin.Context) {
	roomID := c.Param("id")
	var req PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	m, err := h.msgSvc.PostFree(c.Request.Context(), roomID, identity(c), req.Text, req.AttachmentRef)
	switch {
	case err == nil:
		ok(c, http.StatusCreated, m)
	case errors.Is(err, services.ErrEmptyMessage):
		fail(c, http.StatusBadRequest, ErrCodeEmptyMessage, err.Error())
	case errors.Is(err, services.ErrMessageTooLong):
		fail(c, http.StatusBadRequest, ErrCodeMessageTooLong, err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}

// GetFeed godoc
// @ID          getFeed
// @Summary     Get the merged room feed
// @Description Returns free and paid messages interleaved in the canonical order (created_at, id ascending).
// @Tags        Feed
// @Produce     json
//
// @Param       id     path   string  true   "Room ID"
// @Param       limit  query  int     false  "Max entries per source (default 200, max 1000)"
// @Param       view   query  string  false  "highlighted: only the highlight rail (active windows + pins)"
//
// @Success     200  {array}  feed.Entry
// @Router      /rooms/{id}/feed [get]
func (h *Handlers) GetFeed(c *gin.Context) {
	roomID := c.Param("id")
	limit := utils.AtoiDefault(c.Query("limit"), defaultFeedLimit)
	if limit < 1 {
		limit = 1
	}
	if limit > maxFeedLimit {
		limit = maxFeedLimit
	}

	entries, err := h.msgSvc.History(c.Request.Context(), roomID, limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	if c.Query("view") == "highlighted" {
		tl := feed.NewTimeline(entries)
		ok(c, http.StatusOK, tl.Highlighted(h.tierTab, time.Now().UTC()))
		return
	}
	ok(c, http.StatusOK, entries)
}

// GetRoomStats godoc
// @ID          getRoomStats
// @Summary     Room statistics
// @Description Returns message counts, superchat revenue, and the pinned count for a room.
// @Tags        Feed
// @Produce     json
//
// @Param       id  path  string  true  "Room ID"
//
// @Success     200  {object}  repo.RoomStats
// @Router      /rooms/{id}/stats [get]
func (h *Handlers) GetRoomStats(c *gin.Context) {
	s, err := h.msgSvc.Stats(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, s)
}

// PinMessage godoc
// @ID          pinMessage
// @Summary     Pin a message
// @Description Pins the message; privileged callers only. kind selects free or paid. Pinning a free message releases any previously pinned free message in the room.
// @Tags        Feed
// @Produce     json
//
// @Param       X-User-Id  header  string  true  "User ID"  example(mod1)
// @Param       id         path    string  true  "Message ID"
// @Param       kind       query   string  true  "free | paid"
//
// @Success     200  {object}  feed.Entry
// @Failure     403  {object}  handlers.ErrorResponse  "Not privileged"
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Router      /messages/{id}/pin [put]
func (h *Handlers) PinMessage(c *gin.Context) {
	h.setPinned(c, true)
}

// UnpinMessage godoc
// @ID          unpinMessage
// @Summary     Unpin a message
// @Description Removes the pin; privileged callers only. A paid message past its highlight window drops out of the highlight rail on unpin.
// @Tags        Feed
// @Produce     json
//
// @Param       X-User-Id  header  string  true  "User ID"  example(mod1)
// @Param       id         path    string  true  "Message ID"
// @Param       kind       query   string  true  "free | paid"
//
// @Success     200  {object}  feed.Entry
// @Failure     403  {object}  handlers.ErrorResponse  "Not privileged"
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Router      /messages/{id}/pin [delete]
func (h *Handlers) UnpinMessage(c *gin.Context) {
	h.setPinned(c, false)
}

func (h *Handlers) setPinned(c *gin.Context, pinned bool) {
	entry, err := h.msgSvc.SetPinned(c.Request.Context(), identity(c), c.Query("kind"), c.Param("id"), pinned)
	switch {
	case err == nil:
		ok(c, http.StatusOK, entry)
	case errors.Is(err, services.ErrNotPrivileged):
		fail(c, http.StatusForbidden, ErrCodeForbidden, "pin requires a privileged caller")
	case errors.Is(err, services.ErrUnknownKind):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "kind must be free or paid")
	case errors.Is(err, services.ErrMessageNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "message not found")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}
