package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/adiouf/go-consular-backend/internal/services"
)

// GetHistory godoc
// @ID          getRequestHistory
// @Summary     Status history of a request
// @Description Returns the append-only audit trail of status changes, oldest first.
// @Tags        Requests
// @Produce     json
//
// @Param       id  path  string  true  "Request UUID"  format(uuid)
//
// @Success     200  {object}  handlers.HistoryResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Request not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /requests/{id}/history [get]
func (h *Handlers) GetHistory(c *gin.Context) {
	requestID := c.Param("id")
	if _, err := uuid.Parse(requestID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "request id must be a UUID")
		return
	}

	entries, err := h.reqSvc.History(c.Request.Context(), requestID)
	if err != nil {
		if errors.Is(err, services.ErrRequestNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "request not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, HistoryResponse{RequestID: requestID, History: entries})
}

// GetAllowedTransitions godoc
// @ID          getAllowedTransitions
// @Summary     Legal transitions from the current status
// @Description Lists the statuses the request may move to next, with the justification
// @Description each target requires. Terminal statuses return an empty list.
// @Tags        Requests
// @Produce     json
//
// @Param       id  path  string  true  "Request UUID"  format(uuid)
//
// @Success     200  {object}  handlers.AllowedTransitionsResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Request not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /requests/{id}/allowed-transitions [get]
func (h *Handlers) GetAllowedTransitions(c *gin.Context) {
	requestID := c.Param("id")
	if _, err := uuid.Parse(requestID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "request id must be a UUID")
		return
	}

	// Fetch first so the response can echo the current status.
	req, err := h.reqSvc.Get(c.Request.Context(), requestID)
	if err != nil {
		if errors.Is(err, services.ErrRequestNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "request not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}

	opts, err := h.reqSvc.AllowedTransitions(c.Request.Context(), requestID)
	if err != nil {
		if errors.Is(err, services.ErrRequestNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "request not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, AllowedTransitionsResponse{RequestID: requestID, Status: req.Status, Allowed: opts})
}

// GetStats godoc
// @ID          getRequestStats
// @Summary     Request counts by status and service type
// @Tags        Statistics
// @Produce     json
//
// @Success     200  {object}  handlers.StatsResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /requests/stats [get]
func (h *Handlers) GetStats(c *gin.Context) {
	byStatus, byType, err := h.reqSvc.Stats(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, StatsResponse{ByStatus: byStatus, ByServiceType: byType})
}
