package http

import (
	"errors"
	"net/http"

	"github.com/MikeRez0/novacart/internal/core/domain"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// errorStatus is checked in order; the first match wins.
var errorStatus = []struct {
	err    error
	status int
}{
	{domain.ErrInternal, http.StatusInternalServerError},
	{domain.ErrTokenCreation, http.StatusInternalServerError},

	{domain.ErrInvalidRequest, http.StatusBadRequest},

	{domain.ErrUnauthenticated, http.StatusUnauthorized},
	{domain.ErrInvalidCredentials, http.StatusUnauthorized},
	{domain.ErrEmptyAuthorizationHeader, http.StatusUnauthorized},
	{domain.ErrInvalidAuthorizationHeader, http.StatusUnauthorized},
	{domain.ErrInvalidAuthorizationType, http.StatusUnauthorized},
	{domain.ErrInvalidToken, http.StatusUnauthorized},
	{domain.ErrForbidden, http.StatusForbidden},

	{domain.ErrDataNotFound, http.StatusNotFound},

	{domain.ErrInsufficientStock, http.StatusConflict},
	{domain.ErrInvalidTransition, http.StatusConflict},
	{domain.ErrConflictingData, http.StatusConflict},
}

type errorResponse struct {
	Message   string              `json:"message"`
	Errors    []domain.FieldError `json:"errors,omitempty"`
	ProductID *uint64             `json:"productId,omitempty"`
}

type Handler struct {
	logger *zap.Logger
}

func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{logger: logger}
}

func statusOf(err error) (int, bool) {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			return e.status, true
		}
	}
	return http.StatusInternalServerError, false
}

func newErrorResponse(err error, status int) errorResponse {
	if status == http.StatusInternalServerError {
		return errorResponse{Message: domain.ErrInternal.Error()}
	}

	resp := errorResponse{Message: err.Error()}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		resp.Message = domain.ErrInvalidRequest.Error()
		resp.Errors = verr.Fields
	}
	var serr *domain.StockError
	if errors.As(err, &serr) {
		id := serr.ProductID
		resp.ProductID = &id
	}
	return resp
}

// handleValidationError answers a request body that could not be decoded.
func (h *Handler) handleValidationError(ctx *gin.Context, err error) {
	h.logger.Debug("bad request", zap.Error(err))
	ctx.JSON(http.StatusBadRequest, errorResponse{Message: domain.ErrInvalidRequest.Error()})
}

// handleAbort sends an error response and stops the handler chain.
func (h *Handler) handleAbort(ctx *gin.Context, err error) {
	status, ok := statusOf(err)
	if !ok {
		h.logger.Error("aborting request", zap.Error(err))
	}
	ctx.AbortWithStatusJSON(status, newErrorResponse(err, status))
}

func (h *Handler) handleError(ctx *gin.Context, err error) {
	status, ok := statusOf(err)
	if !ok {
		h.logger.Error("error processing request", zap.Error(err))
	}
	ctx.JSON(status, newErrorResponse(err, status))
}

func (h *Handler) handleSuccessWithStatus(ctx *gin.Context, data any, status int) {
	if data != nil {
		ctx.JSON(status, data)
	} else {
		ctx.Status(status)
	}
}

func (h *Handler) handleSuccess(ctx *gin.Context, data any) {
	h.handleSuccessWithStatus(ctx, data, http.StatusOK)
}
