package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lotledger/backend/internal/domain/shared"
	"github.com/lotledger/backend/internal/infrastructure/logger"
	"github.com/lotledger/backend/internal/interfaces/http/dto"
	"github.com/lotledger/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// IdempotencyKeyHeader carries the client supplied key that makes a write run at most once
const IdempotencyKeyHeader = "Idempotency-Key"

// maxIdempotencyKeyLength bounds the key stored in the idempotency store
const maxIdempotencyKeyLength = 128

// BaseHandler provides common handler utilities
type BaseHandler struct{}

func getRequestID(c *gin.Context) string {
	return middleware.GetRequestID(c)
}

// getActor returns the operator recorded on movements written by this request
func getActor(c *gin.Context) string {
	return middleware.GetActor(c)
}

// getIdempotencyKey returns the Idempotency-Key header, empty when absent
func getIdempotencyKey(c *gin.Context) (string, error) {
	key := c.GetHeader(IdempotencyKeyHeader)
	if len(key) > maxIdempotencyKeyLength {
		return "", shared.NewValidationError("Idempotency-Key must be at most 128 characters")
	}
	return key, nil
}

// parseRow parses the :row path parameter. Row 1 holds the headers.
func parseRow(c *gin.Context) (int, error) {
	row, err := strconv.Atoi(c.Param("row"))
	if err != nil || row < 2 {
		return 0, shared.NewValidationError("row must be an integer of at least 2").
			WithDetail("row", c.Param("row"))
	}
	return row, nil
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithTotal sends a success response for a list
func (h *BaseHandler) SuccessWithTotal(c *gin.Context, data any, total int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, getRequestID(c), total))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	resp := dto.NewErrorResponseWithRequestID(code, message, getRequestID(c))
	c.Set(middleware.ErrorCodeKey, resp.Error.Code)
	c.JSON(statusCode, resp)
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// BindJSON binds the request body, answering 400 with the invalid fields on failure
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		if middleware.IsBodyTooLarge(err) {
			middleware.AbortBodyTooLarge(c)
			return false
		}
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}

// HandleError converts an error to an HTTP response. Domain errors keep
// their details so callers see, for example, how much of a line was
// already fulfilled when a dispatch is rejected.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	requestID := getRequestID(c)

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		c.Set(middleware.ErrorCodeKey, code)
		c.JSON(dto.GetHTTPStatus(code), dto.NewErrorResponseWithDetails(code, domainErr.Message, requestID, domainErr.Details))
		return
	}

	_ = c.Error(err)
	logger.GetGinLogger(c).Error("unexpected error", zap.Error(err))
	c.Set(middleware.ErrorCodeKey, dto.ErrCodeInternal)
	c.JSON(http.StatusInternalServerError, dto.NewErrorResponseWithRequestID(
		dto.ErrCodeInternal,
		"An unexpected error occurred",
		requestID,
	))
}
