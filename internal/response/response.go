// Package response renders the JSON envelopes returned by every endpoint.
package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/platterhub/service-booking/internal/domain"
)

// APIResponse is the standard envelope.
type APIResponse struct {
	Success    bool        `json:"success"`
	Data       interface{} `json:"data,omitempty"`
	Error      *APIError   `json:"error,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// APIError is the error part of the envelope.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Pagination describes a page of a list response.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

var statusByCode = map[domain.ErrorCode]int{
	domain.CodeNotFound:          http.StatusNotFound,
	domain.CodeInvalidInput:      http.StatusBadRequest,
	domain.CodeItemUnavailable:   http.StatusUnprocessableEntity,
	domain.CodeAlreadyAssigned:   http.StatusConflict,
	domain.CodeWorkerBusy:        http.StatusConflict,
	domain.CodeForbidden:         http.StatusForbidden,
	domain.CodeIllegalTransition: http.StatusUnprocessableEntity,
	domain.CodeConflict:          http.StatusConflict,
}

// Success writes a 200 response.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// Created writes a 201 response.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{Success: true, Data: data})
}

// Paginated writes a 200 list response with pagination metadata.
func Paginated(c *gin.Context, items interface{}, total int64, page, limit int) {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    items,
		Pagination: &Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
		},
	})
}

// Error maps err to an HTTP status. Errors outside the domain taxonomy are
// reported as 500 without their message.
func Error(c *gin.Context, err error) {
	var de *domain.DomainError
	if errors.As(err, &de) {
		status, ok := statusByCode[de.Code]
		if !ok {
			status = http.StatusInternalServerError
		}
		abort(c, status, string(de.Code), de.Message)
		return
	}
	_ = c.Error(err)
	abort(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
}

// BadRequest writes a 400 response.
func BadRequest(c *gin.Context, message string) {
	abort(c, http.StatusBadRequest, string(domain.CodeInvalidInput), message)
}

// Unauthorized writes a 401 response.
func Unauthorized(c *gin.Context, message string) {
	abort(c, http.StatusUnauthorized, "UNAUTHORIZED", message)
}

// Forbidden writes a 403 response.
func Forbidden(c *gin.Context, message string) {
	abort(c, http.StatusForbidden, string(domain.CodeForbidden), message)
}

// TooManyRequests writes a 429 response.
func TooManyRequests(c *gin.Context, message string) {
	abort(c, http.StatusTooManyRequests, "RATE_LIMITED", message)
}

func abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: message},
	})
}
