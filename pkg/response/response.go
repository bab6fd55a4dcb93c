package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error codes used across the API.
const (
	CodeBadRequest     = "BAD_REQUEST_ERROR"
	CodeAuthentication = "AUTHENTICATION_ERROR"
	CodeNotFound       = "NOT_FOUND_ERROR"
	CodeInvalidVPA     = "INVALID_VPA"
	CodeInvalidCard    = "INVALID_CARD"
	CodeInternal       = "INTERNAL_ERROR"
)

// ErrorBody is the standard API error envelope.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries a machine code and a human description.
type ErrorDetail struct {
	Code        string `json:"code"`
	Description string `json:"description,omitempty"`
}

// OK sends a 200 JSON response.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Created sends a 201 JSON response.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// BadRequest sends 400 with an error code and description.
func BadRequest(c *gin.Context, code, description string) {
	c.JSON(http.StatusBadRequest, ErrorBody{Error: ErrorDetail{Code: code, Description: description}})
}

// Unauthorized sends 401.
func Unauthorized(c *gin.Context, description string) {
	c.JSON(http.StatusUnauthorized, ErrorBody{Error: ErrorDetail{Code: CodeAuthentication, Description: description}})
}

// NotFound sends 404.
func NotFound(c *gin.Context, description string) {
	c.JSON(http.StatusNotFound, ErrorBody{Error: ErrorDetail{Code: CodeNotFound, Description: description}})
}

// Conflict sends 409.
func Conflict(c *gin.Context, code, description string) {
	c.JSON(http.StatusConflict, ErrorBody{Error: ErrorDetail{Code: code, Description: description}})
}

// Internal sends 500.
func Internal(c *gin.Context, description string) {
	c.JSON(http.StatusInternalServerError, ErrorBody{Error: ErrorDetail{Code: CodeInternal, Description: description}})
}
