package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/clinovia/clinic-api/pkg/errors"
)

type Response struct {
	Status  string      `json:"status"`
	Kind    string      `json:"kind,omitempty"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}

// Error writes a typed error. AppError kinds map to stable HTTP statuses and
// machine-readable kinds; anything else is an opaque 500.
func Error(c *gin.Context, err error) {
	if appErr, ok := err.(*apperrors.AppError); ok {
		c.JSON(appErr.StatusCode(), &Response{
			Status:  "error",
			Kind:    string(appErr.Kind),
			Message: appErr.Message,
		})
		return
	}
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, NewErrorResponse("internal server error"))
}
