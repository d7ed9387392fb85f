package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the envelope around every API reply
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *AppError   `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

// Meta describes where the data came from
type Meta struct {
	Total  int    `json:"total,omitempty"`
	Cached bool   `json:"cached,omitempty"`
	Source string `json:"source,omitempty"`
}

var statusByCode = map[string]int{
	ErrCodeValidation:       http.StatusBadRequest,
	ErrCodeInfeasible:       http.StatusUnprocessableEntity,
	ErrCodeNoStack:          http.StatusUnprocessableEntity,
	ErrCodeSlateMalformed:   http.StatusUnprocessableEntity,
	ErrCodeTimeout:          http.StatusGatewayTimeout,
	ErrCodeSlateUnavailable: http.StatusServiceUnavailable,
	ErrCodeInvalidLineup:    http.StatusInternalServerError,
	ErrCodeOptimization:     http.StatusInternalServerError,
	ErrCodeInternal:         http.StatusInternalServerError,
}

// StatusFor maps an error code to its HTTP status. Unknown codes are 500.
func StatusFor(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func SendSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

func SendSuccessWithMeta(c *gin.Context, data interface{}, meta *Meta) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

// SendError writes err with the status its code maps to
func SendError(c *gin.Context, err *AppError) {
	c.JSON(StatusFor(err.Code), Response{
		Success: false,
		Error:   err,
	})
}

func SendValidationError(c *gin.Context, message string, details string) {
	SendError(c, NewAppError(ErrCodeValidation, message, details))
}
