package response

import (
	"net/http"

	"SafeSignal/pkg/errors"

	"github.com/gin-gonic/gin"
)

type Body struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Body{Code: 0, Message: message, Data: data})
}

func Fail(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusBadRequest, Body{Code: -1, Message: message, Data: data})
}

// Error maps a coded service error onto the matching HTTP status. Uncoded
// errors surface as a bare 500.
func Error(c *gin.Context, err error) {
	code := errors.GetCode(err)
	c.JSON(httpStatus(code), Body{Code: code, Message: errors.GetMessage(err)})
}

func httpStatus(code int) int {
	switch code {
	case errors.CodeValidation:
		return http.StatusBadRequest
	case errors.CodeConflict:
		return http.StatusConflict
	case errors.CodeNotFound:
		return http.StatusNotFound
	case errors.CodeForbidden:
		return http.StatusForbidden
	case errors.CodeNoContacts, errors.CodeInvalidTransition:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
