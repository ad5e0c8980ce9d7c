package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// SuccessResponse writes data as a 200 JSON body.
func SuccessResponse(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, data)
}

// ErrorResponse writes the {"error": message} envelope.
func ErrorResponse(c echo.Context, status int, message string) error {
	return c.JSON(status, ErrorBody{Error: message})
}

// AppErrorResponse writes err using the status of its AppError form.
func AppErrorResponse(c echo.Context, err error) error {
	appErr := FromError(err)
	if appErr == nil {
		return c.NoContent(http.StatusNoContent)
	}
	return ErrorResponse(c, appErr.Status, appErr.Message)
}

// ErrorHandler renders errors escaping the handlers, such as unknown routes,
// with the same envelope.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	if he, ok := err.(*echo.HTTPError); ok {
		msg, ok := he.Message.(string)
		if !ok {
			msg = http.StatusText(he.Code)
		}
		_ = ErrorResponse(c, he.Code, msg)
		return
	}
	_ = AppErrorResponse(c, err)
}
