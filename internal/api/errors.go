package api

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/example/ieltsprep/internal/database"
	"github.com/example/ieltsprep/internal/progress"
)

var errInvalidUserID = echo.NewHTTPError(http.StatusBadRequest, "invalid user id")

// appHTTPErrorHandler maps service errors onto HTTP status codes.
func appHTTPErrorHandler(err error, ctx echo.Context) {
	var (
		code    int
		message interface{}

		httpErr *echo.HTTPError
		vErrs   validator.ValidationErrors
		appErr  *progress.ValidationError
	)

	switch {
	case errors.As(err, &httpErr):
		if httpErr.Internal != nil {
			if herr, ok := httpErr.Internal.(*echo.HTTPError); ok {
				httpErr = herr
			}
		}
		code = httpErr.Code
		message = httpErr.Message
	case errors.As(err, &vErrs):
		v, _ := ctx.Echo().Validator.(*appValidator)
		fldErrs := make(map[string]string, len(vErrs))
		for _, vErr := range vErrs {
			if v != nil {
				fldErrs[vErr.Field()] = v.translate(vErr)
			} else {
				fldErrs[vErr.Field()] = vErr.Error()
			}
		}
		code = http.StatusBadRequest
		message = fldErrs
	case errors.As(err, &appErr):
		if appErr.Fields != nil {
			fldErrs := make(map[string]string, len(appErr.Fields))
			for _, fErr := range appErr.Fields {
				fldErrs[fErr.Field] = fErr.Error
			}
			message = fldErrs
		} else {
			message = appErr.Error()
		}
		code = http.StatusBadRequest
	case errors.Is(err, database.ErrNotFound):
		code = http.StatusNotFound
		message = "not found"
	case errors.Is(err, database.ErrConflict):
		code = http.StatusConflict
		message = "concurrent update, retry"
	default: // any other error is a server error
		code = http.StatusInternalServerError
		message = http.StatusText(http.StatusInternalServerError)
		ctx.Echo().Logger.Error(err)
	}

	if ctx.Echo().Debug {
		message = err.Error()
	}
	if m, ok := message.(string); ok {
		message = echo.Map{"error": m}
	}

	// Send response
	if !ctx.Response().Committed {
		if ctx.Request().Method == http.MethodHead {
			err = ctx.NoContent(code)
		} else {
			err = ctx.JSON(code, message)
		}
		if err != nil {
			ctx.Echo().Logger.Error(err)
		}
	}
}
