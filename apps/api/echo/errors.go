package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/Jaimin17/Zenith-School-Backend/core"
)

var (
	errUnauthorized     = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errInvalidToken     = echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired jwt")
	errInvalidTokenType = echo.NewHTTPError(http.StatusUnauthorized, "invalid token type")
	errTokenRevoked     = echo.NewHTTPError(http.StatusUnauthorized, "token has been revoked")
	errHttpForbidden    = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errMissingFile      = echo.NewHTTPError(http.StatusBadRequest, "no file uploaded")
	errInvalidQuery     = echo.NewHTTPError(http.StatusBadRequest, "invalid query parameters")

	integrityErrMsg = "integrity error: the request conflicts with existing data"
)

// fieldMap turns field errors into a {field: message} body, merged with details.
func fieldMap(flds []core.FieldError, details map[string]interface{}) echo.Map {
	m := make(echo.Map, len(flds)+len(details))
	for k, v := range details {
		m[k] = v
	}
	for _, fErr := range flds {
		m[fErr.Field] = fErr.Error
	}
	return m
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				message = origErr.Message
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				if translator != nil {
					fldErrs[vErr.Field()] = vErr.Translate(translator)
				} else {
					fldErrs[vErr.Field()] = vErr.Error()
				}
			}
			code = http.StatusBadRequest
			message = fldErrs
		case *core.ValidationError:
			code = http.StatusBadRequest
			if len(origErr.Fields) > 0 {
				message = fieldMap(origErr.Fields, origErr.Details)
			} else if len(origErr.Details) > 0 {
				m := fieldMap(nil, origErr.Details)
				m["error"] = origErr.Error()
				message = m
			} else {
				message = origErr.Error()
			}
		case *core.NotFoundError:
			code = http.StatusNotFound
			message = origErr.Error()
		case *core.PermissionError:
			code = http.StatusForbidden
			message = origErr.Error()
		case *core.ConflictError:
			code = http.StatusConflict
			m := fieldMap(origErr.Fields, origErr.Details)
			m["error"] = origErr.Error()
			message = m
		case *pq.Error:
			if origErr.Code.Class() == "23" {
				code = http.StatusBadRequest
				message = integrityErrMsg
				break
			}
			code, message = serverError(err, ctx, logger)
		default: // any other error is a server error
			code, message = serverError(err, ctx, logger)

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug && code == http.StatusInternalServerError {
			message = err.Error()
		}
		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}

// serverError reports err with the principal of the request, if any.
func serverError(err error, ctx echo.Context, logger core.Logger) (int, interface{}) {
	msg := http.StatusText(http.StatusInternalServerError)
	args := []interface{}{errors.Wrap(err, msg)}
	if p, pErr := getContextPrincipal(ctx); pErr == nil {
		args = append(args, p)
	}
	if logger != nil {
		logger.Error(msg, args...)
	}
	return http.StatusInternalServerError, msg
}
