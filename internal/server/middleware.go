package server

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const requestIDKey = "request_id"

// RequestID reuses an incoming X-Request-ID or generates one.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rid := c.Request().Header.Get(echo.HeaderXRequestID)
			if rid == "" {
				rid = uuid.NewString()
			}
			c.Set(requestIDKey, rid)
			c.Response().Header().Set(echo.HeaderXRequestID, rid)
			return next(c)
		}
	}
}

// Logger logs one line per request.
func Logger(logger *log.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			rid, _ := c.Get(requestIDKey).(string)

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			kv := []any{
				"request_id", rid,
				"method", req.Method,
				"path", req.URL.Path,
				"status", c.Response().Status,
				"bytes", c.Response().Size,
				"latency", time.Since(start),
				"remote_ip", c.RealIP(),
			}
			if err != nil {
				logger.Error("request", append(kv, "err", err)...)
			} else {
				logger.Info("request", kv...)
			}
			return nil
		}
	}
}

// Recovery turns a handler panic into a 500.
func Recovery(logger *log.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					var stack [4096]byte
					n := runtime.Stack(stack[:], false)
					logger.Error("panic recovered",
						"request_id", fmt.Sprintf("%v", c.Get(requestIDKey)),
						"panic", fmt.Sprintf("%v", r),
						"stack", string(stack[:n]))
					err = echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
				}
			}()
			return next(c)
		}
	}
}
