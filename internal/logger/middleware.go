// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package logger

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	requestIDHeaderName    = "x-request-id"
	forwardedForHeaderName = "x-forwarded-for"

	IncomingRequestMessage  = "incoming request"
	RequestCompletedMessage = "request completed"
)

// requestID returns the caller supplied request id or a new random one.
func requestID(c *fiber.Ctx) string {
	if id := c.Get(requestIDHeaderName); id != "" {
		return id
	}
	return uuid.NewString()
}

// statusCode returns the status that fiber will send for err.
func statusCode(c *fiber.Ctx, err error) int {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code
	}
	if err != nil {
		return fiber.StatusInternalServerError
	}
	return c.Response().StatusCode()
}

// RequestMiddlewareLogger is a fiber middleware that logs every request whose
// path does not start with one of excludedPrefixes. The request scoped logger
// is stored in the user context, named after the request id.
func RequestMiddlewareLogger(logger Logger, excludedPrefixes []string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()
		for _, prefix := range excludedPrefixes {
			if strings.HasPrefix(path, prefix) {
				return c.Next()
			}
		}

		start := time.Now()
		id := requestID(c)
		c.Set(requestIDHeaderName, id)

		requestLogger := logger.WithName("request").WithName(id)
		c.SetUserContext(WithContext(c.UserContext(), requestLogger))

		requestLogger.Trace(IncomingRequestMessage,
			"method", c.Method(),
			"path", path,
			"userAgent", c.Get(fiber.HeaderUserAgent),
			"ip", c.Get(forwardedForHeaderName, c.IP()),
		)

		err := c.Next()

		requestLogger.Info(RequestCompletedMessage,
			"method", c.Method(),
			"path", path,
			"statusCode", statusCode(c, err),
			"bodyBytes", len(c.Response().Body()),
			"responseTime", float64(time.Since(start).Microseconds())/1000,
		)
		return err
	}
}
