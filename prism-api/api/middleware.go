package api

import (
	"compress/gzip"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"prism-todo/prism-api/domain"
)

// InflateRequestMiddleware decodes the request Content-Encoding before the
// body reaches decodeBody. gzip and x-gzip are inflated, identity is passed
// through and any other coding is rejected with 415. A gzip stream that
// cannot be opened is a 400.
func InflateRequestMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			coding, ok := requestCoding(req.Header.Values(echo.HeaderContentEncoding))
			if !ok {
				metricsFrom(c).SetErrorStage("encoding")
				return c.JSON(http.StatusUnsupportedMediaType, errorResponse{Error: "unsupported content encoding"})
			}
			if coding == "" {
				return next(c)
			}

			body, err := newInflatedBody(req.Body)
			if err != nil {
				metricsFrom(c).SetErrorStage("gzip")
				return writeError(c, errInvalidGzip)
			}
			req.Body = body
			req.ContentLength = -1
			req.Header.Del(echo.HeaderContentEncoding)
			req.Header.Del(echo.HeaderContentLength)
			return next(c)
		}
	}
}

var errInvalidGzip = domain.ValidationError{Reason: "invalid gzip body"}

// requestCoding folds every Content-Encoding header into the single coding
// the body has to be inflated with. Stacked codings are not supported.
func requestCoding(headers []string) (string, bool) {
	coding := ""
	for _, h := range headers {
		for _, token := range strings.Split(h, ",") {
			switch strings.ToLower(strings.TrimSpace(token)) {
			case "", "identity":
			case "gzip", "x-gzip":
				if coding != "" {
					return "", false
				}
				coding = "gzip"
			default:
				return "", false
			}
		}
	}
	return coding, true
}

// inflatedBody reads the decompressed stream and closes both it and the
// underlying request body.
type inflatedBody struct {
	zr  *gzip.Reader
	raw io.ReadCloser
}

func newInflatedBody(raw io.ReadCloser) (*inflatedBody, error) {
	zr, err := gzip.NewReader(raw)
	if err != nil {
		_ = raw.Close()
		return nil, err
	}
	return &inflatedBody{zr: zr, raw: raw}, nil
}

func (b *inflatedBody) Read(p []byte) (int, error) {
	return b.zr.Read(p)
}

func (b *inflatedBody) Close() error {
	return errors.Join(b.zr.Close(), b.raw.Close())
}
