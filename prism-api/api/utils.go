package api

import (
	"bytes"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"

	"prism-todo/prism-api/domain"
)

// decodeBody decodes a single JSON value from the request body into v.
// Wrong types, trailing data and oversized bodies are validation errors.
// When strict is set unknown fields are rejected as well; otherwise they are
// ignored.
func decodeBody(c echo.Context, v any, strict bool) error {
	lr := io.LimitReader(c.Request().Body, requestMaxSize+1)
	data, err := io.ReadAll(lr)
	if err != nil {
		return domain.ValidationError{Reason: "invalid body"}
	}
	if len(data) > requestMaxSize {
		return domain.ValidationError{Reason: "body too large"}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		data = []byte("{}")
	}
	src := bytes.NewReader(data)
	dec := sonic.ConfigStd.NewDecoder(src)
	if strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(v); err != nil {
		return domain.ValidationError{Reason: "invalid body"}
	}
	rest, err := io.ReadAll(io.MultiReader(dec.Buffered(), src))
	if err != nil || len(bytes.TrimSpace(rest)) > 0 {
		return domain.ValidationError{Reason: "invalid body"}
	}
	return nil
}

// sonicSerializer implements echo.JSONSerializer with sonic.
type sonicSerializer struct{}

func (sonicSerializer) Serialize(c echo.Context, i interface{}, indent string) error {
	enc := sonic.ConfigStd.NewEncoder(c.Response())
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(i)
}

func (sonicSerializer) Deserialize(c echo.Context, i interface{}) error {
	if err := sonic.ConfigStd.NewDecoder(c.Request().Body).Decode(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body").SetInternal(err)
	}
	return nil
}

func envInt(name string, def int) int {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func envDur(name string, def time.Duration) time.Duration {
	if v := os.Getenv(name); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}
