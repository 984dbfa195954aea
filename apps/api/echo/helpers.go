package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// Response is the success envelope every endpoint returns.
type Response struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func respond(ctx echo.Context, code int, message string, data interface{}) error {
	return ctx.JSON(code, Response{Message: message, Data: data})
}

func respondOK(ctx echo.Context, data interface{}) error {
	return respond(ctx, http.StatusOK, "ok", data)
}

func respondCreated(ctx echo.Context, data interface{}) error {
	return respond(ctx, http.StatusCreated, "created", data)
}

// intParam parses a path parameter as an int; a malformed value is a 404, not
// a 400, so probing ids and probing garbage look the same.
func intParam(ctx echo.Context, name string) (int, error) {
	val, err := strconv.Atoi(ctx.Param(name))
	if err != nil {
		return 0, errHttpNotFound
	}
	return val, nil
}
