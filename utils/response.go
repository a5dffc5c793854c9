package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Envelope codes: 0 means success, 1 means failure. The HTTP status carries
// the cause; the client only branches on Code.
const (
	CodeOK   = 0
	CodeFail = 1
)

// JSONResponse defines the uniform structure for API responses.
type JSONResponse struct {
	Code int         `json:"code"`
	Msg  string      `json:"msg"`
	Data interface{} `json:"data,omitempty"`
}

// Respond writes a JSON response with the given status code.
func Respond(ctx *gin.Context, status int, code int, msg string, data interface{}) {
	ctx.JSON(status, JSONResponse{
		Code: code,
		Msg:  msg,
		Data: data,
	})
}

// Success returns a standard success response.
func Success(ctx *gin.Context, data interface{}) {
	Respond(ctx, http.StatusOK, CodeOK, "success", data)
}

// Error returns a standard error response.
func Error(ctx *gin.Context, status int, msg string) {
	Respond(ctx, status, CodeFail, msg, nil)
}
