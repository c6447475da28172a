package response

import (
	"github.com/gin-gonic/gin"
)

// The portal speaks the same flat wire format its frontend already
// consumes: success bodies are the payload itself, failures are
// {"detail": "<message>"} with an optional per-field errors map.

type ErrorBody struct {
	Detail string            `json:"detail"`
	Errors map[string]string `json:"errors,omitempty"`
}

// JSON writes a success payload as-is.
func JSON(c *gin.Context, status int, payload any) {
	c.JSON(status, payload)
}

// Detail writes a failure with a short human-readable message.
func Detail(c *gin.Context, status int, detail string) {
	c.JSON(status, ErrorBody{Detail: detail})
}

// DetailWith writes a failure including per-field details, used for
// binding errors.
func DetailWith(c *gin.Context, status int, detail string, errs map[string]string) {
	c.JSON(status, ErrorBody{Detail: detail, Errors: errs})
}

// AbortDetail aborts the request chain with a failure body; for
// middleware use.
func AbortDetail(c *gin.Context, status int, detail string) {
	c.AbortWithStatusJSON(status, ErrorBody{Detail: detail})
}
