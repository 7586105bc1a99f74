package api

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/Tesudeix/Yuki/internal/apperr"
	"github.com/Tesudeix/Yuki/internal/logger"
)

// RespondError writes err as {"error", "kind"} with the status matching its kind.
func RespondError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status := apperr.HTTPStatus(kind)

	if kind == apperr.KindInternal || kind == apperr.KindServiceUnavailable {
		logger.Error("request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"kind", string(kind),
			"error", err,
		)
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: apperr.Message(err),
		Kind:  string(kind),
	})
}

// RespondBindError renders a binding failure as invalid_input. Validator
// failures carry per-field details, malformed bodies only a message.
func RespondBindError(c *gin.Context, err error) {
	resp := ErrorResponse{
		Error: "invalid request body",
		Kind:  string(apperr.KindInvalidInput),
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		resp.Error = "validation failed"
		resp.Details = FieldErrors(verrs)
	}

	c.AbortWithStatusJSON(apperr.HTTPStatus(apperr.KindInvalidInput), resp)
}
