package handler

import (
	"errors"
	"net/http"

	"jetwallet/internal/adapter/http/dto"
	"jetwallet/internal/core/engine"
	"jetwallet/pkg/apperror"

	"github.com/gin-gonic/gin"
)

// bindCommand decodes the body for the command named in the path into its
// engine form.
func bindCommand(c *gin.Context, kind string) (engine.Command, error) {
	if kind == dto.CommandSwap {
		var req dto.SwapRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return nil, bindError(err)
		}
		return req.Command(), nil
	}

	var req dto.CommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, bindError(err)
	}
	dto.SanitizeStruct(&req)
	return req.Command(kind)
}

// bindError maps a body binding failure to its API error. Bodies cut off by
// the size limit are reported as 413 rather than as malformed input.
func bindError(err error) *apperror.AppError {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperror.ErrPayloadTooLarge()
	}
	return apperror.Validation(err.Error())
}
