package objects

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/openmined/dirsync/internal/server/handlers/api"
	"github.com/openmined/dirsync/internal/server/store"
)

// abortWithStoreError maps store errors onto the API error envelope
func abortWithStoreError(ctx *gin.Context, err error) {
	var maxBytesErr *http.MaxBytesError

	switch {
	case errors.Is(err, store.ErrNotFound):
		api.AbortWithError(ctx, http.StatusNotFound, api.CodeObjectNotFound, err)
	case errors.Is(err, store.ErrInvalidName):
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeObjectInvalidName, err)
	case errors.Is(err, store.ErrChunkTooLarge), errors.As(err, &maxBytesErr):
		api.AbortWithError(ctx, http.StatusRequestEntityTooLarge, api.CodePayloadTooLarge, err)
	case errors.Is(err, store.ErrInvalidIndex),
		errors.Is(err, store.ErrInvalidLength),
		errors.Is(err, store.ErrEmptyChunk),
		errors.Is(err, store.ErrObjectTooLarge):
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeObjectInvalidArg, err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		api.AbortWithError(ctx, http.StatusServiceUnavailable, api.CodeInternalError, err)
	default:
		api.AbortWithError(ctx, http.StatusInternalServerError, api.CodeInternalError, err)
	}
}
