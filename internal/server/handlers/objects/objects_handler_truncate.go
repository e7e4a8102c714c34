package objects

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/openmined/dirsync/internal/server/handlers/api"
)

func (h *ObjectsHandler) Truncate(ctx *gin.Context) {
	var req TruncateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeInvalidRequest, fmt.Errorf("failed to bind json: %w", err))
		return
	}

	length, ok := req.length()
	if !ok {
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeInvalidRequest, errors.New("lenght is required"))
		return
	}

	if err := h.store.Truncate(ctx.Request.Context(), req.Filename, length); err != nil {
		abortWithStoreError(ctx, err)
		return
	}

	ctx.PureJSON(http.StatusOK, &TruncateResponse{Truncate: length})
}
