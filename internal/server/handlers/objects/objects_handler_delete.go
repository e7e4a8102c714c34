package objects

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/openmined/dirsync/internal/server/handlers/api"
)

func (h *ObjectsHandler) Delete(ctx *gin.Context) {
	var req DeleteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeInvalidRequest, fmt.Errorf("failed to bind json: %w", err))
		return
	}

	if err := h.store.Delete(ctx.Request.Context(), req.Filename); err != nil {
		abortWithStoreError(ctx, err)
		return
	}

	ctx.PureJSON(http.StatusOK, &DeleteResponse{FileRemoved: req.Filename})
}
