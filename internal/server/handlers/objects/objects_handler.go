package objects

import (
	"fmt"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/openmined/dirsync/internal/server/store"
	"github.com/openmined/dirsync/internal/utils"
)

type ObjectsHandler struct {
	store *store.ObjectStore
}

func New(store *store.ObjectStore) *ObjectsHandler {
	return &ObjectsHandler{store: store}
}

func (h *ObjectsHandler) Exists(ctx *gin.Context) {
	name := ctx.Param("name")

	exists, err := h.store.Exists(ctx.Request.Context(), name)
	if err != nil {
		abortWithStoreError(ctx, err)
		return
	}
	if !exists {
		abortWithStoreError(ctx, fmt.Errorf("%w: %s", store.ErrNotFound, name))
		return
	}

	ctx.PureJSON(http.StatusOK, &MessageResponse{Message: "file found"})
}

func (h *ObjectsHandler) Checksum(ctx *gin.Context) {
	digest, err := h.store.Checksum(ctx.Request.Context(), ctx.Param("name"))
	if err != nil {
		abortWithStoreError(ctx, err)
		return
	}

	ctx.PureJSON(http.StatusOK, &ChecksumResponse{
		Checksum:  digest.Checksum,
		Chunks:    digest.Chunks,
		ChunkSize: h.store.ChunkSize(),
	})
}

func (h *ObjectsHandler) Download(ctx *gin.Context) {
	reader, err := h.store.Open(ctx.Request.Context(), ctx.Param("name"))
	if err != nil {
		abortWithStoreError(ctx, err)
		return
	}
	defer reader.Close()

	ctx.Header("Content-Type", utils.DetectContentType(reader.Name))
	ctx.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": reader.Name}))
	http.ServeContent(ctx.Writer, ctx.Request, reader.Name, reader.ModTime, reader)
}

func (h *ObjectsHandler) List(ctx *gin.Context) {
	objects, err := h.store.List(ctx.Request.Context())
	if err != nil {
		abortWithStoreError(ctx, err)
		return
	}

	ctx.PureJSON(http.StatusOK, &ListResponse{Objects: objects})
}
