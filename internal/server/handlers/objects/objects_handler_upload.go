package objects

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/openmined/dirsync/internal/server/handlers/api"
)

var errUploadBody = errors.New("read upload body")

// Upload stores a whole file sent as the multipart field "file". The part is
// streamed into the store, it is never buffered in memory or spooled to disk.
func (h *ObjectsHandler) Upload(ctx *gin.Context) {
	reader, err := ctx.Request.MultipartReader()
	if err != nil {
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeInvalidRequest, fmt.Errorf("invalid file: %w", err))
		return
	}

	part, err := nextFilePart(reader, "file")
	if err != nil {
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeInvalidRequest, fmt.Errorf("invalid file: %w", err))
		return
	}
	defer part.Close()

	info, err := h.store.WriteWhole(ctx.Request.Context(), part.FileName(), &uploadBody{part})
	if errors.Is(err, errUploadBody) {
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeInvalidRequest, err)
		return
	} else if err != nil {
		abortWithStoreError(ctx, err)
		return
	}

	ctx.PureJSON(http.StatusCreated, &UploadResponse{
		Filename: path.Join(filepath.Base(h.store.Root()), info.Name),
	})
}

// nextFilePart skips parts until the file part named field
func nextFilePart(reader *multipart.Reader, field string) (*multipart.Part, error) {
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			return nil, fmt.Errorf("missing form field %q", field)
		} else if err != nil {
			return nil, err
		}

		if part.FormName() == field && part.FileName() != "" {
			return part, nil
		}
		part.Close()
	}
}

// uploadBody tags read errors so a truncated or malformed request is not
// reported as a store failure
type uploadBody struct {
	r io.Reader
}

func (b *uploadBody) Read(p []byte) (int, error) {
	n, err := b.r.Read(p)
	if err != nil && err != io.EOF {
		err = fmt.Errorf("%w: %w", errUploadBody, err)
	}
	return n, err
}

// UploadChunk overwrites one chunk of an existing object with the raw request body
func (h *ObjectsHandler) UploadChunk(ctx *gin.Context) {
	name := ctx.Param("name")

	index, err := strconv.ParseInt(ctx.Param("index"), 10, 64)
	if err != nil {
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeObjectInvalidArg, fmt.Errorf("invalid chunk index %q", ctx.Param("index")))
		return
	}

	// reading past ChunkSize bytes fails with *http.MaxBytesError
	body := http.MaxBytesReader(ctx.Writer, ctx.Request.Body, int64(h.store.ChunkSize()))
	data, err := io.ReadAll(body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			abortWithStoreError(ctx, err)
			return
		}
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeInvalidRequest, fmt.Errorf("read chunk body: %w", err))
		return
	}

	n, err := h.store.WriteChunk(ctx.Request.Context(), name, index, data)
	if err != nil {
		abortWithStoreError(ctx, err)
		return
	}

	ctx.PureJSON(http.StatusOK, &UploadChunkResponse{WrittenBytes: n})
}
