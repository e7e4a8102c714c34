package objects

import "github.com/openmined/dirsync/internal/server/store"

// Field names below are part of the wire protocol, including the
// "lenght" spelling and the keys with spaces.

type MessageResponse struct {
	Message string `json:"message"`
}

type ChecksumResponse struct {
	Checksum  string   `json:"checksum"`
	Chunks    []string `json:"chunks"`
	ChunkSize int      `json:"chunk_size"`
}

type UploadResponse struct {
	Filename string `json:"filename"`
}

type UploadChunkResponse struct {
	WrittenBytes int `json:"written bytes"`
}

type TruncateRequest struct {
	Filename string `json:"filename" binding:"required"`
	Lenght   *int64 `json:"lenght"`
	Length   *int64 `json:"length"`
}

// length returns the requested length, preferring the protocol spelling
func (r *TruncateRequest) length() (int64, bool) {
	if r.Lenght != nil {
		return *r.Lenght, true
	}
	if r.Length != nil {
		return *r.Length, true
	}
	return 0, false
}

type TruncateResponse struct {
	Truncate int64 `json:"truncate"`
}

type DeleteRequest struct {
	Filename string `json:"filename" binding:"required"`
}

type DeleteResponse struct {
	FileRemoved string `json:"file removed"`
}

type ListResponse struct {
	Objects []*store.ObjectInfo `json:"objects"`
}
