package syncsdk

import "github.com/openmined/dirsync/internal/chunker"

const (
	HeaderUserAgent      = "User-Agent"
	HeaderDirsyncVersion = "X-Dirsync-Version"
)

// ChecksumResponse is the digest set of a remote object. ChunkSize is the
// server's window size, zero when the server does not advertise it.
type ChecksumResponse struct {
	chunker.DigestSet
	ChunkSize int `json:"chunk_size,omitempty"`
}

type UploadResponse struct {
	Filename string `json:"filename"`
}

type UploadChunkResponse struct {
	WrittenBytes int `json:"written bytes"`
}

type TruncateRequest struct {
	Filename string `json:"filename"`
	Lenght   int64  `json:"lenght"`
}

type TruncateResponse struct {
	Truncate int64 `json:"truncate"`
}

type DeleteRequest struct {
	Filename string `json:"filename"`
}

type DeleteResponse struct {
	FileRemoved string `json:"file removed"`
}

type ObjectInfo struct {
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	LastModified string `json:"lastModified"`
}

type ListResponse struct {
	Objects []*ObjectInfo `json:"objects"`
}
