package syncsdk

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"

	"github.com/imroc/req/v3"
)

const (
	pathExists      = "/exists/{name}"
	pathChecksum    = "/checksum/{name}"
	pathUpload      = "/upload/"
	pathUploadChunk = "/upload_chunk/{name}/{index}"
	pathTruncate    = "/truncate/"
	pathDelete      = "/delete/"
	pathDownload    = "/download/{name}"
	pathList        = "/list/"

	maxErrorBody = 64 << 10
)

// Exists reports whether the server stores an object with name
func (c *Client) Exists(ctx context.Context, name string) (bool, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("name", name).
		Get(pathExists)

	if resp != nil && resp.GetStatusCode() == http.StatusNotFound {
		return false, nil
	}
	if err := handleAPIError(resp, err, "exists"); err != nil {
		return false, err
	}
	return true, nil
}

// Checksum fetches the digest set of the remote object
func (c *Client) Checksum(ctx context.Context, name string) (*ChecksumResponse, error) {
	var apiResp ChecksumResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("name", name).
		SetSuccessResult(&apiResp).
		Get(pathChecksum)

	if err := handleAPIError(resp, err, "checksum"); err != nil {
		return nil, err
	}
	if apiResp.Chunks == nil {
		apiResp.Chunks = []string{}
	}
	return &apiResp, nil
}

// Upload sends the file at path as the whole content of name. The file is
// reopened on every attempt so retries resend it from the start.
func (c *Client) Upload(ctx context.Context, name string, path string) (*UploadResponse, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("sdk: upload: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("sdk: upload: %q is not a regular file", path)
	}

	var apiResp UploadResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetFileUpload(req.FileUpload{
			ParamName: "file",
			FileName:  name,
			FileSize:  info.Size(),
			GetFileContent: func() (io.ReadCloser, error) {
				return os.Open(path)
			},
		}).
		SetSuccessResult(&apiResp).
		Post(pathUpload)

	if err := handleAPIError(resp, err, "upload"); err != nil {
		return nil, err
	}
	return &apiResp, nil
}

// UploadChunk overwrites chunk index of an existing remote object
func (c *Client) UploadChunk(ctx context.Context, name string, index int, data []byte) (int, error) {
	if len(data) > c.config.ChunkSize {
		return 0, fmt.Errorf("%w: %d > %d", ErrChunkTooLarge, len(data), c.config.ChunkSize)
	}

	var apiResp UploadChunkResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("name", name).
		SetPathParam("index", strconv.Itoa(index)).
		SetContentType("application/octet-stream").
		SetBodyBytes(data).
		SetSuccessResult(&apiResp).
		Post(pathUploadChunk)

	if err := handleAPIError(resp, err, fmt.Sprintf("upload chunk %d", index)); err != nil {
		return 0, err
	}
	return apiResp.WrittenBytes, nil
}

// Truncate sets the remote object length
func (c *Client) Truncate(ctx context.Context, name string, length int64) (int64, error) {
	var apiResp TruncateResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(&TruncateRequest{Filename: name, Lenght: length}).
		SetSuccessResult(&apiResp).
		Post(pathTruncate)

	if err := handleAPIError(resp, err, "truncate"); err != nil {
		return 0, err
	}
	return apiResp.Truncate, nil
}

// Delete removes the remote object
func (c *Client) Delete(ctx context.Context, name string) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(&DeleteRequest{Filename: name}).
		SetSuccessResult(&DeleteResponse{}).
		Post(pathDelete)

	return handleAPIError(resp, err, "delete")
}

// Download streams the remote object into w
func (c *Client) Download(ctx context.Context, name string, w io.Writer) (int64, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("name", name).
		DisableAutoReadResponse().
		Get(pathDownload)
	if err != nil {
		return 0, fmt.Errorf("sdk: download: %w", err)
	}
	defer resp.Body.Close()

	if resp.IsErrorState() {
		apiErr := &APIError{StatusCode: resp.GetStatusCode()}
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if err := jsonUnmarshal(body, apiErr); err != nil || apiErr.Code == "" {
			apiErr.Code = CodeUnknownError
			apiErr.Message = resp.Status
		}
		return 0, fmt.Errorf("sdk: download: %w", apiErr)
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("sdk: download: %w", err)
	}
	return n, nil
}

// List returns the objects known to the server index
func (c *Client) List(ctx context.Context) ([]*ObjectInfo, error) {
	var apiResp ListResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetSuccessResult(&apiResp).
		Get(pathList)

	if err := handleAPIError(resp, err, "list"); err != nil {
		return nil, err
	}
	return apiResp.Objects, nil
}
