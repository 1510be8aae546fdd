package web

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/gridview/internal/table"
)

var errBlobRevoked = errors.New("blob revoked")

// responseBlobStore creates blobs that download through an HTTP response,
// the server-side counterpart of a browser object URL.
type responseBlobStore struct {
	w         http.ResponseWriter
	triggered bool
}

func (s *responseBlobStore) Create(content []byte, contentType string) (table.Blob, error) {
	return &responseBlob{store: s, content: content, contentType: contentType}, nil
}

type responseBlob struct {
	store       *responseBlobStore
	content     []byte
	contentType string
	revoked     bool
}

// Trigger writes the blob as an attachment named filename.
func (b *responseBlob) Trigger(filename string) error {
	if b.revoked {
		return errBlobRevoked
	}
	h := b.store.w.Header()
	h.Set("Content-Type", b.contentType+"; charset=utf-8")
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	h.Set("Content-Length", strconv.Itoa(len(b.content)))
	b.store.triggered = true
	b.store.w.WriteHeader(http.StatusOK)
	if _, err := b.store.w.Write(b.content); err != nil {
		return fmt.Errorf("write download: %w", err)
	}
	return nil
}

// Revoke releases the buffered content.
func (b *responseBlob) Revoke() {
	b.content = nil
	b.revoked = true
}
