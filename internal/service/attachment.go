package service

import (
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/set-night/mindchat/internal/domain"
)

// MaxAttachmentSize bounds how much of a file is read into memory.
const MaxAttachmentSize = 20 << 20

// ReadAttachment builds an Attachment from a selected file. Images get a
// data: URL preview; other types only carry their metadata.
func ReadAttachment(name, mimeType string, r io.Reader) (domain.Attachment, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxAttachmentSize+1))
	if err != nil {
		return domain.Attachment{}, fmt.Errorf("read attachment %s: %w", name, err)
	}
	if len(data) > MaxAttachmentSize {
		return domain.Attachment{}, fmt.Errorf("attachment %s exceeds %d bytes", name, MaxAttachmentSize)
	}
	return NewAttachment(name, mimeType, data), nil
}

func NewAttachment(name, mimeType string, data []byte) domain.Attachment {
	if mimeType == "" {
		mimeType = mime.TypeByExtension(strings.ToLower(filepath.Ext(name)))
	}
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	// Drop parameters such as "; charset=utf-8".
	if mt, _, err := mime.ParseMediaType(mimeType); err == nil {
		mimeType = mt
	}

	att := domain.Attachment{
		Name:      name,
		MimeType:  mimeType,
		SizeBytes: int64(len(data)),
	}
	if att.IsImage() {
		att.PreviewData = "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
	}
	return att
}

// FileIcon picks an icon for an attachment by its type.
func FileIcon(a domain.Attachment) string {
	switch {
	case a.IsImage():
		return "🖼"
	case strings.Contains(a.MimeType, "pdf"):
		return "📄"
	case strings.HasPrefix(a.MimeType, "text/"):
		return "📝"
	default:
		return "📎"
	}
}
