package service

import (
	"bytes"
	"strings"
	"testing"

	"github.com/set-night/mindchat/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAttachment_ImageGetsPreview(t *testing.T) {
	att := NewAttachment("cat.png", "image/png", []byte{1, 2, 3})
	assert.Equal(t, "image/png", att.MimeType)
	assert.Equal(t, int64(3), att.SizeBytes)
	assert.Equal(t, "data:image/png;base64,AQID", att.PreviewData)
	assert.Equal(t, "🖼", FileIcon(att))
}

func TestNewAttachment_TypeFromExtensionAndContent(t *testing.T) {
	pdf := NewAttachment("doc.pdf", "", []byte("%PDF-1.4"))
	assert.Equal(t, "application/pdf", pdf.MimeType)
	assert.Empty(t, pdf.PreviewData)
	assert.Equal(t, "📄", FileIcon(pdf))

	sniffed := NewAttachment("noext", "", []byte("plain words"))
	assert.Equal(t, "text/plain", sniffed.MimeType)
	assert.Equal(t, "📝", FileIcon(sniffed))

	assert.Equal(t, "📎", FileIcon(domain.Attachment{MimeType: "application/zip"}))
}

func TestReadAttachment_SizeLimit(t *testing.T) {
	att, err := ReadAttachment("a.txt", "text/plain", strings.NewReader("hey"))
	require.NoError(t, err)
	assert.Equal(t, int64(3), att.SizeBytes)

	big := bytes.NewReader(make([]byte, MaxAttachmentSize+1))
	_, err = ReadAttachment("big.bin", "", big)
	assert.Error(t, err)
}
