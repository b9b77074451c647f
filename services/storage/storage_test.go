package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateUpload(t *testing.T) {
	assert.NoError(t, ValidateUpload("contract.PDF", 1024))
	assert.ErrorIs(t, ValidateUpload("malware.exe", 1024), ErrUnsupportedType)
	assert.ErrorIs(t, ValidateUpload("huge.pdf", MaxUploadBytes+1), ErrTooLarge)
	assert.ErrorIs(t, ValidateUpload("empty.pdf", 0), ErrTooLarge)
}

func TestSplitKey(t *testing.T) {
	rt, id := splitKey("image:cases/123-photo")
	assert.Equal(t, "image", rt)
	assert.Equal(t, "cases/123-photo", id)

	rt, id = splitKey("legacy-id")
	assert.Equal(t, "raw", rt)
	assert.Equal(t, "legacy-id", id)
}

func TestObjectKeyIsNamespaced(t *testing.T) {
	key := objectKey(FolderCaseFiles, "My Lease (final).pdf")
	assert.True(t, strings.HasPrefix(key, "cases/"))
	assert.True(t, strings.HasSuffix(key, ".pdf"))
	assert.NotContains(t, key, " ")
	assert.Equal(t, "application/pdf", contentType("x.pdf"))
}
