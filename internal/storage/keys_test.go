package storage

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestDocumentKeyIsUnderForkliftPrefix(t *testing.T) {
	forkliftID, docID := uuid.New(), uuid.New()

	key := DocumentKey(forkliftID, docID, 1500, ".pdf")

	assert.True(t, strings.HasPrefix(key, ForkliftPrefix(forkliftID)))
	assert.Contains(t, key, "/1500h/")
	assert.Equal(t, docID.String()+".pdf", FileName(key))
}

func TestServiceSheetKey(t *testing.T) {
	forkliftID := uuid.New()

	key := ServiceSheetKey(forkliftID, "sv", "20240501T101500Z")

	assert.True(t, strings.HasPrefix(key, ForkliftPrefix(forkliftID)))
	assert.True(t, strings.HasSuffix(key, "20240501T101500Z-sv.pdf"))
}

func TestFileNameIgnoresTrailingSlash(t *testing.T) {
	assert.Equal(t, "service-sheets", FileName("forklifts/x/service-sheets/"))
}
