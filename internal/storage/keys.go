package storage

import (
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
)

// ForkliftPrefix is the object prefix holding all objects of a forklift.
// Keys do not carry the company so a forklift can change company without
// moving objects.
func ForkliftPrefix(forkliftID uuid.UUID) string {
	return fmt.Sprintf("forklifts/%s/", forkliftID)
}

// DocumentKey names a stored forklift document.
func DocumentKey(forkliftID, documentID uuid.UUID, intervalHours int, ext string) string {
	return fmt.Sprintf("%s%dh/%s%s", ForkliftPrefix(forkliftID), intervalHours, documentID, ext)
}

// ServiceSheetKey names a generated service sheet PDF.
func ServiceSheetKey(forkliftID uuid.UUID, lang string, stamp string) string {
	return fmt.Sprintf("%sservice-sheets/%s-%s.pdf", ForkliftPrefix(forkliftID), stamp, lang)
}

// FileName returns the last element of an object key.
func FileName(objectKey string) string {
	return path.Base(strings.TrimSuffix(objectKey, "/"))
}
