package utils

import (
	"fmt"
	"net/http"
)

// DetectImageContentType sniffs the first bytes of an upload and returns the
// content type when it is an accepted image format.
func DetectImageContentType(head []byte) (string, error) {
	contentType := http.DetectContentType(head)
	if !Contains(AllowedImageContentTypes, contentType) {
		return "", fmt.Errorf("unsupported image type %q", contentType)
	}
	return contentType, nil
}

func Contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
