package video

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// MIMEType of the produced container.
const MIMEType = "video/mp4"

// Consume reads an encoded artifact into memory and deletes it, along with
// the directory Encode generated for it.
func Consume(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading video: %w", err)
	}
	if err := os.Remove(path); err != nil {
		return nil, fmt.Errorf("removing video: %w", err)
	}
	removeGeneratedDir(path)
	return data, nil
}

// DataURI embeds data as a base64 data URI suitable for a download link.
func DataURI(data []byte) string {
	return "data:" + MIMEType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// ReadAsDataURI consumes the artifact at path and returns it as a data URI.
func ReadAsDataURI(path string) (string, error) {
	data, err := Consume(path)
	if err != nil {
		return "", err
	}
	return DataURI(data), nil
}

func removeGeneratedDir(path string) {
	dir := filepath.Dir(path)
	if strings.HasPrefix(filepath.Base(dir), generatedDirPrefix) {
		os.Remove(dir)
	}
}
