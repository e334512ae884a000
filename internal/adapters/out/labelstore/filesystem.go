// Package labelstore persists shipping label documents on the local
// filesystem, keyed by carrier shipment id.
package labelstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"fulfillment/internal/pkg/errs"
)

// FilesystemStore writes one label file plus a small metadata sidecar per
// shipment under a base directory. Writes go through a temp file and rename,
// so a crash mid-write never leaves a truncated label behind.
type FilesystemStore struct {
	dir string
}

// labelMeta is the sidecar document holding what the bytes cannot.
type labelMeta struct {
	ContentType string `json:"content_type"`
}

// NewFilesystemStore creates a store rooted at dir, creating it if needed.
func NewFilesystemStore(dir string) (*FilesystemStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create label dir: %w", err)
	}
	return &FilesystemStore{dir: dir}, nil
}

// Store saves the label bytes for a shipment. Overwrites are allowed; a
// retried booking job writes the same label again.
func (s *FilesystemStore) Store(_ context.Context, shipmentID string, data []byte, contentType string) error {
	base, err := s.path(shipmentID)
	if err != nil {
		return err
	}

	meta, err := json.Marshal(labelMeta{ContentType: contentType})
	if err != nil {
		return err
	}

	if err = writeAtomic(base+".meta", meta); err != nil {
		return err
	}
	return writeAtomic(base+".label", data)
}

// Retrieve returns the label bytes and content type for a shipment.
func (s *FilesystemStore) Retrieve(_ context.Context, shipmentID string) ([]byte, string, error) {
	base, err := s.path(shipmentID)
	if err != nil {
		return nil, "", err
	}

	data, err := os.ReadFile(base + ".label")
	if errors.Is(err, fs.ErrNotExist) {
		return nil, "", errs.NewObjectNotFoundError("label", shipmentID)
	}
	if err != nil {
		return nil, "", err
	}

	rawMeta, err := os.ReadFile(base + ".meta")
	if err != nil {
		return nil, "", err
	}

	var meta labelMeta
	if err = json.Unmarshal(rawMeta, &meta); err != nil {
		return nil, "", err
	}

	return data, meta.ContentType, nil
}

// path validates the shipment id cannot escape the base directory.
func (s *FilesystemStore) path(shipmentID string) (string, error) {
	if shipmentID == "" || strings.ContainsAny(shipmentID, `/\`) || strings.Contains(shipmentID, "..") {
		return "", errs.NewValueIsInvalidError("shipmentID")
	}
	return filepath.Join(s.dir, shipmentID), nil
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
