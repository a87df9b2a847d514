// Package localstore is the reference filesystem-backed Dataset: one
// directory per dataset file, one subdirectory per group, holding a
// header.xml and either an acquisitions.bin or images.bin record stream.
package localstore

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ismrmrd-go/mrdstream/internal/dataset"
	"github.com/ismrmrd-go/mrdstream/internal/reccodec"
)

const (
	headerFile       = "header.xml"
	acquisitionsFile = "acquisitions.bin"
	imagesFile       = "images.bin"
)

// Store is a dataset.Dataset rooted at a directory on local disk.
type Store struct {
	root  string
	codec reccodec.Codec
}

var _ dataset.Dataset = (*Store)(nil)

// Open returns a Store rooted at root, creating the directory if it does
// not already exist.
func Open(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil && !os.IsExist(err) {
		return nil, fmt.Errorf("localstore: create root %s: %w", root, err)
	}
	return &Store{root: root, codec: reccodec.Reference{}}, nil
}

func (s *Store) groupDir(group string) string {
	return filepath.Join(s.root, group)
}

func (s *Store) Header(group string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.groupDir(group), headerFile))
	if errors.Is(err, os.ErrNotExist) {
		return "", &dataset.ErrGroupNotFound{Group: group}
	}
	if err != nil {
		return "", fmt.Errorf("localstore: read header for group %s: %w", group, err)
	}
	return string(data), nil
}

func (s *Store) Kind(group string) (dataset.Kind, error) {
	dir := s.groupDir(group)
	if _, err := os.Stat(filepath.Join(dir, acquisitionsFile)); err == nil {
		return dataset.KindRaw, nil
	}
	if _, err := os.Stat(filepath.Join(dir, imagesFile)); err == nil {
		return dataset.KindImage, nil
	}
	return dataset.KindUnknown, &dataset.ErrGroupNotFound{Group: group}
}

func (s *Store) Acquisitions(group string) ([]*reccodec.Acquisition, error) {
	f, err := os.Open(filepath.Join(s.groupDir(group), acquisitionsFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, &dataset.ErrGroupNotFound{Group: group}
	}
	if err != nil {
		return nil, fmt.Errorf("localstore: open acquisitions for group %s: %w", group, err)
	}
	defer f.Close()

	var out []*reccodec.Acquisition
	for {
		acq, err := s.codec.ReadAcquisition(f)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("localstore: read acquisition from group %s: %w", group, err)
		}
		out = append(out, acq)
	}
	return out, nil
}

func (s *Store) Images(group string) ([]*reccodec.Image, error) {
	f, err := os.Open(filepath.Join(s.groupDir(group), imagesFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, &dataset.ErrGroupNotFound{Group: group}
	}
	if err != nil {
		return nil, fmt.Errorf("localstore: open images for group %s: %w", group, err)
	}
	defer f.Close()

	var out []*reccodec.Image
	for {
		img, err := s.codec.ReadImage(f)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("localstore: read image from group %s: %w", group, err)
		}
		out = append(out, img)
	}
	return out, nil
}

func (s *Store) WriteImage(group string, img *reccodec.Image) error {
	dir := s.groupDir(group)
	if err := os.MkdirAll(dir, 0o755); err != nil && !os.IsExist(err) {
		return fmt.Errorf("localstore: create group %s: %w", group, err)
	}
	f, err := os.OpenFile(filepath.Join(dir, imagesFile), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("localstore: open images for append in group %s: %w", group, err)
	}
	defer f.Close()

	if err := s.codec.WriteImage(f, img); err != nil {
		return fmt.Errorf("localstore: write image to group %s: %w", group, err)
	}
	return nil
}

// WriteAcquisition appends an acquisition to group's raw data stream,
// creating the group directory if necessary. Used to build input datasets
// for the client driver (real datasets come from whatever tool produced
// the original MRD file; this package does not parse HDF5).
func (s *Store) WriteAcquisition(group string, acq *reccodec.Acquisition) error {
	dir := s.groupDir(group)
	if err := os.MkdirAll(dir, 0o755); err != nil && !os.IsExist(err) {
		return fmt.Errorf("localstore: create group %s: %w", group, err)
	}
	f, err := os.OpenFile(filepath.Join(dir, acquisitionsFile), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("localstore: open acquisitions for append in group %s: %w", group, err)
	}
	defer f.Close()

	if err := s.codec.WriteAcquisition(f, acq); err != nil {
		return fmt.Errorf("localstore: write acquisition to group %s: %w", group, err)
	}
	return nil
}

// WriteHeader writes group's XML metadata header, creating the group
// directory if necessary. Used by the client driver to copy the input
// group's header into the output group before any image comes back.
func (s *Store) WriteHeader(group, xml string) error {
	dir := s.groupDir(group)
	if err := os.MkdirAll(dir, 0o755); err != nil && !os.IsExist(err) {
		return fmt.Errorf("localstore: create group %s: %w", group, err)
	}
	if err := os.WriteFile(filepath.Join(dir, headerFile), []byte(xml), 0o644); err != nil {
		return fmt.Errorf("localstore: write header for group %s: %w", group, err)
	}
	return nil
}

// Groups lists the group names present under root, in directory order.
// Not part of the dataset.Dataset interface; callers that want to list a
// store's contents type-assert for it, mirroring the optional headerWriter
// capability.
func (s *Store) Groups() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("localstore: read root %s: %w", s.root, err)
	}
	var groups []string
	for _, e := range entries {
		if e.IsDir() {
			groups = append(groups, e.Name())
		}
	}
	return groups, nil
}

func (s *Store) Close() error { return nil }
