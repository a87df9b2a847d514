// Package dataset defines the on-disk MRD dataset collaborator the client
// driver reads acquisitions/images from and writes received images to,
// with local filesystem and S3 reference implementations.
package dataset

import (
	"fmt"

	"github.com/ismrmrd-go/mrdstream/internal/reccodec"
)

// Kind distinguishes a raw (k-space) group from an already-reconstructed
// image group, determined by which records a group actually holds.
type Kind int

const (
	KindUnknown Kind = iota
	KindRaw
	KindImage
)

func (k Kind) String() string {
	switch k {
	case KindRaw:
		return "raw"
	case KindImage:
		return "image"
	default:
		return "unknown"
	}
}

// Dataset is the client's dataset collaborator: an on-disk MRD file store
// abstracted behind group-scoped read/write operations. The core client
// driver only needs an iterator of acquisitions/images and an opaque sink
// for received images.
type Dataset interface {
	// Header returns the group's XML metadata header.
	Header(group string) (string, error)

	// Kind reports whether group holds raw acquisitions or images, by
	// checking which of the group's record streams is present.
	Kind(group string) (Kind, error)

	// Acquisitions returns every acquisition in group, in storage order.
	Acquisitions(group string) ([]*reccodec.Acquisition, error)

	// Images returns every image in group, in storage order.
	Images(group string) ([]*reccodec.Image, error)

	// WriteImage appends a received image to group, creating it if
	// necessary.
	WriteImage(group string, img *reccodec.Image) error

	Close() error
}

// ErrGroupNotFound is returned by Header/Kind/Acquisitions/Images when the
// requested group does not exist in the dataset.
type ErrGroupNotFound struct {
	Group string
}

func (e *ErrGroupNotFound) Error() string {
	return fmt.Sprintf("dataset: group %q not found", e.Group)
}
