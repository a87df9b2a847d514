// Package s3store is an S3-backed Dataset, using a path-based key design:
// one object per group file under a bucket/prefix, read and written whole
// (no multipart, no byte-range access — dataset files are small enough for
// this to be adequate).
package s3store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ismrmrd-go/mrdstream/internal/dataset"
	"github.com/ismrmrd-go/mrdstream/internal/reccodec"
)

const (
	headerFile       = "header.xml"
	acquisitionsFile = "acquisitions.bin"
	imagesFile       = "images.bin"
)

// Store is a dataset.Dataset backed by an S3 (or S3-compatible) bucket.
type Store struct {
	client    *s3.Client
	bucket    string
	keyPrefix string
	codec     reccodec.Codec
}

var _ dataset.Dataset = (*Store)(nil)

// Open returns a Store writing objects under bucket, optionally scoped to
// keyPrefix (e.g. one prefix per dataset file).
func Open(client *s3.Client, bucket, keyPrefix string) *Store {
	return &Store{client: client, bucket: bucket, keyPrefix: keyPrefix, codec: reccodec.Reference{}}
}

func (s *Store) key(group, file string) string {
	if s.keyPrefix == "" {
		return path.Join(group, file)
	}
	return path.Join(s.keyPrefix, group, file)
}

func (s *Store) getObject(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)})
	if err != nil {
		var notFound *s3.NoSuchKey
		var respErr *smithyhttp.ResponseError
		if errors.As(err, &notFound) || (errors.As(err, &respErr) && respErr.HTTPStatusCode() == 404) {
			return nil, nil
		}
		return nil, err
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

func (s *Store) putObject(ctx context.Context, key string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	return err
}

func (s *Store) Header(group string) (string, error) {
	data, err := s.getObject(context.Background(), s.key(group, headerFile))
	if err != nil {
		return "", fmt.Errorf("s3store: get header for group %s: %w", group, err)
	}
	if data == nil {
		return "", &dataset.ErrGroupNotFound{Group: group}
	}
	return string(data), nil
}

func (s *Store) Kind(group string) (dataset.Kind, error) {
	ctx := context.Background()
	if data, err := s.getObject(ctx, s.key(group, acquisitionsFile)); err != nil {
		return dataset.KindUnknown, fmt.Errorf("s3store: probe acquisitions for group %s: %w", group, err)
	} else if data != nil {
		return dataset.KindRaw, nil
	}
	if data, err := s.getObject(ctx, s.key(group, imagesFile)); err != nil {
		return dataset.KindUnknown, fmt.Errorf("s3store: probe images for group %s: %w", group, err)
	} else if data != nil {
		return dataset.KindImage, nil
	}
	return dataset.KindUnknown, &dataset.ErrGroupNotFound{Group: group}
}

func (s *Store) Acquisitions(group string) ([]*reccodec.Acquisition, error) {
	data, err := s.getObject(context.Background(), s.key(group, acquisitionsFile))
	if err != nil {
		return nil, fmt.Errorf("s3store: get acquisitions for group %s: %w", group, err)
	}
	if data == nil {
		return nil, &dataset.ErrGroupNotFound{Group: group}
	}
	return decodeAcquisitions(s.codec, data)
}

func (s *Store) Images(group string) ([]*reccodec.Image, error) {
	data, err := s.getObject(context.Background(), s.key(group, imagesFile))
	if err != nil {
		return nil, fmt.Errorf("s3store: get images for group %s: %w", group, err)
	}
	if data == nil {
		return nil, &dataset.ErrGroupNotFound{Group: group}
	}
	return decodeImages(s.codec, data)
}

// WriteImage downloads the current images object (if any), appends img,
// and re-uploads the whole object. The download-modify-reupload tradeoff
// is acceptable here because dataset files are small and writes happen
// once per received image, not in a hot byte-range-write path.
func (s *Store) WriteImage(group string, img *reccodec.Image) error {
	ctx := context.Background()
	key := s.key(group, imagesFile)

	existing, err := s.getObject(ctx, key)
	if err != nil {
		return fmt.Errorf("s3store: get existing images for group %s: %w", group, err)
	}

	var buf bytes.Buffer
	buf.Write(existing)
	if err := s.codec.WriteImage(&buf, img); err != nil {
		return fmt.Errorf("s3store: encode image for group %s: %w", group, err)
	}

	if err := s.putObject(ctx, key, buf.Bytes()); err != nil {
		return fmt.Errorf("s3store: put images for group %s: %w", group, err)
	}
	return nil
}

// WriteHeader uploads group's XML metadata header.
func (s *Store) WriteHeader(group, xml string) error {
	if err := s.putObject(context.Background(), s.key(group, headerFile), []byte(xml)); err != nil {
		return fmt.Errorf("s3store: put header for group %s: %w", group, err)
	}
	return nil
}

// Groups lists the group names present under the bucket/prefix by walking
// the common prefixes one level below keyPrefix, listing by delimiter
// instead of downloading objects.
func (s *Store) Groups() ([]string, error) {
	ctx := context.Background()
	listPrefix := s.keyPrefix
	if listPrefix != "" && listPrefix[len(listPrefix)-1] != '/' {
		listPrefix += "/"
	}

	var groups []string
	var token *string
	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(listPrefix),
			Delimiter:         aws.String("/"),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("s3store: list groups under %s: %w", listPrefix, err)
		}
		for _, p := range out.CommonPrefixes {
			name := strings.TrimPrefix(aws.ToString(p.Prefix), listPrefix)
			groups = append(groups, strings.TrimSuffix(name, "/"))
		}
		if !aws.ToBool(out.IsTruncated) {
			break
		}
		token = out.NextContinuationToken
	}
	return groups, nil
}

func (s *Store) Close() error { return nil }

func decodeAcquisitions(codec reccodec.Codec, data []byte) ([]*reccodec.Acquisition, error) {
	r := bytes.NewReader(data)
	var out []*reccodec.Acquisition
	for {
		acq, err := codec.ReadAcquisition(r)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		out = append(out, acq)
	}
	return out, nil
}

func decodeImages(codec reccodec.Codec, data []byte) ([]*reccodec.Image, error) {
	r := bytes.NewReader(data)
	var out []*reccodec.Image
	for {
		img, err := codec.ReadImage(r)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		out = append(out, img)
	}
	return out, nil
}
