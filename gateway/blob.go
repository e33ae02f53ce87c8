package gateway

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/eringen/folio/content"
	"go.uber.org/zap"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	maxImageWidth = 1200
	jpegQuality   = 82
	maxBlobSize   = 10 << 20 // 10MB
	// UploadsPrefix is the URL path the bucket root is served under.
	UploadsPrefix = "/uploads"
)

var (
	errBadPath  = errors.New("invalid blob path")
	errTooLarge = errors.New("blob exceeds 10MB")
)

// Bucket stores uploaded images on the local filesystem, one directory per
// bucket, and hands back URLs under UploadsPrefix.
type Bucket struct {
	root    string
	baseURL string
	logger  *zap.Logger
}

// NewBucket returns a bucket store rooted at dir whose public URLs start with
// baseURL.
func NewBucket(dir, baseURL string, logger *zap.Logger) *Bucket {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bucket{root: dir, baseURL: strings.TrimRight(baseURL, "/"), logger: logger}
}

// Dir returns the directory the bucket root is stored in.
func (b *Bucket) Dir() string {
	return b.root
}

// UploadBlob decodes data as an image, downscales it to maxImageWidth, and
// writes it as JPEG at bucket/path. The stored path keeps the directory and
// base name of path with a .jpg extension.
func (b *Bucket) UploadBlob(ctx context.Context, bucket, p string, data []byte) (string, error) {
	b.logger.Debug("upload blob", zap.String("bucket", bucket), zap.String("path", p), zap.Int("size", len(data)))

	clean, err := cleanBlobPath(bucket, p)
	if err != nil {
		return "", b.fail(bucket, p, err)
	}
	if len(data) > maxBlobSize {
		return "", b.fail(bucket, p, errTooLarge)
	}
	if err := ctx.Err(); err != nil {
		return "", b.fail(bucket, p, err)
	}

	encoded, err := processImage(bytes.NewReader(data))
	if err != nil {
		return "", b.fail(bucket, p, err)
	}
	clean = strings.TrimSuffix(clean, path.Ext(clean)) + ".jpg"

	dst := filepath.Join(b.root, bucket, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", b.fail(bucket, p, fmt.Errorf("create bucket dir: %w", err))
	}
	if err := os.WriteFile(dst, encoded, 0o644); err != nil {
		return "", b.fail(bucket, p, fmt.Errorf("write blob: %w", err))
	}

	u, err := b.publicURL(bucket, clean)
	if err != nil {
		return "", b.fail(bucket, p, err)
	}
	b.logger.Info("blob stored", zap.String("bucket", bucket), zap.String("path", clean), zap.Int("bytes", len(encoded)))
	return u, nil
}

func (b *Bucket) publicURL(bucket, clean string) (string, error) {
	rel := path.Join(UploadsPrefix, bucket, clean)
	if b.baseURL == "" {
		return rel, nil
	}
	return url.JoinPath(b.baseURL, rel)
}

func (b *Bucket) fail(bucket, p string, err error) error {
	b.logger.Warn("blob upload failed",
		zap.String("bucket", bucket),
		zap.String("path", p),
		zap.Error(err))
	return &content.UploadError{Bucket: bucket, Path: p, Err: err}
}

// cleanBlobPath rejects bucket names and paths that would escape the bucket
// directory and returns the slash-separated cleaned path.
func cleanBlobPath(bucket, p string) (string, error) {
	if bucket == "" || strings.ContainsAny(bucket, `/\`) || bucket == "." || bucket == ".." {
		return "", errBadPath
	}
	if p == "" || strings.Contains(p, `\`) || path.IsAbs(p) {
		return "", errBadPath
	}
	clean := path.Clean(p)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", errBadPath
	}
	return clean, nil
}

// processImage decodes an image, resizes it to at most maxImageWidth wide
// keeping the aspect ratio, and encodes it as JPEG.
func processImage(src *bytes.Reader) ([]byte, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > maxImageWidth {
		newH := h * maxImageWidth / w
		if newH < 1 {
			newH = 1
		}
		dst := image.NewRGBA(image.Rect(0, 0, maxImageWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
