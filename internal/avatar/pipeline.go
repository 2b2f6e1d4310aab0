package avatar

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"
	_ "golang.org/x/image/webp"

	"eshop/internal/config"
	"eshop/internal/ids"
	"eshop/internal/media/sniffer"
	"eshop/internal/models"
)

var (
	ErrInvalidImage = errors.New("invalid image")
	ErrUploadFailed = errors.New("image upload failed")
)

var dataURIPrefix = regexp.MustCompile(`^data:image/\w+;base64,`)

type ObjectStore interface {
	PutObject(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	RemoveObject(ctx context.Context, key string) error
	PublicURL(key string) string
}

type Pipeline struct {
	store    ObjectStore
	folder   string
	maxWidth int
	log      zerolog.Logger
}

func NewPipeline(store ObjectStore, cfg config.AvatarConfig, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		store:    store,
		folder:   cfg.Folder,
		maxWidth: cfg.MaxWidth,
		log:      log,
	}
}

// Upload decodes a base64 data URI, shrinks it to the configured width and
// stores it. Every failure wraps ErrUploadFailed; unreadable input also wraps
// ErrInvalidImage.
func (p *Pipeline) Upload(ctx context.Context, dataURI string) (models.Avatar, error) {
	raw, err := DecodeDataURI(dataURI)
	if err != nil {
		return models.Avatar{}, fmt.Errorf("%w: %w: %w", ErrUploadFailed, ErrInvalidImage, err)
	}

	optimized, mime, ext, err := Optimize(raw, p.maxWidth)
	if err != nil {
		return models.Avatar{}, fmt.Errorf("%w: %w: %w", ErrUploadFailed, ErrInvalidImage, err)
	}

	key := path.Join(p.folder, ids.New()+"."+ext)
	if err := p.store.PutObject(ctx, key, bytes.NewReader(optimized), int64(len(optimized)), mime); err != nil {
		return models.Avatar{}, p.fail(err)
	}

	return models.Avatar{
		PublicID: key,
		URL:      p.store.PublicURL(key),
	}, nil
}

func (p *Pipeline) Remove(ctx context.Context, publicID string) error {
	if publicID == "" {
		return nil
	}
	return p.store.RemoveObject(ctx, publicID)
}

func (p *Pipeline) fail(err error) error {
	p.log.Error().Err(err).Msg("avatar upload failed")
	return fmt.Errorf("%w: %w", ErrUploadFailed, err)
}

func DecodeDataURI(dataURI string) ([]byte, error) {
	payload := dataURIPrefix.ReplaceAllString(strings.TrimSpace(dataURI), "")
	if payload == "" {
		return nil, errors.New("empty image payload")
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("decode base64: %w", err)
		}
	}
	return data, nil
}

// Optimize never upscales; images already narrower than maxWidth are only re-encoded.
func Optimize(raw []byte, maxWidth int) (data []byte, mime string, ext string, err error) {
	head := raw
	if len(head) > 512 {
		head = head[:512]
	}
	kind, err := sniffer.DetectHead(head)
	if err != nil {
		return nil, "", "", fmt.Errorf("detect type: %w", err)
	}

	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", "", fmt.Errorf("decode %s: %w", kind.Type, err)
	}

	if maxWidth > 0 && img.Bounds().Dx() > maxWidth {
		img = imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
	}

	format, mime, ext := imaging.JPEG, "image/jpeg", "jpg"
	if kind.Type == sniffer.TypePNG || kind.Type == sniffer.TypeGIF {
		format, mime, ext = imaging.PNG, "image/png", "png"
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format, imaging.JPEGQuality(82)); err != nil {
		return nil, "", "", fmt.Errorf("encode: %w", err)
	}

	return buf.Bytes(), mime, ext, nil
}
