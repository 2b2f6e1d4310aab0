package avatar

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eshop/internal/config"
)

type fakeStore struct {
	objects map[string][]byte
	types   map[string]string
	removed []string
	putErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeStore) PutObject(_ context.Context, key string, r io.Reader, _ int64, contentType string) error {
	if f.putErr != nil {
		return f.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.objects[key] = data
	f.types[key] = contentType
	return nil
}

func (f *fakeStore) RemoveObject(_ context.Context, key string) error {
	f.removed = append(f.removed, key)
	delete(f.objects, key)
	return nil
}

func (f *fakeStore) PublicURL(key string) string {
	return "https://cdn.test/" + key
}

func newPipeline(store ObjectStore) *Pipeline {
	return NewPipeline(store, config.AvatarConfig{Folder: "avatars", MaxWidth: 500}, zerolog.Nop())
}

func pngDataURI(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestUploadShrinksWideImage(t *testing.T) {
	store := newFakeStore()
	p := newPipeline(store)

	got, err := p.Upload(context.Background(), pngDataURI(t, 1000, 400))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(got.PublicID, "avatars/"))
	assert.True(t, strings.HasSuffix(got.PublicID, ".png"))
	assert.Equal(t, "https://cdn.test/"+got.PublicID, got.URL)
	assert.Equal(t, "image/png", store.types[got.PublicID])

	cfg, _, err := image.DecodeConfig(bytes.NewReader(store.objects[got.PublicID]))
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.Width)
	assert.Equal(t, 200, cfg.Height)
}

func TestUploadKeepsNarrowImage(t *testing.T) {
	store := newFakeStore()
	p := newPipeline(store)

	got, err := p.Upload(context.Background(), pngDataURI(t, 120, 60))
	require.NoError(t, err)

	cfg, _, err := image.DecodeConfig(bytes.NewReader(store.objects[got.PublicID]))
	require.NoError(t, err)
	assert.Equal(t, 120, cfg.Width)
	assert.Equal(t, 60, cfg.Height)
}

func TestUploadJPEGStaysJPEG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 40, 40)), nil))
	uri := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())

	store := newFakeStore()
	got, err := newPipeline(store).Upload(context.Background(), uri)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(got.PublicID, ".jpg"))
	assert.Equal(t, "image/jpeg", store.types[got.PublicID])
}

func TestUploadRejectsInvalidImages(t *testing.T) {
	cases := map[string]string{
		"empty":       "",
		"bad base64":  "data:image/png;base64,@@@@",
		"not image":   "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("hello")),
		"prefix only": "data:image/png;base64,",
	}

	for name, uri := range cases {
		t.Run(name, func(t *testing.T) {
			store := newFakeStore()
			_, err := newPipeline(store).Upload(context.Background(), uri)
			assert.ErrorIs(t, err, ErrUploadFailed)
			assert.ErrorIs(t, err, ErrInvalidImage)
			assert.Empty(t, store.objects)
		})
	}
}

func TestUploadStoreFailure(t *testing.T) {
	store := newFakeStore()
	store.putErr = errors.New("bucket gone")

	_, err := newPipeline(store).Upload(context.Background(), pngDataURI(t, 10, 10))
	assert.ErrorIs(t, err, ErrUploadFailed)
	assert.Equal(t, "image upload failed: bucket gone", err.Error())
}

func TestRemoveSkipsEmptyID(t *testing.T) {
	store := newFakeStore()
	p := newPipeline(store)

	require.NoError(t, p.Remove(context.Background(), ""))
	assert.Empty(t, store.removed)

	require.NoError(t, p.Remove(context.Background(), "avatars/x.png"))
	assert.Equal(t, []string{"avatars/x.png"}, store.removed)
}

func TestDecodeDataURIAcceptsBarePayload(t *testing.T) {
	data, err := DecodeDataURI(base64.StdEncoding.EncodeToString([]byte("abc")))
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), data)
}
