package imageio

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/kochabx/geostego/errors"
)

func sample() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for i := range img.Pix {
		img.Pix[i] = byte(i * 7)
	}
	// 不透明，BMP 不保存 alpha
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xFF
	}
	return img
}

func assertSamePixels(t *testing.T, want *image.NRGBA, got image.Image) {
	t.Helper()
	require.Equal(t, want.Bounds().Size(), got.Bounds().Size())
	for y := 0; y < want.Bounds().Dy(); y++ {
		for x := 0; x < want.Bounds().Dx(); x++ {
			c := color.NRGBAModel.Convert(got.At(got.Bounds().Min.X+x, got.Bounds().Min.Y+y)).(color.NRGBA)
			assert.Equal(t, want.NRGBAAt(x, y), c)
		}
	}
}

func TestDecodeLossless(t *testing.T) {
	img := sample()

	var pngBuf, bmpBuf, tiffBuf bytes.Buffer
	require.NoError(t, EncodePNG(&pngBuf, img))
	require.NoError(t, bmp.Encode(&bmpBuf, img))
	require.NoError(t, tiff.Encode(&tiffBuf, img, nil))

	tests := []struct {
		name   string
		data   []byte
		format Format
	}{
		{"png", pngBuf.Bytes(), PNG},
		{"bmp", bmpBuf.Bytes(), BMP},
		{"tiff", tiffBuf.Bytes(), TIFF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, format, err := DecodeBytes(tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.format, format)
			assertSamePixels(t, img, got)
		})
	}
}

func TestDecodeRejectsLossy(t *testing.T) {
	img := sample()

	var jpegBuf, gifBuf bytes.Buffer
	require.NoError(t, jpeg.Encode(&jpegBuf, img, nil))
	require.NoError(t, gif.Encode(&gifBuf, img, nil))
	webp := append([]byte("RIFF\x00\x00\x00\x00WEBP"), make([]byte, 16)...)

	tests := []struct {
		name   string
		data   []byte
		format Format
	}{
		{"jpeg", jpegBuf.Bytes(), JPEG},
		{"gif", gifBuf.Bytes(), GIF},
		{"webp", webp, WebP},
		{"garbage", []byte("not an image"), Unknown},
		{"empty", nil, Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, format, err := DecodeBytes(tt.data)
			require.Error(t, err)
			assert.Equal(t, tt.format, format)
			assert.True(t, errors.Is(err, ErrUnsupportedImage))
		})
	}
}

func TestDecodeTruncatedPNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodePNG(&buf, sample()))

	_, _, err := DecodeBytes(buf.Bytes()[:20])
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedImage))
}

func TestWriteTemp(t *testing.T) {
	dir := t.TempDir()
	img := sample()

	path, cleanup, err := WriteTemp(dir, img)
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	got, format, err := Decode(f)
	f.Close()
	require.NoError(t, err)
	assert.Equal(t, PNG, format)
	assertSamePixels(t, img, got)

	cleanup()
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestWriteTempMissingDir(t *testing.T) {
	_, cleanup, err := WriteTemp("/nonexistent/geostego", sample())
	assert.Error(t, err)
	assert.Nil(t, cleanup)
}

func TestDecodeCarrier(t *testing.T) {
	img := sample()

	var jpegBuf, gifBuf, pngBuf bytes.Buffer
	require.NoError(t, jpeg.Encode(&jpegBuf, img, nil))
	require.NoError(t, gif.Encode(&gifBuf, img, nil))
	require.NoError(t, EncodePNG(&pngBuf, img))

	tests := []struct {
		name   string
		data   []byte
		format Format
	}{
		{"jpeg", jpegBuf.Bytes(), JPEG},
		{"gif", gifBuf.Bytes(), GIF},
		{"png", pngBuf.Bytes(), PNG},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, format, err := DecodeCarrier(bytes.NewReader(tt.data))
			require.NoError(t, err)
			assert.Equal(t, tt.format, format)
			assert.Equal(t, img.Bounds().Size(), got.Bounds().Size())
		})
	}

	_, format, err := DecodeCarrier(bytes.NewReader(append([]byte("RIFF\x00\x00\x00\x00WEBP"), make([]byte, 16)...)))
	assert.Equal(t, WebP, format)
	assert.True(t, errors.Is(err, ErrUnsupportedImage))

	_, _, err = DecodeCarrier(bytes.NewReader([]byte("nope")))
	assert.True(t, errors.Is(err, ErrUnsupportedImage))
}
