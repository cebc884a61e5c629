// Package imageio 读写可安全承载 LSB 数据的无损图像。
package imageio

import (
	"bufio"
	"bytes"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"

	"github.com/kochabx/geostego/errors"
)

// Format 图像格式
type Format string

const (
	PNG     Format = "png"
	BMP     Format = "bmp"
	TIFF    Format = "tiff"
	JPEG    Format = "jpeg"
	GIF     Format = "gif"
	WebP    Format = "webp"
	Unknown Format = ""
)

// Lossless 报告格式能否无损保存每个通道的最低位
func (f Format) Lossless() bool {
	switch f {
	case PNG, BMP, TIFF:
		return true
	default:
		return false
	}
}

// ErrUnsupportedImage 图像格式不受支持或无法解码
var ErrUnsupportedImage = errors.UnsupportedMediaType("unsupported image")

var magics = []struct {
	format Format
	prefix []byte
}{
	{PNG, []byte("\x89PNG\r\n\x1a\n")},
	{BMP, []byte("BM")},
	{TIFF, []byte("II*\x00")},
	{TIFF, []byte("MM\x00*")},
	{JPEG, []byte("\xff\xd8\xff")},
	{GIF, []byte("GIF8")},
}

// Sniff 根据文件头识别格式
func Sniff(header []byte) Format {
	for _, m := range magics {
		if bytes.HasPrefix(header, m.prefix) {
			return m.format
		}
	}
	if len(header) >= 12 && bytes.Equal(header[:4], []byte("RIFF")) && bytes.Equal(header[8:12], []byte("WEBP")) {
		return WebP
	}
	return Unknown
}

// Decode 解码 PNG、BMP 或 TIFF。有损或调色板格式（JPEG、WebP、GIF）返回 ErrUnsupportedImage。
func Decode(r io.Reader) (image.Image, Format, error) {
	br := bufio.NewReader(r)
	header, _ := br.Peek(12)

	format := Sniff(header)
	if !format.Lossless() {
		return nil, format, ErrUnsupportedImage.WithMetadata(map[string]string{"format": string(format)})
	}

	var (
		img image.Image
		err error
	)
	switch format {
	case PNG:
		img, err = png.Decode(br)
	case BMP:
		img, err = bmp.Decode(br)
	case TIFF:
		img, err = tiff.Decode(br)
	}
	if err != nil {
		return nil, format, ErrUnsupportedImage.WithMetadata(map[string]string{"format": string(format)}).WithCause(err)
	}
	return img, format, nil
}

// DecodeCarrier 解码编码端的载体图像。输出总是重新写成 PNG，
// 因此额外接受 JPEG、GIF 与 WebP。
func DecodeCarrier(r io.Reader) (image.Image, Format, error) {
	br := bufio.NewReader(r)
	header, _ := br.Peek(12)

	format := Sniff(header)
	var (
		img image.Image
		err error
	)
	switch format {
	case JPEG:
		img, err = jpeg.Decode(br)
	case GIF:
		img, err = gif.Decode(br)
	case WebP:
		img, err = webp.Decode(br)
	default:
		return Decode(br)
	}
	if err != nil {
		return nil, format, ErrUnsupportedImage.WithMetadata(map[string]string{"format": string(format)}).WithCause(err)
	}
	return img, format, nil
}

// DecodeBytes 解码内存中的图像
func DecodeBytes(data []byte) (image.Image, Format, error) {
	return Decode(bytes.NewReader(data))
}

// EncodePNG 以 PNG 无损写出
func EncodePNG(w io.Writer, img image.Image) error {
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	return enc.Encode(w, img)
}

// WriteTemp 将图像写入 dir 下的临时 PNG 文件。
// cleanup 删除该文件，调用方应在所有退出路径上调用；写入失败时文件已被删除。
func WriteTemp(dir string, img image.Image) (path string, cleanup func(), err error) {
	f, err := os.CreateTemp(dir, "geostego-*.png")
	if err != nil {
		return "", nil, err
	}
	path = f.Name()
	cleanup = func() { _ = os.Remove(path) }

	w := bufio.NewWriter(f)
	if err = EncodePNG(w, img); err == nil {
		err = w.Flush()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		cleanup()
		return "", nil, err
	}
	return path, cleanup, nil
}
