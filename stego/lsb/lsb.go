// Package lsb 在图像 R、G、B 通道的最低有效位中嵌入与提取字节流。
//
// 像素按行优先遍历，每个像素依次使用 R、G、B 三个通道，alpha 通道不参与；
// 每个字节按最高位优先写入。
package lsb

import (
	"bytes"
	"image"
	"image/draw"
	"strconv"

	"github.com/kochabx/geostego/errors"
)

// ChannelsPerPixel 每个像素可用的通道数
const ChannelsPerPixel = 3

var (
	// ErrCapacityExceeded 载体容量不足
	ErrCapacityExceeded = errors.RequestEntityTooLarge("capacity exceeded")
	// ErrSentinelNotFound 完整遍历后仍未找到结束标记
	ErrSentinelNotFound = errors.UnprocessableEntity("malformed payload")
)

// Capacity 返回载体可容纳的比特数
func Capacity(img image.Image) int {
	b := img.Bounds()
	return b.Dx() * b.Dy() * ChannelsPerPixel
}

// Embed 将 stream 写入载体副本并返回，载体本身不会被修改。
// 容量不足时直接返回 ErrCapacityExceeded。
func Embed(img image.Image, stream []byte) (*image.NRGBA, error) {
	capacity := Capacity(img)
	need := len(stream) * 8
	if need > capacity {
		return nil, ErrCapacityExceeded.WithMetadata(map[string]string{
			"capacity_bits": strconv.Itoa(capacity),
			"required_bits": strconv.Itoa(need),
		})
	}

	out := toNRGBA(img)
	w := out.Bounds().Dx()

	bit := 0
	for _, v := range stream {
		for shift := 7; shift >= 0; shift-- {
			off := channelOffset(out, w, bit)
			out.Pix[off] = out.Pix[off]&^1 | (v>>uint(shift))&1
			bit++
		}
	}
	return out, nil
}

// Extract 按嵌入顺序读取最低有效位，每组装完一个字节就检查是否以 sentinel 结尾。
// 返回包含 sentinel 在内的字节流；零字节会被保留，末尾不足 8 位的部分丢弃。
func Extract(img image.Image, sentinel []byte) ([]byte, error) {
	if len(sentinel) == 0 {
		return nil, errors.Internal("empty sentinel")
	}

	src, ok := img.(*image.NRGBA)
	if !ok || src.Rect.Min != (image.Point{}) {
		src = toNRGBA(img)
	}
	w := src.Bounds().Dx()
	total := Capacity(src)

	out := make([]byte, 0, 256)
	var cur byte
	for bit := 0; bit < total; bit++ {
		cur = cur<<1 | src.Pix[channelOffset(src, w, bit)]&1
		if bit%8 != 7 {
			continue
		}
		out = append(out, cur)
		cur = 0
		if bytes.HasSuffix(out, sentinel) {
			return out, nil
		}
	}

	return nil, ErrSentinelNotFound.WithMetadata(map[string]string{"reason": "sentinel not found"})
}

// channelOffset 第 bit 个比特对应的 Pix 下标
func channelOffset(img *image.NRGBA, width, bit int) int {
	pixel := bit / ChannelsPerPixel
	x, y := pixel%width, pixel/width
	return y*img.Stride + x*4 + bit%ChannelsPerPixel
}

// toNRGBA 复制为原点在 (0,0) 的 NRGBA，保留 alpha。
// NRGBA 源逐行拷贝 Pix，避免经由预乘 alpha 转换改写半透明像素的低位。
func toNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))

	if src, ok := img.(*image.NRGBA); ok {
		rowLen := b.Dx() * 4
		for y := 0; y < b.Dy(); y++ {
			i := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(out.Pix[y*out.Stride:y*out.Stride+rowLen], src.Pix[i:i+rowLen])
		}
		return out
	}

	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}
