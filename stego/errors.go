package stego

import (
	"github.com/kochabx/geostego/errors"
	"github.com/kochabx/geostego/stego/aead"
	"github.com/kochabx/geostego/stego/geokey"
	"github.com/kochabx/geostego/stego/imageio"
	"github.com/kochabx/geostego/stego/lsb"
	"github.com/kochabx/geostego/stego/payload"
)

// Engine 及外部协作方返回的错误。均为 *errors.Error，可用 errors.Is 比较；
// Code 与 HTTP 状态码一致。
var (
	ErrInvalidCoordinate = geokey.ErrInvalidCoordinate
	ErrInvalidWindow     = errors.BadRequest("invalid window")
	ErrCapacityExceeded  = lsb.ErrCapacityExceeded
	ErrAuthentication    = aead.ErrAuthentication
	ErrMalformedPayload  = payload.ErrMalformedPayload
	ErrSessionExpired    = errors.Forbidden("session expired")
	ErrLocationMismatch  = errors.Conflict("location mismatch")
	ErrDownload          = errors.BadGateway("download failed")
	ErrUnsupportedImage  = imageio.ErrUnsupportedImage
	ErrLocationNotFound  = errors.NotFound("location not found")
)

// Code 返回错误码，非 *errors.Error 视为 500
func Code(err error) int {
	return errors.Code(err)
}
