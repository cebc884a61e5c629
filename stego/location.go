package stego

import (
	"github.com/kochabx/geostego/stego/aead"
	"github.com/kochabx/geostego/stego/geokey"
)

// checkLocation 解密嵌入的经纬度，与调用方声明的坐标在相同截断精度下比较。
// 到达这里时密钥已匹配，因此不一致只可能来自被单独重新封装的坐标字段。
func checkLocation(c aead.Cipher, key []byte, f aead.LocationField, lat, lon float64) error {
	embeddedLat, embeddedLon, err := aead.OpenLocation(c, key, f)
	if err != nil {
		return err
	}

	same, err := sameCell(embeddedLat, lat, geokey.QuantizeLatitude)
	if err != nil || !same {
		return ErrLocationMismatch.WithCause(err)
	}
	same, err = sameCell(embeddedLon, lon, geokey.QuantizeLongitude)
	if err != nil || !same {
		return ErrLocationMismatch.WithCause(err)
	}
	return nil
}

func sameCell(embedded string, claimed float64, quantize func(float64) (string, error)) (bool, error) {
	v, err := geokey.ParseCoordinate(embedded)
	if err != nil {
		return false, err
	}
	a, err := quantize(v)
	if err != nil {
		return false, err
	}
	b, err := quantize(claimed)
	if err != nil {
		return false, err
	}
	return a == b, nil
}
