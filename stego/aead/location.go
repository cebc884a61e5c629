package aead

// LocationField 经纬度密文。两段密文共享同一个 nonce 与标签：
// 明文 lat||lon 只做一次加密，密文在 len(lat) 处切分，不存在 nonce 复用。
type LocationField struct {
	Nonce     []byte
	Tag       []byte
	Latitude  []byte
	Longitude []byte
}

// SealLocation 加密经纬度文本
func SealLocation(c Cipher, key []byte, lat, lon string) (LocationField, error) {
	plaintext := make([]byte, 0, len(lat)+len(lon))
	plaintext = append(plaintext, lat...)
	plaintext = append(plaintext, lon...)

	f, err := c.Seal(key, plaintext)
	if err != nil {
		return LocationField{}, err
	}

	return LocationField{
		Nonce:     f.Nonce,
		Tag:       f.Tag,
		Latitude:  f.Ciphertext[:len(lat)],
		Longitude: f.Ciphertext[len(lat):],
	}, nil
}

// OpenLocation 校验并解密经纬度文本
func OpenLocation(c Cipher, key []byte, f LocationField) (lat, lon string, err error) {
	ciphertext := make([]byte, 0, len(f.Latitude)+len(f.Longitude))
	ciphertext = append(ciphertext, f.Latitude...)
	ciphertext = append(ciphertext, f.Longitude...)

	plaintext, err := c.Open(key, Field{Nonce: f.Nonce, Tag: f.Tag, Ciphertext: ciphertext})
	if err != nil {
		return "", "", err
	}

	split := len(f.Latitude)
	return string(plaintext[:split]), string(plaintext[split:]), nil
}
