package httpapi

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kochabx/geostego/service"
	"github.com/kochabx/geostego/stego/imageio"
	"github.com/kochabx/geostego/store/oss/minio"
)

const (
	testSession = "session-token"
	testLat     = 12.345678
	testLon     = -98.765432
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(t *testing.T, cfg RouterConfig, opts ...service.Option) *gin.Engine {
	t.Helper()
	images, err := service.NewTempImageStore(t.TempDir())
	require.NoError(t, err)

	svc, err := service.New(append([]service.Option{service.WithImageStore(images)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })

	return NewRouter(svc, cfg)
}

func carrierPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 100, 100))
	for i := range img.Pix {
		img.Pix[i] = byte(i * 7)
	}
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xFF
	}
	var buf bytes.Buffer
	require.NoError(t, imageio.EncodePNG(&buf, img))
	return buf.Bytes()
}

func multipartBody(t *testing.T, fields map[string]string, image []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if image != nil {
		fw, err := mw.CreateFormFile("image", "carrier.png")
		require.NoError(t, err)
		_, err = fw.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func postForm(t *testing.T, r http.Handler, path string, fields map[string]string, image []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, fields, image)
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func postJSON(r http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func storeLocation(t *testing.T, r http.Handler) {
	t.Helper()
	w := postJSON(r, PathStoreLocation, `{"session":"`+testSession+`","latitude":12.345678,"longitude":-98.765432}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func encryptFields() map[string]string {
	now := time.Now().Unix()
	return map[string]string{
		"session":         testSession,
		"keyword":         "sunrise",
		"device_id":       "device-42",
		"message":         "meet at dawn",
		"start_timestamp": strconv.FormatInt(now-60, 10),
		"end_timestamp":   strconv.FormatInt(now+600, 10),
	}
}

func decryptFields(keyword string) map[string]string {
	return map[string]string{
		"latitude":  strconv.FormatFloat(testLat, 'f', -1, 64),
		"longitude": strconv.FormatFloat(testLon, 'f', -1, 64),
		"keyword":   keyword,
		"device_id": "device-42",
	}
}

func TestIndex(t *testing.T) {
	r := newRouter(t, RouterConfig{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, PathIndex, nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"running"}`, w.Body.String())
}

func TestStoreLocationValidation(t *testing.T) {
	r := newRouter(t, RouterConfig{})

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"ok", `{"session":"s","latitude":0,"longitude":0}`, http.StatusOK},
		{"缺少会话", `{"latitude":1,"longitude":2}`, http.StatusBadRequest},
		{"缺少纬度", `{"session":"s","longitude":2}`, http.StatusBadRequest},
		{"纬度越界", `{"session":"s","latitude":91,"longitude":2}`, http.StatusBadRequest},
		{"经度越界", `{"session":"s","latitude":1,"longitude":-181}`, http.StatusBadRequest},
		{"非法JSON", `{"session":`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(r, PathStoreLocation, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.status, decodeEnvelope(t, w).Code)
		})
	}
}

func TestEncryptDecryptFlow(t *testing.T) {
	r := newRouter(t, RouterConfig{})
	storeLocation(t, r)

	w := postForm(t, r, PathEncrypt, encryptFields(), carrierPNG(t))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), OutputFilename)
	encoded := w.Body.Bytes()

	_, format, err := imageio.Decode(bytes.NewReader(encoded))
	require.NoError(t, err)
	assert.Equal(t, imageio.PNG, format)

	w = postForm(t, r, PathDecrypt, decryptFields("sunrise"), encoded)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	env := decodeEnvelope(t, w)
	assert.JSONEq(t, `{"message":"meet at dawn"}`, string(env.Data))

	w = postForm(t, r, PathDecrypt, decryptFields("sunset"), encoded)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	far := decryptFields("sunrise")
	far["latitude"] = "12.346999"
	w = postForm(t, r, PathDecrypt, far, encoded)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestEncryptErrors(t *testing.T) {
	r := newRouter(t, RouterConfig{})

	w := postForm(t, r, PathEncrypt, encryptFields(), carrierPNG(t))
	assert.Equal(t, http.StatusNotFound, w.Code, "location not stored yet")

	storeLocation(t, r)

	missing := encryptFields()
	delete(missing, "keyword")
	w = postForm(t, r, PathEncrypt, missing, carrierPNG(t))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	badTS := encryptFields()
	badTS["start_timestamp"] = "yesterday"
	w = postForm(t, r, PathEncrypt, badTS, carrierPNG(t))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postForm(t, r, PathEncrypt, encryptFields(), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code, "no image")

	w = postForm(t, r, PathEncrypt, encryptFields(), []byte("not an image"))
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)

	inverted := encryptFields()
	inverted["start_timestamp"], inverted["end_timestamp"] = inverted["end_timestamp"], inverted["start_timestamp"]
	w = postForm(t, r, PathEncrypt, inverted, carrierPNG(t))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDecryptRejectsLossyImage(t *testing.T) {
	r := newRouter(t, RouterConfig{})

	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	img.Set(1, 1, color.White)
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))

	w := postForm(t, r, PathDecrypt, decryptFields("sunrise"), buf.Bytes())
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)

	fields := decryptFields("sunrise")
	delete(fields, "device_id")
	w = postForm(t, r, PathDecrypt, fields, buf.Bytes())
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBodyLimit(t *testing.T) {
	r := newRouter(t, RouterConfig{BodyLimit: 1024})
	storeLocation(t, r)

	w := postForm(t, r, PathEncrypt, encryptFields(), carrierPNG(t))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

type urlStorage struct {
	puts int
}

func (s *urlStorage) Put(_ context.Context, key string, _ io.Reader, size int64, _ string) (*minio.Upload, error) {
	s.puts++
	u, _ := url.Parse("https://minio.local/geostego/" + key + "?X-Amz-Signature=abc")
	return &minio.Upload{Key: key, Size: size, URL: u}, nil
}

func (s *urlStorage) List(context.Context, string) ([]minio.Object, error) {
	return nil, nil
}

func (s *urlStorage) Remove(context.Context, string) error { return nil }

func TestEncryptToObjectStorage(t *testing.T) {
	storage := &urlStorage{}
	r := newRouter(t, RouterConfig{}, service.WithImageStore(service.NewMinioImageStore(storage, "encoded/")))
	storeLocation(t, r)

	w := postForm(t, r, PathEncrypt, encryptFields(), carrierPNG(t))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var data struct {
		Object string `json:"object"`
		URL    string `json:"url"`
		Size   int64  `json:"size"`
	}
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &data))
	assert.Regexp(t, `^encoded/`, data.Object)
	assert.Contains(t, data.URL, "X-Amz-Signature")
	assert.Positive(t, data.Size)
	assert.Equal(t, 1, storage.puts)
}

func TestSplitCandidates(t *testing.T) {
	assert.Equal(t, []string{"sunrise", "dawn"}, splitCandidates(" sunrise, ,dawn "))
	assert.Nil(t, splitCandidates(""))
}
