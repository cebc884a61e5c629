package http

import "net/http"

// Common Content-Types
const (
	ContentTypeJSON        = "application/json"
	ContentTypeForm        = "application/x-www-form-urlencoded"
	ContentTypeText        = "text/plain"
	ContentTypeOctetStream = "application/octet-stream"
	ContentTypePNG         = "image/png"
)

// Common methods
const (
	MethodGet  = http.MethodGet
	MethodPost = http.MethodPost
)
