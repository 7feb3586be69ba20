package handler

import (
	"net/http"
	"strconv"
)

type bytesResponse struct {
	contentType string
	body        []byte
	filename    string
}

func (b bytesResponse) Render(w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("Content-Type", b.contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(b.body)))
	if b.filename != "" {
		w.Header().Set("Content-Disposition", `inline; filename="`+b.filename+`"`)
	}
	w.WriteHeader(http.StatusOK)
	_, err := w.Write(b.body)
	return err
}

// Bytes responds 200 with a raw body, e.g. a PNG image.
func Bytes(contentType string, body []byte) Response {
	return bytesResponse{contentType: contentType, body: body}
}

// Inline is Bytes with an inline Content-Disposition filename.
func Inline(filename, contentType string, body []byte) Response {
	return bytesResponse{contentType: contentType, body: body, filename: filename}
}
