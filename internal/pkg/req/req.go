/*
Package req provides helper functions for HTTP request parsing and data binding.

It encapsulates JSON body binding with size limits and strict decoding, so
handlers receive either a fully-populated struct or a CustomError ready to
be written back.
*/
package req

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"nexchat/internal/pkg/errs"
)

// MaxDocumentSize caps the request body (4 MB). Whole-document replace
// bodies carry every user's session list, so the cap is generous but firm.
const MaxDocumentSize int64 = 4 << 20

// BindJSON binds the JSON request body to dst. The body is size-limited
// to MaxDocumentSize and must contain exactly one JSON value.
func BindJSON(w http.ResponseWriter, r *http.Request, dst any) *errs.CustomError {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "application/json") {
		return errs.NewError(errs.ErrUnsupportedMediaType)
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxDocumentSize)

	decoder := json.NewDecoder(r.Body)

	if err := decoder.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return errs.NewError(errs.ErrRequestEntityTooLarge)
		}
		return errs.NewError(errs.ErrInvalidJSONFormat)
	}

	if decoder.More() {
		return errs.NewError(errs.ErrExtraContentInBody)
	}

	return nil
}
