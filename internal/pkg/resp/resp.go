/*
Package resp provides helper functions for constructing and sending standardized HTTP JSON responses.

It defines a unified JSON response structure, including a business code, message, and optional data,
and offers convenient wrappers for both success and error responses.
*/
package resp

import (
	"encoding/json"
	"net/http"

	"nexchat/internal/pkg/errs"
	"nexchat/internal/pkg/logx"
)

// JSONResponse defines the standardized JSON response structure returned to clients.
type JSONResponse struct {
	// Code is the business status code (0 for success, see errs package).
	Code int `json:"code"`

	// Message is the client-friendly status description or error message.
	Message string `json:"message"`

	// Data is the optional response payload.
	Data any `json:"data,omitempty"`
}

// RespondJSON sets the Content-Type and encodes the payload onto the wire.
func RespondJSON(w http.ResponseWriter, r *http.Request, httpStatus int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(httpStatus)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logx.Error(
			err,
			"Error encoding JSON response",
			"http_status", httpStatus,
		)
	}
}

// RespondSuccess sends a successful HTTP response (HTTP 200 OK).
func RespondSuccess(w http.ResponseWriter, r *http.Request, data any) {
	res := JSONResponse{
		Code:    0,
		Message: "success",
		Data:    data,
	}
	RespondJSON(w, r, http.StatusOK, res)
}

// RespondRaw sends an arbitrary payload without the JSONResponse envelope.
// Document fetches use it: the sync engine's remote client expects the bare
// GlobalDocument, not a wrapper.
func RespondRaw(w http.ResponseWriter, r *http.Request, payload any) {
	RespondJSON(w, r, http.StatusOK, payload)
}

// RespondError sends an HTTP response containing custom error information.
func RespondError(w http.ResponseWriter, r *http.Request, customErr *errs.CustomError) {
	if customErr == nil {
		customErr = errs.NewError(errs.ErrUnknown)
	}

	res := JSONResponse{
		Code:    customErr.Code,
		Message: customErr.Message,
		Data:    nil,
	}
	RespondJSON(w, r, customErr.Status, res)
}
