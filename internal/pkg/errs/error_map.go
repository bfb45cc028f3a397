/*
Package errs provides custom error types and application-level error code constants.

This file defines the map from error codes to the CustomError struct, used to standardize
HTTP responses and internal error handling.
*/
package errs

import "net/http"

// errorMap stores the detailed CustomError struct corresponding to every application error code.
// The key is the error code (int), and the value contains the user message and HTTP status code.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidParams:         {Code: ErrInvalidParams, Message: "Invalid request parameters.", Status: http.StatusBadRequest},
	ErrUnsupportedMediaType:  {Code: ErrUnsupportedMediaType, Message: "Unsupported request format.", Status: http.StatusUnsupportedMediaType},
	ErrInvalidJSONFormat:     {Code: ErrInvalidJSONFormat, Message: "Unsupported request format.", Status: http.StatusBadRequest},
	ErrExtraContentInBody:    {Code: ErrExtraContentInBody, Message: "Request contains unexpected data.", Status: http.StatusBadRequest},
	ErrRequestEntityTooLarge: {Code: ErrRequestEntityTooLarge, Message: "Request size is too large.", Status: http.StatusRequestEntityTooLarge},
	ErrRateLimitExceeded:     {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},

	// 2xxx: Channel and Chat Business Logic Errors
	ErrChannelCodeInvalid: {Code: ErrChannelCodeInvalid, Message: "Invalid channel code.", Status: http.StatusBadRequest},
	ErrChannelNotFound:    {Code: ErrChannelNotFound, Message: "Channel not found.", Status: http.StatusNotFound},
	ErrChannelExists:      {Code: ErrChannelExists, Message: "Channel code already exists.", Status: http.StatusConflict},
	ErrDocumentTooLarge:   {Code: ErrDocumentTooLarge, Message: "Document is too large.", Status: http.StatusRequestEntityTooLarge},
	ErrUserNotFound:       {Code: ErrUserNotFound, Message: "User not found.", Status: http.StatusNotFound},
	ErrAlreadyMember:      {Code: ErrAlreadyMember, Message: "Already a member of this group.", Status: http.StatusConflict},
	ErrNotGroupSession:    {Code: ErrNotGroupSession, Message: "This chat is not a group.", Status: http.StatusBadRequest},
	ErrSessionNotFound:    {Code: ErrSessionNotFound, Message: "Chat session not found.", Status: http.StatusNotFound},
	ErrInvitePending:      {Code: ErrInvitePending, Message: "An invitation is already pending.", Status: http.StatusConflict},

	// 3xxx: Security Errors
	ErrUnauthorized:       {Code: ErrUnauthorized, Message: "Please sign in to continue.", Status: http.StatusUnauthorized},
	ErrInvalidCredentials: {Code: ErrInvalidCredentials, Message: "Incorrect password.", Status: http.StatusUnauthorized},

	// 5xxx: Internal System Errors
	ErrUnknown: {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
}
