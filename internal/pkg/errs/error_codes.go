/*
Package errs provides custom error types and application-level error code constants.

These error codes clearly identify specific business or system errors both
internally and in communication with clients of the relay API.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request header Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body JSON format is incorrect (e.g., syntax error).
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates that the request body contained extra content after valid JSON data.
	ErrExtraContentInBody = 1004

	// ErrRequestEntityTooLarge indicates that the request body size exceeded the server limit.
	ErrRequestEntityTooLarge = 1005

	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1006
)

// 2xxx: Channel and Chat Business Logic Errors
const (
	// ErrChannelCodeInvalid indicates a malformed channel code in the request path.
	ErrChannelCodeInvalid = 2101

	// ErrChannelNotFound indicates that no shared document exists under the given channel code.
	ErrChannelNotFound = 2102

	// ErrChannelExists indicates that the attempted channel code for creation already exists.
	ErrChannelExists = 2103

	// ErrDocumentTooLarge indicates that the submitted document exceeded the size limit.
	ErrDocumentTooLarge = 2104

	// ErrUserNotFound indicates the target handle does not exist in the directory.
	ErrUserNotFound = 2201

	// ErrAlreadyMember indicates the target user is already a member of the group.
	ErrAlreadyMember = 2202

	// ErrNotGroupSession indicates a group-only operation was attempted on a direct session.
	ErrNotGroupSession = 2203

	// ErrSessionNotFound indicates the referenced chat session does not exist locally.
	ErrSessionNotFound = 2204

	// ErrInvitePending indicates an invitation from the same sender is already queued.
	ErrInvitePending = 2205
)

// 3xxx: Security Errors
const (
	// ErrUnauthorized indicates a missing or invalid admin token.
	ErrUnauthorized = 3001

	// ErrInvalidCredentials indicates a failed admin login attempt.
	ErrInvalidCredentials = 3002
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000
)
