package api

const (
	// Generic request/server errors
	CodeInvalidRequest  = "E_INVALID_REQUEST"   // bad or invalid request
	CodePayloadTooLarge = "E_PAYLOAD_TOO_LARGE" // request body over the allowed size
	CodeRateLimited     = "E_RATE_LIMITED"      // rate limit exceeded
	CodeInternalError   = "E_INTERNAL_ERROR"    // internal server error

	// Object errors
	CodeObjectNotFound    = "E_OBJECT_NOT_FOUND"    // no object is stored under the name
	CodeObjectInvalidName = "E_OBJECT_INVALID_NAME" // the name is not a single plain path element
	CodeObjectInvalidArg  = "E_OBJECT_INVALID_ARG"  // chunk index, length, chunk body or object size out of range
)
