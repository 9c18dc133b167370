// internal/app/system/limits/limits.go
package limits

// Request body size limits shared across handlers.
// These limits help prevent memory exhaustion from oversized requests.
const (
	// MaxJSONBody is the maximum size for JSON request bodies.
	MaxJSONBody = 1 << 20 // 1 MB

	// MaxSubmissionUpload is the maximum size for assignment submission
	// uploads, parsed with ParseMultipartForm.
	MaxSubmissionUpload = 32 << 20 // 32 MB
)
