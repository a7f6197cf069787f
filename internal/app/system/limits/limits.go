// internal/app/system/limits/limits.go
package limits

// Request body size limits.
// These limits help prevent memory exhaustion from oversized requests.
const (
	// MaxLoginFormSize bounds the sign-in form.
	MaxLoginFormSize = 64 << 10 // 64 KB

	// MaxAdminFormSize bounds admin forms without files (delete, refresh).
	MaxAdminFormSize = 64 << 10 // 64 KB

	// MultipartMemory is how much of a multipart body is held in memory;
	// the rest spills to temporary files.
	MultipartMemory = 8 << 20 // 8 MB

	// DefaultMaxUploadMB caps a whole registration or edit request when
	// max_upload_mb is not configured.
	DefaultMaxUploadMB = 25
)

// UploadBytes converts a megabyte setting to a byte limit, falling back to
// DefaultMaxUploadMB for non-positive values.
func UploadBytes(mb int) int64 {
	if mb <= 0 {
		mb = DefaultMaxUploadMB
	}
	return int64(mb) << 20
}
