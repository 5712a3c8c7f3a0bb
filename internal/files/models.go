package files

const (
	// MaxFilenameLength caps uploaded filenames
	MaxFilenameLength = 255

	// MaxFileSize caps uploads at 50MB, enough for lecture slides and
	// short clips
	MaxFileSize = 50 * 1024 * 1024
)

// allowedContentTypes lists what course materials may be uploaded.
var allowedContentTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"image/webp":      true,
	"video/mp4":       true,
	"text/plain":      true,
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   true,
}

// UploadURLRequest asks for a presigned upload URL for a new material
type UploadURLRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
}

// UploadURLResponse carries the presigned URL and the key the client
// must reference afterwards
type UploadURLResponse struct {
	UploadURL string `json:"upload_url"`
	FileKey   string `json:"file_key"`
	ExpiresAt int64  `json:"expires_at"`
}

// DownloadURLResponse carries a presigned download URL
type DownloadURLResponse struct {
	DownloadURL string `json:"download_url"`
	ExpiresAt   int64  `json:"expires_at"`
}
