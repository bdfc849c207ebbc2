package core

// FileStorage stores uploaded avatars and PDF attachments.
// Names returned by the Save methods are relative to the upload directory.
type FileStorage interface {
	// SaveImage validates, normalizes to JPEG and stores an avatar.
	SaveImage(role, filename string, data []byte) (string, error)
	// SavePDF validates and stores a PDF attachment named after title.
	SavePDF(role, title string, data []byte) (string, error)
	// Remove deletes a stored file. Failures are logged, never returned.
	Remove(name string)
}
