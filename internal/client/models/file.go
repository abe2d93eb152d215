package models

// FileUpload is an in-memory file picked by the operator for upload,
// typically produced by filex.ReadUpload.
type FileUpload struct {
	Name        string
	ContentType string
	Size        int64
	Data        []byte
}
