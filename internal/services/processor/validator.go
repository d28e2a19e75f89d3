package processor

import "net/http"

// ContentType sniffs the MIME type of decoded image bytes.
func ContentType(data []byte) string {
	return http.DetectContentType(data)
}

// Extension maps a decoder format name to a file extension.
func Extension(format string) string {
	switch format {
	case "jpeg":
		return "jpg"
	case "":
		return "bin"
	}
	return format
}
