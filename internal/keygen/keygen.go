// Package keygen generates collision-free object-store keys for uploaded images
package keygen

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var reIllegalChars = regexp.MustCompile(`[^\w\-.]`)

// SanitizeFilename оставляет только безопасные для ключа символы
func SanitizeFilename(filename string) string {
	filename = reIllegalChars.ReplaceAllString(BaseName(filename), "_")
	if filename == "" || strings.Trim(filename, ".") == "" {
		return "unnamed"
	}
	return filename
}

// SanitizeUsername - то же для префикса-владельца
func SanitizeUsername(username string) string {
	username = reIllegalChars.ReplaceAllString(username, "_")
	if username == "" {
		return "unknown"
	}
	return username
}

// BaseName отрезает каталоги, в том числе windows-style
func BaseName(filename string) string {
	filename = strings.ReplaceAll(filename, `\`, "/")
	base := path.Base(filename)
	if base == "." || base == "/" {
		return ""
	}
	return base
}

// ObjectKey - <username>/<uuid>-<filename>. Повторная загрузка того же файла даёт новый ключ.
func ObjectKey(username, filename string) string {
	return fmt.Sprintf("%s/%s-%s", SanitizeUsername(username), uuid.New().String(), SanitizeFilename(filename))
}
