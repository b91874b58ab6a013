// Package fileutil names and guards files written from TMDB data.
package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SanitizeFilename cleans a filename by replacing problematic characters
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, ":", " -")
	name = strings.ReplaceAll(name, "/", "-")
	name = strings.ReplaceAll(name, "\\", "-")
	return strings.TrimSpace(name)
}

// PosterFilename returns "Title (Year) - poster.jpg", or "Title - poster.jpg"
// when the year is unknown.
func PosterFilename(title string, year int) string {
	name := SanitizeFilename(title)
	if name == "" {
		name = "untitled"
	}
	if year > 0 {
		name = fmt.Sprintf("%s (%d)", name, year)
	}
	return name + " - poster.jpg"
}

// PosterPath joins directory and the poster filename for a title.
func PosterPath(directory, title string, year int) string {
	return filepath.Join(directory, PosterFilename(title, year))
}

// FileExists checks if a regular file exists at the given path
func FileExists(filePath string) bool {
	info, err := os.Stat(filePath)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// ShouldWrite reports whether filePath may be written. Existing files are
// only replaced when overwrite is set.
func ShouldWrite(filePath string, overwrite bool) bool {
	return overwrite || !FileExists(filePath)
}
