package files

import (
	"fmt"
	"os"
	"path/filepath"
)

// FileInfo holds information about the file to be sent.
type FileInfo struct {
	// Path is the absolute path to the file.
	Path string

	// Name is the filename (without directory).
	Name string

	// Size is the file size in bytes.
	Size int64
}

// Validate checks that the file exists, is a regular file and is
// readable, and returns its info. Zero-byte files are valid: the protocol
// completes them on the metadata frame alone.
func Validate(path string) (FileInfo, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return FileInfo{}, fmt.Errorf("%s: failed to get absolute path: %w", path, err)
	}

	stat, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return FileInfo{}, fmt.Errorf("%s: file does not exist", path)
		}
		return FileInfo{}, fmt.Errorf("%s: failed to stat file: %w", path, err)
	}

	if stat.IsDir() {
		return FileInfo{}, fmt.Errorf("%s: is a directory (directories not supported)", path)
	}

	f, err := os.Open(absPath)
	if err != nil {
		return FileInfo{}, fmt.Errorf("%s: file is not readable: %w", path, err)
	}
	f.Close()

	return FileInfo{
		Path: absPath,
		Name: stat.Name(),
		Size: stat.Size(),
	}, nil
}

// UniqueFilename returns filename if it does not exist yet, otherwise the
// first "name (N).ext" variant that does not.
func UniqueFilename(filename string) string {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return filename
	}

	ext := filepath.Ext(filename)
	nameWithoutExt := filename[:len(filename)-len(ext)]

	counter := 1
	for {
		newFilename := fmt.Sprintf("%s (%d)%s", nameWithoutExt, counter, ext)
		if _, err := os.Stat(newFilename); os.IsNotExist(err) {
			return newFilename
		}
		counter++
	}
}

// SafeName strips any path components from a received filename so a
// malicious peer cannot write outside the output directory.
func SafeName(name string) string {
	base := filepath.Base(filepath.Clean(name))
	if base == "." || base == string(filepath.Separator) || base == ".." {
		return "received.bin"
	}
	return base
}
