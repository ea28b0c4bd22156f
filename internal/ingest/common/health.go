package common

import (
	"image"
	_ "image/gif"  // register decoder for health probing
	_ "image/jpeg" // register decoder for health probing
	_ "image/png"  // register decoder for health probing
	"os"
	"path/filepath"
	"strings"
)

// decodableExts are the formats the health probe can structurally decode.
// HEIC/HEIF containers are outside the standard decoders, so those fall back
// to a presence and non-empty check.
var decodableExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
}

// HealthUtils probes files for basic structural integrity
type HealthUtils struct{}

// NewHealthUtils creates a new HealthUtils instance
func NewHealthUtils() *HealthUtils {
	return &HealthUtils{}
}

// IsHealthy reports whether a file looks intact. Decodable image formats
// must parse a valid header; everything else passes when it exists and is
// non-empty.
func (hu *HealthUtils) IsHealthy(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() || info.Size() == 0 {
		return false
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !decodableExts[ext] {
		return true
	}

	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	_, _, err = image.DecodeConfig(f)
	return err == nil
}

// SameSize reports whether two files have identical sizes on disk.
func (hu *HealthUtils) SameSize(a, b string) (bool, error) {
	infoA, err := os.Stat(a)
	if err != nil {
		return false, err
	}
	infoB, err := os.Stat(b)
	if err != nil {
		return false, err
	}
	return infoA.Size() == infoB.Size(), nil
}
