package journal

import (
	"fmt"
	"os"
)

// CaptureSuffix is appended to the journal path to name its capture file.
const CaptureSuffix = ".up"

// Rotate atomically hands the journal off to its capture file so new writes
// keep accumulating under the original name while old contents upload.
//
// A pre-existing capture file means an earlier cycle rotated but never
// finished; it is returned as-is and the live journal is left untouched, so
// the leftover contents get retried before anything newer. Any rename
// failure (missing source, permission, I/O) is fatal for the cycle.
func Rotate(path string) (string, error) {
	capture := path + CaptureSuffix
	if _, err := os.Stat(capture); err == nil {
		return capture, nil
	}
	if err := os.Rename(path, capture); err != nil {
		return "", fmt.Errorf("rotate %s: %w", path, err)
	}
	return capture, nil
}
