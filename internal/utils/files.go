package utils

import (
	"log"
	"os"
	"time"
)

// RemoveFileLater deletes a temp file after the given delay, or
// immediately for a non-positive delay. Synthesized voice notes stay
// on disk long enough for the carrier to fetch them.
func RemoveFileLater(path string, delay time.Duration) {
	if delay <= 0 {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Printf("temp file cleanup failed for %s: %v", path, err)
		}
		return
	}
	time.AfterFunc(delay, func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Printf("temp file cleanup failed for %s: %v", path, err)
		}
	})
}
