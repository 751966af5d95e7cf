package recovery

import (
	"errors"
	"fmt"
	"os"
)

// ErrOutputCollision is returned when every _NNNN suffix attempt is exhausted.
var ErrOutputCollision = errors.New("recovery: output collision, exhausted suffix attempts")

const maxCollisionAttempts = 10000

// uniquePath returns destPath unchanged if it doesn't already exist, or
// destPath with an appended "_NNNN" suffix (starting at "_0000",
// incrementing) for the first free name.
func uniquePath(destPath string) (string, error) {
	if _, err := os.Stat(destPath); os.IsNotExist(err) {
		return destPath, nil
	}

	for n := 0; n < maxCollisionAttempts; n++ {
		candidate := fmt.Sprintf("%s_%04d", destPath, n)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate, nil
		}
	}

	return "", ErrOutputCollision
}
