// Package bootstrap prepares the process environment before configuration
// is read.
package bootstrap

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
)

// Loadenv loads a .env file from the working directory when present. It
// reports whether one was found; already-set variables are never
// overridden.
func Loadenv(files ...string) (bool, error) {
	err := godotenv.Load(files...)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
