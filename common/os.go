package common

import (
	"io/ioutil"
	"os"

	"github.com/pkg/errors"
)

// WriteFileAtomic writes to newBytes to filePath.
// Guaranteed not to lose *both* oldBytes and newBytes,
// (assuming that the OS is perfect)
func WriteFileAtomic(filePath string, newBytes []byte, mode os.FileMode) error {
	// If a file already exists there, copy to filePath+".bak" (overwrite anything)
	if _, err := os.Stat(filePath); !os.IsNotExist(err) {
		fileBytes, err := ioutil.ReadFile(filePath)
		if err != nil {
			return errors.Wrapf(err, "Could not read file %v", filePath)
		}
		err = ioutil.WriteFile(filePath+".bak", fileBytes, mode)
		if err != nil {
			return errors.Wrapf(err, "Could not write file %v", filePath+".bak")
		}
	}
	err := ioutil.WriteFile(filePath+".new", newBytes, mode)
	if err != nil {
		return errors.Wrapf(err, "Could not write file %v", filePath+".new")
	}
	return os.Rename(filePath+".new", filePath)
}
