package compute

import (
	"os"

	"github.com/pkg/errors"
)

// LoadKernelSource reads kernel source from path.
func LoadKernelSource(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrap(err, "reading kernel source")
	}
	if len(data) == 0 {
		return "", errors.Errorf("kernel source %s is empty", path)
	}
	return string(data), nil
}
