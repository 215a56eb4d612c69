package loaders

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spaghettifunk/phm/engine/core"
)

// ShaderLoader reads compiled SPIR-V from disk.
type ShaderLoader struct{}

// Load returns the words of the SPIR-V binary at path. A missing file is
// core.ErrShaderNotFound, a file that is empty or not made of whole words is
// core.ErrShaderTruncated.
func (sl *ShaderLoader) Load(path string) ([]uint32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errors.Wrapf(core.ErrShaderNotFound, "%s", path)
		}
		return nil, errors.Wrapf(err, "failed to read shader %s", path)
	}
	if len(data) == 0 || len(data)%4 != 0 {
		return nil, errors.Wrapf(core.ErrShaderTruncated, "%s is %d bytes", path, len(data))
	}
	return bytesToBytecode(data), nil
}

// SPIR-V words are little endian on every host we target.
func bytesToBytecode(b []byte) []uint32 {
	byteCode := make([]uint32, len(b)/4)
	for i := 0; i < len(byteCode); i++ {
		byteIndex := i * 4
		byteCode[i] = 0
		byteCode[i] |= uint32(b[byteIndex])
		byteCode[i] |= uint32(b[byteIndex+1]) << 8
		byteCode[i] |= uint32(b[byteIndex+2]) << 16
		byteCode[i] |= uint32(b[byteIndex+3]) << 24
	}

	return byteCode
}
