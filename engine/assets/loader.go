package assets

import "path/filepath"

// Loader turns a file on disk into SPIR-V words.
type Loader interface {
	Load(path string) ([]uint32, error)
}

type AssetType int

const (
	AssetTypeNone AssetType = iota
	AssetTypeShader
)

func determineAssetType(path string) AssetType {
	switch filepath.Ext(path) {
	case ".spv":
		return AssetTypeShader
	default:
		return AssetTypeNone
	}
}
