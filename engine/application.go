package engine

import (
	"bytes"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/pelletier/go-toml/v2"
	"github.com/spaghettifunk/phm/engine/core"
)

type ApplicationConfig struct {
	// Window starting position x axis, if applicable.
	StartPosX uint32 `toml:"start_pos_x"`
	// Window starting position y axis, if applicable.
	StartPosY uint32 `toml:"start_pos_y"`
	// Window starting width, if applicable.
	StartWidth uint32 `toml:"start_width"`
	// Window starting height, if applicable.
	StartHeight uint32 `toml:"start_height"`
	// The application name used in windowing, if applicable.
	Name     string `toml:"name"`
	LogLevel string `toml:"log_level"`
	// AssetDir holds the compiled shaders under its shaders directory.
	AssetDir         string `toml:"asset_dir"`
	EnableValidation bool   `toml:"enable_validation"`
	RequireDiscrete  bool   `toml:"require_discrete_gpu"`
	// HotReload rebuilds the pipelines when a shader changes on disk.
	HotReload bool `toml:"hot_reload"`

	Camera CameraConfig `toml:"camera"`
}

type CameraConfig struct {
	// FovY is the vertical field of view in degrees.
	FovY      float32 `toml:"fov_y"`
	Near      float32 `toml:"near"`
	Far       float32 `toml:"far"`
	MoveSpeed float32 `toml:"move_speed"`
	LookSpeed float32 `toml:"look_speed"`
}

func DefaultApplicationConfig() *ApplicationConfig {
	return &ApplicationConfig{
		StartPosX:   100,
		StartPosY:   100,
		StartWidth:  800,
		StartHeight: 600,
		Name:        "phm",
		LogLevel:    "info",
		AssetDir:    "assets",
		HotReload:   true,
		Camera: CameraConfig{
			FovY:      50,
			Near:      0.1,
			Far:       100,
			MoveSpeed: 3,
			LookSpeed: 1.5,
		},
	}
}

// LoadConfig reads the TOML file at path over the defaults. A missing file
// yields the defaults; an unknown key is an error.
func LoadConfig(path string) (*ApplicationConfig, error) {
	config := DefaultApplicationConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			core.LogInfo("No configuration at %s, using defaults", path)
			return config, nil
		}
		return nil, errors.Wrapf(err, "failed to read configuration %s", path)
	}

	dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	if err := dec.Decode(config); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, errors.Newf("unknown keys in %s:\n%s", path, strict.String())
		}
		return nil, errors.Wrapf(err, "failed to decode configuration %s", path)
	}
	if err := config.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid configuration %s", path)
	}
	return config, nil
}

func (c *ApplicationConfig) Validate() error {
	if c.StartWidth == 0 || c.StartHeight == 0 {
		return errors.Newf("window size %dx%d must be positive", c.StartWidth, c.StartHeight)
	}
	if c.Camera.FovY <= 0 || c.Camera.FovY >= 180 {
		return errors.Newf("field of view %g must be within (0, 180) degrees", c.Camera.FovY)
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		return errors.Newf("clip planes near %g, far %g must satisfy 0 < near < far", c.Camera.Near, c.Camera.Far)
	}
	return nil
}
