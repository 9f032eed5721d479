// Package config handles warp engine configuration loading and management.
package config

import (
	"errors"
	"time"

	"github.com/Faultbox/mpcdi-warp/internal/warp"
	"github.com/Faultbox/mpcdi-warp/pkg/mpcdi"
)

// ErrNoPFM is returned when external files are requested without a PFM path.
var ErrNoPFM = errors.New("data.pfm is not set")

// Config holds all engine settings.
type Config struct {
	Warp    WarpConfig    `yaml:"warp"`
	Data    DataConfig    `yaml:"data"`
	Logging LoggingConfig `yaml:"logging"`
}

// WarpConfig holds frustum solving settings.
type WarpConfig struct {
	FrustumMethod    string      `yaml:"frustum_method"`    // aabb, full_cpu, texture_box
	StereoMode       string      `yaml:"stereo_mode"`       // asymmetric_aabb, symmetric_aabb
	ProjectionPolicy string      `yaml:"projection_policy"` // static_surface_normal, static_surface_plane, dynamic_look_at_center
	AutoFix          bool        `yaml:"auto_fix"`
	CacheDepth       int         `yaml:"cache_depth"`
	CacheTolerance   float64     `yaml:"cache_tolerance"`
	TextureBoxSize   int         `yaml:"texture_box_size"`
	ReversedZ        bool        `yaml:"reversed_z"`
	PointEpsilon     float64     `yaml:"point_epsilon"`
	Noise            NoiseConfig `yaml:"noise"`
}

// NoiseConfig holds speckle removal thresholds as fractions of the grid size.
type NoiseConfig struct {
	Passes  int     `yaml:"passes"`
	SearchX float64 `yaml:"search_x"`
	SearchY float64 `yaml:"search_y"`
	MinRunX float64 `yaml:"min_run_x"`
	MinRunY float64 `yaml:"min_run_y"`
}

// DataConfig holds external calibration file paths.
type DataConfig struct {
	PFM          string        `yaml:"pfm"`
	Alpha        string        `yaml:"alpha"`
	Beta         string        `yaml:"beta"`
	AlphaGamma   float32       `yaml:"alpha_gamma"`
	BetaGamma    float32       `yaml:"beta_gamma"`
	Profile      string        `yaml:"profile"` // 2d, 3d, a3d, sl
	Unit         string        `yaml:"unit"`    // unit of the PFM coordinates
	WorldScale   float64       `yaml:"world_scale"`
	EngineAxis   bool          `yaml:"engine_axis"` // PFM already uses engine axes
	PollInterval time.Duration `yaml:"poll_interval"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	s := warp.DefaultSettings()
	return &Config{
		Warp: WarpConfig{
			FrustumMethod:    s.Method.String(),
			StereoMode:       s.Stereo.String(),
			ProjectionPolicy: s.Projection.String(),
			AutoFix:          s.AutoFix,
			CacheDepth:       s.CacheDepth,
			CacheTolerance:   s.CacheTolerance,
			TextureBoxSize:   s.TextureBoxSize,
			ReversedZ:        s.ReversedZ,
			PointEpsilon:     s.PointEpsilon,
			Noise: NoiseConfig{
				Passes:  s.Noise.MaxPasses,
				SearchX: s.Noise.SearchX,
				SearchY: s.Noise.SearchY,
				MinRunX: s.Noise.MinRunX,
				MinRunY: s.Noise.MinRunY,
			},
		},
		Data: DataConfig{
			AlphaGamma:   1,
			BetaGamma:    1,
			Profile:      "a3d",
			Unit:         "cm",
			WorldScale:   1,
			PollInterval: time.Second,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// WarpSettings converts the warp section into solver settings.
func (c *Config) WarpSettings() (warp.Settings, error) {
	method, err := warp.ParseFrustumMethod(c.Warp.FrustumMethod)
	if err != nil {
		return warp.Settings{}, err
	}
	stereo, err := warp.ParseStereoMode(c.Warp.StereoMode)
	if err != nil {
		return warp.Settings{}, err
	}
	policy, err := warp.ParseProjectionPolicy(c.Warp.ProjectionPolicy)
	if err != nil {
		return warp.Settings{}, err
	}

	s := warp.Settings{
		Method:         method,
		Stereo:         stereo,
		Projection:     policy,
		AutoFix:        c.Warp.AutoFix,
		CacheDepth:     c.Warp.CacheDepth,
		CacheTolerance: c.Warp.CacheTolerance,
		TextureBoxSize: c.Warp.TextureBoxSize,
		ReversedZ:      c.Warp.ReversedZ,
		PointEpsilon:   c.Warp.PointEpsilon,
		Noise: warp.NoiseSettings{
			MaxPasses: c.Warp.Noise.Passes,
			SearchX:   c.Warp.Noise.SearchX,
			SearchY:   c.Warp.Noise.SearchY,
			MinRunX:   c.Warp.Noise.MinRunX,
			MinRunY:   c.Warp.Noise.MinRunY,
		},
	}
	if err := s.Validate(); err != nil {
		return warp.Settings{}, err
	}
	return s, nil
}

// ExternalFiles converts the data section into a region file set. The world
// scale is expressed in centimeters per PFM unit.
func (c *Config) ExternalFiles() (warp.ExternalFiles, error) {
	profile, err := mpcdi.ParseProfileType(c.Data.Profile)
	if err != nil {
		return warp.ExternalFiles{}, err
	}
	unit, err := mpcdi.ParseGeometryUnit(c.Data.Unit)
	if err != nil {
		return warp.ExternalFiles{}, err
	}
	if c.Data.PFM == "" {
		return warp.ExternalFiles{}, ErrNoPFM
	}
	return warp.ExternalFiles{
		PFM:        c.Data.PFM,
		Alpha:      c.Data.Alpha,
		Beta:       c.Data.Beta,
		AlphaGamma: c.Data.AlphaGamma,
		BetaGamma:  c.Data.BetaGamma,
		Profile:    profile,
		WorldScale: c.Data.WorldScale * unit.Centimeters(),
		EngineAxis: c.Data.EngineAxis,
	}, nil
}
