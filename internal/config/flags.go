package config

import "flag"

var (
	flagConfig     = flag.String("config", "", "Path to config file")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging")
	flagMethod     = flag.String("method", "", "Frustum sampling method (aabb, full_cpu, texture_box)")
	flagStereo     = flag.String("stereo", "", "Stereo mode (asymmetric_aabb, symmetric_aabb)")
	flagProjection = flag.String("projection", "", "Projection policy (normal, plane, dynamic)")
	flagCacheDepth = flag.Int("cache-depth", -1, "Frustum cache depth (0 disables)")
	flagNoAutoFix  = flag.Bool("no-autofix", false, "Disable back-side projection fallback")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagMethod != "" {
		cfg.Warp.FrustumMethod = *flagMethod
	}
	if *flagStereo != "" {
		cfg.Warp.StereoMode = *flagStereo
	}
	if *flagProjection != "" {
		cfg.Warp.ProjectionPolicy = *flagProjection
	}
	if *flagCacheDepth >= 0 {
		cfg.Warp.CacheDepth = *flagCacheDepth
	}
	if *flagNoAutoFix {
		cfg.Warp.AutoFix = false
	}
}
