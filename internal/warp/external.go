package warp

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/mpcdi-warp/internal/blend"
	"github.com/Faultbox/mpcdi-warp/pkg/mpcdi"
	"github.com/Faultbox/mpcdi-warp/pkg/pfm"
)

// ExternalFiles names calibration data kept outside the MPCDI container.
// Alpha and Beta are optional.
type ExternalFiles struct {
	PFM        string
	Alpha      string
	Beta       string
	AlphaGamma float32
	BetaGamma  float32
	Profile    mpcdi.ProfileType
	WorldScale float64
	EngineAxis bool
}

// Paths returns the non-empty file paths.
func (f ExternalFiles) Paths() []string {
	var out []string
	for _, p := range []string{f.PFM, f.Alpha, f.Beta} {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// LoadExternal reads every file in f and then publishes them together under one
// lock. Nothing is replaced if any file fails to load.
func (r *Region) LoadExternal(f ExternalFiles) error {
	img, err := pfm.ParseFile(f.PFM)
	if err != nil {
		return fmt.Errorf("region %s: %w", r.ID, err)
	}
	grid, err := GridFromPFM(img, Conversion{
		Profile:    f.Profile,
		WorldScale: f.WorldScale,
		EngineAxis: f.EngineAxis,
		Epsilon:    r.Settings().PointEpsilon,
	})
	if err != nil {
		return fmt.Errorf("region %s: %w", r.ID, err)
	}

	var alpha, beta *blend.Map
	if f.Alpha != "" {
		if alpha, err = blend.LoadFile(f.Alpha, f.AlphaGamma); err != nil {
			return fmt.Errorf("region %s alpha: %w", r.ID, err)
		}
	}
	if f.Beta != "" {
		if beta, err = blend.LoadFile(f.Beta, f.BetaGamma); err != nil {
			return fmt.Errorf("region %s beta: %w", r.ID, err)
		}
	}

	r.mu.Lock()
	r.setGridLocked(grid, f.Profile)
	if alpha != nil {
		r.alpha = alpha
	}
	if beta != nil {
		r.beta = beta
	}
	r.mu.Unlock()

	warpLog().Info("external files loaded",
		zap.String("region", r.ID),
		zap.Strings("files", f.Paths()))
	return nil
}
