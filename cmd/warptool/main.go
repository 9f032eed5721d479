// warptool is a CLI utility for inspecting MPCDI warp geometry and blend maps.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/mpcdi-warp/internal/blend"
	"github.com/Faultbox/mpcdi-warp/internal/config"
	"github.com/Faultbox/mpcdi-warp/internal/logger"
	"github.com/Faultbox/mpcdi-warp/internal/reload"
	"github.com/Faultbox/mpcdi-warp/internal/warp"
	"github.com/Faultbox/mpcdi-warp/pkg/math"
)

func main() {
	// Global flags come before the command: warptool -debug frustum ...
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if flag.NArg() < 1 {
		printUsage()
		os.Exit(1)
	}

	command := flag.Arg(0)
	args := flag.Args()[1:]

	switch command {
	case "info":
		err = cmdInfo(cfg, args)
	case "frustum", "solve":
		err = cmdFrustum(cfg, args)
	case "blend":
		err = cmdBlend(cfg, args)
	case "watch":
		err = cmdWatch(cfg, args)
	case "config":
		err = cmdConfig(cfg, args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		logger.Sync()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`warptool - MPCDI warp geometry utility

Usage:
  warptool [global flags] <command> [options]

Global flags:
  -config <file>     Config file (default ./config.yaml or the user config dir)
  -debug             Debug logging
  -method <name>     aabb | full_cpu | texture_box
  -stereo <name>     asymmetric_aabb | symmetric_aabb
  -projection <name> normal | plane | dynamic
  -cache-depth <n>   Frustum cache depth (0 disables)
  -no-autofix        Disable back-side projection fallback

Commands:
  info [file.pfm]                 Show warp grid size, bounds and normals
  frustum [options] [file.pfm]    Solve a frustum for an eye position
  blend <image> [-gamma g]        Show blend map format and value range
  watch                           Reload configured files when they change
  config [-save path]             Print or save the resolved configuration

Examples:
  warptool info proj1.pfm
  warptool -method full_cpu frustum -eye 0,0,170 -near 10 proj1.pfm
  warptool blend -gamma 2.2 proj1_alpha.png
  warptool -config wall.yaml watch`)
}

// loadRegion builds a region from path, or from the configured data files
// when path is empty.
func loadRegion(cfg *config.Config, path string) (*warp.Region, error) {
	settings, err := cfg.WarpSettings()
	if err != nil {
		return nil, err
	}
	if path != "" {
		cfg.Data.PFM = path
	}
	files, err := cfg.ExternalFiles()
	if err != nil {
		return nil, err
	}

	region := warp.NewRegion(files.PFM, settings)
	if err := region.LoadExternal(files); err != nil {
		return nil, err
	}
	return region, nil
}

func cmdInfo(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	fs.Parse(args)

	region, err := loadRegion(cfg, fs.Arg(0))
	if err != nil {
		return err
	}

	grid := region.Grid()
	b := region.Bounds()
	fmt.Printf("Region:  %s\n", region.ID)
	fmt.Printf("Profile: %s\n", region.Profile())
	fmt.Printf("Size:    %dx%d\n", grid.Width, grid.Height)
	fmt.Printf("Valid:   %d of %d\n", grid.ValidCount(), len(grid.Points))
	if !region.HasGeometry() {
		fmt.Println("Bounds:  (none)")
		return nil
	}
	fmt.Printf("Bounds:  %s .. %s\n", formatVec(b.Min), formatVec(b.Max))
	fmt.Printf("Size:    %s\n", formatVec(b.Size()))
	fmt.Printf("Normal:  %s\n", formatVec(region.SurfaceNormal()))
	fmt.Printf("Plane:   %s\n", formatVec(region.SurfacePlaneNormal()))

	a := region.AlphaMap()
	fmt.Printf("Alpha:   %dx%d %s gamma %.2f\n", a.Width, a.Height, a.Format, a.Gamma)
	if beta := region.BetaMap(); beta.IsValid() {
		fmt.Printf("Beta:    %dx%d %s gamma %.2f\n", beta.Width, beta.Height, beta.Format, beta.Gamma)
	}
	return nil
}

func cmdFrustum(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("frustum", flag.ExitOnError)
	eye := fs.String("eye", "0,0,0", "Eye origin x,y,z in engine units")
	offset := fs.String("offset", "0,0,0", "Stereo eye offset x,y,z")
	near := fs.Float64("near", 10, "Near clipping plane")
	far := fs.Float64("far", 0, "Far clipping plane (0 = infinite)")
	scale := fs.Float64("scale", 1, "World scale")
	matrices := fs.Bool("m", false, "Print matrices")
	fs.Parse(args)

	origin, err := parseVec(*eye)
	if err != nil {
		return fmt.Errorf("-eye: %w", err)
	}
	off, err := parseVec(*offset)
	if err != nil {
		return fmt.Errorf("-offset: %w", err)
	}

	region, err := loadRegion(cfg, fs.Arg(0))
	if err != nil {
		return err
	}

	res := region.Solve(warp.FrustumRequest{
		EyeOrigin:  origin,
		EyeOffset:  off,
		WorldScale: *scale,
		ZNear:      *near,
		ZFar:       *far,
	})

	fmt.Printf("Valid:    %v\n", res.Valid)
	fmt.Printf("Policy:   %s (%d attempts)\n", res.Policy, res.Attempts)
	if res.Behind > 0 {
		fmt.Printf("Behind:   %d samples\n", res.Behind)
	}
	if !res.Valid {
		return nil
	}
	deg := res.Angles.Degrees()
	fmt.Printf("Angles:   top %.3f  bottom %.3f  left %.3f  right %.3f (deg)\n", deg.Top, deg.Bottom, deg.Left, deg.Right)
	fmt.Printf("Position: %s\n", formatVec(res.CameraToWorld.Origin()))
	fmt.Printf("Forward:  %s\n", formatVec(res.CameraToWorld.Axis(0)))

	if *matrices {
		printMatrix("Projection", res.ProjectionMatrix)
		printMatrix("WorldToCamera", res.WorldToCamera)
		printMatrix("WorldToUV", res.WorldToUV)
	}
	return nil
}

func cmdBlend(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("blend", flag.ExitOnError)
	gamma := fs.Float64("gamma", float64(cfg.Data.AlphaGamma), "Embedded gamma")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: warptool blend [-gamma g] <image>")
		os.Exit(1)
	}

	m, err := blend.LoadFile(fs.Arg(0), float32(*gamma))
	if err != nil {
		return err
	}
	lo, hi := m.Range()
	fmt.Printf("Image:   %s\n", fs.Arg(0))
	fmt.Printf("Size:    %dx%d\n", m.Width, m.Height)
	fmt.Printf("Format:  %s (%d bytes/pixel)\n", m.Format, m.Format.BytesPerPixel())
	fmt.Printf("Gamma:   %.2f\n", m.Gamma)
	fmt.Printf("Range:   %.4f .. %.4f\n", lo, hi)
	return nil
}

func cmdWatch(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	eye := fs.String("eye", "0,0,0", "Eye origin solved after each reload")
	near := fs.Float64("near", 10, "Near clipping plane")
	fs.Parse(args)

	origin, err := parseVec(*eye)
	if err != nil {
		return fmt.Errorf("-eye: %w", err)
	}

	if cfg.Data.PollInterval <= 0 {
		return fmt.Errorf("data.poll_interval must be positive, got %v", cfg.Data.PollInterval)
	}
	files, err := cfg.ExternalFiles()
	if err != nil {
		return err
	}
	region, err := loadRegion(cfg, "")
	if err != nil {
		return err
	}

	req := warp.FrustumRequest{EyeOrigin: origin, WorldScale: 1, ZNear: *near}
	report := func() {
		res := region.Solve(req)
		deg := res.Angles.Degrees()
		logger.Info("frustum",
			zap.Bool("valid", res.Valid),
			zap.Stringer("policy", res.Policy),
			zap.Float64("top", deg.Top),
			zap.Float64("bottom", deg.Bottom),
			zap.Float64("left", deg.Left),
			zap.Float64("right", deg.Right))
	}
	report()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tracker := reload.NewTracker(files.Paths()...)
	logger.Sugar.Infow("watching", "files", tracker.Paths(), "interval", cfg.Data.PollInterval)

	err = reload.Poll(ctx, cfg.Data.PollInterval, tracker, func([]string) error {
		if err := region.LoadExternal(files); err != nil {
			return err
		}
		report()
		return nil
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func cmdConfig(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	save := fs.String("save", "", "Write the resolved config to this path")
	user := fs.Bool("user", false, "Write the resolved config to the user config dir")
	fs.Parse(args)

	if _, err := cfg.WarpSettings(); err != nil {
		return err
	}

	switch {
	case *save != "":
		if err := cfg.SaveTo(*save); err != nil {
			return err
		}
		fmt.Printf("Saved: %s\n", *save)
	case *user:
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Printf("Saved to %s\n", config.ConfigDir())
	default:
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		os.Stdout.Write(data)
	}
	return nil
}

// parseVec parses "x,y,z".
func parseVec(s string) (math.Vec3, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return math.Vec3{}, fmt.Errorf("want x,y,z, got %q", s)
	}
	var v [3]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return math.Vec3{}, err
		}
		v[i] = f
	}
	return math.Vec3{X: v[0], Y: v[1], Z: v[2]}, nil
}

func formatVec(v math.Vec3) string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", v.X, v.Y, v.Z)
}

func printMatrix(name string, m math.Mat4) {
	fmt.Printf("%s:\n", name)
	for _, row := range m {
		fmt.Printf("  % 12.6f % 12.6f % 12.6f % 12.6f\n", row[0], row[1], row[2], row[3])
	}
}
