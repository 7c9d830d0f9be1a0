package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/orbitforge/studio/internal/component"
	"github.com/orbitforge/studio/internal/config"
	"github.com/orbitforge/studio/internal/core/ecs"
	"github.com/orbitforge/studio/internal/core/event"
	coresys "github.com/orbitforge/studio/internal/core/system"
	"github.com/orbitforge/studio/internal/math3"
	"github.com/orbitforge/studio/internal/persist"
	"github.com/orbitforge/studio/internal/physics"
	"github.com/orbitforge/studio/internal/render"
	"github.com/orbitforge/studio/internal/scene"
	"github.com/orbitforge/studio/internal/scripting"
	"github.com/orbitforge/studio/internal/system"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	cfgPath     string
	scenePath   string
	restoreName string
	duration    time.Duration
)

func main() {
	root := &cobra.Command{
		Use:   "studio",
		Short: "orbitforge studio runtime",
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default config/studio.toml, or $STUDIO_CONFIG)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run the frame pump",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}
	runCmd.Flags().StringVar(&scenePath, "scene", "", "scene manifest to instantiate at startup")
	runCmd.Flags().StringVar(&restoreName, "restore", "", "restore the latest snapshot with this name at startup")
	runCmd.Flags().DurationVar(&duration, "duration", 0, "stop after this long (0 = run until signal)")

	sceneCmd := &cobra.Command{
		Use:   "scene",
		Short: "scene manifest tools",
	}
	sceneCmd.AddCommand(&cobra.Command{
		Use:   "validate <file>",
		Short: "parse and validate a scene manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := scene.Load(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("scene %q ok: %d entities\n", m.Name, len(m.Entities))
			return nil
		},
	})

	snapshotCmd := &cobra.Command{
		Use:   "snapshot",
		Short: "scene snapshot tools",
	}
	snapshotCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "list stored snapshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listSnapshots()
		},
	})

	root.AddCommand(runCmd, sceneCmd, snapshotCmd)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	path := cfgPath
	if path == "" {
		path = os.Getenv("STUDIO_CONFIG")
	}
	if path == "" {
		path = "config/studio.toml"
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return config.Defaults(), nil
		}
	}
	return config.Load(path)
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	ctx := context.Background()

	world := ecs.NewWorld()
	bus := event.NewBus()

	engine := physics.NewKinematicEngine(physics.KinematicConfig{
		Gravity:  math3.Vec3{X: cfg.Physics.GravityX, Y: cfg.Physics.GravityY, Z: cfg.Physics.GravityZ},
		Substeps: cfg.Physics.Substeps,
	}, log)
	if err := engine.Init(ctx); err != nil {
		return fmt.Errorf("physics init: %w", err)
	}

	lua, err := scripting.NewEngine(cfg.Scripts.Dir, log)
	if err != nil {
		return fmt.Errorf("lua engine: %w", err)
	}
	defer lua.Close()

	if scenePath != "" {
		m, err := scene.Load(scenePath)
		if err != nil {
			return err
		}
		ids, err := m.Instantiate(world)
		if err != nil {
			return fmt.Errorf("instantiate scene: %w", err)
		}
		if err := m.AttachBodies(world, ids, engine); err != nil {
			return fmt.Errorf("attach bodies: %w", err)
		}
		log.Info("scene loaded",
			zap.String("scene", m.Name),
			zap.Int("entities", len(ids)),
		)
	}

	// Optional snapshot store.
	var sceneRepo *persist.SceneRepo
	if cfg.Database.DSN != "" {
		db, err := persist.NewDB(ctx, cfg.Database, log)
		if err != nil {
			return fmt.Errorf("db: %w", err)
		}
		defer db.Close()
		if err := persist.RunMigrations(ctx, db.Pool); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		sceneRepo = persist.NewSceneRepo(db)
	}

	if restoreName != "" {
		if sceneRepo == nil {
			return fmt.Errorf("--restore requires a configured database dsn")
		}
		ids, err := sceneRepo.LoadLatest(ctx, restoreName, world)
		if err != nil {
			return fmt.Errorf("restore snapshot: %w", err)
		}
		log.Info("snapshot restored",
			zap.String("name", restoreName),
			zap.Int("entities", len(ids)),
		)
	}

	// Systems in frame order: behaviors and physics mutate transforms,
	// the render system observes them, cleanup flushes destroys last.
	mgr := coresys.NewManager(log)
	renderSys := render.NewSystem(world, bus, log)
	if err := renderSys.RegisterRenderer(newLogRenderer(log)); err != nil {
		return err
	}
	for _, s := range []coresys.System{
		system.NewOrbitSystem(world),
		system.NewScriptSystem(world, lua),
		system.NewPhysicsSystem(world, engine),
		renderSys,
		system.NewCleanupSystem(world, engine, bus),
	} {
		if err := mgr.AddSystem(s); err != nil {
			return err
		}
	}

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Engine.TickRate)
	defer ticker.Stop()

	var deadline <-chan time.Time
	if duration > 0 {
		deadline = time.After(duration)
	}

	log.Info("frame pump started",
		zap.String("studio", cfg.Studio.Name),
		zap.Duration("tick", cfg.Engine.TickRate),
		zap.Int("entities", world.EntityCount()),
	)

	for {
		select {
		case <-ticker.C:
			bus.SwapBuffers()
			bus.DispatchAll()
			for _, fail := range mgr.UpdateAll(cfg.Engine.TickRate) {
				log.Warn("system failed this frame",
					zap.String("system", fail.System),
					zap.Error(fail.Err),
				)
			}
		case <-deadline:
			log.Info("duration reached, stopping")
			return saveAndExit(ctx, sceneRepo, world, log)
		case sig := <-shutdownCh:
			log.Info("shutdown signal", zap.String("signal", sig.String()))
			return saveAndExit(ctx, sceneRepo, world, log)
		}
	}
}

func saveAndExit(ctx context.Context, repo *persist.SceneRepo, world *ecs.World, log *zap.Logger) error {
	if repo == nil {
		return nil
	}
	id, err := repo.Save(ctx, "autosave", world)
	if err != nil {
		return fmt.Errorf("autosave: %w", err)
	}
	log.Info("autosave written", zap.Int64("snapshot", id))
	return nil
}

func listSnapshots() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Database.DSN == "" {
		return fmt.Errorf("no database dsn configured")
	}
	log := zap.NewNop()
	ctx := context.Background()

	db, err := persist.NewDB(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	defer db.Close()

	infos, err := persist.NewSceneRepo(db).List(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCREATED\tENTITIES")
	for _, info := range infos {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\n",
			info.ID, info.Name, info.CreatedAt.Format(time.RFC3339), info.Entities)
	}
	return w.Flush()
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}

// logRenderer is the host's built-in renderer: it "draws" celestial
// bodies into the log. Real graphics plugins replace it by registering a
// higher-priority renderer for the same component type.
type logRenderer struct {
	log    *zap.Logger
	nextID int
}

func newLogRenderer(log *zap.Logger) *logRenderer {
	return &logRenderer{log: log}
}

func (r *logRenderer) Name() string          { return "log-renderer" }
func (r *logRenderer) Priority() int         { return 0 }
func (r *logRenderer) ComponentType() string { return component.TypeCelestialBody }

func (r *logRenderer) CreateOrUpdate(c ecs.Component, prev render.Handle) (render.Handle, error) {
	body := c.(*component.CelestialBody)
	if prev != nil {
		return prev, nil
	}
	r.nextID++
	r.log.Debug("visual created",
		zap.String("body", body.Name),
		zap.Int("handle", r.nextID),
	)
	return r.nextID, nil
}

func (r *logRenderer) Dispose(h render.Handle) error {
	r.log.Debug("visual disposed", zap.Int("handle", h.(int)))
	return nil
}
