package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hordesim/simcore/internal/config"
	"github.com/hordesim/simcore/internal/core/event"
	coresys "github.com/hordesim/simcore/internal/core/system"
	"github.com/hordesim/simcore/internal/data"
	"github.com/hordesim/simcore/internal/diag"
	"github.com/hordesim/simcore/internal/persist"
	"github.com/hordesim/simcore/internal/scheduler"
	"github.com/hordesim/simcore/internal/scripting"
	"github.com/hordesim/simcore/internal/sim"
	"github.com/hordesim/simcore/internal/system"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// overlayHold is how long the headless host keeps the level-up overlay open.
const overlayHold = 750 * time.Millisecond

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

var printer = message.NewPrinter(language.English)

func printBanner(cfg *config.Config) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m              simcore  v0.1.0              \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m      horde survival simulation core       \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1marena:\033[0m %.0f×%.0f \033[90m(cell %.0f, cap %d)\033[0m\n\n",
		cfg.Sim.ArenaWidth, cfg.Sim.ArenaHeight, cfg.Sim.CellSize, cfg.Sim.EntityCap)
}

func printSection(title string) {
	lineLen := max(46-len(title)-1, 3)
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := printer.Sprintf("%d", count)
	dotsLen := max(42-len(label)-len(numStr), 3)
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main host logic ───────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/simcore.toml"
	if p := os.Getenv("SIMCORE_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	var runFor time.Duration
	if v := os.Getenv("SIMCORE_RUN_FOR"); v != "" {
		if runFor, err = time.ParseDuration(v); err != nil {
			return fmt.Errorf("SIMCORE_RUN_FOR: %w", err)
		}
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg)

	// 3. Run store
	printSection("database")
	startCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var runs *persist.RunRepo
	db, err := persist.Open(startCtx, cfg.Database, log)
	switch {
	case errors.Is(err, persist.ErrDisabled):
		printOK("run store disabled")
	case err != nil:
		return fmt.Errorf("database: %w", err)
	default:
		defer db.Close()
		runs = persist.NewRunRepo(db)
		printOK(fmt.Sprintf("%s connected, migrations applied", db.Dialect()))
	}
	fmt.Println()

	// 4. Templates and rules
	printSection("data")
	enemies, err := data.LoadEnemyTable(cfg.Data.Enemies)
	if err != nil {
		return fmt.Errorf("load enemy table: %w", err)
	}
	printStat("enemy templates", enemies.Count())

	weapons, err := data.LoadWeaponTable(cfg.Data.Weapons)
	if err != nil {
		return fmt.Errorf("load weapon table: %w", err)
	}
	printStat("weapon templates", weapons.Count())

	var rules sim.Rules = sim.DefaultRules{}
	if cfg.Scripting.Dir != "" {
		engine, err := scripting.NewEngine(cfg.Scripting.Dir, sim.DefaultRules{}, log)
		if err != nil {
			return fmt.Errorf("scripting: %w", err)
		}
		defer engine.Close()
		rules = engine
		printOK("lua rules loaded from " + cfg.Scripting.Dir)
	}
	fmt.Println()

	// 5. Simulation context
	seed := uint64(time.Now().UnixNano())
	simCtx, err := sim.NewContext(sim.Deps{
		Config:  cfg,
		Log:     log,
		Enemies: enemies,
		Weapons: weapons,
		Rules:   rules,
		Seed:    seed,
	})
	if err != nil {
		return fmt.Errorf("simulation: %w", err)
	}
	recorder := sim.NewRunRecorder(simCtx)

	// 6. Diagnostics feed
	var pub system.Publisher
	var diagSrv *diag.Server
	if cfg.Diag.Enabled {
		diagSrv = diag.NewServer(cfg.Diag, log)
		pub = diagSrv
	}

	// 7. Tick pipeline and scheduler
	var sched *scheduler.Scheduler
	runner := coresys.NewRunner()
	system.RegisterPipeline(runner, simCtx, system.NewOutputSystem(simCtx, recorder, pub, func() (string, string) {
		return sched.Status()
	}))
	runner.Register(newDirector(simCtx, seed, log))

	perf := scheduler.NewPerfMonitor(cfg.Perf, cfg.Scheduler.TargetInterval())
	sched = scheduler.New(cfg.Scheduler, runner, simCtx.Bus, perf, scheduler.Hooks{
		SetCap: func(n int) { simCtx.Registry.SetCap(min(n, cfg.Sim.EntityCap)) },
		OnSuspend: func() {
			log.Debug("pools drained on suspend", zap.Int("objects", simCtx.Pools.Drain()))
		},
	}, log)

	event.Subscribe(simCtx.Bus, func(ev event.LevelUp) {
		log.Info("level up", zap.Int("level", ev.Level))
		sched.OpenOverlayFor(overlayHold)
	})

	// 8. Run until signalled
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if runFor > 0 {
		var cancelRun context.CancelFunc
		ctx, cancelRun = context.WithTimeout(ctx, runFor)
		defer cancelRun()
	}

	printSection("ready")
	printReady(fmt.Sprintf("tick loop started (%.0f Hz, max step %.1f ms)",
		cfg.Scheduler.TargetRate, cfg.Scheduler.MaxDelta*1000))
	if diagSrv != nil {
		printReady("diagnostics on " + cfg.Diag.BindAddress)
	}
	printReady("SIGUSR1 toggles visibility, SIGUSR2 toggles pause")
	fmt.Println()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sched.Run(gctx) })
	if diagSrv != nil {
		g.Go(func() error { return diagSrv.Run(gctx) })
	}
	g.Go(func() error {
		hostSignals(gctx, sched, log)
		return nil
	})
	if err := g.Wait(); err != nil {
		log.Error("host loop stopped", zap.Error(err))
	}

	// 9. Summary
	summary := recorder.Summary()
	printSection("run summary")
	printStat("ticks", int(summary.Ticks))
	printStat("enemies killed", summary.EnemiesKilled)
	printStat("orbs collected", summary.OrbsCollected)
	printStat("peak live entities", summary.PeakLive)
	printStat("max level", summary.MaxLevel)
	printStat("culled", int(summary.Culled))
	fmt.Println()

	if runs != nil {
		saveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := runs.Save(saveCtx, summary); err != nil {
			return fmt.Errorf("save run: %w", err)
		}
		log.Info("run saved", zap.Stringer("id", summary.ID), zap.Duration("duration", summary.Duration()))
	}
	log.Info("simcore stopped")
	return nil
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
