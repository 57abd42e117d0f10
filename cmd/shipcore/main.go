package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/l1jgo/shipcore/internal/ai"
	"github.com/l1jgo/shipcore/internal/config"
	"github.com/l1jgo/shipcore/internal/core/event"
	coresys "github.com/l1jgo/shipcore/internal/core/system"
	"github.com/l1jgo/shipcore/internal/data"
	gonet "github.com/l1jgo/shipcore/internal/net"
	"github.com/l1jgo/shipcore/internal/persist"
	"github.com/l1jgo/shipcore/internal/scripting"
	"github.com/l1jgo/shipcore/internal/system"
	"github.com/l1jgo/shipcore/internal/world"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/width"
)

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
	fmt.Println("\033[36;1m  │\033[0m             shipcore  v0.1.0              \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	printer.Printf("  \033[1mgrid:\033[0m %d×%d cells of %.0f \033[90m(tick %s)\033[0m\n\n",
		2*cfg.Grid.HalfSide, 2*cfg.Grid.HalfSide, cfg.Grid.CellSize, cfg.Simulation.TickRate)
}

// displayWidth counts terminal columns; wide and fullwidth runes take two.
func displayWidth(s string) int {
	n := 0
	for _, r := range s {
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			n += 2
		default:
			n++
		}
	}
	return n
}

func printSection(title string) {
	lineLen := max(3, 46-displayWidth(title)-1)
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := printer.Sprintf("%d", count)
	dotsLen := max(3, 42-displayWidth(label)-len(numStr))
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main simulation logic ─────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/shipcore.toml"
	if p := os.Getenv("SHIPCORE_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg)

	// 3. Optional PostgreSQL
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var db *persist.DB
	if cfg.Database.Enabled {
		printSection("database")
		db, err = persist.NewDB(ctx, cfg.Database, log)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		printOK("PostgreSQL connected")

		version, err := db.RunMigrations(ctx)
		if err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		printOK(fmt.Sprintf("schema at version %d", version))
		fmt.Println()
	}

	// 4. Routine library
	printSection("routines")
	lib, err := loadLibrary(ctx, cfg, db, log)
	if err != nil {
		return fmt.Errorf("routines: %w", err)
	}
	digest, err := lib.Digest()
	if err != nil {
		return fmt.Errorf("routines: %w", err)
	}
	printStat("routines ("+cfg.AI.Source+")", lib.Len())
	printOK("digest " + digest[:16])
	if cfg.AI.Publish {
		if _, err := persist.NewRoutineRepo(db).Save(ctx, cfg.AI.LibraryName, lib); err != nil {
			return fmt.Errorf("publish routines: %w", err)
		}
		printOK(fmt.Sprintf("published as %q", cfg.AI.LibraryName))
	}
	fmt.Println()

	// 5. Ship tables and initial population
	printSection("world")
	table := data.DefaultArchetypes()
	if cfg.Data.ShipList != "" {
		if table, err = data.LoadArchetypeTable(cfg.Data.ShipList); err != nil {
			return fmt.Errorf("ship list: %w", err)
		}
	}
	scenario := data.DefaultScenario()
	if cfg.Data.Scenario != "" {
		if scenario, err = data.LoadScenario(cfg.Data.Scenario); err != nil {
			return fmt.Errorf("scenario: %w", err)
		}
	}
	printStat("archetypes", table.Count())

	ws, err := world.NewState(cfg.Grid)
	if err != nil {
		return fmt.Errorf("world: %w", err)
	}
	spawned, err := scenario.Populate(ws, table, lib, log)
	if err != nil {
		return fmt.Errorf("populate: %w", err)
	}
	printStat("ships spawned", spawned)
	printStats(ws)
	fmt.Println()

	// 6. Spectator server
	var netServer *gonet.Server
	if cfg.Spectator.Enabled {
		netServer, err = gonet.NewServer(cfg.Spectator, log)
		if err != nil {
			return fmt.Errorf("spectator server: %w", err)
		}
		go netServer.AcceptLoop()
	}

	// 7. Create systems and register with runner
	bus := event.NewBus()
	lo, hi := ws.Bounds()
	machine := ai.NewMachine(lib, world.AIAccess,
		ai.WithStepLimit(cfg.AI.StepLimit),
		ai.WithEpsilon(cfg.AI.Epsilon),
	)
	hitPoints := system.NewHitPointSystem(ws, bus, cfg.Simulation.PlayerSpawn, log)
	aiSys := system.NewAISystem(ws, machine, bus, log)

	runner := coresys.NewRunner()
	runner.Register(system.NewEventDispatchSystem(bus))
	runner.Register(system.NewEngineSystem(ws.Observe(), world.TransformOf, world.EnginesOf, world.PhysicsOf))
	runner.Register(system.NewPhysicsSystem(ws.Observe(), world.TransformOf, world.PhysicsOf, lo, hi))
	runner.Register(system.NewWeaponSystem(ws, bus, log))
	runner.Register(system.NewAttachmentSystem(ws))
	runner.Register(aiSys)
	runner.Register(hitPoints)
	if netServer != nil {
		runner.Register(system.NewInputSystem(ws, netServer.Pilot()))
		runner.Register(system.NewOutputSystem(ws, netServer, cfg.Simulation.OutputInterval, log))
	}
	var journal *system.JournalSystem
	if db != nil {
		journal = system.NewJournalSystem(bus, persist.NewJournalRepo(db), cfg.Simulation.StartTime, 100, log)
		runner.Register(journal)
	}
	runner.Register(system.NewCleanupSystem(ws.World))

	// 8. Start game loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Simulation.TickRate)
	defer ticker.Stop()

	printSection("running")
	if netServer != nil {
		printReady(fmt.Sprintf("spectators on ws://%s/ws", netServer.Addr()))
	}
	printReady(fmt.Sprintf("game loop started (tick: %s)", cfg.Simulation.TickRate))
	fmt.Println()

	stop := func(reason string) {
		log.Info("simulation stopping",
			zap.String("reason", reason),
			zap.Uint64("ticks", runner.Ticks()),
			zap.Int("player_deaths", hitPoints.Deaths()),
			zap.Int("routine_faults", aiSys.Faults()),
			zap.Int("ships", ws.Storage().Len()),
		)
		if journal != nil {
			journal.Flush()
		}
		if netServer != nil {
			netServer.Shutdown()
		}
	}

	for {
		select {
		case <-ticker.C:
			runner.Tick(cfg.Simulation.TickRate)
			if cfg.Simulation.MaxTicks > 0 && runner.Ticks() >= cfg.Simulation.MaxTicks {
				stop("max_ticks reached")
				printStats(ws)
				return nil
			}
		case sig := <-shutdownCh:
			stop(sig.String())
			return nil
		}
	}
}

// loadLibrary reads the routine library from the configured source.
func loadLibrary(ctx context.Context, cfg *config.Config, db *persist.DB, log *zap.Logger) (*ai.Library, error) {
	switch cfg.AI.Source {
	case config.SourceYAML:
		return data.LoadRoutineLibrary(cfg.AI.RoutineFile)
	case config.SourceLua:
		return scripting.LoadRoutines(cfg.AI.ScriptDir, log)
	case config.SourceDatabase:
		lib, err := persist.NewRoutineRepo(db).Load(ctx, cfg.AI.LibraryName)
		if err != nil {
			return nil, err
		}
		if lib == nil {
			return nil, fmt.Errorf("no routine library named %q in database", cfg.AI.LibraryName)
		}
		return lib, nil
	}
	return nil, errors.New("unknown routine source " + cfg.AI.Source)
}

func printStats(ws *world.State) {
	stats := ws.Stats()
	kinds := make([]string, 0, len(stats))
	counts := make(map[string]int, len(stats))
	for k, n := range stats {
		kinds = append(kinds, k.String())
		counts[k.String()] = n
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		printStat("  "+k, counts[k])
	}
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
