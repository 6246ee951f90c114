package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"gridlock/server/internal/camera"
	"gridlock/server/internal/dialogue"
	"gridlock/server/internal/entity"
	"gridlock/server/internal/geom"
	servernet "gridlock/server/internal/net"
	"gridlock/server/internal/observability"
	"gridlock/server/internal/settings"
	"gridlock/server/internal/sim"
	"gridlock/server/internal/telemetry"
	"gridlock/server/internal/worldgen"
	"gridlock/server/logging"
	"gridlock/server/logging/lifecycle"
	loggingSinks "gridlock/server/logging/sinks"
)

// Config is the resolved server configuration. LoadConfig fills it from
// defaults, an optional config file, and GRIDLOCK_* environment variables.
type Config struct {
	Addr            string        `mapstructure:"addr"`
	Seed            string        `mapstructure:"seed"`
	TickRate        int           `mapstructure:"tickRate"`
	WorldWidth      int           `mapstructure:"worldWidth"`
	WorldHeight     int           `mapstructure:"worldHeight"`
	SettingsPath    string        `mapstructure:"settingsPath"`
	DialogueURL     string        `mapstructure:"dialogueUrl"`
	DialogueTimeout time.Duration `mapstructure:"dialogueTimeout"`
	LogColor        bool          `mapstructure:"logColor"`
	LogLevel        string        `mapstructure:"logLevel"`
}

// LoadConfig resolves the server configuration. An empty path skips the file
// layer; a missing file at the given path is not an error.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.SetDefault("addr", ":8080")
	v.SetDefault("seed", "")
	v.SetDefault("tickRate", 30)
	v.SetDefault("worldWidth", 0)
	v.SetDefault("worldHeight", 0)
	v.SetDefault("settingsPath", "settings.json")
	v.SetDefault("dialogueUrl", "")
	v.SetDefault("dialogueTimeout", 5*time.Second)
	v.SetDefault("logColor", true)
	v.SetDefault("logLevel", "info")

	v.SetEnvPrefix("GRIDLOCK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Seed == "" {
		cfg.Seed = fmt.Sprintf("session-%d", time.Now().UnixNano())
	}
	return cfg, nil
}

func severityFor(level string) logging.Severity {
	switch strings.ToLower(level) {
	case "debug":
		return logging.SeverityDebug
	case "warn":
		return logging.SeverityWarn
	case "error":
		return logging.SeverityError
	default:
		return logging.SeverityInfo
	}
}

// Run boots a full game session and serves it until ctx is cancelled.
func Run(ctx context.Context, cfg Config) error {
	zl := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: !cfg.LogColor, TimeFormat: "15:04:05"}).
		With().Timestamp().Logger()
	logger := telemetry.LoggerFunc(func(format string, args ...any) {
		zl.Info().Msgf(format, args...)
	})

	logConfig := logging.DefaultConfig()
	logConfig.MinimumSeverity = severityFor(cfg.LogLevel)
	logConfig.Console.UseColor = cfg.LogColor
	router, err := logging.NewRouter(logging.SystemClock{}, logConfig, []logging.NamedSink{
		{Name: "console", Sink: loggingSinks.NewConsoleSink(os.Stderr, logConfig.Console)},
	})
	if err != nil {
		return fmt.Errorf("construct logging router: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if cerr := router.Close(closeCtx); cerr != nil {
			logger.Printf("failed to close logging router: %v", cerr)
		}
	}()

	metrics := observability.NewMetrics()
	if err := metrics.Err(); err != nil {
		logger.Printf("metrics instruments degraded: %v", err)
	}

	playerSettings, err := settings.Load(cfg.SettingsPath)
	if err != nil {
		logger.Printf("settings file ignored: %v", err)
	}

	var gen dialogue.Generator = dialogue.Static{}
	if client := dialogue.NewClient(dialogue.Config{BaseURL: cfg.DialogueURL, Timeout: cfg.DialogueTimeout}); client != nil {
		gen = client
		logger.Printf("dialogue service at %s", cfg.DialogueURL)
	}

	worldCfg := worldgen.Config{Width: cfg.WorldWidth, Height: cfg.WorldHeight, Seed: cfg.Seed}
	worldMap, entities := worldgen.Generate(worldCfg, nil)
	spawn := worldgen.SpawnPosition(worldMap, worldCfg)
	spawn.Y += playerHeight / 2

	lifecycle.WorldGenerated(ctx, router, lifecycle.WorldGeneratedPayload{
		Width:    worldMap.Width,
		Height:   worldMap.Height,
		Entities: len(entities),
		Seed:     cfg.Seed,
	})
	logger.Printf("world generated: %dx%d tiles, %d entities, seed %q",
		worldMap.Width, worldMap.Height, len(entities), cfg.Seed)

	player := entity.New("player-1", entity.KindPlayer, spawn,
		geom.Vec3{X: playerWidth, Y: playerHeight, Z: playerWidth}, playerMaxHealth)
	state := sim.NewState(player, entities, worldMap)

	// The hub does not exist yet when the engine is built; the closures
	// capture the variable so the wiring resolves before the loop starts.
	var hub *servernet.Hub
	engine := sim.NewEngine(sim.Config{
		SpawnPos: spawn,
		Camera: camera.Config{
			Sensitivity: playerSettings.Gameplay.Sensitivity,
			InvertY:     playerSettings.Gameplay.InvertY,
		},
		DialogueTimeout: cfg.DialogueTimeout,
	}, state, sim.Deps{
		Publisher: router,
		Logger:    logger,
		Metrics:   metrics,
		Dialogue:  gen,
		OnUpdate:  func(u sim.Update) { hub.PushUpdate(u) },
	})

	loop := sim.NewLoop(engine, sim.LoopConfig{TickRate: cfg.TickRate}, sim.LoopHooks{
		AfterStep: func(result sim.LoopStepResult) { hub.BroadcastSnapshot(result.Snapshot) },
	}, sim.LoopDeps{Logger: logger, Metrics: metrics})

	hub = servernet.NewHub(loop, engine, worldMap, player.ID, logger, metrics)

	mux := http.NewServeMux()
	hub.Routes(mux)
	srv := &http.Server{Addr: cfg.Addr, Handler: mux}

	loopCtx, stopLoop := context.WithCancel(ctx)
	defer stopLoop()
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		loop.Run(loopCtx)
	}()

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("server listening on %s", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			stopLoop()
			<-loopDone
			return fmt.Errorf("server failed: %w", err)
		}
	}

	stopLoop()
	<-loopDone

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	stats := router.Stats()
	logger.Printf("server stopped, %d events logged, %d dropped", stats.EventsTotal, stats.DroppedTotal)
	return nil
}

const (
	playerWidth     = 0.9
	playerHeight    = 1.8
	playerMaxHealth = 100
)
