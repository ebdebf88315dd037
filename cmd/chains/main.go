// Command chains runs step chains defined in the config file: once, streamed,
// batched over an inputs file, or continuously on their cron schedules.
//
// Usage:
//
//	chains [flags] run <chain>
//	chains [flags] stream <chain>
//	chains [flags] batch <chain> -inputs inputs.jsonl
//	chains [flags] serve
//	chains [flags] history [chain]
package main

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/aschepis/backscratcher/chains/callable"
	"github.com/aschepis/backscratcher/chains/chain"
	"github.com/aschepis/backscratcher/chains/config"
	chainslogger "github.com/aschepis/backscratcher/chains/logger"
	"github.com/aschepis/backscratcher/chains/migrations"
	"github.com/aschepis/backscratcher/chains/runs"
	"github.com/aschepis/backscratcher/chains/runtime"
	"github.com/aschepis/backscratcher/chains/tools"
)

const defaultPollInterval = 15 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = flag.String("config", config.GetConfigPath(), "Path to config file")
		logFile    = flag.String("logfile", "", "Path to log file. If not set, logs to stderr")
		pretty     = flag.Bool("pretty", false, "Use pretty console output (only valid when logfile is not set)")
		input      = flag.String("input", "", "Initial context as a JSON object")
		inputsFile = flag.String("inputs", "", "Path to a JSON-lines file of initial contexts (batch)")
		limit      = flag.Uint64("limit", 20, "Maximum number of history entries to show")
	)
	flag.Parse()

	if *logFile != "" && *pretty {
		return fmt.Errorf("--logfile and --pretty are mutually exclusive")
	}

	logger, err := chainslogger.Init(*logFile, *pretty)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Info().Str("config", *configPath).Msg("Loaded configuration")

	command := flag.Arg(0)
	if command == "" {
		return fmt.Errorf("no command given (want run, stream, batch, serve or history)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch command {
	case "run":
		return runOnce(ctx, cfg, logger, flag.Arg(1), *input)
	case "stream":
		return runStream(ctx, cfg, logger, flag.Arg(1), *input)
	case "batch":
		return runBatch(ctx, cfg, logger, flag.Arg(1), *inputsFile)
	case "serve":
		return serve(ctx, cfg, logger)
	case "history":
		return showHistory(ctx, cfg, logger, flag.Arg(1), *limit)
	default:
		return fmt.Errorf("unknown command %q (want run, stream, batch, serve or history)", command)
	}
}

// buildRegistry assembles the callable registry: built-in tools, configured
// LLM providers and any configured MCP servers. The returned closer shuts
// down the MCP server processes.
func buildRegistry(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*callable.Registry, func(), error) {
	reg := callable.NewRegistry(logger)

	if err := tools.RegisterBuiltins(reg, logger); err != nil {
		return nil, nil, err
	}
	if err := config.RegisterModelCallables(cfg, reg, logger); err != nil {
		return nil, nil, err
	}

	var bridges []*tools.MCPBridge
	closeAll := func() {
		for _, b := range bridges {
			if err := b.Close(); err != nil {
				logger.Warn().Err(err).Msg("Failed to close MCP bridge")
			}
		}
	}

	for name, serverCfg := range cfg.MCPServers {
		bridge, err := tools.NewMCPBridge(logger, serverCfg.Command, serverCfg.Env, serverCfg.Args)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("mcp server %q: %w", name, err)
		}
		bridges = append(bridges, bridge)

		if err := bridge.Start(ctx); err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("mcp server %q: %w", name, err)
		}
		count, err := bridge.RegisterTools(ctx, reg)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("mcp server %q: %w", name, err)
		}
		logger.Info().Str("server", name).Int("tools", count).Msg("Registered MCP tools")
	}

	return reg, closeAll, nil
}

func buildChain(cfg *config.Config, reg *callable.Registry, logger zerolog.Logger, name string) (*chain.Chain, error) {
	if name == "" {
		return nil, fmt.Errorf("no chain name given")
	}
	chainCfg, ok := cfg.Chains[name]
	if !ok {
		return nil, fmt.Errorf("chain %q not defined in config", name)
	}
	return config.BuildChain(chainCfg, reg, logger)
}

func parseInitial(input string) (map[string]any, error) {
	if input == "" {
		return nil, nil
	}
	var initial map[string]any
	if err := json.Unmarshal([]byte(input), &initial); err != nil {
		return nil, fmt.Errorf("invalid --input JSON: %w", err)
	}
	return initial, nil
}

// openStore opens the run-history database, applying migrations.
func openStore(cfg *config.Config, logger zerolog.Logger) (*runs.Store, func(), error) {
	db, err := sql.Open("sqlite3", cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := migrations.Run(db, logger); err != nil {
		_ = db.Close() //nolint:errcheck // Cleanup on error
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	closer := func() { _ = db.Close() } //nolint:errcheck // No remedy for db close errors
	return runs.NewStore(db, logger), closer, nil
}

func runOnce(ctx context.Context, cfg *config.Config, logger zerolog.Logger, name, input string) error {
	reg, closeReg, err := buildRegistry(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeReg()

	c, err := buildChain(cfg, reg, logger, name)
	if err != nil {
		return err
	}
	initial, err := parseInitial(input)
	if err != nil {
		return err
	}

	store, closeDB, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer closeDB()

	startedAt := time.Now()
	cctx, runErr := c.Run(ctx, initial)
	if _, recErr := store.RecordRun(ctx, name, startedAt, chain.RunResult{Context: cctx, Err: runErr}); recErr != nil {
		logger.Warn().Err(recErr).Msg("Failed to record run")
	}
	if runErr != nil {
		return runErr
	}

	encoded, err := json.MarshalIndent(cctx.Values(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	fmt.Println(string(encoded))
	return nil
}

func runStream(ctx context.Context, cfg *config.Config, logger zerolog.Logger, name, input string) error {
	reg, closeReg, err := buildRegistry(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeReg()

	c, err := buildChain(cfg, reg, logger, name)
	if err != nil {
		return err
	}
	initial, err := parseInitial(input)
	if err != nil {
		return err
	}

	stream, err := c.RunStream(ctx, initial)
	if err != nil {
		return err
	}
	defer stream.Close() //nolint:errcheck // No remedy for stream close errors

	for stream.Next() {
		fmt.Print(stream.Text())
	}
	fmt.Println()
	return stream.Err()
}

func runBatch(ctx context.Context, cfg *config.Config, logger zerolog.Logger, name, inputsFile string) error {
	if inputsFile == "" {
		return fmt.Errorf("batch requires --inputs")
	}

	file, err := os.Open(inputsFile) //#nosec 304 -- intentional file read for batch inputs
	if err != nil {
		return fmt.Errorf("failed to open inputs file: %w", err)
	}
	defer file.Close() //nolint:errcheck // No remedy for file close errors

	var initials []map[string]any
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var initial map[string]any
		if err := json.Unmarshal(line, &initial); err != nil {
			return fmt.Errorf("inputs line %d: %w", len(initials)+1, err)
		}
		initials = append(initials, initial)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read inputs file: %w", err)
	}

	reg, closeReg, err := buildRegistry(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeReg()

	c, err := buildChain(cfg, reg, logger, name)
	if err != nil {
		return err
	}

	results := c.RunBatchAsync(ctx, initials)
	for i, res := range results {
		if res.Err != nil {
			fmt.Printf("%d\terror\t%v\n", i, res.Err)
			continue
		}
		encoded, err := json.Marshal(res.Context.Last())
		if err != nil {
			return fmt.Errorf("encode result %d: %w", i, err)
		}
		fmt.Printf("%d\tok\t%s\n", i, encoded)
	}
	return nil
}

func serve(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	reg, closeReg, err := buildRegistry(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeReg()

	store, closeDB, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer closeDB()

	scheduler, err := runtime.NewScheduler(store, defaultPollInterval, logger)
	if err != nil {
		return err
	}

	scheduled := 0
	for name, chainCfg := range cfg.Chains {
		if chainCfg.Schedule == "" || chainCfg.Disabled {
			continue
		}
		c, err := config.BuildChain(chainCfg, reg, logger)
		if err != nil {
			return err
		}
		if err := scheduler.AddChain(name, chainCfg.Schedule, c); err != nil {
			return err
		}
		scheduled++
	}
	if scheduled == 0 {
		return fmt.Errorf("no enabled chains with a schedule in config")
	}

	logger.Info().Int("chains", scheduled).Msg("chains scheduler starting")
	scheduler.Start(ctx)
	return nil
}

func showHistory(ctx context.Context, cfg *config.Config, logger zerolog.Logger, name string, limit uint64) error {
	store, closeDB, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer closeDB()

	recorded, err := store.ListRuns(ctx, name, limit)
	if err != nil {
		return err
	}

	for _, r := range recorded {
		line := fmt.Sprintf("%d\t%s\t%s\t%s", r.ID, r.StartedAt.Format(time.RFC3339), r.ChainName, r.Status)
		if r.Error != "" {
			line += "\t" + r.Error
		}
		fmt.Println(line)
	}
	return nil
}
