// movefuzz - Coverage-guided fuzzer for Move smart contracts
// A feedback-driven fuzzer over Sui and Aptos entry functions.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/movefuzz/movefuzz/internal/adapter"
	"github.com/movefuzz/movefuzz/internal/adapter/aptos"
	"github.com/movefuzz/movefuzz/internal/adapter/sui"
	"github.com/movefuzz/movefuzz/internal/analyzer"
	"github.com/movefuzz/movefuzz/internal/config"
	"github.com/movefuzz/movefuzz/internal/engine"
	"github.com/movefuzz/movefuzz/internal/memory"
	"github.com/movefuzz/movefuzz/internal/mutator"
	"github.com/movefuzz/movefuzz/internal/report"
	"github.com/movefuzz/movefuzz/internal/ui"
	"github.com/movefuzz/movefuzz/internal/vmexec"
	"github.com/movefuzz/movefuzz/pkg/types"
)

var version = "0.1.0-dev"

// Shared flags, populated by whichever subcommand runs.
var (
	rpcURL     string
	pkgAddr    string
	moduleName string
	funcName   string
	typeArgs   []string
	callArgs   []string
	senderAddr string
	abiPath    string
	modulePath string

	iterations int64
	timeout    time.Duration
	configFile string
	outputDir  string
	format     string
	verbose    bool
	tuiMode    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "movefuzz",
		Short: "movefuzz - coverage-guided fuzzer for Move smart contracts",
		Long: `movefuzz drives a feedback-directed fuzz loop over a single Move
entry function, on a Sui-style or Aptos-style chain.

Features:
  - Coverage-guided mutation (AFL-style edge map, corpus/solutions sets)
  - Type-aware argument mutation (sui: power-of-two, boundary, random; aptos: random, bitflip)
  - Crash/abort/shift-overflow objective, with fuzzy dedup of findings
  - JSON/HTML/text reporting, optional terminal dashboard`,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to config file (YAML), overrides flag defaults")
	rootCmd.PersistentFlags().StringVarP(&moduleName, "module", "m", "", "Module name to fuzz")
	rootCmd.PersistentFlags().StringVarP(&funcName, "function", "f", "", "Entry function name to fuzz")
	rootCmd.PersistentFlags().StringSliceVar(&typeArgs, "type-args", nil, "Type arguments for the entry function (comma-separated)")
	rootCmd.PersistentFlags().StringSliceVar(&callArgs, "args", nil, "Literal seed arguments for the entry function (comma-separated)")
	rootCmd.PersistentFlags().Int64VarP(&iterations, "iterations", "n", 1_000_000, "Maximum fuzz iterations (0 = unbounded)")
	rootCmd.PersistentFlags().DurationVarP(&timeout, "timeout", "t", engine.DefaultTimeout, "Wall-clock campaign timeout")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output", "o", ".", "Directory to write the report file into")
	rootCmd.PersistentFlags().StringVar(&format, "format", "text", "Report format: json, html, text")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose progress logging")
	rootCmd.PersistentFlags().BoolVar(&tuiMode, "tui", false, "Show a live terminal dashboard instead of log lines")

	suiCmd := &cobra.Command{
		Use:   "sui",
		Short: "Fuzz an entry function on a Sui-style RPC simulator",
		RunE:  runSui,
	}
	suiCmd.Flags().StringVar(&rpcURL, "rpc-url", "", "Full node RPC URL the backing store reads base state from")
	suiCmd.Flags().StringVarP(&pkgAddr, "package", "p", "", "Hex address of the package/module to fuzz (0x...)")
	suiCmd.Flags().StringVar(&senderAddr, "sender", "0x1", "Hex address of the transaction sender (0x...)")
	rootCmd.AddCommand(suiCmd)

	aptosCmd := &cobra.Command{
		Use:   "aptos",
		Short: "Fuzz an entry function against an in-process Aptos-style module",
		RunE:  runAptos,
	}
	aptosCmd.Flags().StringVarP(&pkgAddr, "package", "p", "", "Hex address the module is published under (0x...)")
	aptosCmd.Flags().StringVar(&senderAddr, "sender", "0x1", "Hex address of the transaction sender (0x...)")
	aptosCmd.Flags().StringVar(&abiPath, "abi-path", "", "Path to the module's ABI JSON (accepted; seeding does not read it, arguments come from --args only)")
	aptosCmd.Flags().StringVar(&modulePath, "module-path", "", "Path to compiled module bytecode to deploy before fuzzing")
	rootCmd.AddCommand(aptosCmd)

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("movefuzz version %s\n", version)
		},
	}
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func printBanner(chain string) {
	fmt.Println()
	fmt.Println("  movefuzz " + version + " - coverage-guided Move fuzzer")
	fmt.Println("  chain: " + chain)
	fmt.Println()
}

// loadConfig builds an *config.Config starting from the config file (or
// the defaults when none was given), then overlaying CLI flags. Flags set
// explicitly on the command line always take the file's place for fields
// they cover; a flag left at its default does not replace a file value.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		fileCfg, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = fileCfg
	}
	useFlag := func(name string) bool {
		return configFile == "" || cmd.Flags().Changed(name)
	}

	if moduleName != "" {
		cfg.Target.Module = moduleName
	}
	if funcName != "" {
		cfg.Target.Function = funcName
	}
	if len(typeArgs) > 0 {
		cfg.Target.TypeArgs = typeArgs
	}
	if len(callArgs) > 0 {
		cfg.Target.Args = callArgs
	}
	if pkgAddr != "" {
		cfg.Target.Package = pkgAddr
	}
	if senderAddr != "" && useFlag("sender") {
		cfg.Target.Sender = senderAddr
	}
	if rpcURL != "" {
		cfg.RPC.URL = rpcURL
	}
	if abiPath != "" {
		cfg.Target.ABIPath = abiPath
	}
	if modulePath != "" {
		cfg.Target.ModulePath = modulePath
	}
	if useFlag("iterations") {
		cfg.Engine.Iterations = iterations
	}
	if timeout != 0 && useFlag("timeout") {
		cfg.Engine.Timeout = timeout
	}
	if format != "" && useFlag("format") {
		cfg.Output.Format = format
	}
	cfg.Output.Verbose = cfg.Output.Verbose || verbose

	return cfg, nil
}

func runSui(cmd *cobra.Command, args []string) error {
	printBanner("sui")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Target.Module == "" || cfg.Target.Function == "" {
		return fmt.Errorf("--module and --function are required")
	}
	if cfg.RPC.URL == "" {
		return fmt.Errorf("--rpc-url is required for the sui subcommand")
	}

	adapterCfg, err := buildAdapterConfig(cfg)
	if err != nil {
		return err
	}

	a := sui.New(adapterCfg, cfg.RPC.URL, vmexec.NewUnimplementedVM())
	orch := mutator.NewSuiOrchestrator()

	return runCampaign(a, orch, cfg)
}

func runAptos(cmd *cobra.Command, args []string) error {
	printBanner("aptos")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Target.Module == "" || cfg.Target.Function == "" {
		return fmt.Errorf("--module and --function are required")
	}

	adapterCfg, err := buildAdapterConfig(cfg)
	if err != nil {
		return err
	}

	var moduleBytes []byte
	if cfg.Target.ModulePath != "" {
		moduleBytes, err = os.ReadFile(cfg.Target.ModulePath)
		if err != nil {
			return fmt.Errorf("read --module-path: %w", err)
		}
	}

	a := aptos.New(adapterCfg, moduleBytes, vmexec.NewUnimplementedVM())
	orch := mutator.NewAptosOrchestrator()

	return runCampaign(a, orch, cfg)
}

// buildAdapterConfig translates the yaml/CLI TargetConfig into the
// address-and-TypeTag-typed adapter.Config every ChainAdapter wants.
func buildAdapterConfig(cfg *config.Config) (adapter.Config, error) {
	moduleAddr, err := types.ParseAddress(cfg.Target.Package)
	if err != nil {
		return adapter.Config{}, fmt.Errorf("--package: %w", err)
	}
	sender, err := types.ParseAddress(cfg.Target.Sender)
	if err != nil {
		return adapter.Config{}, fmt.Errorf("--sender: %w", err)
	}
	tags, err := parseTypeTags(cfg.Target.TypeArgs)
	if err != nil {
		return adapter.Config{}, err
	}

	return adapter.Config{
		ModuleAddress: moduleAddr,
		ModuleName:    cfg.Target.Module,
		FunctionName:  cfg.Target.Function,
		TypeArgs:      tags,
		Sender:        sender,
		Args:          cfg.Target.Args,
	}, nil
}

// parseTypeTags parses a list of Move type-tag strings, e.g. "u64",
// "address", "vector<u8>", or a qualified struct tag kept verbatim as
// Generic.
func parseTypeTags(tags []string) ([]types.TypeTag, error) {
	if len(tags) == 0 {
		return nil, nil
	}
	out := make([]types.TypeTag, 0, len(tags))
	for _, t := range tags {
		tt, err := parseTypeTag(strings.TrimSpace(t))
		if err != nil {
			return nil, err
		}
		out = append(out, tt)
	}
	return out, nil
}

func parseTypeTag(s string) (types.TypeTag, error) {
	if strings.HasPrefix(s, "vector<") && strings.HasSuffix(s, ">") {
		inner, err := parseTypeTag(s[len("vector<") : len(s)-1])
		if err != nil {
			return types.TypeTag{}, err
		}
		return types.TypeTag{Kind: types.KindVector, Elem: &inner}, nil
	}

	switch s {
	case "u8":
		return types.TypeTag{Kind: types.KindU8}, nil
	case "u16":
		return types.TypeTag{Kind: types.KindU16}, nil
	case "u32":
		return types.TypeTag{Kind: types.KindU32}, nil
	case "u64":
		return types.TypeTag{Kind: types.KindU64}, nil
	case "u128":
		return types.TypeTag{Kind: types.KindU128}, nil
	case "u256":
		return types.TypeTag{Kind: types.KindU256}, nil
	case "bool":
		return types.TypeTag{Kind: types.KindBool}, nil
	case "address":
		return types.TypeTag{Kind: types.KindAddress}, nil
	default:
		return types.TypeTag{Kind: types.KindObjectRef, Generic: s}, nil
	}
}

// runCampaign wires an already-constructed adapter and orchestrator
// into an Engine, drives it to completion or interruption, and writes
// the resulting report. Shared by both the sui and aptos subcommands.
func runCampaign(a adapter.ChainAdapter, orch *mutator.Orchestrator, cfg *config.Config) error {
	engCfg := engine.Config{
		MaxIterations: cfg.Engine.Iterations,
		Timeout:       cfg.Engine.Timeout,
		MapSize:       cfg.Engine.MapSize,
	}
	eng := engine.New(a, orch, engCfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	start := time.Now()

	memMonitor := memory.NewMonitor(5*time.Second, memory.DefaultThreshold())
	memMonitor.Start()
	defer memMonitor.Stop()
	go logMemoryAlerts(memMonitor, cfg.Output.Verbose)

	seed, err := a.SeedInput(ctx)
	if err != nil {
		return fmt.Errorf("seed input: %w", err)
	}
	if err := eng.AddInput(ctx, seed); err != nil {
		return fmt.Errorf("evaluate seed input: %w", err)
	}

	target := fmt.Sprintf("%s::%s", cfg.Target.Module, cfg.Target.Function)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	var dash *ui.Dashboard
	var program interface{ Quit() }
	if tuiMode {
		dash = ui.NewDashboard()
		dash.SetTarget(target)
		dash.Start()
		p := ui.RunWithProgram(dash)
		program = p
		go p.Run()
		go pollStats(eng, dash)
	} else if cfg.Output.Verbose {
		fmt.Printf("  [*] Target: %s\n", target)
		fmt.Printf("  [*] Iterations: %d  Timeout: %s\n", engCfg.MaxIterations, engCfg.Timeout)
		go logProgress(eng)
	}

	statsCh := make(chan engine.Stats, 1)
	go func() {
		statsCh <- eng.Run(ctx)
	}()

	var stats engine.Stats
	select {
	case stats = <-statsCh:
	case <-sigChan:
		fmt.Println("\n  [*] Stopping, waiting for the in-flight iteration to finish...")
		eng.Stop()
		stats = <-statsCh
	}

	if dash != nil {
		dash.Complete()
		if program != nil {
			program.Quit()
		}
	}

	return writeReport(eng, a, target, cfg, stats, time.Since(start))
}

func pollStats(eng *engine.Engine, dash *ui.Dashboard) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for range ticker.C {
		snap := eng.Snapshot()
		dash.GetStats().Update(snap.Iterations, int64(snap.CorpusSize), int64(snap.SolutionsSize), int64(snap.EdgesCovered), snap.ErrorCount)
		if snap.TimedOut {
			return
		}
	}
}

// logMemoryAlerts drains a campaign's memory.Monitor alert channel for
// its lifetime, printing each alert when the campaign runs verbose. A
// long iteration-heavy campaign can run for hours unattended; a heap
// that keeps growing past the threshold is worth surfacing before the
// process gets OOM-killed mid-run.
func logMemoryAlerts(mon *memory.Monitor, verbose bool) {
	for alert := range mon.GetAlerts() {
		if verbose {
			fmt.Printf("  [!] memory: %s (value=%d threshold=%d)\n", alert.Message, alert.Value, alert.Threshold)
		}
	}
}

func logProgress(eng *engine.Engine) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for range ticker.C {
		snap := eng.Snapshot()
		fmt.Printf("  [*] iterations=%d corpus=%d solutions=%d edges=%d\n",
			snap.Iterations, snap.CorpusSize, snap.SolutionsSize, snap.EdgesCovered)
	}
}

func writeReport(eng *engine.Engine, a adapter.ChainAdapter, target string, cfg *config.Config, stats engine.Stats, elapsed time.Duration) error {
	findings := make([]report.Finding, 0, eng.Solutions().Len())
	for _, tc := range eng.Solutions().All() {
		outcome, ok := eng.SolutionOutcome(tc.Hash)
		if !ok {
			continue
		}
		findings = append(findings, report.Finding{
			ID:        fmt.Sprintf("%s-%d", a.Name(), tc.ID),
			Severity:  report.SeverityOf(outcome, false),
			Function:  target,
			Outcome:   outcome.Kind,
			AbortCode: outcome.AbortCode,
			Detail:    outcome.Detail,
			Timestamp: time.Now(),
		})
	}

	deduped, err := analyzer.NewFindingDeduplicator(nil).Summarize(findings)
	if err != nil {
		return fmt.Errorf("deduplicate findings: %w", err)
	}

	r := report.NewReport(eng.RunID(), a.Name(), target)
	r.SetStatistics(report.Statistics{
		Iterations:    stats.Iterations,
		CorpusSize:    stats.CorpusSize,
		SolutionsSize: stats.SolutionsSize,
		ErrorCount:    stats.ErrorCount,
		EdgesCovered:  stats.EdgesCovered,
		TimedOut:      stats.TimedOut,
		LastFoundAgo:  stats.LastFoundAgo,
		Duration:      elapsed,
	})
	for _, f := range deduped {
		r.AddFinding(f)
	}

	mgr := report.NewManager(outputDir)
	if err := mgr.WriteToWriter(r, "text", os.Stdout); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	path, err := mgr.Generate(r, cfg.Output.Format)
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	fmt.Printf("\n  [*] Report written to %s\n", path)
	return nil
}
