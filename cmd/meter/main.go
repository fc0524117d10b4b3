// Command meter is a passive, real-time DPS/HPS meter for a UDP-based
// Photon game client. It observes traffic live or replays a capture
// file, reconstructs combat events, and prints a rolling per-player
// damage/heal leaderboard.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"syscall"
	"time"

	"github.com/albiondps/meter/pkg/backend"
	"github.com/albiondps/meter/pkg/capture"
	"github.com/albiondps/meter/pkg/meter"
	"github.com/fatih/color"
)

var (
	appName    = "Albion DPS Meter"
	appVersion = "dev"
)

// commonConfig holds the flags shared by both the live and replay
// subcommands.
type commonConfig struct {
	sort           *string
	top            *int
	mode           *string
	history        *int
	battleTimeout  *float64
	selfName       *string
	selfID         *int64
	itemsPath      *string
	mapIndexPath   *string
}

func registerCommonFlags(fs *flag.FlagSet) *commonConfig {
	cfg := &commonConfig{
		sort:          fs.String("sort", "dmg", "Leaderboard sort column: dmg, dps, heal, or hps"),
		top:           fs.Int("top", 0, "Show only the top N rows (0 means unlimited)"),
		mode:          fs.String("mode", "battle", "Session boundary: battle, zone, or manual"),
		history:       fs.Int("history", 10, "Closed sessions to keep per mode"),
		battleTimeout: fs.Float64("battle-timeout", 20.0, "Idle seconds before battle mode closes the active session"),
		selfName:      fs.String("self-name", envOr("ALBION_DPS_SELF_NAME", ""), "Your in-game display name"),
		selfID:        fs.Int64("self-id", envInt("ALBION_DPS_SELF_ID", 0), "Your entity id, if already known"),
		itemsPath:     fs.String("items", os.Getenv("ALBION_DPS_ITEMS_JSON"), "Path to the item database (ao-bin-dumps)"),
		mapIndexPath:  fs.String("map-index", os.Getenv("ALBION_DPS_MAP_INDEX"), "Path to the zone/map index file"),
	}
	return cfg
}

func (c *commonConfig) toOptions() ([]backend.Option, error) {
	mode, err := parseMode(*c.mode)
	if err != nil {
		return nil, err
	}
	sortKey, err := parseSortKey(*c.sort)
	if err != nil {
		return nil, err
	}
	_ = sortKey // validated here, consumed by the print loop

	opts := []backend.Option{
		backend.WithMode(mode),
		backend.WithHistoryLimit(*c.history),
		backend.WithBattleTimeoutSeconds(*c.battleTimeout),
		backend.WithItemDatabasePath(*c.itemsPath),
		backend.WithZoneIndexPath(*c.mapIndexPath),
	}
	if *c.selfName != "" {
		opts = append(opts, backend.WithSelfName(*c.selfName))
	}
	if *c.selfID != 0 {
		opts = append(opts, backend.WithSelfID(int32(*c.selfID)))
	}
	return opts, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "live":
		runLive(os.Args[2:])
	case "replay":
		runReplay(os.Args[2:])
	case "-h", "--help", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown subcommand %q\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func runLive(args []string) {
	fs := flag.NewFlagSet("live", flag.ExitOnError)
	cfg := registerCommonFlags(fs)

	iface := fs.String("interface", "", "Network interface to capture on (captures all if not specified)")
	bpf := fs.String("bpf", "", "Custom BPF filter")
	snaplen := fs.Int("snaplen", 0, "Capture snapshot length (0 uses the default)")
	promisc := fs.Bool("promisc", false, "Enable promiscuous mode")
	timeoutMs := fs.Int("timeout-ms", 0, "Capture read timeout in milliseconds (0 uses the default)")
	listInterfaces := fs.Bool("list-interfaces", false, "List available network interfaces and exit")
	_ = fs.Parse(args)

	if *listInterfaces {
		if err := capture.PrintDevices(); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	opts, err := cfg.toOptions()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	opts = append(opts, backend.WithDevice(*iface), backend.WithPromiscuous(*promisc))
	if *bpf != "" {
		opts = append(opts, backend.WithBPFFilter(*bpf))
	}
	if *snaplen != 0 {
		opts = append(opts, backend.WithSnapLen(int32(*snaplen)))
	}
	if *timeoutMs != 0 {
		opts = append(opts, backend.WithCaptureTimeout(time.Duration(*timeoutMs)*time.Millisecond))
	}

	sortKey, _ := parseSortKey(*cfg.sort)

	printHeader()
	svc := backend.New(opts...)
	if err := svc.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "error starting capture: %v\n", err)
		fmt.Fprintln(os.Stderr, "try running with sudo or as administrator.")
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	runPrintLoop(svc, sortKey, *cfg.top, sigChan)

	svc.Stop()
	fmt.Println("\nGoodbye!")
}

func runReplay(args []string) {
	fs := flag.NewFlagSet("replay", flag.ExitOnError)
	cfg := registerCommonFlags(fs)
	_ = fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "error: replay requires a capture file path")
		os.Exit(1)
	}
	path := fs.Arg(0)

	opts, err := cfg.toOptions()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	opts = append(opts, backend.WithReplayFile(path))

	sortKey, _ := parseSortKey(*cfg.sort)

	printHeader()
	svc := backend.New(opts...)
	if err := svc.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "error starting replay: %v\n", err)
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	runPrintLoop(svc, sortKey, *cfg.top, sigChan)

	printSessionSummary(svc)
	fmt.Println("Goodbye!")
}

// runPrintLoop drains the service's channels, printing leaderboard
// updates and status lines until the snapshots channel closes or an
// interrupt arrives.
func runPrintLoop(svc *backend.Service, sortKey string, top int, sigChan chan os.Signal) {
	for {
		select {
		case <-sigChan:
			fmt.Println("\n\nStopping...")
			return
		case snap, ok := <-svc.Snapshots:
			if !ok {
				return
			}
			printLeaderboard(snap, sortKey, top)
		case ev, ok := <-svc.Events:
			if !ok {
				return
			}
			printEvent(ev)
		case online, ok := <-svc.OnlineStatus:
			if !ok {
				continue
			}
			if online {
				color.Green("✅ traffic detected, capturing...")
			} else {
				color.Yellow("⏸  waiting for game traffic...")
			}
		}
	}
}

func printLeaderboard(snap meter.Snapshot, sortKey string, top int) {
	type row struct {
		label  string
		damage float64
		heal   float64
		dps    float64
		hps    float64
	}

	rows := make([]row, 0, len(snap.Totals))
	for id, totals := range snap.Totals {
		label, ok := snap.Names[id]
		if !ok || label == "" {
			label = fmt.Sprintf("#%d", id)
		}
		rows = append(rows, row{label, totals.Damage, totals.Heal, totals.DPS, totals.HPS})
	}

	var less func(i, j int) bool
	switch sortKey {
	case "dps":
		less = func(i, j int) bool { return rows[i].dps > rows[j].dps }
	case "heal":
		less = func(i, j int) bool { return rows[i].heal > rows[j].heal }
	case "hps":
		less = func(i, j int) bool { return rows[i].hps > rows[j].hps }
	default:
		less = func(i, j int) bool { return rows[i].damage > rows[j].damage }
	}
	sort.SliceStable(rows, less)

	if top > 0 && len(rows) > top {
		rows = rows[:top]
	}

	fmt.Printf("\n%-20s %12s %8s %12s %8s\n", "Name", "Damage", "DPS", "Heal", "HPS")
	for _, r := range rows {
		fmt.Printf("%-20s %12.0f %8.0f %12.0f %8.0f\n", r.label, r.damage, r.dps, r.heal, r.hps)
	}
}

func printEvent(ev backend.GameEvent) {
	switch ev.Type {
	case backend.EventTypeSessionClosed:
		color.Cyan("• %s", ev.Message)
	default:
		fmt.Println(ev.Message)
	}
}

func printSessionSummary(svc *backend.Service) {
	history := svc.History(0)
	fmt.Println()
	fmt.Println("╔════════════════════════════════════════════════════════════╗")
	fmt.Println("║                    SESSION SUMMARY                          ║")
	fmt.Println("╠════════════════════════════════════════════════════════════╣")
	if len(history) == 0 {
		fmt.Println("║   No sessions recorded                                      ║")
	}
	for _, s := range history {
		label := "session"
		if s.Label != nil && *s.Label != "" {
			label = *s.Label
		}
		fmt.Printf("║   %-20s %10.0f dmg  %10.0f heal  %6.0fs ║\n", label, s.TotalDamage, s.TotalHeal, s.Duration)
	}
	fmt.Println("╚════════════════════════════════════════════════════════════╝")
}

func printHeader() {
	color.Cyan("╔═══════════════════════════════════════════════════════════╗")
	color.New(color.FgYellow, color.Bold).Printf("  %s v%s\n", appName, appVersion)
	color.Cyan("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: meter <live|replay> [flags]")
	fmt.Fprintln(os.Stderr, "  live   capture traffic from a network interface")
	fmt.Fprintln(os.Stderr, "  replay replay a previously recorded capture file")
}

func parseMode(s string) (meter.Mode, error) {
	switch s {
	case "battle":
		return meter.ModeBattle, nil
	case "zone":
		return meter.ModeZone, nil
	case "manual":
		return meter.ModeManual, nil
	default:
		return meter.Mode(0), fmt.Errorf("unknown mode %q, expected battle, zone, or manual", s)
	}
}

func parseSortKey(s string) (string, error) {
	switch s {
	case "dmg", "dps", "heal", "hps":
		return s, nil
	default:
		return "", fmt.Errorf("unknown sort key %q, expected dmg, dps, heal, or hps", s)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 32)
	if err != nil {
		return fallback
	}
	return n
}
