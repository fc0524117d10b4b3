package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/albiondps/meter/internal/tui"
	"github.com/albiondps/meter/pkg/backend"
	"github.com/albiondps/meter/pkg/capture"
	"github.com/albiondps/meter/pkg/meter"
)

func main() {
	listDevices := flag.Bool("list", false, "List available network devices")
	deviceName := flag.String("device", "", "Specific device to capture on (captures all if not specified)")
	replayPath := flag.String("replay", "", "Replay a recorded capture file instead of capturing live traffic")
	itemsPath := flag.String("items", "", "Path to ao-bin-dumps directory for item and role resolution")
	mode := flag.String("mode", "battle", "Session boundary: battle, zone, or manual")
	selfName := flag.String("self-name", "", "Your in-game display name, to seed self-identification")
	bpf := flag.String("bpf", "", "Custom BPF filter for live capture")
	promisc := flag.Bool("promisc", false, "Enable promiscuous mode for live capture")
	flag.Parse()

	if *listDevices {
		if err := capture.PrintDevices(); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	meterMode, err := parseMode(*mode)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	opts := []backend.Option{
		backend.WithMode(meterMode),
		backend.WithItemDatabasePath(*itemsPath),
	}
	if *replayPath != "" {
		opts = append(opts, backend.WithReplayFile(*replayPath))
	} else {
		opts = append(opts, backend.WithDevice(*deviceName), backend.WithPromiscuous(*promisc))
		if *bpf != "" {
			opts = append(opts, backend.WithBPFFilter(*bpf))
		}
	}
	if *selfName != "" {
		opts = append(opts, backend.WithSelfName(*selfName))
	}

	svc := backend.New(opts...)
	if err := svc.Start(); err != nil {
		fmt.Printf("Error starting capture: %v\n", err)
		fmt.Println("Try running with sudo or as administrator.")
		os.Exit(1)
	}
	defer svc.Stop()

	model := tui.New(svc)
	p := tea.NewProgram(model, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running TUI: %v\n", err)
		os.Exit(1)
	}
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
