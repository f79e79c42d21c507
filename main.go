// Package main provides the entry point for OpenVPN Manager, a terminal
// controller supervising a single OpenVPN tunnel session: it discovers
// tunnel configurations, resolves credentials, audits permission
// invariants, and drives the external openvpn client from launch through
// a verified connected state.
//
// Usage:
//
//	openvpn-manager [options]
//
// Run without options for the interactive menu. The program refuses to
// run as root; it elevates through sudo only for the operations that
// need it.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nkurtalj/openvpn-manager/cli"
	"github.com/nkurtalj/openvpn-manager/common"
	"github.com/nkurtalj/openvpn-manager/config"
	"github.com/nkurtalj/openvpn-manager/ui"
)

// Build-time variables injected via ldflags (-X main.appVersion=x.y.z).
var (
	appVersion = "dev"
	buildTime  = "unknown"
)

var (
	showVersion = flag.Bool("version", false, "Show version and exit")
	verbose     = flag.Bool("verbose", false, "Verbose mode: follow the client log and classify the outcome")
	showHelp    = flag.Bool("help", false, "Show help message")

	listConfigs = flag.Bool("list", false, "List available tunnel configurations")
	connectName = flag.String("connect", "", "Start a session for a configuration by name")
	stopClient  = flag.Bool("stop", false, "Terminate any running OpenVPN instance")
	showStatus  = flag.Bool("status", false, "Show whether OpenVPN is running")
	runAudit    = flag.Bool("audit", false, "Check permission invariants")
	applyFix    = flag.Bool("fix", false, "With --audit, remediate the issues found")
	showHistory = flag.Bool("history", false, "Show recent session attempts")
)

func main() {
	flag.Parse()

	if *showHelp {
		cli.PrintHelp()
		os.Exit(0)
	}
	if *showVersion {
		fmt.Printf("OpenVPN Manager v%s\n", appVersion)
		if buildTime != "unknown" {
			fmt.Printf("  Build: %s\n", buildTime)
		}
		os.Exit(0)
	}

	// Refuse elevated identity: the controller escalates selectively
	// through sudo and must not run wholesale as root.
	if os.Geteuid() == 0 {
		fmt.Fprintf(os.Stderr, "Error: %v. Run as a normal user with sudo privileges.\n", common.ErrRootUser)
		os.Exit(1)
	}

	logLevel := common.LevelInfo
	if *verbose {
		logLevel = common.LevelDebug
	}
	if err := common.InitLogger(common.LogConfig{
		Level:      logLevel,
		EnableFile: true,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not initialize file logging: %v\n", err)
	}
	defer common.CloseLogger()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if !common.FileExists(cfg.OpenVPNDir) {
		fmt.Fprintf(os.Stderr, "Error: %v: %s\n", common.ErrConfigDirMissing, cfg.OpenVPNDir)
		os.Exit(1)
	}

	// SIGINT/SIGTERM cancel the in-flight action, not the whole menu.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := cli.New(cfg)

	switch {
	case *listConfigs:
		exitOn(app.ListConfigs())
	case *connectName != "":
		exitOn(app.Connect(ctx, *connectName, *verbose))
	case *stopClient:
		exitOn(app.Stop())
	case *showStatus:
		exitOn(app.Status())
	case *runAudit:
		exitOn(app.Audit(*applyFix))
	case *showHistory:
		exitOn(app.History(20))
	default:
		runMenu(ctx, app)
	}
}

// exitOn prints err and exits non-zero; nil exits zero.
func exitOn(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	os.Exit(0)
}

// runMenu drives the interactive session loop: permission pre-flight,
// then menu, session, and back to the menu until the user quits.
func runMenu(ctx context.Context, app *cli.CLI) {
	if err := app.PreflightPermissions(cli.NewTerminalPrompter()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	entries, err := app.Entries()
	if err != nil {
		if errors.Is(err, common.ErrNoConfigs) {
			fmt.Fprintln(os.Stderr, "Error: no OpenVPN configurations found.")
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}

	verboseMode := *verbose
	for {
		selection, err := ui.Run(entries, app.Credentials(), verboseMode)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if selection == nil {
			// Normal menu exit.
			return
		}

		verboseMode = selection.Verbose
		app.RunSession(ctx, selection.Entry, selection.Verbose)

		select {
		case <-ctx.Done():
			// Interrupt during the session; do not reopen the menu.
			return
		default:
		}
	}
}
