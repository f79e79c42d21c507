// Package cli provides the terminal interface for OpenVPN Manager:
// one-shot commands for scripting and the prompts and session driver
// shared with the interactive menu.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"

	"github.com/nkurtalj/openvpn-manager/common"
	"github.com/nkurtalj/openvpn-manager/config"
	"github.com/nkurtalj/openvpn-manager/history"
	"github.com/nkurtalj/openvpn-manager/keyring"
	"github.com/nkurtalj/openvpn-manager/notify"
	"github.com/nkurtalj/openvpn-manager/vpn"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

// Success prints a message in the success style.
func Success(msg string) {
	fmt.Println(successStyle.Render(msg))
}

// Error prints a message in the error style.
func Error(msg string) {
	fmt.Println(errorStyle.Render(msg))
}

// CLI drives sessions from the terminal.
type CLI struct {
	cfg        *config.Config
	creds      *vpn.CredentialStore
	controller *vpn.Controller
}

// New creates a CLI over the loaded configuration.
func New(cfg *config.Config) *CLI {
	creds := vpn.NewCredentialStore(cfg.CredentialsDir, NewTerminalPrompter(), keyring.Mirror{})
	return &CLI{
		cfg:        cfg,
		creds:      creds,
		controller: vpn.NewController(creds),
	}
}

// Credentials returns the credential store, for callers that annotate
// entries with stored-credential state.
func (c *CLI) Credentials() *vpn.CredentialStore {
	return c.creds
}

// Entries discovers the selectable tunnel configurations.
func (c *CLI) Entries() ([]vpn.ConfigEntry, error) {
	return vpn.ListConfigs(c.cfg.OpenVPNDir)
}

// ListConfigs prints the available tunnel configurations.
func (c *CLI) ListConfigs() error {
	entries, err := c.Entries()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tDIRECTORY\tAUTH\tCREDENTIALS")
	fmt.Fprintln(w, "----\t---------\t----\t-----------")
	for _, entry := range entries {
		auth, saved := "No", "-"
		if entry.RequiresAuth {
			auth = "Yes"
			if c.creds.Exists(entry.Name) {
				saved = "saved"
			} else {
				saved = "required"
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", entry.Name, entry.Dir, auth, saved)
	}
	return w.Flush()
}

// Connect starts a session for the configuration matching nameOrPath.
func (c *CLI) Connect(ctx context.Context, nameOrPath string, verbose bool) error {
	entries, err := c.Entries()
	if err != nil {
		return err
	}

	entry := findEntry(entries, nameOrPath)
	if entry == nil {
		return fmt.Errorf("configuration not found: %s", nameOrPath)
	}

	switch outcome := c.RunSession(ctx, *entry, verbose); outcome {
	case vpn.OutcomeEstablished:
		return nil
	case vpn.OutcomeIndeterminate:
		return common.ErrIndeterminate
	default:
		return fmt.Errorf("connection attempt ended %s", outcome)
	}
}

// RunSession starts the client for entry and reports the outcome to the
// user, the notification service, and the history store. Start-attempt
// failures are reported here and returned as the outcome; they never
// terminate the program.
func (c *CLI) RunSession(ctx context.Context, entry vpn.ConfigEntry, verbose bool) vpn.Outcome {
	if verbose {
		c.controller.SetLogHandler(func(line string) {
			fmt.Println(line)
		})
	}

	fmt.Printf("Starting OpenVPN with %s/%s...\n", entry.Dir, entry.Name)
	outcome, err := c.controller.Start(ctx, entry, verbose)
	if err != nil {
		if errors.Is(err, common.ErrCancelled) {
			Error("Interrupted by user")
		} else {
			Error(fmt.Sprintf("Failed to start OpenVPN: %v", err))
		}
	}

	switch outcome {
	case vpn.OutcomeEstablished:
		Success("OpenVPN connection established.")
	case vpn.OutcomeIndeterminate:
		Error("OpenVPN initialization did not complete; check " + vpn.LogSinkPath(verbose))
	default:
		if err == nil {
			Error("OpenVPN failed to start.")
		}
	}

	c.record(entry, verbose, outcome)
	c.announce(entry, outcome)
	return outcome
}

// record appends the attempt to the session history, when enabled.
func (c *CLI) record(entry vpn.ConfigEntry, verbose bool, outcome vpn.Outcome) {
	if !c.cfg.RecordHistory {
		return
	}
	store, err := history.OpenDefault()
	if err != nil {
		common.LogWarn("History unavailable: %v", err)
		return
	}
	defer store.Close()

	if err := store.Record(history.Session{
		ConfigName: entry.Name,
		Verbose:    verbose,
		Outcome:    outcome.String(),
	}); err != nil {
		common.LogWarn("Could not record session: %v", err)
	}
}

// announce sends the desktop notification for the outcome, when enabled.
func (c *CLI) announce(entry vpn.ConfigEntry, outcome vpn.Outcome) {
	if !c.cfg.ShowNotifications {
		return
	}
	if outcome == vpn.OutcomeEstablished {
		notify.Connected(entry.Name)
	} else {
		notify.Failed(entry.Name)
	}
}

// Stop terminates any running client instance.
func (c *CLI) Stop() error {
	terminated, err := c.controller.Stop()
	if err != nil {
		return err
	}
	if !terminated {
		fmt.Println("No running OpenVPN process.")
		return nil
	}
	Success("OpenVPN stopped.")
	if c.cfg.ShowNotifications {
		notify.Stopped()
	}
	return nil
}

// Status reports whether a client instance is alive.
func (c *CLI) Status() error {
	if c.controller.IsRunning() {
		Success("OpenVPN is running.")
	} else {
		fmt.Println("OpenVPN is not running.")
	}
	return nil
}

// Audit checks permission invariants, printing every finding and its fix
// command. With fix set, remediation is applied and the tree re-audited.
func (c *CLI) Audit(fix bool) error {
	auditor := vpn.NewAuditor(c.cfg.OpenVPNDir, c.cfg.CredentialsDir)
	report, err := auditor.Audit()
	if err != nil {
		return err
	}

	if report.OK() {
		Success("All file permissions are correct.")
		return nil
	}

	for _, issue := range report.Issues {
		Error(issue.String())
	}
	fmt.Println("\nRun the following commands to fix:")
	for _, cmd := range report.FixCommands() {
		fmt.Println("  " + cmd)
	}

	if !fix {
		return fmt.Errorf("%d permission issue(s) found", len(report.Issues))
	}

	if err := auditor.Remediate(report.Issues); err != nil {
		return err
	}

	report, err = auditor.Audit()
	if err != nil {
		return err
	}
	if !report.OK() {
		return fmt.Errorf("%d issue(s) remain after remediation", len(report.Issues))
	}
	Success("Permissions fixed successfully.")
	return nil
}

// PreflightPermissions runs the advisory audit gate before a session. When
// issues are found the user may fix them in place or explicitly proceed
// anyway; declining both aborts.
func (c *CLI) PreflightPermissions(prompter vpn.Prompter) error {
	auditor := vpn.NewAuditor(c.cfg.OpenVPNDir, c.cfg.CredentialsDir)
	report, err := auditor.Audit()
	if err != nil {
		return err
	}
	if report.OK() {
		Success("All file permissions are correct.")
		return nil
	}

	for _, issue := range report.Issues {
		Error(issue.String())
	}

	fixNow, err := prompter.Confirm("Permission issues found. Fix them now?")
	if err != nil {
		return err
	}
	if fixNow {
		if err := auditor.Remediate(report.Issues); err != nil {
			Error(fmt.Sprintf("Error fixing permissions: %v", err))
		} else {
			Success("Permissions fixed successfully.")
			return nil
		}
	}

	proceed, err := prompter.Confirm("Continue anyway?")
	if err != nil {
		return err
	}
	if !proceed {
		return fmt.Errorf("aborted due to permission issues")
	}
	return nil
}

// History prints the most recent session attempts.
func (c *CLI) History(limit int) error {
	store, err := history.OpenDefault()
	if err != nil {
		return err
	}
	defer store.Close()

	sessions, err := store.Recent(limit)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Println("No recorded sessions.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tCONFIG\tMODE\tOUTCOME")
	fmt.Fprintln(w, "-------\t------\t----\t-------")
	for _, sess := range sessions {
		mode := "normal"
		if sess.Verbose {
			mode = "verbose"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			sess.StartedAt.Format("2006-01-02 15:04:05"), sess.ConfigName, mode, sess.Outcome)
	}
	return w.Flush()
}

// findEntry matches nameOrPath against entries case-insensitively, with
// or without the file extension.
func findEntry(entries []vpn.ConfigEntry, nameOrPath string) *vpn.ConfigEntry {
	want := strings.ToLower(strings.TrimSpace(nameOrPath))
	for i, entry := range entries {
		name := strings.ToLower(entry.Name)
		if name == want ||
			strings.TrimSuffix(name, common.TunnelFileExt) == want ||
			strings.ToLower(entry.FullPath) == want {
			return &entries[i]
		}
	}
	return nil
}

// PrintHelp prints CLI usage help.
func PrintHelp() {
	fmt.Println(`OpenVPN Manager - single-session OpenVPN lifecycle controller

Usage:
  openvpn-manager [OPTIONS]

Options:
  --version         Show version and exit
  --verbose         Verbose mode: follow the client log and classify the outcome
  --list            List available tunnel configurations
  --connect NAME    Start a session for a configuration
  --stop            Terminate any running OpenVPN instance
  --status          Show whether OpenVPN is running
  --audit           Check permission invariants (with --fix to remediate)
  --history         Show recent session attempts
  --help            Show this help message

Examples:
  openvpn-manager --list
  openvpn-manager --connect office.ovpn --verbose
  openvpn-manager --audit --fix

Run without options for the interactive menu.`)
}
