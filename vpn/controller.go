package vpn

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/user"
	"time"

	"github.com/nxadm/tail"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/nkurtalj/openvpn-manager/common"
)

// Outcome is the terminal classification of a connection attempt.
// Outcomes are returned to the caller, never persisted by the controller.
type Outcome int

const (
	// OutcomeEstablished means the client reached a verified connected state.
	OutcomeEstablished Outcome = iota
	// OutcomeFailed means the client failed to connect or was cancelled.
	OutcomeFailed
	// OutcomeIndeterminate means the log stream ended without a terminal
	// marker. Callers treat this as a failed attempt.
	OutcomeIndeterminate
)

// String returns a human-readable representation of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeEstablished:
		return "Established"
	case OutcomeFailed:
		return "Failed"
	case OutcomeIndeterminate:
		return "Indeterminate"
	default:
		return "Unknown"
	}
}

// CommandRunner executes external commands on behalf of the controller.
// The default implementation shells out; tests substitute a recorder.
type CommandRunner interface {
	Run(name string, args ...string) error
}

// execRunner shells out with stdin attached, so the escalation helper can
// prompt for a password when its ticket has expired.
type execRunner struct{}

func (execRunner) Run(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Stdin = os.Stdin
	return cmd.Run()
}

// clientLister enumerates the pids of running client instances.
type clientLister func() ([]int32, error)

// Controller owns the external client's lifecycle. It never retains a
// handle to the spawned process: the client runs daemonized and detached,
// and the controller re-discovers running instances by name before acting.
//
// The log sink for the elevated client is made world-writable so the
// unprivileged controller can read it afterwards. That broad permission is
// an accepted constraint of bridging the privilege boundary on a
// single-user workstation; an elevated helper writing to a pipe owned by
// the controller would avoid it, but is a different design.
type Controller struct {
	creds      *CredentialStore
	logHandler func(string)
	runner     CommandRunner
	pids       clientLister
}

// NewController creates a controller that consults creds for
// configurations requiring authentication.
func NewController(creds *CredentialStore) *Controller {
	return &Controller{
		creds:  creds,
		runner: execRunner{},
		pids:   clientPids,
	}
}

// SetLogHandler sets a handler invoked with each client log line consumed
// in verbose mode.
func (c *Controller) SetLogHandler(handler func(string)) {
	c.logHandler = handler
}

// CheckSudo verifies that the privilege escalation helper will grant
// elevated rights, prompting for a password if necessary.
func (c *Controller) CheckSudo() error {
	if err := c.runner.Run(common.SudoCommand, "-v"); err != nil {
		return common.ErrSudoRequired
	}
	return nil
}

// clientPids enumerates running client instances by process name.
func clientPids() ([]int32, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, err
	}

	var pids []int32
	for _, p := range procs {
		name, err := p.Name()
		if err != nil {
			continue
		}
		if name == common.ProcessName {
			pids = append(pids, p.Pid)
		}
	}
	return pids, nil
}

// IsRunning reports whether at least one client instance is alive.
func (c *Controller) IsRunning() bool {
	pids, err := c.pids()
	return err == nil && len(pids) > 0
}

// Stop terminates every running client instance via the privilege
// escalation helper. The boolean reports whether at least one instance was
// terminated; finding no matching process is the false result, not an
// error.
func (c *Controller) Stop() (bool, error) {
	pids, err := c.pids()
	if err != nil {
		return false, common.WrapError(err, "failed to enumerate processes")
	}

	terminated := false
	for _, p := range pids {
		pid := fmt.Sprintf("%d", p)
		if err := c.runner.Run(common.SudoCommand, "kill", pid); err != nil {
			common.LogWarn("Failed to kill openvpn process %s: %v", pid, err)
			continue
		}
		common.LogInfo("Killed openvpn process %s", pid)
		terminated = true
	}
	return terminated, nil
}

// Start launches the client for the given configuration and classifies the
// attempt. It always stops any running instance first; that unconditional
// stop is the only mechanism enforcing the single-active-session
// invariant.
//
// In normal mode the outcome is decided by a liveness poll after a fixed
// grace period, and the log sink is deleted afterwards regardless of
// outcome. In verbose mode the sink is tailed through the classifier and
// left behind for later inspection; cancelling ctx during the tail is the
// only early exit and yields OutcomeFailed.
func (c *Controller) Start(ctx context.Context, entry ConfigEntry, verbose bool) (Outcome, error) {
	if err := c.CheckSudo(); err != nil {
		return OutcomeFailed, err
	}

	if _, err := c.Stop(); err != nil {
		common.LogWarn("Pre-start stop failed: %v", err)
	}

	logPath := LogSinkPath(verbose)
	if err := c.prepareLogSink(logPath); err != nil {
		return OutcomeFailed, fmt.Errorf("%w: %v", common.ErrStartFailed, err)
	}
	if !verbose {
		defer c.removeLogSink(logPath)
	}

	credPath := ""
	if entry.RequiresAuth {
		path, err := c.creds.Resolve(entry.Name)
		if err != nil {
			return OutcomeFailed, err
		}
		credPath = path
	}

	args := buildClientArgs(entry, verbose, logPath, credPath)
	common.LogDebug("Starting client: %s %v", common.SudoCommand, args)

	if err := c.runner.Run(common.SudoCommand, args...); err != nil {
		return OutcomeFailed, fmt.Errorf("%w: %v", common.ErrStartFailed, err)
	}

	if verbose {
		return c.watchLog(ctx, logPath)
	}

	time.Sleep(common.StartupGracePeriod)
	if c.IsRunning() {
		return OutcomeEstablished, nil
	}
	return OutcomeFailed, nil
}

// LogSinkPath returns the log sink location for the given mode.
func LogSinkPath(verbose bool) string {
	if verbose {
		return common.DebugLogSinkPath
	}
	return common.LogSinkPath
}

// buildClientArgs assembles the daemonized client invocation, minus the
// privilege escalation helper itself.
func buildClientArgs(entry ConfigEntry, verbose bool, logPath, credPath string) []string {
	args := []string{common.ProcessName}
	if verbose {
		args = append(args, "--verb", "4", "--daemon", "openvpn-debug")
	} else {
		args = append(args, "--daemon", "openvpn")
	}
	args = append(args,
		"--log", logPath,
		"--config", entry.FullPath,
		"--user", invokingUser(),
	)
	if credPath != "" {
		args = append(args, "--auth-user-pass", credPath)
	}
	return args
}

// invokingUser is the identity the elevated client drops privileges to.
func invokingUser() string {
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return os.Getenv("USER")
}

// prepareLogSink creates the log sink through the escalation helper and
// widens its permissions so the unprivileged controller can read it.
func (c *Controller) prepareLogSink(logPath string) error {
	if err := c.runner.Run(common.SudoCommand, "touch", logPath); err != nil {
		return common.WrapError(err, "failed to create log sink")
	}
	mode := fmt.Sprintf("%o", common.LogSinkMode)
	if err := c.runner.Run(common.SudoCommand, "chmod", mode, logPath); err != nil {
		return common.WrapError(err, "failed to open log sink permissions")
	}
	return nil
}

// removeLogSink deletes the log sink. Failure is logged, not surfaced; the
// sink lives in a world-writable scratch directory.
func (c *Controller) removeLogSink(logPath string) {
	if err := c.runner.Run(common.SudoCommand, "rm", "-f", logPath); err != nil {
		common.LogWarn("Failed to remove log sink %s: %v", logPath, err)
	}
}

// watchLog tails the log sink and feeds each line synchronously to the
// classifier. The read loop blocks between lines; cancellation is checked
// between reads and tears the tail down immediately.
func (c *Controller) watchLog(ctx context.Context, logPath string) (Outcome, error) {
	// Give the daemonized client a moment to open its log.
	time.Sleep(common.LogSinkDelay)

	t, err := tail.TailFile(logPath, tail.Config{
		Follow: true,
		Logger: tail.DiscardingLogger,
	})
	if err != nil {
		return OutcomeIndeterminate, fmt.Errorf("%w: %v", common.ErrStartFailed, err)
	}
	defer func() {
		t.Stop()
		t.Cleanup()
	}()

	classifier := NewClassifier()
	for {
		select {
		case <-ctx.Done():
			return OutcomeFailed, common.ErrCancelled
		case line, ok := <-t.Lines:
			if !ok || line.Err != nil {
				return OutcomeIndeterminate, nil
			}
			if c.logHandler != nil {
				c.logHandler(line.Text)
			}
			if classifier.Feed(line.Text); classifier.Done() {
				return classifier.Outcome(), nil
			}
		}
	}
}
