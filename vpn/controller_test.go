package vpn

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nkurtalj/openvpn-manager/common"
)

// recordingRunner captures every command instead of executing it.
type recordingRunner struct {
	calls [][]string
}

func (r *recordingRunner) Run(name string, args ...string) error {
	r.calls = append(r.calls, append([]string{name}, args...))
	return nil
}

func TestOutcome_String(t *testing.T) {
	tests := []struct {
		outcome  Outcome
		expected string
	}{
		{OutcomeEstablished, "Established"},
		{OutcomeFailed, "Failed"},
		{OutcomeIndeterminate, "Indeterminate"},
		{Outcome(99), "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.outcome.String(); got != tt.expected {
				t.Errorf("Outcome.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestLogSinkPath(t *testing.T) {
	if got := LogSinkPath(false); got != common.LogSinkPath {
		t.Errorf("LogSinkPath(false) = %q, want %q", got, common.LogSinkPath)
	}
	if got := LogSinkPath(true); got != common.DebugLogSinkPath {
		t.Errorf("LogSinkPath(true) = %q, want %q", got, common.DebugLogSinkPath)
	}
	if LogSinkPath(true) == LogSinkPath(false) {
		t.Error("verbose and normal modes must use distinct log sinks")
	}
}

func TestBuildClientArgs_Normal(t *testing.T) {
	entry := ConfigEntry{Name: "plain.ovpn", FullPath: "/etc/ovpn/plain.ovpn"}
	args := buildClientArgs(entry, false, common.LogSinkPath, "")

	joined := strings.Join(args, " ")
	if args[0] != common.ProcessName {
		t.Errorf("args[0] = %q, want %q", args[0], common.ProcessName)
	}
	if !strings.Contains(joined, "--daemon openvpn") {
		t.Errorf("args missing daemon mode: %q", joined)
	}
	if !strings.Contains(joined, "--log "+common.LogSinkPath) {
		t.Errorf("args missing log sink: %q", joined)
	}
	if !strings.Contains(joined, "--config /etc/ovpn/plain.ovpn") {
		t.Errorf("args missing config: %q", joined)
	}
	if !strings.Contains(joined, "--user ") {
		t.Errorf("args missing privilege-drop user: %q", joined)
	}
	if strings.Contains(joined, "--auth-user-pass") {
		t.Errorf("args must not carry credentials without RequiresAuth: %q", joined)
	}
	if strings.Contains(joined, "--verb") {
		t.Errorf("normal mode must not raise verbosity: %q", joined)
	}
}

func TestBuildClientArgs_VerboseWithAuth(t *testing.T) {
	entry := ConfigEntry{
		Name:         "office.ovpn",
		FullPath:     "/etc/ovpn/office.ovpn",
		RequiresAuth: true,
	}
	args := buildClientArgs(entry, true, common.DebugLogSinkPath, "/creds/office.cred")

	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "--verb 4") {
		t.Errorf("verbose args missing --verb 4: %q", joined)
	}
	if !strings.Contains(joined, "--daemon openvpn-debug") {
		t.Errorf("verbose args missing debug daemon name: %q", joined)
	}
	if !strings.Contains(joined, "--log "+common.DebugLogSinkPath) {
		t.Errorf("verbose args missing debug log sink: %q", joined)
	}
	if !strings.Contains(joined, "--auth-user-pass /creds/office.cred") {
		t.Errorf("args missing credential file: %q", joined)
	}
}

func TestInvokingUser(t *testing.T) {
	if invokingUser() == "" {
		t.Error("invokingUser() should never be empty")
	}
}

func TestStop_NoMatchingProcess(t *testing.T) {
	rec := &recordingRunner{}
	c := &Controller{
		runner: rec,
		pids:   func() ([]int32, error) { return nil, nil },
	}

	terminated, err := c.Stop()
	if err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if terminated {
		t.Error("Stop() = true with no matching process, want false")
	}
	if len(rec.calls) != 0 {
		t.Errorf("Stop() issued %d commands with nothing to kill: %v", len(rec.calls), rec.calls)
	}
}

func TestStop_TerminatesEachInstance(t *testing.T) {
	rec := &recordingRunner{}
	c := &Controller{
		runner: rec,
		pids:   func() ([]int32, error) { return []int32{10, 11}, nil },
	}

	terminated, err := c.Stop()
	if err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if !terminated {
		t.Error("Stop() = false after terminating instances, want true")
	}

	want := [][]string{
		{common.SudoCommand, "kill", "10"},
		{common.SudoCommand, "kill", "11"},
	}
	if len(rec.calls) != len(want) {
		t.Fatalf("Stop() issued %d commands, want %d: %v", len(rec.calls), len(want), rec.calls)
	}
	for i := range want {
		if strings.Join(rec.calls[i], " ") != strings.Join(want[i], " ") {
			t.Errorf("command %d = %v, want %v", i, rec.calls[i], want[i])
		}
	}
}

func TestStart_StopsBeforeEveryLaunch(t *testing.T) {
	entry := ConfigEntry{Name: "plain.ovpn", FullPath: "/etc/ovpn/plain.ovpn"}

	for attempt := 0; attempt < 2; attempt++ {
		rec := &recordingRunner{}
		c := &Controller{
			runner: rec,
			pids:   func() ([]int32, error) { return []int32{4242}, nil },
		}

		outcome, err := c.Start(context.Background(), entry, false)
		if err != nil {
			t.Fatalf("attempt %d: Start() error = %v", attempt, err)
		}
		if outcome != OutcomeEstablished {
			t.Fatalf("attempt %d: Start() = %v, want %v", attempt, outcome, OutcomeEstablished)
		}

		killIdx, launchIdx := -1, -1
		for i, call := range rec.calls {
			if len(call) < 2 {
				continue
			}
			if call[1] == "kill" && killIdx == -1 {
				killIdx = i
			}
			if call[1] == common.ProcessName {
				launchIdx = i
			}
		}
		if launchIdx == -1 {
			t.Fatalf("attempt %d: client was never launched: %v", attempt, rec.calls)
		}
		if killIdx == -1 {
			t.Fatalf("attempt %d: no kill issued before launch: %v", attempt, rec.calls)
		}
		if killIdx > launchIdx {
			t.Errorf("attempt %d: kill at index %d after launch at %d: %v",
				attempt, killIdx, launchIdx, rec.calls)
		}
	}
}

func TestWatchLog_CancelDuringTail(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "openvpn-debug.log")
	noise := "UDPv4 link remote\nTLS handshake\n"
	if err := os.WriteFile(logPath, []byte(noise), 0644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := &Controller{}
	outcome, err := c.watchLog(ctx, logPath)
	if outcome != OutcomeFailed {
		t.Errorf("watchLog() = %v after interrupt, want %v", outcome, OutcomeFailed)
	}
	if !errors.Is(err, common.ErrCancelled) {
		t.Errorf("watchLog() error = %v, want ErrCancelled", err)
	}
}
