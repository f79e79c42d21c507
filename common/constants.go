package common

import (
	"os"
	"time"
)

// Application metadata.
const (
	// AppName is the display name of the application.
	AppName = "OpenVPN Manager"
	// ConfigDirName is the name of the configuration directory.
	ConfigDirName = "openvpn-manager"
)

// File names used by the application.
const (
	ConfigFileName  = "config.yaml"
	HistoryFileName = "history.db"
	LogFileName     = "openvpn-manager.log"
)

// Tunnel configuration conventions.
const (
	// TunnelFileExt is the extension of OpenVPN tunnel definition files.
	TunnelFileExt = ".ovpn"
	// CredentialFileExt is the extension of stored credential files.
	CredentialFileExt = ".cred"
	// AuthDirective is the configuration keyword indicating that the
	// tunnel requires a username/password pair.
	AuthDirective = "auth-user-pass"
)

// Process control conventions.
const (
	// ProcessName identifies running OpenVPN client instances for both
	// termination and liveness checks.
	ProcessName = "openvpn"
	// SudoCommand is the privilege escalation helper.
	SudoCommand = "sudo"
	// LogSinkPath is the client log sink in normal mode.
	LogSinkPath = "/tmp/openvpn.log"
	// DebugLogSinkPath is the client log sink in verbose mode.
	DebugLogSinkPath = "/tmp/openvpn-debug.log"
)

// MarkerEstablished is the log line marker that terminates a connection
// attempt as successful.
const MarkerEstablished = "Initialization Sequence Completed"

// FailureMarkers terminate a connection attempt as failed. Matching is a
// case-sensitive substring comparison, first match wins.
var FailureMarkers = []string{
	"AUTH_FAILED",
	"Connection refused",
	"No such file or directory",
}

// Required permission modes. Tunnel definitions and credential files must
// never be readable by other users; the credential directory must not be
// listable either.
const (
	// TunnelFileMode is the required mode for .ovpn files.
	TunnelFileMode = os.FileMode(0600)
	// CredentialFileMode is the required mode for .cred files.
	CredentialFileMode = os.FileMode(0600)
	// CredentialDirMode is the required mode for the credential directory.
	CredentialDirMode = os.FileMode(0700)
	// LogSinkMode makes the elevated client's log readable by the
	// unprivileged controller. A documented constraint of running an
	// elevated child process, not a recommendation.
	LogSinkMode = os.FileMode(0666)
)

// Default timeouts and intervals.
const (
	// StartupGracePeriod is how long to wait before the liveness poll
	// in normal mode.
	StartupGracePeriod = 2 * time.Second
	// LogSinkDelay is how long to wait for the daemonized client to
	// start writing its log before tailing it in verbose mode.
	LogSinkDelay = 1 * time.Second
)
