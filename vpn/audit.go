package vpn

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/nkurtalj/openvpn-manager/common"
)

// Issue records a single permission-bit deviation found by an audit.
// Issues are transient diagnostics; they are never persisted.
type Issue struct {
	// Path is the offending file or directory.
	Path string
	// Expected is the required permission mode.
	Expected os.FileMode
	// Actual is the observed permission mode.
	Actual os.FileMode
}

// String renders the issue the way it is reported to the user.
func (i Issue) String() string {
	return fmt.Sprintf("incorrect permissions %04o on %s (want %04o)",
		i.Actual, i.Path, i.Expected)
}

// FixCommand returns the shell command that would remediate the issue.
func (i Issue) FixCommand() string {
	return fmt.Sprintf("chmod %o '%s'", i.Expected, i.Path)
}

// Report is the output of a permission audit.
type Report struct {
	Issues []Issue
}

// OK reports whether the audited tree satisfied every invariant.
func (r *Report) OK() bool {
	return len(r.Issues) == 0
}

// FixCommands returns the remediation commands for every issue, in audit order.
func (r *Report) FixCommands() []string {
	cmds := make([]string, 0, len(r.Issues))
	for _, issue := range r.Issues {
		cmds = append(cmds, issue.FixCommand())
	}
	return cmds
}

// Auditor checks permission invariants on the configuration root and the
// credential directory. The audit is advisory: callers may proceed despite
// unresolved issues after explicit confirmation.
type Auditor struct {
	configDir      string
	credentialsDir string
}

// NewAuditor creates an auditor over the given configuration root and
// credential directory.
func NewAuditor(configDir, credentialsDir string) *Auditor {
	return &Auditor{
		configDir:      configDir,
		credentialsDir: credentialsDir,
	}
}

// Audit walks both trees and records every deviation from the required
// modes: 0600 for tunnel definitions and credential files, 0700 for the
// credential directory. It never stops at the first issue.
func (a *Auditor) Audit() (*Report, error) {
	report := &Report{}

	err := filepath.WalkDir(a.configDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable entries are logged and skipped; the audit never
			// stops at the first problem.
			common.LogWarn("Cannot audit %s: %v", path, err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), common.TunnelFileExt) {
			return nil
		}
		a.check(report, path, common.TunnelFileMode)
		return nil
	})
	if err != nil {
		return nil, common.WrapError(err, "failed to audit configuration directory")
	}

	// The credential directory is created lazily; absence is not a finding.
	if common.FileExists(a.credentialsDir) {
		a.check(report, a.credentialsDir, common.CredentialDirMode)

		files, err := os.ReadDir(a.credentialsDir)
		if err != nil {
			common.LogWarn("Cannot audit credentials directory %s: %v", a.credentialsDir, err)
		}
		for _, f := range files {
			if !strings.HasSuffix(f.Name(), common.CredentialFileExt) {
				continue
			}
			a.check(report, filepath.Join(a.credentialsDir, f.Name()), common.CredentialFileMode)
		}
	}

	return report, nil
}

// check appends an issue when the permission bits of path differ from want.
// Stat failures on individual items are logged and skipped rather than
// aborting the audit.
func (a *Auditor) check(report *Report, path string, want os.FileMode) {
	info, err := os.Stat(path)
	if err != nil {
		common.LogWarn("Cannot stat %s during audit: %v", path, err)
		return
	}
	actual := info.Mode().Perm()
	if actual != want {
		report.Issues = append(report.Issues, Issue{
			Path:     path,
			Expected: want,
			Actual:   actual,
		})
	}
}

// Remediate applies the permission fix for each issue in turn. Failure on
// one item is reported but does not abort remediation of the remainder;
// the returned error is non-nil unless every item succeeded.
func (a *Auditor) Remediate(issues []Issue) error {
	var failed []string
	for _, issue := range issues {
		if err := os.Chmod(issue.Path, issue.Expected); err != nil {
			common.LogError("Failed to fix permissions on %s: %v", issue.Path, err)
			failed = append(failed, issue.Path)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("failed to remediate %d of %d issues: %s",
			len(failed), len(issues), strings.Join(failed, ", "))
	}
	return nil
}
