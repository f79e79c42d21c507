// Package vpn implements the OpenVPN session lifecycle: discovering tunnel
// definition files, resolving credentials, auditing permission invariants,
// and driving the external openvpn client from launch through a verified
// connected state.
//
// The package is organized around four types:
//
//   - ListConfigs / ConfigEntry: enumeration of .ovpn files under the
//     configured root and classification of which ones require credentials
//   - CredentialStore: reuse-or-prompt resolution of the per-configuration
//     credential file, persisted under owner-only permissions
//   - Auditor: detection and remediation of permission-bit drift on tunnel
//     definitions and credential storage
//   - Controller: process control for the external client, including the
//     log-stream classifier that decides whether a connection attempt
//     ended Established, Failed, or Indeterminate
//
// # Session Flow
//
//  1. ListConfigs produces the selectable entries
//  2. The caller picks an entry and calls Controller.Start
//  3. Start unconditionally stops any running client, resolves credentials
//     when required, launches the daemonized client via sudo, and watches
//     either process liveness (normal mode) or the log stream (verbose mode)
//  4. The Outcome is returned to the caller; the client itself keeps
//     running detached
//
// # Single Active Session
//
// At most one client instance runs at a time. This is enforced purely by
// convention: Start terminates every matching process before launching a
// new one. There is no inter-process lock; concurrent Start calls from two
// controllers on the same host are out of scope.
package vpn
