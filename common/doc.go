// Package common provides shared constants, types, utilities, and errors
// used throughout the OpenVPN Manager application.
//
// This package serves as the foundation for cross-cutting concerns:
//
//   - Constants: process names, file extensions, log sink paths, required
//     permission modes, and classifier markers
//   - Errors: sentinel errors for consistent error handling across packages
//   - Logger: leveled logging with optional rotated file output
//   - Utils: common helpers for application directories
//
// # Usage
//
//	import "github.com/nkurtalj/openvpn-manager/common"
//
//	// Use constants
//	name := common.ProcessName
//
//	// Use logger
//	common.LogInfo("Starting %s", configName)
//
//	// Check errors
//	if errors.Is(err, common.ErrNoConfigs) {
//	    // Handle empty configuration root
//	}
package common
