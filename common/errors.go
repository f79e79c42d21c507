package common

import "errors"

// Sentinel errors for manager operations.
// These can be checked with errors.Is() for proper error handling.
var (
	// Discovery errors.
	ErrNoConfigs        = errors.New("no tunnel configurations found")
	ErrConfigDirMissing = errors.New("configuration directory not found")

	// Credential errors.
	ErrCredentialStorage = errors.New("failed to store credentials")

	// Process control errors. Fatal to the current start attempt only.
	ErrStartFailed   = errors.New("failed to start openvpn")
	ErrSudoRequired  = errors.New("sudo privileges required")
	ErrIndeterminate = errors.New("connection outcome indeterminate")
	ErrCancelled     = errors.New("operation cancelled")

	// Precondition errors. Fatal to the program.
	ErrRootUser = errors.New("must not run as root")

	// Configuration errors.
	ErrConfigLoad = errors.New("failed to load configuration")
	ErrConfigSave = errors.New("failed to save configuration")
)

// WrapError wraps an error with additional context.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return &wrappedError{
		msg: message,
		err: err,
	}
}

type wrappedError struct {
	msg string
	err error
}

func (e *wrappedError) Error() string {
	return e.msg + ": " + e.err.Error()
}

func (e *wrappedError) Unwrap() error {
	return e.err
}
