package option

import (
	"github.com/gorpf/rpf-kit/pkg/logging"
	"github.com/gorpf/rpf-kit/pkg/rpfcrypto"
)

// InitOptions configures registry.Init's filesystem scan.
type InitOptions struct {
	// Logger receives per-archive scan failures.
	Logger *logging.Logger

	// KeystreamProvider is forwarded to every rpf7.Open call the scan makes.
	KeystreamProvider rpfcrypto.KeystreamProvider

	// IgnoreDirNames lists directory base names the scan never descends
	// into, matched case-sensitively. Defaults to {".git", ".svn",
	// "node_modules"} when left unset.
	IgnoreDirNames []string
}

// InitOption mutates an InitOptions.
type InitOption func(*InitOptions)

// WithInitLogger sets the logger used during the registry scan.
func WithInitLogger(logger *logging.Logger) InitOption {
	return func(o *InitOptions) {
		o.Logger = logger
	}
}

// WithInitKeystreamProvider sets the NG keystream provider forwarded to
// every archive opened during the scan.
func WithInitKeystreamProvider(provider rpfcrypto.KeystreamProvider) InitOption {
	return func(o *InitOptions) {
		o.KeystreamProvider = provider
	}
}

// WithIgnoreDirNames overrides the set of directory names the scan skips.
func WithIgnoreDirNames(names []string) InitOption {
	return func(o *InitOptions) {
		o.IgnoreDirNames = names
	}
}

var defaultIgnoreDirNames = []string{".git", ".svn", "node_modules"}

// NewInitOptions applies opts over InitOptions' defaults.
func NewInitOptions(opts ...InitOption) *InitOptions {
	options := &InitOptions{
		IgnoreDirNames: defaultIgnoreDirNames,
	}
	for _, opt := range opts {
		opt(options)
	}
	return options
}
