package option

import (
	"github.com/gorpf/rpf-kit/pkg/logging"
	"github.com/gorpf/rpf-kit/pkg/rpfcrypto"
)

// OpenOptions configures rpf7.Open.
type OpenOptions struct {
	// Logger receives the errors of nested archives that fail to open; Open
	// logs nothing else. Defaults to a discarding logger.
	Logger *logging.Logger

	// KeystreamProvider supplies the NG encryption mode's keyed-XOR stream.
	// Defaults to rpfcrypto.StubKeystreamProvider, which fails every call.
	KeystreamProvider rpfcrypto.KeystreamProvider

	// FailFastOnNestedError makes Open return an error when a nested archive
	// fails to open, instead of logging the error and skipping it.
	FailFastOnNestedError bool
}

// OpenOption mutates an OpenOptions.
type OpenOption func(*OpenOptions)

// WithLogger sets the logger used during Open and nested-archive scanning.
func WithLogger(logger *logging.Logger) OpenOption {
	return func(o *OpenOptions) {
		o.Logger = logger
	}
}

// WithKeystreamProvider sets the NG keystream provider.
func WithKeystreamProvider(provider rpfcrypto.KeystreamProvider) OpenOption {
	return func(o *OpenOptions) {
		o.KeystreamProvider = provider
	}
}

// WithFailFastOnNestedError makes a nested-archive open failure abort the
// parent Open instead of being logged and skipped.
func WithFailFastOnNestedError(failFast bool) OpenOption {
	return func(o *OpenOptions) {
		o.FailFastOnNestedError = failFast
	}
}

// NewOpenOptions applies opts over the zero value of OpenOptions.
func NewOpenOptions(opts ...OpenOption) *OpenOptions {
	options := &OpenOptions{}
	for _, opt := range opts {
		opt(options)
	}
	return options
}
