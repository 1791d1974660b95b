package agentloop

import "errors"

var (
	// ErrConfigInvalid means configuration load failed before the loop
	// started.
	ErrConfigInvalid = errors.New("invalid configuration")

	// ErrCredentialMissing means the selected provider requires a key and
	// none resolved through the credential chain.
	ErrCredentialMissing = errors.New("no credential found for provider")

	// ErrIterationCapExceeded means the loop ran MaxToolIterations times
	// without the model producing a reply with no further tool calls.
	ErrIterationCapExceeded = errors.New("agent exceeded maximum tool iterations")
)
