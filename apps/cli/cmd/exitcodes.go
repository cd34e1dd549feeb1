package cmd

// Exit codes for the CLI
const (
	// ExitSuccess indicates all scenarios passed
	ExitSuccess = 0

	// ExitScenarioFailure indicates one or more scenarios failed
	ExitScenarioFailure = 1

	// ExitDocumentError indicates a feature document could not be loaded
	ExitDocumentError = 2

	// ExitConfigError indicates a feature configuration error
	ExitConfigError = 3

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)
