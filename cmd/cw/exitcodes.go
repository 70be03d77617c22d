package main

// Exit codes shared by all cw commands
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (bad config file, unusable publications list)
	ExitDataError   = 3 // Data error (missing/corrupt snapshot, no DOI in PDF)
)
