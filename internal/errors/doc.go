// Package errors provides the coded, actionable errors reported by the
// livesync command.
//
// Every error has a code mapping to a short message and an explanation:
//
//   - E1xx: configuration file errors
//   - E2xx: command line errors
//   - E3xx: connection and synchronisation failures
//
// # Usage
//
//	err := errors.New("E102").
//	    WithSource("livesync.json", "backoff.factor").
//	    WithSuggestion("Use a factor of at least 1, for example 1.5")
//
//	fmt.Fprint(os.Stderr, err.Format())
//	// Output:
//	// ERROR E102: Invalid configuration value
//	//
//	//   livesync.json: backoff.factor
//	//
//	//   A configuration value is outside its allowed range.
//	//
//	//   Hint: Use a factor of at least 1, for example 1.5
package errors
