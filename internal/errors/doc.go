// Package errors provides coded, actionable errors for the storyapp
// command line.
//
// Each code maps to a category, a short message, an explanation and a
// hint. Configuration errors can point at the offending position in
// storyapp.json.
//
// # Error Codes
//
//	S1xx  configuration
//	S2xx  storage backends
//	S3xx  server
//	S4xx  command line
//
// # Usage
//
//	err := errors.New("S104").
//	    WithDetail(`"store.backend" is "mongo"`).
//	    WithLocation("storyapp.json", 7, 16)
//
//	errors.Fprint(os.Stderr, err)
//	// ERROR S104: Unknown store backend
//	//
//	//   storyapp.json:7:16
//	//   ...
//	//   Hint: Set "store": {"backend": "memory"} for a single instance
package errors
