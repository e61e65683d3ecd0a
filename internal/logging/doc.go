// Package logging configures structured slog logging for envcheck.
//
// By default only warnings and errors reach stderr, so the console report stays
// readable. With --debug every check is logged at debug level to a rotating
// JSON file under ~/.envcheck/logs/.
package logging
