// Package logging sets up the slog JSON logger shared by rpctl and
// rpctl-watch.
//
// Diagnostics go to stderr as JSON while stdout carries the coloured status
// lines and the --format output, so piping `rpctl status --format json` into
// jq keeps working at any log level.
//
// # Wiring
//
// rpctl installs the default logger in its root Before hook, after the
// --log-level flag (or LOG_LEVEL) is parsed:
//
//	logging.SetDefaultStructuredLoggerWithLevel("rpctl", version, cmd.String("log-level"))
//
// rpctl-watch has no flags for it and reads LOG_LEVEL directly:
//
//	logging.SetDefaultStructuredLogger("rpctl-watch", version)
//
// The watch server's http.Server.ErrorLog is bridged with NewLogLogger so TLS
// and connection errors end up in the same stream.
//
// # Levels
//
// ParseLogLevel accepts debug, info, warn (or warning) and error in any case.
// Anything else means info. At debug every record carries its source
// location, which is how the compose argv and probe timings are traced:
//
//	LOG_LEVEL=debug rpctl restart
//	{"time":"...","level":"DEBUG","source":{...},"msg":"running command",
//	 "module":"rpctl","version":"dev","cmd":"docker compose -f ... restart"}
//
// Every record is tagged with module and version.
package logging
