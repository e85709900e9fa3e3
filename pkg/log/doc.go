/*
Package log provides structured logging for vmscheduler using zerolog.

The log package wraps the zerolog library to provide JSON-structured
logging with component-specific loggers and configurable log levels.
All logs include timestamps and support filtering by severity level.
Logs default to stderr: the CLI prints the allocation summary on
stdout, and keeping the two streams apart lets the summary be piped
without log noise.

# Core Components

Global Logger:
  - Package-level zerolog.Logger instance
  - Initialized once via log.Init()
  - Accessible from all vmscheduler packages

Context Loggers:
  - WithComponent: tag logs with a component name ("config", "scheduler")
  - WithRunID: tag logs with the correlation ID of one solve (see
    pkg/scheduler.Result.RunID)

# Usage

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true})

	runLog := log.WithRunID(runID)
	runLog.Warn().Str("process", proc.Name).Msg("affinity target not found, ignoring")

	log.Logger.Error().Err(err).Msg("solve failed")

# DEBUG environment variable

cmd/scheduler enables Go stack traces on recovered panics, and sets the
log level to debug, when DEBUG=1 is set in the environment.

# See Also

  - pkg/config - logs dropped optimization-priority warnings through
    this package
  - pkg/scheduler - logs constraint-build warnings and solve summaries
*/
package log
