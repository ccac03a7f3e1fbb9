/*
Package log wraps zerolog for structured logging across the job
scheduler, the arbiter, and the coordinator stand-in.

Init configures the global Logger once, typically from a CLI's root
command (see cmd/jobsched):

	log.Init(log.Config{Level: log.DebugLevel, JSONOutput: true})

Components derive a child logger carrying their identifying fields:

	logger := log.WithJobName(jobName)
	logger.Info().Str("node", string(node)).Msg("task assigned")

A package-level default (info level, console output) is installed at
init so library code logs sensibly even when nothing has called Init —
useful in tests and when this module is imported as a library rather
than run through cmd/jobsched.
*/
package log
