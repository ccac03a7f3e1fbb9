/*
Package coordinator polls cluster topology on a fixed interval and feeds
each polled membership into a JobScheduler actor, the same ticker-driven
shape the rest of this module uses for background reconciliation. It
also mints worker handles via Spawn so a caller can exercise the actor's
liveness watching without standing up a real task runtime.
*/
package coordinator
