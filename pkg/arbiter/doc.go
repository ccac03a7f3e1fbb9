/*
Package arbiter coordinates scheduling rounds across a set of job actors.
Its job is narrow: call ScheduleLocal, and on NoLocal, ask every other
registered job's GetEmptyNodes for the nodes it is willing to surrender,
intersect those answers down to a free set, and retry with
ScheduleRemote. ActorDeadline (30s) bounds every call into a job actor;
PeerQueryDeadline (500ms) bounds one peer's GetEmptyNodes answer. A job
actor that exceeds ActorDeadline is killed, since the arbiter has no way
to tell a slow actor from a wedged one.
*/
package arbiter
