/*
Package events implements the job scheduler's outbound event log: one
record per abort condition (unschedulable forced task, exhausted task,
schedule timeout), plus optional lifecycle records an operator can use to
reconstruct a job actor's history after the fact.

Broker is a small buffered pub/sub: Publish waits only while the broker's
100-event queue is full, and a slow or absent subscriber never stalls
scheduling (a full subscriber buffer drops the event).
A production deployment would forward every event to the cluster's real
telemetry sink; this package only decouples "the actor decided to abort"
from "something durable recorded it".

	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)

	broker.Publish(&events.Event{
		Type:    events.EventTaskExhausted,
		JobName: "ingest-7",
		TaskID:  42,
		Cause:   assign.ErrExhausted.Error(),
	})
*/
package events
