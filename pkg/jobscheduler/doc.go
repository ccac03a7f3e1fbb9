/*
Package jobscheduler implements the per-job fair scheduler actor.

One JobScheduler exists per live job. It owns a task bucket store (one
bucket per node plus the NoPref sentinel bucket) and a set of currently
running workers, and it answers three kinds of synchronous calls:

  - ScheduleLocal / ScheduleRemote, the two-phase placement call the
    arbiter issues on every scheduling tick (remote only after local
    reports NoLocal)
  - GetEmptyNodes, the 500ms-budget call a peer job's arbiter issues when
    deciding whether this job will give up an idle node
  - GetStats, the queued-total and running-count load report

Everything else (NewTask, UpdateNodes, TaskStarted, Die) is
fire-and-forget: the caller posts a closure onto the actor's mailbox and
moves on. The mailbox is a single buffered chan func() drained by Run,
so the bucket store and running set never need locks of their own —
every state change happens on one goroutine, one closure at a time.

	js := jobscheduler.New(jobscheduler.Config{JobName: "wordcount", Nodes: nodes})
	go js.Run()
	js.NewTask(task, stats)
	decision, err := js.ScheduleLocal(ctx, available)
*/
package jobscheduler
