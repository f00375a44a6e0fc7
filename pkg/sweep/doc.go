// Package sweep runs the periodic background jobs of the reservation
// lifecycle: warning attendees shortly before a hold lapses, expiring
// overdue holds, reminding attendees of events starting tomorrow, and
// purging old read feed notifications.
//
// The Scheduler runs each named job on its own ticker goroutine. One tick
// failing or panicking never affects the next tick or the other jobs.
//
//	s := sweep.NewScheduler(sweep.WithLogger(log))
//	jobs := sweep.Jobs{
//		Store:      store,
//		Dispatcher: dispatcher,
//		Directory:  directory,
//		Feed:       feedStorage,
//	}
//	if err := jobs.Register(s); err != nil {
//		return err
//	}
//	if err := s.Start(ctx); err != nil {
//		return err
//	}
//	defer s.Stop()
//
// The expiry sweep never wins over a concurrent confirmation: the
// PENDING to EXPIRED transition is a conditional write, and the expiry
// notification only fires when that write actually happened.
package sweep
