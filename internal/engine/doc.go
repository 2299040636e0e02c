// Package engine implements the FaceOff game loop.
//
// The loop is the single serialization point between the outside world and
// the session controller. Face-tracker samples, the start command and fired
// timers are all turned into events on one FIFO queue, and one goroutine
// (Loop.Run) hands them to the controller in order.
//
// ARCHITECTURE:
//
// Single-Writer Event Loop:
// All state transitions happen in the Run goroutine. This ensures:
// - Tick, StartGame and timer handling never interleave
// - Events are processed in arrival order
// - The controller needs no locks
//
// Event Processing Flow:
// 1. Producers call SubmitSample / RequestStart from any goroutine
// 2. Armed timers enqueue EventTypeTimer when they fire
// 3. Run() dequeues events one at a time
// 4. processEvent() routes to the Handler
//
// Timers:
// The loop implements session.Scheduler. CancelAll stops every armed
// timer; a timer that already fired and is waiting in the queue is still
// delivered, and the controller drops it by generation token.
//
// Sequencing:
// Every event is stamped with a monotonic Seq from Sequencer so traces can
// be ordered without relying on wall time.
package engine
