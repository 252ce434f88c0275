// Package hub fans mutation events out to connected WebSocket clients.
//
// Publishers hand events to Publish, which never blocks: an event is either
// queued or dropped and counted. A single broadcast loop (Run) drains the
// queue and copies each encoded event into every client's bounded outbound
// buffer. A client whose buffer is full misses that event; no other client
// is slowed down.
//
// Delivery is best effort with no replay. A client receives an event only if
// it was registered before the event was published.
//
// Lock ordering: the registry lock guards membership and every send into a
// client buffer. A client's buffer is closed only under the write lock, so a
// send can never race with teardown.
package hub
