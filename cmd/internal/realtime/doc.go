// Package realtime pushes social activity to connected websocket clients.
//
// The Hub implements social.Publisher: every successful post mutation is fanned
// out to all authenticated feed sessions. Fanout never blocks; a session whose
// bounded queue is full misses the event.
package realtime
