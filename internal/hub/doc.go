// Package hub implements the real-time broadcast hub using the actor pattern.
//
// A single goroutine owns the connection registry and the membership index,
// so the two stay mutually consistent without locks: every mutation arrives
// as a command on the hub's channel. Per-connection write goroutines handle
// slow clients and run the heartbeat schedule; the periodic sweep evicts
// connections whose last activity exceeds the idle timeout.
package hub
