// Package core implements the engine's frame-driven runtime: a sealable
// catalog of object and event types, a generation-checked store of live
// game objects, a priority-ordered event bus with immediate and
// next-frame delivery, and the scheduler that drives updates, rendering,
// and audio in a fixed per-frame order.
package core
