// Package node implements the simulation engine of a driftsim node.
//
// Tick Loop
//
// A node runs a single tick loop at a fixed rate, its tick rate, chosen once
// at startup. On every tick it performs exactly one action:
//
//   - if the inbound queue is not empty, it dequeues the oldest message and
//     applies the Lamport rule, clock = max(clock, received) + 1;
//   - otherwise it draws one action from its probability table: an internal
//     event, a unicast to one peer chosen uniformly at random, or a broadcast
//     to all peers one after the other. Each of these advances the clock by
//     one before any message leaves the node.
//
// The loop then sleeps for what is left of the tick interval. A tick that
// overruns its interval is followed immediately by the next one.
//
// Only the tick loop touches the logical clock. The inbound queue is the single
// structure shared with the Receiver, which runs in its own goroutine and
// enqueues whatever the transport hands it.
//
// Sends
//
// Every send is bounded by a timeout. A failed send is reported to the event
// emitter and logged, and the loop carries on. Sends are never retried and a
// failure never rolls the clock back.
package node
