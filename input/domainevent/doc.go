// Package domainevent ingests domain event envelopes from the NATS
// bus and hands them to the simulation engine through a bounded queue.
//
// The subscription callback stays cheap: raw messages are submitted to
// a small decode worker pool, decoded envelopes pass a TTL dedupe
// cache keyed by event ID, and surviving events land in a drop-oldest
// circular buffer. The engine pulls from the buffer with Drain on its
// own tick; nothing on the ingest side ever blocks the bus.
//
// An optional JetStream mode replays a named stream's retained history
// instead of subscribing live, useful for warming the window after a
// restart.
package domainevent
