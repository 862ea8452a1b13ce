// Package transport implements the receiver side of the J1939-21 transport
// protocol (TP.CM / TP.DT): reassembly of application messages too large for
// a single 8-byte CAN frame.
//
// Ownership boundary:
// - 8-byte connection-management and data-transfer codecs
// - segment storage strategies
// - the per-transfer reassembly state machine
//
// Bus I/O, sender-side pacing, timeout supervision and routing of frames to
// sessions belong to the caller. One Transfer handles one in-flight message.
package transport
