// Package gattserver publishes the OpenThread Setup service on a BLE
// peripheral using tinygo.org/x/bluetooth.
//
// The host stack serves reads from the value last written to each
// characteristic handle, so the server pushes the wire value of every
// readable characteristic at start and again after each committed write.
// Writes from clients are forwarded to setupot.Service.Write. The stack
// reassembles queued writes itself and delivers them with their offset.
//
// Each BLE connection gets a fresh session ID so that a half finished
// write from one client never leaks into the next.
package gattserver
