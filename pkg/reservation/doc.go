// Package reservation holds the reservation domain model and its stores.
//
// A reservation is created PENDING with an expiry deadline and moves to
// exactly one of CONFIRMED, EXPIRED, or CANCELLED. There is no transition
// out of a terminal state. All three transitions are conditioned on the
// row still being PENDING at write time, so two racing writers resolve to
// a single winner without a read-modify-write cycle.
package reservation
