// Package repository implements the MySQL persistence layer: the
// booking.Store used by the engine plus the catalog and member
// queries used by handlers.  Not-found and conflict conditions are
// reported with the booking package's sentinel errors so every layer
// compares against one set; errors specific to staff edits live
// here.
package repository

import "errors"

// ErrCapacityBelowOccupancy is returned when a staff session edit
// tries to lower max capacity under the current occupancy.  Handlers
// should translate this into an HTTP 409 response.
var ErrCapacityBelowOccupancy = errors.New("max capacity cannot drop below current occupancy")
