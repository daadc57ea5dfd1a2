package model

import "time"

// Member represents a gym member as stored in the `members` table.
// The credit balance is the currency consumed by confirmed bookings;
// it is only ever mutated by the booking engine's settlement (±1) or
// by a staff credit grant.  Balance never goes negative as a result
// of engine operations.
//
// Fields:
//  ID          – primary key identifier.
//  FullName    – display name of the member.
//  Email       – unique email address.
//  Group       – cohort affiliation, matched against session cohorts.
//  Credits     – remaining class credits (integer, >= 0).
//  WeeklyQuota – optional per-member override of the confirmed-booking
//                quota; nil means the platform default applies.
//  CreatedAt   – timestamp of creation.
//  UpdatedAt   – timestamp of last update.
type Member struct {
	ID          uint64    // members.id
	FullName    string    // members.full_name
	Email       string    // members.email
	Group       string    // members.cohort
	Credits     int32     // members.credits
	WeeklyQuota *uint32   // members.weekly_quota (nullable)
	CreatedAt   time.Time // members.created_at
	UpdatedAt   time.Time // members.updated_at
}
