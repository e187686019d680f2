// Package schedule projects missions onto operational buckets and carries
// the scheduler-tick plumbing that re-evaluates time-based promotions.
package schedule

import (
	"time"

	"github.com/dispatchhq/dispatch/internal/types"
)

// Bucket is the operational grouping a mission occupies on the board.
type Bucket string

const (
	BucketPlanning      Bucket = "planning"
	BucketQueued        Bucket = "queued"
	BucketReady         Bucket = "ready"
	BucketInProgress    Bucket = "in_progress"
	BucketPendingReview Bucket = "pending_review"
	BucketDone          Bucket = "done"
	BucketFailed        Bucket = "failed"
)

// IsValid checks if the bucket value is valid.
func (b Bucket) IsValid() bool {
	switch b {
	case BucketPlanning, BucketQueued, BucketReady, BucketInProgress,
		BucketPendingReview, BucketDone, BucketFailed:
		return true
	}
	return false
}

// For maps a mission onto its bucket. Pure: same mission and clock always
// yield the same bucket, so callers re-evaluate on every tick and mutation.
//
// Precedence: the lifecycle gate first, then execution status, then the
// scheduled-time comparison for missions still waiting on the clock.
func For(m *types.Mission, now time.Time) Bucket {
	if !m.GateOpen() {
		return BucketPlanning
	}

	switch m.Status {
	case types.MissionInProgress:
		return BucketInProgress
	case types.MissionPendingReview:
		return BucketPendingReview
	case types.MissionDone:
		return BucketDone
	case types.MissionFailed:
		return BucketFailed
	case types.MissionAssigned, types.MissionRevision:
		return BucketReady
	}

	if at, ok := types.ParseWhen(m.ScheduledAt); ok && !at.After(now) {
		return BucketReady
	}
	return BucketQueued
}

// MoveAllowed reports whether dragging a mission into the target bucket is
// a legal operation. Derived buckets (planning, queued, ready) are not
// direct move targets; they fall out of the gate and the clock.
func MoveAllowed(m *types.Mission, target Bucket) bool {
	switch target {
	case BucketInProgress, BucketPendingReview, BucketDone, BucketFailed:
		return m.GateOpen()
	default:
		return false
	}
}

// StatusFor translates a legal move target back onto the execution-status
// axis.
func StatusFor(target Bucket) (types.MissionStatus, bool) {
	switch target {
	case BucketInProgress:
		return types.MissionInProgress, true
	case BucketPendingReview:
		return types.MissionPendingReview, true
	case BucketDone:
		return types.MissionDone, true
	case BucketFailed:
		return types.MissionFailed, true
	}
	return "", false
}
