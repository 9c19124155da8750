// Package entitybus implements the datagram player-state bus of §4.H: a
// best-effort UDP channel carrying position/velocity updates, validated
// by a Quake-style anti-cheat predicate, broadcast to other known
// endpoints. Each UDP endpoint is assigned a stable PlayerId (via
// github.com/google/uuid) on first contact, per §9's design note
// ("replace endpoint-string keys with a stable PlayerId assigned on
// first contact").
package entitybus

import (
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

// Anti-cheat tuning constants (§4.H).
const (
	VMax          = 60.0  // m/s, max vertical speed
	BHopMax       = 25.0  // m/s, max horizontal speed
	AccelCapPerDt = 150.0 // m/s^2, generous per-tick acceleration cap
	StepTolerance = 1.3
	MaxViolations = 5

	minDt = time.Millisecond
	maxDt = 500 * time.Millisecond
	gapDt = time.Second

	recentSpeedWindow = 5
)

// PlayerState is the per-endpoint mutable state §3 describes.
type PlayerState struct {
	Position mgl32.Vec3
	Velocity mgl32.Vec3
	Yaw      float32
	Pitch    float32
	Grounded bool

	LastValidPosition mgl32.Vec3
	RecentSpeeds      [recentSpeedWindow]float32
	recentSpeedCount  int
	recentSpeedHead   int

	Violations    int
	LastSeq       uint32
	LastUpdatedAt time.Time
}

func (p *PlayerState) avgRecentSpeed() float32 {
	if p.recentSpeedCount == 0 {
		return 0
	}
	var sum float32
	for i := 0; i < p.recentSpeedCount; i++ {
		sum += p.RecentSpeeds[i]
	}
	return sum / float32(p.recentSpeedCount)
}

func (p *PlayerState) pushRecentSpeed(v float32) {
	p.RecentSpeeds[p.recentSpeedHead] = v
	p.recentSpeedHead = (p.recentSpeedHead + 1) % recentSpeedWindow
	if p.recentSpeedCount < recentSpeedWindow {
		p.recentSpeedCount++
	}
}

// Incoming is one ingested PlayerPosition sample (§6 packet type 1).
type Incoming struct {
	Seq      uint32
	Position mgl32.Vec3
	Velocity mgl32.Vec3
	Yaw      float32
	Pitch    float32
	Grounded bool
	At       time.Time
}

// Validate applies the anti-cheat predicate of §4.H to an incoming
// sample against the player's current state. It returns (accept, dt) —
// accept is false when the sample should be rejected (the caller keeps
// the last validated state and may emit a corrective ack). The only field
// of p it changes is the Violations counter; position, velocity and
// history are left for the caller to commit, since whether to commit the
// update is the caller's decision (first contact / reconnect get
// different commit rules).
func Validate(p *PlayerState, in Incoming) (accept bool, dt time.Duration) {
	if p.LastUpdatedAt.IsZero() {
		return true, 0
	}

	dt = in.At.Sub(p.LastUpdatedAt)
	if dt > gapDt {
		// Reconnect / long gap: unconditionally accept and reset history.
		return true, dt
	}
	if dt < minDt {
		dt = minDt
	} else if dt > maxDt {
		dt = maxDt
	}

	delta := in.Position.Sub(p.Position)
	horizontal := mgl32.Vec2{delta.X(), delta.Z()}.Len()
	vertical := delta.Y()
	if vertical < 0 {
		vertical = -vertical
	}

	seconds := float32(dt.Seconds())
	horizontalSpeed := horizontal / seconds
	verticalSpeed := vertical / seconds

	// A single packet over the hard speed caps is rejected immediately —
	// these are the caps a legitimate client physically cannot exceed in
	// one tick, so tolerating a run of them before rejecting would let an
	// obvious teleport/speed-hack packet through and commit it.
	if verticalSpeed > VMax || horizontalSpeed > BHopMax {
		return false, dt
	}

	// Borderline violations (acceleration spikes, step-distance overshoot
	// within the hard caps) can come from ordinary network jitter, so
	// they're tolerated for a few consecutive packets before rejecting.
	violated := false
	avg := p.avgRecentSpeed()
	accelDelta := horizontalSpeed - avg
	if accelDelta < 0 {
		accelDelta = -accelDelta
	}
	if accelDelta > AccelCapPerDt*seconds {
		violated = true
	}
	step := delta.Len()
	if step > BHopMax*seconds*StepTolerance {
		violated = true
	}

	if violated {
		p.Violations++
		if p.Violations > MaxViolations {
			return false, dt
		}
		// Below threshold: absorb jitter, accept to avoid false positives.
		return true, dt
	}

	if p.Violations > 0 {
		p.Violations--
	}
	return true, dt
}

// Commit applies an accepted sample to p's state (called only when
// Validate returned accept=true). A first-contact or post-gap sample
// (dt == 0 or dt > the reconnect threshold) resets the violation
// counter and recent-speed history rather than folding the big jump in,
// per §4.H "the next packet is unconditionally accepted and the history
// reset".
func (p *PlayerState) Commit(in Incoming, dt time.Duration) {
	if p.LastUpdatedAt.IsZero() || dt > gapDt {
		p.recentSpeedCount = 0
		p.recentSpeedHead = 0
		p.Violations = 0
		p.Position = in.Position
		p.Velocity = in.Velocity
		p.Yaw = in.Yaw
		p.Pitch = in.Pitch
		p.Grounded = in.Grounded
		p.LastValidPosition = in.Position
		p.LastSeq = in.Seq
		p.LastUpdatedAt = in.At
		return
	}

	delta := in.Position.Sub(p.Position)
	horizontal := mgl32.Vec2{delta.X(), delta.Z()}.Len()
	seconds := float32(dt.Seconds())
	if seconds > 0 {
		p.pushRecentSpeed(horizontal / seconds)
	}

	p.Position = in.Position
	p.Velocity = in.Velocity
	p.Yaw = in.Yaw
	p.Pitch = in.Pitch
	p.Grounded = in.Grounded
	p.LastValidPosition = in.Position
	p.LastSeq = in.Seq
	p.LastUpdatedAt = in.At
}
