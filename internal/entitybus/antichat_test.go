package entitybus

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

func TestValidateAcceptsFirstContact(t *testing.T) {
	p := &PlayerState{}
	accept, dt := Validate(p, Incoming{Position: mgl32.Vec3{0, 0, 0}, At: time.Now()})
	if !accept {
		t.Fatalf("expected first-contact sample to be accepted")
	}
	if dt != 0 {
		t.Fatalf("expected dt=0 on first contact, got %v", dt)
	}
}

// TestValidateRejectsEgregiousSpeedOnFirstPacket covers spec scenario S6: a
// single 200 m/s PlayerPosition packet must be rejected immediately, not
// tolerated for a few packets via the violation counter.
func TestValidateRejectsEgregiousSpeedOnFirstPacket(t *testing.T) {
	p := &PlayerState{}
	now := time.Now()
	init := Incoming{Position: mgl32.Vec3{0, 0, 0}, At: now}
	Validate(p, init)
	p.Commit(init, 0)

	now = now.Add(50 * time.Millisecond)
	// 10m in 50ms is 200 m/s horizontal, well past BHopMax.
	in := Incoming{Position: mgl32.Vec3{10, 0, 0}, At: now}
	accept, _ := Validate(p, in)
	if accept {
		t.Fatalf("expected a single egregious speed violation to be rejected immediately")
	}
	if p.Violations != 0 {
		t.Fatalf("expected the violation counter to stay untouched by a hard speed-cap reject, got %d", p.Violations)
	}
}

// TestValidateToleratesBorderlineJitterUpToThreshold covers the violation
// counter's intended purpose: a step-distance overshoot that stays within
// both hard speed caps (ordinary network jitter, not a speed-hack) is
// tolerated for a few packets, then eventually rejected once it persists.
func TestValidateToleratesBorderlineJitterUpToThreshold(t *testing.T) {
	p := &PlayerState{}
	now := time.Now()
	pos := mgl32.Vec3{0, 0, 0}
	init := Incoming{Position: pos, At: now}
	Validate(p, init)
	p.Commit(init, 0)

	// Each tick moves 1m horizontally (20 m/s, under BHopMax=25) and 1.4m
	// vertically (28 m/s, under VMax=60), but the combined 3D step
	// (~1.72m) exceeds BHopMax*dt*StepTolerance (~1.625m): a borderline
	// overshoot, not an egregious one.
	step := mgl32.Vec3{1, 1.4, 0}
	accept := true
	for i := 0; i < MaxViolations; i++ {
		now = now.Add(50 * time.Millisecond)
		pos = pos.Add(step)
		in := Incoming{Position: pos, At: now}
		var dt time.Duration
		accept, dt = Validate(p, in)
		if !accept {
			t.Fatalf("expected borderline jitter violation #%d to be tolerated", i+1)
		}
		p.Commit(in, dt)
	}

	now = now.Add(50 * time.Millisecond)
	pos = pos.Add(step)
	in := Incoming{Position: pos, At: now}
	accept, _ = Validate(p, in)
	if accept {
		t.Fatalf("expected borderline jitter to be rejected once it persists past MaxViolations")
	}
}

func TestValidateAcceptsPlausibleMovement(t *testing.T) {
	p := &PlayerState{}
	now := time.Now()
	init := Incoming{Position: mgl32.Vec3{0, 0, 0}, At: now}
	Validate(p, init)
	p.Commit(init, 0)

	now = now.Add(50 * time.Millisecond)
	in := Incoming{Position: mgl32.Vec3{0.5, 0, 0}, At: now}
	accept, dt := Validate(p, in)
	if !accept {
		t.Fatalf("expected plausible small movement to be accepted")
	}
	p.Commit(in, dt)
}

func TestValidateResetsAfterReconnectGap(t *testing.T) {
	p := &PlayerState{}
	now := time.Now()
	init := Incoming{Position: mgl32.Vec3{0, 0, 0}, At: now}
	Validate(p, init)
	p.Commit(init, 0)

	later := now.Add(2 * time.Second)
	bigJump := Incoming{Position: mgl32.Vec3{1000, 0, 0}, At: later}
	accept, dt := Validate(p, bigJump)
	if !accept {
		t.Fatalf("expected unconditional acceptance after a >1s gap")
	}
	p.Commit(bigJump, dt)
	if p.Violations != 0 {
		t.Fatalf("expected violation counter reset after reconnect gap, got %d", p.Violations)
	}
}
