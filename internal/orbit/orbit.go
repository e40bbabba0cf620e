// Package orbit moves the eye around the scene for turntable renders.
package orbit

import (
	"math"

	"github.com/charmbracelet/harmonica"

	"github.com/taigrr/shade/pkg/math3d"
)

// settle is the number of spring time constants a turntable spans, so the
// last frames ease into the full turn.
const settle = 6.0

// Turntable swings the eye about the vertical axis through the center. The
// azimuth follows a critically damped spring toward one full turn.
type Turntable struct {
	Center math3d.Vec3
	offset math3d.Vec3 // eye - center at azimuth 0

	spring harmonica.Spring
	angle  float64
	vel    float64
	target float64
}

// NewTurntable creates a turntable starting at eye that completes its turn
// over frames frames played at fps.
func NewTurntable(eye, center math3d.Vec3, frames, fps int) *Turntable {
	frames = max(frames, 1)
	fps = max(fps, 1)
	duration := float64(frames) / float64(fps)
	return &Turntable{
		Center: center,
		offset: eye.Sub(center),
		// damping 1.0 = critically damped (no overshoot)
		spring: harmonica.NewSpring(harmonica.FPS(fps), settle/duration, 1.0),
		target: 2 * math.Pi,
	}
}

// Angle returns the current azimuth in radians.
func (t *Turntable) Angle() float64 {
	return t.angle
}

// Eye returns the eye position at the current azimuth.
func (t *Turntable) Eye() math3d.Vec3 {
	return t.Center.Add(math3d.RotateY(t.angle).MulDir(t.offset))
}

// Step advances the spring by one frame.
func (t *Turntable) Step() {
	t.angle, t.vel = t.spring.Update(t.angle, t.vel, t.target)
}

// Pose is the eye of one turntable frame and its azimuth in radians.
type Pose struct {
	Eye   math3d.Vec3
	Angle float64
}

// Path returns the pose of every frame; frame 0 is eye itself.
func Path(eye, center math3d.Vec3, frames, fps int) []Pose {
	t := NewTurntable(eye, center, frames, fps)
	out := make([]Pose, 0, frames)
	for range frames {
		out = append(out, Pose{Eye: t.Eye(), Angle: t.Angle()})
		t.Step()
	}
	return out
}
