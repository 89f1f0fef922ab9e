// Package tracers advects passive tracer particles through the driving
// field. Tracers carry no physics of their own; they ride the field
// velocity and make the driving pattern's structure visible in the output.
package tracers

import (
	"math"
	"math/rand"

	"github.com/mlange-42/ark/ecs"
)

// Position is a tracer's world position.
type Position struct {
	X, Y, Z float64
}

// Velocity is the field velocity sampled at the tracer's position.
type Velocity struct {
	X, Y, Z float64
}

// Field is the view of a driving generator the advection step needs.
type Field interface {
	Eval(x, y, z float64) (vx, vy, vz float64)
	Bounds() (min, max [3]float64)
	NDim() int
}

// System owns the tracer entities and advects them through a field.
type System struct {
	world  *ecs.World
	mapper *ecs.Map2[Position, Velocity]
	filter ecs.Filter2[Position, Velocity]

	min, max [3]float64
	ndim     int
	count    int
}

// NewSystem creates count tracers placed uniformly at random over the
// field's domain. The placement seed is independent of the driving seed, so
// reseeding tracers never perturbs the driving sequence.
func NewSystem(f Field, count int, seed int64) *System {
	world := ecs.NewWorld()
	s := &System{
		world:  world,
		mapper: ecs.NewMap2[Position, Velocity](world),
		filter: *ecs.NewFilter2[Position, Velocity](world),
		ndim:   f.NDim(),
		count:  count,
	}
	s.min, s.max = f.Bounds()

	rng := rand.New(rand.NewSource(seed))
	for i := 0; i < count; i++ {
		pos := Position{X: s.min[0] + rng.Float64()*(s.max[0]-s.min[0])}
		if s.ndim > 1 {
			pos.Y = s.min[1] + rng.Float64()*(s.max[1]-s.min[1])
		} else {
			pos.Y = s.min[1]
		}
		if s.ndim > 2 {
			pos.Z = s.min[2] + rng.Float64()*(s.max[2]-s.min[2])
		} else {
			pos.Z = s.min[2]
		}
		vel := Velocity{}
		s.mapper.NewEntity(&pos, &vel)
	}
	return s
}

// Count returns the number of tracers.
func (s *System) Count() int { return s.count }

// Update samples the field at every tracer and advects it by dt, wrapping
// periodically at the domain boundaries. Axes beyond the field's dimension
// stay fixed.
func (s *System) Update(f Field, dt float64) {
	query := s.filter.Query()
	for query.Next() {
		pos, vel := query.Get()

		vel.X, vel.Y, vel.Z = f.Eval(pos.X, pos.Y, pos.Z)

		pos.X = wrap(pos.X+vel.X*dt, s.min[0], s.max[0])
		if s.ndim > 1 {
			pos.Y = wrap(pos.Y+vel.Y*dt, s.min[1], s.max[1])
		}
		if s.ndim > 2 {
			pos.Z = wrap(pos.Z+vel.Z*dt, s.min[2], s.max[2])
		}
	}
}

// Positions returns a snapshot of all tracer positions. Order is stable
// between calls because tracers are never added or removed after creation.
func (s *System) Positions() [][3]float64 {
	out := make([][3]float64, 0, s.count)
	query := s.filter.Query()
	for query.Next() {
		pos, _ := query.Get()
		out = append(out, [3]float64{pos.X, pos.Y, pos.Z})
	}
	return out
}

// Speeds returns a snapshot of all tracer speed magnitudes, in the same
// order as Positions.
func (s *System) Speeds() []float64 {
	out := make([]float64, 0, s.count)
	query := s.filter.Query()
	for query.Next() {
		_, vel := query.Get()
		out = append(out, mag3(vel.X, vel.Y, vel.Z))
	}
	return out
}

func mag3(x, y, z float64) float64 {
	return math.Sqrt(x*x + y*y + z*z)
}

func wrap(x, min, max float64) float64 {
	l := max - min
	if l <= 0 {
		return x
	}
	for x < min {
		x += l
	}
	for x >= max {
		x -= l
	}
	return x
}
