package manifest

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/ChrisPortokalis/EngineBase/internal/script"
)

// Step converts the descriptor into a move step. Parameter checks are left to
// the step's own Validate.
func (s StepSpec) Step() (script.Step, error) {
	switch s.Kind {
	case "face-target":
		return &script.FaceTarget{}, nil
	case "global-rotate":
		return &script.GlobalRotate{Axis: s.Axis, Angle: mgl32.DegToRad(s.Angle)}, nil
	case "local-rotate":
		return &script.LocalRotate{Axis: s.Axis, Angle: mgl32.DegToRad(s.Angle)}, nil
	case "local-translate":
		return &script.LocalTranslate{Delta: s.Delta}, nil
	case "global-translate":
		return &script.GlobalTranslate{Delta: s.Delta}, nil
	case "set-scale":
		return &script.SetScale{Scale: s.Scale}, nil
	case "oscillate":
		return &script.Oscillate{Delta: s.Delta, Max: s.Max}, nil
	case "follow":
		return &script.Follow{Distance: s.Distance, Speed: s.Speed}, nil
	case "projectile":
		return &script.Projectile{Speed: s.Speed, MaxDistance: s.Range, Reference: s.Ref}, nil
	case "tween":
		return &script.Tween{To: s.To, Duration: s.Duration, Ease: s.Ease, Yoyo: s.Yoyo}, nil
	case "orbit":
		return &script.Orbit{Axis: s.Axis, Angle: mgl32.DegToRad(s.Angle), Delta: s.Delta, Inverse: s.Inverse}, nil
	case "":
		return nil, fmt.Errorf("step without kind: %w", script.ErrInvalidStep)
	default:
		return nil, fmt.Errorf("unknown step kind %q: %w", s.Kind, script.ErrInvalidStep)
	}
}

func buildSteps(specs []StepSpec) ([]script.Step, error) {
	steps := make([]script.Step, 0, len(specs))
	for i, spec := range specs {
		st, err := spec.Step()
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		steps = append(steps, st)
	}
	return steps, nil
}
