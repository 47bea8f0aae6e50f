package vm

import (
	"fmt"
	"math"

	"github.com/dev-parkins/FerrisScript-sub007/compiler"
)

// ---------------------------------------------------------------------------
// Exported property store
//
// Exported globals double as the property store: GetProperty and SetProperty
// read and write the same storage script code sees, so a host write is
// immediately visible to the next script call and vice versa.
// ---------------------------------------------------------------------------

// GetProperty reads an exported property by name. Unexported globals are not
// visible through this interface.
func (env *Environment) GetProperty(name string) (Value, error) {
	if _, ok := env.props[name]; !ok {
		return Value{}, fmt.Errorf("%w: %q", ErrPropertyNotFound, name)
	}
	return env.globals[name], nil
}

// SetProperty writes an exported property. The value must match the declared
// type, allowing only lossless conversion (i32 to f32, or an exactly integral
// f32 to i32). Writes with fromInspector set are clamped to the property's
// range hint silently; programmatic writes are stored as given.
func (env *Environment) SetProperty(name string, val Value, fromInspector bool) error {
	meta, ok := env.props[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrPropertyNotFound, name)
	}
	converted, ok := Convert(val, meta.Type)
	if !ok {
		return runtimeErrorf(compiler.CodePropertyType, compiler.Span{},
			"property %q holds %s, cannot store %s", name, meta.Type, val.Kind)
	}
	if fromInspector {
		converted = clampToRange(converted, meta.Range)
	}
	env.globals[name] = converted
	return nil
}

// clampToRange clamps a numeric value into a range hint and snaps it to the
// step grid anchored at min. Non-numeric values and nil hints pass through.
func clampToRange(v Value, r *compiler.RangeHint) Value {
	if r == nil {
		return v
	}
	switch v.Kind {
	case KindInt:
		return IntValue(int32(clampFloat(float64(v.I), r)))
	case KindFloat:
		return FloatValue(float32(clampFloat(float64(v.F), r)))
	}
	return v
}

func clampFloat(f float64, r *compiler.RangeHint) float64 {
	if r.Step > 0 {
		f = r.Min + math.Round((f-r.Min)/r.Step)*r.Step
	}
	if f < r.Min {
		return r.Min
	}
	if f > r.Max {
		return r.Max
	}
	return f
}
