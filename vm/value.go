package vm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dev-parkins/FerrisScript-sub007/compiler"
)

// ---------------------------------------------------------------------------
// Runtime values
// ---------------------------------------------------------------------------

// Kind discriminates the runtime representation of a Value.
type Kind int

const (
	KindNil Kind = iota
	KindInt
	KindFloat
	KindBool
	KindString
	KindVector2
	KindColor
	KindRect2
	KindTransform2D
	KindNode
)

var kindNames = map[Kind]string{
	KindNil:         "nil",
	KindInt:         "i32",
	KindFloat:       "f32",
	KindBool:        "bool",
	KindString:      "String",
	KindVector2:     "Vector2",
	KindColor:       "Color",
	KindRect2:       "Rect2",
	KindTransform2D: "Transform2D",
	KindNode:        "Node",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// NodeHandle is an opaque reference to a host engine node. The runtime never
// inspects it; it only passes handles between host callbacks and script code.
type NodeHandle any

// Vector2 is a 2D float vector.
type Vector2 struct {
	X, Y float32
}

// Color is an RGBA color with float channels.
type Color struct {
	R, G, B, A float32
}

// Rect2 is an axis-aligned rectangle.
type Rect2 struct {
	Position, Size Vector2
}

// Transform2D is a 2D affine transform expressed as origin plus basis axes.
type Transform2D struct {
	Origin, XAxis, YAxis Vector2
}

// Value is a tagged runtime value. Scalars live in dedicated fields; composite
// payloads (Vector2, Color, Rect2, Transform2D, NodeHandle) live in Obj.
// Values have copy semantics: assigning a composite copies it.
type Value struct {
	Kind Kind
	I    int32
	F    float32
	B    bool
	S    string
	Obj  any
}

func NilValue() Value               { return Value{Kind: KindNil} }
func IntValue(i int32) Value        { return Value{Kind: KindInt, I: i} }
func FloatValue(f float32) Value    { return Value{Kind: KindFloat, F: f} }
func BoolValue(b bool) Value        { return Value{Kind: KindBool, B: b} }
func StringValue(s string) Value    { return Value{Kind: KindString, S: s} }
func Vector2Value(v Vector2) Value  { return Value{Kind: KindVector2, Obj: v} }
func ColorValue(c Color) Value      { return Value{Kind: KindColor, Obj: c} }
func Rect2Value(r Rect2) Value      { return Value{Kind: KindRect2, Obj: r} }
func Transform2DValue(t Transform2D) Value {
	return Value{Kind: KindTransform2D, Obj: t}
}
func NodeValue(h NodeHandle) Value { return Value{Kind: KindNode, Obj: h} }

// Vector2 returns the Vector2 payload. Valid only when Kind is KindVector2.
func (v Value) Vector2() Vector2 { return v.Obj.(Vector2) }

// Color returns the Color payload. Valid only when Kind is KindColor.
func (v Value) Color() Color { return v.Obj.(Color) }

// Rect2 returns the Rect2 payload. Valid only when Kind is KindRect2.
func (v Value) Rect2() Rect2 { return v.Obj.(Rect2) }

// Transform2D returns the Transform2D payload. Valid only when Kind is
// KindTransform2D.
func (v Value) Transform2D() Transform2D { return v.Obj.(Transform2D) }

// NodeHandle returns the host handle payload. Valid only when Kind is KindNode.
func (v Value) NodeHandle() NodeHandle { return v.Obj }

// IsNil reports whether the value is the nil value.
func (v Value) IsNil() bool { return v.Kind == KindNil }

// TypeOf maps a runtime kind back to its static type.
func (v Value) TypeOf() compiler.Type {
	switch v.Kind {
	case KindInt:
		return compiler.TypeI32
	case KindFloat:
		return compiler.TypeF32
	case KindBool:
		return compiler.TypeBool
	case KindString:
		return compiler.TypeString
	case KindVector2:
		return compiler.TypeVector2
	case KindColor:
		return compiler.TypeColor
	case KindRect2:
		return compiler.TypeRect2
	case KindTransform2D:
		return compiler.TypeTransform2D
	case KindNode:
		return compiler.TypeNode
	}
	return compiler.TypeVoid
}

// kindForType maps a static type to the runtime kind that stores it.
func kindForType(t compiler.Type) Kind {
	switch t {
	case compiler.TypeI32:
		return KindInt
	case compiler.TypeF32:
		return KindFloat
	case compiler.TypeBool:
		return KindBool
	case compiler.TypeString:
		return KindString
	case compiler.TypeVector2:
		return KindVector2
	case compiler.TypeColor:
		return KindColor
	case compiler.TypeRect2:
		return KindRect2
	case compiler.TypeTransform2D:
		return KindTransform2D
	case compiler.TypeNode:
		return KindNode
	}
	return KindNil
}

// Convert coerces v to the kind storing t. Allowed conversions are identity,
// the i32 to f32 widening the type system permits, and f32 to i32 only when
// the float is exactly integral and in range.
func Convert(v Value, t compiler.Type) (Value, bool) {
	want := kindForType(t)
	if v.Kind == want {
		return v, true
	}
	if v.Kind == KindInt && want == KindFloat {
		return FloatValue(float32(v.I)), true
	}
	if v.Kind == KindFloat && want == KindInt {
		i := int32(v.F)
		if float32(i) == v.F {
			return IntValue(i), true
		}
	}
	return Value{}, false
}

// Field reads a named field of a composite value.
func (v Value) Field(name string) (Value, bool) {
	switch v.Kind {
	case KindVector2:
		vec := v.Vector2()
		switch name {
		case "x":
			return FloatValue(vec.X), true
		case "y":
			return FloatValue(vec.Y), true
		}
	case KindColor:
		col := v.Color()
		switch name {
		case "r":
			return FloatValue(col.R), true
		case "g":
			return FloatValue(col.G), true
		case "b":
			return FloatValue(col.B), true
		case "a":
			return FloatValue(col.A), true
		}
	case KindRect2:
		rect := v.Rect2()
		switch name {
		case "position":
			return Vector2Value(rect.Position), true
		case "size":
			return Vector2Value(rect.Size), true
		}
	case KindTransform2D:
		xf := v.Transform2D()
		switch name {
		case "origin":
			return Vector2Value(xf.Origin), true
		case "x_axis":
			return Vector2Value(xf.XAxis), true
		case "y_axis":
			return Vector2Value(xf.YAxis), true
		}
	}
	return Value{}, false
}

// WithField returns a copy of v with the named field replaced. Used to write
// back through field assignment chains, since composites copy on assignment.
func (v Value) WithField(name string, field Value) (Value, bool) {
	switch v.Kind {
	case KindVector2:
		if field.Kind != KindFloat {
			return Value{}, false
		}
		vec := v.Vector2()
		switch name {
		case "x":
			vec.X = field.F
		case "y":
			vec.Y = field.F
		default:
			return Value{}, false
		}
		return Vector2Value(vec), true
	case KindColor:
		if field.Kind != KindFloat {
			return Value{}, false
		}
		col := v.Color()
		switch name {
		case "r":
			col.R = field.F
		case "g":
			col.G = field.F
		case "b":
			col.B = field.F
		case "a":
			col.A = field.F
		default:
			return Value{}, false
		}
		return ColorValue(col), true
	case KindRect2:
		if field.Kind != KindVector2 {
			return Value{}, false
		}
		rect := v.Rect2()
		switch name {
		case "position":
			rect.Position = field.Vector2()
		case "size":
			rect.Size = field.Vector2()
		default:
			return Value{}, false
		}
		return Rect2Value(rect), true
	case KindTransform2D:
		if field.Kind != KindVector2 {
			return Value{}, false
		}
		xf := v.Transform2D()
		switch name {
		case "origin":
			xf.Origin = field.Vector2()
		case "x_axis":
			xf.XAxis = field.Vector2()
		case "y_axis":
			xf.YAxis = field.Vector2()
		default:
			return Value{}, false
		}
		return Transform2DValue(xf), true
	}
	return Value{}, false
}

// Equals compares two values of the same kind for equality.
func (v Value) Equals(other Value) bool {
	if v.Kind != other.Kind {
		// Mixed numeric comparison promotes to float.
		if v.Kind == KindInt && other.Kind == KindFloat {
			return float32(v.I) == other.F
		}
		if v.Kind == KindFloat && other.Kind == KindInt {
			return v.F == float32(other.I)
		}
		return false
	}
	switch v.Kind {
	case KindNil:
		return true
	case KindInt:
		return v.I == other.I
	case KindFloat:
		return v.F == other.F
	case KindBool:
		return v.B == other.B
	case KindString:
		return v.S == other.S
	case KindVector2:
		return v.Vector2() == other.Vector2()
	case KindColor:
		return v.Color() == other.Color()
	case KindRect2:
		return v.Rect2() == other.Rect2()
	case KindTransform2D:
		return v.Transform2D() == other.Transform2D()
	case KindNode:
		return v.Obj == other.Obj
	}
	return false
}

func formatFloat(f float32) string {
	s := strconv.FormatFloat(float64(f), 'g', -1, 32)
	if !strings.ContainsAny(s, ".eE") && !strings.Contains(s, "Inf") && s != "NaN" {
		s += ".0"
	}
	return s
}

func formatVector2(v Vector2) string {
	return fmt.Sprintf("(%s, %s)", formatFloat(v.X), formatFloat(v.Y))
}

// String renders the value the way the print builtin does.
func (v Value) String() string {
	switch v.Kind {
	case KindNil:
		return "nil"
	case KindInt:
		return strconv.FormatInt(int64(v.I), 10)
	case KindFloat:
		return formatFloat(v.F)
	case KindBool:
		return strconv.FormatBool(v.B)
	case KindString:
		return v.S
	case KindVector2:
		return "Vector2" + formatVector2(v.Vector2())
	case KindColor:
		c := v.Color()
		return fmt.Sprintf("Color(%s, %s, %s, %s)",
			formatFloat(c.R), formatFloat(c.G), formatFloat(c.B), formatFloat(c.A))
	case KindRect2:
		r := v.Rect2()
		return fmt.Sprintf("Rect2(%s, %s)",
			formatVector2(r.Position), formatVector2(r.Size))
	case KindTransform2D:
		t := v.Transform2D()
		return fmt.Sprintf("Transform2D(%s, %s, %s)",
			formatVector2(t.Origin), formatVector2(t.XAxis), formatVector2(t.YAxis))
	case KindNode:
		if v.Obj == nil {
			return "Node(nil)"
		}
		return fmt.Sprintf("Node(%v)", v.Obj)
	}
	return "invalid"
}

// ZeroValue returns the default value for a static type: numeric zero, false,
// empty string, zeroed composite, or a nil node handle.
func ZeroValue(t compiler.Type) Value {
	switch t {
	case compiler.TypeI32:
		return IntValue(0)
	case compiler.TypeF32:
		return FloatValue(0)
	case compiler.TypeBool:
		return BoolValue(false)
	case compiler.TypeString:
		return StringValue("")
	case compiler.TypeVector2:
		return Vector2Value(Vector2{})
	case compiler.TypeColor:
		return ColorValue(Color{})
	case compiler.TypeRect2:
		return Rect2Value(Rect2{})
	case compiler.TypeTransform2D:
		return Transform2DValue(Transform2D{})
	case compiler.TypeNode:
		return NodeValue(nil)
	}
	return NilValue()
}

// FromConst materializes a compile-time constant as a runtime value.
func FromConst(c compiler.ConstValue, t compiler.Type) Value {
	switch t {
	case compiler.TypeI32:
		return IntValue(c.I)
	case compiler.TypeF32:
		return FloatValue(c.F)
	case compiler.TypeBool:
		return BoolValue(c.B)
	case compiler.TypeString:
		return StringValue(c.S)
	case compiler.TypeVector2:
		return Vector2Value(Vector2{X: c.F, Y: c.F2})
	case compiler.TypeColor:
		return ColorValue(Color{R: c.F, G: c.F2, B: c.F3, A: c.F4})
	case compiler.TypeRect2:
		return Rect2Value(Rect2{
			Position: Vector2{X: c.F, Y: c.F2},
			Size:     Vector2{X: c.F3, Y: c.F4},
		})
	case compiler.TypeTransform2D:
		return Transform2DValue(Transform2D{
			Origin: Vector2{X: c.F, Y: c.F2},
			XAxis:  Vector2{X: c.F3, Y: c.F4},
			YAxis:  Vector2{X: c.F5, Y: c.F6},
		})
	}
	return NilValue()
}
