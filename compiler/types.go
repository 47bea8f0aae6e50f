package compiler

// ---------------------------------------------------------------------------
// Types: the FerrisScript static type lattice
// ---------------------------------------------------------------------------

// Type identifies a FerrisScript type. Every expression has exactly one
// resolved type after a successful Check.
type Type int

const (
	TypeInvalid Type = iota // poison type used to suppress cascade errors
	TypeVoid
	TypeI32
	TypeF32
	TypeBool
	TypeString
	TypeVector2
	TypeColor
	TypeRect2
	TypeTransform2D
	TypeNode
)

var typeNames = map[Type]string{
	TypeInvalid:     "<error>",
	TypeVoid:        "void",
	TypeI32:         "i32",
	TypeF32:         "f32",
	TypeBool:        "bool",
	TypeString:      "String",
	TypeVector2:     "Vector2",
	TypeColor:       "Color",
	TypeRect2:       "Rect2",
	TypeTransform2D: "Transform2D",
	TypeNode:        "Node",
}

func (t Type) String() string { return typeNames[t] }

// typesByName resolves source-level type names.
var typesByName = map[string]Type{
	"void":        TypeVoid,
	"i32":         TypeI32,
	"f32":         TypeF32,
	"bool":        TypeBool,
	"String":      TypeString,
	"Vector2":     TypeVector2,
	"Color":       TypeColor,
	"Rect2":       TypeRect2,
	"Transform2D": TypeTransform2D,
	"Node":        TypeNode,
}

// TypeByName resolves a type name, reporting whether it exists.
func TypeByName(name string) (Type, bool) {
	t, ok := typesByName[name]
	return t, ok
}

// TypeNames returns every nameable type, for suggestion candidates.
func TypeNames() []string {
	names := make([]string, 0, len(typesByName))
	for name := range typesByName {
		names = append(names, name)
	}
	return names
}

// IsNumeric reports whether t participates in arithmetic and promotion.
func (t Type) IsNumeric() bool { return t == TypeI32 || t == TypeF32 }

// Exportable reports whether t may back an exported property. Node is
// excluded: host references are re-resolved per access and cannot be stored
// in the inspector.
func (t Type) Exportable() bool {
	switch t {
	case TypeI32, TypeF32, TypeBool, TypeString, TypeVector2, TypeColor,
		TypeRect2, TypeTransform2D:
		return true
	}
	return false
}

// Promote applies the numeric promotion rule: i32 combined with f32 yields
// f32. Both operands must already be numeric.
func Promote(a, b Type) Type {
	if a == TypeF32 || b == TypeF32 {
		return TypeF32
	}
	return TypeI32
}

// compositeFields maps each composite host type to its fields.
var compositeFields = map[Type]map[string]Type{
	TypeVector2: {
		"x": TypeF32,
		"y": TypeF32,
	},
	TypeColor: {
		"r": TypeF32,
		"g": TypeF32,
		"b": TypeF32,
		"a": TypeF32,
	},
	TypeRect2: {
		"position": TypeVector2,
		"size":     TypeVector2,
	},
	TypeTransform2D: {
		"origin": TypeVector2,
		"x_axis": TypeVector2,
		"y_axis": TypeVector2,
	},
}

// FieldType resolves a field on a composite type.
func FieldType(base Type, field string) (Type, bool) {
	fields, ok := compositeFields[base]
	if !ok {
		return TypeInvalid, false
	}
	t, ok := fields[field]
	return t, ok
}

// FieldNames returns the field names of a composite type, for suggestions.
func FieldNames(base Type) []string {
	fields := compositeFields[base]
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	return names
}

// ---------------------------------------------------------------------------
// Builtin function signatures
// ---------------------------------------------------------------------------

// BuiltinSig describes a builtin callable from script code.
type BuiltinSig struct {
	Name     string
	Params   []Type
	Return   Type
	Variadic bool // trailing arguments of any type (emit_signal, print)
}

// Builtins are the host-forwarded query and event primitives plus print.
var Builtins = map[string]BuiltinSig{
	"get_node":    {Name: "get_node", Params: []Type{TypeString}, Return: TypeNode},
	"get_parent":  {Name: "get_parent", Params: nil, Return: TypeNode},
	"has_node":    {Name: "has_node", Params: []Type{TypeString}, Return: TypeBool},
	"find_child":  {Name: "find_child", Params: []Type{TypeString}, Return: TypeNode},
	"emit_signal": {Name: "emit_signal", Params: []Type{TypeString}, Return: TypeVoid, Variadic: true},
	"print":       {Name: "print", Params: nil, Return: TypeVoid, Variadic: true},

	// Composite constructors
	"Vector2": {Name: "Vector2", Params: []Type{TypeF32, TypeF32}, Return: TypeVector2},
	"Color":   {Name: "Color", Params: []Type{TypeF32, TypeF32, TypeF32, TypeF32}, Return: TypeColor},
	"Rect2":   {Name: "Rect2", Params: []Type{TypeVector2, TypeVector2}, Return: TypeRect2},
	"Transform2D": {
		Name:   "Transform2D",
		Params: []Type{TypeVector2, TypeVector2, TypeVector2},
		Return: TypeTransform2D,
	},
}

// BuiltinNames returns every builtin name, for suggestion candidates.
func BuiltinNames() []string {
	names := make([]string, 0, len(Builtins))
	for name := range Builtins {
		names = append(names, name)
	}
	return names
}
