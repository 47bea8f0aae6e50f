package compiler

// Compile runs the full front end over a single source file: tokenize, parse,
// type check, extract property metadata. It returns a unit only when the
// source is completely clean; any diagnostic suppresses the unit.
//
// The returned unit is immutable and may be shared by any number of runtime
// environments.
func Compile(filename, source string) (*CompiledUnit, []Diagnostic) {
	tokens, lexErr := Tokenize(source)
	if lexErr != nil {
		return nil, []Diagnostic{*lexErr}
	}

	prog, diags := Parse(tokens)
	if len(diags) > 0 {
		return nil, diags
	}

	diags = Check(prog)
	if len(diags) > 0 {
		return nil, diags
	}

	props, diags := ExtractProperties(prog)
	if len(diags) > 0 {
		return nil, diags
	}

	return &CompiledUnit{
		Filename:   filename,
		Program:    prog,
		Properties: props,
	}, nil
}
