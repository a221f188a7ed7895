// annotations.go defines the annotation grammar of the WGSL pre-processor. Annotations are
// single-line WGSL comments prefixed with @oxy: that splice shared WGSL into a shader before it
// is parsed and compiled.
//
// Supported annotations:
//
//	//@oxy:include <name>   inject a registered snippet (or include/<name>.wgsl from the shader FS)
//	//@oxy:const <name>     emit a registered host constant as a WGSL const declaration
package shader

import (
	"fmt"
	"regexp"
	"strings"
)

// annotationPrefix is the marker that identifies an Oxy annotation within a WGSL comment line.
const annotationPrefix = "@oxy:"

// AnnotationType identifies the kind of annotation parsed from a WGSL comment line.
type AnnotationType string

const (
	// AnnotationTypeInclude injects the WGSL source of a registered snippet at the annotation site.
	//
	// Syntax: //@oxy:include <name>
	AnnotationTypeInclude AnnotationType = "include"

	// AnnotationTypeConst emits `const <name>: <type> = <value>;` for a constant the host registered,
	// so WGSL array bounds stay in sync with Go limits.
	//
	// Syntax: //@oxy:const <name>
	AnnotationTypeConst AnnotationType = "const"
)

// Annotation represents a single parsed @oxy: annotation.
type Annotation struct {
	// Type identifies which annotation was parsed.
	Type AnnotationType

	// Name is the snippet or constant name the annotation refers to.
	Name string

	// Line is the 1-based line number in the source where this annotation was found.
	Line int
}

var annotationNameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// parseAnnotation parses a single line of WGSL. It returns nil without error for lines that do not
// carry an annotation.
//
// Parameters:
//   - line: the raw source line
//   - lineNum: the 1-based line number used in error messages
//
// Returns:
//   - *Annotation: the parsed annotation or nil
//   - error: an error if the annotation is malformed
func parseAnnotation(line string, lineNum int) (*Annotation, error) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "//") {
		return nil, nil
	}
	_, after, ok := strings.Cut(trimmed, annotationPrefix)
	if !ok {
		return nil, nil
	}

	args := strings.Fields(after)
	if len(args) == 0 {
		return nil, fmt.Errorf("line %d: empty @oxy annotation", lineNum)
	}

	kind := AnnotationType(args[0])
	switch kind {
	case AnnotationTypeInclude, AnnotationTypeConst:
	default:
		return nil, fmt.Errorf("line %d: unknown annotation type %q", lineNum, args[0])
	}

	if len(args) != 2 {
		return nil, fmt.Errorf("line %d: @oxy:%s annotation requires exactly one argument", lineNum, kind)
	}
	if !annotationNameRegex.MatchString(args[1]) {
		return nil, fmt.Errorf("line %d: invalid name %q in @oxy:%s annotation", lineNum, args[1], kind)
	}

	return &Annotation{Type: kind, Name: args[1], Line: lineNum}, nil
}
