// annotations.go defines the annotation types and parser for the Oxy WGSL shader pre-processor.
// Annotations are single-line WGSL comments prefixed with @oxy: that inject shared struct
// sources, emit variant constants, and switch blocks of source on or off per shader variant.
package shader

import (
	"fmt"
	"strings"
)

// annotationPrefix is the marker that identifies an Oxy annotation within a WGSL comment line.
// Every annotation must appear on a line beginning with "//" followed by this prefix.
const annotationPrefix = "@oxy:"

// AnnotationType identifies the kind of annotation parsed from a WGSL comment line.
type AnnotationType string

const (
	// annotationTypeInclude injects the WGSL source of a registered struct definition.
	//
	// Syntax: //@oxy:include <struct_type>
	annotationTypeInclude AnnotationType = "include"

	// annotationTypeDefine emits variant constants.
	//
	// Syntax: //@oxy:define light_count
	annotationTypeDefine AnnotationType = "define"

	// annotationTypeIf opens a block that is kept only when the condition holds for the variant.
	// A leading "!" negates the condition. Blocks nest.
	//
	// Syntax: //@oxy:if <condition>
	annotationTypeIf AnnotationType = "if"

	// annotationTypeElse flips the innermost open block.
	//
	// Syntax: //@oxy:else
	annotationTypeElse AnnotationType = "else"

	// annotationTypeEndif closes the innermost open block.
	//
	// Syntax: //@oxy:endif
	annotationTypeEndif AnnotationType = "endif"
)

// annotationArity is the number of arguments each annotation type takes.
var annotationArity = map[AnnotationType]int{
	annotationTypeInclude: 1,
	annotationTypeDefine:  1,
	annotationTypeIf:      1,
	annotationTypeElse:    0,
	annotationTypeEndif:   0,
}

// Annotation represents a single parsed @oxy: annotation from a WGSL shader source line.
type Annotation struct {
	// Type identifies which annotation was parsed.
	Type AnnotationType

	// Args holds the annotation's arguments.
	Args []string

	// Line is the 1-based line number in the original WGSL source, used for error reporting.
	Line int
}

// parseAnnotation parses a single line. Lines that are not annotations yield (nil, nil).
//
// Parameters:
//   - line: the raw source line
//   - lineNo: its 1-based line number
//
// Returns:
//   - *Annotation: the parsed annotation, or nil
//   - error: error if the line is a malformed annotation
func parseAnnotation(line string, lineNo int) (*Annotation, error) {
	trimmed := strings.TrimSpace(line)
	rest, ok := strings.CutPrefix(trimmed, "//")
	if !ok {
		return nil, nil
	}
	rest, ok = strings.CutPrefix(strings.TrimSpace(rest), annotationPrefix)
	if !ok {
		return nil, nil
	}

	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return nil, fmt.Errorf("line %d: empty annotation", lineNo)
	}
	a := &Annotation{Type: AnnotationType(fields[0]), Args: fields[1:], Line: lineNo}
	arity, known := annotationArity[a.Type]
	if !known {
		return nil, fmt.Errorf("line %d: unknown annotation type %q", lineNo, a.Type)
	}
	if len(a.Args) != arity {
		return nil, fmt.Errorf("line %d: @oxy:%s takes %d argument(s), got %d", lineNo, a.Type, arity, len(a.Args))
	}
	return a, nil
}
