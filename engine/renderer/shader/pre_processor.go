// pre_processor.go implements the Oxy WGSL shader pre-processor. It specialises one template
// into a variant: @oxy:include lines are replaced with shared struct sources, @oxy:define
// emits the variant's light constants, and @oxy:if blocks are kept or dropped by flag.
package shader

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-editor/engine/light"
	"github.com/Carmen-Shannon/oxy-editor/engine/model"
	"github.com/Carmen-Shannon/oxy-editor/engine/renderer/material"
)

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	// structRegistry maps include keys to embedded WGSL struct sources.
	structRegistry map[string]string
}

// PreProcessor turns the annotated Phong template into the WGSL of one shader variant.
type PreProcessor interface {
	// Process specialises source for a flag set and light count.
	//
	// Parameters:
	//   - source: the annotated WGSL template
	//   - flags: the variant's flag set
	//   - lightCount: the number of lights the variant evaluates
	//
	// Returns:
	//   - string: the processed WGSL source
	//   - error: an error if an annotation is malformed, unknown, or blocks are unbalanced
	Process(source string, flags Flags, lightCount int) (string, error)
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a PreProcessor with the engine's shared struct sources registered.
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor instance
func NewPreProcessor() PreProcessor {
	return &preProcessor{
		structRegistry: map[string]string{
			"vertex":   model.VertexSource,
			"light":    light.GPULightSource,
			"material": material.GPUMaterialSource,
		},
	}
}

// block is one open @oxy:if on the condition stack.
type block struct {
	line     int
	active   bool // this branch is being emitted
	parentOn bool // the enclosing block is being emitted
	seenElse bool
}

func (p *preProcessor) Process(source string, flags Flags, lightCount int) (string, error) {
	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))
	var stack []block

	emitting := func() bool {
		return len(stack) == 0 || stack[len(stack)-1].active
	}

	for i, line := range lines {
		a, err := parseAnnotation(line, i+1)
		if err != nil {
			return "", err
		}
		if a == nil {
			if emitting() {
				out = append(out, line)
			}
			continue
		}

		switch a.Type {
		case annotationTypeIf:
			cond, err := evalCondition(a.Args[0], flags, lightCount)
			if err != nil {
				return "", fmt.Errorf("line %d: %w", a.Line, err)
			}
			parent := emitting()
			stack = append(stack, block{line: a.Line, active: parent && cond, parentOn: parent})
		case annotationTypeElse:
			if len(stack) == 0 {
				return "", fmt.Errorf("line %d: @oxy:else without @oxy:if", a.Line)
			}
			top := &stack[len(stack)-1]
			if top.seenElse {
				return "", fmt.Errorf("line %d: second @oxy:else for @oxy:if on line %d", a.Line, top.line)
			}
			top.seenElse = true
			top.active = top.parentOn && !top.active
		case annotationTypeEndif:
			if len(stack) == 0 {
				return "", fmt.Errorf("line %d: @oxy:endif without @oxy:if", a.Line)
			}
			stack = stack[:len(stack)-1]
		case annotationTypeInclude:
			if !emitting() {
				continue
			}
			src, ok := p.structRegistry[a.Args[0]]
			if !ok {
				return "", fmt.Errorf("line %d: unknown @oxy:include argument %q", a.Line, a.Args[0])
			}
			out = append(out, src)
		case annotationTypeDefine:
			if !emitting() {
				continue
			}
			if a.Args[0] != "light_count" {
				return "", fmt.Errorf("line %d: unknown @oxy:define argument %q", a.Line, a.Args[0])
			}
			out = append(out,
				fmt.Sprintf("const LIGHT_COUNT: u32 = %du;", lightCount),
				fmt.Sprintf("const LIGHT_SLOTS: u32 = %du;", max(lightCount, 1)),
			)
		}
	}

	if len(stack) > 0 {
		return "", fmt.Errorf("line %d: @oxy:if is never closed", stack[len(stack)-1].line)
	}
	return strings.Join(out, "\n"), nil
}

// evalCondition evaluates an @oxy:if condition for a variant.
func evalCondition(cond string, flags Flags, lightCount int) (bool, error) {
	negate := false
	if rest, ok := strings.CutPrefix(cond, "!"); ok {
		negate = true
		cond = rest
	}

	var v bool
	switch cond {
	case "lit":
		v = lightCount > 0
	case "textured":
		v = flags.Textured()
	default:
		f, ok := flagByName(cond)
		if !ok {
			return false, fmt.Errorf("unknown condition %q", cond)
		}
		v = flags.Has(f)
	}
	return v != negate, nil
}
