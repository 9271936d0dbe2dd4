// Package prompt renders extraction prompts. Rendering is a pure function of
// (strategy, snippet text): the same inputs always produce the same prompt,
// which keeps runs reproducible across backends.
package prompt

import (
	"fmt"
	"sort"
	"strings"
)

// Strategy identifies a prompt-construction technique.
type Strategy string

const (
	ZeroShot       Strategy = "zero_shot"
	OneShot        Strategy = "one_shot"
	FewShot        Strategy = "few_shot"
	ChainOfThought Strategy = "chain_of_thought"
	TreeOfThoughts Strategy = "tree_of_thoughts"
)

// TriggerWords are the lexical cues that hint a parameter exists. They are
// embedded in the base instruction so every backend looks for the same cues.
var TriggerWords = []string{
	"may", "might", "should", "could",
	"optional", "optionally",
	"implementation defined", "implementation-defined",
	"implementation specific", "implementation-specific",
	"platform defined", "platform-specific",
}

const baseInstruction = `You are an expert in hardware architecture specifications. Your task is to extract architectural parameters from specification text.

A parameter is any aspect of the architecture that is:
- Implementation-defined or implementation-specific
- Optional or configurable
- Described with words like "may", "might", "should", "could"

For each parameter, provide:
1. **name**: A concise identifier (snake_case)
2. **description**: What the parameter controls
3. **type**: The category (e.g., "implementation-specific", "optional", "configurable")
4. **constraints**: Any mentioned limitations or requirements
5. **keywords**: Trigger words found in the text

Format your response as a valid YAML list.`

type example struct {
	text   string
	output string
}

var exampleBank = []example{
	{
		text: `The cache line size is implementation-defined. Systems may use cache lines
ranging from 32 to 128 bytes, and the size should be a power of two.`,
		output: `- name: cache_line_size
  description: Size of a cache line in bytes
  type: implementation-defined
  constraints: Must be power of two, range 32-128 bytes
  keywords: [implementation-defined, may, should]`,
	},
	{
		text: `The number of hardware performance counters is implementation-specific.
Implementations may provide between 2 and 29 counters.`,
		output: `- name: hardware_performance_counter_count
  description: Number of hardware performance monitoring counters
  type: implementation-specific
  constraints: Range 2-29 counters
  keywords: [implementation-specific, may]`,
	},
	{
		text: `Support for misaligned memory accesses is optional. If supported,
misaligned accesses should complete without trapping.`,
		output: `- name: misaligned_access_support
  description: Whether misaligned memory accesses are supported
  type: optional
  constraints: If supported, should be efficient
  keywords: [optional, should]`,
	},
}

// Available returns the recognized strategy identifiers, sorted.
func Available() []string {
	ids := []string{
		string(ZeroShot), string(OneShot), string(FewShot),
		string(ChainOfThought), string(TreeOfThoughts),
	}
	sort.Strings(ids)
	return ids
}

// Render builds the prompt for a strategy and snippet. Unknown strategies are
// a caller error, checked before any dispatch.
func Render(strategy Strategy, snippet string) (string, error) {
	switch strategy {
	case ZeroShot:
		return renderZeroShot(snippet), nil
	case OneShot:
		return renderWithExamples(snippet, exampleBank[:1]), nil
	case FewShot:
		return renderWithExamples(snippet, exampleBank), nil
	case ChainOfThought:
		return renderChainOfThought(snippet), nil
	case TreeOfThoughts:
		return renderTreeOfThoughts(snippet), nil
	default:
		return "", fmt.Errorf("unknown strategy: %s (available: %s)", strategy, strings.Join(Available(), ", "))
	}
}

func renderZeroShot(snippet string) string {
	return fmt.Sprintf(`%s

**Specification Text:**
%s

**Extract all parameters in YAML format:**`, baseInstruction, snippet)
}

func renderWithExamples(snippet string, examples []example) string {
	var sb strings.Builder
	sb.WriteString(baseInstruction)
	sb.WriteString("\n\n")

	for i, ex := range examples {
		if i > 0 {
			sb.WriteString("\n\n---\n\n")
		}
		fmt.Fprintf(&sb, "**Example %d:**\n\nInput Text:\n%s\n\nOutput:\n%s", i+1, ex.text, ex.output)
	}

	fmt.Fprintf(&sb, `

---

**Now extract parameters from this specification text:**
%s

**Output in YAML format:**`, snippet)
	return sb.String()
}

func renderChainOfThought(snippet string) string {
	return fmt.Sprintf(`%s

**Specification Text:**
%s

**Think step-by-step:**

1. First, identify all trigger words (may, might, should, optional, implementation-defined, etc.)
2. For each trigger word, determine what aspect it refers to
3. Extract the parameter name, description, and constraints
4. Verify each parameter is truly configurable or implementation-specific
5. Format the results as YAML

**Your reasoning and final YAML output:**`, baseInstruction, snippet)
}

func renderTreeOfThoughts(snippet string) string {
	return fmt.Sprintf(`%s

**Specification Text:**
%s

**Analyze using multiple perspectives:**

**Path 1 - Literal Reading:**
- What parameters are explicitly stated as optional or implementation-defined?

**Path 2 - Implicit Parameters:**
- What aspects are described but not explicitly marked as configurable?
- Are there ranges, choices, or alternatives mentioned?

**Path 3 - Constraint Analysis:**
- What constraints or requirements are mentioned?
- Do these constraints imply configurability?

**Synthesis:**
After exploring these paths, synthesize the findings into a comprehensive list of parameters.

**Final YAML output with all discovered parameters:**`, baseInstruction, snippet)
}
