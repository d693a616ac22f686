// Package instruction models the natural-language instruction handed to the
// autonomous worker.
//
// The "what must happen" logic (which steps are enabled, eligibility,
// conflict rules) lives with the synthesizer; this package only carries the
// ordered structure and renders it deterministically. The same Instruction
// value always renders to the same text.
package instruction

import (
	"strconv"
	"strings"
)

// Section is one titled block of an instruction. Numbered sections render as
// an ordered list; the worker must follow numbered steps in order.
type Section struct {
	Title    string
	Numbered bool
	Items    []string
}

// Instruction is an ordered list of sections.
type Instruction struct {
	Sections []Section
}

// Add appends a section, dropping it when it has no items.
func (in *Instruction) Add(section Section) {
	if len(section.Items) == 0 {
		return
	}
	in.Sections = append(in.Sections, section)
}

// Render produces the final instruction text. Rendering is pure: it applies
// no policy and reorders nothing.
func (in Instruction) Render() string {
	var b strings.Builder
	for i, section := range in.Sections {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(section.Title)
		b.WriteString(":\n")
		for n, item := range section.Items {
			if section.Numbered {
				b.WriteString(strconv.Itoa(n + 1))
				b.WriteString(". ")
			} else {
				b.WriteString("- ")
			}
			b.WriteString(item)
			b.WriteString("\n")
		}
	}
	return b.String()
}
