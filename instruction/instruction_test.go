package instruction

import "testing"

func TestRenderNumbersOrderedSections(t *testing.T) {
	var in Instruction
	in.Add(Section{Title: "Context", Items: []string{"Project: p1", "Session: s1"}})
	in.Add(Section{Title: "Execute these steps in order", Numbered: true, Items: []string{"first", "second"}})

	want := "Context:\n" +
		"- Project: p1\n" +
		"- Session: s1\n" +
		"\n" +
		"Execute these steps in order:\n" +
		"1. first\n" +
		"2. second\n"

	if got := in.Render(); got != want {
		t.Fatalf("unexpected render:\n%s", got)
	}
}

func TestAddDropsEmptySections(t *testing.T) {
	var in Instruction
	in.Add(Section{Title: "Rules"})
	in.Add(Section{Title: "Context", Items: []string{"Project: p1"}})

	if len(in.Sections) != 1 {
		t.Fatalf("expected empty section dropped, got %d sections", len(in.Sections))
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	var in Instruction
	in.Add(Section{Title: "Context", Items: []string{"a", "b"}})
	in.Add(Section{Title: "Rules", Items: []string{"c"}})

	if in.Render() != in.Render() {
		t.Fatal("expected repeated renders to be identical")
	}
}
