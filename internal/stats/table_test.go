package stats

import "testing"

func TestRenderTableAlignsColumns(t *testing.T) {
	cols := []column{{title: "Char"}, {title: "Incorrect", numeric: true}, {title: "Rounds", numeric: true}}
	rows := [][]string{
		{"a", "12", "3"},
		{"<space>", "8", "10"},
	}

	lines := renderTable(cols, rows)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "Char    Incorrect Rounds" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != "a              12      3" {
		t.Fatalf("unexpected row line: %q", lines[1])
	}
	if lines[2] != "<space>         8     10" {
		t.Fatalf("unexpected row line: %q", lines[2])
	}
}

func TestRenderTableWideRunes(t *testing.T) {
	lines := renderTable([]column{{title: "Char"}, {title: "N", numeric: true}}, [][]string{{"日", "1"}, {"a", "2"}})
	if lines[1] != "日   1" {
		t.Fatalf("expected wide rune to take two cells: %q", lines[1])
	}
	if lines[2] != "a    2" {
		t.Fatalf("unexpected row line: %q", lines[2])
	}
}

func TestRenderTableRaggedRows(t *testing.T) {
	cols := []column{{title: "Result"}, {title: "Score", numeric: true}}
	lines := renderTable(cols, [][]string{{"healed"}, {"lost", "1,200", "extra"}})
	if lines[1] != "healed      " {
		t.Fatalf("missing cells should pad to width: %q", lines[1])
	}
	if lines[2] != "lost   1,200" {
		t.Fatalf("cells past the last column should be dropped: %q", lines[2])
	}
}

func TestRenderTableNoColumns(t *testing.T) {
	if lines := renderTable(nil, [][]string{{"a"}}); lines != nil {
		t.Fatalf("expected no lines, got %q", lines)
	}
}
