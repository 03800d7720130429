package block

import (
	"testing"

	"github.com/notefoot/notefoot/internal/richtext"
)

func TestChildrenAccessors(t *testing.T) {
	child := NewParagraph("child")

	tests := []struct {
		name  string
		block *Block
	}{
		{"paragraph", NewParagraph("p")},
		{"quote", &Block{Type: TypeQuote, Quote: &Quote{RichTexts: []richtext.RichText{richtext.NewText("q")}}}},
		{"toggle", &Block{Type: TypeToggle, Toggle: &Toggle{}}},
		{"callout", &Block{Type: TypeCallout, Callout: &Callout{}}},
		{"bulleted", &Block{Type: TypeBulletedListItem, BulletedListItem: &ListItem{}}},
		{"numbered", &Block{Type: TypeNumberedListItem, NumberedListItem: &ListItem{}}},
		{"to_do", &Block{Type: TypeToDo, ToDo: &ToDo{}}},
		{"heading_1", &Block{Type: TypeHeading1, Heading1: &Heading{}}},
		{"synced", &Block{Type: TypeSyncedBlock, SyncedBlock: &SyncedBlock{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.block.Children(); got != nil {
				t.Errorf("expected no children, got %d", len(got))
			}
			tt.block.SetChildren([]*Block{child})
			if got := tt.block.Children(); len(got) != 1 {
				t.Errorf("expected 1 child after SetChildren, got %d", len(got))
			}
		})
	}
}

func TestChildren_NonContainer(t *testing.T) {
	b := &Block{Type: TypeDivider, Divider: &Divider{}}
	b.SetChildren([]*Block{NewParagraph("x")})
	if got := b.Children(); got != nil {
		t.Errorf("expected nil children for divider, got %v", got)
	}
}

func TestLocations_Paragraph(t *testing.T) {
	b := NewParagraph("hello")
	locs := Locations(b)
	if len(locs) != 1 {
		t.Fatalf("expected 1 location, got %d", len(locs))
	}
	if locs[0].Path != "Paragraph.RichTexts" {
		t.Errorf("expected path 'Paragraph.RichTexts', got %q", locs[0].Path)
	}
	if richtext.Join(locs[0].Spans) != "hello" {
		t.Errorf("expected joined 'hello', got %q", richtext.Join(locs[0].Spans))
	}
}

func TestLocations_EmptySkipped(t *testing.T) {
	b := &Block{Type: TypeParagraph, Paragraph: &Paragraph{}}
	if locs := Locations(b); len(locs) != 0 {
		t.Errorf("expected no locations for empty paragraph, got %d", len(locs))
	}
}

func TestLocations_TableCells(t *testing.T) {
	b := &Block{
		Type: TypeTable,
		Table: &Table{
			Rows: []TableRow{
				{Cells: [][]richtext.RichText{
					{richtext.NewText("a")},
					{richtext.NewText("b")},
				}},
				{Cells: [][]richtext.RichText{
					{richtext.NewText("c")},
					nil,
				}},
			},
		},
	}
	locs := Locations(b)
	if len(locs) != 3 {
		t.Fatalf("expected 3 non-empty cell locations, got %d", len(locs))
	}
	if locs[2].Path != "Table.Rows[1].Cells[0]" {
		t.Errorf("expected cell path 'Table.Rows[1].Cells[0]', got %q", locs[2].Path)
	}
}

func TestLocation_Apply(t *testing.T) {
	b := NewParagraph("before")
	locs := Locations(b)
	locs[0].Apply([]richtext.RichText{richtext.NewText("after")})
	if got := richtext.Join(b.Paragraph.RichTexts); got != "after" {
		t.Errorf("expected write-back 'after', got %q", got)
	}
}

func TestLocation_ApplyTableCell(t *testing.T) {
	b := &Block{
		Type: TypeTable,
		Table: &Table{Rows: []TableRow{
			{Cells: [][]richtext.RichText{{richtext.NewText("x")}, {richtext.NewText("y")}}},
		}},
	}
	locs := Locations(b)
	locs[1].Apply([]richtext.RichText{richtext.NewText("z")})
	if got := richtext.Join(b.Table.Rows[0].Cells[1]); got != "z" {
		t.Errorf("expected cell write-back 'z', got %q", got)
	}
	if got := richtext.Join(b.Table.Rows[0].Cells[0]); got != "x" {
		t.Errorf("neighbor cell must be untouched, got %q", got)
	}
}

func TestLocations_CodeCaptionOnly(t *testing.T) {
	b := &Block{
		Type: TypeCode,
		Code: &Code{
			RichTexts: []richtext.RichText{richtext.NewText("fmt.Println()")},
			Caption:   []richtext.RichText{richtext.NewText("listing 1")},
		},
	}
	locs := Locations(b)
	if len(locs) != 1 {
		t.Fatalf("expected only the caption location, got %d", len(locs))
	}
	if locs[0].Path != "Code.Caption" || locs[0].Kind() != FieldCaption {
		t.Errorf("expected caption location, got %q", locs[0].Path)
	}
}
