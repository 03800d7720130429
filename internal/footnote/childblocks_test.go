package footnote

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/notefoot/notefoot/internal/block"
	"github.com/notefoot/notefoot/internal/richtext"
)

func newChildBlocks() *ChildBlocks {
	return &ChildBlocks{pat: NewPattern("ft_"), logger: zap.NewNop()}
}

func childWithGrandchild(text string) *block.Block {
	c := block.NewParagraph(text)
	c.SetChildren([]*block.Block{block.NewParagraph("nested detail")})
	return c
}

func TestChildBlocks_ConsumesMatchingChildren(t *testing.T) {
	b := block.NewParagraph("two refs [^ft_a] and [^ft_b]")
	child0 := childWithGrandchild("[^ft_a]: first definition")
	child1 := block.NewParagraph("plain child")
	child2 := block.NewParagraph("[^ft_b]: second definition")
	b.SetChildren([]*block.Block{child0, child1, child2})

	fns := newChildBlocks().Extract(context.Background(), b)

	if len(fns) != 2 {
		t.Fatalf("expected 2 footnotes, got %d", len(fns))
	}
	if fns[0].Marker != "a" || fns[1].Marker != "b" {
		t.Errorf("expected keys a, b, got %q, %q", fns[0].Marker, fns[1].Marker)
	}
	for _, fn := range fns {
		if fn.Content.Type != ContentBlocks || len(fn.Content.Blocks) != 1 {
			t.Fatalf("expected single-block content, got %+v", fn.Content)
		}
	}
	if got := richtext.Join(fns[0].Content.Blocks[0].Paragraph.RichTexts); got != "first definition" {
		t.Errorf("expected stripped child text %q, got %q", "first definition", got)
	}
	if desc := fns[0].Content.Blocks[0].Children(); len(desc) != 1 {
		t.Errorf("consumed child must keep its descendants, got %d", len(desc))
	}

	kept := b.Children()
	if len(kept) != 1 {
		t.Fatalf("expected 1 remaining child, got %d", len(kept))
	}
	if got := richtext.Join(kept[0].Paragraph.RichTexts); got != "plain child" {
		t.Errorf("expected retained child %q, got %q", "plain child", got)
	}
}

func TestChildBlocks_MarkersSplit(t *testing.T) {
	b := block.NewParagraph("ref [^ft_a] end")
	b.SetChildren([]*block.Block{block.NewParagraph("[^ft_a]: note")})

	newChildBlocks().Extract(context.Background(), b)

	if got := markerSpanCount(b.Paragraph.RichTexts); got != 1 {
		t.Errorf("expected 1 isolated marker span, got %d", got)
	}
	if got := richtext.Join(b.Paragraph.RichTexts); got != "ref [^ft_a] end" {
		t.Errorf("main text changed: %q", got)
	}
}

func TestChildBlocks_NoMarkersLeavesChildren(t *testing.T) {
	b := block.NewParagraph("no refs here")
	b.SetChildren([]*block.Block{block.NewParagraph("[^ft_a]: stray definition")})

	fns := newChildBlocks().Extract(context.Background(), b)
	if len(fns) != 0 {
		t.Fatalf("expected no footnotes without inline markers, got %d", len(fns))
	}
	if len(b.Children()) != 1 {
		t.Errorf("children must be untouched on the fast exit, got %d", len(b.Children()))
	}
}

func TestChildBlocks_ChildWithoutText(t *testing.T) {
	b := block.NewParagraph("ref [^ft_a]")
	divider := &block.Block{Type: block.TypeDivider, Divider: &block.Divider{}}
	def := block.NewParagraph("[^ft_a]: note")
	b.SetChildren([]*block.Block{divider, def})

	fns := newChildBlocks().Extract(context.Background(), b)
	if len(fns) != 1 {
		t.Fatalf("expected 1 footnote, got %d", len(fns))
	}
	kept := b.Children()
	if len(kept) != 1 || kept[0] != divider {
		t.Errorf("expected the divider to be retained, got %d children", len(kept))
	}
}
