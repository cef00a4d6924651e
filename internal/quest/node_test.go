package quest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTree() *Node {
	return Quest([]Attr{{Key: "title", Value: "Test"}}, 0,
		RoleplayText([]Attr{{Key: "title", Value: "Start"}, {Key: "id", Value: "start"}}, 1, "hello"),
		Combat(nil, 4,
			Enemy("Thief", nil, 5),
			Event([]Attr{{Key: "on", Value: "win"}}, 6, Trigger("end", nil, NoLine)),
		),
	)
}

func TestNode_Markup(t *testing.T) {
	root := sampleTree()

	assert.Equal(t,
		`<quest title="Test" data-line="0">`+
			`<roleplay title="Start" id="start" data-line="1"><p>hello</p></roleplay>`+
			`<combat data-line="4"><e>Thief</e><event on="win"><trigger>end</trigger></event></combat>`+
			`</quest>`,
		root.Markup())
}

func TestNode_Indented(t *testing.T) {
	n := Combat(nil, 0,
		Enemy("UNKNOWN", nil, NoLine),
		Event([]Attr{{Key: "on", Value: "win"}}, NoLine, Trigger("end", nil, NoLine)),
	)
	want := `<combat data-line="0">
    <e>UNKNOWN</e>
    <event on="win">
        <trigger>end</trigger>
    </event>
</combat>`
	assert.Equal(t, want, n.Indented("    "))

	empty := Quest([]Attr{{Key: "title", Value: "Quest Title"}}, 0)
	assert.Equal(t, `<quest title="Quest Title" data-line="0"></quest>`, empty.Indented("    "))
}

func TestNode_EscapesMarkup(t *testing.T) {
	p := Paragraph(0, NewText(`{{x > 1}} & "q"`))
	assert.Equal(t, `<p>{{x &gt; 1}} &amp; &#34;q&#34;</p>`, p.Markup())
}

func TestNode_Navigation(t *testing.T) {
	root := sampleTree()
	rp := root.Elements()[0]
	combat := root.Elements()[1]

	assert.Equal(t, KindRoleplay, rp.Kind())
	assert.Same(t, combat, rp.NextElement())
	assert.Nil(t, combat.NextElement())
	assert.Same(t, root, combat.Parent())
	assert.Same(t, root, combat.Elements()[1].Root())
	assert.Equal(t, "hello", rp.Text())
	assert.Equal(t, 4, combat.Line())

	t.Run("find by id", func(t *testing.T) {
		assert.Same(t, rp, root.FindByID("start"))
		assert.Nil(t, root.FindByID("missing"))
	})

	t.Run("path round trip", func(t *testing.T) {
		trigger := combat.Elements()[1].Elements()[0]
		path := trigger.Path()
		assert.Equal(t, []int{1, 1, 0}, path)
		got, ok := root.At(path)
		require.True(t, ok)
		assert.Same(t, trigger, got)

		_, ok = root.At([]int{7})
		assert.False(t, ok)
	})
}

func TestNewElement_AdoptsOrCopies(t *testing.T) {
	shared := Paragraph(0, NewText("x"))
	a := Roleplay(nil, 0, shared)
	b := Roleplay(nil, 1, shared)

	assert.Same(t, shared, a.Elements()[0])
	assert.NotSame(t, shared, b.Elements()[0])
	assert.Same(t, a, shared.Parent())
	assert.Equal(t, shared.Markup(), b.Elements()[0].Markup())
}

func TestNewElement_DeduplicatesAttributes(t *testing.T) {
	n := NewElement("Choice", 3, []Attr{{"text", "a"}, {"if", "x"}, {"text", "b"}})
	assert.Equal(t, KindChoice, n.Kind())
	assert.Equal(t, []Attr{{"text", "b"}, {"if", "x"}}, n.Attrs())
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindRoleplay, KindOf("ROLEPLAY"))
	assert.Equal(t, KindEnemy, KindOf("e"))
	assert.Equal(t, KindUnknown, KindOf("script"))
	assert.True(t, KindTrigger.IsCard())
	assert.False(t, KindChoice.IsCard())
}
