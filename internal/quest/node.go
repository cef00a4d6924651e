package quest

import (
	"strings"
)

// NoLine помечает узлы, созданные компилятором, а не прочитанные из исходника.
const NoLine = -1

// Attr - один атрибут узла.
type Attr struct {
	Key   string
	Value string
}

// Node - элемент или текстовый узел скомпилированного документа квеста.
//
// Узел неизменяем после создания: аксессоры возвращают копии, сеттеров нет.
// Одно дерево можно разделять между любым числом параллельных прохождений.
type Node struct {
	kind     Kind
	tag      string
	attrs    []Attr
	children []*Node
	text     string
	line     int

	parent *Node
	index  int
}

// NewText создает текстовый узел.
func NewText(text string) *Node {
	return &Node{kind: KindText, text: text, line: NoLine}
}

// NewElement создает элемент с произвольным именем тега.
// Известные теги получают свой Kind, остальные KindUnknown.
// Повторный ключ атрибута сохраняет первую позицию и последнее значение.
// Ребенок, уже принадлежащий другому родителю, копируется целиком.
func NewElement(tag string, line int, attrs []Attr, children ...*Node) *Node {
	n := &Node{
		kind: KindOf(tag),
		tag:  strings.ToLower(tag),
		line: line,
	}
	n.attrs = normalizeAttrs(attrs)
	n.children = make([]*Node, 0, len(children))
	for _, c := range children {
		if c == nil {
			continue
		}
		if c.parent != nil {
			c = c.clone()
		}
		c.parent = n
		c.index = len(n.children)
		n.children = append(n.children, c)
	}
	return n
}

// New создает элемент известного вида.
func New(kind Kind, line int, attrs []Attr, children ...*Node) *Node {
	return NewElement(kind.Tag(), line, attrs, children...)
}

func normalizeAttrs(attrs []Attr) []Attr {
	out := make([]Attr, 0, len(attrs))
	pos := make(map[string]int, len(attrs))
	for _, a := range attrs {
		if i, ok := pos[a.Key]; ok {
			out[i].Value = a.Value
			continue
		}
		pos[a.Key] = len(out)
		out = append(out, a)
	}
	return out
}

func (n *Node) clone() *Node {
	cp := &Node{
		kind:  n.kind,
		tag:   n.tag,
		attrs: append([]Attr(nil), n.attrs...),
		text:  n.text,
		line:  n.line,
	}
	cp.children = make([]*Node, len(n.children))
	for i, c := range n.children {
		cc := c.clone()
		cc.parent = cp
		cc.index = i
		cp.children[i] = cc
	}
	return cp
}

func (n *Node) Kind() Kind { return n.kind }

// Tag возвращает имя тега в нижнем регистре, "" для текста.
func (n *Node) Tag() string { return n.tag }

// Line возвращает строку исходника узла или NoLine.
func (n *Node) Line() int { return n.line }

func (n *Node) IsText() bool { return n.kind == KindText }

// Attr возвращает значение атрибута и признак его наличия.
func (n *Node) Attr(key string) (string, bool) {
	for _, a := range n.attrs {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// AttrValue возвращает значение атрибута или "".
func (n *Node) AttrValue(key string) string {
	v, _ := n.Attr(key)
	return v
}

func (n *Node) Attrs() []Attr {
	return append([]Attr(nil), n.attrs...)
}

// Children возвращает детей (элементы и текст) в порядке документа.
func (n *Node) Children() []*Node {
	return append([]*Node(nil), n.children...)
}

// Elements возвращает только дочерние элементы: по ним идут обход
// и адресация выборов.
func (n *Node) Elements() []*Node {
	out := make([]*Node, 0, len(n.children))
	for _, c := range n.children {
		if !c.IsText() {
			out = append(out, c)
		}
	}
	return out
}

func (n *Node) Parent() *Node { return n.parent }

// NextElement возвращает следующий соседний элемент, пропуская текст.
func (n *Node) NextElement() *Node {
	if n.parent == nil {
		return nil
	}
	for _, s := range n.parent.children[n.index+1:] {
		if !s.IsText() {
			return s
		}
	}
	return nil
}

// Root поднимается до самого верхнего предка.
func (n *Node) Root() *Node {
	for n.parent != nil {
		n = n.parent
	}
	return n
}

// Text склеивает текст узла и всех его потомков.
func (n *Node) Text() string {
	if n.IsText() {
		return n.text
	}
	var sb strings.Builder
	n.writeText(&sb)
	return sb.String()
}

func (n *Node) writeText(sb *strings.Builder) {
	for _, c := range n.children {
		if c.IsText() {
			sb.WriteString(c.text)
			continue
		}
		c.writeText(sb)
	}
}

// FindByID ищет в глубину (включая сам узел) первый узел с атрибутом id.
func (n *Node) FindByID(id string) *Node {
	if v, ok := n.Attr("id"); ok && v == id {
		return n
	}
	for _, c := range n.children {
		if c.IsText() {
			continue
		}
		if found := c.FindByID(id); found != nil {
			return found
		}
	}
	return nil
}

// Path возвращает индексы детей от корня до n.
func (n *Node) Path() []int {
	var rev []int
	for cur := n; cur.parent != nil; cur = cur.parent {
		rev = append(rev, cur.index)
	}
	path := make([]int, len(rev))
	for i, idx := range rev {
		path[len(rev)-1-i] = idx
	}
	return path
}

// At разрешает путь из Path относительно n.
func (n *Node) At(path []int) (*Node, bool) {
	cur := n
	for _, idx := range path {
		if idx < 0 || idx >= len(cur.children) {
			return nil, false
		}
		cur = cur.children[idx]
	}
	return cur, true
}
