package expr

import (
	"fmt"
	"strings"

	"github.com/Shopify/go-lua"
)

// Ключевые слова циклов и функций запрещены при разборе: выражение автора
// всегда завершается.
var forbiddenWords = map[string]bool{
	"while":    true,
	"repeat":   true,
	"for":      true,
	"function": true,
	"goto":     true,
}

// LuaEngine вычисляет выражения во встроенной Lua VM. Каждый вызов
// получает новую VM, поэтому движок потокобезопасен.
type LuaEngine struct{}

var _ Evaluator = (*LuaEngine)(nil)

func NewLuaEngine() *LuaEngine {
	return &LuaEngine{}
}

// Parse делит src на операторы по ";" и переводам строк верхнего уровня
// и проверяет, что каждый компилируется. "!=" понимается как "~=".
func (e *LuaEngine) Parse(src string) (*Program, error) {
	stmts, err := splitStatements(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if len(stmts) == 0 {
		return nil, fmt.Errorf("%w: empty expression", ErrParse)
	}

	l := lua.NewState()
	var chunk strings.Builder
	assignsLast := false
	for i, s := range stmts {
		last := i == len(stmts)-1
		isExpr := compiles(l, "return "+s)
		if !isExpr && !compiles(l, s) {
			return nil, fmt.Errorf("%w: invalid statement %q", ErrParse, s)
		}
		switch {
		case isExpr && last:
			chunk.WriteString("return (" + s + ")\n")
		case isExpr:
			chunk.WriteString("local _ = (" + s + ")\n")
		default:
			chunk.WriteString(s + "\n")
			assignsLast = last
		}
	}
	return &Program{src: src, chunk: chunk.String(), assignsLast: assignsLast}, nil
}

func compiles(l *lua.State, code string) bool {
	if err := lua.LoadString(l, code); err != nil {
		l.SetTop(0)
		return false
	}
	l.SetTop(0)
	return true
}

// Eval выполняет p, scope доступен как глобальные переменные.
// Чтение неопределенной переменной - ошибка, а не nil.
func (e *LuaEngine) Eval(p *Program, scope Scope) (any, error) {
	l := lua.NewState()
	baseline := openSandbox(l)

	for k, v := range scope {
		pushValue(l, v)
		l.SetGlobal(k)
	}
	strictGlobals(l)

	if err := lua.LoadString(l, p.chunk); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if err := l.ProtectedCall(0, 1, 0); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEval, err)
	}
	result := toValue(l, -1)
	l.Pop(1)

	syncScope(l, scope, baseline)
	return result, nil
}

// openSandbox загружает только math и выставляет его функции глобально
// (abs, floor, max, pi...). Возвращает определенные имена.
func openSandbox(l *lua.State) map[string]bool {
	lua.Require(l, "math", lua.MathOpen, true)
	l.Pop(1)

	baseline := map[string]bool{"math": true}
	l.Global("math")
	l.PushNil()
	for l.Next(-2) {
		if l.TypeOf(-2) == lua.TypeString {
			name, _ := l.ToString(-2)
			l.PushValue(-1)
			l.SetGlobal(name)
			baseline[name] = true
		}
		l.Pop(1)
	}
	l.Pop(1)
	return baseline
}

func strictGlobals(l *lua.State) {
	l.PushGlobalTable()
	l.NewTable()
	l.PushGoFunction(func(l *lua.State) int {
		name, _ := l.ToString(2)
		lua.Errorf(l, "undefined symbol %s", name)
		return 0
	})
	l.SetField(-2, "__index")
	l.SetMetaTable(-2)
	l.Pop(1)
}

// syncScope копирует скалярные глобальные переменные обратно в scope
// и удаляет те, что программа обнулила.
func syncScope(l *lua.State, scope Scope, baseline map[string]bool) {
	if scope == nil {
		return
	}
	seen := make(map[string]bool, len(scope))
	l.PushGlobalTable()
	l.PushNil()
	for l.Next(-2) {
		if l.TypeOf(-2) == lua.TypeString {
			name, _ := l.ToString(-2)
			_, inScope := scope[name]
			if !baseline[name] || inScope {
				switch l.TypeOf(-1) {
				case lua.TypeNumber, lua.TypeString, lua.TypeBoolean:
					scope[name] = toValue(l, -1)
					seen[name] = true
				}
			}
		}
		l.Pop(1)
	}
	l.Pop(1)

	for k := range scope {
		if !seen[k] {
			delete(scope, k)
		}
	}
}

func pushValue(l *lua.State, v any) {
	switch t := v.(type) {
	case nil:
		l.PushNil()
	case bool:
		l.PushBoolean(t)
	case float64:
		l.PushNumber(t)
	case float32:
		l.PushNumber(float64(t))
	case int:
		l.PushNumber(float64(t))
	case int64:
		l.PushNumber(float64(t))
	case string:
		l.PushString(t)
	default:
		l.PushString(fmt.Sprint(t))
	}
}

func toValue(l *lua.State, index int) any {
	switch l.TypeOf(index) {
	case lua.TypeNumber:
		f, _ := l.ToNumber(index)
		return f
	case lua.TypeString:
		s, _ := l.ToString(index)
		return s
	case lua.TypeBoolean:
		return l.ToBoolean(index)
	case lua.TypeTable:
		return toSequence(l, index)
	}
	return nil
}

// toSequence переводит массивную часть таблицы, не-последовательность дает nil.
func toSequence(l *lua.State, index int) any {
	index = l.AbsIndex(index)
	var out []any
	for i := 1; ; i++ {
		l.RawGetInt(index, i)
		if l.TypeOf(-1) == lua.TypeNil {
			l.Pop(1)
			break
		}
		out = append(out, toValue(l, -1))
		l.Pop(1)
	}
	if out == nil {
		return nil
	}
	return out
}

// splitStatements режет по ";" и переводам строк вне строк и скобок,
// заменяя "!=" на "~=".
func splitStatements(src string) ([]string, error) {
	var (
		stmts []string
		cur   strings.Builder
		quote byte
		depth int
		word  strings.Builder
	)
	flushWord := func() error {
		w := word.String()
		word.Reset()
		if forbiddenWords[w] {
			return fmt.Errorf("%q is not allowed in expressions", w)
		}
		return nil
	}
	flushStmt := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			stmts = append(stmts, s)
		}
		cur.Reset()
	}

	for i := 0; i < len(src); i++ {
		c := src[i]
		if quote != 0 {
			cur.WriteByte(c)
			if c == '\\' && i+1 < len(src) {
				i++
				cur.WriteByte(src[i])
			} else if c == quote {
				quote = 0
			}
			continue
		}
		if isWordByte(c) {
			word.WriteByte(c)
			cur.WriteByte(c)
			continue
		}
		if err := flushWord(); err != nil {
			return nil, err
		}
		switch c {
		case '"', '\'':
			quote = c
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("unbalanced %q", c)
			}
		case '!':
			if i+1 < len(src) && src[i+1] == '=' {
				cur.WriteByte('~')
				continue
			}
		case ';', '\n':
			if depth == 0 {
				flushStmt()
				continue
			}
		}
		cur.WriteByte(c)
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated string")
	}
	if depth != 0 {
		return nil, fmt.Errorf("unbalanced brackets")
	}
	if err := flushWord(); err != nil {
		return nil, err
	}
	flushStmt()
	return stmts, nil
}

func isWordByte(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}
