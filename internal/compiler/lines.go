package compiler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"quest-server/internal/quest"
)

var (
	errNotHeader        = errors.New("not a card header")
	errBadJSON          = errors.New("invalid attribute JSON")
	errUnterminatedCond = errors.New("unterminated {{ condition")
)

var (
	headerTailRe = regexp.MustCompile(`^\s*(?:\(#([^)\s]+)\))?\s*(\{.*\})?\s*$`)
	eventRe      = regexp.MustCompile(`^on\s+(\S+)$`)
	questAttrRe  = regexp.MustCompile(`^([A-Za-z][\w-]*)\s*:\s*(.+)$`)
)

// jsonAttr - один ключ встроенного JSON-объекта атрибутов.
type jsonAttr struct {
	Key string
	Raw json.RawMessage
}

// String возвращает значение в виде атрибута узла. Строки без кавычек,
// числа в кратчайшей форме, составные значения компактным JSON.
func (a jsonAttr) String() string {
	var v any
	if err := json.Unmarshal(a.Raw, &v); err != nil {
		return string(a.Raw)
	}
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, a.Raw); err != nil {
		return string(a.Raw)
	}
	return buf.String()
}

// parseJSONAttrs разбирает плоский JSON-объект с сохранением порядка ключей.
func parseJSONAttrs(s string) ([]jsonAttr, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errBadJSON, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("%w: expected object", errBadJSON)
	}
	var out []jsonAttr
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errBadJSON, err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("%w: expected key", errBadJSON)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("%w: %v", errBadJSON, err)
		}
		out = append(out, jsonAttr{Key: key, Raw: raw})
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %v", errBadJSON, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data", errBadJSON)
	}
	return out, nil
}

func toAttrs(js []jsonAttr, skip ...string) []quest.Attr {
	out := make([]quest.Attr, 0, len(js))
next:
	for _, a := range js {
		for _, s := range skip {
			if a.Key == s {
				continue next
			}
		}
		out = append(out, quest.Attr{Key: a.Key, Value: a.String()})
	}
	return out
}

// header - разобранный заголовок карточки "_Title_ (#id) {json}".
type header struct {
	Title string
	ID    string
	JSON  []jsonAttr
}

func parseCardHeader(line string) (header, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "_") {
		return header{}, errNotHeader
	}
	for j := 2; j < len(line); j++ {
		if line[j] != '_' {
			continue
		}
		m := headerTailRe.FindStringSubmatch(line[j+1:])
		if m == nil {
			continue
		}
		h := header{Title: strings.TrimSpace(line[1:j]), ID: m[1]}
		if m[2] != "" {
			js, err := parseJSONAttrs(m[2])
			if err != nil {
				return header{}, err
			}
			h.JSON = js
		}
		return h, nil
	}
	return header{}, errNotHeader
}

func (h header) attrs(skip ...string) []quest.Attr {
	attrs := []quest.Attr{{Key: "title", Value: h.Title}}
	if h.ID != "" {
		attrs = append(attrs, quest.Attr{Key: "id", Value: h.ID})
	}
	return append(attrs, toAttrs(h.JSON, skip...)...)
}

func isQuestHeaderLine(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "#")
}

func isTriggerLine(line string) bool {
	t := strings.TrimSpace(line)
	return len(t) > 4 && strings.HasPrefix(t, "**") && strings.HasSuffix(t, "**")
}

func isCombatHeader(line string) bool {
	h, err := parseCardHeader(line)
	return err == nil && strings.EqualFold(h.Title, "combat")
}

// isCardHeader сообщает, открывает ли строка новую карточку.
func isCardHeader(line string) bool {
	if isQuestHeaderLine(line) || isTriggerLine(line) {
		return true
	}
	_, err := parseCardHeader(line)
	return err == nil || errors.Is(err, errBadJSON)
}

func isBullet(line string) bool {
	t := strings.TrimSpace(line)
	if t == "*" || t == "-" {
		return true
	}
	return strings.HasPrefix(t, "* ") || strings.HasPrefix(t, "- ")
}

// bullet - разобранная строка "* {{cond}} label {json}" или "- name {json}".
type bullet struct {
	Marker  byte
	Cond    string
	HasCond bool
	Event   string
	Text    string
	JSON    []jsonAttr
}

func parseBullet(line string) (bullet, error) {
	t := strings.TrimSpace(line)
	b := bullet{Marker: t[0]}
	rest := strings.TrimSpace(t[1:])

	if strings.HasPrefix(rest, "{{") {
		end := strings.Index(rest, "}}")
		if end < 0 {
			return b, errUnterminatedCond
		}
		b.Cond = strings.TrimSpace(rest[2:end])
		b.HasCond = true
		rest = strings.TrimSpace(rest[end+2:])
	}

	if idx := jsonStart(rest); idx >= 0 {
		js, err := parseJSONAttrs(rest[idx:])
		if err != nil {
			return b, err
		}
		b.JSON = js
		rest = strings.TrimSpace(rest[:idx])
	}

	if m := eventRe.FindStringSubmatch(rest); m != nil {
		b.Event = m[1]
		return b, nil
	}
	b.Text = rest
	return b, nil
}

// jsonStart finds the first "{" that is not part of an inline {{op}}.
func jsonStart(s string) int {
	for i := 0; i < len(s); i++ {
		if strings.HasPrefix(s[i:], "{{") {
			end := strings.Index(s[i:], "}}")
			if end < 0 {
				return -1
			}
			i += end + 1
			continue
		}
		if s[i] == '{' {
			return i
		}
	}
	return -1
}

// condAttrs возвращает общие атрибуты пунктов: "if" при наличии условия,
// затем ключи из JSON.
func (b bullet) condAttrs(skip ...string) []quest.Attr {
	var attrs []quest.Attr
	if b.HasCond {
		attrs = append(attrs, quest.Attr{Key: "if", Value: b.Cond})
	}
	return append(attrs, toAttrs(b.JSON, skip...)...)
}

func (b bullet) jsonValue(key string) (jsonAttr, bool) {
	for _, a := range b.JSON {
		if a.Key == key {
			return a, true
		}
	}
	return jsonAttr{}, false
}
