package devconf

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/golang/glog"
	"gopkg.in/yaml.v3"
)

// The description document is kept as a yaml.Node tree. Only the parts a
// record owns are ever rewritten, so comments, key order, number styles and
// unknown keys survive a round trip.

const (
	tagInt   = "!!int"
	tagBool  = "!!bool"
	tagStr   = "!!str"
	tagFloat = "!!float"
)

func newMapping() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
}

func newSequence() *yaml.Node {
	return &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
}

func intNode(v int, hex bool) *yaml.Node {
	value := strconv.Itoa(v)
	if hex && v >= 0 {
		value = "0x" + strconv.FormatInt(int64(v), 16)
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tagInt, Value: value}
}

func boolNode(v bool) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tagBool, Value: strconv.FormatBool(v)}
}

func strNode(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tagStr, Value: v}
}

// lookup returns the value stored under key in a mapping node.
func lookup(m *yaml.Node, key string) *yaml.Node {
	if i := keyIndex(m, key); i >= 0 {
		return m.Content[i+1]
	}
	return nil
}

func keyIndex(m *yaml.Node, key string) int {
	if m == nil || m.Kind != yaml.MappingNode {
		return -1
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return i
		}
	}
	return -1
}

// put replaces the value under key or appends the pair when key is absent.
func put(m *yaml.Node, key string, value *yaml.Node) {
	if i := keyIndex(m, key); i >= 0 {
		old := m.Content[i+1]
		value.HeadComment = old.HeadComment
		value.LineComment = old.LineComment
		value.FootComment = old.FootComment
		m.Content[i+1] = value
		return
	}
	m.Content = append(m.Content, strNode(key), value)
}

func remove(m *yaml.Node, key string) {
	if i := keyIndex(m, key); i >= 0 {
		m.Content = append(m.Content[:i], m.Content[i+2:]...)
	}
}

func scalarInt(n *yaml.Node) (int, bool) {
	if n == nil || n.Kind != yaml.ScalarNode {
		return 0, false
	}
	if tag := n.ShortTag(); tag != tagInt && tag != tagStr {
		return 0, false
	}
	v, err := strconv.ParseInt(strings.ReplaceAll(n.Value, "_", ""), 0, 64)
	if err != nil {
		return 0, false
	}
	return int(v), true
}

func isHex(n *yaml.Node) bool {
	return n != nil && n.Kind == yaml.ScalarNode &&
		(strings.HasPrefix(n.Value, "0x") || strings.HasPrefix(n.Value, "0X"))
}

func scalarBool(n *yaml.Node) (bool, bool) {
	if n == nil || n.Kind != yaml.ScalarNode {
		return false, false
	}
	var v bool
	if err := n.Decode(&v); err != nil {
		return false, false
	}
	return v, true
}

func scalarString(n *yaml.Node) (string, bool) {
	if n == nil || n.Kind != yaml.ScalarNode || n.ShortTag() == tagFloat {
		return "", false
	}
	return n.Value, true
}

// reader pulls typed fields out of one mapping. Absent or malformed fields
// yield the supplied default; malformed ones are logged.
type reader struct {
	dev    string
	path   string
	node   *yaml.Node
	issues *[]string
}

// warn logs a problem. Strict readers also collect it.
func (r reader) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if r.issues != nil {
		*r.issues = append(*r.issues, msg)
	}
	glog.Warning(msg)
}

func (r reader) where(key string) string {
	if len(r.path) > 0 {
		return r.dev + ": " + r.path + "." + key
	}
	return r.dev + ": " + key
}

func (r reader) has(key string) bool {
	return lookup(r.node, key) != nil
}

func (r reader) int(key string, def int) int {
	n := lookup(r.node, key)
	if n == nil {
		return def
	}
	v, ok := scalarInt(n)
	if !ok {
		r.warn("%s: invalid integer %q, using %d", r.where(key), n.Value, def)
		return def
	}
	return v
}

func (r reader) bool(key string, def bool) bool {
	n := lookup(r.node, key)
	if n == nil {
		return def
	}
	v, ok := scalarBool(n)
	if !ok {
		r.warn("%s: invalid boolean %q, using %v", r.where(key), n.Value, def)
		return def
	}
	return v
}

func (r reader) str(key string, def string) string {
	n := lookup(r.node, key)
	if n == nil {
		return def
	}
	v, ok := scalarString(n)
	if !ok {
		r.warn("%s: expected a string, using %q", r.where(key), def)
		return def
	}
	return v
}

// enum maps a string field onto its index in names.
func (r reader) enum(key string, names []string, def int) int {
	n := lookup(r.node, key)
	if n == nil {
		return def
	}
	v, _ := scalarString(n)
	for i, name := range names {
		if strings.EqualFold(v, name) {
			return i
		}
	}
	r.warn("%s: unknown value %q, using %q", r.where(key), n.Value, names[def])
	return def
}

func (r reader) sub(key string) reader {
	path := key
	if len(r.path) > 0 {
		path = r.path + "." + key
	}
	n := lookup(r.node, key)
	if n != nil && n.Kind != yaml.MappingNode {
		r.warn("%s: expected a table", r.where(key))
		n = nil
	}
	return reader{dev: r.dev, path: path, node: n, issues: r.issues}
}

func (r reader) list(key string) []reader {
	n := lookup(r.node, key)
	if n == nil {
		return nil
	}
	if n.Kind != yaml.SequenceNode {
		r.warn("%s: expected a list", r.where(key))
		return nil
	}
	result := make([]reader, 0, len(n.Content))
	for i, item := range n.Content {
		if item.Kind != yaml.MappingNode {
			r.warn("%s[%d]: expected a table", r.where(key), i)
			continue
		}
		result = append(result, reader{dev: r.dev, path: key + "[" + strconv.Itoa(i) + "]", node: item, issues: r.issues})
	}
	return result
}

// writer stores typed fields into one mapping. A scalar that already holds
// the same value is left untouched so its original spelling survives.
type writer struct {
	node *yaml.Node
}

func (w writer) int(key string, v int) {
	w.number(key, v, false)
}

func (w writer) hex(key string, v int) {
	w.number(key, v, true)
}

func (w writer) number(key string, v int, hex bool) {
	old := lookup(w.node, key)
	if cur, ok := scalarInt(old); ok && cur == v {
		return
	}
	if old != nil {
		hex = isHex(old)
	}
	put(w.node, key, intNode(v, hex))
}

func (w writer) bool(key string, v bool) {
	if cur, ok := scalarBool(lookup(w.node, key)); ok && cur == v {
		return
	}
	put(w.node, key, boolNode(v))
}

func (w writer) str(key string, v string) {
	if cur, ok := scalarString(lookup(w.node, key)); ok && cur == v {
		return
	}
	put(w.node, key, strNode(v))
}

// optStr writes v, or removes key when v is empty.
func (w writer) optStr(key string, v string) {
	if len(v) == 0 {
		remove(w.node, key)
		return
	}
	w.str(key, v)
}

func (w writer) sub(key string) writer {
	n := lookup(w.node, key)
	if n == nil || n.Kind != yaml.MappingNode {
		n = newMapping()
		put(w.node, key, n)
	}
	return writer{node: n}
}

// list replaces the sequence under key. Existing items are reused in order
// so their comments and key order are kept.
func (w writer) list(key string, count int, fill func(i int, item writer)) {
	n := lookup(w.node, key)
	if n == nil || n.Kind != yaml.SequenceNode {
		n = newSequence()
		put(w.node, key, n)
	}

	items := make([]*yaml.Node, count)
	for i := range items {
		if i < len(n.Content) && n.Content[i].Kind == yaml.MappingNode {
			items[i] = n.Content[i]
		} else {
			items[i] = newMapping()
			if n.Style&yaml.FlowStyle != 0 {
				items[i].Style = yaml.FlowStyle
			}
		}
		fill(i, writer{node: items[i]})
	}
	n.Content = items
}

// cloneNode deep copies a node tree.
func cloneNode(n *yaml.Node) *yaml.Node {
	if n == nil {
		return nil
	}
	c := *n
	if n.Content != nil {
		c.Content = make([]*yaml.Node, len(n.Content))
		for i, child := range n.Content {
			c.Content[i] = cloneNode(child)
		}
	}
	return &c
}
