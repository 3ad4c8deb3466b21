package document

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Carmen-Shannon/oxy-editor/common"
)

// A document is stored as YAML. Every group is a sequence of single-key mappings, which keeps
// entry order and allows repeated keys:
//
//	- scene:
//	    - child:
//	        - transformation: 1 0 0 0 0 1 0 0 0 0 1 0 0 0 0 1
//	        - feature:
//	            - type: mesh
//	            - primitive.type: sphere
//
// A scalar item is a value; a sequence item is a nested group. All values are kept as text.

// Decode reads a document. The returned root group is unnamed and holds the top-level entries.
//
// Parameters:
//   - r: the YAML source
//
// Returns:
//   - *Group: the root group
//   - error: an error wrapping common.ErrMalformedDocument if the layout is not a group tree
func Decode(r io.Reader) (*Group, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return NewGroup(""), nil
		}
		return nil, fmt.Errorf("%w: %w", common.ErrMalformedDocument, err)
	}

	root := NewGroup("")
	if len(doc.Content) == 0 {
		return root, nil
	}
	if err := decodeGroup(root, doc.Content[0]); err != nil {
		return nil, err
	}
	return root, nil
}

func decodeGroup(g *Group, n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode && n.Tag == "!!null" {
		return nil
	}
	if n.Kind != yaml.SequenceNode {
		return malformed(n, "group %q must be a sequence", g.Name)
	}
	for _, item := range n.Content {
		if item.Kind != yaml.MappingNode || len(item.Content) != 2 {
			return malformed(item, "entry of %q must be a single-key mapping", g.Name)
		}
		k, v := item.Content[0], item.Content[1]
		if k.Kind != yaml.ScalarNode {
			return malformed(k, "key in %q must be a scalar", g.Name)
		}

		switch v.Kind {
		case yaml.ScalarNode:
			g.entries = append(g.entries, Entry{Key: k.Value, Value: v.Value})
		case yaml.SequenceNode:
			child := NewGroup(k.Value)
			if err := decodeGroup(child, v); err != nil {
				return err
			}
			g.AddGroup(child)
		default:
			return malformed(v, "value of %q must be a scalar or a sequence", k.Value)
		}
	}
	return nil
}

func malformed(n *yaml.Node, format string, args ...any) error {
	return fmt.Errorf("%w: line %d: %s", common.ErrMalformedDocument, n.Line, fmt.Sprintf(format, args...))
}

// Encode writes the root group's entries as a document.
//
// Parameters:
//   - w: the destination
//   - root: the root group returned by Decode or built by hand
//
// Returns:
//   - error: error if writing fails
func Encode(w io.Writer, root *Group) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(4)
	if err := enc.Encode(encodeGroup(root)); err != nil {
		return err
	}
	return enc.Close()
}

func encodeGroup(g *Group) *yaml.Node {
	seq := &yaml.Node{Kind: yaml.SequenceNode}
	if len(g.entries) == 0 {
		seq.Style = yaml.FlowStyle
	}
	for _, e := range g.entries {
		key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Key}
		var value *yaml.Node
		if e.IsGroup() {
			value = encodeGroup(e.Group)
		} else {
			value = &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Value}
		}
		seq.Content = append(seq.Content, &yaml.Node{
			Kind:    yaml.MappingNode,
			Content: []*yaml.Node{key, value},
		})
	}
	return seq
}

// Unmarshal decodes a document held in memory.
func Unmarshal(data []byte) (*Group, error) {
	return Decode(bytes.NewReader(data))
}

// Marshal encodes a document into memory.
func Marshal(root *Group) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, root); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ReadFile decodes the document stored at path.
func ReadFile(path string) (*Group, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open document: %w", err)
	}
	defer f.Close()

	root, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return root, nil
}

// WriteFile encodes root to path, replacing it atomically.
func WriteFile(path string, root *Group) error {
	data, err := Marshal(root)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace document: %w", err)
	}
	return nil
}
