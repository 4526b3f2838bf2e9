package plan

import (
	"fmt"
	"strconv"

	"analiseilpi/table"
	"gopkg.in/yaml.v3"
)

// Codes is a code map written as a YAML mapping. File order is kept, and a
// code may list several labels:
//
//	codes:
//	  1: Filantrópica
//	  2: [Privada, com fins lucrativos]
type Codes []table.Code

// UnmarshalYAML reads the mapping node pair by pair.
func (c *Codes) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: codes must be a mapping", node.Line)
	}
	var out Codes
	for i := 0; i+1 < len(node.Content); i += 2 {
		k, v := node.Content[i], node.Content[i+1]
		code, err := strconv.ParseInt(k.Value, 10, 64)
		if err != nil {
			return fmt.Errorf("line %d: code %q is not an integer", k.Line, k.Value)
		}
		switch v.Kind {
		case yaml.ScalarNode:
			out = append(out, table.Code{Code: code, Label: v.Value})
		case yaml.SequenceNode:
			for _, l := range v.Content {
				out = append(out, table.Code{Code: code, Label: l.Value})
			}
		default:
			return fmt.Errorf("line %d: label of code %d must be text or a list", v.Line, code)
		}
	}
	*c = out
	return nil
}
