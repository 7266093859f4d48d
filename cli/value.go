package cli

import (
	"fmt"

	"github.com/gclaussn/go-bpmn-query/http/common"
	"github.com/gclaussn/go-bpmn-query/projection"
)

// kindValue is a custom flag value for an entity kind.
type kindValue projection.Kind

func (v *kindValue) Set(s string) error {
	kind := common.MapKindPath(s)
	if kind == 0 {
		return fmt.Errorf("invalid kind %s", s)
	}

	*v = kindValue(kind)
	return nil
}

func (v kindValue) String() string {
	if v == 0 {
		return ""
	}
	return common.KindPath(projection.Kind(v))
}

func (v kindValue) Type() string {
	return "kind"
}
