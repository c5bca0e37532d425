package terminal

import (
	"io"
	"strings"
)

// NewDetachedOperatorRepository builds an operator without a terminal attached.
func NewDetachedOperatorRepository(out io.Writer) *OperatorRepository {
	o := NewScriptedOperatorRepository(strings.NewReader(""), out)
	o.interactive = false
	return o
}
