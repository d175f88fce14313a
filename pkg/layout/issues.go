package layout

import (
	"fmt"

	"github.com/matzehuels/orgchart/pkg/errors"
)

// Issue is a recoverable problem found in the input. The layout works
// around it and keeps running.
type Issue struct {
	Code    errors.Code `json:"code"`
	NodeID  string      `json:"node_id,omitempty"`
	Message string      `json:"message"`
}

// Err converts the issue into a structured error.
func (i Issue) Err() error {
	return errors.New(i.Code, "%s", i.Message)
}

func (i Issue) String() string {
	return fmt.Sprintf("%s %s: %s", i.Code, i.NodeID, i.Message)
}
