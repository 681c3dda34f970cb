package github

import "fmt"

// Common errors
var (
	ErrNoData    = fmt.Errorf("the response has no data")
	ErrEmptyNode = fmt.Errorf("missing expected node")
)

// emptyNode reports a required response field that the API left absent,
// e.g. when the target repository was deleted between listing and fetching.
func emptyNode(field string) error {
	return fmt.Errorf("%w: %s", ErrEmptyNode, field)
}
