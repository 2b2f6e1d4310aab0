package ids

import "github.com/segmentio/ksuid"

// New returns a k-sortable unique id, used for object keys and task ids.
func New() string {
	return ksuid.New().String()
}
