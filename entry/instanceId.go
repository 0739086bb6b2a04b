package entry

import "fmt"

// ConsumerInstanceId identifies a registered consumer instance. Instance ids
// are generated, process-wide unique and never reused.
type ConsumerInstanceId struct {
	Group    string
	Instance string
}

func (this ConsumerInstanceId) String() string {
	return fmt.Sprintf("%s/%s", this.Group, this.Instance)
}
