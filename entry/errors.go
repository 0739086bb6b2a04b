package entry

import (
	"errors"
	"fmt"
)

// NotFoundError covers every NotFound case of the read/delete surface:
// unknown consumer instance, unknown topic, or an instance torn down while a
// read against it was in flight.
type NotFoundError struct {
	message string
}

func (this *NotFoundError) Error() string {
	return this.message
}

func ConsumerNotFound(group, instance string) *NotFoundError {
	return &NotFoundError{
		message: fmt.Sprintf("consumer instance %q in group %q does not exist", instance, group),
	}
}

func TopicNotFound(topic string) *NotFoundError {
	return &NotFoundError{
		message: fmt.Sprintf("topic %q not found", topic),
	}
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
