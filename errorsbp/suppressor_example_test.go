package errorsbp_test

import (
	"errors"

	"github.com/jiangwei/thriftconnpool/errorsbp"
)

type MyThriftException struct{}

func (*MyThriftException) Error() string {
	return "my thrift exception"
}

type MyOtherException struct{}

func (*MyOtherException) Error() string {
	return "my other exception"
}

func MyThriftExceptionSuppressor(err error) bool {
	return errors.As(err, new(*MyThriftException))
}

func MyOtherExceptionSuppressor(err error) bool {
	return errors.As(err, new(*MyOtherException))
}

// This example demonstrates how to implement a Suppressor and combine two
// of them with OrSuppressors.
func ExampleSuppressor() {
	errorsbp.OrSuppressors(MyThriftExceptionSuppressor, MyOtherExceptionSuppressor)
}
