package retrybp

import "testing"

// fakeThriftException stands in for a thrift-compiler-generated exception
// with an optional bool Retryable field, the shape IsSetRetryable/
// GetRetryable is built around.
type fakeThriftException struct {
	retryable *bool
}

func (e *fakeThriftException) Error() string {
	return "fake thrift exception"
}

func (e *fakeThriftException) IsSetRetryable() bool {
	return e.retryable != nil
}

func (e *fakeThriftException) GetRetryable() bool {
	if e.retryable == nil {
		return false
	}
	return *e.retryable
}

var _ thriftRetryableError = (*fakeThriftException)(nil)

func boolPtr(b bool) *bool {
	return &b
}

type nextFilter struct {
	called bool
}

func (n *nextFilter) filter(_ error) bool {
	n.called = true
	return false
}

func TestRetryableErrorFilter(t *testing.T) {
	e := &fakeThriftException{}

	t.Run("unset", func(t *testing.T) {
		var n nextFilter
		e.retryable = nil
		result := RetryableErrorFilter(e, n.filter)
		if !n.called {
			t.Error("Expected RetryableErrorFilter to call next filter on unset Retryable field, did not happen")
		}
		if result {
			t.Error("Expected false, got true")
		}
	})

	t.Run("true", func(t *testing.T) {
		var n nextFilter
		e.retryable = boolPtr(true)
		result := RetryableErrorFilter(e, n.filter)
		if n.called {
			t.Error("Expected RetryableErrorFilter to make decision without calling next, next called")
		}
		if !result {
			t.Error("Expected true, got false")
		}
	})

	t.Run("false", func(t *testing.T) {
		var n nextFilter
		e.retryable = boolPtr(false)
		result := RetryableErrorFilter(e, n.filter)
		if n.called {
			t.Error("Expected RetryableErrorFilter to make decision without calling next, next called")
		}
		if result {
			t.Error("Expected false, got true")
		}
	})
}
