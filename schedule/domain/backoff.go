package domain

import "time"

// backoffBase is the first retry delay; every further failure multiplies it.
const backoffBase = 5 * time.Minute

// FailureBackoff returns the delay before the next automatic attempt
// after a failed execution: 5, 15, 45, ... minutes. retryCount is the
// failure counter after it was incremented for the current failure.
func FailureBackoff(retryCount int) time.Duration {
	if retryCount < 1 {
		retryCount = 1
	}
	return backoffBase * time.Duration(intPow(3, retryCount-1))
}

// RetryBackoff returns the delay applied when an operator explicitly
// re-arms a failed item: 5, 10, 20, ... minutes based on the current
// retry counter, which an explicit retry does not consume.
//
// The two formulas are intentionally different; they reproduce the
// long-standing behavior downstream operators tuned their alerting to.
func RetryBackoff(retryCount int) time.Duration {
	if retryCount < 0 {
		retryCount = 0
	}
	return backoffBase * time.Duration(intPow(2, retryCount))
}

func intPow(base, exp int) int {
	result := 1
	for i := 0; i < exp; i++ {
		result *= base
	}
	return result
}
