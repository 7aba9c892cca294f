/*
Package errors provides the error taxonomy for the tableops library.

Per-item errors never abort their siblings:

	DecodeError           an item could not be decoded (MissingProperty, TypeMismatch, InvalidValue)
	ConditionNotMetError  a conditional write's precondition did not hold
	ThroughputExhausted   a batch item stayed unprocessed after the retry budget

Step-level errors abort the remainder of a composed operation:

	ProviderFaultError    any other provider error (validation, access, unavailability)
	ValidationError       the operation was built from invalid input

Every type maps to a sentinel through its Is method, so callers can use
errors.Is or the helpers:

	res, err := interpreter.Execute(ctx, in, table.Get(key))
	if err != nil {
	    if errors.IsProviderFault(err) {
	        // the step failed as a whole
	    }
	    return err
	}
	if res != nil && errors.IsDecodeError(res.Err) {
	    // the stored item exists but does not decode
	}
*/
package errors
