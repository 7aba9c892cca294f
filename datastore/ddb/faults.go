/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	stderrors "errors"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/suparena/tableops/errors"
)

var faultReasons = map[string]errors.FaultReason{
	"ProvisionedThroughputExceededException":   errors.ReasonThrottled,
	"RequestLimitExceeded":                     errors.ReasonThrottled,
	"ThrottlingException":                      errors.ReasonThrottled,
	"ValidationException":                      errors.ReasonValidation,
	"SerializationException":                   errors.ReasonValidation,
	"ItemCollectionSizeLimitExceededException": errors.ReasonValidation,
	"TransactionConflictException":             errors.ReasonValidation,
	"AccessDeniedException":                    errors.ReasonAccess,
	"UnrecognizedClientException":              errors.ReasonAccess,
	"MissingAuthenticationTokenException":      errors.ReasonAccess,
	"ResourceNotFoundException":                errors.ReasonNotFound,
	"InternalServerError":                      errors.ReasonUnavailable,
	"ServiceUnavailable":                       errors.ReasonUnavailable,
}

// Translate maps a provider error into the tableops taxonomy.
// Conditional check failures become *errors.ConditionNotMetError, context
// cancellation and errors already in the taxonomy are returned unchanged, and
// everything else becomes a
// *errors.ProviderFaultError that does not wrap the provider error.
func Translate(operation, table string, err error) error {
	if err == nil {
		return nil
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return err
	}

	if inTaxonomy(err) {
		return err
	}

	var ccf *types.ConditionalCheckFailedException
	if stderrors.As(err, &ccf) {
		return errors.NewConditionNotMetError(operation, table)
	}

	fault := &errors.ProviderFaultError{
		Operation: operation,
		Table:     table,
		Reason:    errors.ReasonUnknown,
		Message:   err.Error(),
		Retryable: isRetryableError(err),
	}
	var apiErr smithy.APIError
	if stderrors.As(err, &apiErr) {
		fault.Code = apiErr.ErrorCode()
		fault.Message = apiErr.ErrorMessage()
		if reason, ok := faultReasons[fault.Code]; ok {
			fault.Reason = reason
		}
	}
	if fault.Reason == errors.ReasonThrottled || fault.Reason == errors.ReasonUnavailable {
		fault.Retryable = true
	}
	return fault
}

func inTaxonomy(err error) bool {
	return errors.IsProviderFault(err) ||
		errors.IsConditionNotMet(err) ||
		errors.IsValidationError(err) ||
		errors.IsDecodeError(err) ||
		errors.IsThroughputExhausted(err) ||
		errors.IsNotFound(err)
}

// isRetryableError determines if a DynamoDB error is retryable
func isRetryableError(err error) bool {
	var throughput *types.ProvisionedThroughputExceededException
	var limit *types.RequestLimitExceeded
	var internal *types.InternalServerError
	if stderrors.As(err, &throughput) || stderrors.As(err, &limit) || stderrors.As(err, &internal) {
		return true
	}

	// Check for AWS SDK retryable errors
	var retryable interface{ RetryableError() bool }
	if stderrors.As(err, &retryable) {
		return retryable.RetryableError()
	}
	return false
}
