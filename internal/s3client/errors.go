package s3client

import (
	"errors"
	"fmt"

	"github.com/aws/smithy-go"
	"github.com/minio/minio-go/v7"
)

// ServiceError is returned when the object store rejected or failed a request,
// as opposed to local I/O or transport faults.
type ServiceError struct {
	Op     string
	Bucket string
	Key    string
	Code   string
	Err    error
}

func (e *ServiceError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("s3.%s %s/%s: %s: %v", e.Op, e.Bucket, e.Key, e.Code, e.Err)
	}
	return fmt.Sprintf("s3.%s %s/%s: %v", e.Op, e.Bucket, e.Key, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Message is the store's own description of the failure.
func (e *ServiceError) Message() string {
	var apiErr smithy.APIError
	if errors.As(e.Err, &apiErr) && apiErr.ErrorMessage() != "" {
		return apiErr.ErrorMessage()
	}
	var minioErr minio.ErrorResponse
	if errors.As(e.Err, &minioErr) && minioErr.Message != "" {
		return minioErr.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return e.Err.Error()
}

// AsServiceError returns the *ServiceError carried by err, if any.
func AsServiceError(err error) (*ServiceError, bool) {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr, true
	}
	return nil, false
}

func classifyAWS(op, bucket, key string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return &ServiceError{Op: op, Bucket: bucket, Key: key, Code: apiErr.ErrorCode(), Err: err}
	}
	return fmt.Errorf("s3.%s %s/%s: %w", op, bucket, key, err)
}

func classifyMinio(op, bucket, key string, err error) error {
	var resp minio.ErrorResponse
	if errors.As(err, &resp) && resp.Code != "" && resp.StatusCode != 0 {
		return &ServiceError{Op: op, Bucket: bucket, Key: key, Code: resp.Code, Err: err}
	}
	return fmt.Errorf("s3.%s %s/%s: %w", op, bucket, key, err)
}
