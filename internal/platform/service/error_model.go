package service

import "errors"

type ErrorCode string

const (
	ErrorCodeValidation   ErrorCode = "validation"
	ErrorCodeUnauthorized ErrorCode = "unauthorized"
	ErrorCodeForbidden    ErrorCode = "forbidden"
	ErrorCodeConflict     ErrorCode = "conflict"
	ErrorCodeNotFound     ErrorCode = "not_found"
	ErrorCodeInternal     ErrorCode = "internal"
)

// ServiceError 服务层对外暴露的错误。Message 面向客户端，Err 保留领域哨兵错误供 errors.Is 判断。
type ServiceError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func NewServiceError(code ErrorCode, message string) error {
	return &ServiceError{Code: code, Message: message}
}

// NewServiceErrorWithCause 构造带底层原因的服务错误
func NewServiceErrorWithCause(code ErrorCode, message string, cause error) error {
	return &ServiceError{Code: code, Message: message, Err: cause}
}

func NewValidationError(message string) error {
	return NewServiceError(ErrorCodeValidation, message)
}

// Validation 以哨兵错误作为原因构造校验错误，消息取自哨兵本身。
func Validation(cause error) error {
	return NewServiceErrorWithCause(ErrorCodeValidation, cause.Error(), cause)
}

func NotFound(cause error) error {
	return NewServiceErrorWithCause(ErrorCodeNotFound, cause.Error(), cause)
}

// Forbidden 越权访问统一使用泛化消息，不泄露资源归属。
func Forbidden(cause error) error {
	return NewServiceErrorWithCause(ErrorCodeForbidden, "无权操作该资源", cause)
}

// Internal 资源类错误（模型加载、推理、数据库不可用）统一使用泛化消息。
func Internal(message string, cause error) error {
	return NewServiceErrorWithCause(ErrorCodeInternal, message, cause)
}

func AsServiceError(err error) (*ServiceError, bool) {
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr, true
	}
	return nil, false
}

// CodeOf 返回错误的服务错误码，非 ServiceError 视为 internal。
func CodeOf(err error) ErrorCode {
	if serviceErr, ok := AsServiceError(err); ok {
		return serviceErr.Code
	}
	return ErrorCodeInternal
}
