package api

type ApiResStatusEnum string

const (
	ApiResStatusOk               ApiResStatusEnum = "OK"
	ApiResStatusRequestBodyError ApiResStatusEnum = "REQUEST_BODY_ERROR"
	ApiResStatusNotFound         ApiResStatusEnum = "NOT_FOUND"
	ApiResStatusDuplicate        ApiResStatusEnum = "DUPLICATE"
	ApiResStatusInvalidRequest   ApiResStatusEnum = "INVALID_REQUEST"
	ApiResStatusError            ApiResStatusEnum = "ERROR"
)

type ApiResponseWrapper[T any] struct {
	Status       ApiResStatusEnum `json:"status"`
	Data         T                `json:"data,omitempty"`
	ErrorMessage string           `json:"errorMessage,omitempty"`
	ErrorDetails string           `json:"errorDetails,omitempty"`
}
