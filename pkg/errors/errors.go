package errors

import (
	stderrors "errors"
	"fmt"
)

func (d Definition) Error() string {
	return d.Message
}

// Definition 表示业务错误码及默认信息。
type Definition struct {
	Code    string
	Message string
}

// WithMessage 保留错误码，替换默认信息
func (d Definition) WithMessage(format string, args ...interface{}) Definition {
	return Definition{Code: d.Code, Message: fmt.Sprintf(format, args...)}
}

// 通用错误。
var (
	InvalidRequest   = Definition{Code: "INVALID_REQUEST", Message: "Invalid request"}
	InvalidPath      = Definition{Code: "INVALID_PATH", Message: "Invalid path parameter"}
	TooManyRequests  = Definition{Code: "TOO_MANY_REQUESTS", Message: "Too many requests"}
	ValidationFailed = Definition{Code: "VALIDATION_FAILED", Message: "Validation failed"}
)

// 行程条目校验错误，全部在访问存储之前返回。
var (
	TitleRequired      = Definition{Code: "TITLE_REQUIRED", Message: "Title is required"}
	DayRequired        = Definition{Code: "DAY_REQUIRED", Message: "Day is required"}
	DayOutOfRange      = Definition{Code: "DAY_OUT_OF_RANGE", Message: "Day is outside the trip date range"}
	InvalidTime        = Definition{Code: "INVALID_TIME", Message: "Time must be HH:MM"}
	InvalidCoordinates = Definition{Code: "INVALID_COORDINATES", Message: "Coordinates out of range"}
	InvalidDateRange   = Definition{Code: "INVALID_DATE_RANGE", Message: "End date must not be before start date"}
)

// 关联记录校验错误。
var (
	InvalidTicketMode       = Definition{Code: "INVALID_TICKET_MODE", Message: "Ticket mode must be individual or group"}
	InvalidRegistrationKey  = Definition{Code: "INVALID_REGISTRATION_KEY", Message: "Registration key does not match ticket mode"}
	InvalidRegistrationType = Definition{Code: "INVALID_REGISTRATION_TYPE", Message: "Registration type must be QR, Barcode, URL or Image"}
	InvalidPreparationType  = Definition{Code: "INVALID_PREPARATION_TYPE", Message: "Preparation type must be common or personal"}
	NegativeAmount          = Definition{Code: "NEGATIVE_AMOUNT", Message: "Amount must not be negative"}
	InvalidLink             = Definition{Code: "INVALID_LINK", Message: "Linked itinerary entry does not belong to this trip"}
	ParticipantRequired     = Definition{Code: "PARTICIPANT_REQUIRED", Message: "X-Participant-ID header is required"}
)

// 资源不存在。
var (
	TripNotFound   = Definition{Code: "TRIP_NOT_FOUND", Message: "Trip not found"}
	EntryNotFound  = Definition{Code: "ENTRY_NOT_FOUND", Message: "Itinerary entry not found"}
	RecordNotFound = Definition{Code: "RECORD_NOT_FOUND", Message: "Record not found"}
)

// 外部依赖错误。
var (
	GeocodeUnavailable = Definition{Code: "GEOCODE_UNAVAILABLE", Message: "Map provider unavailable"}
	StorageUnavailable = Definition{Code: "STORAGE_UNAVAILABLE", Message: "Object storage unavailable"}
	PersistenceFailed  = Definition{Code: "PERSISTENCE_FAILED", Message: "Persistence operation failed"}
	// LinkDangling 只用于日志和巡检，不作为接口失败返回
	LinkDangling = Definition{Code: "LINK_DANGLING", Message: "Linked itinerary entry no longer exists"}
)

// Lookup 提供错误码查询能力。
var Lookup = map[string]Definition{
	InvalidRequest.Code:          InvalidRequest,
	InvalidPath.Code:             InvalidPath,
	TooManyRequests.Code:         TooManyRequests,
	ValidationFailed.Code:        ValidationFailed,
	TitleRequired.Code:           TitleRequired,
	DayRequired.Code:             DayRequired,
	DayOutOfRange.Code:           DayOutOfRange,
	InvalidTime.Code:             InvalidTime,
	InvalidCoordinates.Code:      InvalidCoordinates,
	InvalidDateRange.Code:        InvalidDateRange,
	InvalidTicketMode.Code:       InvalidTicketMode,
	InvalidRegistrationKey.Code:  InvalidRegistrationKey,
	InvalidRegistrationType.Code: InvalidRegistrationType,
	InvalidPreparationType.Code:  InvalidPreparationType,
	NegativeAmount.Code:          NegativeAmount,
	InvalidLink.Code:             InvalidLink,
	ParticipantRequired.Code:     ParticipantRequired,
	TripNotFound.Code:            TripNotFound,
	EntryNotFound.Code:           EntryNotFound,
	RecordNotFound.Code:          RecordNotFound,
	GeocodeUnavailable.Code:      GeocodeUnavailable,
	StorageUnavailable.Code:      StorageUnavailable,
	PersistenceFailed.Code:       PersistenceFailed,
	LinkDangling.Code:            LinkDangling,
}

// Get 根据错误码返回 Definition，若不存在则返回空 Definition。
func Get(code string) Definition {
	if def, ok := Lookup[code]; ok {
		return def
	}
	return Definition{Code: code, Message: "Unexpected error"}
}

// validationCodes 对应 400 的校验类错误
var validationCodes = map[string]struct{}{
	ValidationFailed.Code:        {},
	TitleRequired.Code:           {},
	DayRequired.Code:             {},
	DayOutOfRange.Code:           {},
	InvalidTime.Code:             {},
	InvalidCoordinates.Code:      {},
	InvalidDateRange.Code:        {},
	InvalidTicketMode.Code:       {},
	InvalidRegistrationKey.Code:  {},
	InvalidRegistrationType.Code: {},
	InvalidPreparationType.Code:  {},
	NegativeAmount.Code:          {},
	InvalidLink.Code:             {},
}

// IsValidation 判断是否为校验错误
func IsValidation(err error) bool {
	def, ok := As(err)
	if !ok {
		return false
	}
	_, hit := validationCodes[def.Code]
	return hit
}

// As 从错误链中取出 Definition
func As(err error) (Definition, bool) {
	if err == nil {
		return Definition{}, false
	}
	var def Definition
	if stderrors.As(err, &def) {
		return def, true
	}
	var opErr *OpError
	if stderrors.As(err, &opErr) {
		return opErr.Def, true
	}
	return Definition{}, false
}

// OpError 携带底层原因的业务错误，主要用于存储失败
type OpError struct {
	Def Definition
	Op  string
	Err error
}

func (e *OpError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Def.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Def.Message, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// Is 让 errors.Is(err, PersistenceFailed) 成立
func (e *OpError) Is(target error) bool {
	def, ok := target.(Definition)
	return ok && def.Code == e.Def.Code
}

// Persistence 包装存储层错误
func Persistence(op string, err error) error {
	return &OpError{Def: PersistenceFailed, Op: op, Err: err}
}

// IsPersistence 判断是否为存储错误
func IsPersistence(err error) bool {
	return stderrors.Is(err, PersistenceFailed)
}
