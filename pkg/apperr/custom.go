package apperr

import "fmt"

// ValidationError はシナリオ設定のバリデーションエラーを表す。
type ValidationError struct {
	Field   string // エラーが発生したフィールド名
	Message string // エラーメッセージ
}

// Error はerrorインターフェースを実装する。
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: field=%s, message=%s", e.Field, e.Message)
}

// NewValidationError はValidationErrorを生成する。
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// DirectiveError はリプライディレクティブの解決エラーを表す。
type DirectiveError struct {
	Attribute string // 対象のアトリビュート名
	Directive string // 解決に失敗したディレクティブ文字列
	Cause     error  // 根本原因
}

// Error はerrorインターフェースを実装する。
func (e *DirectiveError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("directive error: attribute=%s, directive=%s, cause=%v",
			e.Attribute, e.Directive, e.Cause)
	}
	return fmt.Sprintf("directive error: attribute=%s, directive=%s",
		e.Attribute, e.Directive)
}

// Unwrap は根本原因を返す。
func (e *DirectiveError) Unwrap() error {
	return e.Cause
}

// NewDirectiveError はDirectiveErrorを生成する。
func NewDirectiveError(attribute, directive string, cause error) *DirectiveError {
	return &DirectiveError{
		Attribute: attribute,
		Directive: directive,
		Cause:     cause,
	}
}

// StoreError はダイアログストアとの操作エラーを表す。
type StoreError struct {
	Operation string // 操作名（GET, SET, DEL等）
	Key       string // 操作対象のキー
	Cause     error  // 根本原因
}

// Error はerrorインターフェースを実装する。
func (e *StoreError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("store error: operation=%s, key=%s, cause=%v",
			e.Operation, e.Key, e.Cause)
	}
	return fmt.Sprintf("store error: operation=%s, key=%s", e.Operation, e.Key)
}

// Unwrap は根本原因を返す。
func (e *StoreError) Unwrap() error {
	return e.Cause
}

// NewStoreError はStoreErrorを生成する。
func NewStoreError(operation, key string, cause error) *StoreError {
	return &StoreError{
		Operation: operation,
		Key:       key,
		Cause:     cause,
	}
}
