package domain

import "fmt"

// Общие доменные ошибки
var (
	ErrNotFound       = notFoundError("not found")
	ErrValidation     = validationError("invalid data")
	ErrBadParams      = validationError("bad params")
	ErrSyncInProgress = conflictError("sync already in progress")
	ErrUnauth         = authError("unauthorized")
	ErrForbidden      = authError("forbidden")
)

type notFoundError string

func (e notFoundError) Error() string { return string(e) }

type validationError string

func (e validationError) Error() string { return string(e) }

type conflictError string

func (e conflictError) Error() string { return string(e) }

type authError string

func (e authError) Error() string { return string(e) }

// CacheLoadError — загрузчик кэша вернул ошибку; в кэш ничего не записано.
type CacheLoadError struct {
	Key string
	Err error
}

func (e *CacheLoadError) Error() string { return fmt.Sprintf("cache load %q: %v", e.Key, e.Err) }
func (e *CacheLoadError) Unwrap() error { return e.Err }

// SyncError — синхронизация прервана. Processed — сколько записей журнала
// было зафиксировано до сбоя.
type SyncError struct {
	Processed int
	OrderID   string
	Err       error
}

func (e *SyncError) Error() string {
	if e.OrderID == "" {
		return fmt.Sprintf("sync failed after %d entries: %v", e.Processed, e.Err)
	}
	return fmt.Sprintf("sync failed after %d entries at order %q: %v", e.Processed, e.OrderID, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }

// BackendUnavailableError — отказ хранилища или брокера.
type BackendUnavailableError struct {
	Op  string
	Err error
}

func (e *BackendUnavailableError) Error() string {
	return fmt.Sprintf("backend unavailable (%s): %v", e.Op, e.Err)
}

func (e *BackendUnavailableError) Unwrap() error { return e.Err }

// Unavailable оборачивает ошибку бэкенда; nil остаётся nil.
func Unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	return &BackendUnavailableError{Op: op, Err: err}
}
