// Package repository holds the PostgreSQL stores behind the workers.
package repository

import "errors"

var (
	ErrQueryFailed        = errors.New("QUERY_EXECUTION_FAILED")
	ErrInsertFailed       = errors.New("DATABASE_INSERT_FAILED")
	ErrCacheFailed        = errors.New("CACHE_OPERATION_FAILED")
	ErrSubscriberNotFound = errors.New("SUBSCRIBER_NOT_FOUND")
	ErrReviewNotFound     = errors.New("REVIEW_NOT_FOUND")
)
