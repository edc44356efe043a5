package service

import (
	"errors"

	"catalog-recon/internal/reconcile/model"
)

var (
	// ErrManufacturerNotFound: в каталоге нет ни одной записи этого производителя.
	ErrManufacturerNotFound = errors.New("manufacturer not found in store")
	// ErrNoConfidentMatch: лучший кандидат ниже порога.
	ErrNoConfidentMatch = errors.New("no confident match")
	// ErrMalformedRecord: нет ни артикула, ни наименования.
	ErrMalformedRecord = errors.New("malformed record")
	// ErrStoreWrite: upsert перевода не прошёл.
	ErrStoreWrite = errors.New("store write failure")
	// ErrStoreRead: не удалось загрузить корзину производителя.
	ErrStoreRead = errors.New("store read failure")
	// ErrNotMatched: Apply вызван с решением unmatched.
	ErrNotMatched = errors.New("decision is not matched")
)

// reasonErr сопоставляет причину из ledger'а с ошибкой таксономии.
func reasonErr(reason string) error {
	switch reason {
	case model.ReasonBrandNotInStore:
		return ErrManufacturerNotFound
	case model.ReasonNoMatchAboveThreshold:
		return ErrNoConfidentMatch
	case model.ReasonMalformedRecord:
		return ErrMalformedRecord
	case model.ReasonStoreWriteFailure:
		return ErrStoreWrite
	case model.ReasonStoreReadFailure:
		return ErrStoreRead
	}
	return nil
}
