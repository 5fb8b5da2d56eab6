package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and infrastructure layers return
// these (optionally wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: record does not exist in store
// - ErrUnknownRecordType: record type was never registered with the store
// - ErrUnknownAttribute: attribute is not declared on the record type
// - ErrTypeMismatch: attribute kind cannot serve as a grouping key
// - ErrNilIdentifier: a fetched record carries a null/empty identifier
//
// For coded errors crossing the service boundary, use pkg/domain-errors.
var (
	ErrNotFound          = errors.New("not found")
	ErrUnknownRecordType = errors.New("unknown record type")
	ErrUnknownAttribute  = errors.New("unknown attribute")
	ErrTypeMismatch      = errors.New("attribute kind not groupable")
	ErrNilIdentifier     = errors.New("nil identifier")
)
