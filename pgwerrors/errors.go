// SPDX-FileCopyrightText: 2024 Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package pgwerrors

import (
	"github.com/pkg/errors"
)

// GTPv2 cause values, TS 29.274 Table 8.4-1
const (
	CauseRequestAccepted                   uint8 = 16
	CauseContextNotFound                   uint8 = 64
	CauseServiceNotSupported               uint8 = 68
	CauseMandatoryIEMissing                uint8 = 70
	CauseSystemFailure                     uint8 = 72
	CauseNoResourcesAvailable              uint8 = 73
	CauseRequestRejectedReasonNotSpecified uint8 = 94
	CauseSemanticErrorInTheTADOperation    uint8 = 97
	CauseSyntacticErrorInTheTADOperation   uint8 = 98
)

var (
	ErrContextNotFound           = errors.New("context not found")
	ErrMandatoryIEMissing        = errors.New("mandatory IE missing")
	ErrServiceNotSupported       = errors.New("service not supported")
	ErrSemanticErrorInTAD        = errors.New("semantic error in the TAD operation")
	ErrSyntacticErrorInTAD       = errors.New("syntactic error in the TAD operation")
	ErrNoResourcesAvailable      = errors.New("no resources available")
	ErrDefaultBearerNotRemovable = errors.New("default bearer cannot be removed")
)

var errorCause = []struct {
	err   error
	cause uint8
}{
	{ErrContextNotFound, CauseContextNotFound},
	{ErrMandatoryIEMissing, CauseMandatoryIEMissing},
	{ErrServiceNotSupported, CauseServiceNotSupported},
	{ErrSemanticErrorInTAD, CauseSemanticErrorInTheTADOperation},
	{ErrSyntacticErrorInTAD, CauseSyntacticErrorInTheTADOperation},
	{ErrNoResourcesAvailable, CauseNoResourcesAvailable},
	{ErrDefaultBearerNotRemovable, CauseRequestRejectedReasonNotSpecified},
}

var causeName = map[uint8]string{
	CauseRequestAccepted:                   "REQUEST_ACCEPTED",
	CauseContextNotFound:                   "CONTEXT_NOT_FOUND",
	CauseServiceNotSupported:               "SERVICE_NOT_SUPPORTED",
	CauseMandatoryIEMissing:                "MANDATORY_IE_MISSING",
	CauseSystemFailure:                     "SYSTEM_FAILURE",
	CauseNoResourcesAvailable:              "NO_RESOURCES_AVAILABLE",
	CauseRequestRejectedReasonNotSpecified: "REQUEST_REJECTED",
	CauseSemanticErrorInTheTADOperation:    "SEMANTIC_ERROR_IN_THE_TAD_OPERATION",
	CauseSyntacticErrorInTheTADOperation:   "SYNTACTIC_ERROR_IN_THE_TAD_OPERATION",
}

// CauseOf maps err, or any error it wraps, to the cause sent to the peer.
// Errors with no mapping are reported as a system failure.
func CauseOf(err error) uint8 {
	if err == nil {
		return CauseRequestAccepted
	}
	for _, e := range errorCause {
		if errors.Is(err, e.err) {
			return e.cause
		}
	}
	return CauseSystemFailure
}

func CauseName(cause uint8) string {
	if name, ok := causeName[cause]; ok {
		return name
	}
	return "UNKNOWN"
}
