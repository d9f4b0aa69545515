// SPDX-FileCopyrightText: 2024 Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package gtpmsgtypes

type GtpMsgType uint8

// List of Msgs
const (
	// S5/S8-C session management
	CreateSessionRequest  GtpMsgType = 32
	CreateSessionResponse GtpMsgType = 33
	DeleteSessionRequest  GtpMsgType = 36
	DeleteSessionResponse GtpMsgType = 37

	// UE requested bearer resource modification
	BearerResourceCommand           GtpMsgType = 68
	BearerResourceFailureIndication GtpMsgType = 69

	// Network initiated bearer procedures
	CreateBearerRequest  GtpMsgType = 95
	CreateBearerResponse GtpMsgType = 96
	UpdateBearerRequest  GtpMsgType = 97
	UpdateBearerResponse GtpMsgType = 98
	DeleteBearerRequest  GtpMsgType = 99
	DeleteBearerResponse GtpMsgType = 100
)

var msgTypeText = map[GtpMsgType]string{
	CreateSessionRequest:            "CreateSessionRequest",
	CreateSessionResponse:           "CreateSessionResponse",
	DeleteSessionRequest:            "DeleteSessionRequest",
	DeleteSessionResponse:           "DeleteSessionResponse",
	BearerResourceCommand:           "BearerResourceCommand",
	BearerResourceFailureIndication: "BearerResourceFailureIndication",
	CreateBearerRequest:             "CreateBearerRequest",
	CreateBearerResponse:            "CreateBearerResponse",
	UpdateBearerRequest:             "UpdateBearerRequest",
	UpdateBearerResponse:            "UpdateBearerResponse",
	DeleteBearerRequest:             "DeleteBearerRequest",
	DeleteBearerResponse:            "DeleteBearerResponse",
}

func (t GtpMsgType) String() string {
	if s, ok := msgTypeText[t]; ok {
		return s
	}
	return "Unknown"
}

// IsTriggered reports whether t answers a locally initiated request.
func (t GtpMsgType) IsTriggered() bool {
	switch t {
	case CreateBearerResponse, UpdateBearerResponse, DeleteBearerResponse:
		return true
	}
	return false
}

// ExpectsResponse reports whether t is a locally initiated request the
// peer must answer.
func (t GtpMsgType) ExpectsResponse() bool {
	switch t {
	case CreateBearerRequest, UpdateBearerRequest, DeleteBearerRequest:
		return true
	}
	return false
}
