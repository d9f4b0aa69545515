// SPDX-FileCopyrightText: 2024 Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package gtpmsgtypes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMsgTypeString(t *testing.T) {
	assert.Equal(t, "CreateSessionRequest", CreateSessionRequest.String())
	assert.Equal(t, "BearerResourceCommand", BearerResourceCommand.String())
	assert.Equal(t, "Unknown", GtpMsgType(1).String())
}

func TestRequestResponsePairs(t *testing.T) {
	for req, rsp := range map[GtpMsgType]GtpMsgType{
		CreateBearerRequest: CreateBearerResponse,
		UpdateBearerRequest: UpdateBearerResponse,
		DeleteBearerRequest: DeleteBearerResponse,
	} {
		assert.True(t, req.ExpectsResponse(), req.String())
		assert.False(t, req.IsTriggered(), req.String())
		assert.True(t, rsp.IsTriggered(), rsp.String())
		assert.Equal(t, req+1, rsp)
	}
	assert.False(t, CreateSessionResponse.ExpectsResponse())
	assert.False(t, CreateSessionRequest.IsTriggered())
}
