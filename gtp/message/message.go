// SPDX-FileCopyrightText: 2024 Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package message

import (
	"github.com/pkg/errors"

	"github.com/omec-project/pgwc/gtp/ies"
	"github.com/omec-project/pgwc/msgtypes/gtpmsgtypes"
)

// Header is the part of the GTPv2-C header the control plane decides on.
// Sequence numbers and framing belong to the transaction layer.
type Header struct {
	Type gtpmsgtypes.GtpMsgType
	TEID uint32
}

// F-TEID instances inside bearer contexts
const (
	InstanceS5S8USGWFTEID uint8 = 2
	InstanceS5S8UPGWFTEID uint8 = 3
)

type BearerContext struct {
	Presence       bool
	EBI            ies.TLV
	Cause          ies.TLV
	BearerLevelQoS ies.TLV
	TFT            ies.TLV
	S5S8USGWFTEID  ies.TLV
	S5S8UPGWFTEID  ies.TLV
}

type CreateSessionRequest struct {
	IMSI                       ies.TLV
	APN                        ies.TLV
	SenderFTEIDForControlPlane ies.TLV
	AggregateMaximumBitRate    ies.TLV
	UserLocationInformation    ies.TLV
	BearerContextsToBeCreated  BearerContext
}

type DeleteSessionRequest struct {
	LinkedEBI               ies.TLV
	UserLocationInformation ies.TLV
}

type CreateBearerResponse struct {
	Cause          ies.TLV
	BearerContexts BearerContext
}

type UpdateBearerResponse struct {
	Cause          ies.TLV
	BearerContexts BearerContext
}

type DeleteBearerResponse struct {
	Cause          ies.TLV
	LinkedEBI      ies.TLV
	BearerContexts BearerContext
}

type BearerResourceCommand struct {
	LinkedEBI                   ies.TLV
	ProcedureTransactionID      ies.TLV
	FlowQualityOfService        ies.TLV
	TrafficAggregateDescription ies.TLV
	EBI                         ies.TLV
}

var ErrUnexpectedMessage = errors.New("unexpected message type")

type slot struct {
	typ, instance uint8
}

// fill sets the first IE matching each slot. Unknown IEs are skipped.
func fill(list []ies.IE, slots map[slot]*ies.TLV) {
	for _, ie := range list {
		if tlv, ok := slots[slot{ie.Type, ie.Instance}]; ok && !tlv.Presence {
			*tlv = ies.Present(ie.Value)
		}
	}
}

func decodeBearerContext(value []byte, bc *BearerContext) error {
	list, err := ies.Decode(value)
	if err != nil {
		return errors.Wrap(err, "bearer context")
	}
	bc.Presence = true
	fill(list, map[slot]*ies.TLV{
		{ies.EBI, 0}:                       &bc.EBI,
		{ies.Cause, 0}:                     &bc.Cause,
		{ies.BearerQoS, 0}:                 &bc.BearerLevelQoS,
		{ies.BearerTFT, 0}:                 &bc.TFT,
		{ies.FTEID, InstanceS5S8USGWFTEID}: &bc.S5S8USGWFTEID,
		{ies.FTEID, InstanceS5S8UPGWFTEID}: &bc.S5S8UPGWFTEID,
	})
	return nil
}

func decode(b []byte, slots map[slot]*ies.TLV, bc *BearerContext) error {
	list, err := ies.Decode(b)
	if err != nil {
		return err
	}
	fill(list, slots)
	if bc == nil {
		return nil
	}
	for _, ie := range list {
		if ie.Type == ies.BearerContext && ie.Instance == 0 {
			return decodeBearerContext(ie.Value, bc)
		}
	}
	return nil
}

// Parse decodes the IEs of an inbound message into its struct, returned by
// pointer.
func Parse(h *Header, b []byte) (interface{}, error) {
	switch h.Type {
	case gtpmsgtypes.CreateSessionRequest:
		m := &CreateSessionRequest{}
		return m, decode(b, map[slot]*ies.TLV{
			{ies.IMSI, 0}:  &m.IMSI,
			{ies.APN, 0}:   &m.APN,
			{ies.FTEID, 0}: &m.SenderFTEIDForControlPlane,
			{ies.AMBR, 0}:  &m.AggregateMaximumBitRate,
			{ies.ULI, 0}:   &m.UserLocationInformation,
		}, &m.BearerContextsToBeCreated)
	case gtpmsgtypes.DeleteSessionRequest:
		m := &DeleteSessionRequest{}
		return m, decode(b, map[slot]*ies.TLV{
			{ies.EBI, 0}: &m.LinkedEBI,
			{ies.ULI, 0}: &m.UserLocationInformation,
		}, nil)
	case gtpmsgtypes.CreateBearerResponse:
		m := &CreateBearerResponse{}
		return m, decode(b, map[slot]*ies.TLV{{ies.Cause, 0}: &m.Cause}, &m.BearerContexts)
	case gtpmsgtypes.UpdateBearerResponse:
		m := &UpdateBearerResponse{}
		return m, decode(b, map[slot]*ies.TLV{{ies.Cause, 0}: &m.Cause}, &m.BearerContexts)
	case gtpmsgtypes.DeleteBearerResponse:
		m := &DeleteBearerResponse{}
		return m, decode(b, map[slot]*ies.TLV{
			{ies.Cause, 0}: &m.Cause,
			{ies.EBI, 0}:   &m.LinkedEBI,
		}, &m.BearerContexts)
	case gtpmsgtypes.BearerResourceCommand:
		m := &BearerResourceCommand{}
		return m, decode(b, map[slot]*ies.TLV{
			{ies.EBI, 0}:     &m.LinkedEBI,
			{ies.PTI, 0}:     &m.ProcedureTransactionID,
			{ies.FlowQoS, 0}: &m.FlowQualityOfService,
			{ies.TAD, 0}:     &m.TrafficAggregateDescription,
			{ies.EBI, 1}:     &m.EBI,
		}, nil)
	}
	return nil, errors.Wrapf(ErrUnexpectedMessage, "%s (%d)", h.Type, h.Type)
}
