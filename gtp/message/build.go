// SPDX-FileCopyrightText: 2024 Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package message

import (
	"math"

	"github.com/pkg/errors"

	"github.com/omec-project/pgwc/gtp/ies"
)

type ARP struct {
	PreEmptionCapability    bool
	PriorityLevel           uint8
	PreEmptionVulnerability bool
}

// BearerQoS carries bearer rates in kbps as stored for the bearer. The
// GTP Bearer QoS IE has room for them unquantized.
type BearerQoS struct {
	QCI         uint8
	DownlinkMBR uint64
	UplinkMBR   uint64
	DownlinkGBR uint64
	UplinkGBR   uint64
}

// AMBR is the session AMBR in kbps.
type AMBR struct {
	Downlink uint64
	Uplink   uint64
}

// BearerContextIE describes one outbound bearer context. Zero and nil
// fields are left out.
type BearerContextIE struct {
	EBI   uint8
	Cause uint8
	// FTEID is the PGW S5/S8-U endpoint
	FTEID *ies.FTEIDValue
	ARP   ARP
	QoS   *BearerQoS
	TFT   []byte
}

func bearerQoS(arp ARP, q *BearerQoS) ies.IE {
	v := &ies.BearerQoSValue{
		PreEmptionCapability:    arp.PreEmptionCapability,
		PriorityLevel:           arp.PriorityLevel,
		PreEmptionVulnerability: arp.PreEmptionVulnerability,
		QCI:                     q.QCI,
		UplinkMBR:               q.UplinkMBR,
		DownlinkMBR:             q.DownlinkMBR,
		UplinkGBR:               q.UplinkGBR,
		DownlinkGBR:             q.DownlinkGBR,
	}
	b, _ := v.MarshalBinary()
	return ies.IE{Type: ies.BearerQoS, Value: b}
}

func clampUint32(v uint64) uint32 {
	if v > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(v)
}

func ambrIE(ambr *AMBR) ies.IE {
	b, _ := (&ies.AMBRValue{Uplink: clampUint32(ambr.Uplink), Downlink: clampUint32(ambr.Downlink)}).MarshalBinary()
	return ies.IE{Type: ies.AMBR, Value: b}
}

func (bc *BearerContextIE) encode(fteidInstance uint8) (ies.IE, error) {
	var members []ies.IE
	members = append(members, ies.NewEBI(bc.EBI))
	if bc.Cause != 0 {
		members = append(members, ies.NewCause(bc.Cause))
	}
	if bc.TFT != nil {
		members = append(members, ies.IE{Type: ies.BearerTFT, Value: bc.TFT})
	}
	if bc.FTEID != nil {
		ie, err := ies.New(ies.FTEID, fteidInstance, bc.FTEID)
		if err != nil {
			return ies.IE{}, err
		}
		members = append(members, ie)
	}
	if bc.QoS != nil {
		members = append(members, bearerQoS(bc.ARP, bc.QoS))
	}
	return ies.Grouped(ies.BearerContext, 0, members...), nil
}

// BuildErrorMessage is the payload of any response rejected with cause.
func BuildErrorMessage(cause uint8) []byte {
	return ies.Encode(nil, ies.NewCause(cause))
}

func BuildCreateSessionResponse(cause uint8, pgwS5C *ies.FTEIDValue, ambr *AMBR, bc *BearerContextIE) ([]byte, error) {
	list := []ies.IE{ies.NewCause(cause)}

	// PGW S5/S8 F-TEID for the control plane is instance 1
	fteid, err := ies.New(ies.FTEID, 1, pgwS5C)
	if err != nil {
		return nil, errors.Wrap(err, "PGW S5C F-TEID")
	}
	list = append(list, fteid)
	if ambr != nil {
		list = append(list, ambrIE(ambr))
	}

	// bearer context created carries the PGW S5/S8-U F-TEID as instance 2
	created, err := bc.encode(2)
	if err != nil {
		return nil, errors.Wrap(err, "bearer context created")
	}
	list = append(list, created)
	return ies.Encode(nil, list...), nil
}

func BuildDeleteSessionResponse(cause uint8) []byte {
	return ies.Encode(nil, ies.NewCause(cause))
}

func BuildCreateBearerRequest(linkedEBI uint8, pti uint8, bc *BearerContextIE) ([]byte, error) {
	list := []ies.IE{ies.NewEBI(linkedEBI)}
	if pti != 0 {
		list = append(list, ies.NewPTI(pti))
	}
	// S5/S8-U PGW F-TEID is instance 1 of a bearer context to be created
	ie, err := bc.encode(1)
	if err != nil {
		return nil, errors.Wrap(err, "bearer context")
	}
	return ies.Encode(nil, append(list, ie)...), nil
}

func BuildUpdateBearerRequest(pti uint8, ambr *AMBR, bc *BearerContextIE) ([]byte, error) {
	var list []ies.IE
	if pti != 0 {
		list = append(list, ies.NewPTI(pti))
	}
	ie, err := bc.encode(0)
	if err != nil {
		return nil, errors.Wrap(err, "bearer context")
	}
	list = append(list, ie)
	if ambr != nil {
		list = append(list, ambrIE(ambr))
	}
	return ies.Encode(nil, list...), nil
}

// BuildDeleteBearerRequest releases dedicated bearers, listed as EBI
// instance 1.
func BuildDeleteBearerRequest(pti uint8, ebis ...uint8) []byte {
	var list []ies.IE
	for _, ebi := range ebis {
		list = append(list, ies.Uint8(ies.EBI, 1, ebi&0x0f))
	}
	if pti != 0 {
		list = append(list, ies.NewPTI(pti))
	}
	return ies.Encode(nil, list...)
}

func BuildBearerResourceFailureIndication(cause, linkedEBI, pti uint8) []byte {
	return ies.Encode(nil, ies.NewCause(cause), ies.NewEBI(linkedEBI), ies.NewPTI(pti))
}
