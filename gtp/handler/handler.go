// SPDX-FileCopyrightText: 2024 Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package handler

import (
	"strconv"

	"github.com/omec-project/pgwc/context"
	"github.com/omec-project/pgwc/gtp/ies"
	"github.com/omec-project/pgwc/gtp/message"
	"github.com/omec-project/pgwc/logger"
	"github.com/omec-project/pgwc/metrics"
	"github.com/omec-project/pgwc/msgtypes/gtpmsgtypes"
	"github.com/omec-project/pgwc/pgwerrors"
	"github.com/omec-project/pgwc/transaction"
)

// PeerRegistry resolves the GTP-U peer a bearer tunnels to.
type PeerRegistry interface {
	FindOrCreate(fteid *ies.FTEIDValue) (*context.PeerNode, error)
	Release(node *context.PeerNode)
}

// PolicyClient is the Gx side. It completes a session procedure by calling
// SendCreateSessionResponse or SendDeleteSessionResponse on the same
// transaction, after EstablishSession or TerminateSession has returned.
type PolicyClient interface {
	EstablishSession(sess *context.Session, xact *transaction.Transaction) error
	TerminateSession(sess *context.Session, xact *transaction.Transaction) error
}

// TxnManager opens locally initiated transactions.
type TxnManager interface {
	Open(h message.Header, payload []byte, pending interface{}) (*transaction.Transaction, error)
}

// Handler runs the S5/S8-C session and bearer procedures of the PGW.
type Handler struct {
	PGW    *context.PGWContext
	Peers  PeerRegistry
	Policy PolicyClient
	Txns   TxnManager
}

// NewHandler builds a handler on pgw and its peer registry. A nil policy
// accepts every session at once.
func NewHandler(pgw *context.PGWContext, policy PolicyClient, txns TxnManager) *Handler {
	return &Handler{
		PGW:    pgw,
		Peers:  pgw.Peers,
		Policy: policy,
		Txns:   txns,
	}
}

func countMsg(pgwID string, typ gtpmsgtypes.GtpMsgType, direction string, cause uint8) {
	result := "accepted"
	if cause != pgwerrors.CauseRequestAccepted {
		result = "rejected"
	}
	metrics.IncrementS5cMsgStats(pgwID, typ.String(), direction, result, strconv.Itoa(int(cause)))
}

// send stages payload on xact and commits it.
func (h *Handler) send(xact *transaction.Transaction, typ gtpmsgtypes.GtpMsgType, teid uint32, cause uint8,
	payload []byte,
) error {
	if err := xact.Update(message.Header{Type: typ, TEID: teid}, payload); err != nil {
		return err
	}
	countMsg(h.PGW.NfInstanceID, typ, "out", cause)
	return xact.Commit()
}

// sendError answers with a cause-only message of type typ.
func (h *Handler) sendError(xact *transaction.Transaction, typ gtpmsgtypes.GtpMsgType, teid uint32, cause uint8) error {
	logger.GtpLog.Warnf("sending %s teid [0x%x] cause [%s]", typ, teid, pgwerrors.CauseName(cause))
	return h.send(xact, typ, teid, cause, message.BuildErrorMessage(cause))
}

func peerTEID(sess *context.Session) uint32 {
	if sess == nil {
		return 0
	}
	return sess.PeerS5CTEID
}

func arpOf(q *context.BearerQoS) message.ARP {
	return message.ARP{
		PreEmptionCapability:    q.ARP.PreEmptionCapability,
		PriorityLevel:           q.ARP.PriorityLevel,
		PreEmptionVulnerability: q.ARP.PreEmptionVulnerability,
	}
}

// qosOf is the Bearer QoS sent on S5/S8, in the kbps the bearer holds.
func qosOf(q *context.BearerQoS) *message.BearerQoS {
	return &message.BearerQoS{
		QCI:         q.QCI,
		DownlinkMBR: q.MBR.Downlink,
		UplinkMBR:   q.MBR.Uplink,
		DownlinkGBR: q.GBR.Downlink,
		UplinkGBR:   q.GBR.Uplink,
	}
}

// ambrOf is nil when the session was set up without an AMBR.
func ambrOf(sess *context.Session) *message.AMBR {
	if !sess.HasAMBR() {
		return nil
	}
	return &message.AMBR{Downlink: sess.AMBR.Downlink, Uplink: sess.AMBR.Uplink}
}

func bearerQoSFrom(v *ies.BearerQoSValue) context.BearerQoS {
	return context.BearerQoS{
		QCI: v.QCI,
		ARP: context.ARP{
			PriorityLevel:           v.PriorityLevel,
			PreEmptionCapability:    v.PreEmptionCapability,
			PreEmptionVulnerability: v.PreEmptionVulnerability,
		},
		MBR: context.Bitrate{Downlink: v.DownlinkMBR, Uplink: v.UplinkMBR},
		GBR: context.Bitrate{Downlink: v.DownlinkGBR, Uplink: v.UplinkGBR},
	}
}

// setPeerNode points bearer at the peer of fteid, dropping the reference
// it held before.
func (h *Handler) setPeerNode(bearer *context.Bearer, fteid *ies.FTEIDValue) error {
	node, err := h.Peers.FindOrCreate(fteid)
	if err != nil {
		return err
	}
	if bearer.PeerNode != nil {
		h.Peers.Release(bearer.PeerNode)
	}
	bearer.PeerNode = node
	return nil
}
