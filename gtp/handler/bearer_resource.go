// SPDX-FileCopyrightText: 2024 Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package handler

import (
	"github.com/pkg/errors"

	"github.com/omec-project/pgwc/context"
	"github.com/omec-project/pgwc/gtp/ies"
	"github.com/omec-project/pgwc/gtp/message"
	"github.com/omec-project/pgwc/logger"
	"github.com/omec-project/pgwc/msgtypes/gtpmsgtypes"
	"github.com/omec-project/pgwc/pgwerrors"
	"github.com/omec-project/pgwc/tft"
	"github.com/omec-project/pgwc/transaction"
)

// HandleBearerResourceCommand applies a UE requested TFT and QoS change to
// the linked bearer and asks the SGW to update it.
func (h *Handler) HandleBearerResourceCommand(sess *context.Session, xact *transaction.Transaction,
	cmd *message.BearerResourceCommand,
) error {
	logger.GtpLog.Debugf("Bearer Resource Command")

	var bearer *context.Bearer
	var err error
	if sess == nil {
		err = errors.Wrap(pgwerrors.ErrContextNotFound, "no session")
	} else if !cmd.LinkedEBI.Presence {
		err = errors.Wrap(pgwerrors.ErrMandatoryIEMissing, "no Linked EPS Bearer ID")
	} else if lbi, uerr := cmd.LinkedEBI.U8(); uerr != nil {
		err = errors.Wrap(pgwerrors.ErrMandatoryIEMissing, uerr.Error())
	} else if bearer = sess.BearerByEBI(lbi & 0x0f); bearer == nil {
		err = errors.Wrapf(pgwerrors.ErrContextNotFound, "no bearer for Linked EPS Bearer ID %d", lbi)
	}
	if !cmd.ProcedureTransactionID.Presence {
		err = errors.Wrap(pgwerrors.ErrMandatoryIEMissing, "no PTI")
	}
	if !cmd.TrafficAggregateDescription.Presence {
		err = errors.Wrap(pgwerrors.ErrMandatoryIEMissing, "no Traffic Aggregate Description")
	}
	if err != nil {
		logger.GtpLog.Errorf("Bearer Resource Command: %v", err)
		if serr := h.sendError(xact, gtpmsgtypes.BearerResourceFailureIndication, peerTEID(sess),
			pgwerrors.CauseOf(err)); serr != nil {
			logger.GtpLog.Errorf("sending error: %v", serr)
		}
		return err
	}

	pti, _ := cmd.ProcedureTransactionID.U8()
	fail := func(err error) error {
		cause := pgwerrors.CauseOf(err)
		sess.SubCtxLog.Errorf("Bearer Resource Command EBI [%d] PTI [%d]: %v", bearer.EBI, pti, err)
		if serr := h.send(xact, gtpmsgtypes.BearerResourceFailureIndication, sess.PeerS5CTEID, cause,
			message.BuildBearerResourceFailureIndication(cause, bearer.EBI, pti)); serr != nil {
			logger.GtpLog.Errorf("sending failure indication: %v", serr)
		}
		return err
	}

	t, err := tft.Parse(cmd.TrafficAggregateDescription.Data)
	if err != nil {
		return fail(err)
	}

	var flowQoS *ies.FlowQoSValue
	if cmd.FlowQualityOfService.Presence {
		if flowQoS, err = ies.ParseFlowQoS(cmd.FlowQualityOfService.Data); err != nil {
			return fail(errors.Wrap(pgwerrors.ErrMandatoryIEMissing, err.Error()))
		}
	}

	// filters and rates are staged and only land on the bearer once the
	// Update Bearer Request is on its way
	filters := bearer.PacketFilters.Clone()
	tftChanged, err := tft.Reconcile(filters, t)
	if err != nil {
		return fail(err)
	}

	// flow QoS rates are taken as signalled
	q := bearer.QoS
	qosChanged := false
	if flowQoS != nil {
		q.MBR = context.Bitrate{Downlink: flowQoS.DownlinkMBR, Uplink: flowQoS.UplinkMBR}
		q.GBR = context.Bitrate{Downlink: flowQoS.DownlinkGBR, Uplink: flowQoS.UplinkGBR}
		qosChanged = true
	}

	if !tftChanged && !qosChanged {
		return fail(errors.Wrap(pgwerrors.ErrServiceNotSupported, "no modification"))
	}

	bc := &message.BearerContextIE{EBI: bearer.EBI, ARP: arpOf(&q)}
	if tftChanged {
		if bc.TFT, err = t.MarshalBinary(); err != nil {
			return fail(err)
		}
	}
	if qosChanged {
		bc.QoS = qosOf(&q)
	}
	payload, err := message.BuildUpdateBearerRequest(pti, ambrOf(sess), bc)
	if err != nil {
		return fail(err)
	}

	xact.Hold(bearer)
	if err := h.send(xact, gtpmsgtypes.UpdateBearerRequest, sess.PeerS5CTEID, pgwerrors.CauseRequestAccepted,
		payload); err != nil {
		sess.SubCtxLog.Errorf("Update Bearer Request EBI [%d] PTI [%d]: %v", bearer.EBI, pti, err)
		return err
	}
	bearer.PacketFilters = *filters
	bearer.QoS = q

	sess.SubCtxLog.Infof("Update Bearer Request EBI [%d] PTI [%d] tft [%v] qos [%v]",
		bearer.EBI, pti, tftChanged, qosChanged)
	return nil
}
