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
	"github.com/omec-project/pgwc/metrics"
	"github.com/omec-project/pgwc/msgtypes/gtpmsgtypes"
	"github.com/omec-project/pgwc/pgwerrors"
	"github.com/omec-project/pgwc/transaction"
)

type createSessionIEs struct {
	imsi      string
	apn       string
	ebi       uint8
	senderS5C *ies.FTEIDValue
	sgwS5U    *ies.FTEIDValue
	qos       *ies.BearerQoSValue
	ambr      *ies.AMBRValue
	uli       *ies.ULIValue
}

// checkCreateSession collects every missing mandatory IE before giving up,
// so all of them get logged.
func checkCreateSession(req *message.CreateSessionRequest) (*createSessionIEs, error) {
	var missing []string
	bc := &req.BearerContextsToBeCreated

	if !req.IMSI.Presence {
		missing = append(missing, "IMSI")
	}
	if !req.APN.Presence {
		missing = append(missing, "APN")
	}
	if !req.SenderFTEIDForControlPlane.Presence {
		missing = append(missing, "Sender F-TEID for control plane")
	}
	if !bc.Presence {
		missing = append(missing, "Bearer Context to be created")
	} else {
		if !bc.EBI.Presence {
			missing = append(missing, "EPS Bearer ID")
		}
		if !bc.BearerLevelQoS.Presence {
			missing = append(missing, "Bearer QoS")
		}
		if !bc.S5S8USGWFTEID.Presence {
			missing = append(missing, "S5/S8-U SGW F-TEID")
		}
	}
	if !req.UserLocationInformation.Presence {
		missing = append(missing, "User Location Information")
	}
	if len(missing) > 0 {
		return nil, errors.Wrapf(pgwerrors.ErrMandatoryIEMissing, "%v", missing)
	}

	v := &createSessionIEs{}
	var err error
	if v.imsi, err = ies.ParseIMSI(req.IMSI.Data); err != nil {
		return nil, errors.Wrapf(pgwerrors.ErrMandatoryIEMissing, "IMSI: %v", err)
	}
	if v.apn, err = ies.ParseAPN(req.APN.Data); err != nil {
		return nil, errors.Wrapf(pgwerrors.ErrMandatoryIEMissing, "APN: %v", err)
	}
	if v.ebi, err = bc.EBI.U8(); err != nil {
		return nil, errors.Wrapf(pgwerrors.ErrMandatoryIEMissing, "EPS Bearer ID: %v", err)
	}
	v.ebi &= 0x0f
	if v.senderS5C, err = ies.ParseFTEID(req.SenderFTEIDForControlPlane.Data); err != nil {
		return nil, errors.Wrapf(pgwerrors.ErrMandatoryIEMissing, "Sender F-TEID: %v", err)
	}
	if v.sgwS5U, err = ies.ParseFTEID(bc.S5S8USGWFTEID.Data); err != nil {
		return nil, errors.Wrapf(pgwerrors.ErrMandatoryIEMissing, "S5/S8-U SGW F-TEID: %v", err)
	}
	if v.qos, err = ies.ParseBearerQoS(bc.BearerLevelQoS.Data); err != nil {
		return nil, errors.Wrapf(pgwerrors.ErrMandatoryIEMissing, "Bearer QoS: %v", err)
	}
	if v.uli, err = ies.ParseULI(req.UserLocationInformation.Data); err != nil {
		return nil, errors.Wrapf(pgwerrors.ErrMandatoryIEMissing, "ULI: %v", err)
	}
	if req.AggregateMaximumBitRate.Presence {
		if v.ambr, err = ies.ParseAMBR(req.AggregateMaximumBitRate.Data); err != nil {
			logger.GtpLog.Warnf("ignoring AMBR: %v", err)
		}
	}
	return v, nil
}

// HandleCreateSessionRequest creates the PDN session and its default
// bearer, then hands it to the policy stage.
func (h *Handler) HandleCreateSessionRequest(xact *transaction.Transaction, req *message.CreateSessionRequest) error {
	logger.GtpLog.Debugf("Create Session Request")

	v, err := checkCreateSession(req)
	if err != nil {
		logger.GtpLog.Errorf("Create Session Request: %v", err)
		var teid uint32
		if f, ferr := ies.ParseFTEID(req.SenderFTEIDForControlPlane.Data); ferr == nil {
			teid = f.TEID
		}
		if serr := h.sendError(xact, gtpmsgtypes.CreateSessionResponse, teid, pgwerrors.CauseOf(err)); serr != nil {
			logger.GtpLog.Errorf("sending error: %v", serr)
		}
		return err
	}

	if old := h.PGW.SessionByIMSIAPN(v.imsi, v.apn); old != nil {
		old.SubCtxLog.Warnf("session replaced by a new Create Session Request")
		h.releaseSession(old)
	}

	sess, err := h.PGW.NewSession(v.imsi, v.apn, v.ebi)
	if err != nil {
		logger.GtpLog.Errorf("Create Session Request imsi [%s] apn [%s]: %v", v.imsi, v.apn, err)
		if serr := h.sendError(xact, gtpmsgtypes.CreateSessionResponse, v.senderS5C.TEID,
			pgwerrors.CauseContextNotFound); serr != nil {
			logger.GtpLog.Errorf("sending error: %v", serr)
		}
		return errors.Wrap(pgwerrors.ErrContextNotFound, err.Error())
	}

	sess.PeerS5CTEID = v.senderS5C.TEID
	sess.PeerS5CAddr = v.senderS5C.Addr()
	if v.ambr != nil {
		sess.SetAMBR(uint64(v.ambr.Downlink), uint64(v.ambr.Uplink))
	}
	sess.SetLocation(v.uli)

	bearer := sess.DefaultBearer()
	bearer.PeerS5UTEID = v.sgwS5U.TEID
	bearer.QoS = bearerQoSFrom(v.qos)
	if err := h.setPeerNode(bearer, v.sgwS5U); err != nil {
		h.PGW.RemoveSession(sess)
		if serr := h.sendError(xact, gtpmsgtypes.CreateSessionResponse, v.senderS5C.TEID,
			pgwerrors.CauseSystemFailure); serr != nil {
			logger.GtpLog.Errorf("sending error: %v", serr)
		}
		return errors.Wrap(err, "S5/S8-U peer")
	}

	sess.SubCtxLog.Infof("SGW S5C TEID [0x%x] PGW S5C TEID [0x%x] SGW S5U TEID [0x%x] PGW S5U TEID [0x%x]",
		sess.PeerS5CTEID, sess.LocalS5CTEID, bearer.PeerS5UTEID, bearer.LocalS5UTEID)

	if h.Policy == nil {
		return h.sendCreateSessionResponse(sess, xact)
	}
	return h.Policy.EstablishSession(sess, xact)
}

// SendCreateSessionResponse accepts the session once policy is in place.
func (h *Handler) SendCreateSessionResponse(sess *context.Session, xact *transaction.Transaction) error {
	h.PGW.Lock()
	defer h.PGW.Unlock()
	return h.sendCreateSessionResponse(sess, xact)
}

func (h *Handler) sendCreateSessionResponse(sess *context.Session, xact *transaction.Transaction) error {
	if sess == nil {
		return errors.Wrap(pgwerrors.ErrContextNotFound, "Create Session Response")
	}
	bearer := sess.DefaultBearer()

	payload, err := message.BuildCreateSessionResponse(pgwerrors.CauseRequestAccepted, h.PGW.S5CFTEID(sess),
		ambrOf(sess), &message.BearerContextIE{
			EBI:   bearer.EBI,
			Cause: pgwerrors.CauseRequestAccepted,
			FTEID: h.PGW.S5UFTEID(bearer),
			ARP:   arpOf(&bearer.QoS),
			QoS:   qosOf(&bearer.QoS),
		})
	if err != nil {
		return errors.Wrap(err, "build Create Session Response")
	}
	if err := h.send(xact, gtpmsgtypes.CreateSessionResponse, sess.PeerS5CTEID,
		pgwerrors.CauseRequestAccepted, payload); err != nil {
		return err
	}

	publishSession(sess, metrics.SessionOpCreate)
	return nil
}

// HandleDeleteSessionRequest starts the teardown of sess.
func (h *Handler) HandleDeleteSessionRequest(sess *context.Session, xact *transaction.Transaction,
	req *message.DeleteSessionRequest,
) error {
	logger.GtpLog.Debugf("Delete Session Request")

	if sess == nil {
		logger.GtpLog.Errorf("Delete Session Request: no session")
		if serr := h.sendError(xact, gtpmsgtypes.DeleteSessionResponse, 0,
			pgwerrors.CauseContextNotFound); serr != nil {
			logger.GtpLog.Errorf("sending error: %v", serr)
		}
		return errors.Wrap(pgwerrors.ErrContextNotFound, "Delete Session Request")
	}
	if req != nil && req.UserLocationInformation.Presence {
		if uli, err := ies.ParseULI(req.UserLocationInformation.Data); err == nil {
			sess.SetLocation(uli)
		}
	}

	if h.Policy == nil {
		return h.sendDeleteSessionResponse(sess, xact)
	}
	return h.Policy.TerminateSession(sess, xact)
}

// SendDeleteSessionResponse answers the delete and releases the session.
func (h *Handler) SendDeleteSessionResponse(sess *context.Session, xact *transaction.Transaction) error {
	h.PGW.Lock()
	defer h.PGW.Unlock()
	return h.sendDeleteSessionResponse(sess, xact)
}

func (h *Handler) sendDeleteSessionResponse(sess *context.Session, xact *transaction.Transaction) error {
	if sess == nil {
		return errors.Wrap(pgwerrors.ErrContextNotFound, "Delete Session Response")
	}
	teid := sess.PeerS5CTEID
	h.releaseSession(sess)
	return h.send(xact, gtpmsgtypes.DeleteSessionResponse, teid, pgwerrors.CauseRequestAccepted,
		message.BuildDeleteSessionResponse(pgwerrors.CauseRequestAccepted))
}

func (h *Handler) releaseSession(sess *context.Session) {
	bearers := len(sess.Bearers())
	h.PGW.RemoveSession(sess)
	evt := sessionEvent(sess, metrics.SessionOpDelete)
	evt.Bearers = bearers
	if err := metrics.PublishSessionEvent(evt); err != nil {
		sess.SubCtxLog.Warnf("session event: %v", err)
	}
}

func sessionEvent(sess *context.Session, op metrics.SessionOp) metrics.SessionEvent {
	return metrics.SessionEvent{
		Operation: op,
		Ref:       sess.Ref,
		Imsi:      sess.IMSI,
		Apn:       sess.APN,
		LocalTeid: sess.LocalS5CTEID,
		PeerTeid:  sess.PeerS5CTEID,
		Bearers:   len(sess.Bearers()),
	}
}

func publishSession(sess *context.Session, op metrics.SessionOp) {
	if err := metrics.PublishSessionEvent(sessionEvent(sess, op)); err != nil {
		sess.SubCtxLog.Warnf("session event: %v", err)
	}
}
