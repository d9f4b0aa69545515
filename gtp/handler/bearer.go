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

// CreateDedicatedBearer allocates a bearer and asks the SGW to set it up.
// The new transaction owns the bearer until the response arrives.
func (h *Handler) CreateDedicatedBearer(sess *context.Session, q context.BearerQoS, t *tft.TrafficFlowTemplate,
) (*context.Bearer, *transaction.Transaction, error) {
	h.PGW.Lock()
	defer h.PGW.Unlock()

	if sess == nil {
		return nil, nil, errors.Wrap(pgwerrors.ErrContextNotFound, "create dedicated bearer")
	}

	bearer, err := h.PGW.AddBearer(sess)
	if err != nil {
		return nil, nil, errors.Wrap(pgwerrors.ErrNoResourcesAvailable, err.Error())
	}
	bearer.QoS = q

	var tftBytes []byte
	if t != nil {
		// the filters of a new TFT populate the bearer like an add
		add := *t
		add.Operation = tft.OpAddPacketFilters
		if _, err := tft.Reconcile(&bearer.PacketFilters, &add); err != nil {
			h.dropBearer(bearer)
			return nil, nil, err
		}
		if tftBytes, err = t.MarshalBinary(); err != nil {
			h.dropBearer(bearer)
			return nil, nil, err
		}
	}

	payload, err := message.BuildCreateBearerRequest(sess.DefaultBearer().EBI, 0, &message.BearerContextIE{
		FTEID: h.PGW.S5UFTEID(bearer),
		ARP:   arpOf(&q),
		QoS:   qosOf(&q),
		TFT:   tftBytes,
	})
	if err != nil {
		h.dropBearer(bearer)
		return nil, nil, errors.Wrap(err, "build Create Bearer Request")
	}

	xact, err := h.Txns.Open(message.Header{Type: gtpmsgtypes.CreateBearerRequest, TEID: sess.PeerS5CTEID},
		payload, bearer)
	if err != nil {
		h.dropBearer(bearer)
		return nil, nil, err
	}
	countMsg(h.PGW.NfInstanceID, gtpmsgtypes.CreateBearerRequest, "out", pgwerrors.CauseRequestAccepted)
	sess.SubCtxLog.Infof("Create Bearer Request, PGW S5U TEID [0x%x]", bearer.LocalS5UTEID)
	return bearer, xact, nil
}

func (h *Handler) dropBearer(bearer *context.Bearer) {
	if err := h.PGW.RemoveBearer(bearer); err != nil {
		logger.CtxLog.Errorf("drop bearer: %v", err)
	}
}

// DeleteDedicatedBearer asks the SGW to release bearer; the bearer is
// removed when the response comes back.
func (h *Handler) DeleteDedicatedBearer(sess *context.Session, bearer *context.Bearer) (*transaction.Transaction, error) {
	h.PGW.Lock()
	defer h.PGW.Unlock()

	if sess == nil || bearer == nil || bearer.Session() != sess {
		return nil, errors.Wrap(pgwerrors.ErrContextNotFound, "delete dedicated bearer")
	}
	if bearer.IsDefault() {
		return nil, errors.Wrapf(pgwerrors.ErrDefaultBearerNotRemovable, "EBI %d", bearer.EBI)
	}

	xact, err := h.Txns.Open(message.Header{Type: gtpmsgtypes.DeleteBearerRequest, TEID: sess.PeerS5CTEID},
		message.BuildDeleteBearerRequest(0, bearer.EBI), bearer)
	if err != nil {
		return nil, err
	}
	countMsg(h.PGW.NfInstanceID, gtpmsgtypes.DeleteBearerRequest, "out", pgwerrors.CauseRequestAccepted)
	sess.SubCtxLog.Infof("Delete Bearer Request, EBI [%d]", bearer.EBI)
	return xact, nil
}

// claim takes the pending bearer off xact. It fails once the transaction
// has expired or was opened for another bearer.
func claim(xact *transaction.Transaction, bearer *context.Bearer) error {
	p, ok := xact.Consume()
	if !ok {
		return errors.Wrapf(pgwerrors.ErrContextNotFound, "txn %d holds no bearer", xact.TxnId)
	}
	if p != bearer {
		return errors.Wrapf(pgwerrors.ErrContextNotFound, "txn %d holds another bearer", xact.TxnId)
	}
	return nil
}

func rejected(cause ies.TLV) (uint8, bool) {
	if !cause.Presence {
		return 0, false
	}
	c, err := ies.ParseCause(cause.Data)
	if err != nil {
		return 0, false
	}
	// 16..63 are acceptance causes
	return c.Value, c.Value < 16 || c.Value > 63
}

// HandleCreateBearerResponse completes a dedicated bearer with the
// identity and tunnel the SGW assigned.
func (h *Handler) HandleCreateBearerResponse(sess *context.Session, xact *transaction.Transaction,
	rsp *message.CreateBearerResponse,
) error {
	logger.GtpLog.Debugf("Create Bearer Response")
	if sess == nil {
		return errors.Wrap(pgwerrors.ErrContextNotFound, "Create Bearer Response")
	}

	bc := &rsp.BearerContexts
	var missing []string
	if !bc.Presence {
		missing = append(missing, "Bearer Context")
	} else {
		if !bc.EBI.Presence {
			missing = append(missing, "EPS Bearer ID")
		}
		if !bc.S5S8UPGWFTEID.Presence {
			missing = append(missing, "S5/S8-U PGW F-TEID")
		}
		if !bc.S5S8USGWFTEID.Presence {
			missing = append(missing, "S5/S8-U SGW F-TEID")
		}
	}
	if len(missing) > 0 {
		err := errors.Wrapf(pgwerrors.ErrMandatoryIEMissing, "Create Bearer Response %v", missing)
		sess.SubCtxLog.Error(err)
		return err
	}

	pgwS5U, err := ies.ParseFTEID(bc.S5S8UPGWFTEID.Data)
	if err != nil {
		return errors.Wrap(pgwerrors.ErrMandatoryIEMissing, err.Error())
	}
	sgwS5U, err := ies.ParseFTEID(bc.S5S8USGWFTEID.Data)
	if err != nil {
		return errors.Wrap(pgwerrors.ErrMandatoryIEMissing, err.Error())
	}
	ebi, err := bc.EBI.U8()
	if err != nil {
		return errors.Wrap(pgwerrors.ErrMandatoryIEMissing, err.Error())
	}

	bearer := h.PGW.BearerByS5UTEID(pgwS5U.TEID)
	if bearer == nil || bearer.Session() != sess {
		return errors.Wrapf(pgwerrors.ErrContextNotFound, "no bearer for PGW S5U TEID 0x%x", pgwS5U.TEID)
	}
	if err := claim(xact, bearer); err != nil {
		sess.SubCtxLog.Errorf("Create Bearer Response: %v", err)
		return err
	}

	if cause, ok := rejected(rsp.Cause); ok {
		sess.SubCtxLog.Warnf("Create Bearer rejected, cause [%s]", pgwerrors.CauseName(cause))
		h.dropBearer(bearer)
		return xact.Commit()
	}

	ebi &= 0x0f
	if other := sess.BearerByEBI(ebi); other != nil && other != bearer {
		sess.SubCtxLog.Errorf("Create Bearer Response EBI [%d] already in use, dropping PGW S5U TEID [0x%x]",
			ebi, bearer.LocalS5UTEID)
		h.dropBearer(bearer)
		if err := xact.Commit(); err != nil {
			return err
		}
		return errors.Wrapf(pgwerrors.ErrNoResourcesAvailable, "EBI %d already in use", ebi)
	}

	bearer.EBI = ebi
	bearer.PeerS5UTEID = sgwS5U.TEID
	if err := h.setPeerNode(bearer, sgwS5U); err != nil {
		return errors.Wrap(err, "S5/S8-U peer")
	}

	sess.SubCtxLog.Infof("bearer EBI [%d] SGW S5U TEID [0x%x] PGW S5U TEID [0x%x]",
		bearer.EBI, bearer.PeerS5UTEID, bearer.LocalS5UTEID)
	return xact.Commit()
}

func checkBearerContext(bc *message.BearerContext) error {
	var missing []string
	if !bc.Presence {
		missing = append(missing, "Bearer Context")
	} else if !bc.EBI.Presence {
		missing = append(missing, "EPS Bearer ID")
	}
	if len(missing) > 0 {
		return errors.Wrapf(pgwerrors.ErrMandatoryIEMissing, "%v", missing)
	}
	return nil
}

func (h *Handler) bearerOf(sess *context.Session, bc *message.BearerContext) (*context.Bearer, error) {
	ebi, err := bc.EBI.U8()
	if err != nil {
		return nil, errors.Wrap(pgwerrors.ErrMandatoryIEMissing, err.Error())
	}
	bearer := sess.BearerByEBI(ebi & 0x0f)
	if bearer == nil {
		return nil, errors.Wrapf(pgwerrors.ErrContextNotFound, "no bearer for EBI %d", ebi)
	}
	return bearer, nil
}

func (h *Handler) HandleUpdateBearerResponse(sess *context.Session, xact *transaction.Transaction,
	rsp *message.UpdateBearerResponse,
) error {
	logger.GtpLog.Debugf("Update Bearer Response")
	if sess == nil {
		return errors.Wrap(pgwerrors.ErrContextNotFound, "Update Bearer Response")
	}
	if err := checkBearerContext(&rsp.BearerContexts); err != nil {
		sess.SubCtxLog.Errorf("Update Bearer Response: %v", err)
		return err
	}
	bearer, err := h.bearerOf(sess, &rsp.BearerContexts)
	if err != nil {
		return err
	}
	if err := claim(xact, bearer); err != nil {
		sess.SubCtxLog.Errorf("Update Bearer Response: %v", err)
		return err
	}

	if cause, ok := rejected(rsp.Cause); ok {
		sess.SubCtxLog.Warnf("Update Bearer EBI [%d] rejected, cause [%s]", bearer.EBI, pgwerrors.CauseName(cause))
	} else {
		sess.SubCtxLog.Infof("bearer EBI [%d] updated", bearer.EBI)
	}
	return xact.Commit()
}

func (h *Handler) HandleDeleteBearerResponse(sess *context.Session, xact *transaction.Transaction,
	rsp *message.DeleteBearerResponse,
) error {
	logger.GtpLog.Debugf("Delete Bearer Response")
	if sess == nil {
		return errors.Wrap(pgwerrors.ErrContextNotFound, "Delete Bearer Response")
	}
	if err := checkBearerContext(&rsp.BearerContexts); err != nil {
		sess.SubCtxLog.Errorf("Delete Bearer Response: %v", err)
		return err
	}
	bearer, err := h.bearerOf(sess, &rsp.BearerContexts)
	if err != nil {
		return err
	}
	if err := claim(xact, bearer); err != nil {
		sess.SubCtxLog.Errorf("Delete Bearer Response: %v", err)
		return err
	}

	if err := xact.Commit(); err != nil {
		return err
	}
	return h.PGW.RemoveBearer(bearer)
}
