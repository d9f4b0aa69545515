// SPDX-FileCopyrightText: 2024 Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package handler

import (
	"github.com/pkg/errors"

	"github.com/omec-project/pgwc/context"
	"github.com/omec-project/pgwc/gtp/message"
	"github.com/omec-project/pgwc/logger"
	"github.com/omec-project/pgwc/msgtypes/gtpmsgtypes"
	"github.com/omec-project/pgwc/pgwerrors"
	"github.com/omec-project/pgwc/transaction"
)

// Dispatch routes a decoded message. Create Session Request carries TEID 0;
// everything else addresses the session by its local S5C TEID.
func (h *Handler) Dispatch(xact *transaction.Transaction, hdr *message.Header, msg interface{}) error {
	countMsg(h.PGW.NfInstanceID, hdr.Type, "in", pgwerrors.CauseRequestAccepted)

	h.PGW.Lock()
	defer h.PGW.Unlock()

	if hdr.Type == gtpmsgtypes.CreateSessionRequest {
		req, ok := msg.(*message.CreateSessionRequest)
		if !ok {
			return errors.Wrapf(message.ErrUnexpectedMessage, "%T for %s", msg, hdr.Type)
		}
		if hdr.TEID != 0 {
			logger.GtpLog.Warnf("Create Session Request with TEID [0x%x]", hdr.TEID)
		}
		return h.HandleCreateSessionRequest(xact, req)
	}

	var sess *context.Session
	if hdr.TEID != 0 {
		sess = h.PGW.SessionByTEID(hdr.TEID)
	}
	if sess == nil {
		logger.GtpLog.Warnf("%s: no session for TEID [0x%x]", hdr.Type, hdr.TEID)
	}

	switch m := msg.(type) {
	case *message.DeleteSessionRequest:
		return h.HandleDeleteSessionRequest(sess, xact, m)
	case *message.CreateBearerResponse:
		return h.HandleCreateBearerResponse(sess, xact, m)
	case *message.UpdateBearerResponse:
		return h.HandleUpdateBearerResponse(sess, xact, m)
	case *message.DeleteBearerResponse:
		return h.HandleDeleteBearerResponse(sess, xact, m)
	case *message.BearerResourceCommand:
		return h.HandleBearerResourceCommand(sess, xact, m)
	}
	return errors.Wrapf(message.ErrUnexpectedMessage, "%T for %s", msg, hdr.Type)
}

// HandleMessage decodes payload and dispatches it.
func (h *Handler) HandleMessage(xact *transaction.Transaction, hdr *message.Header, payload []byte) error {
	msg, err := message.Parse(hdr, payload)
	if err != nil {
		logger.GtpLog.Errorf("decode %s: %v", hdr.Type, err)
		return err
	}
	return h.Dispatch(xact, hdr, msg)
}

// HandleExpired reclaims what an unanswered request left behind. A bearer
// the SGW never confirmed is dropped.
func (h *Handler) HandleExpired(e transaction.Expired) {
	h.PGW.Lock()
	defer h.PGW.Unlock()

	bearer, ok := e.Pending.(*context.Bearer)
	if !ok {
		logger.GtpLog.Warnf("txn [%d] %s expired", e.TxnId, e.Request)
		return
	}
	sess := bearer.Session()
	if e.Request == gtpmsgtypes.CreateBearerRequest && h.PGW.BearerByS5UTEID(bearer.LocalS5UTEID) == bearer {
		sess.SubCtxLog.Warnf("Create Bearer Request unanswered, dropping PGW S5U TEID [0x%x]", bearer.LocalS5UTEID)
		h.dropBearer(bearer)
		return
	}
	sess.SubCtxLog.Warnf("%s for EBI [%d] unanswered", e.Request, bearer.EBI)
}
