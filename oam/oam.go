// SPDX-FileCopyrightText: 2024 Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package oam

import (
	"fmt"
	"net/http"

	"github.com/omec-project/http_wrapper"

	"github.com/omec-project/pgwc/context"
	"github.com/omec-project/pgwc/logger"
	"github.com/omec-project/pgwc/tft"
)

// pgwSelf is replaced in tests.
var pgwSelf = context.PGW_Self

type ProblemDetails struct {
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

type PacketFilterInfo struct {
	ID              uint8  `json:"id"`
	Precedence      uint8  `json:"precedence"`
	Direction       string `json:"direction"`
	FlowDescription string `json:"flowDescription"`
}

type BearerInfo struct {
	EBI           uint8              `json:"ebi"`
	Default       bool               `json:"default"`
	LocalS5UTEID  uint32             `json:"localS5uTeid"`
	PeerS5UTEID   uint32             `json:"peerS5uTeid"`
	PeerNode      string             `json:"peerNode,omitempty"`
	QoS           context.BearerQoS  `json:"qos"`
	PacketFilters []PacketFilterInfo `json:"packetFilters,omitempty"`
}

type SessionInfo struct {
	Ref          string          `json:"ref"`
	IMSI         string          `json:"imsi"`
	APN          string          `json:"apn"`
	LocalS5CTEID uint32          `json:"localS5cTeid"`
	PeerS5CTEID  uint32          `json:"peerS5cTeid"`
	PeerS5CAddr  string          `json:"peerS5cAddr,omitempty"`
	AMBR         context.Bitrate `json:"ambr"`
	// SignalledAMBR is the AMBR after quantization to the NAS encoding
	SignalledAMBR *context.Bitrate `json:"signalledAmbr,omitempty"`
	TAI           string           `json:"tai,omitempty"`
	ECGI          string           `json:"ecgi,omitempty"`
	Bearers       []BearerInfo     `json:"bearers"`
}

type PeerNodeInfo struct {
	Addr     string `json:"addr"`
	RefCount int    `json:"refCount"`
}

func directionName(d tft.Direction) string {
	switch d {
	case tft.DirectionDownlink:
		return "downlink"
	case tft.DirectionUplink:
		return "uplink"
	case tft.DirectionBidirectional:
		return "bidirectional"
	default:
		return "pre-rel7"
	}
}

func packetFilterInfo(pf *tft.PacketFilter) PacketFilterInfo {
	info := PacketFilterInfo{ID: pf.ID, Precedence: pf.Precedence, Direction: directionName(pf.Direction)}
	fd, err := pf.Rule.FlowDescription()
	if err != nil {
		logger.OamLog.Warnf("packet filter %d: %v", pf.ID, err)
		fd = pf.Rule.String()
	}
	info.FlowDescription = fd
	return info
}

func sessionInfo(sess *context.Session) SessionInfo {
	info := SessionInfo{
		Ref:          sess.Ref,
		IMSI:         sess.IMSI,
		APN:          sess.APN,
		LocalS5CTEID: sess.LocalS5CTEID,
		PeerS5CTEID:  sess.PeerS5CTEID,
		PeerS5CAddr:  sess.PeerS5CAddr,
		AMBR:         sess.AMBR,
		Bearers:      []BearerInfo{},
	}
	if sess.EncodedAMBR != nil {
		dl, ul := sess.EncodedAMBR.Kbps()
		info.SignalledAMBR = &context.Bitrate{Downlink: dl, Uplink: ul}
	}
	if sess.TAI != nil {
		info.TAI = fmt.Sprintf("%s-%04x", sess.TAI.PlmnID, sess.TAI.TAC)
	}
	if sess.ECGI != nil {
		info.ECGI = fmt.Sprintf("%s-%07x", sess.ECGI.PlmnID, sess.ECGI.CellID)
	}

	for _, bearer := range sess.Bearers() {
		b := BearerInfo{
			EBI:          bearer.EBI,
			Default:      bearer.IsDefault(),
			LocalS5UTEID: bearer.LocalS5UTEID,
			PeerS5UTEID:  bearer.PeerS5UTEID,
			QoS:          bearer.QoS,
		}
		if bearer.PeerNode != nil {
			b.PeerNode = bearer.PeerNode.Addr
		}
		for _, pf := range bearer.PacketFilters.All() {
			b.PacketFilters = append(b.PacketFilters, packetFilterInfo(pf))
		}
		info.Bearers = append(info.Bearers, b)
	}
	return info
}

func HandleOAMGetSessions() *http_wrapper.Response {
	logger.OamLog.Infof("OAM get sessions")
	pgw := pgwSelf()
	pgw.RLock()
	list := []SessionInfo{}
	for _, sess := range pgw.Sessions() {
		list = append(list, sessionInfo(sess))
	}
	pgw.RUnlock()
	return http_wrapper.NewResponse(http.StatusOK, nil, list)
}

func HandleOAMGetSessionsByIMSI(imsi string) *http_wrapper.Response {
	logger.OamLog.Infof("OAM get sessions of IMSI [%s]", imsi)
	pgw := pgwSelf()
	pgw.RLock()
	defer pgw.RUnlock()

	sessions := pgw.SessionsByIMSI(imsi)
	if len(sessions) == 0 {
		return http_wrapper.NewResponse(http.StatusNotFound, nil, ProblemDetails{
			Title:  "CONTEXT_NOT_FOUND",
			Status: http.StatusNotFound,
			Detail: fmt.Sprintf("no session for IMSI %s", imsi),
		})
	}
	list := make([]SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		list = append(list, sessionInfo(sess))
	}
	return http_wrapper.NewResponse(http.StatusOK, nil, list)
}

// HandleOAMReleaseSession drops the local state of a session without
// signalling the SGW.
func HandleOAMReleaseSession(imsi, apn string) *http_wrapper.Response {
	pgw := pgwSelf()
	pgw.Lock()
	defer pgw.Unlock()

	sess := pgw.SessionByIMSIAPN(imsi, apn)
	if sess == nil {
		return http_wrapper.NewResponse(http.StatusNotFound, nil, ProblemDetails{
			Title:  "CONTEXT_NOT_FOUND",
			Status: http.StatusNotFound,
			Detail: fmt.Sprintf("no session for IMSI %s APN %s", imsi, apn),
		})
	}
	sess.SubCtxLog.Warnf("session released by OAM")
	pgw.RemoveSession(sess)
	return http_wrapper.NewResponse(http.StatusNoContent, nil, nil)
}

func HandleOAMGetPeerNodes() *http_wrapper.Response {
	list := []PeerNodeInfo{}
	for _, node := range pgwSelf().Peers.Nodes() {
		list = append(list, PeerNodeInfo{Addr: node.Addr, RefCount: node.RefCount()})
	}
	return http_wrapper.NewResponse(http.StatusOK, nil, list)
}
