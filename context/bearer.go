// SPDX-FileCopyrightText: 2024 Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package context

import "github.com/omec-project/pgwc/tft"

type ARP struct {
	PriorityLevel           uint8 `json:"priorityLevel"`
	PreEmptionCapability    bool  `json:"preEmptionCapability"`
	PreEmptionVulnerability bool  `json:"preEmptionVulnerability"`
}

type BearerQoS struct {
	QCI uint8   `json:"qci"`
	ARP ARP     `json:"arp"`
	MBR Bitrate `json:"mbr"`
	GBR Bitrate `json:"gbr"`
}

type Bearer struct {
	EBI          uint8     `json:"ebi"`
	LocalS5UTEID uint32    `json:"localS5uTeid"`
	PeerS5UTEID  uint32    `json:"peerS5uTeid"`
	PeerNode     *PeerNode `json:"-"`
	QoS          BearerQoS `json:"qos"`

	PacketFilters tft.PacketFilterList `json:"-"`

	sess *Session
}

func (b *Bearer) Session() *Session {
	return b.sess
}

func (b *Bearer) IsDefault() bool {
	return b.sess != nil && b.sess.DefaultBearer() == b
}
