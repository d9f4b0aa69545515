// SPDX-FileCopyrightText: 2024 Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package tai

import (
	"fmt"

	"github.com/pkg/errors"
)

const PlmnIDLen = 3

// PlmnID holds MCC/MNC digits as BCD nibbles:
//
//	octet 1: mcc2 | mcc1
//	octet 2: mnc1 | mcc3
//	octet 3: mnc3 | mnc2
//
// A 2-digit MNC sets mnc1 to 0xf and keeps its digits in mnc2 and mnc3.
type PlmnID [PlmnIDLen]byte

var ErrInvalidPlmnID = errors.New("invalid PLMN identity")

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func NewPlmnID(mcc, mnc string) (PlmnID, error) {
	var p PlmnID
	if len(mcc) != 3 || !isDigits(mcc) {
		return p, errors.Wrapf(ErrInvalidPlmnID, "mcc %q", mcc)
	}
	if (len(mnc) != 2 && len(mnc) != 3) || !isDigits(mnc) {
		return p, errors.Wrapf(ErrInvalidPlmnID, "mnc %q", mnc)
	}

	d := func(s string, i int) byte { return s[i] - '0' }

	var mnc1, mnc2, mnc3 byte
	if len(mnc) == 2 {
		mnc1, mnc2, mnc3 = 0xf, d(mnc, 0), d(mnc, 1)
	} else {
		mnc1, mnc2, mnc3 = d(mnc, 0), d(mnc, 1), d(mnc, 2)
	}

	p[0] = d(mcc, 1)<<4 | d(mcc, 0)
	p[1] = mnc1<<4 | d(mcc, 2)
	p[2] = mnc3<<4 | mnc2
	return p, nil
}

func (p PlmnID) mnc1() byte { return p[1] >> 4 }

func (p PlmnID) MCC() string {
	return fmt.Sprintf("%d%d%d", p[0]&0x0f, p[0]>>4, p[1]&0x0f)
}

func (p PlmnID) MNC() string {
	if p.mnc1() == 0xf {
		return fmt.Sprintf("%d%d", p[2]&0x0f, p[2]>>4)
	}
	return fmt.Sprintf("%d%d%d", p.mnc1(), p[2]&0x0f, p[2]>>4)
}

func (p PlmnID) String() string {
	return p.MCC() + "-" + p.MNC()
}

// ToNAS returns the PLMN identity in the TS 24.008 10.5.1.13 octet order.
// A 2-digit MNC is passed through, a 3-digit MNC has all its digits moved.
func (p PlmnID) ToNAS() [PlmnIDLen]byte {
	nas := [PlmnIDLen]byte(p)
	if p.mnc1() != 0xf {
		mnc1, mnc2, mnc3 := p.mnc1(), p[2]&0x0f, p[2]>>4
		nas[1] = mnc3<<4 | p[1]&0x0f
		nas[2] = mnc2<<4 | mnc1
	}
	return nas
}

// PlmnIDFromNAS is the inverse of ToNAS.
func PlmnIDFromNAS(nas [PlmnIDLen]byte) PlmnID {
	p := PlmnID(nas)
	if nas[1]>>4 != 0xf {
		mnc1, mnc2, mnc3 := nas[2]&0x0f, nas[2]>>4, nas[1]>>4
		p[1] = mnc1<<4 | nas[1]&0x0f
		p[2] = mnc3<<4 | mnc2
	}
	return p
}
