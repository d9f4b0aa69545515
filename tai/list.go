// SPDX-FileCopyrightText: 2024 Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package tai

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/omec-project/pgwc/logger"
)

// Type of list, TS 24.301 9.9.3.33
const (
	// TAI0 is a list of TACs belonging to one PLMN, non-consecutive
	TAI0 uint8 = 0
	// TAI1 is a list of consecutive TACs belonging to one PLMN
	TAI1 uint8 = 1
	// TAI2 is a list of TAIs belonging to different PLMNs
	TAI2 uint8 = 2
)

const (
	MaxNumOfTAI   = 16
	MaxTAIListLen = 96
)

var (
	ErrInvalidTAIType  = errors.New("invalid TAI list type")
	ErrInvalidTAICount = errors.New("invalid TAI count")
)

type TAI struct {
	PlmnID PlmnID
	TAC    uint16
}

// TAI0Entry is one partial list of TACs sharing a PLMN.
type TAI0Entry struct {
	Type   uint8
	PlmnID PlmnID
	TACs   []uint16
}

// TAI2List is a partial list of PLMN and TAC pairs.
type TAI2List struct {
	Type    uint8
	Entries []TAI
}

type TrackingAreaIdentityList struct {
	Buffer []byte
	Length uint8
	// Truncated is set when partial lists were dropped to stay within
	// MaxTAIListLen.
	Truncated bool
}

func checkCount(n int) error {
	if n < 1 || n >= MaxNumOfTAI {
		return errors.Wrapf(ErrInvalidTAICount, "%d entries", n)
	}
	return nil
}

func (l *TrackingAreaIdentityList) fits(size int) bool {
	if int(l.Length)+size > MaxTAIListLen {
		logger.NasLog.Warnf("overflow: ignore remaining TAI list (length:%d, size:%d)", l.Length, size)
		l.Truncated = true
		return false
	}
	return true
}

func (l *TrackingAreaIdentityList) append(segment []byte) {
	l.Buffer = append(l.Buffer, segment...)
	l.Length += uint8(len(segment))
}

// BuildTAIList packs the TAI0 partial lists followed by the heterogeneous
// list. Partial lists that would exceed MaxTAIListLen are left out together
// with everything after them, and the result is flagged Truncated.
func BuildTAIList(list0 []TAI0Entry, list2 TAI2List) (TrackingAreaIdentityList, error) {
	var l TrackingAreaIdentityList

	for i, e := range list0 {
		if e.Type != TAI0 {
			return TrackingAreaIdentityList{}, errors.Wrapf(ErrInvalidTAIType, "partial list %d type %d", i, e.Type)
		}
		if err := checkCount(len(e.TACs)); err != nil {
			return TrackingAreaIdentityList{}, errors.Wrapf(err, "partial list %d", i)
		}

		size := 1 + PlmnIDLen + 2*len(e.TACs)
		if !l.fits(size) {
			return l, nil
		}

		segment := make([]byte, 0, size)
		segment = append(segment, e.Type<<5|uint8(len(e.TACs)-1))
		nas := e.PlmnID.ToNAS()
		segment = append(segment, nas[:]...)
		for _, tac := range e.TACs {
			segment = binary.BigEndian.AppendUint16(segment, tac)
		}
		l.append(segment)
	}

	if len(list2.Entries) == 0 {
		return l, nil
	}
	if list2.Type != TAI1 && list2.Type != TAI2 {
		return TrackingAreaIdentityList{}, errors.Wrapf(ErrInvalidTAIType, "type %d", list2.Type)
	}
	if err := checkCount(len(list2.Entries)); err != nil {
		return TrackingAreaIdentityList{}, err
	}

	size := 1 + (PlmnIDLen+2)*len(list2.Entries)
	if !l.fits(size) {
		return l, nil
	}

	segment := make([]byte, 0, size)
	segment = append(segment, list2.Type<<5|uint8(len(list2.Entries)-1))
	for _, t := range list2.Entries {
		nas := t.PlmnID.ToNAS()
		segment = append(segment, nas[:]...)
		segment = binary.BigEndian.AppendUint16(segment, t.TAC)
	}
	l.append(segment)

	return l, nil
}

func (l TrackingAreaIdentityList) MarshalBinary() ([]byte, error) {
	b := make([]byte, 0, 1+len(l.Buffer))
	b = append(b, l.Length)
	return append(b, l.Buffer...), nil
}

// UnmarshalBinary splits a TAI list into its TAIs, whatever the partial
// list types. TAI1 lists are expanded into consecutive TACs.
func UnmarshalBinary(b []byte) ([]TAI, error) {
	if len(b) < 1 || int(b[0]) > len(b)-1 {
		return nil, errors.Wrap(ErrInvalidTAICount, "short TAI list")
	}
	buf := b[1 : 1+int(b[0])]

	var tais []TAI
	for len(buf) > 0 {
		typ, n := buf[0]>>5&0x03, int(buf[0]&0x1f)+1
		buf = buf[1:]

		switch typ {
		case TAI0, TAI1:
			size := PlmnIDLen + 2*n
			if typ == TAI1 {
				size = PlmnIDLen + 2
			}
			if len(buf) < size {
				return nil, errors.Wrapf(ErrInvalidTAICount, "partial list type %d needs %d octets", typ, size)
			}
			plmn := PlmnIDFromNAS([PlmnIDLen]byte(buf[:PlmnIDLen]))
			first := binary.BigEndian.Uint16(buf[PlmnIDLen:])
			for i := 0; i < n; i++ {
				tac := first + uint16(i)
				if typ == TAI0 {
					tac = binary.BigEndian.Uint16(buf[PlmnIDLen+2*i:])
				}
				tais = append(tais, TAI{PlmnID: plmn, TAC: tac})
			}
			buf = buf[size:]
		case TAI2:
			size := (PlmnIDLen + 2) * n
			if len(buf) < size {
				return nil, errors.Wrapf(ErrInvalidTAICount, "partial list type %d needs %d octets", typ, size)
			}
			for i := 0; i < n; i++ {
				e := buf[(PlmnIDLen+2)*i:]
				tais = append(tais, TAI{
					PlmnID: PlmnIDFromNAS([PlmnIDLen]byte(e[:PlmnIDLen])),
					TAC:    binary.BigEndian.Uint16(e[PlmnIDLen:]),
				})
			}
			buf = buf[size:]
		default:
			return nil, errors.Wrapf(ErrInvalidTAIType, "type %d", typ)
		}
	}
	return tais, nil
}
