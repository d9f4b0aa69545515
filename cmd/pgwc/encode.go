// SPDX-FileCopyrightText: 2024 Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/urfave/cli"

	"github.com/omec-project/pgwc/qos"
	"github.com/omec-project/pgwc/tai"
)

var encodeAMBRCommand = cli.Command{
	Name:  "encode-ambr",
	Usage: "print the NAS APN-AMBR for the given rates in kbps",
	Flags: []cli.Flag{
		cli.Uint64Flag{Name: "dl", Usage: "downlink kbps"},
		cli.Uint64Flag{Name: "ul", Usage: "uplink kbps"},
	},
	Action: func(c *cli.Context) error {
		ambr := qos.BuildAPNAMBR(c.Uint64("dl"), c.Uint64("ul"))
		b, err := ambr.MarshalBinary()
		if err != nil {
			return err
		}
		dl, ul := ambr.Kbps()
		fmt.Fprintf(c.App.Writer, "%s\ndownlink %d kbps uplink %d kbps\n", hex.EncodeToString(b), dl, ul)
		return nil
	},
}

var encodeQoSCommand = cli.Command{
	Name:  "encode-qos",
	Usage: "print the NAS EPS QoS for the given QCI and rates in kbps",
	Flags: []cli.Flag{
		cli.UintFlag{Name: "qci", Value: 9},
		cli.Uint64Flag{Name: "dl-mbr"},
		cli.Uint64Flag{Name: "ul-mbr"},
		cli.Uint64Flag{Name: "dl-gbr"},
		cli.Uint64Flag{Name: "ul-gbr"},
	},
	Action: func(c *cli.Context) error {
		qci := c.Uint("qci")
		if qci > 255 {
			return errors.Errorf("QCI %d out of range", qci)
		}
		q := qos.BuildEPSQoS(uint8(qci), c.Uint64("dl-mbr"), c.Uint64("ul-mbr"), c.Uint64("dl-gbr"),
			c.Uint64("ul-gbr"))
		b, err := q.MarshalBinary()
		if err != nil {
			return err
		}
		dlMBR, ulMBR, dlGBR, ulGBR := q.Kbps()
		fmt.Fprintf(c.App.Writer, "%s\nQCI %d MBR %d/%d kbps GBR %d/%d kbps\n", hex.EncodeToString(b), q.QCI,
			dlMBR, ulMBR, dlGBR, ulGBR)
		return nil
	},
}

var encodeTAICommand = cli.Command{
	Name:  "encode-tai",
	Usage: "print the NAS TAI list",
	Flags: []cli.Flag{
		cli.StringSliceFlag{Name: "list", Usage: "MCC-MNC-TAC[,TAC...], one partial list sharing a PLMN"},
		cli.StringSliceFlag{Name: "pair", Usage: "MCC-MNC-TAC, one entry of the PLMN and TAC pair list"},
	},
	Action: func(c *cli.Context) error {
		var list0 []tai.TAI0Entry
		for _, s := range c.StringSlice("list") {
			plmn, tacs, err := parseTAIArg(s)
			if err != nil {
				return err
			}
			list0 = append(list0, tai.TAI0Entry{Type: tai.TAI0, PlmnID: plmn, TACs: tacs})
		}
		list2 := tai.TAI2List{Type: tai.TAI2}
		for _, s := range c.StringSlice("pair") {
			plmn, tacs, err := parseTAIArg(s)
			if err != nil {
				return err
			}
			if len(tacs) != 1 {
				return errors.Errorf("pair %q needs exactly one TAC", s)
			}
			list2.Entries = append(list2.Entries, tai.TAI{PlmnID: plmn, TAC: tacs[0]})
		}

		l, err := tai.BuildTAIList(list0, list2)
		if err != nil {
			return err
		}
		b, err := l.MarshalBinary()
		if err != nil {
			return err
		}
		fmt.Fprintln(c.App.Writer, hex.EncodeToString(b))
		if l.Truncated {
			fmt.Fprintln(c.App.Writer, "truncated")
		}
		return nil
	},
}

// parseTAIArg reads MCC-MNC-TAC[,TAC...], TACs in hex.
func parseTAIArg(s string) (tai.PlmnID, []uint16, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return tai.PlmnID{}, nil, errors.Errorf("%q is not MCC-MNC-TAC", s)
	}
	plmn, err := tai.NewPlmnID(parts[0], parts[1])
	if err != nil {
		return tai.PlmnID{}, nil, err
	}
	var tacs []uint16
	for _, t := range strings.Split(parts[2], ",") {
		v, err := strconv.ParseUint(t, 16, 16)
		if err != nil {
			return tai.PlmnID{}, nil, errors.Wrapf(err, "TAC %q", t)
		}
		tacs = append(tacs, uint16(v))
	}
	return plmn, tacs, nil
}
