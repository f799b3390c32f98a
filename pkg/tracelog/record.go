/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package tracelog

import (
	"math"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/hyperledger-labs/queuesim/pkg/mm1"
)

// Field numbers of an encoded customer.  Times are stored as the raw bits of
// the float64 so that a decoded customer is identical to the recorded one.
const (
	fieldID             protowire.Number = 1
	fieldArrival        protowire.Number = 2
	fieldQueueOnArrival protowire.Number = 3
	fieldServiceBegin   protowire.Number = 4
	fieldServiceEnd     protowire.Number = 5
)

func appendFloat(b []byte, num protowire.Number, v float64) []byte {
	b = protowire.AppendTag(b, num, protowire.Fixed64Type)
	return protowire.AppendFixed64(b, math.Float64bits(v))
}

func appendUint(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

// MarshalCustomer encodes a served customer.
func MarshalCustomer(customer mm1.Customer) []byte {
	b := make([]byte, 0, 48)
	b = appendUint(b, fieldID, customer.ID)
	b = appendFloat(b, fieldArrival, customer.ArrivalTime)
	b = appendUint(b, fieldQueueOnArrival, uint64(customer.QueueOnArrival))
	b = appendFloat(b, fieldServiceBegin, customer.ServiceBegin)
	b = appendFloat(b, fieldServiceEnd, customer.ServiceEnd)
	return b
}

// UnmarshalCustomer decodes a customer encoded by MarshalCustomer.  Unknown
// fields are skipped.
func UnmarshalCustomer(b []byte) (mm1.Customer, error) {
	customer := mm1.Customer{Stage: mm1.Served}

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return mm1.Customer{}, errors.WithMessage(protowire.ParseError(n), "could not decode tag")
		}
		b = b[n:]

		switch {
		case typ == protowire.VarintType && (num == fieldID || num == fieldQueueOnArrival):
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return mm1.Customer{}, errors.WithMessagef(protowire.ParseError(n), "could not decode field %d", num)
			}
			b = b[n:]
			if num == fieldID {
				customer.ID = v
			} else {
				customer.QueueOnArrival = int(v)
			}
		case typ == protowire.Fixed64Type && (num == fieldArrival || num == fieldServiceBegin || num == fieldServiceEnd):
			v, n := protowire.ConsumeFixed64(b)
			if n < 0 {
				return mm1.Customer{}, errors.WithMessagef(protowire.ParseError(n), "could not decode field %d", num)
			}
			b = b[n:]
			switch num {
			case fieldArrival:
				customer.ArrivalTime = math.Float64frombits(v)
			case fieldServiceBegin:
				customer.ServiceBegin = math.Float64frombits(v)
			default:
				customer.ServiceEnd = math.Float64frombits(v)
			}
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return mm1.Customer{}, errors.WithMessagef(protowire.ParseError(n), "could not skip field %d", num)
			}
			b = b[n:]
		}
	}

	return customer, nil
}
