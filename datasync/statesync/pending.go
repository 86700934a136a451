// Copyright 2020 The klaytn Authors
// This file is part of the klaytn library.
//
// The klaytn library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The klaytn library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the klaytn library. If not, see <http://www.gnu.org/licenses/>.

package statesync

import "sync/atomic"

// pendingChunks is the single source of truth for "is there admitted work
// still in flight anywhere in the pipeline". A relaxed atomic is
// sufficient: ordering with storage is already established by the
// pipeline's channel ordering, and the only consumers are a boolean
// idle-predicate and a metrics gauge (spec §4.7, §9).
type pendingChunks struct {
	count int64
}

// increment records one more admitted chunk. Called exactly once per
// admitted chunk, at ingress.
func (p *pendingChunks) increment() {
	atomic.AddInt64(&p.count, 1)
	pendingChunksGauge.Update(atomic.LoadInt64(&p.count))
}

// decrement records one chunk reaching a terminal stage: successful
// post-commit fan-out, a fatal stage error, or snapshot completion.
func (p *pendingChunks) decrement() {
	atomic.AddInt64(&p.count, -1)
	pendingChunksGauge.Update(atomic.LoadInt64(&p.count))
}

// hasPending reports whether any admitted chunk has yet to reach a
// terminal stage.
func (p *pendingChunks) hasPending() bool {
	return atomic.LoadInt64(&p.count) > 0
}
