// Copyright 2018 The go-klaytn Authors
// This file is part of the go-klaytn library.
//
// The go-klaytn library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-klaytn library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-klaytn library. If not, see <http://www.gnu.org/licenses/>.

package common

import "hash/fnv"

// BytesKey is a general-purpose CacheKey for callers outside this package
// that only need plain LRU semantics and have no natural fixed-width key
// type of their own (the role common.Hash/common.Address played for the
// node's own chain accessors).
type BytesKey string

func (k BytesKey) getShardIndex(shardMask int) int {
	h := fnv.New32a()
	h.Write([]byte(k))
	return int(h.Sum32()) & shardMask
}
