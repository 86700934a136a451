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

// Package statesync drives verified chunks of transaction and state-snapshot
// data from the streaming layer into the node's ledger store. It is the
// storage synchronizer: execute-or-apply, ledger-update, commit and
// post-commit fan-out for transaction chunks, plus an independent bootstrap
// pipeline that ingests a full state snapshot before normal sync resumes.
//
// The package owns no network or proof-verification logic; it assumes every
// chunk handed to it has already been proof-verified by the caller and
// concerns itself only with ordering, backpressure, durability and
// notification.
package statesync
