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

import "github.com/pkg/errors"

// Sentinel errors returned synchronously by the ingress façade (C1). Stage
// errors raised inside a worker are wrapped with errors.Wrap at the call
// site instead, so the error channel carries a stack trace back to the
// failing executor call.
var (
	// ErrExecutorChannelClosed is returned when the executor worker's
	// input channel has already been closed (the worker exited).
	ErrExecutorChannelClosed = errors.New("statesync: executor channel closed")

	// ErrBootstrapNotInitialized is returned by SaveStateValues when
	// InitializeStateSynchronizer has not yet been called.
	ErrBootstrapNotInitialized = errors.New("statesync: state synchronizer not initialized")

	// ErrBootstrapChannelFull is returned by SaveStateValues's try-send
	// when the snapshot worker has not drained its channel in time.
	ErrBootstrapChannelFull = errors.New("statesync: state synchronizer channel full")

	// ErrAlreadyInitialized is returned by InitializeStateSynchronizer
	// when called a second time on the same synchronizer instance; the
	// contract forbids silently replacing the bootstrap sender because
	// that would orphan the running snapshot worker (spec §9).
	ErrAlreadyInitialized = errors.New("statesync: state synchronizer already initialized")

	// ErrInvalidChunkVariant marks the C2 invariant-violation guard: a
	// States chunk reaching the executor worker is a caller bug, not a
	// recoverable runtime condition.
	ErrInvalidChunkVariant = errors.New("statesync: invalid chunk variant for this stage")
)

func wrapExecErr(stage Stage, err error) error {
	return errors.Wrapf(err, "statesync: %s failed", stage)
}
