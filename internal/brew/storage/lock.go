// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// LockFile is the advisory lock filename inside the artifact directory.
const LockFile = ".lock"

// ErrLocked is returned when another process holds the artifact lock.
var ErrLocked = errors.New("artifact directory is locked by another writer")

// Lock acquires the cross-process writer lock, retrying until ctx ends.
// The returned function releases it.
func (s *Store) Lock(ctx context.Context) (func(), error) {
	fl := flock.New(filepath.Join(s.baseDir, LockFile))
	ok, err := fl.TryLockContext(ctx, 50*time.Millisecond)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", ErrLocked, ctx.Err())
		}
		return nil, fmt.Errorf("acquire artifact lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return func() { _ = fl.Unlock() }, nil //nolint:errcheck // unlock failure leaves a stale lock the OS releases on exit
}
