// Copyright Consensys Software Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package util

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// ParMap applies a given job to every item of a worklist using one go-routine
// per item, with at most limit routines running at any one time (a limit of
// zero or less means no limit).  Results are returned in worklist order,
// regardless of the order in which jobs complete.  The first job to fail
// cancels the context handed to the others, and its error is returned.
// Observe that jobs must not share mutable state, since no synchronisation is
// provided beyond joining all routines before returning.
func ParMap[S any, T any](ctx context.Context, worklist []S, limit int,
	job func(context.Context, S) (T, error)) ([]T, error) {
	var (
		results     = make([]T, len(worklist))
		group, gctx = errgroup.WithContext(ctx)
	)
	//
	if limit > 0 {
		group.SetLimit(limit)
	}
	//
	for i, item := range worklist {
		group.Go(func() error {
			res, err := job(gctx, item)
			if err != nil {
				return err
			}
			// Each routine writes a distinct slot.
			results[i] = res
			//
			return nil
		})
	}
	// Wait for everything to complete
	if err := group.Wait(); err != nil {
		return nil, err
	}
	//
	return results, nil
}
