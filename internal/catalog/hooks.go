// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package catalog

import (
	"context"
	"time"

	"github.com/ClusterCockpit/cc-compute-worker/pkg/log"
)

type queryTimingKey struct{}

// sqlHooks satisfies sqlhooks.Hooks, logging every catalog query and its
// duration at DEBUG level.
type sqlHooks struct{}

func (h *sqlHooks) Before(ctx context.Context, query string, args ...interface{}) (context.Context, error) {
	log.Debugf("catalog: query %s %q", query, args)
	return context.WithValue(ctx, queryTimingKey{}, time.Now()), nil
}

func (h *sqlHooks) After(ctx context.Context, query string, args ...interface{}) (context.Context, error) {
	if begin, ok := ctx.Value(queryTimingKey{}).(time.Time); ok {
		log.Debugf("catalog: query took %s", time.Since(begin))
	}
	return ctx, nil
}
