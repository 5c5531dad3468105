// Copyright (c) 2020-2024 Paradigm4, Inc. All rights reserved.

package goscidb

import (
	"context"
	"io"
	"time"
)

// shimSession binds one Shim session id to the restful layer. Shim holds
// query output per session, so each fetching query gets its own session and
// releases it when the output has been read.
type shimSession struct {
	id       string
	rest     *shimRestful
	released bool
}

func newShimSession(ctx context.Context, rest *shimRestful) (*shimSession, error) {
	id, err := rest.newSession(ctx)
	if err != nil {
		return nil, err
	}
	return &shimSession{id: id, rest: rest}, nil
}

// context tags ctx with the session id so log lines carry it.
func (ss *shimSession) context(ctx context.Context) context.Context {
	return context.WithValue(ctx, SessionIDKey, ss.id)
}

func (ss *shimSession) execute(ctx context.Context, query, save string, release bool) (string, error) {
	queryID, err := ss.rest.executeQuery(ss.context(ctx), ss.id, query, save, release)
	if err == nil && release {
		ss.released = true
	}
	return queryID, err
}

func (ss *shimSession) readBytes(ctx context.Context, n int) ([]byte, error) {
	return ss.rest.readBytes(ss.context(ctx), ss.id, n)
}

func (ss *shimSession) uploadFile(ctx context.Context, data io.Reader, name string) (string, error) {
	return ss.rest.uploadFile(ss.context(ctx), ss.id, data, name)
}

// release frees the session. It is safe to call more than once and safe to
// defer next to an execute that passed release, errors are logged only.
// Shim keeps the output buffer until the session is released, so release
// still runs when the caller's context is already done, on a fresh deadline.
func (ss *shimSession) release(ctx context.Context) {
	if ss.released {
		return
	}
	ss.released = true
	ctx = ss.context(ctx)
	if ctx.Err() != nil {
		var cancelFn context.CancelFunc
		ctx, cancelFn = context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancelFn()
	}
	if err := ss.rest.releaseSession(ctx, ss.id); err != nil {
		logger.WithContext(ctx).Warningf("failed to release session %v. err: %v", ss.id, err)
	}
}
