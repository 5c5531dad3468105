// Copyright (c) 2019-2024 Paradigm4, Inc. All rights reserved.

package goscidb

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
)

var random *rand.Rand

func init() {
	random = rand.New(rand.NewSource(time.Now().UnixNano()))
}

type waitAlgo struct {
	mutex *sync.Mutex   // required for random.Int63n
	base  time.Duration // base wait time
	cap   time.Duration // maximum wait time
}

func randSecondDuration(n time.Duration) time.Duration {
	return time.Duration(random.Int63n(int64(n/time.Second))) * time.Second
}

// decorrelated jitter backoff
func (w *waitAlgo) decorr(attempt int, sleep time.Duration) time.Duration {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	t := 3*sleep - w.base
	switch {
	case t > 0:
		return durationMin(w.cap, randSecondDuration(t)+w.base)
	case t < 0:
		return durationMin(w.cap, randSecondDuration(-t)+3*sleep)
	}
	return w.base
}

var defaultWaitAlgo = &waitAlgo{
	mutex: &sync.Mutex{},
	base:  5 * time.Second,
	cap:   160 * time.Second,
}

type requestFunc func(method, urlStr string, body io.Reader) (*http.Request, error)

type clientInterface interface {
	Do(req *http.Request) (*http.Response, error)
}

// retryHTTP retries a request on transient failures. Shim reports query and
// session errors with 4XX statuses, which are terminal, so only connection
// errors and 5XX responses are retried.
type retryHTTP struct {
	ctx           context.Context
	client        clientInterface
	req           requestFunc
	method        string
	fullURL       *url.URL
	headers       map[string]string
	body          []byte
	timeout       time.Duration
	maxRetryCount int
	raise4XX      bool
}

func newRetryHTTP(ctx context.Context,
	client clientInterface,
	req requestFunc,
	fullURL *url.URL,
	headers map[string]string,
	timeout time.Duration,
	maxRetryCount int) *retryHTTP {
	instance := retryHTTP{}
	instance.ctx = ctx
	instance.client = client
	instance.req = req
	instance.method = http.MethodGet
	instance.fullURL = fullURL
	instance.headers = headers
	instance.body = nil
	instance.timeout = timeout
	instance.maxRetryCount = maxRetryCount
	instance.raise4XX = false
	return &instance
}

func (r *retryHTTP) doRaise4XX(raise4XX bool) *retryHTTP {
	r.raise4XX = raise4XX
	return r
}

func (r *retryHTTP) doPost() *retryHTTP {
	r.method = http.MethodPost
	return r
}

func (r *retryHTTP) setBody(body []byte) *retryHTTP {
	r.body = body
	return r
}

func (r *retryHTTP) execute() (res *http.Response, err error) {
	totalTimeout := r.timeout
	logger.WithContext(r.ctx).Debugf("retryHTTP.totalTimeout: %v", totalTimeout)
	retryCounter := 0
	sleepTime := time.Duration(0)
	requestID := uuid.New() // per logical request, for log correlation

	var req *http.Request
	for {
		req, err = r.req(r.method, r.fullURL.String(), bytes.NewReader(r.body))
		if err != nil {
			return nil, err
		}
		if req != nil {
			// req can be nil in tests
			req = req.WithContext(r.ctx)
		}
		for k, v := range r.headers {
			req.Header.Set(k, v)
		}
		res, err = r.client.Do(req)
		if err == nil && res.StatusCode == http.StatusOK {
			// exit if success
			break
		}
		if err == nil && r.raise4XX && res.StatusCode >= 400 && res.StatusCode < 500 {
			// let the caller interpret the response. 4XX responses carry a
			// Shim error message and never recover on retry.
			break
		}
		if err != nil {
			logger.WithContext(r.ctx).Warningf(
				"failed http connection. request: %v, err: %v. retrying...\n", requestID, err)
		} else {
			logger.WithContext(r.ctx).Warningf(
				"failed http connection. request: %v, HTTP: %v. retrying...\n", requestID, res.StatusCode)
			io.Copy(io.Discard, res.Body)
			res.Body.Close()
		}
		// uses decorrelated jitter backoff
		sleepTime = defaultWaitAlgo.decorr(retryCounter, sleepTime)

		if totalTimeout > 0 {
			logger.WithContext(r.ctx).Infof("to timeout: %v", totalTimeout)
			// if any timeout is set
			totalTimeout -= sleepTime
			if totalTimeout <= 0 {
				if err != nil {
					return nil, fmt.Errorf("timeout. err: %v. Hanging?", err)
				}
				return nil, fmt.Errorf("timeout. HTTP Status: %v. Hanging?", res.StatusCode)
			}
		}
		retryCounter++
		if r.maxRetryCount > 0 && retryCounter > r.maxRetryCount {
			if err != nil {
				return nil, fmt.Errorf("abandoned request %v after %v attempts. err: %v", requestID, retryCounter, err)
			}
			return nil, fmt.Errorf("abandoned request %v after %v attempts. HTTP Status: %v", requestID, retryCounter, res.StatusCode)
		}
		logger.WithContext(r.ctx).Infof("sleeping %v. to timeout: %v. retrying", sleepTime, totalTimeout)

		await := time.NewTimer(sleepTime)
		select {
		case <-await.C:
			// retry the request
		case <-r.ctx.Done():
			await.Stop()
			return res, r.ctx.Err()
		}
	}
	return res, err
}
