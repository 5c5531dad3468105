// Copyright (c) 2019-2024 Paradigm4, Inc. All rights reserved.

package goscidb

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Shim endpoints. Each session-scoped endpoint takes the session id in the
// id parameter.
const (
	versionPath        = "/version"
	newSessionPath     = "/new_session"
	executeQueryPath   = "/execute_query"
	readBytesPath      = "/read_bytes"
	releaseSessionPath = "/release_session"
	cancelPath         = "/cancel"
	uploadFilePath     = "/upload_file"
)

const (
	httpHeaderUserAgent   = "User-Agent"
	httpHeaderAccept      = "Accept"
	httpHeaderContentType = "Content-Type"
)

const contentTypeTextPlain = "text/plain"

// shimRestful is a set of functions to communicate with Shim, the SciDB
// HTTP bridge.
type shimRestful struct {
	Host     string
	Port     int
	Protocol string

	RequestTimeout time.Duration // request timeout, 0 means no timeout
	MaxRetryCount  int

	// SciDBAuth carries database credentials. Shim only accepts them on
	// execute_query and cancel.
	SciDBAuth url.Values

	Client *http.Client

	FuncGet  func(context.Context, *shimRestful, *url.URL, map[string]string, time.Duration) (*http.Response, error)
	FuncPost func(context.Context, *shimRestful, *url.URL, map[string]string, []byte, time.Duration) (*http.Response, error)
}

func (sr *shimRestful) getFullURL(location string, params *url.Values) *url.URL {
	ret := &url.URL{
		Scheme: sr.Protocol,
		Host:   sr.Host + ":" + strconv.Itoa(sr.Port),
		Path:   location,
	}
	if params != nil {
		ret.RawQuery = params.Encode()
	}
	return ret
}

func getRestful(
	ctx context.Context,
	sr *shimRestful,
	fullURL *url.URL,
	headers map[string]string,
	timeout time.Duration) (
	*http.Response, error) {
	return newRetryHTTP(
		ctx, sr.Client, http.NewRequest, fullURL, headers, timeout, sr.MaxRetryCount).
		doRaise4XX(true).execute()
}

func postRestful(
	ctx context.Context,
	sr *shimRestful,
	fullURL *url.URL,
	headers map[string]string,
	body []byte,
	timeout time.Duration) (
	*http.Response, error) {
	return newRetryHTTP(
		ctx, sr.Client, http.NewRequest, fullURL, headers, timeout, sr.MaxRetryCount).
		doPost().setBody(body).doRaise4XX(true).execute()
}

func defaultHeaders() map[string]string {
	return map[string]string{
		httpHeaderUserAgent: userAgent,
		httpHeaderAccept:    contentTypeTextPlain,
	}
}

// interpretError turns a non-200 Shim response into a SciDBError. Shim puts
// the error text, often a full SciDB exception trace, in the response body.
func (sr *shimRestful) interpretError(resp *http.Response, sessionID string) error {
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Errorf("failed to read the response body. err: %v", err)
		return err
	}
	return &SciDBError{
		Number:    resp.StatusCode,
		SessionID: sessionID,
		Message:   strings.TrimSpace(string(b)),
	}
}

// getTextBody runs a GET and returns the response body as trimmed text.
func (sr *shimRestful) getTextBody(ctx context.Context, fullURL *url.URL, sessionID string) (string, error) {
	resp, err := sr.FuncGet(ctx, sr, fullURL, defaultHeaders(), sr.RequestTimeout)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", sr.interpretError(resp, sessionID)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.WithContext(ctx).Errorf("failed to read the response body. err: %v", err)
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

// version returns the Shim version string, e.g. "v1.3".
func (sr *shimRestful) version(ctx context.Context) (string, error) {
	return sr.getTextBody(ctx, sr.getFullURL(versionPath, nil), "")
}

// newSession reserves a Shim session and returns its id.
func (sr *shimRestful) newSession(ctx context.Context) (string, error) {
	id, err := sr.getTextBody(ctx, sr.getFullURL(newSessionPath, nil), "")
	if err != nil {
		return "", err
	}
	logger.WithContext(ctx).Infof("started session: %v", id)
	return id, nil
}

type execResult struct {
	queryID string
	err     error
}

// executeQuery runs an AFL query in the given session. save selects the
// format the server saves the output in for a later read_bytes; empty save
// means no output is kept. release tells Shim to drop the session as soon
// as the query completes.
//
// If ctx is canceled while the query runs, a best-effort cancel request is
// sent so the database stops the query server side.
func (sr *shimRestful) executeQuery(
	ctx context.Context,
	sessionID string,
	query string,
	save string,
	release bool) (string, error) {
	params := &url.Values{}
	params.Add("id", sessionID)
	params.Add("query", query)
	if save != "" {
		params.Add("save", save)
	}
	if release {
		params.Add("release", "1")
	}
	for k, vs := range sr.SciDBAuth {
		for _, v := range vs {
			params.Add(k, v)
		}
	}
	fullURL := sr.getFullURL(executeQueryPath, params)
	logger.WithContext(ctx).Infof("executing: %v", maskSecrets(query))

	execChan := make(chan execResult, 1)
	go func() {
		queryID, err := sr.getTextBody(ctx, fullURL, sessionID)
		execChan <- execResult{queryID, err}
		close(execChan)
	}()
	select {
	case <-ctx.Done():
		// use a fresh context, the caller's is already done
		cancelCtx, cancelFn := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancelFn()
		if err := sr.cancelQuery(cancelCtx, sessionID); err != nil {
			logger.WithContext(ctx).Warningf("failed to cancel query in session %v. err: %v", sessionID, err)
		}
		return "", ctx.Err()
	case r := <-execChan:
		if r.err != nil {
			return "", r.err
		}
		logger.WithContext(ctx).Infof("query id: %v", r.queryID)
		return r.queryID, nil
	}
}

// readBytes fetches the output the previous execute_query saved. n is the
// maximum number of bytes to return; zero means the whole output.
func (sr *shimRestful) readBytes(ctx context.Context, sessionID string, n int) ([]byte, error) {
	params := &url.Values{}
	params.Add("id", sessionID)
	params.Add("n", strconv.Itoa(n))
	fullURL := sr.getFullURL(readBytesPath, params)

	resp, err := sr.FuncGet(ctx, sr, fullURL, defaultHeaders(), sr.RequestTimeout)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, sr.interpretError(resp, sessionID)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.WithContext(ctx).Errorf("failed to read the response body. err: %v", err)
		return nil, err
	}
	logger.WithContext(ctx).Debugf("read %v bytes from session %v", len(b), sessionID)
	return b, nil
}

// releaseSession frees the session and any output buffer it holds. Shim
// responds 404 for an already released session, which is ignored here so
// release is safe to defer unconditionally.
func (sr *shimRestful) releaseSession(ctx context.Context, sessionID string) error {
	params := &url.Values{}
	params.Add("id", sessionID)
	fullURL := sr.getFullURL(releaseSessionPath, params)

	_, err := sr.getTextBody(ctx, fullURL, sessionID)
	if err != nil {
		var serr *SciDBError
		if errors.As(err, &serr) && serr.Number == http.StatusNotFound {
			return nil
		}
		return err
	}
	logger.WithContext(ctx).Infof("released session: %v", sessionID)
	return nil
}

// cancelQuery asks SciDB to stop the query running in the session.
func (sr *shimRestful) cancelQuery(ctx context.Context, sessionID string) error {
	params := &url.Values{}
	params.Add("id", sessionID)
	for k, vs := range sr.SciDBAuth {
		for _, v := range vs {
			params.Add(k, v)
		}
	}
	fullURL := sr.getFullURL(cancelPath, params)

	_, err := sr.getTextBody(ctx, fullURL, sessionID)
	if err != nil {
		return err
	}
	logger.WithContext(ctx).Infof("canceled query in session: %v", sessionID)
	return nil
}

// uploadFile posts data to the session upload area and returns the
// server-side path Shim stored it under. The path is meant to be
// interpolated into a subsequent input() or load() query.
func (sr *shimRestful) uploadFile(ctx context.Context, sessionID string, data io.Reader, name string) (string, error) {
	params := &url.Values{}
	params.Add("id", sessionID)
	fullURL := sr.getFullURL(uploadFilePath, params)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", name)
	if err != nil {
		return "", err
	}
	if _, err = io.Copy(part, data); err != nil {
		return "", err
	}
	if err = writer.Close(); err != nil {
		return "", err
	}

	headers := defaultHeaders()
	headers[httpHeaderContentType] = writer.FormDataContentType()

	resp, err := sr.FuncPost(ctx, sr, fullURL, headers, body.Bytes(), sr.RequestTimeout)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", sr.interpretError(resp, sessionID)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.WithContext(ctx).Errorf("failed to read the response body. err: %v", err)
		return "", err
	}
	serverPath := strings.TrimSpace(string(b))
	if serverPath == "" {
		return "", &SciDBError{
			Number:      ErrCodeUploadFailed,
			SessionID:   sessionID,
			Message:     errMsgUploadReturnedNoPath,
			MessageArgs: []interface{}{name},
		}
	}
	logger.WithContext(ctx).Infof("uploaded %v to %v", name, serverPath)
	return serverPath, nil
}
