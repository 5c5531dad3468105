// Copyright (c) 2022-2024 Paradigm4, Inc. All rights reserved.

package goscidb

import (
	"context"
	"io"
	"strings"
)

// uploadMarker is replaced in a query template by the server side path of
// the uploaded bytes.
const uploadMarker = "{fn}"

// ExecUpload uploads data to the session upload area and runs the query
// template against it. The template must reference the uploaded file with
// the {fn} marker, e.g.
//
//	db.ExecUpload(ctx, "insert(input(foo, '{fn}', -2, '(int64)'), foo)", data, "foo.bin")
//
// name is the file name the upload is stored under on the server, it only
// needs to be distinctive.
func (db *DB) ExecUpload(ctx context.Context, queryTemplate string, data io.Reader, name string) error {
	if !strings.Contains(queryTemplate, uploadMarker) {
		return &SciDBError{
			Number:      ErrCodeUploadFailed,
			Message:     errMsgQueryTemplateMissingMarker,
			MessageArgs: []interface{}{queryTemplate},
		}
	}
	session, err := db.session(ctx)
	if err != nil {
		return err
	}
	defer session.release(ctx)
	serverPath, err := session.uploadFile(ctx, data, name)
	if err != nil {
		return err
	}
	query := strings.ReplaceAll(queryTemplate, uploadMarker, serverPath)
	_, err = session.execute(ctx, query, "", true)
	return err
}
