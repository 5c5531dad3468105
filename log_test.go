package goscidb

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func testLogger() *defaultLogger {
	l := createDefaultLogger()
	return &l
}

func TestSetLogLevel(t *testing.T) {
	log := testLogger()
	assertNilF(t, log.SetLogLevel("info"))
	assertEqualE(t, log.GetLogLevel(), "info")
	assertNilF(t, log.SetLogLevel("debug"))
	assertEqualE(t, log.GetLogLevel(), "debug")
}

func TestSetLogLevelUnknown(t *testing.T) {
	log := testLogger()
	assertNotNilF(t, log.SetLogLevel("unknown"))
}

func TestLogLevelFiltersLowerLevels(t *testing.T) {
	log := testLogger()
	assertNilF(t, log.SetLogLevel("info"))
	buf := &bytes.Buffer{}
	log.SetOutput(buf)

	log.Info("shown entry")
	log.Debugf("hidden %v", "entry")

	out := buf.String()
	assertStringContainsE(t, out, "shown entry")
	assertFalseE(t, strings.Contains(out, "hidden"), "debug is below the configured level")
}

func TestWithContextAttachesIDs(t *testing.T) {
	log := testLogger()
	assertNilF(t, log.SetLogLevel("info"))
	buf := &bytes.Buffer{}
	log.SetOutput(buf)

	ctx := context.WithValue(context.Background(), SessionIDKey, "41")
	ctx = context.WithValue(ctx, QueryIDKey, "0.42")
	log.WithContext(ctx).Info("tagged entry")

	out := buf.String()
	assertStringContainsE(t, out, "LOG_SESSION_ID=41")
	assertStringContainsE(t, out, "LOG_QUERY_ID=0.42")
}

func TestWithContextWithoutIDs(t *testing.T) {
	log := testLogger()
	assertNilF(t, log.SetLogLevel("info"))
	buf := &bytes.Buffer{}
	log.SetOutput(buf)

	log.WithContext(context.Background()).Info("untagged entry")

	out := buf.String()
	assertStringContainsE(t, out, "untagged entry")
	assertFalseE(t, strings.Contains(out, "LOG_SESSION_ID"))
}

func TestReplacePackageLogger(t *testing.T) {
	saved := GetLogger()
	defer SetLogger(saved)

	log := testLogger()
	assertNilF(t, log.SetLogLevel("warning"))
	buf := &bytes.Buffer{}
	log.SetOutput(buf)
	SetLogger(log)

	logger.Warning("through the replaced logger")
	assertStringContainsE(t, buf.String(), "through the replaced logger")
}
