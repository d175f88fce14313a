package observability

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	// Layout hooks
	l := NoopLayoutHooks{}
	l.OnLayoutStart(ctx, 10, 9)
	l.OnPack(ctx, "team:a", 4, 80, time.Millisecond)
	l.OnIssue(ctx, "MALFORMED_GRAPH", "x", "unknown link target")
	l.OnTick(ctx, 1, 0.97)
	l.OnQuiescent(ctx, 300, time.Second)
	l.OnDispose(ctx)

	// Viewport hooks
	v := NoopViewportHooks{}
	v.OnFocus(ctx, "1")
	v.OnHighlight(ctx, "1", 3)

	// Pipeline hooks
	p := NoopPipelineHooks{}
	p.OnParseStart(ctx, "roster.csv")
	p.OnParseComplete(ctx, "roster.csv", 100, time.Second, nil)
	p.OnLayoutStart(ctx, 100)
	p.OnLayoutComplete(ctx, 300, time.Second, nil)
	p.OnRenderStart(ctx, []string{"svg"})
	p.OnRenderComplete(ctx, []string{"svg"}, time.Second, nil)

	// Cache hooks
	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "avatar")
	c.OnCacheMiss(ctx, "avatar")
	c.OnCacheSet(ctx, "avatar", 1024)

	// HTTP hooks
	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "GET", "example.com", "/a.png")
	h.OnResponse(ctx, "GET", "example.com", "/a.png", 200, time.Second)
	h.OnError(ctx, "GET", "example.com", "/a.png", nil)
}

func TestGlobalHooksRegistry(t *testing.T) {
	// Reset to known state
	Reset()

	// Verify defaults are noop
	if _, ok := Layout().(NoopLayoutHooks); !ok {
		t.Error("Layout() should return NoopLayoutHooks by default")
	}
	if _, ok := Viewport().(NoopViewportHooks); !ok {
		t.Error("Viewport() should return NoopViewportHooks by default")
	}
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Pipeline() should return NoopPipelineHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	customLayout := &testLayoutHooks{}
	SetLayoutHooks(customLayout)
	if Layout() != customLayout {
		t.Error("SetLayoutHooks should set custom hooks")
	}

	customViewport := &testViewportHooks{}
	SetViewportHooks(customViewport)
	if Viewport() != customViewport {
		t.Error("SetViewportHooks should set custom hooks")
	}

	customPipeline := &testPipelineHooks{}
	SetPipelineHooks(customPipeline)
	if Pipeline() != customPipeline {
		t.Error("SetPipelineHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	// Reset and verify
	Reset()
	if _, ok := Layout().(NoopLayoutHooks); !ok {
		t.Error("Reset() should restore NoopLayoutHooks")
	}
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Reset() should restore NoopPipelineHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testLayoutHooks{}
	SetLayoutHooks(custom)

	// Setting nil should be ignored
	SetLayoutHooks(nil)

	if Layout() != custom {
		t.Error("SetLayoutHooks(nil) should be ignored")
	}

	Reset()
}

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})
	h := LogHooks{Logger: logger}
	ctx := context.Background()

	h.OnLayoutStart(ctx, 3, 2)
	h.OnIssue(ctx, "MALFORMED_GRAPH", "7", "link target not found")
	h.OnFocus(ctx, "2")
	h.OnFocus(ctx, "")
	h.OnQuiescent(ctx, 290, 1500*time.Millisecond)

	out := buf.String()
	for _, want := range []string{
		"layout started",
		"link target not found",
		"MALFORMED_GRAPH",
		"focus requested",
		"focus cleared",
		"layout settled",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

// Test implementations
type testLayoutHooks struct{ NoopLayoutHooks }
type testViewportHooks struct{ NoopViewportHooks }
type testPipelineHooks struct{ NoopPipelineHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testHTTPHooks struct{ NoopHTTPHooks }
