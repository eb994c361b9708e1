package observability

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	s := NoopSyncHooks{}
	s.OnResolve(ctx, "acme/tools", "api", time.Second, nil)
	s.OnSnapshot(ctx, "acme/tools", true, time.Second, nil)
	s.OnLocate(ctx, "acme/tools", "alpha", "directory")
	s.OnOutcome(ctx, "updated")
	s.OnPipelineFailure(ctx, "acme/tools", errors.New("clone failed"))

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "snapshot")
	c.OnCacheMiss(ctx, "http")
	c.OnCacheSet(ctx, "snapshot", 1024)

	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "GET", "api.github.com", "/repos/acme/tools/commits/HEAD")
	h.OnResponse(ctx, "GET", "api.github.com", "/repos/acme/tools/commits/HEAD", 200, time.Second)
	h.OnError(ctx, "GET", "api.github.com", "/repos/acme/tools/commits/HEAD", nil)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	if _, ok := Sync().(NoopSyncHooks); !ok {
		t.Error("Sync() should return NoopSyncHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	customSync := &testSyncHooks{}
	SetSyncHooks(customSync)
	if Sync() != customSync {
		t.Error("SetSyncHooks should set custom hooks")
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

	Reset()
	if _, ok := Sync().(NoopSyncHooks); !ok {
		t.Error("Reset() should restore NoopSyncHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	custom := &testSyncHooks{}
	SetSyncHooks(custom)
	SetSyncHooks(nil)

	if Sync() != custom {
		t.Error("SetSyncHooks(nil) should be ignored")
	}
}

type testSyncHooks struct{ NoopSyncHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testHTTPHooks struct{ NoopHTTPHooks }
