package di

import (
	"sync"
	"sync/atomic"
	"testing"
)

type greeter interface{ Greet() string }

type english struct{ name string }

func (e english) Greet() string { return "hello " + e.name }

func TestContainer_TokenFactoryIsLazyAndShared(t *testing.T) {
	c := NewContainer()
	c.Register("name", "base")

	var calls int32
	tok := NewToken[greeter]("greeter")
	RegisterToken(c, tok, func(sr ServiceRegistry) greeter {
		atomic.AddInt32(&calls, 1)
		return english{name: sr.Get("name").(string)}
	})

	if calls != 0 {
		t.Fatal("factory should not run before Get")
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got := GetToken(c, tok).Greet(); got != "hello base" {
				t.Errorf("unexpected greeting %q", got)
			}
		}()
	}
	wg.Wait()

	if calls != 1 {
		t.Errorf("expected factory to run once, ran %d times", calls)
	}
}

func TestContainer_GetUnknownPanics(t *testing.T) {
	c := NewContainer()
	defer func() {
		if recover() == nil {
			t.Error("expected panic for unknown service")
		}
	}()
	c.Get("missing")
}

func TestContainer_Has(t *testing.T) {
	c := NewContainer()
	c.Register("config", struct{}{})

	if !c.Has("config") {
		t.Error("expected config to be registered")
	}
	if c.Has("logger") {
		t.Error("did not expect logger to be registered")
	}
}
