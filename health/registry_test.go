package health

import (
	"errors"
	"strings"
	"sync"
	"testing"
)

func TestRegistry_GetDefault(t *testing.T) {
	reg := NewRegistry()
	def := mustRunner(t, "default", RunnerConfig{})
	if err := reg.Register("", def); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	reg.Seal()

	for _, name := range []string{"", "default", "  "} {
		got, err := reg.Get(name)
		if err != nil {
			t.Fatalf("Get(%q) error = %v", name, err)
		}
		if got != def {
			t.Errorf("Get(%q) returned a different runner", name)
		}
	}
}

func TestRegistry_GetUnknown(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Register("db", mustRunner(t, "db", RunnerConfig{}))
	reg.Seal()

	_, err := reg.Get("unknown")

	var cerr *ConfigurationError
	if !errors.As(err, &cerr) {
		t.Fatalf("Get() error = %v, want *ConfigurationError", err)
	}
	if err.Error() != "no runner registered for name: unknown" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, ErrRunnerNotFound) {
		t.Error("error should match ErrRunnerNotFound")
	}
}

func TestRegistry_NoDefault(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Register("db", mustRunner(t, "db", RunnerConfig{}))

	_, err := reg.Get("")
	if err == nil || err.Error() != "no runner registered for name: default" {
		t.Errorf("Get(\"\") error = %v", err)
	}
}

func TestRegistry_Register(t *testing.T) {
	reg := NewRegistry()
	r := mustRunner(t, "a", RunnerConfig{})

	if err := reg.Register("a", nil); err == nil {
		t.Error("Register(nil) should fail")
	}
	if err := reg.Register("a", r); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := reg.Register("a", r); !errors.Is(err, ErrDuplicateRunner) {
		t.Errorf("duplicate Register() error = %v, want ErrDuplicateRunner", err)
	}

	reg.Seal()
	if !reg.Sealed() {
		t.Error("Sealed() = false after Seal()")
	}
	if err := reg.Register("b", r); !errors.Is(err, ErrRegistrySealed) {
		t.Errorf("Register() after Seal error = %v, want ErrRegistrySealed", err)
	}
	reg.Seal()
}

func TestRegistry_Names(t *testing.T) {
	reg := NewRegistry()
	for _, name := range []string{"zeta", "", "alpha"} {
		if err := reg.Register(name, mustRunner(t, name, RunnerConfig{})); err != nil {
			t.Fatalf("Register(%q) error = %v", name, err)
		}
	}

	if got := strings.Join(reg.Names(), ","); got != "alpha,default,zeta" {
		t.Errorf("Names() = %v, want alpha,default,zeta", got)
	}
}

func TestRegistry_MustGet(t *testing.T) {
	reg := NewRegistry()
	reg.Seal()

	defer func() {
		if recover() == nil {
			t.Error("MustGet() should panic for missing runner")
		}
	}()
	reg.MustGet("missing")
}

func TestRegistry_ConcurrentGet(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Register("", mustRunner(t, "default", RunnerConfig{}))
	_ = reg.Register("db", mustRunner(t, "db", RunnerConfig{}))
	reg.Seal()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := ""
			if i%2 == 0 {
				name = "db"
			}
			if _, err := reg.Get(name); err != nil {
				t.Errorf("Get(%q) error = %v", name, err)
			}
		}(i)
	}
	wg.Wait()
}
