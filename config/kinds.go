package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	kjson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/jonwraymond/healthrun/checks"
	"github.com/jonwraymond/healthrun/health"
)

// CheckSpec is what a Factory receives for one configured check.
type CheckSpec struct {
	Name    string
	Kind    string
	Timeout time.Duration

	// Options has secrets already resolved.
	Options map[string]any

	// Runners holds the runners built so far, in configuration order.
	Runners map[string]*health.Runner
}

// Decode unmarshals Options into out using koanf struct tags.
func (s CheckSpec) Decode(out any) error {
	options := s.Options
	if options == nil {
		options = map[string]any{}
	}
	raw, err := json.Marshal(options)
	if err != nil {
		return fmt.Errorf("failed to marshal options: %w", err)
	}
	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(raw), kjson.Parser()); err != nil {
		return fmt.Errorf("failed to load options: %w", err)
	}
	if err := k.UnmarshalWithConf("", out, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return fmt.Errorf("failed to decode options: %w", err)
	}
	return nil
}

// Factory builds a checker for one kind.
type Factory func(ctx context.Context, spec CheckSpec) (health.Checker, error)

// Kinds is a registry of check factories.
type Kinds struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewKinds returns an empty registry.
func NewKinds() *Kinds {
	return &Kinds{factories: make(map[string]Factory)}
}

// DefaultKinds returns a registry with every built-in kind.
func DefaultKinds() *Kinds {
	k := NewKinds()
	_ = k.Register("memory", memoryFactory)
	_ = k.Register("tcp", tcpFactory)
	_ = k.Register("http", httpFactory)
	_ = k.Register("redis", redisFactory)
	_ = k.Register("postgres", postgresFactory)
	_ = k.Register("disk", diskFactory)
	_ = k.Register("static", staticFactory)
	_ = k.Register("runner", runnerFactory)
	return k
}

// Register adds factory under kind. A kind can be registered once.
func (k *Kinds) Register(kind string, factory Factory) error {
	kind = strings.TrimSpace(kind)
	if kind == "" || factory == nil {
		return errors.New("invalid check kind registration")
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	if _, exists := k.factories[kind]; exists {
		return fmt.Errorf("check kind %q already registered", kind)
	}
	k.factories[kind] = factory
	return nil
}

// Has reports whether kind is registered.
func (k *Kinds) Has(kind string) bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	_, ok := k.factories[kind]
	return ok
}

// Create builds a checker with the factory registered for spec.Kind.
func (k *Kinds) Create(ctx context.Context, spec CheckSpec) (health.Checker, error) {
	k.mu.RLock()
	factory, ok := k.factories[spec.Kind]
	k.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("check kind %q is not registered", spec.Kind)
	}
	return factory(ctx, spec)
}

// List returns the registered kinds, sorted.
func (k *Kinds) List() []string {
	k.mu.RLock()
	defer k.mu.RUnlock()

	kinds := make([]string, 0, len(k.factories))
	for kind := range k.factories {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

// parseBytes accepts "512MiB", "2 GB" or a plain byte count. Empty is zero.
func parseBytes(field, s string) (uint64, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	return n, nil
}

type memoryOptions struct {
	WarningThreshold  float64 `koanf:"warning_threshold"`
	CriticalThreshold float64 `koanf:"critical_threshold"`
	MaxAlloc          string  `koanf:"max_alloc"`
}

func memoryFactory(_ context.Context, spec CheckSpec) (health.Checker, error) {
	var opts memoryOptions
	if err := spec.Decode(&opts); err != nil {
		return nil, err
	}
	maxAlloc, err := parseBytes("max_alloc", opts.MaxAlloc)
	if err != nil {
		return nil, err
	}
	return health.NewMemoryChecker(health.MemoryCheckerConfig{
		Name:              spec.Name,
		WarningThreshold:  opts.WarningThreshold,
		CriticalThreshold: opts.CriticalThreshold,
		MaxAlloc:          maxAlloc,
	}), nil
}

type tcpOptions struct {
	Address       string        `koanf:"address"`
	SlowThreshold time.Duration `koanf:"slow_threshold"`
}

func tcpFactory(_ context.Context, spec CheckSpec) (health.Checker, error) {
	var opts tcpOptions
	if err := spec.Decode(&opts); err != nil {
		return nil, err
	}
	return checks.NewTCP(checks.TCPConfig{
		Name:          spec.Name,
		Address:       opts.Address,
		Timeout:       spec.Timeout,
		SlowThreshold: opts.SlowThreshold,
	})
}

type httpOptions struct {
	URL             string            `koanf:"url"`
	Method          string            `koanf:"method"`
	Headers         map[string]string `koanf:"headers"`
	ExpectedStatus  int               `koanf:"expected_status"`
	Contains        string            `koanf:"contains"`
	JSONPath        string            `koanf:"json_path"`
	SlowThreshold   time.Duration     `koanf:"slow_threshold"`
	Insecure        bool              `koanf:"insecure"`
	FollowRedirects bool              `koanf:"follow_redirects"`
}

func httpFactory(_ context.Context, spec CheckSpec) (health.Checker, error) {
	var opts httpOptions
	if err := spec.Decode(&opts); err != nil {
		return nil, err
	}
	return checks.NewHTTP(checks.HTTPConfig{
		Name:            spec.Name,
		URL:             opts.URL,
		Method:          opts.Method,
		Headers:         opts.Headers,
		ExpectedStatus:  opts.ExpectedStatus,
		Contains:        opts.Contains,
		JSONPath:        opts.JSONPath,
		Timeout:         spec.Timeout,
		SlowThreshold:   opts.SlowThreshold,
		Insecure:        opts.Insecure,
		FollowRedirects: opts.FollowRedirects,
	})
}

type redisOptions struct {
	URL           string        `koanf:"url"`
	Addr          string        `koanf:"addr"`
	Password      string        `koanf:"password"`
	DB            int           `koanf:"db"`
	SlowThreshold time.Duration `koanf:"slow_threshold"`
}

func redisFactory(_ context.Context, spec CheckSpec) (health.Checker, error) {
	var opts redisOptions
	if err := spec.Decode(&opts); err != nil {
		return nil, err
	}
	return checks.NewRedis(checks.RedisConfig{
		Name:          spec.Name,
		URL:           opts.URL,
		Addr:          opts.Addr,
		Password:      opts.Password,
		DB:            opts.DB,
		Timeout:       spec.Timeout,
		SlowThreshold: opts.SlowThreshold,
	})
}

type postgresOptions struct {
	DSN           string        `koanf:"dsn"`
	Query         string        `koanf:"query"`
	SlowThreshold time.Duration `koanf:"slow_threshold"`
}

func postgresFactory(_ context.Context, spec CheckSpec) (health.Checker, error) {
	var opts postgresOptions
	if err := spec.Decode(&opts); err != nil {
		return nil, err
	}
	return checks.NewPostgres(checks.PostgresConfig{
		Name:          spec.Name,
		DSN:           opts.DSN,
		Query:         opts.Query,
		Timeout:       spec.Timeout,
		SlowThreshold: opts.SlowThreshold,
	})
}

type diskOptions struct {
	Path              string  `koanf:"path"`
	WarningThreshold  float64 `koanf:"warning_threshold"`
	CriticalThreshold float64 `koanf:"critical_threshold"`
	MinFree           string  `koanf:"min_free"`
}

func diskFactory(_ context.Context, spec CheckSpec) (health.Checker, error) {
	var opts diskOptions
	if err := spec.Decode(&opts); err != nil {
		return nil, err
	}
	minFree, err := parseBytes("min_free", opts.MinFree)
	if err != nil {
		return nil, err
	}
	return checks.NewDisk(checks.DiskConfig{
		Name:              spec.Name,
		Path:              opts.Path,
		WarningThreshold:  opts.WarningThreshold,
		CriticalThreshold: opts.CriticalThreshold,
		MinFree:           minFree,
	}), nil
}

type staticOptions struct {
	Status      string `koanf:"status"`
	Description string `koanf:"description"`
}

func staticFactory(_ context.Context, spec CheckSpec) (health.Checker, error) {
	var opts staticOptions
	if err := spec.Decode(&opts); err != nil {
		return nil, err
	}
	status := health.StatusHealthy
	if opts.Status != "" {
		parsed, err := health.ParseStatus(opts.Status)
		if err != nil {
			return nil, err
		}
		status = parsed
	}
	return checks.NewStatic(spec.Name, status, opts.Description), nil
}

type runnerOptions struct {
	Runner string `koanf:"runner"`
}

// runnerFactory nests an earlier runner as a single check.
func runnerFactory(_ context.Context, spec CheckSpec) (health.Checker, error) {
	var opts runnerOptions
	if err := spec.Decode(&opts); err != nil {
		return nil, err
	}
	if opts.Runner == "" {
		return nil, errors.New("runner: option \"runner\" is required")
	}
	r, ok := spec.Runners[opts.Runner]
	if !ok {
		return nil, fmt.Errorf("runner: %q must be defined before it is nested", opts.Runner)
	}
	return &namedChecker{Checker: r.Checker(), name: spec.Name}, nil
}

// namedChecker renames a checker and keeps its kind.
type namedChecker struct {
	health.Checker
	name string
}

func (n *namedChecker) Name() string { return n.name }

func (n *namedChecker) Kind() string {
	if k, ok := n.Checker.(interface{ Kind() string }); ok {
		return k.Kind()
	}
	return ""
}
