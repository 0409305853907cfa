// Package lifecycle implements the Lifecycle Manager: the façade that owns
// the engine handle, the plugin directory, the component registry, and
// every component's policy-derived sandbox template (spec §4.6).
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Wasm-Cell/wasmcell/internal/domain/audit"
	"github.com/Wasm-Cell/wasmcell/internal/domain/component"
	"github.com/Wasm-Cell/wasmcell/internal/domain/policy"
	"github.com/Wasm-Cell/wasmcell/internal/domain/sandbox"
	"github.com/Wasm-Cell/wasmcell/internal/domain/schema"
	"github.com/Wasm-Cell/wasmcell/internal/port/outbound"
)

// ErrComponentNotFound is returned by every operation that names a
// component id absent from the registry, using spec §4.6's exact phrasing
// so it can surface verbatim to an MCP caller.
var ErrComponentNotFound = errors.New("Component not found")

// LoadResult distinguishes a fresh install from a replacement (spec §4.6
// step 7).
type LoadResult int

const (
	LoadResultNew LoadResult = iota
	LoadResultReplaced
)

func (r LoadResult) String() string {
	if r == LoadResultReplaced {
		return "Replaced"
	}
	return "New"
}

// componentState is everything the Manager tracks per loaded component
// beyond what the shared component.Registry indexes: its sandbox template
// and its policy metadata. The compiled handle is not kept here;
// Registry.GetComponent exposes it.
type componentState struct {
	template   sandbox.Template
	policyInfo *policy.Info
}

// Manager is the Lifecycle Manager façade (spec §4.6).
type Manager struct {
	engine     outbound.Engine
	pluginDir  string
	httpClient *http.Client
	auditStore audit.LifecycleStore
	logger     *slog.Logger
	metrics    *Metrics

	registry *component.Registry

	mu              sync.RWMutex
	states          map[string]*componentState
	defaultTemplate sandbox.Template
	notifier        ChangeNotifier
}

// downloadsDir is the pluginDir/downloads directory New creates. Artifact
// downloads are staged in system temp directories by the artifact package,
// not here.
func downloadsDir(pluginDir string) string { return filepath.Join(pluginDir, "downloads") }

// New constructs a Manager, ensures pluginDir/downloads exist, derives the
// default sandbox template from policyFile (if non-empty), and scans
// pluginDir for pre-existing .wasm components (spec §4.6 Initialization).
func New(ctx context.Context, pluginDir, policyFile string, engine outbound.Engine, httpClient *http.Client, auditStore audit.LifecycleStore, logger *slog.Logger) (*Manager, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	if err := os.MkdirAll(pluginDir, 0o755); err != nil {
		return nil, fmt.Errorf("create plugin directory: %w", err)
	}
	if err := os.MkdirAll(downloadsDir(pluginDir), 0o755); err != nil {
		return nil, fmt.Errorf("create downloads directory: %w", err)
	}

	defaultTemplate := sandbox.Empty()
	if policyFile != "" {
		doc, err := policy.ParseFile(policyFile)
		if err != nil {
			return nil, fmt.Errorf("parse policy file %s: %w", policyFile, err)
		}
		defaultTemplate = sandbox.Build(doc, pluginDir)
	}

	m := &Manager{
		engine:          engine,
		pluginDir:       pluginDir,
		httpClient:      httpClient,
		auditStore:      auditStore,
		logger:          logger,
		metrics:         newMetrics(),
		registry:        component.New(),
		states:          map[string]*componentState{},
		defaultTemplate: defaultTemplate,
	}

	if err := m.scanPluginDir(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

// scanPluginDir implements spec §4.6's startup scan: one compile task per
// .wasm file, run concurrently; any compile failure aborts startup.
func (m *Manager) scanPluginDir(ctx context.Context) error {
	entries, err := os.ReadDir(m.pluginDir)
	if err != nil {
		return fmt.Errorf("scan plugin directory: %w", err)
	}

	type result struct {
		id   string
		path string
		err  error
	}

	var wg sync.WaitGroup
	results := make(chan result, len(entries))

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".wasm") {
			continue
		}
		path := filepath.Join(m.pluginDir, e.Name())
		id := strings.TrimSuffix(e.Name(), ".wasm")

		wg.Add(1)
		go func(id, path string) {
			defer wg.Done()
			err := m.loadFromDisk(ctx, id, path)
			results <- result{id: id, path: path, err: err}
		}(id, path)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	for r := range results {
		if r.err != nil {
			return fmt.Errorf("failed to compile component from path: %s: %w", r.path, r.err)
		}
	}
	return nil
}

// loadFromDisk compiles an already-resident artifact and wires its policy
// sidecar, if any, without going through the download/copy steps of
// LoadComponent (which only apply to a fresh load).
func (m *Manager) loadFromDisk(ctx context.Context, id, path string) error {
	wasmBytes, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	compiled, err := m.engine.Compile(ctx, wasmBytes)
	if err != nil {
		return err
	}
	tools := schema.ExportsToTools(compiled)
	if err := m.registry.RegisterAndInstall(id, compiled, tools); err != nil {
		return err
	}

	template := m.defaultTemplate
	policyPath := filepath.Join(m.pluginDir, id+".policy.yaml")
	var info *policy.Info
	if doc, err := policy.ParseFile(policyPath); err == nil {
		template = sandbox.Build(doc, m.pluginDir)
		info = m.loadPolicyInfo(id, policyPath)
	}

	m.mu.Lock()
	m.states[id] = &componentState{template: template, policyInfo: info}
	m.mu.Unlock()
	return nil
}
