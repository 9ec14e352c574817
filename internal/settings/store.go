package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/adequator/vscode-makefile-tools/internal/launch"
	"github.com/adequator/vscode-makefile-tools/internal/logging"
	"github.com/adequator/vscode-makefile-tools/internal/settings/loader"
)

// Default file locations, relative to the workspace root.
const (
	projectJSONFile = ".vscode/settings.json"
	projectYAMLFile = "makefile-tools.yaml"
	stateFile       = "state.json"
	dryRunCacheFile = "dryrun.log"
)

// state holds the user's current picks, persisted across sessions.
type state struct {
	CurrentConfiguration string
	CurrentTarget        string
	CurrentLaunch        string // launch.Configuration display form
}

// Store loads, merges and serves the extension settings.
//
// Store is safe for concurrent use.
type Store struct {
	mu sync.RWMutex

	workspaceRoot  string
	userConfigPath string
	fs             loader.FileSystem
	logger         *logging.Logger
	enableWatcher  bool

	settings Settings
	state    state

	watcher     *FileWatcher
	subscribers map[int]func(Settings)
	nextSubID   int
}

// Option configures a Store.
type Option func(*Store)

// WithWorkspaceRoot sets the workspace root directory.
func WithWorkspaceRoot(root string) Option {
	return func(s *Store) {
		s.workspaceRoot = root
	}
}

// WithUserConfigPath sets the user-level TOML config path.
func WithUserConfigPath(path string) Option {
	return func(s *Store) {
		s.userConfigPath = path
	}
}

// WithFileSystem sets the file system used by loaders.
func WithFileSystem(fs loader.FileSystem) Option {
	return func(s *Store) {
		s.fs = fs
	}
}

// WithWatcher enables live reload of settings files.
func WithWatcher(enable bool) Option {
	return func(s *Store) {
		s.enableWatcher = enable
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// NewStore creates a settings store for a workspace.
func NewStore(opts ...Option) *Store {
	s := &Store{
		fs:          loader.DefaultFS(),
		logger:      logging.NullLogger,
		settings:    Defaults(),
		subscribers: make(map[int]func(Settings)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.workspaceRoot == "" {
		s.workspaceRoot, _ = os.Getwd()
	}
	if s.userConfigPath == "" {
		s.userConfigPath = defaultUserConfigPath()
	}
	return s
}

// defaultUserConfigPath returns the user-level config location.
func defaultUserConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "makefile-tools", "config.toml")
}

// Load reads all layers, merges them and loads persisted state. Later
// layers win: defaults < user < project JSON < project YAML < environment.
func (s *Store) Load(_ context.Context) error {
	loaders := []loader.Loader{}
	if s.userConfigPath != "" {
		loaders = append(loaders, loader.NewTOMLLoaderWithFS(s.fs, s.userConfigPath))
	}
	loaders = append(loaders,
		loader.NewJSONLoaderWithFS(s.fs, filepath.Join(s.workspaceRoot, projectJSONFile)),
		loader.NewYAMLLoaderWithFS(s.fs, filepath.Join(s.workspaceRoot, projectYAMLFile)),
		loader.NewEnvLoader(),
	)

	merged := settingsToMap(Defaults())
	for _, l := range loaders {
		layer, err := l.Load()
		if err != nil {
			return err
		}
		if layer != nil {
			merged = loader.DeepMerge(merged, layer)
		}
	}

	decoded, err := mapToSettings(merged)
	if err != nil {
		return fmt.Errorf("decode settings: %w", err)
	}

	s.mu.Lock()
	s.settings = decoded
	s.loadStateLocked()
	s.mu.Unlock()

	if s.enableWatcher && s.watcher == nil {
		if err := s.startWatcher(); err != nil {
			s.logger.Warn("settings watcher unavailable: %v", err)
		}
	}

	s.notify()
	return nil
}

// startWatcher begins watching the settings files for live reload.
func (s *Store) startWatcher() error {
	w, err := NewFileWatcher()
	if err != nil {
		return err
	}
	watchPaths := []string{
		filepath.Join(s.workspaceRoot, projectJSONFile),
		filepath.Join(s.workspaceRoot, projectYAMLFile),
	}
	if s.userConfigPath != "" {
		watchPaths = append(watchPaths, s.userConfigPath)
	}
	for _, p := range watchPaths {
		if err := w.Watch(p); err != nil {
			s.logger.Debug("watch %s: %v", p, err)
		}
	}
	w.OnChange(func(path string) {
		s.logger.Debug("settings file changed: %s", path)
		if err := s.Load(context.Background()); err != nil {
			s.logger.Error("settings reload failed: %v", err)
		}
	})
	s.watcher = w
	return nil
}

// Subscribe registers a callback invoked after every successful load. The
// returned function removes the subscription.
func (s *Store) Subscribe(fn func(Settings)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

// notify calls subscribers with the current settings, outside the lock.
func (s *Store) notify() {
	s.mu.RLock()
	snapshot := s.settings
	subs := make([]func(Settings), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.mu.RUnlock()

	for _, fn := range subs {
		fn(snapshot)
	}
}

// Close stops the watcher.
func (s *Store) Close() error {
	s.mu.Lock()
	w := s.watcher
	s.watcher = nil
	s.mu.Unlock()

	if w != nil {
		return w.Close()
	}
	return nil
}

// Snapshot returns the current merged settings.
func (s *Store) Snapshot() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// WorkspaceRoot returns the workspace root directory.
func (s *Store) WorkspaceRoot() string {
	return s.workspaceRoot
}

// CurrentConfigurationName returns the active configuration name.
func (s *Store) CurrentConfigurationName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.CurrentConfiguration
}

// CurrentTarget returns the current build target.
func (s *Store) CurrentTarget() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.CurrentTarget
}

// CurrentLaunchConfiguration returns the persisted launch pick in its
// display form, empty when none is set.
func (s *Store) CurrentLaunchConfiguration() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.CurrentLaunch
}

// expander builds a variable expander bound to the current picks.
func (s *Store) expander() *Expander {
	return NewExpander(s.workspaceRoot, s.CurrentConfigurationName, s.CurrentTarget)
}

// resolvePath expands variables and resolves relative paths against the
// workspace root. Empty stays empty.
func (s *Store) resolvePath(exp *Expander, path string) string {
	if path == "" {
		return ""
	}
	path = exp.Expand(path)
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.workspaceRoot, path)
	}
	return path
}

// OutputFolder returns the resolved extension output folder.
func (s *Store) OutputFolder() string {
	s.mu.RLock()
	folder := s.settings.ExtensionOutputFolder
	s.mu.RUnlock()

	if folder == "" {
		folder = Defaults().ExtensionOutputFolder
	}
	return s.resolvePath(s.expander(), folder)
}

// statePath returns the persisted state location.
func (s *Store) statePath() string {
	return filepath.Join(s.OutputFolder(), stateFile)
}

// PreConfigureScript returns the resolved pre-configure script path, empty
// when not configured.
func (s *Store) PreConfigureScript() string {
	s.mu.RLock()
	script := s.settings.PreConfigureScript
	s.mu.RUnlock()
	return s.resolvePath(s.expander(), script)
}

// AlwaysPreConfigure reports whether configure operations should run the
// pre-configure script first.
func (s *Store) AlwaysPreConfigure() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.AlwaysPreConfigure
}

// BuildContext resolves the explicit context for build and dry-run
// operations from the merged settings and the active configuration.
func (s *Store) BuildContext() BuildContext {
	s.mu.RLock()
	st := s.settings
	current := s.state
	s.mu.RUnlock()

	cfg, _ := st.ConfigurationByName(current.CurrentConfiguration)
	exp := s.expander()

	pick := func(override, base string) string {
		if override != "" {
			return override
		}
		return base
	}

	makePath := exp.Expand(pick(cfg.MakePath, st.MakePath))
	if makePath == "" {
		makePath = "make"
	}

	workingDir := s.resolvePath(exp, pick(cfg.MakeDirectory, st.MakeDirectory))
	if workingDir == "" {
		workingDir = s.workspaceRoot
	}

	makefilePath := s.resolvePath(exp, pick(cfg.MakefilePath, st.MakefilePath))

	var configured []string
	if makefilePath != "" {
		configured = append(configured, "-f", makefilePath)
	}
	configured = append(configured, exp.ExpandAll(cfg.MakeArgs)...)

	return BuildContext{
		ConfigurationName: current.CurrentConfiguration,
		MakePath:          makePath,
		WorkingDir:        workingDir,
		Target:            current.CurrentTarget,
		ConfiguredArgs:    configured,
		DryRunSwitches:    exp.ExpandAll(st.DryrunSwitches),
		BuildLogPath:      s.resolvePath(exp, pick(cfg.BuildLog, st.BuildLog)),
		CachePath:         filepath.Join(s.OutputFolder(), dryRunCacheFile),
	}
}

// MakefileLocation returns the directory to search for a makefile and the
// configured override, for target discovery.
func (s *Store) MakefileLocation() (dir, override string) {
	ctx := s.BuildContext()
	override = ""
	for i, arg := range ctx.ConfiguredArgs {
		if arg == "-f" && i+1 < len(ctx.ConfiguredArgs) {
			override = ctx.ConfiguredArgs[i+1]
			break
		}
	}
	return ctx.WorkingDir, override
}

// LaunchContext returns the current launch configuration context. The
// persisted pick must still match a configured launch configuration;
// otherwise the context is empty.
func (s *Store) LaunchContext() launch.Context {
	s.mu.RLock()
	st := s.settings
	pick := s.state.CurrentLaunch
	s.mu.RUnlock()

	if pick == "" {
		return launch.NewContext(nil)
	}

	exp := s.expander()
	for _, cfg := range st.LaunchConfigurations {
		resolved := launch.Configuration{
			BinaryPath: s.resolvePath(exp, cfg.BinaryPath),
			CWD:        s.resolvePath(exp, cfg.CWD),
			BinaryArgs: exp.ExpandAll(cfg.BinaryArgs),
		}
		if cfg.String() == pick || resolved.String() == pick {
			return launch.NewContext(&resolved)
		}
	}

	s.logger.Debug("persisted launch configuration %q no longer configured", pick)
	return launch.NewContext(nil)
}

// SetCurrentConfiguration sets and persists the active configuration.
func (s *Store) SetCurrentConfiguration(name string) error {
	if name != "" {
		s.mu.RLock()
		_, ok := s.settings.ConfigurationByName(name)
		s.mu.RUnlock()
		if !ok {
			return fmt.Errorf("unknown configuration %q", name)
		}
	}

	s.mu.Lock()
	s.state.CurrentConfiguration = name
	s.mu.Unlock()
	return s.saveState()
}

// SetCurrentTarget sets and persists the current build target.
func (s *Store) SetCurrentTarget(target string) error {
	s.mu.Lock()
	s.state.CurrentTarget = target
	s.mu.Unlock()
	return s.saveState()
}

// SetCurrentLaunchConfiguration sets and persists the current launch
// configuration. It must be one of the configured launch configurations.
func (s *Store) SetCurrentLaunchConfiguration(cfg launch.Configuration) error {
	s.mu.RLock()
	found := false
	for _, candidate := range s.settings.LaunchConfigurations {
		if candidate.String() == cfg.String() {
			found = true
			break
		}
	}
	s.mu.RUnlock()
	if !found {
		return fmt.Errorf("launch configuration %s is not configured", cfg)
	}

	s.mu.Lock()
	s.state.CurrentLaunch = cfg.String()
	s.mu.Unlock()
	return s.saveState()
}

// ClearCurrentLaunchConfiguration unsets the current launch configuration.
func (s *Store) ClearCurrentLaunchConfiguration() error {
	s.mu.Lock()
	s.state.CurrentLaunch = ""
	s.mu.Unlock()
	return s.saveState()
}

// loadStateLocked reads persisted picks. Requires s.mu held.
func (s *Store) loadStateLocked() {
	path := filepath.Join(s.resolveOutputFolderLocked(), stateFile)
	data, err := s.fs.ReadFile(path)
	if err != nil {
		return
	}

	s.state.CurrentConfiguration = gjson.GetBytes(data, "currentConfiguration").String()
	s.state.CurrentTarget = gjson.GetBytes(data, "currentTarget").String()
	s.state.CurrentLaunch = gjson.GetBytes(data, "currentLaunchConfiguration").String()

	// A persisted configuration that no longer exists is dropped.
	if s.state.CurrentConfiguration != "" {
		if _, ok := s.settings.ConfigurationByName(s.state.CurrentConfiguration); !ok {
			s.state.CurrentConfiguration = ""
		}
	}
}

// resolveOutputFolderLocked resolves the output folder without taking the
// lock again. Variable expansion for the folder itself only covers the
// workspace variables, which need no lock.
func (s *Store) resolveOutputFolderLocked() string {
	folder := s.settings.ExtensionOutputFolder
	if folder == "" {
		folder = Defaults().ExtensionOutputFolder
	}
	exp := NewExpander(s.workspaceRoot, nil, nil)
	folder = exp.Expand(folder)
	if !filepath.IsAbs(folder) {
		folder = filepath.Join(s.workspaceRoot, folder)
	}
	return folder
}

// saveState persists the current picks to the state file.
func (s *Store) saveState() error {
	path := s.statePath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	doc := "{}"
	if data, err := os.ReadFile(path); err == nil && gjson.ValidBytes(data) {
		doc = string(data)
	}

	s.mu.RLock()
	st := s.state
	s.mu.RUnlock()

	var err error
	if doc, err = sjson.Set(doc, "currentConfiguration", st.CurrentConfiguration); err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if doc, err = sjson.Set(doc, "currentTarget", st.CurrentTarget); err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if doc, err = sjson.Set(doc, "currentLaunchConfiguration", st.CurrentLaunch); err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return nil
}

// settingsToMap converts a Settings value into a raw layer map.
func settingsToMap(s Settings) map[string]any {
	data, err := json.Marshal(s)
	if err != nil {
		return map[string]any{}
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return map[string]any{}
	}
	return m
}

// mapToSettings decodes a merged layer map into Settings.
func mapToSettings(m map[string]any) (Settings, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return Settings{}, err
	}
	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return Settings{}, err
	}
	return s, nil
}
