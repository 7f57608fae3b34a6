package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const (
	envPrefix    = "SUPPLYNET_"
	configEnvVar = "SUPPLYNET_CONFIG_PATH"
)

// Loader загружает конфигурацию из разных источников
type Loader struct {
	k           *koanf.Koanf
	configPaths []string
	configFile  string
	envPrefix   string
	flags       *pflag.FlagSet
	source      string
}

// NewLoader создаёт новый загрузчик конфигурации
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		k: koanf.New("."),
		configPaths: []string{
			"supplynet.yaml",
			"supplynet.toml",
			"config/supplynet.yaml",
			"/etc/supplynet/supplynet.yaml",
		},
		envPrefix: envPrefix,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// LoaderOption - опция для конфигурации загрузчика
type LoaderOption func(*Loader)

// WithConfigPaths устанавливает пути поиска конфигурации
func WithConfigPaths(paths ...string) LoaderOption {
	return func(l *Loader) {
		l.configPaths = paths
	}
}

// WithConfigFile задаёт явный файл конфигурации (флаг --config).
// В отличие от путей поиска, отсутствие такого файла - ошибка.
func WithConfigFile(path string) LoaderOption {
	return func(l *Loader) {
		l.configFile = path
	}
}

// WithEnvPrefix устанавливает префикс переменных окружения
func WithEnvPrefix(prefix string) LoaderOption {
	return func(l *Loader) {
		l.envPrefix = prefix
	}
}

// WithFlags подключает флаги командной строки как самый приоритетный источник
func WithFlags(fs *pflag.FlagSet) LoaderOption {
	return func(l *Loader) {
		l.flags = fs
	}
}

// Load загружает конфигурацию с приоритетом:
// 1. Defaults (самый низкий)
// 2. Config file (yaml или toml)
// 3. Environment variables
// 4. Command-line flags (самый высокий)
func (l *Loader) Load() (*Config, error) {
	// 1. Загружаем значения по умолчанию
	if err := l.loadDefaults(); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Загружаем из файла конфигурации
	if err := l.loadConfigFile(); err != nil {
		return nil, err
	}

	// 3. Загружаем из переменных окружения (перезаписывают файл)
	if err := l.loadEnv(); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}

	// 4. Флаги командной строки
	if err := l.loadFlags(); err != nil {
		return nil, fmt.Errorf("failed to load flags: %w", err)
	}

	// 5. Распаковываем в структуру
	var cfg Config
	if err := l.k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 6. Валидируем
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Source возвращает путь к файлу, из которого была прочитана конфигурация
func (l *Loader) Source() string {
	return l.source
}

// loadDefaults загружает значения по умолчанию
func (l *Loader) loadDefaults() error {
	defaults := map[string]any{
		// App
		"app.name":        "supplynet",
		"app.version":     "1.0.0",
		"app.environment": "development",

		// Log
		"log.level":       "info",
		"log.format":      "text",
		"log.output":      "stderr",
		"log.file_path":   "logs/supplynet.log",
		"log.max_size":    100,
		"log.max_backups": 3,
		"log.max_age":     7,
		"log.compress":    true,

		// Solver
		"solver.algorithm":     "ppa",
		"solver.network":       "",
		"solver.seed":          int64(0),
		"solver.timeout":       5 * time.Minute,
		"solver.tolerance":     0.5,
		"solver.rel_tolerance": 0.0,

		// Physarum
		"physarum.epsilon":        1e-2,
		"physarum.max_iterations": 100,
		"physarum.prune_interval": 10,
		"physarum.min_capacity":   1.0,
		"physarum.normalize":      true,
		"physarum.parallel":       false,
		"physarum.workers":        0,

		// ACO
		"aco.alpha":            1.0,
		"aco.beta":             2.0,
		"aco.rho":              0.1,
		"aco.q":                100.0,
		"aco.min_pheromone":    1e-4,
		"aco.ants":             15,
		"aco.generations":      60,
		"aco.stagnation_limit": 10,
		"aco.top_ratio":        0.3,
		"aco.max_retries":      3,
		"aco.boost_pheromone":  5.0,
		"aco.jitter_pheromone": 0.1,
		"aco.epsilon":          1e-2,

		// Cost: E(Q) = 5 + 3*exp(-0.3Q)
		"cost.kind":      "exponential",
		"cost.base":      5.0,
		"cost.scale":     3.0,
		"cost.decay":     0.3,
		"cost.slope":     0.0,
		"cost.free_flow": 1.0,
		"cost.capacity":  10.0,
		"cost.alpha":     0.15,
		"cost.power":     4.0,
		"cost.numeric":   false,
		"cost.step":      1e-4,

		// Sweep
		"sweep.samples":      0,
		"sweep.workers":      4,
		"sweep.distribution": "uniform",
		"sweep.spread":       0.2,

		// Report
		"report.formats":    []string{},
		"report.output_dir": "reports",
		"report.title":      "Supply network flow report",
		"report.max_rows":   0,
		"report.console":    true,

		// Metrics
		"metrics.enabled":   false,
		"metrics.namespace": "supplynet",
		"metrics.subsystem": "solver",
		"metrics.textfile":  "",

		// Tracing
		"tracing.enabled":      false,
		"tracing.exporter":     "stdout",
		"tracing.endpoint":     "localhost:4317",
		"tracing.insecure":     true,
		"tracing.service_name": "supplynet",
		"tracing.sample_rate":  1.0,

		// Watch
		"watch.enabled":  false,
		"watch.debounce": 500 * time.Millisecond,
		"watch.max_runs": 0,
		"watch.window":   time.Minute,

		// Journal
		"journal.enabled":      false,
		"journal.backend":      "file",
		"journal.file_path":    "supplynet-journal.jsonl",
		"journal.buffer_size":  100,
		"journal.flush_period": time.Second,

		// Resilience
		"resilience.enabled": false,
		"resilience.edges":   0,
		"resilience.workers": 4,
	}

	return l.k.Load(confmap.Provider(defaults, "."), nil)
}

// loadConfigFile загружает конфигурацию из файла.
// Явный файл обязателен, файлы из путей поиска - нет.
func (l *Loader) loadConfigFile() error {
	if l.configFile != "" {
		if _, err := os.Stat(l.configFile); err != nil {
			return fmt.Errorf("config file %s: %w", l.configFile, err)
		}
		return l.loadFile(l.configFile)
	}

	if configPath := os.Getenv(configEnvVar); configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return l.loadFile(configPath)
		}
	}

	for _, path := range l.configPaths {
		absPath, err := filepath.Abs(path)
		if err != nil {
			continue
		}

		if _, err := os.Stat(absPath); err == nil {
			return l.loadFile(absPath)
		}
	}

	return nil
}

// loadFile выбирает парсер по расширению файла
func (l *Loader) loadFile(path string) error {
	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		parser = toml.Parser()
	default:
		parser = yaml.Parser()
	}

	if err := l.k.Load(file.Provider(path), parser); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	l.source = path
	return nil
}

// loadEnv загружает конфигурацию из переменных окружения
// Использует явный маппинг ключей для полей с подчёркиванием
func (l *Loader) loadEnv() error {
	return l.k.Load(env.ProviderWithValue(l.envPrefix, ".", func(envKey string, value string) (string, interface{}) {
		// Убираем префикс и приводим к нижнему регистру
		key := strings.ToLower(strings.TrimPrefix(envKey, l.envPrefix))

		// Путь к файлу конфигурации уже учтён
		if envKey == configEnvVar {
			return "", nil
		}

		if mappedKey, ok := envKeyMappings[key]; ok {
			key = mappedKey
		} else {
			// По умолчанию заменяем первое подчёркивание на точку
			key = strings.Replace(key, "_", ".", 1)
		}

		// Для slice-полей разбиваем по запятой
		if isSliceField(key) {
			return key, splitAndTrim(value)
		}

		return key, value
	}), nil)
}

// loadFlags накладывает изменённые флаги поверх остальных источников
func (l *Loader) loadFlags() error {
	if l.flags == nil {
		return nil
	}

	err := l.k.Load(posflag.ProviderWithFlag(l.flags, ".", l.k, func(f *pflag.Flag) (string, interface{}) {
		key, ok := flagKeyMappings[f.Name]
		if !ok {
			return "", nil
		}
		return key, posflag.FlagVal(l.flags, f)
	}), nil)
	if err != nil {
		return err
	}

	overrides := map[string]any{}

	// --journal PATH включает файловый журнал
	if f := l.flags.Lookup("journal"); f != nil && f.Changed {
		overrides["journal.enabled"] = true
		overrides["journal.backend"] = "file"
	}

	// --resilience N включает анализ отказов N самых загруженных рёбер
	if f := l.flags.Lookup("resilience"); f != nil && f.Changed {
		overrides["resilience.enabled"] = true
	}

	if len(overrides) == 0 {
		return nil
	}
	return l.k.Load(confmap.Provider(overrides, "."), nil)
}

// envKeyMappings - маппинг переменных окружения на ключи конфига
// Необходим для полей, содержащих подчёркивания в именах
var envKeyMappings = map[string]string{
	// Log
	"log_file_path":   "log.file_path",
	"log_max_size":    "log.max_size",
	"log_max_backups": "log.max_backups",
	"log_max_age":     "log.max_age",

	// Solver
	"solver_rel_tolerance": "solver.rel_tolerance",

	// Physarum
	"physarum_max_iterations": "physarum.max_iterations",
	"physarum_prune_interval": "physarum.prune_interval",
	"physarum_min_capacity":   "physarum.min_capacity",

	// ACO
	"aco_min_pheromone":    "aco.min_pheromone",
	"aco_stagnation_limit": "aco.stagnation_limit",
	"aco_top_ratio":        "aco.top_ratio",
	"aco_max_retries":      "aco.max_retries",
	"aco_boost_pheromone":  "aco.boost_pheromone",
	"aco_jitter_pheromone": "aco.jitter_pheromone",

	// Cost
	"cost_free_flow": "cost.free_flow",

	// Report
	"report_output_dir": "report.output_dir",
	"report_max_rows":   "report.max_rows",

	// Tracing
	"tracing_service_name": "tracing.service_name",
	"tracing_sample_rate":  "tracing.sample_rate",

	// Watch
	"watch_max_runs": "watch.max_runs",

	// Journal
	"journal_file_path":    "journal.file_path",
	"journal_buffer_size":  "journal.buffer_size",
	"journal_flush_period": "journal.flush_period",
}

// flagKeyMappings - маппинг флагов CLI на ключи конфига
var flagKeyMappings = map[string]string{
	"network":       "solver.network",
	"algorithm":     "solver.algorithm",
	"seed":          "solver.seed",
	"timeout":       "solver.timeout",
	"tolerance":     "solver.tolerance",
	"rel-tolerance": "solver.rel_tolerance",
	"format":        "report.formats",
	"out":           "report.output_dir",
	"sweep":         "sweep.samples",
	"metrics-file":  "metrics.textfile",
	"watch":         "watch.enabled",
	"log-level":     "log.level",
	"trace":         "tracing.enabled",
	"parallel":      "physarum.parallel",
	"journal":       "journal.file_path",
	"resilience":    "resilience.edges",
}

// sliceFields - поля, которые должны парситься как слайсы
var sliceFields = map[string]bool{
	"report.formats": true,
}

func isSliceField(key string) bool {
	return sliceFields[key]
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// MustLoad загружает конфигурацию или паникует
func MustLoad(opts ...LoaderOption) *Config {
	cfg, err := NewLoader(opts...).Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// Load - удобная функция для загрузки с дефолтными настройками
func Load() (*Config, error) {
	return NewLoader().Load()
}

// Default возвращает конфигурацию только из значений по умолчанию,
// без файлов и переменных окружения
func Default() *Config {
	l := NewLoader()
	if err := l.loadDefaults(); err != nil {
		panic(fmt.Sprintf("failed to load defaults: %v", err))
	}
	var cfg Config
	if err := l.k.Unmarshal("", &cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal defaults: %v", err))
	}
	return &cfg
}
