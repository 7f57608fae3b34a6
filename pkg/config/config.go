// pkg/config/config.go
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config - главная структура конфигурации
type Config struct {
	App        AppConfig        `koanf:"app"`
	Log        LogConfig        `koanf:"log"`
	Solver     SolverConfig     `koanf:"solver"`
	Physarum   PhysarumConfig   `koanf:"physarum"`
	ACO        ACOConfig        `koanf:"aco"`
	Cost       CostConfig       `koanf:"cost"`
	Sweep      SweepConfig      `koanf:"sweep"`
	Report     ReportConfig     `koanf:"report"`
	Metrics    MetricsConfig    `koanf:"metrics"`
	Tracing    TracingConfig    `koanf:"tracing"`
	Watch      WatchConfig      `koanf:"watch"`
	Journal    JournalConfig    `koanf:"journal"`
	Resilience ResilienceConfig `koanf:"resilience"`
}

// AppConfig - общие настройки приложения
type AppConfig struct {
	Name        string `koanf:"name" validate:"required"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"` // development, staging, production
}

// LogConfig - настройки логирования
type LogConfig struct {
	Level      string `koanf:"level"`
	Format     string `koanf:"format"` // json, text
	Output     string `koanf:"output"` // stdout, stderr, file
	FilePath   string `koanf:"file_path"`
	MaxSize    int    `koanf:"max_size"` // MB
	MaxBackups int    `koanf:"max_backups"`
	MaxAge     int    `koanf:"max_age"` // days
	Compress   bool   `koanf:"compress"`
}

// SolverConfig - общие настройки запуска оптимизации
type SolverConfig struct {
	Algorithm string        `koanf:"algorithm"` // ppa, aco, dijkstra, astar, all
	Network   string        `koanf:"network"`   // путь к файлу сети
	Seed      int64         `koanf:"seed"`      // 0 - выбрать по времени
	Timeout   time.Duration `koanf:"timeout"`
	Tolerance float64       `koanf:"tolerance" validate:"gte=0"`

	// RelTolerance доля ожидаемого потока узла, допустимая как расхождение
	RelTolerance float64 `koanf:"rel_tolerance" validate:"gte=0,lt=1"`
}

// PhysarumConfig - гиперпараметры PPA
type PhysarumConfig struct {
	Epsilon       float64 `koanf:"epsilon" validate:"gt=0"`
	MaxIterations int     `koanf:"max_iterations" validate:"gte=1"`
	PruneInterval int     `koanf:"prune_interval" validate:"gte=0"`
	MinCapacity   float64 `koanf:"min_capacity" validate:"gte=0"`
	Normalize     bool    `koanf:"normalize"`
	Parallel      bool    `koanf:"parallel"`
	Workers       int     `koanf:"workers" validate:"gte=0"`
}

// ACOConfig - гиперпараметры муравьиного алгоритма
type ACOConfig struct {
	Alpha           float64 `koanf:"alpha" validate:"gte=0"`
	Beta            float64 `koanf:"beta" validate:"gte=0"`
	Rho             float64 `koanf:"rho" validate:"gt=0,lt=1"`
	Q               float64 `koanf:"q" validate:"gt=0"`
	MinPheromone    float64 `koanf:"min_pheromone" validate:"gt=0"`
	Ants            int     `koanf:"ants" validate:"gte=1"`
	Generations     int     `koanf:"generations" validate:"gte=1"`
	StagnationLimit int     `koanf:"stagnation_limit" validate:"gte=1"`
	TopRatio        float64 `koanf:"top_ratio" validate:"gte=0,lte=1"`
	MaxRetries      int     `koanf:"max_retries" validate:"gte=0"`
	BoostPheromone  float64 `koanf:"boost_pheromone" validate:"gt=0"`
	JitterPheromone float64 `koanf:"jitter_pheromone" validate:"gte=0"`
	Epsilon         float64 `koanf:"epsilon" validate:"gte=0"`
}

// CostConfig - модель эффективного расстояния E(Q)
type CostConfig struct {
	Kind string `koanf:"kind"` // exponential, linear, bpr

	// exponential: Base + Scale*exp(-Decay*Q)
	Base  float64 `koanf:"base"`
	Scale float64 `koanf:"scale"`
	Decay float64 `koanf:"decay"`

	// linear: Base + Slope*Q
	Slope float64 `koanf:"slope"`

	// bpr: FreeFlow*(1 + Alpha*(Q/Capacity)^Power)
	FreeFlow float64 `koanf:"free_flow"`
	Capacity float64 `koanf:"capacity"`
	Alpha    float64 `koanf:"alpha"`
	Power    float64 `koanf:"power"`

	// Numeric заменяет аналитическую производную центральной разностью
	Numeric bool    `koanf:"numeric"`
	Step    float64 `koanf:"step"`
}

// SweepConfig - настройки серии прогонов с возмущённым спросом
type SweepConfig struct {
	Samples      int     `koanf:"samples" validate:"gte=0"`
	Workers      int     `koanf:"workers" validate:"gte=0"`
	Distribution string  `koanf:"distribution"` // none, uniform, normal, triangular
	Spread       float64 `koanf:"spread" validate:"gte=0"`
}

// ReportConfig - настройки отчётов
type ReportConfig struct {
	Formats   []string `koanf:"formats"`
	OutputDir string   `koanf:"output_dir"`
	Title     string   `koanf:"title"`
	MaxRows   int      `koanf:"max_rows" validate:"gte=0"` // 0 - без ограничения
	Console   bool     `koanf:"console"`
}

// MetricsConfig - настройки метрик (textfile для node_exporter)
type MetricsConfig struct {
	Enabled   bool   `koanf:"enabled"`
	Namespace string `koanf:"namespace"`
	Subsystem string `koanf:"subsystem"`
	Textfile  string `koanf:"textfile"`
}

// TracingConfig - настройки трассировки
type TracingConfig struct {
	Enabled     bool    `koanf:"enabled"`
	Exporter    string  `koanf:"exporter"` // stdout, otlp
	Endpoint    string  `koanf:"endpoint"`
	Insecure    bool    `koanf:"insecure"`
	ServiceName string  `koanf:"service_name"`
	SampleRate  float64 `koanf:"sample_rate" validate:"gte=0,lte=1"`
}

// WatchConfig - перезапуск при изменении файла сети
type WatchConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Debounce time.Duration `koanf:"debounce"`
	MaxRuns  int           `koanf:"max_runs" validate:"gte=0"` // 0 - без ограничения
	Window   time.Duration `koanf:"window"`
}

// JournalConfig - журнал запусков (JSON Lines)
type JournalConfig struct {
	Enabled     bool          `koanf:"enabled"`
	Backend     string        `koanf:"backend"` // file, stderr
	FilePath    string        `koanf:"file_path"`
	BufferSize  int           `koanf:"buffer_size" validate:"gte=0"`
	FlushPeriod time.Duration `koanf:"flush_period"`
}

// ResilienceConfig - анализ отказов рёбер (N-1)
type ResilienceConfig struct {
	Enabled bool `koanf:"enabled"`
	Edges   int  `koanf:"edges" validate:"gte=0"` // 0 - все активные рёбра
	Workers int  `koanf:"workers" validate:"gte=0"`
}

var (
	validJournals     = []string{"file", "stderr"}
	validLogLevels    = []string{"debug", "info", "warn", "error"}
	validAlgorithms   = []string{"ppa", "aco", "dijkstra", "astar", "all"}
	validCostKinds    = []string{"exponential", "linear", "bpr"}
	validDistribution = []string{"none", "uniform", "normal", "triangular"}
	validFormats      = []string{"json", "csv", "markdown", "md", "xlsx", "pdf"}
	validExporters    = []string{"stdout", "otlp"}
)

var validate = validator.New()

// Validate проверяет корректность конфигурации
func (c *Config) Validate() error {
	var errs []string

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				errs = append(errs, fmt.Sprintf("%s failed on '%s' (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
		} else {
			errs = append(errs, err.Error())
		}
	}

	if c.Log.Level != "" && !contains(validLogLevels, c.Log.Level) {
		errs = append(errs, fmt.Sprintf("log.level must be one of: %s, got %s", strings.Join(validLogLevels, ", "), c.Log.Level))
	}

	if !contains(validAlgorithms, c.Solver.Algorithm) {
		errs = append(errs, fmt.Sprintf("solver.algorithm must be one of: %s, got %s", strings.Join(validAlgorithms, ", "), c.Solver.Algorithm))
	}

	if c.Solver.Timeout < 0 {
		errs = append(errs, "solver.timeout must be non-negative")
	}

	if !contains(validCostKinds, c.Cost.Kind) {
		errs = append(errs, fmt.Sprintf("cost.kind must be one of: %s, got %s", strings.Join(validCostKinds, ", "), c.Cost.Kind))
	}

	if c.Cost.Kind == "bpr" && c.Cost.Capacity <= 0 {
		errs = append(errs, "cost.capacity must be positive for bpr")
	}

	if c.Cost.Numeric && c.Cost.Step <= 0 {
		errs = append(errs, "cost.step must be positive when cost.numeric is set")
	}

	if c.Sweep.Distribution != "" && !contains(validDistribution, c.Sweep.Distribution) {
		errs = append(errs, fmt.Sprintf("sweep.distribution must be one of: %s, got %s", strings.Join(validDistribution, ", "), c.Sweep.Distribution))
	}

	for _, f := range c.Report.Formats {
		if !contains(validFormats, f) {
			errs = append(errs, fmt.Sprintf("report.formats: unknown format %s", f))
		}
	}

	if c.Tracing.Enabled && !contains(validExporters, c.Tracing.Exporter) {
		errs = append(errs, fmt.Sprintf("tracing.exporter must be one of: %s, got %s", strings.Join(validExporters, ", "), c.Tracing.Exporter))
	}

	if c.Tracing.Enabled && c.Tracing.Exporter == "otlp" && c.Tracing.Endpoint == "" {
		errs = append(errs, "tracing.endpoint is required for otlp exporter")
	}

	if c.Watch.Enabled && c.Watch.Debounce < 0 {
		errs = append(errs, "watch.debounce must be non-negative")
	}

	if c.Watch.MaxRuns > 0 && c.Watch.Window <= 0 {
		errs = append(errs, "watch.window must be positive when watch.max_runs is set")
	}

	if c.Journal.Enabled && !contains(validJournals, c.Journal.Backend) {
		errs = append(errs, fmt.Sprintf("journal.backend must be one of: %s, got %s", strings.Join(validJournals, ", "), c.Journal.Backend))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return nil
}

// IsDevelopment возвращает true для development окружения
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction возвращает true для production окружения
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
