// Package config loads comparador settings from defaults, an optional TOML
// file, COMPARADOR_* environment variables and bound command-line flags, in
// increasing order of precedence.
package config

import (
	"io"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/juju/errors"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"comparador/internal/split"
)

type Config struct {
	Seed                   int64         `mapstructure:"seed" toml:"seed"`
	Mode                   string        `mapstructure:"mode" toml:"mode" validate:"oneof=classification regression"`
	Workers                int           `mapstructure:"workers" toml:"workers" validate:"gte=1"`
	ContinueOnModelFailure bool          `mapstructure:"continue_on_model_failure" toml:"continue_on_model_failure"`
	Split                  split.Options `mapstructure:"split" toml:"split"`
	Models                 Models        `mapstructure:"models" toml:"models"`
	Server                 Server        `mapstructure:"server" toml:"server"`
}

// Models holds hyper-parameters of the default rosters.
type Models struct {
	Laplace              float64 `mapstructure:"laplace" toml:"laplace" validate:"gte=0"`
	TreeMaxDepth         int     `mapstructure:"tree_max_depth" toml:"tree_max_depth" validate:"gte=1"`
	TreeMinSamples       int     `mapstructure:"tree_min_samples" toml:"tree_min_samples" validate:"gte=2"`
	ForestTrees          int     `mapstructure:"forest_trees" toml:"forest_trees" validate:"gte=1"`
	ForestMaxDepth       int     `mapstructure:"forest_max_depth" toml:"forest_max_depth" validate:"gte=1"`
	LogisticEpochs       int     `mapstructure:"logistic_epochs" toml:"logistic_epochs" validate:"gte=1"`
	LogisticLearningRate float64 `mapstructure:"logistic_learning_rate" toml:"logistic_learning_rate" validate:"gt=0"`
	LogisticRidge        float64 `mapstructure:"logistic_ridge" toml:"logistic_ridge" validate:"gte=0"`
	LinearRidge          float64 `mapstructure:"linear_ridge" toml:"linear_ridge" validate:"gte=0"`
	BoostingRounds       int     `mapstructure:"boosting_rounds" toml:"boosting_rounds" validate:"gte=1"`
	BoostingLearningRate float64 `mapstructure:"boosting_learning_rate" toml:"boosting_learning_rate" validate:"gt=0,lte=1"`
	MLPHidden            int     `mapstructure:"mlp_hidden" toml:"mlp_hidden" validate:"gte=0"`
	MLPEpochs            int     `mapstructure:"mlp_epochs" toml:"mlp_epochs" validate:"gte=1"`
	MLPLearningRate      float64 `mapstructure:"mlp_learning_rate" toml:"mlp_learning_rate" validate:"gt=0"`
}

type Server struct {
	Port           string        `mapstructure:"port" toml:"port" validate:"required,numeric"`
	APIKey         string        `mapstructure:"api_key" toml:"api_key"`
	JobTTL         time.Duration `mapstructure:"job_ttl" toml:"job_ttl" validate:"gt=0"`
	MaxUploadBytes int64         `mapstructure:"max_upload_bytes" toml:"max_upload_bytes" validate:"gt=0"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("seed", int64(1))
	v.SetDefault("mode", "classification")
	v.SetDefault("workers", 1)
	v.SetDefault("continue_on_model_failure", true)
	v.SetDefault("split.folds", 10)
	v.SetDefault("split.small_threshold", 10)
	v.SetDefault("split.train_ratio", 0.8)
	v.SetDefault("split.stratify", true)
	v.SetDefault("split.strict_leave_one_out", false)
	v.SetDefault("models.laplace", 1.0)
	v.SetDefault("models.tree_max_depth", 8)
	v.SetDefault("models.tree_min_samples", 2)
	v.SetDefault("models.forest_trees", 30)
	v.SetDefault("models.forest_max_depth", 10)
	v.SetDefault("models.logistic_epochs", 300)
	v.SetDefault("models.logistic_learning_rate", 0.5)
	v.SetDefault("models.logistic_ridge", 1e-4)
	v.SetDefault("models.linear_ridge", 1e-8)
	v.SetDefault("models.boosting_rounds", 100)
	v.SetDefault("models.boosting_learning_rate", 0.1)
	v.SetDefault("models.mlp_hidden", 0)
	v.SetDefault("models.mlp_epochs", 200)
	v.SetDefault("models.mlp_learning_rate", 0.05)
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.api_key", "")
	v.SetDefault("server.job_ttl", time.Hour)
	v.SetDefault("server.max_upload_bytes", int64(32 << 20))
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"seed":      "seed",
	"mode":      "mode",
	"workers":   "workers",
	"folds":     "split.folds",
	"strict":    "split.strict_leave_one_out",
	"port":      "server.port",
	"fail-fast": "continue_on_model_failure",
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetConfigType("toml")
	v.SetEnvPrefix("COMPARADOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Default returns the built-in configuration.
func Default() *Config {
	c, err := decode(newViper())
	if err != nil {
		panic(err)
	}
	return c
}

// Load reads the TOML file at path, when given, and binds the flags in
// flagSet that have a configuration key. flagSet may be nil.
func Load(path string, flagSet *pflag.FlagSet) (*Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Annotatef(err, "ler configuração %s", path)
		}
	}
	if flagSet != nil {
		if err := bindFlags(v, flagSet); err != nil {
			return nil, errors.Trace(err)
		}
	}
	return decode(v)
}

// Parse reads configuration from TOML text.
func Parse(r io.Reader) (*Config, error) {
	v := newViper()
	if err := v.ReadConfig(r); err != nil {
		return nil, errors.Annotate(err, "ler configuração")
	}
	return decode(v)
}

func bindFlags(v *viper.Viper, flagSet *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flagSet.Lookup(name)
		if f == nil {
			continue
		}
		if name == "fail-fast" {
			// fail-fast is the negation of continue_on_model_failure
			if f.Changed {
				failFast, _ := flagSet.GetBool(name)
				v.Set(key, !failFast)
			}
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return err
		}
	}
	return nil
}

func decode(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, errors.Annotate(err, "decodificar configuração")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Annotate(err, "configuração inválida")
	}
	return nil
}

// Encode writes c as TOML.
func (c *Config) Encode(w io.Writer) error {
	return errors.Trace(toml.NewEncoder(w).Encode(c))
}
