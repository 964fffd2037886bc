package config

import (
	"os"
	"strings"

	"github.com/limaJavier/schooltimetable/pkg/model"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

const (
	EnvPrefix     = "TIMETABLE"
	DotEnvFile    = ".env"
	defaultConfig = "timetable"
)

type Config struct {
	Store       string     `mapstructure:"store" validate:"oneof=memory postgres"`
	DatabaseUrl string     `mapstructure:"databaseUrl" validate:"required_if=Store postgres"`
	Catalog     string     `mapstructure:"catalog" validate:"required"`
	LogLevel    string     `mapstructure:"logLevel" validate:"oneof=debug info warn error"`
	Seed        uint64     `mapstructure:"seed"`
	HttpAddr    string     `mapstructure:"httpAddr" validate:"required"`
	Grid        model.Grid `mapstructure:"grid"`
}

var validate = validator.New()

// Load reads the configuration from defaults, the config file, a .env file and TIMETABLE_* environment variables, in
// increasing order of precedence. An empty configFile looks for an optional timetable.yaml in the working directory
func Load(configFile string) (Config, error) {
	// Load .env if it exists (ignore if it does not)
	if _, err := os.Stat(DotEnvFile); err == nil {
		if err := godotenv.Load(DotEnvFile); err != nil {
			return Config{}, errors.Wrapf(err, "loading %v", DotEnvFile)
		}
	} else if !os.IsNotExist(err) {
		return Config{}, errors.Wrapf(err, "checking %v", DotEnvFile)
	}

	conf := viper.New()
	setDefaults(conf)

	conf.SetEnvPrefix(EnvPrefix)
	conf.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	conf.AutomaticEnv()

	if configFile != "" {
		conf.SetConfigFile(configFile)
		if err := conf.ReadInConfig(); err != nil {
			return Config{}, errors.Wrapf(err, "reading config file %v", configFile)
		}
	} else {
		conf.SetConfigName(defaultConfig)
		conf.AddConfigPath(".")
		if err := conf.ReadInConfig(); err != nil && !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return Config{}, errors.Wrap(err, "reading config file")
		}
	}

	var config Config
	err := conf.Unmarshal(&config, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)))
	if err != nil {
		return Config{}, errors.Wrap(err, "decoding config")
	}

	if err := validate.Struct(config); err != nil {
		return Config{}, errors.Wrap(err, "invalid config")
	}
	if err := config.Grid.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

func setDefaults(conf *viper.Viper) {
	grid := model.DefaultGrid()

	conf.SetDefault("store", "memory")
	conf.SetDefault("databaseUrl", "")
	conf.SetDefault("catalog", "catalog.json")
	conf.SetDefault("logLevel", "info")
	conf.SetDefault("seed", 0)
	conf.SetDefault("httpAddr", ":8080")
	conf.SetDefault("grid.days", grid.Days)
	conf.SetDefault("grid.periods", lo.Map(grid.Periods, func(period model.Period, _ int) map[string]any {
		return map[string]any{"start": period.Start.String(), "end": period.End.String()}
	}))
	conf.SetDefault("grid.doubleSubjects", grid.DoubleSubjects)
}
