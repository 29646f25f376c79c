// Package config is the threshold provider for the risk engine. It loads the
// named risk parameters from defaults, an optional YAML file and the
// environment, and rejects out-of-range values before the engine starts.
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	rerrors "github.com/ducminhle1904/polymarket-risk/internal/errors"
)

// RiskConfig holds every risk threshold. Percentages are expressed as
// percent (0.8 means 0.8%). Pointer fields are optional: nil disables the
// corresponding breaker or filter.
type RiskConfig struct {
	RiskPerTradePct float64 `yaml:"risk_per_trade_pct" validate:"gte=0.1,lte=5"`
	StopLossPct     float64 `yaml:"stop_loss_pct" validate:"gte=1,lte=20"`
	TimeStopSeconds int     `yaml:"time_stop_seconds" validate:"gte=30,lte=300"`
	PositionCapPct  float64 `yaml:"position_cap_pct" validate:"gte=5,lte=100"`

	TakeProfitPctToOne        float64 `yaml:"take_profit_pct_to_one" validate:"gte=30,lte=95"`
	TakeProfitFirstPortionPct float64 `yaml:"take_profit_first_portion_pct" validate:"gte=20,lte=90"`

	ConsecutiveLossesPause      int `yaml:"consecutive_losses_pause" validate:"gte=2,lte=20"`
	ConsecutiveLossPauseMinutes int `yaml:"consecutive_loss_pause_minutes" validate:"gte=5,lte=120"`

	SessionDrawdownPct  float64 `yaml:"session_drawdown_pct" validate:"gte=1,lte=20"`
	SessionPauseMinutes int     `yaml:"session_pause_minutes" validate:"gte=10,lte=240"`
	DailyDrawdownPct    float64 `yaml:"daily_drawdown_pct" validate:"gte=2,lte=25"`
	MonthlyDrawdownPct  float64 `yaml:"monthly_drawdown_pct" validate:"gte=5,lte=50"`

	VolatilitySkip1MinStd *float64 `yaml:"volatility_skip_1min_std" validate:"omitempty,gte=0.01,lte=0.1"`

	MinSecondsUntilResolution int      `yaml:"min_seconds_until_resolution" validate:"gte=0,lte=600"`
	MinVolume60sUSD           *float64 `yaml:"min_volume_60s_usd" validate:"omitempty,gte=0"`
	MaxZscore3Min             *float64 `yaml:"max_zscore_3min" validate:"omitempty,gte=1.5,lte=5"`
	MaxRSIOverbought          *float64 `yaml:"max_rsi_overbought" validate:"omitempty,gte=70,lte=95"`

	MaxPositionSize float64 `yaml:"max_position_size" validate:"gte=1"`
}

// Default returns the production defaults.
func Default() RiskConfig {
	return RiskConfig{
		RiskPerTradePct:             0.8,
		StopLossPct:                 5.0,
		TimeStopSeconds:             120,
		PositionCapPct:              25.0,
		TakeProfitPctToOne:          55.0,
		TakeProfitFirstPortionPct:   65.0,
		ConsecutiveLossesPause:      5,
		ConsecutiveLossPauseMinutes: 30,
		SessionDrawdownPct:          4.0,
		SessionPauseMinutes:         60,
		DailyDrawdownPct:            8.0,
		MonthlyDrawdownPct:          20.0,
		VolatilitySkip1MinStd:       Float(0.028),
		MinSecondsUntilResolution:   90,
		MinVolume60sUSD:             nil,
		MaxZscore3Min:               Float(2.5),
		MaxRSIOverbought:            Float(80.0),
		MaxPositionSize:             100.0,
	}
}

// Float returns a pointer to v, for optional thresholds.
func Float(v float64) *float64 { return &v }

// Load builds a RiskConfig from defaults, then yamlFile (if non-empty), then
// envFile (if it exists), then the process environment, and validates it.
// Environment keys are the upper-cased YAML names, e.g. RISK_PER_TRADE_PCT.
// The value "none" disables an optional threshold.
func Load(envFile, yamlFile string) (RiskConfig, error) {
	cfg := Default()

	if yamlFile != "" {
		if err := loadYAML(yamlFile, &cfg); err != nil {
			return RiskConfig{}, err
		}
	}

	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return RiskConfig{}, rerrors.WrapError(err, rerrors.ErrorCategoryConfiguration, "config", "load_env").
					WithContext("file", envFile)
			}
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return RiskConfig{}, err
	}

	if err := cfg.Validate(); err != nil {
		return RiskConfig{}, err
	}
	return cfg, nil
}

func loadYAML(path string, cfg *RiskConfig) error {
	f, err := os.Open(path)
	if err != nil {
		return rerrors.WrapError(err, rerrors.ErrorCategoryConfiguration, "config", "open_yaml").
			WithContext("file", path)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return rerrors.WrapError(err, rerrors.ErrorCategoryConfiguration, "config", "decode_yaml").
			WithContext("file", path)
	}
	return nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks every threshold against its documented range.
func (c RiskConfig) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	cfgErr := rerrors.NewConfigurationError("config", "validate", "risk thresholds out of range")
	var fieldErrs validator.ValidationErrors
	if ok := asValidationErrors(err, &fieldErrs); ok {
		for _, fe := range fieldErrs {
			cfgErr.WithContext(fe.Field(), fmt.Sprintf("%s=%s (got %v)", fe.Tag(), fe.Param(), deref(fe.Value())))
		}
		return cfgErr
	}
	cfgErr.Underlying = err
	return cfgErr
}

func asValidationErrors(err error, out *validator.ValidationErrors) bool {
	fe, ok := err.(validator.ValidationErrors)
	if ok {
		*out = fe
	}
	return ok
}

func deref(v interface{}) interface{} {
	if p, ok := v.(*float64); ok && p != nil {
		return *p
	}
	return v
}

// Environment overlay

type envOverlay struct {
	errs []string
}

func applyEnv(cfg *RiskConfig) error {
	o := &envOverlay{}

	o.float("RISK_PER_TRADE_PCT", &cfg.RiskPerTradePct)
	o.float("STOP_LOSS_PCT", &cfg.StopLossPct)
	o.int("TIME_STOP_SECONDS", &cfg.TimeStopSeconds)
	o.float("POSITION_CAP_PCT", &cfg.PositionCapPct)
	o.float("TAKE_PROFIT_PCT_TO_ONE", &cfg.TakeProfitPctToOne)
	o.float("TAKE_PROFIT_FIRST_PORTION_PCT", &cfg.TakeProfitFirstPortionPct)
	o.int("CONSECUTIVE_LOSSES_PAUSE", &cfg.ConsecutiveLossesPause)
	o.int("CONSECUTIVE_LOSS_PAUSE_MINUTES", &cfg.ConsecutiveLossPauseMinutes)
	o.float("SESSION_DRAWDOWN_PCT", &cfg.SessionDrawdownPct)
	o.int("SESSION_PAUSE_MINUTES", &cfg.SessionPauseMinutes)
	o.float("DAILY_DRAWDOWN_PCT", &cfg.DailyDrawdownPct)
	o.float("MONTHLY_DRAWDOWN_PCT", &cfg.MonthlyDrawdownPct)
	o.optFloat("VOLATILITY_SKIP_1MIN_STD", &cfg.VolatilitySkip1MinStd)
	o.int("MIN_SECONDS_UNTIL_RESOLUTION", &cfg.MinSecondsUntilResolution)
	o.optFloat("MIN_VOLUME_60S_USD", &cfg.MinVolume60sUSD)
	o.optFloat("MAX_ZSCORE_3MIN", &cfg.MaxZscore3Min)
	o.optFloat("MAX_RSI_OVERBOUGHT", &cfg.MaxRSIOverbought)
	o.float("MAX_POSITION_SIZE", &cfg.MaxPositionSize)

	if len(o.errs) == 0 {
		return nil
	}
	err := rerrors.NewConfigurationError("config", "load_env", "invalid environment values")
	for i, e := range o.errs {
		err.WithContext(fmt.Sprintf("env%d", i), e)
	}
	return err
}

func (o *envOverlay) float(key string, dst *float64) {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		o.errs = append(o.errs, fmt.Sprintf("%s: %q is not a number", key, val))
		return
	}
	*dst = f
}

func (o *envOverlay) int(key string, dst *int) {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		o.errs = append(o.errs, fmt.Sprintf("%s: %q is not an integer", key, val))
		return
	}
	*dst = n
}

func (o *envOverlay) optFloat(key string, dst **float64) {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return
	}
	if strings.EqualFold(val, "none") {
		*dst = nil
		return
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		o.errs = append(o.errs, fmt.Sprintf("%s: %q is not a number", key, val))
		return
	}
	*dst = &f
}
