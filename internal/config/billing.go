package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// BillingConfig is the file-backed billing configuration: the metering
// module, its measuring points, the flat energy rate and the issuer
// identity printed on invoices.
type BillingConfig struct {
	ModuleID        string   `mapstructure:"moduleId"`
	MeasuringPoints []string `mapstructure:"measuringPoints"`
	RatePerKWh      float64  `mapstructure:"ratePerKwh"`
	Currency        string   `mapstructure:"currency"`

	Issuer IssuerConfig `mapstructure:"issuer"`

	// TrendFallback is the baseline consumption series substituted into
	// trend buckets for historical ranges that predate real metering
	// data.
	TrendFallback []float64 `mapstructure:"trendFallback"`
}

// IssuerConfig is the identity/contact block rendered on every invoice.
type IssuerConfig struct {
	Name    string `mapstructure:"name"`
	Address string `mapstructure:"address"`
	Phone   string `mapstructure:"phone"`
	Email   string `mapstructure:"email"`
	Website string `mapstructure:"website"`
}

func DefaultBillingConfig() BillingConfig {
	return BillingConfig{
		ModuleID: "c667ff46-9730-425e-ad48-1e950691b3f9",
		MeasuringPoints: []string{
			"71ef9476-3855-4a3f-8fc5-333cfbf9e898",
			"fd7e69ef-cd01-4b9a-8958-2aa5051428d4",
			"b7423cbc-d622-4247-bb9a-8d125e5e2351",
		},
		RatePerKWh: 0.12,
		Currency:   "CAD",
		Issuer: IssuerConfig{
			Name:    "RVE Cloud Ocean",
			Address: "123 EV Street, Montreal, QC",
			Phone:   "+1 (555) 123-4567",
			Email:   "contact@rve.ca",
			Website: "https://rve.ca",
		},
		TrendFallback: []float64{42.5, 38.2, 45.7, 51.3, 47.8, 53.1},
	}
}

type BillingConfigHolder struct {
	current atomic.Value // holds BillingConfig
}

// NewBillingConfigHolderFrom wraps an in-memory config; used by tests.
func NewBillingConfigHolderFrom(cfg BillingConfig) *BillingConfigHolder {
	holder := &BillingConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewBillingConfigHolder() (*BillingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("billing")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/wattbill/config") // Volume-mounted config
	v.AddConfigPath("/etc/wattbill")            // System config
	v.AddConfigPath(".")                        // Current directory (dev mode)

	v.SetEnvPrefix("WATTBILL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultBillingConfig()
	v.SetDefault("billing.moduleId", defaults.ModuleID)
	v.SetDefault("billing.measuringPoints", defaults.MeasuringPoints)
	v.SetDefault("billing.ratePerKwh", defaults.RatePerKWh)
	v.SetDefault("billing.currency", defaults.Currency)
	v.SetDefault("billing.issuer", defaults.Issuer)
	v.SetDefault("billing.trendFallback", defaults.TrendFallback)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg BillingConfig
	if err := v.UnmarshalKey("billing", &cfg); err != nil {
		return nil, err
	}
	if err := validateBillingConfig(cfg); err != nil {
		return nil, err
	}

	holder := &BillingConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated BillingConfig
		if err := v.UnmarshalKey("billing", &updated); err != nil {
			log.Printf("[billing-config] reload failed: %v", err)
			return
		}
		if err := validateBillingConfig(updated); err != nil {
			log.Printf("[billing-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[billing-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *BillingConfigHolder) Get() BillingConfig {
	return h.current.Load().(BillingConfig)
}

func validateBillingConfig(cfg BillingConfig) error {
	if strings.TrimSpace(cfg.ModuleID) == "" {
		return errors.New("billing.moduleId cannot be empty")
	}
	if len(cfg.MeasuringPoints) == 0 {
		return errors.New("billing.measuringPoints cannot be empty")
	}
	if cfg.RatePerKWh <= 0 {
		return errors.New("billing.ratePerKwh must be positive")
	}
	if len(cfg.TrendFallback) == 0 {
		return errors.New("billing.trendFallback cannot be empty")
	}
	return nil
}
