package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kstaniek/go-cansock/internal/can"
	"github.com/kstaniek/go-cansock/internal/logging"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "CANSOCK"

type appConfig struct {
	logFormat       string
	logLevel        string
	logFile         string
	logMetricsEvery time.Duration

	canIf        string
	filters      []can.Filter
	joinFilters  bool
	fdFrames     bool
	recvOwn      bool
	noLoopback   bool
	errMask      uint32
	readTimeout  time.Duration
	writeTimeout time.Duration

	pollInterval time.Duration
	metricsAddr  string
	mdnsEnable   bool
	mdnsName     string
	pcapFile     string

	count    int
	interval time.Duration
	output   string
}

// newViper returns a viper instance that maps flag "foo-bar" to CANSOCK_FOO_BAR.
// Explicitly set flags win over the environment, which wins over flag defaults.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

func addGlobalFlags(fs *pflag.FlagSet) {
	fs.String("log-format", "text", "Log format: text|json")
	fs.String("log-level", "info", "Log level: debug|info|warn|error")
	fs.String("log-file", "", "Write logs to a size-rotated file instead of stderr")
	fs.Duration("log-metrics-interval", 0, "If >0, periodically log metrics counters")
	fs.String("profile", "", "INI file with flag defaults (flags and environment take precedence)")
}

func addSocketFlags(fs *pflag.FlagSet) {
	fs.String("if", "can0", "CAN interface name")
	fs.StringSlice("filter", nil, "Receive filter id:mask or id~mask (inverted), repeatable")
	fs.Bool("join-filters", false, "Require frames to match all filters")
	fs.Bool("fd", false, "Enable CAN FD frames")
	fs.Bool("recv-own", false, "Receive frames sent by this socket")
	fs.Bool("no-loopback", false, "Disable local loopback of sent frames")
	fs.String("err-mask", "0", "Error frame class mask (e.g. 0x1FFFFFFF)")
	fs.Duration("read-timeout", 0, "Socket receive timeout (0 = none)")
	fs.Duration("write-timeout", 0, "Socket send timeout (0 = none)")
}

func addDumpFlags(fs *pflag.FlagSet) {
	fs.Duration("poll-interval", defaultPollInterval, "Poll timeout per wait cycle")
	fs.String("metrics-addr", "", "Metrics HTTP listen address (e.g., :9100); empty disables")
	fs.Bool("mdns-enable", false, "Advertise the metrics endpoint via mDNS")
	fs.String("mdns-name", "", "mDNS instance name (default cansock-<hostname>)")
	fs.String("pcap", "", "Also record received frames to this pcap file")
}

func addSendFlags(fs *pflag.FlagSet) {
	fs.Int("count", 1, "Number of times to send the frame list")
	fs.Duration("interval", 0, "Delay between frames")
}

// loadConfig assembles appConfig from v. Keys without a bound flag keep
// their zero value unless set through the environment.
func loadConfig(v *viper.Viper) (*appConfig, error) {
	c := &appConfig{
		logFormat:       v.GetString("log-format"),
		logLevel:        v.GetString("log-level"),
		logFile:         v.GetString("log-file"),
		logMetricsEvery: v.GetDuration("log-metrics-interval"),
		canIf:           v.GetString("if"),
		joinFilters:     v.GetBool("join-filters"),
		fdFrames:        v.GetBool("fd"),
		recvOwn:         v.GetBool("recv-own"),
		noLoopback:      v.GetBool("no-loopback"),
		readTimeout:     v.GetDuration("read-timeout"),
		writeTimeout:    v.GetDuration("write-timeout"),
		pollInterval:    v.GetDuration("poll-interval"),
		metricsAddr:     v.GetString("metrics-addr"),
		mdnsEnable:      v.GetBool("mdns-enable"),
		mdnsName:        v.GetString("mdns-name"),
		count:           v.GetInt("count"),
		interval:        v.GetDuration("interval"),
		pcapFile:        v.GetString("pcap"),
		output:          v.GetString("output"),
	}
	if c.logFormat == "" {
		c.logFormat = "text"
	}
	if c.logLevel == "" {
		c.logLevel = "info"
	}
	if c.output == "" {
		c.output = "text"
	}
	if c.pollInterval == 0 {
		c.pollInterval = defaultPollInterval
	}
	// Environment values arrive whitespace-split; accept commas like the flag does.
	for _, item := range v.GetStringSlice("filter") {
		for _, s := range strings.Split(item, ",") {
			if s = strings.TrimSpace(s); s == "" {
				continue
			}
			f, err := can.ParseFilter(s)
			if err != nil {
				return nil, fmt.Errorf("filter %q: %w", s, err)
			}
			c.filters = append(c.filters, f)
		}
	}
	if s := v.GetString("err-mask"); s != "" {
		m, err := strconv.ParseUint(s, 0, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid err-mask %q: %w", s, err)
		}
		c.errMask = uint32(m)
	}
	return c, nil
}

// validate performs basic semantic validation of the assembled configuration.
// It does not attempt to open sockets, only checks values/ranges.
func (c *appConfig) validate() error {
	if c == nil {
		return errors.New("nil config")
	}
	switch c.logFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log-format: %s", c.logFormat)
	}
	if _, err := logging.ParseLevel(c.logLevel); err != nil {
		return fmt.Errorf("invalid log-level: %s", c.logLevel)
	}
	if c.logMetricsEvery < 0 {
		return fmt.Errorf("log-metrics-interval must be >= 0")
	}
	if c.pollInterval <= 0 {
		return fmt.Errorf("poll-interval must be > 0")
	}
	if c.readTimeout < 0 || c.writeTimeout < 0 {
		return fmt.Errorf("read/write timeouts must be >= 0")
	}
	if c.count < 0 {
		return fmt.Errorf("count must be >= 0 (got %d)", c.count)
	}
	if c.interval < 0 {
		return fmt.Errorf("interval must be >= 0")
	}
	switch c.output {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("invalid output: %s", c.output)
	}
	if c.mdnsEnable && c.metricsAddr == "" {
		return fmt.Errorf("mdns-enable requires metrics-addr")
	}
	return nil
}
