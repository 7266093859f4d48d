package daemon

import (
	"bufio"
	"errors"
	"fmt"
	"log"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gclaussn/go-bpmn-query/http/server"
	"github.com/gclaussn/go-bpmn-query/ingest"
	"github.com/gclaussn/go-bpmn-query/projection"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	envPrefix = "GO_BPMN_QUERY_"

	optDefaultQueryLimit   = "DEFAULT_QUERY_LIMIT"
	optDefinitionCacheSize = "DEFINITION_CACHE_SIZE"
	optNodeId              = "NODE_ID"
	optOrderBatches        = "ORDER_BATCHES"

	optConsumerWorkers      = "CONSUMER_WORKERS"
	optAuditBreakerFailures = "AUDIT_BREAKER_FAILURES"
	optAuditBreakerTimeout  = "AUDIT_BREAKER_TIMEOUT"

	optAuditRetentionEnabled  = "AUDIT_RETENTION_ENABLED"
	optAuditRetention         = "AUDIT_RETENTION"
	optAuditRetentionSchedule = "AUDIT_RETENTION_SCHEDULE"

	optHttpBindAddress  = "HTTP_BIND_ADDRESS"
	optHttpReadTimeout  = "HTTP_READ_TIMEOUT"
	optHttpWriteTimeout = "HTTP_WRITE_TIMEOUT"
	optDeleteAllEnabled = "DELETE_ALL_ENABLED"

	optLogFormat = "LOG_FORMAT"
	optLogLevel  = "LOG_LEVEL"
)

var (
	version = "unknown-version"
)

// options holds the options of all components, a daemon is composed of.
type options struct {
	store       projection.Options
	consumer    ingest.Options
	housekeeper ingest.HousekeeperOptions
	server      server.Options

	auditRetentionEnabled bool

	logFormat string
	logLevel  zapcore.Level
}

func newOptions(store projection.Options) *options {
	return &options{
		store:       store,
		consumer:    ingest.NewOptions(),
		housekeeper: ingest.NewHousekeeperOptions(),
		server:      server.NewOptions(),

		logFormat: "json",
		logLevel:  zapcore.InfoLevel,
	}
}

func newConf() *conf {
	env := env{}
	for _, value := range os.Environ() {
		env.Set(value)
	}

	conf := conf{
		envFile: envFile{env},
		opts:    make(map[string]*confOpt),
	}

	conf.bindOption(
		optDefaultQueryLimit,
		"limit of queries, executed without an explicit limit",
		func(o *options) string {
			return strconv.Itoa(o.store.DefaultQueryLimit)
		},
		func(o *options, co *confOpt) error {
			defaultQueryLimit, err := strconv.ParseInt(co.value(), 10, 32)
			o.store.DefaultQueryLimit = int(defaultQueryLimit)
			return err
		},
	)
	conf.bindOption(
		optDefinitionCacheSize,
		"maximum number of process definitions, kept in memory",
		func(o *options) string {
			return strconv.Itoa(o.store.DefinitionCacheSize)
		},
		func(o *options, co *confOpt) error {
			definitionCacheSize, err := strconv.ParseInt(co.value(), 10, 32)
			o.store.DefinitionCacheSize = int(definitionCacheSize)
			return err
		},
	)
	conf.bindOption(
		optNodeId,
		"node ID between 0 and 1023, used to generate unique IDs",
		func(o *options) string {
			return strconv.FormatInt(o.store.NodeId, 10)
		},
		func(o *options, co *confOpt) error {
			nodeId, err := strconv.ParseInt(co.value(), 10, 64)
			if err != nil {
				return err
			}
			if nodeId < 0 || nodeId > 1023 {
				return errors.New("must be between 0 and 1023")
			}

			o.store.NodeId = nodeId
			return nil
		},
	)
	conf.bindOption(
		optOrderBatches,
		"sort a batch by event type, before it is projected",
		func(o *options) string {
			return strconv.FormatBool(o.store.OrderBatches)
		},
		func(o *options, co *confOpt) error {
			orderBatches, err := strconv.ParseBool(co.value())
			o.store.OrderBatches = orderBatches
			return err
		},
	)

	conf.bindOption(
		optConsumerWorkers,
		"number of workers, projecting events of distinct aggregates in parallel",
		func(o *options) string {
			return strconv.Itoa(o.consumer.Workers)
		},
		func(o *options, co *confOpt) error {
			workers, err := strconv.ParseInt(co.value(), 10, 32)
			if err != nil {
				return err
			}
			if workers < 1 {
				return errors.New("must be greater than or equal to 1")
			}

			o.consumer.Workers = int(workers)
			return nil
		},
	)
	conf.bindOption(
		optAuditBreakerFailures,
		"number of consecutive audit log failures, which open the circuit breaker",
		func(o *options) string {
			return strconv.FormatUint(uint64(o.consumer.AuditBreakerFailures), 10)
		},
		func(o *options, co *confOpt) error {
			failures, err := strconv.ParseUint(co.value(), 10, 32)
			o.consumer.AuditBreakerFailures = uint32(failures)
			return err
		},
	)
	conf.bindOption(
		optAuditBreakerTimeout,
		"time, the circuit breaker stays open",
		func(o *options) string {
			return o.consumer.AuditBreakerTimeout.String()
		},
		func(o *options, co *confOpt) error {
			timeout, err := time.ParseDuration(co.value())
			o.consumer.AuditBreakerTimeout = timeout
			return err
		},
	)

	conf.bindOption(
		optAuditRetentionEnabled,
		"enable or disable the purge of expired audit events",
		func(o *options) string {
			return strconv.FormatBool(o.auditRetentionEnabled)
		},
		func(o *options, co *confOpt) error {
			enabled, err := strconv.ParseBool(co.value())
			o.auditRetentionEnabled = enabled
			return err
		},
	)
	conf.bindOption(
		optAuditRetention,
		"period, audit events are kept",
		func(o *options) string {
			return o.housekeeper.Retention.String()
		},
		func(o *options, co *confOpt) error {
			retention, err := time.ParseDuration(co.value())
			o.housekeeper.Retention = retention
			return err
		},
	)
	conf.bindOption(
		optAuditRetentionSchedule,
		"CRON expression, determining when expired audit events are purged",
		func(o *options) string {
			return o.housekeeper.Schedule
		},
		func(o *options, co *confOpt) error {
			schedule := co.value()
			if schedule == "" {
				return errors.New("is empty")
			}

			o.housekeeper.Schedule = schedule
			return nil
		},
	)

	conf.bindOption(
		optHttpBindAddress,
		"TCP address of the HTTP API to listen on",
		func(o *options) string {
			return o.server.BindAddress
		},
		func(o *options, co *confOpt) error {
			bindAddress := co.value()
			if bindAddress == "" {
				return errors.New("is empty")
			}

			o.server.BindAddress = bindAddress
			return nil
		},
	)
	conf.bindOption(
		optHttpReadTimeout,
		"maximum duration for reading the entire request - see http.Server#ReadTimeout",
		func(o *options) string {
			return o.server.ReadTimeout.String()
		},
		func(o *options, co *confOpt) error {
			readTimeout, err := time.ParseDuration(co.value())
			o.server.ReadTimeout = readTimeout
			return err
		},
	)
	conf.bindOption(
		optHttpWriteTimeout,
		"maximum duration before timing out writing the response - see http.Server#WriteTimeout",
		func(o *options) string {
			return o.server.WriteTimeout.String()
		},
		func(o *options, co *confOpt) error {
			writeTimeout, err := time.ParseDuration(co.value())
			o.server.WriteTimeout = writeTimeout
			return err
		},
	)
	conf.bindOption(
		optDeleteAllEnabled,
		"enable or disable the deletion of all entities of a kind",
		func(o *options) string {
			return strconv.FormatBool(o.server.DeleteAllEnabled)
		},
		func(o *options, co *confOpt) error {
			deleteAllEnabled, err := strconv.ParseBool(co.value())
			o.server.DeleteAllEnabled = deleteAllEnabled
			return err
		},
	)

	conf.bindOption(
		optLogFormat,
		"log format: json or console",
		func(o *options) string {
			return o.logFormat
		},
		func(o *options, co *confOpt) error {
			logFormat := co.value()
			if logFormat != "json" && logFormat != "console" {
				return errors.New("must be json or console")
			}

			o.logFormat = logFormat
			return nil
		},
	)
	conf.bindOption(
		optLogLevel,
		"minimum log level: debug, info, warn or error",
		func(o *options) string {
			return o.logLevel.String()
		},
		func(o *options, co *confOpt) error {
			logLevel, err := zapcore.ParseLevel(co.value())
			o.logLevel = logLevel
			return err
		},
	)

	return &conf
}

// newLogger builds the logger, shared by all components of a daemon.
func newLogger(o *options) (*zap.Logger, error) {
	var config zap.Config
	if o.logFormat == "console" {
		config = zap.NewDevelopmentConfig()
	} else {
		config = zap.NewProductionConfig()
	}

	config.Level = zap.NewAtomicLevelAt(o.logLevel)
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}

	return config.Build()
}

func listConf(conf *conf) int {
	opts := make([]*confOpt, len(conf.opts))

	i := 0
	for _, opt := range conf.opts {
		opts[i] = opt
		i++
	}

	slices.SortFunc(opts, func(a *confOpt, b *confOpt) int {
		return strings.Compare(a.key, b.key)
	})

	log.SetFlags(0)
	for _, opt := range opts {
		log.Printf("%s=%s", opt.key, opt.value())
	}

	return 0
}

func listConfErrors(conf *conf) int {
	var opts []*confOpt

	for _, opt := range conf.opts {
		if opt.err != nil {
			opts = append(opts, opt)
		}
	}

	if len(opts) == 0 {
		return 0
	}

	slices.SortFunc(opts, func(a *confOpt, b *confOpt) int {
		return strings.Compare(a.key, b.key)
	})

	log.SetFlags(0)
	for _, opt := range opts {
		value := opt.value()
		if value == "" {
			log.Printf("%s: %v", opt.key, opt.err)
		} else {
			log.Printf("%s=%s: %v", opt.key, value, opt.err)
		}
	}

	return 1
}

func listConfOpts(conf *conf) int {
	opts := make([]*confOpt, len(conf.opts))

	i := 0
	for _, opt := range conf.opts {
		opts[i] = opt
		i++
	}

	slices.SortFunc(opts, func(a *confOpt, b *confOpt) int {
		return strings.Compare(a.key, b.key)
	})

	maxKeyLength := 0
	for _, opt := range opts {
		keyLength := len(opt.key)
		if opt.required {
			keyLength++
		}

		if keyLength > maxKeyLength {
			maxKeyLength = keyLength
		}
	}

	var sb strings.Builder
	for _, opt := range opts {
		sb.WriteString(opt.key)

		l := len(opt.key)
		if opt.required {
			sb.WriteRune('*')
			l++
		}

		sb.WriteString(strings.Repeat(" ", maxKeyLength-l))
		sb.WriteString("   ")
		sb.WriteString(opt.description)

		if opt.defaultValue != "" {
			sb.WriteString(fmt.Sprintf(" - default: %s", opt.defaultValue))
		}

		sb.WriteRune('\n')
	}

	log.SetFlags(0)
	log.Print(sb.String())

	return 0
}

func showVersion() int {
	log.Println(version)
	return 0
}

type conf struct {
	envFile envFile
	opts    map[string]*confOpt
}

// bindOption adds an option, which is bound to a field of the daemon's options.
func (c *conf) bindOption(
	key string,
	description string,
	getOption func(*options) string,
	setOption func(*options, *confOpt) error,
) *confOpt {
	co := confOpt{
		env:         c.envFile.env,
		key:         envPrefix + key,
		description: description,

		getOption: getOption,
		setOption: setOption,
	}

	c.opts[key] = &co
	return &co
}

func (c *conf) addOption(key string, description string) *confOpt {
	co := confOpt{
		env:         c.envFile.env,
		key:         envPrefix + key,
		description: description,
	}

	c.opts[key] = &co
	return &co
}

// getOptions sets the configured values, collecting an error per invalid option.
func (c *conf) getOptions(o *options) {
	for _, opt := range c.opts {
		if opt.setOption != nil {
			if err := opt.setOption(o, opt); err != nil {
				opt.err = err
			}
		}
	}
}

// setOptions uses the option values as defaults.
func (c *conf) setOptions(o *options) {
	for _, opt := range c.opts {
		if opt.getOption != nil {
			opt.defaultValue = opt.getOption(o)
		}
	}
}

type confOpt struct {
	env env

	key          string
	description  string
	required     bool
	defaultValue string

	getOption func(*options) string
	setOption func(*options, *confOpt) error

	err error
}

func (o *confOpt) value() string {
	value := o.env[o.key]
	if value != "" {
		return value
	} else {
		return o.defaultValue
	}
}

type env map[string]string

func (v env) Set(value string) error {
	s := strings.SplitN(value, "=", 2)
	if len(s) != 2 {
		return fmt.Errorf("required format %s", v)
	}
	v[s[0]] = s[1]
	return nil
}

func (v env) String() string {
	return "<key>=<value>"
}

type envFile struct {
	env env
}

func (v envFile) Set(value string) error {
	file, err := os.Open(value)
	if err != nil {
		return err
	}

	defer file.Close()

	scanner := bufio.NewScanner(file)

	i := 0
	for scanner.Scan() {
		i++
		line := scanner.Text()
		if err := v.env.Set(line); err != nil {
			return fmt.Errorf("wrong format in line %d: required format %s", i, v.env)
		}
	}

	return nil
}

func (v envFile) String() string {
	return "<file>"
}
