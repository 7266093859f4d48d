package daemon

import (
	"errors"
	"flag"
	"log"

	"github.com/gclaussn/go-bpmn-query/projection"
	"github.com/gclaussn/go-bpmn-query/projection/mem"
	"go.uber.org/zap"
)

func RunMem(args []string) int {
	storeOptions := mem.NewOptions()
	o := newOptions(storeOptions.Common)

	conf := newConf()

	httpBasicAuthUsername := conf.bindOption(
		"HTTP_BASIC_AUTH_USERNAME",
		"username for basic authentication",
		func(o *options) string {
			return ""
		},
		func(o *options, co *confOpt) error {
			username := co.value()
			if username == "" {
				return errors.New("is empty")
			}

			o.server.BasicAuthUsername = username
			return nil
		},
	)
	httpBasicAuthUsername.required = true

	httpBasicAuthPassword := conf.bindOption(
		"HTTP_BASIC_AUTH_PASSWORD",
		"password for basic authentication",
		func(o *options) string {
			return ""
		},
		func(o *options, co *confOpt) error {
			password := co.value()
			if password == "" {
				return errors.New("is empty")
			}

			o.server.BasicAuthPassword = password
			return nil
		},
	)
	httpBasicAuthPassword.required = true

	conf.setOptions(o)

	flags := flag.NewFlagSet("go-bpmn-query-memd", flag.ContinueOnError)
	flags.SetOutput(log.Writer())

	flags.Var(&conf.envFile.env, "env", "set environment variables")
	flags.Var(&conf.envFile, "env-file", "read in a file of environment variables")

	var doListConfOpts bool
	flags.BoolVar(&doListConfOpts, "list-conf-opts", false, "list configuration options")
	var doListConf bool
	flags.BoolVar(&doListConf, "list-conf", false, "list configuration")
	var doVersion bool
	flags.BoolVar(&doVersion, "version", false, "show version")

	if err := flags.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		} else {
			return 1
		}
	}

	if doListConfOpts {
		return listConfOpts(conf)
	}
	if doListConf {
		return listConf(conf)
	}
	if doVersion {
		return showVersion()
	}

	conf.getOptions(o)

	if code := listConfErrors(conf); code != 0 {
		return code
	}

	logger, err := newLogger(o)
	if err != nil {
		log.Printf("failed to create logger: %v", err)
		return 1
	}

	defer logger.Sync()

	store, err := mem.New(func(so *mem.Options) {
		*so = storeOptions
		so.Common = o.store

		so.Common.OnEventFailure = func(event projection.Event, err error) {
			logger.Debug("failed to project event", zap.Stringer("event", event), zap.Error(err))
		}
	})
	if err != nil {
		logger.Error("failed to create mem store", zap.Error(err))
		return 1
	}

	logger.Info("mem store started", zap.String("version", version))

	return serve(store, o, logger)
}
