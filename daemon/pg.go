package daemon

import (
	"context"
	"errors"
	"flag"
	"log"
	"time"

	"github.com/gclaussn/go-bpmn-query/projection"
	"github.com/gclaussn/go-bpmn-query/projection/pg"
	"go.uber.org/zap"
)

func RunPg(args []string) int {
	storeOptions := pg.NewOptions()
	o := newOptions(storeOptions.Common)

	conf := newConf()

	pgDatabaseUrl := conf.addOption("PG_DATABASE_URL", "format: postgres://<username>:<password>@<host>:<port>/<database>?search_path=<schema>")
	pgDatabaseUrl.required = true

	conf.setOptions(o)

	flags := flag.NewFlagSet("go-bpmn-query-pgd", flag.ContinueOnError)
	flags.SetOutput(log.Writer())

	flags.Var(&conf.envFile.env, "env", "set environment variables")
	flags.Var(&conf.envFile, "env-file", "read in a file of environment variables")

	var doListConfOpts bool
	flags.BoolVar(&doListConfOpts, "list-conf-opts", false, "list configuration options")
	var doListConf bool
	flags.BoolVar(&doListConf, "list-conf", false, "list configuration")
	var doVersion bool
	flags.BoolVar(&doVersion, "version", false, "show version")

	var doCreateApiKey bool
	flags.BoolVar(&doCreateApiKey, "create-api-key", false, "create a new API key")
	var secretId string
	flags.StringVar(&secretId, "secret-id", "", "secret ID, required when creating a new API key")

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

	if pgDatabaseUrl.value() == "" {
		pgDatabaseUrl.err = errors.New("is empty")
	}

	if code := listConfErrors(conf); code != 0 {
		return code
	}

	logger, err := newLogger(o)
	if err != nil {
		log.Printf("failed to create logger: %v", err)
		return 1
	}

	defer logger.Sync()

	storeStartTime := time.Now()

	store, err := pg.New(pgDatabaseUrl.value(), func(so *pg.Options) {
		*so = storeOptions
		so.Common = o.store

		so.Common.OnEventFailure = func(event projection.Event, err error) {
			logger.Debug("failed to project event", zap.Stringer("event", event), zap.Error(err))
		}
	})
	if err != nil {
		logger.Error("failed to create pg store", zap.Error(err))
		return 1
	}

	apiKeyManager := store.(pg.ApiKeyManager)
	if doCreateApiKey {
		defer store.Shutdown()

		_, authorization, err := apiKeyManager.CreateApiKey(context.Background(), secretId)
		if err != nil {
			logger.Error("failed to create API key", zap.Error(err))
			return 1
		}

		log.SetFlags(0)
		log.Writer().Write([]byte(authorization))
		return 0
	}

	logger.Info("pg store started",
		zap.String("version", version),
		zap.Duration("startTime", time.Since(storeStartTime)),
	)

	o.server.ApiKeyManager = apiKeyManager

	return serve(store, o, logger)
}
