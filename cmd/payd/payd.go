package main

import (
	"context"
	"database/sql"
	"flag"
	"os"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gopkg.in/inconshreveable/log15.v2"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"

	"github.com/sahelpay/payd/pkg/config"
	"github.com/sahelpay/payd/pkg/env"
	"github.com/sahelpay/payd/pkg/gateway"
	"github.com/sahelpay/payd/pkg/payd/txn"
	"github.com/sahelpay/payd/pkg/server"
	"github.com/sahelpay/payd/pkg/service"
	v1 "github.com/sahelpay/payd/pkg/service/api/v1"
	"github.com/sahelpay/payd/pkg/service/lifecycle"
)

const (
	// AppName is the name of the application
	AppName = "payd"
	// AppVersion is the version of the application
	AppVersion = "0.1"
)

// EnvVarConfigFileName is the name of the environment var holding the
// config file name
const EnvVarConfigFileName = "PAYDCFG"

// command line flags
var (
	// cfgFileName is the configuration file to use
	cfgFileName string
)

var (
	log log15.Logger
	cfg config.Config
)

func main() {
	// set flags
	flag.StringVar(&cfgFileName, "c", "", "config file name to use")
	flag.Parse()

	log = env.Log.New(log15.Ctx{
		"AppName":    AppName,
		"AppVersion": AppVersion,
		"PID":        os.Getpid(),
	})

	cfg = loadConfig()
	env.SetRuntime()

	writeDB, readDB := openPaymentDB()

	ctx := service.NewContext(context.Background(), cfg, log)
	ctx.SetPaymentDB(writeDB, readDB)

	gwTimeout, err := cfg.Gateway.Timeout.Duration()
	if err != nil {
		log.Crit("error parsing gateway timeout", log15.Ctx{"err": err})
		os.Exit(1)
	}
	gw, err := gateway.NewHTTPClient(cfg.Gateway.URL, cfg.Gateway.APIKey, gwTimeout, log)
	if err != nil {
		log.Crit("error creating gateway client", log15.Ctx{"err": err})
		os.Exit(1)
	}

	lc, err := lifecycle.NewService(ctx, lifecycle.Deps{
		Gateway: gw,
		Store:   txn.NewSQLStore(writeDB),
		Log:     log,
	})
	if err != nil {
		log.Crit("error creating lifecycle service", log15.Ctx{"err": err})
		os.Exit(1)
	}

	router := mux.NewRouter()
	v1.NewService(ctx, lc, router)
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	requestTimeout, err := cfg.API.RequestTimeout.Duration()
	if err != nil {
		log.Crit("error parsing request timeout", log15.Ctx{"err": err})
		os.Exit(1)
	}

	srv := server.NewServer(log)
	err = srv.RegisterService(cfg.API.Service, service.TimeoutHandler(log, requestTimeout, router))
	if err != nil {
		log.Crit("error registering API service", log15.Ctx{"err": err})
		os.Exit(1)
	}
	srv.RegisterShutdownHandler(lc.Shutdown)
	srv.RegisterShutdownHandler(func() {
		closeDB(writeDB, readDB)
	})

	log.Info("serving...")
	if err := srv.Serve(); err != nil {
		log.Crit("error serving", log15.Ctx{"err": err})
		os.Exit(1)
	}
}

// loadConfig reads the configuration from the -c flag or $PAYDCFG,
// falling back to the default config
func loadConfig() config.Config {
	if cfgFileName == "" {
		cfgFileName = os.Getenv(EnvVarConfigFileName)
	}
	if cfgFileName == "" {
		log.Warn("no config file. using default config")
		return config.DefaultConfig()
	}
	cfgFile, err := os.Open(cfgFileName)
	if err != nil {
		log.Crit("error opening config file", log15.Ctx{
			"err":         err,
			"cfgFileName": cfgFileName,
		})
		os.Exit(1)
	}
	defer func() {
		if err := cfgFile.Close(); err != nil {
			log.Warn("error closing config file", log15.Ctx{"err": err})
		}
	}()
	c, err := config.ReadConfig(cfgFile)
	if err != nil {
		log.Crit("error reading config", log15.Ctx{"err": err})
		os.Exit(1)
	}
	log.Info("read config", log15.Ctx{"cfgFileName": cfgFileName})
	return c
}

// openPaymentDB opens the write connection and the optional read-only
// connection, and ensures the pending transaction table exists
func openPaymentDB() (writeDB, readDB *sql.DB) {
	var err error
	writeDB, err = sql.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		log.Crit("error opening payment DB", log15.Ctx{
			"err":    err,
			"driver": cfg.Database.Driver,
		})
		os.Exit(1)
	}
	if err = writeDB.Ping(); err != nil {
		log.Crit("error connecting to payment DB", log15.Ctx{"err": err})
		os.Exit(1)
	}
	if err = txn.CreatePendingTableDB(writeDB); err != nil {
		log.Crit("error creating pending transaction table", log15.Ctx{"err": err})
		os.Exit(1)
	}
	if cfg.Database.ReadOnlyDSN == "" {
		return writeDB, nil
	}
	readDB, err = sql.Open(cfg.Database.Driver, cfg.Database.ReadOnlyDSN)
	if err != nil {
		log.Crit("error opening read-only payment DB", log15.Ctx{"err": err})
		os.Exit(1)
	}
	if err = readDB.Ping(); err != nil {
		log.Crit("error connecting to read-only payment DB", log15.Ctx{"err": err})
		os.Exit(1)
	}
	return writeDB, readDB
}

func closeDB(dbs ...*sql.DB) {
	for _, db := range dbs {
		if db == nil {
			continue
		}
		if err := db.Close(); err != nil {
			log.Warn("error closing payment DB", log15.Ctx{"err": err})
		}
	}
}
