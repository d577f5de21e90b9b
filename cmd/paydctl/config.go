package main

import (
	"fmt"
	"net"
	"net/url"
	"os"

	"github.com/codegangsta/cli"

	"github.com/sahelpay/payd/pkg/config"
)

const cfgCommandDescription = `This command allows you to load, modify and test configuration
files.`

var cfg = config.DefaultConfig()

var configCommand = cli.Command{
	Name:        "config",
	ShortName:   "cfg",
	Usage:       "Configuration related tools.",
	Description: cfgCommandDescription,
	Subcommands: []cli.Command{
		testConfigCommand,
		writeConfigCommand,
	},
}

var testConfigCommand = cli.Command{
	Name:      "test",
	ShortName: "t",
	Usage:     "Test configuration.",
	Action:    testConfigAction,
}

func configFileName(c *cli.Context) string {
	return c.GlobalString("config")
}

func readConfig(c *cli.Context) bool {
	if configFileName(c) != "" {
		if !readConfigFile(configFileName(c)) {
			return false
		}
	} else {
		fmt.Println("no config file flag provided. will use default config...")
	}
	return true
}

func readConfigFile(cfgFileName string) bool {
	fmt.Printf("will read config file %s...\n", cfgFileName)
	cfgFile, err := os.Open(cfgFileName)
	if err != nil {
		fmt.Printf("error opening config file %s: %v\n", cfgFileName, err)
		return false
	}
	defer cfgFile.Close()
	cfg, err = config.ReadConfig(cfgFile)
	if err != nil {
		fmt.Printf("error reading config file %s: %v\n", cfgFileName, err)
		return false
	}
	return true
}

func testConfigAction(c *cli.Context) {
	if !readConfig(c) {
		return
	}

	errors := 0
	warnings := 0

	if cfg.API.Service.Address == "" {
		errors++
		fmt.Println("error: API.Service.Address is empty.")
	} else {
		apiAddr, err := net.ResolveTCPAddr("tcp", cfg.API.Service.Address)
		if err != nil {
			errors++
			fmt.Printf("error: API.Service.Address could not be resolved: %v\n", err)
		} else {
			fmt.Printf("API.Service.Address: API server will use network %s and address %s\n", apiAddr.Network(), apiAddr.String())
		}
	}

	switch cfg.Database.Driver {
	case "mysql", "sqlite3":
		fmt.Printf("Database.Driver: %s\n", cfg.Database.Driver)
	default:
		errors++
		fmt.Printf("error: Database.Driver %q is not supported.\n", cfg.Database.Driver)
	}
	if cfg.Database.DSN == "" {
		errors++
		fmt.Println("error: Database.DSN is empty.")
	}
	if cfg.Database.ReadOnlyDSN == "" {
		warnings++
		fmt.Println("warning: Database.ReadOnlyDSN is empty. reads will use the write connection.")
	}

	if cfg.Gateway.URL == "" {
		errors++
		fmt.Println("error: Gateway.URL is empty.")
	} else if _, err := url.Parse(cfg.Gateway.URL); err != nil {
		errors++
		fmt.Printf("error: Gateway.URL could not be parsed: %v\n", err)
	}
	if cfg.Gateway.APIKey == "" {
		warnings++
		fmt.Println("warning: Gateway.APIKey is empty. gateway requests will be unauthenticated.")
	}

	for name, d := range map[string]config.Duration{
		"API.Service.ReadTimeout":  cfg.API.Service.ReadTimeout,
		"API.Service.WriteTimeout": cfg.API.Service.WriteTimeout,
		"API.RequestTimeout":       cfg.API.RequestTimeout,
		"Gateway.Timeout":          cfg.Gateway.Timeout,
		"Payment.PollInterval":     cfg.Payment.PollInterval,
		"Payment.PollMaxInterval":  cfg.Payment.PollMaxInterval,
		"Payment.DefaultTTL":       cfg.Payment.DefaultTTL,
		"Payment.ConfirmDelay":     cfg.Payment.ConfirmDelay,
	} {
		if _, err := d.Duration(); err != nil {
			errors++
			fmt.Printf("error: %s could not be parsed: %v\n", name, err)
		}
	}
	if cfg.Payment.PollBackoffFactor < 1 {
		errors++
		fmt.Println("error: Payment.PollBackoffFactor must be >= 1.")
	}
	if cfg.Payment.PollMaxAttempts <= 0 {
		errors++
		fmt.Println("error: Payment.PollMaxAttempts must be positive.")
	}

	fmt.Printf("\n\nconfig testing complete.\n%d errors and %d warnings.\n", errors, warnings)
}

var writeConfigCommand = cli.Command{
	Name:      "write",
	ShortName: "w",
	Usage:     "Will write the config in buffer to the given output file.",
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "output, o",
			Usage: "Output file to write to.",
		},
	},
	Action: writeConfigAction,
}

func writeConfigAction(c *cli.Context) {
	cfgFileName := c.String("output")
	if cfgFileName == "" {
		fmt.Print("no output file name provided\n\n")
		cli.ShowCommandHelp(c, "w")
		return
	}

	if !readConfig(c) {
		return
	}
	cfgFile, err := os.OpenFile(cfgFileName, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0600)
	if err != nil {
		fmt.Printf("error opening config file %s for writing: %v\n", cfgFileName, err)
		return
	}
	defer cfgFile.Close()
	err = config.WriteConfig(cfgFile, cfg)
	if err != nil {
		fmt.Printf("error writing config file %s: %v\n", cfgFileName, err)
		return
	}
	fmt.Printf("config file %s written.\n", cfgFileName)
}
