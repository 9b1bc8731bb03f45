package main

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"

	"github.com/hashicorp/go-multierror"
)

type Config struct {
	endpoint       string
	dsn            string
	payoutEndpoint string
	openingBalance uint64
	webhookURL     string
	deploymentPath string
	logLevel       string
	env            string
	authSecretKey  string
	operator       string

	invalid []error
}

func generateRandomString(length int) string {
	b := make([]byte, length)
	_, err := rand.Read(b)
	if err != nil {
		panic(err)
	}
	return base64.StdEncoding.EncodeToString(b)
}

func lookupEnv(key string, value *string) {
	if v := os.Getenv(key); v != "" {
		*value = v
	}
}

func NewConfig() Config {
	var config Config

	flag.StringVar(&config.endpoint, "a", "localhost:8090", "address and port to run server")
	flag.StringVar(&config.dsn, "d", "", "data source name for database connection, in-memory store when empty")
	flag.StringVar(&config.payoutEndpoint, "p", "", "payout gateway address, in-memory wallet when empty")
	flag.Uint64Var(&config.openingBalance, "b", 0, "opening balance of every identity in the in-memory wallet")
	flag.StringVar(&config.webhookURL, "w", "", "url receiving ledger events, disabled when empty")
	flag.StringVar(&config.deploymentPath, "o", "", "file to write the deployment descriptor to")
	flag.Parse()

	lookupEnv("RUN_ADDRESS", &config.endpoint)
	lookupEnv("DATABASE_URI", &config.dsn)
	lookupEnv("PAYOUT_ADDRESS", &config.payoutEndpoint)
	lookupEnv("WEBHOOK_ADDRESS", &config.webhookURL)
	if v := os.Getenv("WALLET_OPENING_BALANCE"); v != "" {
		balance, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			config.invalid = append(config.invalid, fmt.Errorf("wallet opening balance: %w", err))
		}
		config.openingBalance = balance
	}
	lookupEnv("DEPLOYMENT_PATH", &config.deploymentPath)

	config.logLevel = "error"
	lookupEnv("LOG_LEVEL", &config.logLevel)

	config.env = "production"
	lookupEnv("ENV", &config.env)

	config.operator = "operator"
	lookupEnv("OPERATOR", &config.operator)

	lookupEnv("AUTH_SECRET_KEY", &config.authSecretKey)
	if config.authSecretKey == "" {
		if config.env == "production" {
			config.authSecretKey = generateRandomString(10)
			log.Printf("WARNING: AUTH_SECRET_KEY has to be defined for production environment\n")
		} else {
			config.authSecretKey = "development-key"
		}
	}

	return config
}

// Validate reports every malformed setting at once.
func (c Config) Validate() error {
	result := multierror.Append(nil, c.invalid...)

	if c.endpoint == "" {
		result = multierror.Append(result, errors.New("run address is empty"))
	}
	if c.payoutEndpoint != "" {
		if err := validateURL(c.payoutEndpoint); err != nil {
			result = multierror.Append(result, fmt.Errorf("payout address: %w", err))
		}
	}
	if c.webhookURL != "" {
		if err := validateURL(c.webhookURL); err != nil {
			result = multierror.Append(result, fmt.Errorf("webhook address: %w", err))
		}
	}

	return result.ErrorOrNil()
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("host is empty")
	}
	return nil
}
