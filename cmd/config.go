package main

import "time"

type config struct {
	Log      logConfig
	API      apiConfig
	Database databaseConfig
	Redis    redisConfig
	Chain    chainConfig
	Delivery deliveryConfig
	GeoIP    geoIPConfig
}

type logConfig struct {
	Pretty bool
	Level  string
}

type apiConfig struct {
	ListenAddr           string
	AuthenticationTokens []string
}

type databaseConfig struct {
	Enabled          bool
	ConnectionString string
}

type redisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

type chainConfig struct {
	Enabled      bool
	URL          string
	Token        string
	Timeout      time.Duration
	RetryWait    time.Duration
	RetryWaitMax time.Duration
	RetryCount   int
}

type deliveryConfig struct {
	CacheTTL time.Duration
}

type geoIPConfig struct {
	Enabled bool
	Token   string
	Timeout time.Duration
}
