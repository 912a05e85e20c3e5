package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Env              string
		Build            string
		AppName          string
		Debug            bool
		TestMode         bool
		SecretKey        string
		WorkDir          string
		LogFile          string
		RollbarToken     string
		SendgridApiKey   string
		FrontendBaseURL  string
		defaultFromEmail string

		Timezone  string
		Location  *time.Location
		WeekStart time.Weekday

		Server       ServerConfig
		Database     DatabaseConfig
		PrayerTimes  PrayerTimesConfig
		Redis        RedisConfig
		Reminder     ReminderConfig
		DefaultAdmin DefaultAdminConfig
	}

	ServerConfig struct {
		Host               string
		Address            string
		DebugHost          string
		JWTExpirationDelta time.Duration
		JWTRefreshDelta    time.Duration
		ShutdownTimeout    time.Duration
		SessionCookie      string
		LoginRate          float64 // requests per second, per client IP
		LoginBurst         int
	}

	DatabaseConfig struct {
		Engine        string // postgres | sqlite
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
		Path          string // sqlite only
	}

	PrayerTimesConfig struct {
		BaseURL   string
		Latitude  float64
		Longitude float64
		Method    int
		School    int
		CacheTTL  time.Duration
	}

	RedisConfig struct {
		Addr     string
		Password string
		DB       int
	}

	ReminderConfig struct {
		Enabled bool
		Spec    string
		Lead    time.Duration
		To      string
	}

	DefaultAdminConfig struct {
		Username string
		Password string
	}
)

func (db DatabaseConfig) Address() string {
	if db.Port == "" {
		return db.Host
	}
	return net.JoinHostPort(db.Host, db.Port)
}

func (conf *Config) DefaultFromEmail() mail.Address {
	addr, err := mail.ParseAddress(conf.defaultFromEmail)
	if err != nil {
		return mail.Address{Name: conf.AppName, Address: "noreply@localhost"}
	}
	if addr.Name == "" {
		addr.Name = conf.AppName
	}
	return *addr
}

// NewConfig loads the configuration from defaults, `config/.env.<env>` and the environment.
// Environment variables are prefixed by the env name, e.g. DEV_DATABASE_HOST.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("build", "develop")
	v.SetDefault("appName", "Mutabaah")
	v.SetDefault("secretKey", "kq1-vx)f8r$+23=pz&uo4h2(k!m)#*c9(#wg4h^$b7gm2e")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("logFile", "")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("timezone", "Asia/Jakarta")
	v.SetDefault("weekStart", 0) // Sunday

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debugHost", ":8001")
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.jwtRefreshDelta", 30*24*time.Hour)
	v.SetDefault("server.shutdownTimeout", 10*time.Second)
	v.SetDefault("server.sessionCookie", "session")
	v.SetDefault("server.loginRate", 1.0)
	v.SetDefault("server.loginBurst", 5)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "mutabaah")
	v.SetDefault("database.user", "mutabaah")
	v.SetDefault("database.password", "mutabaah")
	v.SetDefault("database.adminUser", "")
	v.SetDefault("database.adminPassword", "")
	v.SetDefault("database.disableTLS", true)
	v.SetDefault("database.path", "mutabaah.db")

	v.SetDefault("prayerTimes.baseURL", "https://api.aladhan.com")
	v.SetDefault("prayerTimes.latitude", -6.2)
	v.SetDefault("prayerTimes.longitude", 106.816666)
	v.SetDefault("prayerTimes.method", 3) // Muslim World League
	v.SetDefault("prayerTimes.school", 0) // Shafi
	v.SetDefault("prayerTimes.cacheTTL", 24*time.Hour)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("reminder.enabled", true)
	v.SetDefault("reminder.spec", "@every 1m")
	v.SetDefault("reminder.lead", 5*time.Minute)
	v.SetDefault("reminder.to", "")

	v.SetDefault("defaultAdmin.username", "CpanelAdmin")
	v.SetDefault("defaultAdmin.password", "admin123")

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	wd := Getwd()
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	conf := &Config{
		Env:              env,
		Build:            v.GetString("build"),
		AppName:          v.GetString("appName"),
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("testMode"),
		SecretKey:        v.GetString("secretKey"),
		WorkDir:          wd,
		LogFile:          v.GetString("logFile"),
		RollbarToken:     v.GetString("rollbarToken"),
		SendgridApiKey:   v.GetString("sendgridApiKey"),
		FrontendBaseURL:  v.GetString("frontendBaseURL"),
		defaultFromEmail: v.GetString("defaultFromEmail"),
		Timezone:         v.GetString("timezone"),
		WeekStart:        time.Weekday(v.GetInt("weekStart") % 7),
		Server: ServerConfig{
			Host:               v.GetString("server.host"),
			Address:            v.GetString("server.address"),
			DebugHost:          v.GetString("server.debugHost"),
			JWTExpirationDelta: v.GetDuration("server.jwtExpirationDelta"),
			JWTRefreshDelta:    v.GetDuration("server.jwtRefreshDelta"),
			ShutdownTimeout:    v.GetDuration("server.shutdownTimeout"),
			SessionCookie:      v.GetString("server.sessionCookie"),
			LoginRate:          v.GetFloat64("server.loginRate"),
			LoginBurst:         v.GetInt("server.loginBurst"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Host:          v.GetString("database.host"),
			Port:          v.GetString("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
			Path:          v.GetString("database.path"),
		},
		PrayerTimes: PrayerTimesConfig{
			BaseURL:   v.GetString("prayerTimes.baseURL"),
			Latitude:  v.GetFloat64("prayerTimes.latitude"),
			Longitude: v.GetFloat64("prayerTimes.longitude"),
			Method:    v.GetInt("prayerTimes.method"),
			School:    v.GetInt("prayerTimes.school"),
			CacheTTL:  v.GetDuration("prayerTimes.cacheTTL"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Reminder: ReminderConfig{
			Enabled: v.GetBool("reminder.enabled"),
			Spec:    v.GetString("reminder.spec"),
			Lead:    v.GetDuration("reminder.lead"),
			To:      v.GetString("reminder.to"),
		},
		DefaultAdmin: DefaultAdminConfig{
			Username: v.GetString("defaultAdmin.username"),
			Password: v.GetString("defaultAdmin.password"),
		},
	}

	loc, err := time.LoadLocation(conf.Timezone)
	if err != nil {
		log.Fatalf("config.time.LoadLocation(%s): %v", conf.Timezone, err)
	}
	conf.Location = loc
	return conf
}

// NewTestConfig returns a Config suitable for tests: sqlite in memory, no external services.
func NewTestConfig() *Config {
	loc, err := time.LoadLocation("Asia/Jakarta")
	if err != nil {
		loc = time.FixedZone("WIB", 7*60*60)
	}
	return &Config{
		Env:              "TEST",
		Build:            "test",
		AppName:          "Mutabaah",
		TestMode:         true,
		SecretKey:        "secret",
		defaultFromEmail: "noreply@localhost",
		Timezone:         loc.String(),
		Location:         loc,
		WeekStart:        time.Sunday,
		Server: ServerConfig{
			JWTExpirationDelta: time.Hour,
			JWTRefreshDelta:    24 * time.Hour,
			ShutdownTimeout:    time.Second,
			SessionCookie:      "session",
			LoginRate:          100,
			LoginBurst:         100,
		},
		Database: DatabaseConfig{Engine: "sqlite", Path: ":memory:"},
		PrayerTimes: PrayerTimesConfig{
			Latitude:  -6.2,
			Longitude: 106.816666,
			Method:    3,
			CacheTTL:  time.Hour,
		},
		Reminder:     ReminderConfig{Spec: "@every 1m", Lead: 5 * time.Minute},
		DefaultAdmin: DefaultAdminConfig{Username: "CpanelAdmin", Password: "admin123"},
	}
}
