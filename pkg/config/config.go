package config

// this holds the resolved configuration values from CLI
//
//nolint:lll // readablity
var (
	DB                string   // connection string for the plan history (postgres url or sqlite file)
	WaitForServices   string   // duration to wait for other services to be ready
	LogLevel          string   // sets the log level (zap log level values)
	SQLLogLevel       string   // sets the log level for sql subsystem
	LogFormat         string   // text vs json
	LogFilter         []string // zapfilter rules, for example "debug:bot* info:*"
	EnableTelemetry   bool     // enable telemetry
	TelemetryEndpoint string   // endpoint for telemetry, "stdout" prints to stdout
	ProfilingPort     int      // port for profiling
	MetricsAddr       string   // listen addr for prometheus metrics
	ServerAddr        string   // listen addr for the rpc server (insecure)
	TLSServerAddr     string   // listen addr for the rpc server (tls)
	TLSCertFile       string   // path to TLS certificate
	TLSKeyFile        string   // path to TLS key
	TLSCAFile         string   // path to TLS CA
	TraefikCerts      string   // path to traefik certs file
	TraefikCertDomain string   // the domain to lookup within the traefik certs
	AdminToken        string   // token for admin access
	NatsURL           string   // url of the nats server, empty disables publishing
	TelegramToken     string   // telegram bot token
	AllowedChats      []int64  // chats allowed to use the bot, empty allows all
	AnnounceChats     []int64  // chats receiving announcements of new plans
	PlanCacheTTL      string   // duration plans are kept in cache
	PlanRetention     string   // plans older than this are purged, empty keeps all plans
)
