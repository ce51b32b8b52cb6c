package cfg

type Cfg struct {
	// Storage configuration
	DBPath    string
	RedisAddr string

	// Application configuration
	SourcesDir       string
	Port             string
	CollectorTimeout int
	CacheTTL         int
	ShutdownGrace    int
	APIAccessKey     string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
