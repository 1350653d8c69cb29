package cfg

type Cfg struct {
	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Application configuration
	SourcesDir   string
	Port         string
	WorkerCount  int
	PollInterval int
	APIAccessKey string

	// Scan configuration
	Community    string
	ScanBody     bool
	DeepScan     bool
	DryRun       bool
	SetFlair     bool
	FetchTimeout int

	// Platform credentials
	RedditClientID     string
	RedditClientSecret string
	RedditUsername     string
	RedditPassword     string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
