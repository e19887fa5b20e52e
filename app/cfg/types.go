package cfg

type Cfg struct {
	// Delivery configuration
	WebhookURL  string
	ForceResend bool

	// Polling configuration
	Once         bool
	PollInterval int
	ConfigFile   string

	// Cursor storage configuration
	StateDriver string
	StatePath   string

	// Application configuration
	Port string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
