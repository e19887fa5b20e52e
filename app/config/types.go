package config

// Profile describes the monitored feed and how notifications are shaped
type Profile struct {
	Source SourceSettings `yaml:"source"`
	Notify NotifySettings `yaml:"notify"`
}

// SourceSettings selects the feed adapter and its fetch parameters
type SourceSettings struct {
	Kind       string `yaml:"kind"`
	URL        string `yaml:"url"`
	WindowSize int    `yaml:"window_size"`
	Timeout    int    `yaml:"timeout"` // seconds
}

// NotifySettings controls how delivered embeds are rendered and paced
type NotifySettings struct {
	Username        string `yaml:"username"`
	Color           int    `yaml:"color"`
	Footer          string `yaml:"footer"`
	Timeout         int    `yaml:"timeout"` // seconds
	RatePerMinute   int    `yaml:"rate_per_minute"`
	ExtractPreview  bool   `yaml:"extract_preview"`
	PreviewMaxChars int    `yaml:"preview_max_chars"`
}
