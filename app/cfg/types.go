package cfg

type Cfg struct {
	// Selected command: run, report, notify or preview
	Command    string
	ConfigPath string
	LogLevel   string

	// Preview server
	Port      string
	AccessKey string

	Version string
}

type runCommand struct {
	Config   string `short:"c" long:"config" env:"DIGEST_CONFIG" default:"config.yaml" description:"Path to the YAML run configuration"`
	LogLevel string `short:"l" long:"log-level" env:"LOG_LEVEL" default:"info" choice:"debug" choice:"info" choice:"warn" choice:"error" description:"Log level"`
}

type reportCommand struct {
	Config   string `short:"c" long:"config" env:"DIGEST_CONFIG" default:"config.yaml" description:"Path to the YAML run configuration"`
	LogLevel string `short:"l" long:"log-level" env:"LOG_LEVEL" default:"info" choice:"debug" choice:"info" choice:"warn" choice:"error" description:"Log level"`
}

type notifyCommand struct {
	Config   string `short:"c" long:"config" env:"DIGEST_CONFIG" default:"config.yaml" description:"Path to the YAML run configuration"`
	LogLevel string `short:"l" long:"log-level" env:"LOG_LEVEL" default:"info" choice:"debug" choice:"info" choice:"warn" choice:"error" description:"Log level"`
}

type previewCommand struct {
	Config    string `short:"c" long:"config" env:"DIGEST_CONFIG" default:"config.yaml" description:"Path to the YAML run configuration"`
	Port      string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	AccessKey string `long:"access-key" env:"PREVIEW_ACCESS_KEY" description:"Access key protecting /runs (optional)"`
	LogLevel  string `short:"l" long:"log-level" env:"LOG_LEVEL" default:"info" choice:"debug" choice:"info" choice:"warn" choice:"error" description:"Log level"`
}

type rawCfg struct {
	Run     runCommand     `command:"run" description:"Fetch, summarize and publish new articles"`
	Report  reportCommand  `command:"report" description:"Publish one aggregate report of recent articles"`
	Notify  notifyCommand  `command:"notify" description:"Email the most recent post"`
	Preview previewCommand `command:"preview" description:"Serve generated posts over HTTP"`
}
