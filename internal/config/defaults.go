package config

const (
	// DefaultImageName is the published code-server image.
	DefaultImageName = "lscr.io/linuxserver/code-server:latest"
	// DefaultServiceName is the default discovery label value.
	DefaultServiceName = "code-server"
	DefaultUIListen    = "127.0.0.1:3000"
	DefaultLogLevel    = "info"
)

// GetDefaultConfig returns the built-in configuration every file is layered on.
func GetDefaultConfig() Config {
	return Config{
		DevServices: DevServices{
			ImageName:    DefaultImageName,
			ServiceName:  DefaultServiceName,
			ContainerEnv: map[string]string{},
		},
		LaunchMode: "development",
		UI: UIConfig{
			Listen: DefaultUIListen,
		},
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
	}
}
