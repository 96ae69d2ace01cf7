package run

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"

	"github.com/hashicorp/hcl/hcl/token"
	"github.com/imdario/mergo"
	"github.com/mitchellh/cli"
	"github.com/sirupsen/logrus"
	"github.com/spiffe/peercred/cmd/peercred-agent/cli/common"
	"github.com/spiffe/peercred/pkg/agent"
	common_cli "github.com/spiffe/peercred/pkg/common/cli"
	"github.com/spiffe/peercred/pkg/common/config"
	"github.com/spiffe/peercred/pkg/common/log"
	"github.com/spiffe/peercred/pkg/common/telemetry"
	"github.com/spiffe/peercred/pkg/common/util"
)

const (
	commandName = "run"

	defaultConfigPath = "conf/agent/agent.conf"
	defaultLogLevel   = "INFO"
)

// Config contains all available configurables, arranged by section
type Config struct {
	Agent              *agentConfig           `hcl:"agent"`
	Telemetry          telemetry.FileConfig   `hcl:"telemetry"`
	UnusedKeyPositions map[string][]token.Pos `hcl:",unusedKeyPositions"`
}

type agentConfig struct {
	SocketPath         string  `hcl:"socket_path"`
	AdminSocketPath    string  `hcl:"admin_socket_path"`
	LogFile            string  `hcl:"log_file"`
	LogFormat          string  `hcl:"log_format"`
	LogLevel           string  `hcl:"log_level"`
	LogSourceLocation  bool    `hcl:"log_source_location"`
	RateLimit          float64 `hcl:"rate_limit"`
	RateLimitBurst     int     `hcl:"rate_limit_burst"`
	IncludeProcessInfo bool    `hcl:"include_process_info"`
	Umask              string  `hcl:"umask"`

	ConfigPath         string
	ExpandEnv          bool
	AllowUnknownConfig bool

	UnusedKeyPositions map[string][]token.Pos `hcl:",unusedKeyPositions"`
}

type Command struct {
	ctx                context.Context
	logOptions         []log.Option
	env                *common_cli.Env
	allowUnknownConfig bool
}

func NewRunCommand(ctx context.Context, logOptions []log.Option, allowUnknownConfig bool) cli.Command {
	return newRunCommand(ctx, common_cli.DefaultEnv, logOptions, allowUnknownConfig)
}

func newRunCommand(ctx context.Context, env *common_cli.Env, logOptions []log.Option, allowUnknownConfig bool) *Command {
	return &Command{
		ctx:                ctx,
		env:                env,
		logOptions:         logOptions,
		allowUnknownConfig: allowUnknownConfig,
	}
}

// Help prints the agent cmd usage
func (cmd *Command) Help() string {
	_, err := parseFlags(commandName, []string{"-h"}, cmd.env.Stderr)
	// Error is always present because -h is passed
	return err.Error()
}

func (*Command) Synopsis() string {
	return "Runs the agent"
}

func LoadConfig(name string, args []string, logOptions []log.Option, output io.Writer, allowUnknownConfig bool) (*agent.Config, error) {
	// First parse the CLI flags so we can get the config
	// file path, if set
	cliInput, err := parseFlags(name, args, output)
	if err != nil {
		return nil, err
	}

	// Load and parse the config file using either the default
	// path or CLI-specified value
	fileInput, err := ParseFile(cliInput.ConfigPath, cliInput.ExpandEnv)
	if err != nil {
		return nil, err
	}

	input, err := mergeInput(fileInput, cliInput)
	if err != nil {
		return nil, err
	}

	return NewAgentConfig(input, logOptions, allowUnknownConfig || cliInput.AllowUnknownConfig)
}

func (cmd *Command) Run(args []string) int {
	c, err := LoadConfig(commandName, args, cmd.logOptions, cmd.env.Stderr, cmd.allowUnknownConfig)
	if err != nil {
		_, _ = fmt.Fprintln(cmd.env.Stderr, err)
		return 1
	}

	if err := prepareEndpoints(c); err != nil {
		_, _ = fmt.Fprintln(cmd.env.Stderr, err)
		return 1
	}

	a := agent.New(c)

	ctx := cmd.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = a.Run(ctx)
	if err != nil {
		c.Log.WithError(err).Error("Agent crashed")
		return 1
	}

	c.Log.Info("Agent stopped gracefully")
	return 0
}

func ParseFile(path string, expandEnv bool) (*Config, error) {
	c := &Config{}

	if path == "" {
		path = defaultConfigPath
	}

	err := config.ParseHCLFile(path, expandEnv, c)
	if errors.Is(err, fs.ErrNotExist) {
		// Return a friendly error if the file is missing
		absPath, absErr := filepath.Abs(path)
		if absErr != nil {
			return nil, fmt.Errorf("could not determine CWD; config file not found at %s: use -config", path)
		}
		return nil, fmt.Errorf("could not find config file %s: please use the -config flag", absPath)
	}
	if err != nil {
		return nil, err
	}

	return c, nil
}

func parseFlags(name string, args []string, output io.Writer) (*agentConfig, error) {
	flags := flag.NewFlagSet(name, flag.ContinueOnError)
	flags.SetOutput(output)
	c := &agentConfig{}

	flags.StringVar(&c.ConfigPath, "config", defaultConfigPath, "Path to a peercred-agent config file")
	flags.StringVar(&c.SocketPath, "socketPath", "", "Path to bind the whoami API socket to")
	flags.StringVar(&c.AdminSocketPath, "adminSocketPath", "", "Path to bind the admin API socket to")
	flags.StringVar(&c.LogFile, "logFile", "", "File to write logs to")
	flags.StringVar(&c.LogFormat, "logFormat", "", "'text' or 'json'")
	flags.StringVar(&c.LogLevel, "logLevel", "", "'debug', 'info', 'warn', or 'error'")
	flags.BoolVar(&c.LogSourceLocation, "logSourceLocation", false, "Include source file, line number and function name in log lines")
	flags.StringVar(&c.Umask, "umask", "", "Umask value to use for new files")
	flags.BoolVar(&c.ExpandEnv, "expandEnv", false, "Expand environment variables in the config file")
	flags.BoolVar(&c.AllowUnknownConfig, "allowUnknownConfig", false, "Do not fail on unknown configuration keys")

	err := flags.Parse(args)
	if err != nil {
		return nil, err
	}

	return c, nil
}

func mergeInput(fileInput *Config, cliInput *agentConfig) (*Config, error) {
	c := &Config{Agent: &agentConfig{}}

	// Highest precedence first
	err := mergo.Merge(c.Agent, cliInput)
	if err != nil {
		return nil, err
	}

	err = mergo.Merge(c, fileInput)
	if err != nil {
		return nil, err
	}

	err = mergo.Merge(c, defaultConfig())
	if err != nil {
		return nil, err
	}

	return c, nil
}

func NewAgentConfig(c *Config, logOptions []log.Option, allowUnknownConfig bool) (*agent.Config, error) {
	ac := &agent.Config{}

	if err := c.Agent.validate(); err != nil {
		return nil, err
	}

	logOptions = append(logOptions,
		log.WithLevel(c.Agent.LogLevel),
		log.WithFormat(c.Agent.LogFormat),
	)
	if c.Agent.LogSourceLocation {
		logOptions = append(logOptions, log.WithSourceLocation())
	}
	var reopenableFile *log.ReopenableFile
	if c.Agent.LogFile != "" {
		var err error
		reopenableFile, err = log.NewReopenableFile(c.Agent.LogFile)
		if err != nil {
			return nil, err
		}
		logOptions = append(logOptions, log.WithReopenableOutputFile(reopenableFile))
	}

	logger, err := log.NewLogger(logOptions...)
	if err != nil {
		return nil, fmt.Errorf("could not start logger: %w", err)
	}
	ac.Log = logger
	if reopenableFile != nil {
		ac.LogReopener = log.ReopenOnSignal(logger, reopenableFile)
	}

	ac.BindAddress, err = common.GetAddr(c.Agent.SocketPath)
	if err != nil {
		return nil, err
	}

	ac.AdminBindAddress, err = c.Agent.getAdminAddr()
	if err != nil {
		return nil, err
	}

	ac.Umask = -1
	if c.Agent.Umask != "" {
		umask, err := strconv.ParseInt(c.Agent.Umask, 8, 0)
		if err != nil {
			return nil, fmt.Errorf("could not parse umask %q: %w", c.Agent.Umask, err)
		}
		ac.Umask = int(umask)
	}

	ac.RateLimit = c.Agent.RateLimit
	ac.RateLimitBurst = c.Agent.RateLimitBurst
	ac.IncludeProcessInfo = c.Agent.IncludeProcessInfo
	ac.Telemetry = c.Telemetry

	if !allowUnknownConfig {
		if err := checkForUnknownConfig(c, logger); err != nil {
			return nil, err
		}
	}

	return ac, nil
}

func (c *agentConfig) validate() error {
	if c == nil {
		return errors.New("agent section must be configured")
	}

	if c.SocketPath == "" {
		return errors.New("socket_path must be configured")
	}

	if c.AdminSocketPath == "" {
		return errors.New("admin_socket_path must be configured")
	}

	if c.RateLimit < 0 {
		return errors.New("rate_limit should not be negative")
	}

	if c.RateLimitBurst < 0 {
		return errors.New("rate_limit_burst should not be negative")
	}

	return nil
}

func (c *agentConfig) getAdminAddr() (*net.UnixAddr, error) {
	socketPathAbs, err := filepath.Abs(c.SocketPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path for socket_path: %w", err)
	}
	adminSocketPathAbs, err := filepath.Abs(c.AdminSocketPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path for admin_socket_path: %w", err)
	}

	if strings.HasPrefix(adminSocketPathAbs, filepath.Dir(socketPathAbs)+"/") {
		return nil, errors.New("admin socket cannot be in the same directory or a subdirectory as that containing the whoami API socket")
	}

	return util.GetUnixAddr(adminSocketPathAbs), nil
}

func checkForUnknownConfig(c *Config, l logrus.FieldLogger) (err error) {
	detectedUnknown := func(section string, keyPositions map[string][]token.Pos) {
		var keys []string
		for k := range keyPositions {
			keys = append(keys, k)
		}

		sort.Strings(keys)
		l.WithFields(logrus.Fields{
			"section": section,
			"keys":    strings.Join(keys, ","),
		}).Error("Unknown configuration detected")
		err = errors.New("unknown configuration detected")
	}

	if len(c.UnusedKeyPositions) != 0 {
		detectedUnknown("top-level", c.UnusedKeyPositions)
	}

	if a := c.Agent; a != nil && len(a.UnusedKeyPositions) != 0 {
		detectedUnknown("agent", a.UnusedKeyPositions)
	}

	if p := c.Telemetry.Prometheus; p != nil && len(p.UnusedKeyPositions) != 0 {
		detectedUnknown("Prometheus", p.UnusedKeyPositions)
	}

	if p := c.Telemetry.InMem; p != nil && len(p.UnusedKeyPositions) != 0 {
		detectedUnknown("InMem", p.UnusedKeyPositions)
	}

	return err
}

func defaultConfig() *Config {
	return &Config{
		Agent: &agentConfig{
			SocketPath:      common.DefaultRunSocketPath,
			AdminSocketPath: common.DefaultAdminSocketPath,
			LogLevel:        defaultLogLevel,
			LogFormat:       log.DefaultFormat,
		},
	}
}

func prepareEndpoints(c *agent.Config) error {
	// Create uds dir and parents if not exists
	dir := filepath.Dir(c.BindAddress.String())
	if _, statErr := os.Stat(dir); os.IsNotExist(statErr) {
		c.Log.WithField(telemetry.Path, dir).Info("Creating agent UDS directory")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	// Set umask before starting up the agent
	common_cli.SetUmask(c.Log, c.Umask)

	if c.AdminBindAddress != nil {
		adminDir := filepath.Dir(c.AdminBindAddress.String())
		if _, statErr := os.Stat(adminDir); os.IsNotExist(statErr) {
			c.Log.WithField(telemetry.Path, adminDir).Info("Creating admin UDS directory")
			if err := os.MkdirAll(adminDir, 0o750); err != nil {
				return err
			}
		}
	}

	return nil
}
