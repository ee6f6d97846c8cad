package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MorrisonWill/willmorrison.com/internal/config"
	"github.com/MorrisonWill/willmorrison.com/internal/logger"
	"github.com/MorrisonWill/willmorrison.com/internal/model"
	"github.com/MorrisonWill/willmorrison.com/internal/render"
)

var cfgFile string

// app is everything a command needs, assembled once the configuration is read.
type app struct {
	cfg    config.Config
	mode   model.RenderMode
	layout config.Layout
	root   string
	fs     afero.Fs
	site   *model.SiteData
	log    *logger.Logger
}

var application app

var rootCmd = &cobra.Command{
	Use:   "site",
	Short: "Builds and serves willmorrison.com",
	Long: `site turns the Markdown files under ./content into HTML pages using the
templates in ./templates. It can write a static build to ./dist or serve
the site directly, rendering on demand in development mode.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeConfig(cmd)
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().String("root", ".", "site root directory")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
}

func initializeConfig(cmd *cobra.Command) error {
	v := viper.New()

	defaults := config.Defaults()
	v.SetDefault("root", defaults.Root)
	v.SetDefault("mode", defaults.Mode)
	v.SetDefault("siteTitle", defaults.SiteTitle)
	v.SetDefault("baseURL", defaults.BaseURL)
	v.SetDefault("contentDir", defaults.ContentDir)
	v.SetDefault("templatesDir", defaults.TemplatesDir)
	v.SetDefault("publicDir", defaults.PublicDir)
	v.SetDefault("outputDir", defaults.OutputDir)
	v.SetDefault("port", defaults.Port)
	v.SetDefault("verbose", false)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("SITE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("failed to bind flags: %w", err)
	}

	configUsed := ""
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file: %w", err)
		}
		if cfgFile != "" {
			return fmt.Errorf("config file %s not found: %w", cfgFile, err)
		}
	} else {
		configUsed = v.ConfigFileUsed()
	}

	var cfg config.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("unable to decode config into struct: %w", err)
	}
	mode, err := cfg.Validate()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	level := charmlog.InfoLevel
	if cfg.Verbose {
		level = charmlog.DebugLevel
	}
	log := logger.NewWithLevel(os.Stderr, level)
	if configUsed != "" {
		log.Debug("using config file", "file", configUsed)
	} else {
		log.Debug("no config file found, using defaults and environment")
	}

	siteData, err := model.LoadSiteData(configUsed)
	if err != nil {
		return err
	}
	if _, ok := siteData.Params["siteTitle"]; !ok {
		siteData.Params["siteTitle"] = cfg.SiteTitle
	}
	if _, ok := siteData.Params["baseURL"]; !ok {
		siteData.Params["baseURL"] = cfg.BaseURL
	}

	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return fmt.Errorf("failed to resolve site root '%s': %w", cfg.Root, err)
	}

	application = app{
		cfg:    cfg,
		mode:   mode,
		layout: cfg.Layout(),
		root:   root,
		fs:     afero.NewBasePathFs(afero.NewOsFs(), root),
		site:   siteData,
		log:    log,
	}
	return nil
}

// renderer returns a Renderer whose template cache follows the render mode.
func (a *app) renderer() *render.Renderer {
	return render.New(a.fs, render.TemplateConfig{
		Dir:     a.layout.TemplatesDir,
		NoCache: a.mode == model.ModeDevelopment,
	}, a.site)
}

// osPath maps a layout directory to a path on disk.
func (a *app) osPath(dir string) string {
	return filepath.Join(a.root, filepath.FromSlash(dir))
}
