package application

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-icdmatch/internal/domain"
	"github.com/ahrav/go-icdmatch/internal/ports"
)

var _ ports.ConfigLoader = (*FileConfigLoader)(nil)

// releaseIDPattern accepts a linearization name such as "mms" or a dated
// release such as "2024-01".
var releaseIDPattern = regexp.MustCompile(`^(?:[a-z]{2,16}|\d{4}-\d{2})$`)

// FileConfigLoader reads an AppConfig from a YAML file, applies environment
// overrides and validates the result.
// An empty path yields the defaults plus environment overrides.
type FileConfigLoader struct {
	path      string
	validator *validator.Validate
	getenv    func(string) string
}

// NewFileConfigLoader creates a loader for path and registers the custom
// validators used by AppConfig.
// NewFileConfigLoader returns an error if validator registration fails.
func NewFileConfigLoader(path string) (*FileConfigLoader, error) {
	v := validator.New()
	if err := registerConfigValidators(v); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}
	return &FileConfigLoader{path: path, validator: v, getenv: os.Getenv}, nil
}

// Load implements ports.ConfigLoader. config must be a *AppConfig.
func (l *FileConfigLoader) Load(ctx context.Context, config any) error {
	cfg, ok := config.(*AppConfig)
	if !ok {
		return ports.NewConfigError("*", fmt.Errorf("unsupported config type %T", config))
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	*cfg = DefaultConfig()
	if l.path != "" {
		data, err := os.ReadFile(filepath.Clean(l.path))
		if errors.Is(err, fs.ErrNotExist) {
			return ports.NewConfigError(l.path, ports.ErrConfigNotFound)
		}
		if err != nil {
			return ports.NewConfigError(l.path, fmt.Errorf("failed to read file: %w", err))
		}
		if err := parseConfigYAML(data, cfg); err != nil {
			return ports.NewConfigError(l.path, err)
		}
	}

	l.applyEnv(cfg)

	return l.Validate(cfg)
}

// Validate checks cfg against its struct tags and collects every failure.
func (l *FileConfigLoader) Validate(cfg *AppConfig) error {
	err := l.validator.Struct(cfg)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("struct validation failed: %w", err)
	}

	verr := domain.NewValidationError("config")
	for _, fe := range fieldErrs {
		verr.AddError(fmt.Sprintf("%s failed on %q", fe.Namespace(), fe.Tag()))
	}
	return verr
}

// Token resolves the bearer token: the variable named by TokenEnv wins over
// an inline token.
func (l *FileConfigLoader) Token(cfg *AppConfig) string {
	if cfg.Remote.TokenEnv != "" {
		if tok := l.getenv(cfg.Remote.TokenEnv); tok != "" {
			return tok
		}
	}
	return cfg.Remote.Token
}

func (l *FileConfigLoader) applyEnv(cfg *AppConfig) {
	if lang := l.getenv(LanguageEnv); lang != "" {
		cfg.Remote.Language = lang
	}
	cfg.Remote.Token = l.Token(cfg)
}

// parseConfigYAML decodes in strict mode so misspelled keys are reported.
// Fields absent from the document keep their defaults and an empty
// document is not an error.
func parseConfigYAML(data []byte, cfg *AppConfig) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("YAML decode failed: %w", err)
	}
	return nil
}

// registerConfigValidators registers the releaseid and langtag validators.
func registerConfigValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("releaseid", validateReleaseID); err != nil {
		return fmt.Errorf("failed to register releaseid validator: %w", err)
	}
	if err := v.RegisterValidation("langtag", validateLangTag); err != nil {
		return fmt.Errorf("failed to register langtag validator: %w", err)
	}
	return nil
}

func validateReleaseID(fl validator.FieldLevel) bool {
	return releaseIDPattern.MatchString(fl.Field().String())
}

// validateLangTag accepts any well-formed BCP 47 tag.
func validateLangTag(fl validator.FieldLevel) bool {
	_, err := language.Parse(fl.Field().String())
	return err == nil
}
