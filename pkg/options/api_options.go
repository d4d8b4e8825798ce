package options

import (
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*ApiOptions)(nil)

// ApiOptions contains configuration for the SafeDrive backend REST API.
type ApiOptions struct {
	// BaseURL is the root of the backend API, e.g. "https://api.safedrive.io/api".
	BaseURL string `json:"base-url" mapstructure:"base-url"`

	// Timeout for individual API calls.
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`

	// TokenFile is where the bearer token is persisted between runs.
	// The token is the only state that survives a restart.
	TokenFile string `json:"token-file" mapstructure:"token-file"`
}

// NewApiOptions creates an ApiOptions object with default parameters.
func NewApiOptions() *ApiOptions {
	return &ApiOptions{
		BaseURL:   "https://api.safedrive.io/api",
		Timeout:   10 * time.Second,
		TokenFile: "~/.safedrive/token",
	}
}

// Validate is used to parse and validate the parameters entered by the user at
// the command line when the program starts.
func (o *ApiOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errors := []error{}

	if err := ValidateURL(o.BaseURL); err != nil {
		errors = append(errors, err)
	}

	return errors
}

// AddFlags adds flags for ApiOptions to the specified FlagSet.
func (o *ApiOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.BaseURL, "api.base-url", o.BaseURL, "The base URL of the SafeDrive backend API.")
	fs.DurationVar(&o.Timeout, "api.timeout", o.Timeout, "Timeout for individual API calls.")
	fs.StringVar(&o.TokenFile, "api.token-file", o.TokenFile, "Path where the session bearer token is persisted.")
}
