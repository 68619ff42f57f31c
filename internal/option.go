package internal

import "time"

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config  *Config
	clock   func() time.Time
	noIndex bool
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithClock sets the source of build times. Defaults to time.Now.
func WithClock(clock func() time.Time) Option {
	return func(a *application) {
		a.clock = clock
	}
}

// WithoutIndex makes RunBuild scan the site directly instead of going
// through the SQLite index.
func WithoutIndex() Option {
	return func(a *application) {
		a.noIndex = true
	}
}

func newApplication(opts []Option) (*application, error) {
	app := &application{clock: time.Now}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, errConfigRequired
	}
	return app, nil
}
