package repository

import "time"

// Option applies a configuration option to a GormStore.
type Option func(*gormOptions)

type gormOptions struct {
	maxOpenConns    int
	maxIdleConns    int
	connMaxLifetime time.Duration
	batchSize       int
}

func defaultGormOptions() gormOptions {
	return gormOptions{
		maxOpenConns:    20,
		maxIdleConns:    5,
		connMaxLifetime: 30 * time.Minute,
		batchSize:       200,
	}
}

// WithMaxOpenConns bounds the connection pool.
func WithMaxOpenConns(n int) Option {
	return func(o *gormOptions) {
		if n > 0 {
			o.maxOpenConns = n
		}
	}
}

// WithMaxIdleConns sets the number of idle connections kept open.
func WithMaxIdleConns(n int) Option {
	return func(o *gormOptions) {
		if n >= 0 {
			o.maxIdleConns = n
		}
	}
}

// WithConnMaxLifetime sets how long a connection may be reused.
func WithConnMaxLifetime(d time.Duration) Option {
	return func(o *gormOptions) {
		if d > 0 {
			o.connMaxLifetime = d
		}
	}
}

// WithBatchSize sets how many issues are inserted per statement.
func WithBatchSize(n int) Option {
	return func(o *gormOptions) {
		if n > 0 {
			o.batchSize = n
		}
	}
}
