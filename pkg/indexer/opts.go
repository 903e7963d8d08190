package indexer

import "time"

func WithOpenSearchUsername(username string) Option {
	return func(i *Indexer) {
		i.opensearchUsername = username
	}
}

func WithOpenSearchPassword(password string) Option {
	return func(i *Indexer) {
		i.opensearchPassword = password
	}
}

func WithOpenSearchSkipTLS() Option {
	return func(i *Indexer) {
		i.opensearchInsecureSkipVerify = true
	}
}

func WithIndex(name string) Option {
	return func(i *Indexer) {
		i.validationsIndex = name
	}
}

func WithClock(now func() time.Time) Option {
	return func(i *Indexer) {
		i.now = now
	}
}
